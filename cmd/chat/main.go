package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rsukhar/startup-hacker-course/internal/api"
	"github.com/rsukhar/startup-hacker-course/internal/chat"
	"github.com/rsukhar/startup-hacker-course/internal/config"
	"github.com/rsukhar/startup-hacker-course/internal/speech"
	"github.com/rsukhar/startup-hacker-course/internal/store"
	"github.com/rsukhar/startup-hacker-course/internal/transport"
	"github.com/rsukhar/startup-hacker-course/internal/tts"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	serverURL string
	agentID   string
	modelID   string
	voiceMode string
	language  string
	sessionID string
	pcmOut    string
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "chat",
		Short:        "Terminal client for the assistant chat service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), cfg, opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.serverURL, "server", cfg.ServerURL, "chat service base url")
	rootCmd.PersistentFlags().StringVar(&opts.agentID, "agent", cfg.DefaultAgentID, "agent id")
	rootCmd.PersistentFlags().StringVar(&opts.modelID, "model", cfg.DefaultModelID, "model id")
	rootCmd.Flags().StringVar(&opts.voiceMode, "voice", cfg.VoiceMode, "voice mode: female, male or off")
	rootCmd.Flags().StringVar(&opts.language, "lang", cfg.Language, "chat language: ru or en")
	rootCmd.Flags().StringVar(&opts.sessionID, "session", "", "resume an existing session id")
	rootCmd.Flags().StringVar(&opts.pcmOut, "pcm-out", "", "write narration PCM to this file")

	rootCmd.AddCommand(
		newAgentsCmd(opts),
		newModelsCmd(opts),
		newUploadCmd(cfg, opts),
		newLoginCmd(opts),
	)
	return rootCmd
}

func runChat(ctx context.Context, cfg config.Config, opts *options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionID := opts.sessionID
	if sessionID == "" {
		sessionID = "session_" + uuid.NewString()
	}
	fmt.Printf("session: %s\n", sessionID)

	docs, err := store.OpenFile(cfg.StatePath)
	if err != nil {
		return err
	}
	rest := api.NewClient(opts.serverURL)

	// Re-attach a previously uploaded document to this session.
	if docID, ok := docs.Get(sessionID); ok {
		if err := rest.AttachDocument(ctx, sessionID, docID); err != nil {
			log.Printf("document re-attach failed: %v", err)
		} else {
			fmt.Printf("document attached: %s\n", docID)
		}
	}

	ws, err := transport.Dial(ctx, cfg.ChatWSURL)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.ChatWSURL, err)
	}
	defer ws.Close()

	scheduler := newScheduler(cfg, opts)
	transcript := chat.NewTranscript()
	ctrl := chat.NewController(ws, transcript, scheduler, sessionID, opts.modelID, opts.agentID, opts.language)
	ctrl.OnTurn = func(turn chat.Turn) {
		if turn.Role == chat.RoleAssistant {
			fmt.Printf("assistant> %s\n", turn.Content)
		}
	}
	ctrl.Start(ctx)

	fmt.Println("type a message, or /pause /continue /clear /listen /voices /speed /quit")
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := handleLine(ctrl, scheduler, transcript, line); done {
				return nil
			}
		}
	}
}

func handleLine(ctrl *chat.Controller, scheduler *speech.Scheduler, transcript *chat.Transcript, line string) bool {
	switch strings.TrimSpace(line) {
	case "":
		return false
	case "/quit":
		return true
	case "/pause":
		ctrl.Pause()
	case "/continue":
		ctrl.Continue()
	case "/clear":
		ctrl.Clear()
		fmt.Println("cleared")
	case "/speed":
		fmt.Printf("speed: %.1fx\n", scheduler.CycleRate())
	case "/voices":
		voices := scheduler.Voices()
		if len(voices) == 0 {
			fmt.Println("no voices available")
		}
		for _, v := range voices {
			fmt.Printf("%s\t%s\n", v.Name, v.Lang)
		}
	case "/listen":
		turns := transcript.List()
		for i := len(turns) - 1; i >= 0; i-- {
			if turns[i].Role == chat.RoleAssistant {
				if err := scheduler.Replay(turns[i].Content); err != nil {
					fmt.Println(err)
				}
				return false
			}
		}
		fmt.Println("nothing to play")
	default:
		ctrl.Send(line)
	}
	return false
}

func newScheduler(cfg config.Config, opts *options) *speech.Scheduler {
	mode := speech.Mode(opts.voiceMode)
	if mode != speech.ModeFemale && mode != speech.ModeMale {
		mode = speech.ModeOff
	}
	var sink tts.PCMSink
	if opts.pcmOut != "" {
		f, err := os.Create(opts.pcmOut)
		if err != nil {
			log.Printf("pcm out: %v", err)
		} else {
			sink = tts.WriterSink{W: f}
		}
	}
	var engine speech.Engine
	switch {
	case cfg.TTSProvider == "elevenlabs" && cfg.ElevenLabsKey != "":
		engine = tts.NewElevenLabsEngine(cfg.ElevenLabsKey, sink)
	case cfg.DeepgramKey != "":
		engine = tts.NewDeepgramEngine(cfg.DeepgramKey, sink)
	}
	return speech.NewScheduler(engine, mode, opts.language)
}

func newAgentsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List available agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agents, err := api.NewClient(opts.serverURL).ListAgents(cmd.Context())
			if err != nil {
				return err
			}
			for _, a := range agents {
				fmt.Printf("%s\t%s\t%s\n", a.ID, a.Name, a.Description)
			}
			return nil
		},
	}
}

func newModelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			models, err := api.NewClient(opts.serverURL).ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Printf("%s\t%s\t%s\n", m.ID, m.Name, m.Provider)
			}
			return nil
		},
	}
}

func newUploadCmd(cfg config.Config, opts *options) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document and attach it to a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf("--session is required")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rest := api.NewClient(opts.serverURL)
			docID, err := rest.UploadDocument(cmd.Context(), f.Name(), f)
			if err != nil {
				return err
			}
			if err := rest.AttachDocument(cmd.Context(), sessionID, docID); err != nil {
				return err
			}
			docs, err := store.OpenFile(cfg.StatePath)
			if err != nil {
				return err
			}
			if err := docs.Set(sessionID, docID); err != nil {
				return err
			}
			fmt.Printf("uploaded %s as %s\n", args[0], docID)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session to attach the document to")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the chat service",
	}
	var phone, email, code, username string

	smsCmd := &cobra.Command{
		Use:   "sms",
		Short: "Request or verify an SMS login code",
		RunE: func(c *cobra.Command, _ []string) error {
			rest := api.NewClient(opts.serverURL)
			if code == "" {
				res, err := rest.RequestSMSCode(c.Context(), phone)
				return printAuth(res, err)
			}
			res, err := rest.VerifySMSCode(c.Context(), phone, code)
			return printAuth(res, err)
		},
	}
	smsCmd.Flags().StringVar(&phone, "phone", "", "phone number")
	smsCmd.Flags().StringVar(&code, "code", "", "received code (omit to request one)")

	emailCmd := &cobra.Command{
		Use:   "email",
		Short: "Request or verify an email login code",
		RunE: func(c *cobra.Command, _ []string) error {
			rest := api.NewClient(opts.serverURL)
			if code == "" {
				res, err := rest.RequestEmailCode(c.Context(), email)
				return printAuth(res, err)
			}
			res, err := rest.VerifyEmailCode(c.Context(), email, code)
			return printAuth(res, err)
		},
	}
	emailCmd.Flags().StringVar(&email, "email", "", "email address")
	emailCmd.Flags().StringVar(&code, "code", "", "received code (omit to request one)")

	tgCmd := &cobra.Command{
		Use:   "telegram",
		Short: "Login with a telegram username",
		RunE: func(c *cobra.Command, _ []string) error {
			res, err := api.NewClient(opts.serverURL).LoginTelegram(c.Context(), username)
			return printAuth(res, err)
		},
	}
	tgCmd.Flags().StringVar(&username, "username", "", "telegram username")

	cmd.AddCommand(smsCmd, emailCmd, tgCmd)
	return cmd
}

func printAuth(res api.AuthResult, err error) error {
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("auth failed: %s", res.Message)
	}
	if res.UserID != "" {
		fmt.Printf("logged in as %s\n", res.UserID)
	} else {
		fmt.Println(res.Message)
	}
	return nil
}
