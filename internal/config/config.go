package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	ServerURL      string
	ChatWSURL      string
	TTSProvider    string
	DeepgramKey    string
	ElevenLabsKey  string
	DefaultModelID string
	DefaultAgentID string
	VoiceMode      string
	Language       string
	StatePath      string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	server := os.Getenv("SERVER_URL")
	if server == "" {
		server = "http://localhost:5001"
	}

	wsURL := os.Getenv("CHAT_WS_URL")
	if wsURL == "" {
		wsURL = "ws://localhost:5001/chat"
	}

	provider := os.Getenv("TTS_PROVIDER")
	if provider == "" {
		provider = "deepgram"
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if deepgramKey == "" && elevenKey == "" {
		log.Println("Warning: no TTS API key set - voice narration will not work")
	}

	modelID := os.Getenv("DEFAULT_MODEL_ID")
	if modelID == "" {
		modelID = "gpt-4o-mini"
	}
	agentID := os.Getenv("DEFAULT_AGENT_ID")
	if agentID == "" {
		agentID = "assistant"
	}

	voiceMode := os.Getenv("VOICE_MODE")
	if voiceMode == "" {
		voiceMode = "off"
	}
	language := os.Getenv("CHAT_LANGUAGE")
	if language == "" {
		language = "ru"
	}

	statePath := os.Getenv("STATE_PATH")
	if statePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		statePath = home + "/.chat-client/documents.json"
	}

	log.Printf("config: SERVER_URL=%s CHAT_WS_URL=%s", server, wsURL)
	return Config{
		ServerURL:      server,
		ChatWSURL:      wsURL,
		TTSProvider:    provider,
		DeepgramKey:    deepgramKey,
		ElevenLabsKey:  elevenKey,
		DefaultModelID: modelID,
		DefaultAgentID: agentID,
		VoiceMode:      voiceMode,
		Language:       language,
		StatePath:      statePath,
	}
}
