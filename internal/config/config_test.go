package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("SERVER_URL", "")
	os.Setenv("CHAT_WS_URL", "")
	os.Setenv("DEFAULT_MODEL_ID", "")
	os.Setenv("DEFAULT_AGENT_ID", "")
	os.Setenv("VOICE_MODE", "")
	os.Setenv("CHAT_LANGUAGE", "")
	cfg := Load()
	if cfg.ServerURL == "" {
		t.Fatalf("expected default server url")
	}
	if cfg.ChatWSURL == "" {
		t.Fatalf("expected default chat websocket url")
	}
	if cfg.DefaultModelID == "" || cfg.DefaultAgentID == "" {
		t.Fatalf("expected default model and agent ids")
	}
	if cfg.VoiceMode != "off" {
		t.Fatalf("expected narration off by default, got %q", cfg.VoiceMode)
	}
	if cfg.Language == "" || cfg.StatePath == "" {
		t.Fatalf("expected default language and state path")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_URL", "http://example.test:9000")
	t.Setenv("CHAT_WS_URL", "ws://example.test:9000/chat")
	t.Setenv("VOICE_MODE", "female")
	t.Setenv("CHAT_LANGUAGE", "en")
	cfg := Load()
	if cfg.ServerURL != "http://example.test:9000" {
		t.Fatalf("server url override ignored: %q", cfg.ServerURL)
	}
	if cfg.ChatWSURL != "ws://example.test:9000/chat" {
		t.Fatalf("websocket url override ignored: %q", cfg.ChatWSURL)
	}
	if cfg.VoiceMode != "female" || cfg.Language != "en" {
		t.Fatalf("voice settings ignored: mode=%q lang=%q", cfg.VoiceMode, cfg.Language)
	}
}
