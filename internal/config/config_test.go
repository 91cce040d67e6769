package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CODETALK_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("LLM_TEMPERATURE", "")
	t.Setenv("AUTH_PROVIDER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.AI.Provider != ProviderGroq {
		t.Fatalf("expected groq provider, got %q", cfg.AI.Provider)
	}
	if cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0.7 {
		t.Fatalf("expected default temperature 0.7, got %v", cfg.AI.Temperature)
	}
	if cfg.AI.Credentialed() {
		t.Fatal("expected no credential without GROQ_API_KEY")
	}
	if cfg.Auth.Provider != AuthLocal {
		t.Fatalf("expected local auth, got %q", cfg.Auth.Provider)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("CODETALK_CONFIG", "")
	t.Setenv("PORT", "80 80")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for PORT with spaces")
	}
}

func TestLoadRejectsBadTemperature(t *testing.T) {
	t.Setenv("CODETALK_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("LLM_TEMPERATURE", "warm")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric temperature")
	}
}

func TestFileValuesSitBelowEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codetalk.toml")
	content := `
PORT = "9090"
GROQ_API_KEY = "from-file"
GROQ_MODEL = "llama-3.3-70b-versatile"
ALLOWED_ORIGINS = ["http://localhost:5173", "https://codetalk.dev"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CODETALK_CONFIG", path)
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_TEMPERATURE", "")
	t.Setenv("AUTH_PROVIDER", "")
	t.Setenv("GROQ_API_KEY", "from-env")
	t.Setenv("GROQ_MODEL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.AI.APIKey != "from-env" {
		t.Fatalf("expected env key to win, got %q", cfg.AI.APIKey)
	}
	if cfg.AI.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("expected model from file, got %q", cfg.AI.Model)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://codetalk.dev" {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
}

func TestUnsupportedProvider(t *testing.T) {
	t.Setenv("CODETALK_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("LLM_TEMPERATURE", "")
	t.Setenv("LLM_PROVIDER", "openai")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
