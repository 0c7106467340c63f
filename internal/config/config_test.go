package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bericht/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"WHISPER_API", "LLM_API", "LLM_API_KEY", "LLM_MODEL", "LOG_LEVEL", "PROD", "BERICHT_API_TOKEN", "SMTP_PASSWORD", "NTFY_TOPIC"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "bericht", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.Server.Bind != "127.0.0.1:8000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if want := filepath.Join(tempHome, ".local", "state", "bericht"); cfg.Server.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Server.StateDir, want)
	}
	if cfg.LLM.Model != "cortecs/Llama-3.3-70B-Instruct-FP8-Dynamic" {
		t.Fatalf("unexpected default model: %q", cfg.LLM.Model)
	}
	if cfg.Mail.Host != "mail.bs.ch" || cfg.Mail.Port != 25 || cfg.Mail.From != "noreply@bs.ch" {
		t.Fatalf("unexpected mail defaults: %+v", cfg.Mail)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" || cfg.Logging.BufferCapacity != 1000 {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Whisper.BaseURL != "" || cfg.LLM.BaseURL != "" {
		t.Fatal("expected upstream URLs to be unset without env or file")
	}
}

func TestLoadUsesEnvironmentFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("WHISPER_API", "http://whisper.internal:3000/v1/")
	t.Setenv("LLM_API", "https://llm.internal/v1")
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("LLM_MODEL", "qwen3")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("PROD", "1")
	t.Setenv("NTFY_TOPIC", "https://ntfy.example/bericht")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Whisper.BaseURL != "http://whisper.internal:3000/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Whisper.BaseURL)
	}
	if cfg.LLM.BaseURL != "https://llm.internal/v1" || cfg.LLM.APIKey != "secret" || cfg.LLM.Model != "qwen3" {
		t.Fatalf("unexpected llm settings: %+v", cfg.LLM)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/bericht" || cfg.Notifications.RequestTimeoutSeconds != 10 {
		t.Fatalf("unexpected notification settings: %+v", cfg.Notifications)
	}
}

func TestLoadCustomPathPrefersFileValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LLM_MODEL", "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "bericht.toml")
	contents := `
[server]
bind = "0.0.0.0:9000"
state_dir = "` + filepath.Join(dir, "state") + `"

[llm]
base_url = "http://localhost:8080/v1"
model = "from-file"

[mail]
port = 2525
tls_policy = "None"

[logging]
buffer_capacity = 50
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Server.Bind != "0.0.0.0:9000" || cfg.LLM.Model != "from-file" {
		t.Fatalf("expected file values, got bind=%q model=%q", cfg.Server.Bind, cfg.LLM.Model)
	}
	if cfg.Mail.Port != 2525 || cfg.Mail.TLSPolicy != "none" {
		t.Fatalf("unexpected mail settings: %+v", cfg.Mail)
	}
	if cfg.Logging.BufferCapacity != 50 {
		t.Fatalf("unexpected buffer capacity: %d", cfg.Logging.BufferCapacity)
	}
	if cfg.LockPath() != filepath.Join(dir, "state", "bericht.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server]\nbnid = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Mail.Host != "mail.bs.ch" || cfg.Logging.BufferCapacity != 1000 {
		t.Fatalf("sample config lost defaults: %+v", cfg)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"bind":       func(c *config.Config) { c.Server.Bind = "localhost" },
		"whisper":    func(c *config.Config) { c.Whisper.BaseURL = "ftp://whisper" },
		"llm host":   func(c *config.Config) { c.LLM.BaseURL = "http://" },
		"mail port":  func(c *config.Config) { c.Mail.Port = 70000 },
		"mail from":  func(c *config.Config) { c.Mail.From = "not an address" },
		"tls policy": func(c *config.Config) { c.Mail.TLSPolicy = "sometimes" },
		"log format": func(c *config.Config) { c.Logging.Format = "xml" },
		"ntfy topic": func(c *config.Config) { c.Notifications.NtfyTopic = "bericht-alerts" },
	}
	for name, mutate := range cases {
		cfg := config.Default()
		cfg.Logging.Format = "console"
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "sk-123"
	cfg.Mail.Password = "hunter2"
	data, err := cfg.Redacted().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "sk-123") || strings.Contains(text, "hunter2") {
		t.Fatalf("expected secrets to be masked: %s", text)
	}
	if cfg.LLM.APIKey != "sk-123" {
		t.Fatal("Redacted must not mutate the receiver")
	}
}
