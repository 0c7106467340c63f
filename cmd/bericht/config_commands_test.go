package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	requireContains(t, string(data), "[whisper]")
	requireContains(t, string(data), "[mail]")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigInitSkipsConfigLoad(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(broken, []byte("[server\n"), 0o644); err != nil {
		t.Fatalf("write broken config: %v", err)
	}
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, broken); err != nil {
		t.Fatalf("config init should not load the broken config: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t, testConfig{})

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")
	if strings.Contains(out, "defaults were used") {
		t.Fatalf("existing config reported as missing: %q", out)
	}
	if info, err := os.Stat(env.stateDir); err != nil || !info.IsDir() {
		t.Fatalf("expected state dir to be created, err=%v", err)
	}
}

func TestConfigValidateMissingFileUsesDefaults(t *testing.T) {
	setupCLITestEnv(t, testConfig{})
	t.Setenv("HOME", t.TempDir())
	missing := filepath.Join(t.TempDir(), "absent.toml")

	out, _, err := runCLI(t, []string{"config", "validate"}, missing)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config file did not exist; defaults were used")
}

func TestConfigValidateRejectsInvalidBind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nbind = \"no-port\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil {
		t.Fatal("expected validation error for bind without port")
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	env := setupCLITestEnv(t, testConfig{token: "super-secret", llmURL: "http://llm.invalid/v1"})

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "super-secret") || strings.Contains(out, "test-key") {
		t.Fatalf("config show leaked a secret: %q", out)
	}
	requireContains(t, out, "********")
	requireContains(t, out, "http://llm.invalid/v1")
}
