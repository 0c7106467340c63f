package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testEnv struct {
	dir        string
	configPath string
	stateDir   string
}

type testConfig struct {
	bind       string
	token      string
	whisperURL string
	llmURL     string
	mailPort   int
	ntfyURL    string
}

func setupCLITestEnv(t *testing.T, tc testConfig) testEnv {
	t.Helper()
	for _, key := range []string{"WHISPER_API", "LLM_API", "LLM_API_KEY", "LLM_MODEL", "BERICHT_API_TOKEN", "SMTP_PASSWORD", "LOG_LEVEL", "PROD", "NTFY_TOPIC"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")
	if tc.bind == "" {
		tc.bind = "127.0.0.1:0"
	}
	if tc.mailPort == 0 {
		tc.mailPort = closedPort(t)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[server]\nbind = %q\napi_token = %q\nstate_dir = %q\n\n", tc.bind, tc.token, stateDir)
	fmt.Fprintf(&b, "[whisper]\nbase_url = %q\ntimeout_seconds = 5\n\n", tc.whisperURL)
	fmt.Fprintf(&b, "[llm]\nbase_url = %q\napi_key = \"test-key\"\nmodel = \"test-model\"\ntimeout_seconds = 5\n\n", tc.llmURL)
	fmt.Fprintf(&b, "[mail]\nhost = \"127.0.0.1\"\nport = %d\nfrom = \"noreply@example.com\"\ntls_policy = \"none\"\ntimeout_seconds = 2\n", tc.mailPort)
	fmt.Fprintf(&b, "\n[notifications]\nntfy_topic = %q\n", tc.ntfyURL)

	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return testEnv{dir: dir, configPath: configPath, stateDir: stateDir}
}

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
