package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bericht/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWhisper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckWhisper(context.Background(), config.Whisper{BaseURL: srv.URL}); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := CheckWhisper(context.Background(), config.Whisper{})
	if result.Passed || !strings.Contains(result.Detail, "not configured") {
		t.Fatalf("expected not configured failure, got %+v", result)
	}
}

func TestCheckLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	ok := CheckLLM(context.Background(), "LLM", config.LLM{BaseURL: srv.URL, APIKey: "good-key", Model: "m"})
	if !ok.Passed {
		t.Fatalf("expected pass, got: %s", ok.Detail)
	}
	bad := CheckLLM(context.Background(), "LLM", config.LLM{BaseURL: srv.URL, APIKey: "bad-key"})
	if bad.Passed {
		t.Fatal("expected failure for bad key")
	}
	missing := CheckLLM(context.Background(), "LLM", config.LLM{})
	if missing.Passed {
		t.Fatal("expected failure for missing base url")
	}
}

func TestCheckSMTPUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()

	result := CheckSMTP(context.Background(), config.Mail{Host: "127.0.0.1", Port: port, TLSPolicy: "none"})
	if result.Passed {
		t.Fatal("expected failure for closed port")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReportsEveryCheck(t *testing.T) {
	cfg := config.Default()
	cfg.Server.StateDir = t.TempDir()
	cfg.Mail.Host = ""

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !results[0].Passed {
		t.Fatalf("state directory check failed: %s", results[0].Detail)
	}
	if !Failed(results) {
		t.Fatal("expected unconfigured upstreams to fail")
	}
}

func TestFailed(t *testing.T) {
	if Failed([]Result{{Passed: true}}) {
		t.Fatal("all passing results should not fail")
	}
	if !Failed([]Result{{Passed: true}, {Passed: false}}) {
		t.Fatal("expected failure to be detected")
	}
}
