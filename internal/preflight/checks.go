package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"bericht/internal/config"
	"bericht/internal/services/llm"
	"bericht/internal/services/mailer"
	"bericht/internal/services/whisper"
)

const (
	checkTimeout = 10 * time.Second
	llmTimeout   = 30 * time.Second
)

// CheckWhisper verifies that the transcription service answers HTTP.
func CheckWhisper(ctx context.Context, cfg config.Whisper) Result {
	const name = "Whisper"
	client := whisper.NewClient(whisper.Config{BaseURL: cfg.BaseURL, TimeoutSeconds: int(checkTimeout / time.Second)})
	if !client.Configured() {
		return Result{Name: name, Detail: "not configured (set whisper.base_url or WHISPER_API)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError("Whisper", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", cfg.BaseURL)}
}

// CheckLLM verifies that the LLM API is reachable and the key is accepted.
// It uses a single attempt with no retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))
	if !client.Configured() {
		return Result{Name: name, Detail: "not configured (set llm.base_url or LLM_API)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError("LLM API", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (model %s)", client.Model())}
}

// CheckSMTP opens and closes an SMTP session with the relay.
func CheckSMTP(ctx context.Context, cfg config.Mail) Result {
	const name = "SMTP relay"
	sender := mailer.NewSender(mailer.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		From:           cfg.From,
		Username:       cfg.Username,
		Password:       cfg.Password,
		TLSPolicy:      cfg.TLSPolicy,
		TimeoutSeconds: int(checkTimeout / time.Second),
	}, nil)

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := sender.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError("SMTP relay", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s:%d accepted a session", cfg.Host, cfg.Port)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeError produces a human-readable summary for failed checks.
func summarizeError(target string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("check timed out (%s unresponsive)", target)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("check timed out (%s unreachable)", target)
	}
	return err.Error()
}
