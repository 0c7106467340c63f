package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bericht/internal/config"
)

const userAgent = "bericht/1"

// Service is the alert surface used by the gateway.
type Service interface {
	NotifyServerStarted(ctx context.Context, addr, version string) error
	NotifyMailFailed(ctx context.Context, recipient, subject string, err error) error
	NotifyCheckFailed(ctx context.Context, check, detail string) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) NotifyServerStarted(ctx context.Context, addr, version string) error {
	message := fmt.Sprintf("Gateway listening on %s", strings.TrimSpace(addr))
	if version = strings.TrimSpace(version); version != "" {
		message += fmt.Sprintf(" (version %s)", version)
	}
	return n.send(ctx, payload{
		title:    "bericht - Started",
		message:  message,
		tags:     []string{"bericht", "server", "started"},
		priority: "low",
	})
}

func (n *ntfyService) NotifyMailFailed(ctx context.Context, recipient, subject string, err error) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Could not deliver mail to %s", strings.TrimSpace(recipient))
	if subject = strings.TrimSpace(subject); subject != "" {
		fmt.Fprintf(&builder, "\nSubject: %s", subject)
	}
	builder.WriteString("\nError: ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "bericht - Mail Failed",
		message:  builder.String(),
		tags:     []string{"bericht", "mail", "error"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyCheckFailed(ctx context.Context, check, detail string) error {
	message := fmt.Sprintf("Startup check failed: %s", strings.TrimSpace(check))
	if detail = strings.TrimSpace(detail); detail != "" {
		message += "\n" + detail
	}
	return n.send(ctx, payload{
		title:   "bericht - Check Failed",
		message: message,
		tags:    []string{"bericht", "preflight", "warning"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "bericht - Test",
		message:  "Notification system test",
		tags:     []string{"bericht", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyServerStarted(context.Context, string, string) error     { return nil }
func (noopService) NotifyMailFailed(context.Context, string, string, error) error { return nil }
func (noopService) NotifyCheckFailed(context.Context, string, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
func (noopService) Enabled() bool                                                 { return false }
