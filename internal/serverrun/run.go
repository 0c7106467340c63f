// Package serverrun is the composition root for "bericht serve". It builds
// the single log store, the logger that feeds it, the upstream clients and
// the HTTP server, then blocks until the process is told to stop.
package serverrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"

	"bericht/internal/config"
	"bericht/internal/logging"
	"bericht/internal/notifications"
	"bericht/internal/preflight"
	"bericht/internal/server"
	"bericht/internal/services/llm"
	"bericht/internal/services/mailer"
	"bericht/internal/services/whisper"
	"bericht/internal/title"
)

// ErrAlreadyRunning reports that another server holds the state lock.
var ErrAlreadyRunning = errors.New("bericht server already running")

// Options configures server process runtime behavior.
type Options struct {
	Version   string
	LogLevel  string
	Preflight bool
	// Ready, when set, receives the bound address once the listener is up.
	Ready func(addr string)
}

// Run starts the gateway and blocks until ctx is cancelled or the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runtimeCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		runtimeCfg.Logging.Level = level
	}
	store := logging.NewStore(runtimeCfg.Logging.BufferCapacity)
	logger, err := logging.NewFromConfig(&runtimeCfg, store)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "serverrun")

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release server lock", logging.Error(err))
		}
	}()

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	notifier := notifications.NewService(cfg.Notifications)

	srv := server.New(server.Options{
		Bind:           cfg.Server.Bind,
		APIToken:       cfg.Server.APIToken,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		RequestTimeout: cfg.RequestTimeout(),
		Version:        opts.Version,
	}, buildDeps(cfg, store, logger, notifier))

	logDependencySnapshot(logger, cfg, store)

	if err := srv.Start(signalCtx); err != nil {
		logging.ErrorWithContext(signalCtx, logger, "http server failed to start", "server_start_failed",
			logging.Error(err),
			logging.String("bind", cfg.Server.Bind),
			logging.String(logging.FieldErrorHint, "check server.bind and whether the port is in use"),
		)
		return err
	}
	logger.Info("bericht server started",
		logging.String("address", srv.Addr()),
		logging.String("lock", cfg.LockPath()),
		logging.Int("pid", os.Getpid()),
	)
	if opts.Ready != nil {
		opts.Ready(srv.Addr())
	}
	if notifier.Enabled() {
		go func(addr string) {
			if err := notifier.NotifyServerStarted(signalCtx, addr, opts.Version); err != nil {
				logger.Warn("startup notification failed", logging.Error(err))
			}
		}(srv.Addr())
	}
	if opts.Preflight {
		go logPreflight(signalCtx, logger, cfg, notifier)
	}

	<-signalCtx.Done()
	logger.Info("bericht server shutting down")
	srv.Stop()
	return nil
}

func buildDeps(cfg *config.Config, store *logging.Store, logger *slog.Logger, notifier notifications.Service) server.Deps {
	whisperClient := whisper.NewClient(whisper.Config{
		BaseURL:        cfg.Whisper.BaseURL,
		TimeoutSeconds: cfg.Whisper.TimeoutSeconds,
	})
	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return server.Deps{
		Store:       store,
		Transcriber: whisperClient,
		Titles:      title.NewService(llmClient, logger),
		Mailer:      mailer.NewSender(MailerConfig(cfg), logger, mailer.WithFailureHook(mailFailureAlert(logger, notifier))),
		Logger:      logger,
	}
}

// MailerConfig maps the [mail] section onto the sender settings.
func MailerConfig(cfg *config.Config) mailer.Config {
	return mailer.Config{
		Host:               cfg.Mail.Host,
		Port:               cfg.Mail.Port,
		From:               cfg.Mail.From,
		Username:           cfg.Mail.Username,
		Password:           cfg.Mail.Password,
		TLSPolicy:          cfg.Mail.TLSPolicy,
		TimeoutSeconds:     cfg.Mail.TimeoutSeconds,
		AttachmentFilename: cfg.Mail.AttachmentFilename,
	}
}

// mailFailureAlert forwards relay failures to the notifier. The alert is
// detached from the request context so a finished request does not cancel it.
func mailFailureAlert(logger *slog.Logger, notifier notifications.Service) mailer.FailureHook {
	if notifier == nil || !notifier.Enabled() {
		return nil
	}
	return func(ctx context.Context, msg mailer.Message, sendErr error) {
		alertCtx := context.WithoutCancel(ctx)
		go func() {
			if err := notifier.NotifyMailFailed(alertCtx, msg.To, msg.Subject, sendErr); err != nil {
				logging.WarnWithContext(alertCtx, logger, "mail failure notification failed", "notification_failed",
					logging.Error(err),
				)
			}
		}()
	}
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config, notifier notifications.Service) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(ctx, logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run bericht check for details"),
		)
		if notifier != nil {
			if err := notifier.NotifyCheckFailed(ctx, result.Name, result.Detail); err != nil {
				logger.Warn("check failure notification failed", logging.Error(err))
			}
		}
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config, store *logging.Store) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("whisper_configured", cfg.Whisper.BaseURL != ""),
		logging.String("whisper_base_url", cfg.Whisper.BaseURL),
		logging.Bool("llm_configured", cfg.LLM.BaseURL != ""),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.String("llm_model", cfg.LLM.Model),
		logging.String("smtp_host", cfg.Mail.Host),
		logging.Int("smtp_port", cfg.Mail.Port),
		logging.Bool("auth_enabled", cfg.Server.APIToken != ""),
		logging.Bool("notifications_enabled", cfg.Notifications.NtfyTopic != ""),
		logging.Int("log_buffer_capacity", store.Capacity()),
	)
}
