package config

import (
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/url"
)

// Validate ensures the configuration is usable. Upstream endpoints may be
// left empty; the matching endpoints then answer 503 instead of failing
// startup.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := validateOptionalURL("whisper.base_url", c.Whisper.BaseURL); err != nil {
		return err
	}
	if err := validateOptionalURL("llm.base_url", c.LLM.BaseURL); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := validateOptionalURL("notifications.ntfy_topic", c.Notifications.NtfyTopic); err != nil {
		return err
	}
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be positive")
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	if c.Server.MaxUploadMB < 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		return errors.New("server.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMail() error {
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("mail.port %d out of range", c.Mail.Port)
	}
	if _, err := mail.ParseAddress(c.Mail.From); err != nil {
		return fmt.Errorf("mail.from %q: %w", c.Mail.From, err)
	}
	switch c.Mail.TLSPolicy {
	case "opportunistic", "mandatory", "none":
	default:
		return fmt.Errorf("mail.tls_policy must be opportunistic, mandatory or none (got %q)", c.Mail.TLSPolicy)
	}
	if c.Mail.TimeoutSeconds < 0 {
		return errors.New("mail.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	if c.Logging.BufferCapacity < 0 {
		return errors.New("logging.buffer_capacity must be positive")
	}
	return nil
}

func validateOptionalURL(field, value string) error {
	if value == "" {
		return nil
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL (got %q)", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host (got %q)", field, value)
	}
	return nil
}
