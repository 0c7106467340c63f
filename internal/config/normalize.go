package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeWhisper()
	c.normalizeLLM()
	c.normalizeMail()
	c.normalizeNotifications()
	return c.normalizeLogging()
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		c.Server.APIToken = envValue("BERICHT_API_TOKEN")
	}
	if strings.TrimSpace(c.Server.StateDir) == "" {
		c.Server.StateDir = defaultStateDir
	}
	var err error
	if c.Server.StateDir, err = expandPath(c.Server.StateDir); err != nil {
		return fmt.Errorf("server.state_dir: %w", err)
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
	if c.Server.RequestTimeoutSeconds == 0 {
		c.Server.RequestTimeoutSeconds = defaultRequestTimeout
	}
	return nil
}

func (c *Config) normalizeWhisper() {
	c.Whisper.BaseURL = strings.TrimRight(strings.TrimSpace(c.Whisper.BaseURL), "/")
	if c.Whisper.BaseURL == "" {
		c.Whisper.BaseURL = strings.TrimRight(envValue("WHISPER_API"), "/")
	}
	if c.Whisper.TimeoutSeconds == 0 {
		c.Whisper.TimeoutSeconds = defaultWhisperTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = strings.TrimRight(envValue("LLM_API"), "/")
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = envValue("LLM_API_KEY")
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = envValue("LLM_MODEL")
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
}

func (c *Config) normalizeMail() {
	c.Mail.Host = strings.TrimSpace(c.Mail.Host)
	if c.Mail.Host == "" {
		c.Mail.Host = defaultMailHost
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = defaultMailPort
	}
	c.Mail.From = strings.TrimSpace(c.Mail.From)
	if c.Mail.From == "" {
		c.Mail.From = defaultMailFrom
	}
	c.Mail.Username = strings.TrimSpace(c.Mail.Username)
	if c.Mail.Password == "" {
		c.Mail.Password = envValue("SMTP_PASSWORD")
	}
	c.Mail.TLSPolicy = strings.ToLower(strings.TrimSpace(c.Mail.TLSPolicy))
	if c.Mail.TLSPolicy == "" {
		c.Mail.TLSPolicy = defaultMailTLSPolicy
	}
	if c.Mail.TimeoutSeconds == 0 {
		c.Mail.TimeoutSeconds = defaultMailTimeout
	}
	c.Mail.AttachmentFilename = strings.TrimSpace(c.Mail.AttachmentFilename)
	if c.Mail.AttachmentFilename == "" {
		c.Mail.AttachmentFilename = defaultAttachmentFilename
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = envValue("NTFY_TOPIC")
	}
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		if envValue("PROD") != "" {
			c.Logging.Format = "json"
		} else {
			c.Logging.Format = defaultLogFormat
		}
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = strings.ToLower(envValue("LOG_LEVEL"))
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.StoreLevel = strings.ToLower(strings.TrimSpace(c.Logging.StoreLevel))
	if c.Logging.BufferCapacity == 0 {
		c.Logging.BufferCapacity = defaultLogBufferCapacity
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func envValue(key string) string {
	value, _ := os.LookupEnv(key)
	return strings.TrimSpace(value)
}
