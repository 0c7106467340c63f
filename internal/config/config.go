package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains the HTTP listener and process state settings.
type Server struct {
	Bind                  string `toml:"bind"`
	APIToken              string `toml:"api_token"`
	StateDir              string `toml:"state_dir"`
	MaxUploadMB           int    `toml:"max_upload_mb"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Whisper contains the speech-to-text inference endpoint.
type Whisper struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLM contains the OpenAI-compatible chat completion endpoint used for titles.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Mail contains SMTP relay settings.
type Mail struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	From               string `toml:"from"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	TLSPolicy          string `toml:"tls_policy"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	AttachmentFilename string `toml:"attachment_filename"`
}

// Notifications contains the optional ntfy alert target.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output and the in-memory buffer.
type Logging struct {
	Format         string `toml:"format"`
	Level          string `toml:"level"`
	File           string `toml:"file"`
	StoreLevel     string `toml:"store_level"`
	BufferCapacity int    `toml:"buffer_capacity"`
}

// Config encapsulates all configuration values for bericht.
//
// Configuration sections by subsystem:
//   - Server: bind address, bearer token, state directory and limits
//   - Whisper: transcription service endpoint
//   - LLM: title generation endpoint, key and model
//   - Mail: SMTP relay and sender
//   - Notifications: ntfy topic for operator alerts
//   - Logging: log format, level and buffer capacity
type Config struct {
	Server        Server        `toml:"server"`
	Whisper       Whisper       `toml:"whisper"`
	LLM           LLM           `toml:"llm"`
	Mail          Mail          `toml:"mail"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error; defaults and environment values apply instead.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(defaultProjectConfig)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory used for the pid and lock files.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Server.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Server.StateDir, err)
	}
	return nil
}

// LockPath is the single-instance lock file inside the state directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Server.StateDir, "bericht.lock")
}

// PIDPath is the pid file inside the state directory.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Server.StateDir, "bericht.pid")
}

// MaxUploadBytes converts the upload limit into bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// RequestTimeout is the per-request deadline applied by the HTTP server.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// Redacted returns a copy with secrets masked, suitable for display.
func (c Config) Redacted() Config {
	mask := func(value string) string {
		if value == "" {
			return ""
		}
		return "********"
	}
	c.Server.APIToken = mask(c.Server.APIToken)
	c.LLM.APIKey = mask(c.LLM.APIKey)
	c.Mail.Password = mask(c.Mail.Password)
	return c
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
