// Package whisper calls a Whisper-compatible /audio/transcriptions endpoint.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"
)

const (
	transcriptionsPath = "/audio/transcriptions"
	defaultFilename    = "audio.wav"
	defaultTimeout     = 300 * time.Second
	responseFormatJSON = "json"
	errorBodyLimit     = 4096
)

// ErrNotConfigured reports that no base URL was supplied.
var ErrNotConfigured = errors.New("whisper endpoint not configured")

// Config captures the transcription endpoint settings.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Transcription is the decoded service reply. Segments are passed through
// untouched because their shape differs between server implementations.
type Transcription struct {
	Text     string          `json:"text"`
	Language string          `json:"language,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Segments json.RawMessage `json:"segments,omitempty"`
}

// Client posts audio to the transcription service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	parser     fastjson.ParserPool
	newID      func() string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transcription client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		newID:      func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a base URL is present.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Endpoint returns the transcription URL.
func (c *Client) Endpoint() string {
	return c.baseURL + transcriptionsPath
}

// Transcribe uploads audio and returns the service's transcription. The
// upload is named filename, or audio.wav when empty.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (*Transcription, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if audio == nil {
		return nil, errors.New("whisper transcribe: audio reader is nil")
	}
	if strings.TrimSpace(filename) == "" {
		filename = defaultFilename
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe: create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("whisper transcribe: copy audio: %w", err)
	}
	if err := writer.WriteField("progress_id", c.newID()); err != nil {
		return nil, fmt.Errorf("whisper transcribe: write progress_id: %w", err)
	}
	if err := writer.WriteField("response_format", responseFormatJSON); err != nil {
		return nil, fmt.Errorf("whisper transcribe: write response_format: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("whisper transcribe: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), &body)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe: new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe: read body: %w", err)
	}
	return c.decode(payload)
}

// Ping checks that the service host answers HTTP at all.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("whisper ping: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whisper ping: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) decode(payload []byte) (*Transcription, error) {
	parser := c.parser.Get()
	defer c.parser.Put(parser)

	value, err := parser.ParseBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe: decode response: %w", err)
	}
	if value.Type() != fastjson.TypeObject || !value.Exists("text") {
		return nil, fmt.Errorf("whisper transcribe: response has no text field")
	}
	out := &Transcription{
		Text:     string(value.GetStringBytes("text")),
		Language: string(value.GetStringBytes("language")),
		Duration: value.GetFloat64("duration"),
	}
	if segments := value.Get("segments"); segments != nil && segments.Type() != fastjson.TypeNull {
		out.Segments = json.RawMessage(segments.MarshalTo(nil))
	}
	return out, nil
}

// StatusError is returned for non-2xx replies.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("whisper transcribe: http %d", e.StatusCode)
	}
	return fmt.Sprintf("whisper transcribe: http %d: %s", e.StatusCode, e.Body)
}
