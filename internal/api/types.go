package api

import "encoding/json"

// dateTimeFormat is used for echoed filter timestamps.
const dateTimeFormat = "2006-01-02T15:04:05.999999Z07:00"

// LogEntry is a single stored log record.
type LogEntry struct {
	Level      string         `json:"level"`
	Timestamp  string         `json:"timestamp"`
	Message    string         `json:"message"`
	Module     *string        `json:"module"`
	Function   *string        `json:"function"`
	LineNumber *int           `json:"line_number"`
	RequestID  *string        `json:"request_id"`
	Extra      map[string]any `json:"extra"`
}

// LogResponse is returned by GET /logs. The filter fields echo what the
// caller asked for and are null when the filter was not set.
type LogResponse struct {
	Logs            []LogEntry `json:"logs"`
	Count           int        `json:"count"`
	FromTimestamp   *string    `json:"from_timestamp"`
	ToTimestamp     *string    `json:"to_timestamp"`
	LevelFilter     *string    `json:"level_filter"`
	RequestIDFilter *string    `json:"request_id_filter"`
	Limit           int        `json:"limit"`
}

// TranscriptionResponse is returned by POST /stt.
type TranscriptionResponse struct {
	Text     string          `json:"text"`
	Language string          `json:"language,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Segments json.RawMessage `json:"segments,omitempty"`
}

// TitleRequest is the body of POST /title.
type TitleRequest struct {
	Text string `json:"text"`
}

// TitleResponse is returned by POST /title.
type TitleResponse struct {
	Title string `json:"title"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
