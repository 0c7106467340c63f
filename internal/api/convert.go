package api

import (
	"time"

	"bericht/internal/logging"
	"bericht/internal/services/whisper"
)

// FromRecord converts a store record to its API representation.
func FromRecord(rec logging.Record) LogEntry {
	extra := rec.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	return LogEntry{
		Level:      rec.Level,
		Timestamp:  rec.Timestamp,
		Message:    rec.Message,
		Module:     rec.Module,
		Function:   rec.Function,
		LineNumber: rec.LineNumber,
		RequestID:  rec.RequestID,
		Extra:      extra,
	}
}

// FromRecords converts store records, always returning a non-nil slice.
func FromRecords(records []logging.Record) []LogEntry {
	out := make([]LogEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

// NewLogResponse assembles the /logs reply for q and its matches.
func NewLogResponse(q logging.Query, records []logging.Record) LogResponse {
	entries := FromRecords(records)
	return LogResponse{
		Logs:            entries,
		Count:           len(entries),
		FromTimestamp:   formatBound(q.From),
		ToTimestamp:     formatBound(q.To),
		LevelFilter:     optional(q.Level),
		RequestIDFilter: optional(q.RequestID),
		Limit:           q.Limit,
	}
}

// FromTranscription converts a transcription result.
func FromTranscription(t *whisper.Transcription) TranscriptionResponse {
	if t == nil {
		return TranscriptionResponse{}
	}
	return TranscriptionResponse{
		Text:     t.Text,
		Language: t.Language,
		Duration: t.Duration,
		Segments: t.Segments,
	}
}

func formatBound(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	value := t.Format(dateTimeFormat)
	return &value
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
