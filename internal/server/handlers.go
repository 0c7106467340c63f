package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bericht/internal/api"
	"bericht/internal/logging"
	"bericht/internal/services"
	"bericht/internal/services/mailer"
	"bericht/internal/services/whisper"
	"bericht/internal/textutil"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok", Version: s.opts.Version})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.deps.Transcriber == nil {
		writeError(w, r, http.StatusServiceUnavailable, "speech-to-text is not configured")
		return
	}
	if !s.parseMultipart(w, r) {
		return
	}
	file, header, err := r.FormFile("audio_file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()
	if strings.TrimSpace(header.Filename) == "" {
		writeError(w, r, http.StatusBadRequest, "filename of the audio file is missing")
		return
	}
	if strings.TrimSpace(header.Header.Get("Content-Type")) == "" {
		writeError(w, r, http.StatusBadRequest, "content type of the audio file is missing")
		return
	}

	start := time.Now()
	result, err := s.deps.Transcriber.Transcribe(r.Context(), file, "")
	if err != nil {
		if errors.Is(err, whisper.ErrNotConfigured) {
			err = services.Wrap(services.ErrConfiguration, "whisper", "transcribe", "speech-to-text is not configured", err)
		} else {
			err = services.WrapUpstream("whisper", "transcribe", err)
		}
		s.writeServiceError(w, r, "transcription", err)
		return
	}
	s.logger.InfoContext(r.Context(), "transcription completed",
		logging.String("filename", header.Filename),
		logging.Int64("size_bytes", header.Size),
		logging.Int("text_chars", len([]rune(result.Text))),
		logging.Duration("duration", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, api.FromTranscription(result))
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	if s.deps.Titles == nil {
		writeError(w, r, http.StatusServiceUnavailable, "title generation is not configured")
		return
	}
	var req api.TitleRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	title, err := s.deps.Titles.Generate(r.Context(), req.Text)
	if err != nil {
		s.writeServiceError(w, r, "title generation", err)
		return
	}
	writeJSON(w, http.StatusOK, api.TitleResponse{Title: title})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if s.deps.Mailer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "mail relay is not configured")
		return
	}
	if !s.parseMultipart(w, r) {
		return
	}
	msg := mailer.Message{
		To:      strings.TrimSpace(r.FormValue("to_email")),
		Subject: r.FormValue("subject"),
		Body:    r.FormValue("email_body"),
	}
	if msg.To == "" {
		writeError(w, r, http.StatusBadRequest, "to_email is required")
		return
	}
	if strings.TrimSpace(msg.Subject) == "" {
		writeError(w, r, http.StatusBadRequest, "subject is required")
		return
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			writeError(w, r, http.StatusBadRequest, "could not read attachment")
			return
		}
		msg.Attachment = data
		msg.AttachmentName = attachmentName(header)
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeError(w, r, http.StatusBadRequest, "invalid attachment")
		return
	}

	if err := s.deps.Mailer.Send(r.Context(), msg); err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		logging.ErrorWithContext(r.Context(), s.logger, "Failed to send mail", "mail_send_failed",
			logging.String("to_email", msg.To),
			logging.String("subject", msg.Subject),
		)
		writeError(w, r, http.StatusInternalServerError, "Failed to send email")
		return
	}
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Email sent successfully"})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q, err := parseLogQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	attrs := []logging.Attr{logging.Int("limit", q.Limit)}
	if q.Level != "" {
		attrs = append(attrs, logging.String("level", q.Level))
	}
	if !q.From.IsZero() {
		attrs = append(attrs, logging.String("from_time", q.From.Format(time.RFC3339Nano)))
	}
	if !q.To.IsZero() {
		attrs = append(attrs, logging.String("to_time", q.To.Format(time.RFC3339Nano)))
	}
	if q.RequestID != "" {
		attrs = append(attrs, logging.String("request_id_filter", q.RequestID))
	}
	s.logger.InfoContext(r.Context(), "Retrieving logs", logging.Args(attrs...)...)

	writeJSON(w, http.StatusOK, api.NewLogResponse(q, s.deps.Store.Query(q)))
}

func parseLogQuery(r *http.Request) (logging.Query, error) {
	values := r.URL.Query()
	q := logging.Query{
		Level:     strings.TrimSpace(values.Get("level")),
		RequestID: strings.TrimSpace(values.Get("request_id")),
		Limit:     logging.DefaultQueryLimit,
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("limit must be an integer (got %q)", raw)
		}
		if limit < 0 {
			return q, fmt.Errorf("limit must be zero or greater (got %d)", limit)
		}
		q.Limit = limit
	}
	for _, bound := range []struct {
		name   string
		target *time.Time
	}{
		{"from_time", &q.From},
		{"to_time", &q.To},
	} {
		raw := strings.TrimSpace(values.Get(bound.name))
		if raw == "" {
			continue
		}
		parsed, ok := logging.ParseTimestamp(raw)
		if !ok {
			return q, fmt.Errorf("%s is not a valid datetime (got %q)", bound.name, raw)
		}
		*bound.target = parsed
	}
	return q, nil
}

// parseMultipart bounds the body and parses the form, writing the error
// response itself when it fails.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes))
			return false
		}
		writeError(w, r, http.StatusBadRequest, "expected a multipart/form-data body")
		return false
	}
	return true
}

func attachmentName(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return textutil.SanitizeFileName(header.Filename)
}
