// Package title turns free text into a short headline using a language model.
package title

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"bericht/internal/logging"
	"bericht/internal/services"
	"bericht/internal/services/llm"
)

// SystemPrompt instructs the model to answer with the title only.
const SystemPrompt = `You are a title generation AI.
- Generate a title and only the title for the given text.
- Ensure the title is in the same language as the text.
- The title should be concise and relevant to the content of the text.`

// Completer is the subset of the LLM client the service needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service generates titles.
type Service struct {
	llm    Completer
	logger *slog.Logger
}

// NewService constructs a title service backed by completer.
func NewService(completer Completer, logger *slog.Logger) *Service {
	return &Service{llm: completer, logger: logging.NewComponentLogger(logger, "title")}
}

// Generate returns a cleaned title for text.
func (s *Service) Generate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Wrap(services.ErrValidation, "title", "generate", "text must not be empty", nil)
	}
	if s == nil || s.llm == nil {
		return "", services.Wrap(services.ErrConfiguration, "title", "generate", "language model not configured", nil)
	}

	start := time.Now()
	reply, err := s.llm.Complete(ctx, SystemPrompt, UserPrompt(text))
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return "", services.Wrap(services.ErrConfiguration, "title", "generate", "language model not configured", err)
		}
		return "", services.WrapUpstream("title", "generate", err)
	}
	title := Clean(reply)
	if title == "" {
		return "", services.Wrap(services.ErrUpstream, "title", "generate", fmt.Sprintf("model returned no title (raw %q)", reply), nil)
	}
	s.logger.InfoContext(ctx, "title generated",
		logging.Int("text_chars", len([]rune(text))),
		logging.Int("title_chars", len([]rune(title))),
		logging.Duration("duration", time.Since(start)),
	)
	return title, nil
}

// UserPrompt formats text the way the model expects it.
func UserPrompt(text string) string {
	return "Text: " + text + "\nTitle:"
}

var thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)

// Clean strips reasoning blocks, a leading "Title:" label, markdown emphasis
// and surrounding quotes from a model reply.
func Clean(reply string) string {
	out := thinkBlock.ReplaceAllString(reply, "")
	if idx := strings.Index(strings.ToLower(out), "</think>"); idx >= 0 {
		out = out[idx+len("</think>"):]
	}
	out = strings.TrimSpace(out)
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = line
			break
		}
	}
	if len(out) >= 6 && strings.EqualFold(out[:6], "title:") {
		out = strings.TrimSpace(out[6:])
	}
	out = strings.Trim(out, "*#_ ")
	for len(out) >= 2 {
		first, last := out[0], out[len(out)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			out = strings.TrimSpace(out[1 : len(out)-1])
			continue
		}
		if strings.HasPrefix(out, "“") && strings.HasSuffix(out, "”") {
			out = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(out, "“"), "”"))
			continue
		}
		if strings.HasPrefix(out, "«") && strings.HasSuffix(out, "»") {
			out = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(out, "«"), "»"))
			continue
		}
		break
	}
	return out
}
