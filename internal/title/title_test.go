package title_test

import (
	"context"
	"errors"
	"testing"

	"bericht/internal/services"
	"bericht/internal/services/llm"
	"bericht/internal/title"
)

type stubCompleter struct {
	reply      string
	err        error
	gotSystem  string
	gotUser    string
	callsCount int
}

func (s *stubCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.callsCount++
	s.gotSystem = systemPrompt
	s.gotUser = userPrompt
	return s.reply, s.err
}

func TestGenerateSendsPromptAndCleansReply(t *testing.T) {
	stub := &stubCompleter{reply: "<think>the text is about a meeting</think>\n\"Sitzung vom Montag\""}
	svc := title.NewService(stub, nil)

	got, err := svc.Generate(context.Background(), "  Protokoll der Sitzung  ")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != "Sitzung vom Montag" {
		t.Fatalf("unexpected title %q", got)
	}
	if stub.gotSystem != title.SystemPrompt {
		t.Fatalf("unexpected system prompt %q", stub.gotSystem)
	}
	if stub.gotUser != "Text: Protokoll der Sitzung\nTitle:" {
		t.Fatalf("unexpected user prompt %q", stub.gotUser)
	}
}

func TestGenerateRejectsEmptyText(t *testing.T) {
	stub := &stubCompleter{reply: "unused"}
	_, err := title.NewService(stub, nil).Generate(context.Background(), "   ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if stub.callsCount != 0 {
		t.Fatal("expected no model call for empty text")
	}
}

func TestGenerateClassifiesFailures(t *testing.T) {
	cases := []struct {
		name string
		stub *stubCompleter
		want error
	}{
		{"unconfigured", &stubCompleter{err: llm.ErrNotConfigured}, services.ErrConfiguration},
		{"upstream", &stubCompleter{err: errors.New("http 500")}, services.ErrUpstream},
		{"blank reply", &stubCompleter{reply: "<think>hmm</think>  "}, services.ErrUpstream},
	}
	for _, tc := range cases {
		_, err := title.NewService(tc.stub, nil).Generate(context.Background(), "text")
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"Plain title":                      "Plain title",
		"Title: Budget 2025":               "Budget 2025",
		"**\"Quarterly Review\"**":         "Quarterly Review",
		"'Single'":                         "Single",
		"“Curly”":                          "Curly",
		"<think>\nreasoning\n</think>Done": "Done",
		"dangling</think> Answer":          "Answer",
		"First line\nSecond line":          "First line",
	}
	for input, want := range cases {
		if got := title.Clean(input); got != want {
			t.Fatalf("Clean(%q) = %q, want %q", input, got, want)
		}
	}
}
