package review

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockLLM is a placeholder client for local runs without a live model. It
// "revises" by echoing the input document and always reports a clean review,
// so the loop converges after a single iteration.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	switch {
	case strings.HasPrefix(prompt.System, "You are a rigorous peer reviewer"):
		return "No substantive issues remain.", nil
	case strings.HasPrefix(prompt.System, "You are revising a document"):
		return extractDocument(prompt.User), nil
	default:
		return "SUBSTANTIVE", nil
	}
}

func extractDocument(user string) string {
	body := strings.TrimPrefix(user, "Original Document:\n")
	if i := strings.Index(body, "\n\nCritique:\n"); i >= 0 {
		body = body[:i]
	}
	return body
}

// ScriptedLLM replays a fixed sequence of replies and records every prompt it
// received. Replies run out → error, so tests fail loudly on extra calls.
type ScriptedLLM struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	ErrAt   int // 1-based call index at which Err fires; 0 means first call
	Prompts []Prompt
	calls   int
}

func (s *ScriptedLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil && (s.ErrAt == 0 || s.calls == s.ErrAt) {
		return "", s.Err
	}
	s.Prompts = append(s.Prompts, prompt)
	if len(s.Replies) == 0 {
		return "", errors.New("scripted llm: no replies left")
	}
	reply := s.Replies[0]
	s.Replies = s.Replies[1:]
	return reply, nil
}

// Calls reports how many times Complete was invoked.
func (s *ScriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
