package llm

import (
	"context"
	"errors"
	"time"
)

// ChatModel is a minimal abstraction for chat-based LLMs used by the domain.
// It intentionally hides concrete providers to preserve dependency direction.
type ChatModel interface {
	Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrTimeout is returned by Ask helpers when the call outlived its budget.
var ErrTimeout = errors.New("llm call timed out")

// ErrNotConfigured is returned when no provider was wired.
var ErrNotConfigured = errors.New("llm is not configured")

// AskWithTimeout runs one call with its own budget. The call is detached from
// the parent's cancellation: a client leaving does not abort a paid request,
// only the budget does. The deadline holds even if the provider ignores ctx.
func AskWithTimeout(parent context.Context, m ChatModel, timeout time.Duration, systemPrompt, userPrompt string) (string, error) {
	if m == nil {
		return "", ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()

	resultCh := make(chan struct {
		text string
		err  error
	}, 1)
	go func() {
		text, err := m.Ask(ctx, systemPrompt, userPrompt)
		resultCh <- struct {
			text string
			err  error
		}{text, err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return res.text, res.err
	case <-ctx.Done():
		return "", ErrTimeout
	}
}
