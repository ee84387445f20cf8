package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"journal/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingCompleter replays scripted replies in order and keeps every request.
type recordingCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	reqs    []domain.CompletionRequest
}

func (c *recordingCompleter) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	if c.err != nil {
		return "", c.err
	}
	if len(c.replies) == 0 {
		return "", nil
	}
	out := c.replies[0]
	c.replies = c.replies[1:]
	return out, nil
}

func (c *recordingCompleter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reqs)
}

func (c *recordingCompleter) request(i int) domain.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reqs[i]
}
