package domain

import (
	"context"
	"time"
)

// Backend is a text-completion model the quiz generator can call.
// Call never returns a raw transport error: every failure is reported
// through BackendResult.Err.
type Backend interface {
	Name() string
	// Call sends prompt to the backend. An empty model means the backend's configured model.
	Call(ctx context.Context, prompt string, timeout time.Duration, model string) BackendResult
}

// BackendResult is either Success(Text) or Failure(Err).
type BackendResult struct {
	Text string
	Err  *BackendError
}

func Success(text string) BackendResult {
	return BackendResult{Text: text}
}

func Failure(err *BackendError) BackendResult {
	return BackendResult{Err: err}
}

// OK reports whether the call succeeded.
func (r BackendResult) OK() bool {
	return r.Err == nil
}
