package ai

import (
	"context"
	"time"

	"github.com/bryanwahyu/storelens/internal/domain/store"
)

// CompletionRequest is one prompt sent to the remote completion service.
type CompletionRequest struct {
	Tier    store.Tier
	System  string
	Prompt  string
	Purpose string // section kind or panel phase, for logs and metrics
}

// Outcome is either completion text or a RemoteCallError, never both.
type Outcome struct {
	Text     string
	Model    string
	Duration time.Duration
	Err      *RemoteCallError
}

// OK reports whether the remote call produced usable text.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Text != ""
}

// Failure returns the failure as a plain error, nil when OK.
func (o Outcome) Failure() error {
	if o.Err != nil {
		return o.Err
	}
	if o.Text == "" {
		return ErrEmptyCompletion
	}
	return nil
}

// Kind is the failure kind, empty when OK.
func (o Outcome) Kind() ErrorKind {
	if o.Err != nil {
		return o.Err.Kind
	}
	if o.Text == "" {
		return KindEmpty
	}
	return ""
}

// Client executes a single prompt with no internal retry. Failures come
// back inside the Outcome instead of as an error.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) Outcome
}

// Offline is the Client used when no API key is configured. Every call
// fails with KindDisabled so each section takes the fallback path.
type Offline struct{}

func (Offline) Complete(context.Context, CompletionRequest) Outcome {
	return Failed(KindDisabled, 0, ErrDisabled)
}
