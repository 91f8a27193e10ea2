package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrEmptyCompletion is returned when the provider answered 200 without content.
var ErrEmptyCompletion = errors.New("ai returned empty completion")

// ErrDisabled is returned by the offline client.
var ErrDisabled = errors.New("remote analysis is not configured")

// ErrorKind classifies why a remote call produced no result.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindStatus    ErrorKind = "status"
	KindNetwork   ErrorKind = "network"
	KindEmpty     ErrorKind = "empty"
	KindMalformed ErrorKind = "malformed"
	KindQuota     ErrorKind = "quota"
	KindCanceled  ErrorKind = "canceled"
	KindDisabled  ErrorKind = "disabled"
)

// RemoteCallError carries the failure of one remote call.
type RemoteCallError struct {
	Kind   ErrorKind
	Status int // HTTP status when known
	Err    error
}

func (e *RemoteCallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote call %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("remote call %s: %v", e.Kind, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// Failed builds a failed Outcome.
func Failed(kind ErrorKind, status int, err error) Outcome {
	return Outcome{Err: &RemoteCallError{Kind: kind, Status: status, Err: err}}
}

// ContextKind maps a context error to timeout or canceled. It returns false
// for anything else.
func ContextKind(err error) (ErrorKind, bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, true
	case errors.Is(err, context.Canceled):
		return KindCanceled, true
	}
	return "", false
}
