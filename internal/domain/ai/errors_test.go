package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeOK(t *testing.T) {
	assert.True(t, Outcome{Text: "ok"}.OK())
	assert.False(t, Outcome{}.OK())
	assert.False(t, Failed(KindStatus, 500, errors.New("boom")).OK())
}

func TestRemoteCallErrorUnwrap(t *testing.T) {
	out := Failed(KindQuota, 429, ErrQuotaExceeded)
	assert.True(t, errors.Is(out.Err, ErrQuotaExceeded))
	assert.Contains(t, out.Err.Error(), "status 429")
}

func TestContextKind(t *testing.T) {
	kind, ok := ContextKind(fmt.Errorf("post: %w", context.DeadlineExceeded))
	assert.True(t, ok)
	assert.Equal(t, KindTimeout, kind)

	kind, ok = ContextKind(context.Canceled)
	assert.True(t, ok)
	assert.Equal(t, KindCanceled, kind)

	_, ok = ContextKind(errors.New("other"))
	assert.False(t, ok)
}

func TestOfflineAlwaysFails(t *testing.T) {
	out := Offline{}.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	assert.False(t, out.OK())
	assert.Equal(t, KindDisabled, out.Kind())
	assert.ErrorIs(t, out.Failure(), ErrDisabled)
}
