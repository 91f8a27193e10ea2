package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"loud":  zapcore.InfoLevel,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			l, err := New(in, "json")
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(want))
			if want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(want-1))
			}
		})
	}
}

func TestNewConsoleFormat(t *testing.T) {
	l, err := New("info", "console")
	require.NoError(t, err)
	assert.NotNil(t, l)
}
