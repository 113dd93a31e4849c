package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"api_key", "abc", "query", "volcano", "dangling"})
	assert.Equal(t, []interface{}{"api_key", "[REDACTED]", "query", "volcano", "dangling"}, out)
}

func TestNopLoggerIsUsable(t *testing.T) {
	l := NewNop().With("component", "test")
	l.Info("hello", "k", 1)
	l.Sync()
}
