package terminal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestWidth(t *testing.T) {
	assert.Equal(t, DefaultWidth, Width(&bytes.Buffer{}))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"forkA: fetching", 40, "forkA: fetching"},
		{"forkA: fetching", 6, "forkA…"},
		{"forkA", 5, "forkA"},
		{"forkA", 1, "…"},
		{"forkA", 0, "forkA"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.width), "Truncate(%q, %d)", tt.in, tt.width)
	}
}
