package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "吃饭...", Truncate("吃饭睡觉", 2))
}

func TestRandDigits(t *testing.T) {
	got := RandDigits(6)
	assert.Len(t, got, 6)
	for _, c := range got {
		assert.True(t, c >= '0' && c <= '9')
	}
	assert.Empty(t, RandDigits(0))
}

func TestStripThinking(t *testing.T) {
	assert.Equal(t, "hello", StripThinking("<think>plan it</think>\nhello"))
	assert.Equal(t, "hi", StripThinking("hi</think>"))
	assert.Equal(t, "plain text", StripThinking("plain text"))
}
