package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/gopkg/lang/fastrand"
)

func RandDigits(n int) string {
	if n <= 0 {
		return ""
	}

	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + fastrand.Uint32n(10))
	}
	return string(b)
}

// Truncate cuts content to at most maxLen runes.
func Truncate(content string, maxLen int) string {
	if utf8.RuneCountInString(content) <= maxLen {
		return content
	}
	return string([]rune(content)[:maxLen]) + "..."
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes <think> blocks and stray think tags from model output.
func StripThinking(text string) string {
	if !strings.Contains(text, "<think>") && !strings.Contains(text, "</think>") {
		return text
	}
	text = thinkBlock.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "<think>", "")
	text = strings.ReplaceAll(text, "</think>", "")
	return strings.TrimSpace(text)
}
