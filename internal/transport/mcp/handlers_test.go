package mcp

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPreviewText(t *testing.T) {
	assert.Equal(t, "short", previewText("short", 60))
	assert.Equal(t, "abc...", previewText("abcdef", 3))

	got := previewText("日本語のテキストです", 4)
	assert.Equal(t, "日本語の...", got)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
}
