package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLogMessage(t *testing.T) {
	assert.Equal(t, "cat jpg", SanitizeLogMessage("cat\njpg"))
	assert.Equal(t, "abc", SanitizeLogMessage("a\x00b\x1bc"))
	assert.Equal(t, "标题", SanitizeLogMessage("标题"))
}

func TestSanitizeLogUsername(t *testing.T) {
	long := strings.Repeat("u", 80)
	got := SanitizeLogUsername(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, 53)
}
