package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", FormatFileSize(0))
	assert.Equal(t, "512 Bytes", FormatFileSize(512))
	assert.Equal(t, "1 KB", FormatFileSize(1024))
	assert.Equal(t, "1.5 MB", FormatFileSize(1536*1024))
	assert.Equal(t, "500 MB", FormatFileSize(500*1024*1024))
}

func TestParseUintList(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 7}, ParseUintList([]string{"3", " 1 ", "x", "0", "-4", "3", "7"}))
	assert.Empty(t, ParseUintList(nil))
}
