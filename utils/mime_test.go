package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExtensionsForMime(t *testing.T) {
	assert.Equal(t, []string{".jpg", ".jpeg"}, GetExtensionsForMime("image/jpeg"))
	assert.Equal(t, []string{".png"}, GetExtensionsForMime("image/png; charset=binary"))
	assert.Nil(t, GetExtensionsForMime("text/plain"))
}

func TestGetExtensionFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"cat.JPG", ".jpg"},
		{"archive.tar.png", ".png"},
		{"noext", ""},
		{".hidden", ".hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetExtensionFromFilename(tt.filename))
		})
	}
}

func TestSameExtensionFamily(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{".jpg", ".jpeg", true},
		{"jpeg", ".JPG", true},
		{".png", ".png", true},
		{".png", ".jpg", false},
		{".gif", ".bmp", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, SameExtensionFamily(tt.a, tt.b))
			assert.Equal(t, tt.expected, SameExtensionFamily(tt.b, tt.a))
		})
	}
}

func TestGetMimeForExtension(t *testing.T) {
	assert.Equal(t, "image/jpeg", GetMimeForExtension(".JPEG"))
	assert.Equal(t, "image/jpeg", GetMimeForExtension("jpg"))
	assert.Equal(t, "image/png", GetMimeForExtension(".png"))
	assert.Equal(t, "application/octet-stream", GetMimeForExtension(".exe"))
}
