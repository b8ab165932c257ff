package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseKey_Valid 测试合法逻辑路径
func TestParseKey_Valid(t *testing.T) {
	key, err := ParseKey("owner/file.jpg")
	require.NoError(t, err)
	assert.Equal(t, "owner", key.Owner)
	assert.Equal(t, "file.jpg", key.Name)
	assert.Equal(t, "owner/file.jpg", key.String())

	key, err = ParseKey("user-42/IMG_2024.PNG")
	require.NoError(t, err)
	assert.Equal(t, "user-42", key.Owner)
}

// TestParseKey_Traversal 测试路径遍历防护
func TestParseKey_Traversal(t *testing.T) {
	traversalAttempts := []string{
		"a/../../etc/passwd",
		"../etc/passwd",
		"..",
		"owner/..",
		"../..",
		"owner/..%2Fetc",
		"owner\\..\\file",
	}

	for _, attempt := range traversalAttempts {
		t.Run(attempt, func(t *testing.T) {
			_, err := ParseKey(attempt)
			assert.ErrorIs(t, err, ErrInvalidPath, "path traversal attempt should be rejected: %s", attempt)
		})
	}
}

// TestParseKey_Shape 测试段数与空段校验
func TestParseKey_Shape(t *testing.T) {
	invalid := []string{
		"",
		"onlyone",
		"a/b/c",
		"/file.jpg",
		"owner/",
		"//",
		"owner//file.jpg",
	}

	for _, path := range invalid {
		t.Run(path, func(t *testing.T) {
			_, err := ParseKey(path)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}
