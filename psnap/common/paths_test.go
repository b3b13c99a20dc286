package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathUtils_NormalizePath(t *testing.T) {
	pu := NewPathUtils()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "/a/b", "/a/b"},
		{"trailing slash", "/a/b/", "/a/b"},
		{"duplicate separators", "/a//b", "/a/b"},
		{"dot elements", "/a/./b", "/a/b"},
		{"dotdot elements", "/a/c/../b", "/a/b"},
		{"backslashes", `C:\app\bin`, "C:/app/bin"},
		{"bare root", "/", "/"},
		{"relative", "a/b/", "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pu.NormalizePath(tt.in))
		})
	}
}

func TestPathUtils_SplitComponents(t *testing.T) {
	pu := NewPathUtils()

	assert.Equal(t, []string{"a", "b"}, pu.SplitComponents("/a/b"))
	assert.Equal(t, []string{"a", "b"}, pu.SplitComponents("a/b/"))
	assert.Equal(t, []string{"a", "b"}, pu.SplitComponents("//a//b//"))
	assert.Nil(t, pu.SplitComponents("/"))
	assert.Nil(t, pu.SplitComponents(""))
}

func TestPathUtils_ComponentCounts(t *testing.T) {
	pu := NewPathUtils()

	assert.Equal(t, map[string]int{"a": 2, "b": 1}, pu.ComponentCounts("/a/b/a"))
	assert.Empty(t, pu.ComponentCounts("/"))
}

func TestPathUtils_ValidatePath(t *testing.T) {
	pu := NewPathUtils()

	assert.NoError(t, pu.ValidatePath("/a/b"))
	assert.ErrorIs(t, pu.ValidatePath(""), ErrPathEmpty)
	assert.ErrorIs(t, pu.ValidatePath("/a\x00b"), ErrPathInvalid)
	assert.ErrorIs(t, pu.ValidatePath("/"+strings.Repeat("a", 4096)), ErrPathTooLong)
}
