package watermark

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRenderTemplate 测试占位符替换
func TestRenderTemplate(t *testing.T) {
	ctx := Context{
		"username":  "alice",
		"albumName": "Trip2024",
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"single var", "{username}", "alice"},
		{"mixed text", "photo by {username} - {albumName}", "photo by alice - Trip2024"},
		{"unknown key becomes empty", "hello {unknown}!", "hello !"},
		{"missing and present", "{username}{missing}{albumName}", "aliceTrip2024"},
		{"no placeholders", "plain text", "plain text"},
		{"empty template", "", ""},
		{"repeated var", "{username} {username}", "alice alice"},
		{"non-identifier braces untouched", "{not valid}", "{not valid}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RenderTemplate(tt.template, ctx))
		})
	}
}

// TestRenderTemplate_NilContext 测试空变量表不会崩溃
func TestRenderTemplate_NilContext(t *testing.T) {
	assert.Equal(t, "watermark ", RenderTemplate("watermark {username}", nil))
}

// TestRenderTemplate_NoRecursion 测试不做递归展开
func TestRenderTemplate_NoRecursion(t *testing.T) {
	ctx := Context{"a": "{b}", "b": "boom"}
	assert.Equal(t, "{b}", RenderTemplate("{a}", ctx))
}

// TestNewContext 测试基础变量表
func TestNewContext(t *testing.T) {
	ctx := NewContext("bob").With("ip", "10.0.0.1")
	assert.Equal(t, "bob", ctx["username"])
	assert.Equal(t, "10.0.0.1", ctx["ip"])
	assert.NotEmpty(t, ctx["datetime"])
}
