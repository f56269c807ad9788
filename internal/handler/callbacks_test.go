package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contentgpt/internal/domain"
)

func TestCleanCallbackData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean data unchanged",
			input:    "payyk_basic",
			expected: "payyk_basic",
		},
		{
			name:     "strips telebot callback prefix",
			input:    "\fstyle_fun",
			expected: "style_fun",
		},
		{
			name:     "trims whitespace",
			input:    "  ykcheck_ext-1  ",
			expected: "ykcheck_ext-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanCallbackData(tt.input))
		})
	}
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "Пост", kindLabel(domain.KindPost))
	assert.Equal(t, "История", kindLabel(domain.KindStory))
	assert.Equal(t, "Идеи", kindLabel(domain.KindIdeas))
	assert.Equal(t, "Подпись", kindLabel(domain.KindCaption))
	assert.Equal(t, "Стиль", kindLabel(domain.KindStyle))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "короткий", truncate("короткий", 300))
	assert.Equal(t, "дли…", truncate("длинный", 3))
}
