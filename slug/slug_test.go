package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "hostname dots become hyphens",
			input:    "news.ycombinator.com",
			expected: "news-ycombinator-com",
		},
		{
			name:     "basic ascii",
			input:    "Hello World",
			expected: "hello-world",
		},
		{
			name:     "with unicode characters",
			input:    "Café München",
			expected: "cafe-munchen",
		},
		{
			name:     "accented hostname",
			input:    "bücher.example",
			expected: "bucher-example",
		},
		{
			name:     "with special characters",
			input:    "Hello@#$%World",
			expected: "helloworld",
		},
		{
			name:     "with underscores",
			input:    "archived_page_name",
			expected: "archived-page-name",
		},
		{
			name:     "consecutive separators collapse",
			input:    "a  ..  b",
			expected: "a-b",
		},
		{
			name:     "leading and trailing separators trimmed",
			input:    "-.weird.-",
			expected: "weird",
		},
		{
			name:     "long names capped at 100",
			input:    strings.Repeat("a", 150),
			expected: strings.Repeat("a", 100),
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "only special characters",
			input:    "@#$%^&*()",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.expected {
				t.Errorf("Generate(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGenerateWithFallback(t *testing.T) {
	if got := GenerateWithFallback("example.com", "page"); got != "example-com" {
		t.Errorf("expected slug from input, got %q", got)
	}
	if got := GenerateWithFallback("@#$", "page"); got != "page" {
		t.Errorf("expected fallback slug, got %q", got)
	}
}
