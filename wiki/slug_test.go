package wiki

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{
			name:     "simple title",
			title:    "Hello World",
			expected: "hello-world",
		},
		{
			name:     "uppercase is lowered",
			title:    "HELLO",
			expected: "hello",
		},
		{
			name:     "punctuation is stripped",
			title:    "Hello, World! (2nd Edition)",
			expected: "hello-world-2nd-edition",
		},
		{
			name:     "multiple spaces collapse",
			title:    "too   many    spaces",
			expected: "too-many-spaces",
		},
		{
			name:     "existing hyphens are kept",
			title:    "well-known page",
			expected: "well-known-page",
		},
		{
			name:     "consecutive hyphens collapse",
			title:    "dash -- dash",
			expected: "dash-dash",
		},
		{
			name:     "leading and trailing separators trim",
			title:    " - padded - ",
			expected: "padded",
		},
		{
			name:     "only punctuation yields empty",
			title:    "!!! ???",
			expected: "",
		},
		{
			name:     "empty title yields empty",
			title:    "",
			expected: "",
		},
		{
			name:     "numbers survive",
			title:    "Top 10 Things",
			expected: "top-10-things",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.expected)
			}
		})
	}
}
