package cmd

import (
	"testing"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single account",
			input:    "work",
			expected: []string{"work"},
		},
		{
			name:     "multiple accounts",
			input:    "work,personal",
			expected: []string{"work", "personal"},
		},
		{
			name:     "accounts with spaces around comma",
			input:    "work, personal",
			expected: []string{"work", "personal"},
		},
		{
			name:     "accounts with leading/trailing spaces",
			input:    "  work  ,  personal  ",
			expected: []string{"work", "personal"},
		},
		{
			name:     "trailing comma",
			input:    "work,personal,",
			expected: []string{"work", "personal"},
		},
		{
			name:     "leading comma",
			input:    ",work,personal",
			expected: []string{"work", "personal"},
		},
		{
			name:     "multiple consecutive commas",
			input:    "work,,personal",
			expected: []string{"work", "personal"},
		},
		{
			name:     "only commas and spaces",
			input:    ",  , , ",
			expected: nil,
		},
		{
			name:     "single account with surrounding whitespace",
			input:    "  work  ",
			expected: []string{"work"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseCommaSeparatedList(tt.input)

			// Handle nil vs empty slice comparison
			if tt.expected == nil {
				if result != nil {
					t.Errorf("parseCommaSeparatedList(%q) = %v, want nil", tt.input, result)
				}
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("parseCommaSeparatedList(%q) = %v (len %d), want %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
				return
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCommaSeparatedList(%q)[%d] = %q, want %q",
						tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestDefaultDBPathHonorsEnv(t *testing.T) {
	t.Setenv("MEETINGMATE_DB", "/tmp/custom.db")
	if got := defaultDBPath(); got != "/tmp/custom.db" {
		t.Errorf("defaultDBPath() = %q, want /tmp/custom.db", got)
	}
}
