package slack

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<@U012AB3CD> what are the school hours?", "what are the school hours?"},
		{"fees   please", "fees please"},
		{"<@U012AB3CD>", ""},
	}
	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
