package store

import (
	"strings"
	"testing"
)

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"empty", "", false},
		{"normal", "user@example.com", false},
		{"max_length", strings.Repeat("a", 255), false},
		{"too_long", strings.Repeat("a", 256), true},
		{"way_too_long", strings.Repeat("x", 1000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUserID(%d chars) error = %v, wantErr %v", len(tt.id), err, tt.wantErr)
			}
		})
	}
}

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   FAQEntry
		wantErr bool
	}{
		{"ok", FAQEntry{Question: "How do I pay?", Answer: "Online."}, false},
		{"empty_answer_ok", FAQEntry{Question: "How do I pay?"}, false},
		{"blank_question", FAQEntry{Question: "   ", Answer: "x"}, true},
		{"long_question", FAQEntry{Question: strings.Repeat("q", MaxQuestionLength+1)}, true},
		{"long_answer", FAQEntry{Question: "q", Answer: strings.Repeat("a", MaxAnswerLength+1)}, true},
		{"blank_tag", FAQEntry{Question: "q", Tags: []string{"fees", " "}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntry(&tt.entry)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
