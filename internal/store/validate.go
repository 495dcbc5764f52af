package store

import (
	"fmt"
	"strings"
)

// MaxUserIDLength is the maximum allowed length for user identifier strings
// passed by gateway clients.
const MaxUserIDLength = 255

// Limits for stored entries.
const (
	MaxQuestionLength = 1000
	MaxAnswerLength   = 20000
)

// ValidateUserID checks that a user identifier does not exceed MaxUserIDLength.
func ValidateUserID(id string) error {
	if len(id) > MaxUserIDLength {
		return fmt.Errorf("user identifier too long: %d chars (max %d)", len(id), MaxUserIDLength)
	}
	return nil
}

// ValidateEntry checks an entry before it is written.
func ValidateEntry(e *FAQEntry) error {
	if strings.TrimSpace(e.Question) == "" {
		return fmt.Errorf("question is required")
	}
	if len(e.Question) > MaxQuestionLength {
		return fmt.Errorf("question too long: %d chars (max %d)", len(e.Question), MaxQuestionLength)
	}
	if len(e.Answer) > MaxAnswerLength {
		return fmt.Errorf("answer too long: %d chars (max %d)", len(e.Answer), MaxAnswerLength)
	}
	for _, tag := range e.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags must not be blank")
		}
	}
	return nil
}
