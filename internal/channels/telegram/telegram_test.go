package telegram

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mymmrac/telego"
)

func TestStripMention(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"@faqbot what are the hours?", "what are the hours?", true},
		{"what are the hours @FAQBot", "what are the hours", true},
		{"what are the hours?", "what are the hours?", false},
	}
	for _, tt := range tests {
		got, ok := stripMention(tt.text, "faqbot")
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("stripMention(%q) = %q, %v, want %q, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormatTopics(t *testing.T) {
	if got := formatTopics(nil); !strings.Contains(got, "don't have") {
		t.Errorf("empty topics = %q", got)
	}
	got := formatTopics([]string{"fees", "uniform"})
	if got != "I can answer questions about:\n• fees\n• uniform" {
		t.Errorf("formatTopics = %q", got)
	}

	many := make([]string, maxTopicsListed+5)
	for i := range many {
		many[i] = fmt.Sprintf("t%d", i)
	}
	if got := formatTopics(many); !strings.HasSuffix(got, "…and 5 more") {
		t.Errorf("long list suffix = %q", got[len(got)-20:])
	}
}

func TestIsReplyToBot(t *testing.T) {
	bot := &telego.User{IsBot: true, Username: "faqbot"}
	human := &telego.User{Username: "alice"}
	tests := []struct {
		name string
		m    *telego.Message
		want bool
	}{
		{"no reply", &telego.Message{}, false},
		{"reply to bot", &telego.Message{ReplyToMessage: &telego.Message{From: bot}}, true},
		{"reply to human", &telego.Message{ReplyToMessage: &telego.Message{From: human}}, false},
	}
	for _, tt := range tests {
		if got := isReplyToBot(tt.m, "FaqBot"); got != tt.want {
			t.Errorf("%s: isReplyToBot = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBuildUserName(t *testing.T) {
	if got := buildUserName(&telego.User{FirstName: "Ada", LastName: "Lovelace"}); got != "Ada Lovelace" {
		t.Errorf("buildUserName = %q", got)
	}
	if got := buildUserName(nil); got != "unknown" {
		t.Errorf("buildUserName(nil) = %q", got)
	}
}
