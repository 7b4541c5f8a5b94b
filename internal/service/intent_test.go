package service

import (
	"regexp"
	"testing"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIntentClassifier_Classify(t *testing.T) {
	c := NewIntentClassifier(defaultKB(t).Intents())

	tests := []struct {
		message    string
		wantIntent string
		wantConf   float64
	}{
		{"hello there", "greeting", 1.0},
		{"HELLO there", "greeting", 1.0},
		{"I love animations", "animations", 2.0 / 3.0},
		{"what is this?", "current_view", 3.0 / 3.0},
		{"can I hire you for a commission", "contact", 3.0 / 7.0},
		{"xyzzy plugh", "", 0},
		{"", "", 0},
		{"   ", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			intent, conf := c.Classify(tt.message)
			assert.Equal(t, tt.wantIntent, intent)
			assert.InDelta(t, tt.wantConf, conf, 1e-9)
		})
	}
}

func TestIntentClassifier_TieKeepsFirstMatch(t *testing.T) {
	c := NewIntentClassifier([]domain.Intent{
		{Name: "first", Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\bred\b`)}},
		{Name: "second", Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\bblue\b`)}},
	})

	intent, conf := c.Classify("red blue")
	assert.Equal(t, "first", intent)
	assert.InDelta(t, 0.5, conf, 1e-9)
}

func TestIntentClassifier_CaptureGroupsRaiseDensity(t *testing.T) {
	c := NewIntentClassifier([]domain.Intent{
		{Name: "plain", Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\bink\b`)}},
		{Name: "grouped", Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\b(ink) (wash)\b`)}},
	})

	intent, conf := c.Classify("ink wash")
	assert.Equal(t, "grouped", intent)
	assert.InDelta(t, 1.5, conf, 1e-9, "density is not a probability")
}
