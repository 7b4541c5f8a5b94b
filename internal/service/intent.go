package service

import (
	"strings"

	"github.com/Harshitk-cp/curator/internal/domain"
)

// IntentClassifier matches chat messages against the static intent table.
//
// Confidence is a density score, the number of entries in the regex match
// (whole match plus capture groups) divided by the number of words in the
// message. It is not a probability and can exceed 1.
type IntentClassifier struct {
	intents []domain.Intent
}

func NewIntentClassifier(intents []domain.Intent) *IntentClassifier {
	return &IntentClassifier{intents: intents}
}

// Classify returns the best-scoring intent name and its confidence, or
// ("", 0) when nothing matches. Ties keep the first match found.
func (c *IntentClassifier) Classify(message string) (string, float64) {
	intent, conf := c.match(message)
	if intent == nil {
		return "", 0
	}
	return intent.Name, conf
}

func (c *IntentClassifier) match(message string) (*domain.Intent, float64) {
	words := len(strings.Fields(message))
	if words == 0 {
		return nil, 0
	}

	var best *domain.Intent
	bestConf := 0.0
	for i := range c.intents {
		intent := &c.intents[i]
		for _, re := range intent.Patterns {
			m := re.FindStringSubmatch(message)
			if m == nil {
				continue
			}
			if conf := float64(len(m)) / float64(words); conf > bestConf {
				best, bestConf = intent, conf
			}
		}
	}
	return best, bestConf
}
