package service

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/Harshitk-cp/curator/internal/knowledge"
	"go.uber.org/zap"
)

const (
	DefaultFlourishProbability = 0.3

	baseTypingDelay   = time.Second
	typingDelayJitter = time.Second
)

// Response is one chat reply.
type Response struct {
	Text        string
	Intent      string
	Confidence  float64
	TypingDelay time.Duration
}

// IntentResponder answers chat messages for one session, using the
// attention belief for "what is this" questions and for messages it cannot
// classify.
type IntentResponder struct {
	kb         *knowledge.Base
	classifier *IntentClassifier
	attention  AttentionTarget
	logger     *zap.Logger

	mu        sync.Mutex
	rng       *rand.Rand
	flourishP float64
	discussed map[domain.Category]bool
}

func NewIntentResponder(kb *knowledge.Base, attention AttentionTarget, logger *zap.Logger) *IntentResponder {
	seed := uint64(time.Now().UnixNano())
	return &IntentResponder{
		kb:         kb,
		classifier: NewIntentClassifier(kb.Intents()),
		attention:  attention,
		logger:     logger,
		rng:        rand.New(rand.NewPCG(seed, seed>>1)),
		flourishP:  DefaultFlourishProbability,
		discussed:  make(map[domain.Category]bool),
	}
}

func (r *IntentResponder) SetRand(rng *rand.Rand) {
	r.mu.Lock()
	r.rng = rng
	r.mu.Unlock()
}

func (r *IntentResponder) SetFlourishProbability(p float64) {
	r.mu.Lock()
	r.flourishP = p
	r.mu.Unlock()
}

// Welcome returns the greeting shown when the chat opens.
func (r *IntentResponder) Welcome() string {
	return r.kb.Templates().Welcome
}

// Respond picks a reply for message. It never fails; an unmatched message
// falls back to the attention belief and then to a generic prompt.
func (r *IntentResponder) Respond(message string) Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	tpl := r.kb.Templates()
	intent, conf := r.classifier.match(message)

	var b strings.Builder
	switch {
	case intent == nil:
		b.WriteString(r.describeAttention(tpl.NotUnderstood))
	case intent.Contextual:
		b.WriteString(r.describeAttention(tpl.NoContext))
	default:
		b.WriteString(r.pick(intent.Responses))
	}

	resp := Response{
		TypingDelay: baseTypingDelay + time.Duration(r.rng.Float64()*float64(typingDelayJitter)),
	}
	if intent != nil {
		resp.Intent = intent.Name
		resp.Confidence = conf
		if intent.Category != "" {
			b.WriteString(r.nudge(intent.Category))
		}
		if r.rng.Float64() < r.flourishP {
			b.WriteString(r.pick(r.kb.Flourishes()))
		}
	}
	resp.Text = b.String()

	r.logger.Debug("chat response",
		zap.String("intent", resp.Intent),
		zap.Float64("confidence", resp.Confidence))
	return resp
}

// Describe answers an explicit "ask about this" action without a typed
// message.
func (r *IntentResponder) Describe() Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Response{
		Text:        r.describeAttention(r.kb.Templates().NoContext),
		Intent:      domain.IntentCurrentView,
		Confidence:  1,
		TypingDelay: baseTypingDelay + time.Duration(r.rng.Float64()*float64(typingDelayJitter)),
	}
}

// Reset forgets which categories were discussed.
func (r *IntentResponder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.discussed)
}

// Discussed reports whether a category has come up this session.
func (r *IntentResponder) Discussed(c domain.Category) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discussed[c]
}

func (r *IntentResponder) describeAttention(fallback string) string {
	target := r.attention.CurrentAttentionTarget()
	if target == "" {
		return fallback
	}

	tpl := r.kb.Templates()
	if a, ok := r.kb.Artifact(domain.ArtifactID(target)); ok {
		text := fill(tpl.Artifact, map[string]string{
			"name":        string(a.ID),
			"description": a.Description,
			"technique":   a.Technique,
			"theme":       a.Theme,
		})
		if a.CulturalNote != "" {
			text += fill(tpl.CulturalSuffix, map[string]string{"note": a.CulturalNote})
		}
		return text
	}
	if s, ok := r.kb.Section(domain.SectionID(target)); ok {
		return fill(tpl.Section, map[string]string{
			"section": s.Title,
			"summary": s.Summary,
		})
	}
	return fallback
}

// nudge marks c as discussed and suggests one category not yet discussed.
func (r *IntentResponder) nudge(c domain.Category) string {
	r.discussed[c] = true

	var open []domain.Category
	for _, cat := range domain.Categories {
		if !r.discussed[cat] && len(r.kb.Nudges(cat)) > 0 {
			open = append(open, cat)
		}
	}
	if len(open) == 0 {
		return ""
	}
	return " " + r.pick(r.kb.Nudges(open[r.rng.IntN(len(open))]))
}

func (r *IntentResponder) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[r.rng.IntN(len(options))]
}

func fill(tpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
