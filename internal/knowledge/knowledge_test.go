package knowledge

import (
	"errors"
	"testing"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKnowledgeBase(t *testing.T) {
	kb, err := Default()
	require.NoError(t, err)

	a, ok := kb.Artifact("Sacred Waters")
	require.True(t, ok)
	assert.Equal(t, domain.SectionID("illustrations"), a.Section)
	assert.NotEmpty(t, a.Technique)

	sec, err := kb.SectionOf("Divine Dance")
	require.NoError(t, err)
	assert.Equal(t, domain.SectionID("animations"), sec)

	_, err = kb.SectionOf("Mona Lisa")
	assert.True(t, errors.Is(err, ErrUnknownArtifact))

	for _, c := range domain.Categories {
		assert.NotEmpty(t, kb.Nudges(c), "category %s has no nudges", c)
	}

	var names []string
	for _, in := range kb.Intents() {
		names = append(names, in.Name)
	}
	assert.Contains(t, names, "greeting")
	assert.Contains(t, names, domain.IntentCurrentView)

	assert.NotEmpty(t, kb.Templates().Welcome)
	assert.Len(t, kb.PaletteRefs(), len(kb.Sections()))
	assert.NotEmpty(t, kb.TextVocabulary())
}

func TestPatternsAreCaseInsensitive(t *testing.T) {
	kb, err := Default()
	require.NoError(t, err)

	for _, in := range kb.Intents() {
		if in.Name != "greeting" {
			continue
		}
		assert.True(t, in.Patterns[0].MatchString("HELLO there"))
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "artifact in unknown section",
			data: `
sections: [{id: home}]
artifacts: [{id: X, section: nowhere}]`,
		},
		{
			name: "bad regex",
			data: `
intents: [{name: broken, patterns: ['(unclosed'], responses: [hi]}]`,
		},
		{
			name: "canned intent without responses",
			data: `
intents: [{name: empty, patterns: ['x']}]`,
		},
		{
			name: "bad palette colour",
			data: `
sections: [{id: home, palette: ['#nothex']}]`,
		},
		{
			name: "duplicate section",
			data: `
sections: [{id: home}, {id: home}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestContextualIntentNeedsNoResponses(t *testing.T) {
	kb, err := Parse([]byte(`
intents:
  - name: current_view
    contextual: true
    patterns: ['what is this']`))
	require.NoError(t, err)
	require.Len(t, kb.Intents(), 1)
	assert.True(t, kb.Intents()[0].Contextual)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/knowledge.yaml")
	assert.Error(t, err)
}
