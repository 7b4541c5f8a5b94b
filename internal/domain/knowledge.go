package domain

import "regexp"

// Category is a content category the guide can talk about.
type Category string

const (
	CategoryAnimations    Category = "animations"
	CategoryIllustrations Category = "illustrations"
	CategoryDrawings      Category = "drawings"
)

// Categories lists every content category in display order.
var Categories = []Category{CategoryAnimations, CategoryIllustrations, CategoryDrawings}

// TextSignature describes where a section's text sits on screen:
// the normalized vertical centre of its text and the share of text-like blocks.
type TextSignature struct {
	CenterY float64 `yaml:"center_y" json:"center_y"`
	Density float64 `yaml:"density" json:"density"`
}

// Section is a named top-level page region.
type Section struct {
	ID            SectionID     `json:"id"`
	Title         string        `json:"title"`
	Summary       string        `json:"summary"`
	Category      Category      `json:"category,omitempty"`
	Palette       []string      `json:"palette,omitempty"`
	TextSignature TextSignature `json:"text_signature"`
}

// ArtifactRecord is the static description of one artwork.
type ArtifactRecord struct {
	ID           ArtifactID `json:"id"`
	Section      SectionID  `json:"section"`
	Description  string     `json:"description"`
	Technique    string     `json:"technique"`
	Theme        string     `json:"theme"`
	CulturalNote string     `json:"cultural_note,omitempty"`
}

// IntentCurrentView is the intent for "what is this" style questions.
const IntentCurrentView = "current_view"

// Intent is a named group of patterns with canned responses.
type Intent struct {
	Name      string
	Patterns  []*regexp.Regexp
	Responses []string
	Category  Category
	// Contextual intents answer from the attention belief instead of Responses.
	Contextual bool
}

// Templates holds the response templates that are not tied to one intent.
// Placeholders use {name}, {description}, {technique}, {theme}, {note},
// {section} and {summary}.
type Templates struct {
	Welcome        string `yaml:"welcome"`
	Artifact       string `yaml:"artifact"`
	Section        string `yaml:"section"`
	NoContext      string `yaml:"no_context"`
	NotUnderstood  string `yaml:"not_understood"`
	CulturalSuffix string `yaml:"cultural_suffix"`
}
