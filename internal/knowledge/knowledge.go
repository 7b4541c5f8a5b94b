// Package knowledge holds the static reference data behind the guide:
// page sections, artwork descriptions, chat intents and response templates.
// It is loaded once at startup and never mutated afterwards.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"os"
	"regexp"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/Harshitk-cp/curator/internal/vision"
	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var defaultData []byte

var (
	ErrUnknownArtifact = errors.New("unknown artifact")
	ErrUnknownSection  = errors.New("unknown section")
)

type rawSection struct {
	ID            string               `yaml:"id"`
	Title         string               `yaml:"title"`
	Summary       string               `yaml:"summary"`
	Category      string               `yaml:"category"`
	Palette       []string             `yaml:"palette"`
	TextSignature domain.TextSignature `yaml:"text_signature"`
}

type rawArtifact struct {
	ID           string `yaml:"id"`
	Section      string `yaml:"section"`
	Description  string `yaml:"description"`
	Technique    string `yaml:"technique"`
	Theme        string `yaml:"theme"`
	CulturalNote string `yaml:"cultural_note"`
}

type rawIntent struct {
	Name       string   `yaml:"name"`
	Category   string   `yaml:"category"`
	Contextual bool     `yaml:"contextual"`
	Patterns   []string `yaml:"patterns"`
	Responses  []string `yaml:"responses"`
}

type rawBase struct {
	Templates  domain.Templates    `yaml:"templates"`
	Sections   []rawSection        `yaml:"sections"`
	Artifacts  []rawArtifact       `yaml:"artifacts"`
	Intents    []rawIntent         `yaml:"intents"`
	Nudges     map[string][]string `yaml:"nudges"`
	Flourishes []string            `yaml:"flourishes"`
}

// Base is the immutable, validated knowledge base.
type Base struct {
	templates   domain.Templates
	sections    []domain.Section
	sectionIdx  map[domain.SectionID]int
	artifacts   []domain.ArtifactRecord
	artifactIdx map[domain.ArtifactID]int
	intents     []domain.Intent
	nudges      map[domain.Category][]string
	flourishes  []string
}

// Default returns the knowledge base compiled into the binary.
func Default() (*Base, error) {
	return Parse(defaultData)
}

// Load reads a knowledge base from path, or the embedded one when path is empty.
func Load(path string) (*Base, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML knowledge data.
func Parse(data []byte) (*Base, error) {
	var raw rawBase
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode knowledge: %w", err)
	}

	b := &Base{
		templates:   raw.Templates,
		sectionIdx:  make(map[domain.SectionID]int, len(raw.Sections)),
		artifactIdx: make(map[domain.ArtifactID]int, len(raw.Artifacts)),
		nudges:      make(map[domain.Category][]string, len(raw.Nudges)),
		flourishes:  raw.Flourishes,
	}

	for _, rs := range raw.Sections {
		id := domain.SectionID(rs.ID)
		if id == "" {
			return nil, errors.New("section without id")
		}
		if _, dup := b.sectionIdx[id]; dup {
			return nil, fmt.Errorf("duplicate section %q", id)
		}
		for _, hex := range rs.Palette {
			if _, err := vision.ParseHexColor(hex); err != nil {
				return nil, fmt.Errorf("section %q: %w", id, err)
			}
		}
		b.sectionIdx[id] = len(b.sections)
		b.sections = append(b.sections, domain.Section{
			ID:            id,
			Title:         rs.Title,
			Summary:       rs.Summary,
			Category:      domain.Category(rs.Category),
			Palette:       rs.Palette,
			TextSignature: rs.TextSignature,
		})
	}

	for _, ra := range raw.Artifacts {
		id := domain.ArtifactID(ra.ID)
		if id == "" {
			return nil, errors.New("artifact without id")
		}
		if _, dup := b.artifactIdx[id]; dup {
			return nil, fmt.Errorf("duplicate artifact %q", id)
		}
		if _, ok := b.sectionIdx[domain.SectionID(ra.Section)]; !ok {
			return nil, fmt.Errorf("artifact %q: %w %q", id, ErrUnknownSection, ra.Section)
		}
		b.artifactIdx[id] = len(b.artifacts)
		b.artifacts = append(b.artifacts, domain.ArtifactRecord{
			ID:           id,
			Section:      domain.SectionID(ra.Section),
			Description:  ra.Description,
			Technique:    ra.Technique,
			Theme:        ra.Theme,
			CulturalNote: ra.CulturalNote,
		})
	}

	for _, ri := range raw.Intents {
		if ri.Name == "" {
			return nil, errors.New("intent without name")
		}
		if len(ri.Patterns) == 0 {
			return nil, fmt.Errorf("intent %q has no patterns", ri.Name)
		}
		if !ri.Contextual && len(ri.Responses) == 0 {
			return nil, fmt.Errorf("intent %q has no responses", ri.Name)
		}
		intent := domain.Intent{
			Name:       ri.Name,
			Responses:  ri.Responses,
			Category:   domain.Category(ri.Category),
			Contextual: ri.Contextual,
		}
		for _, p := range ri.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("intent %q pattern %q: %w", ri.Name, p, err)
			}
			intent.Patterns = append(intent.Patterns, re)
		}
		b.intents = append(b.intents, intent)
	}

	for cat, lines := range raw.Nudges {
		b.nudges[domain.Category(cat)] = lines
	}

	return b, nil
}

func (b *Base) Templates() domain.Templates {
	return b.templates
}

// Intents returns the intent table in declaration order.
func (b *Base) Intents() []domain.Intent {
	return b.intents
}

func (b *Base) Sections() []domain.Section {
	return b.sections
}

func (b *Base) Artifacts() []domain.ArtifactRecord {
	return b.artifacts
}

func (b *Base) Section(id domain.SectionID) (domain.Section, bool) {
	i, ok := b.sectionIdx[id]
	if !ok {
		return domain.Section{}, false
	}
	return b.sections[i], true
}

func (b *Base) Artifact(id domain.ArtifactID) (domain.ArtifactRecord, bool) {
	i, ok := b.artifactIdx[id]
	if !ok {
		return domain.ArtifactRecord{}, false
	}
	return b.artifacts[i], true
}

// SectionOf returns the section an artifact belongs to.
func (b *Base) SectionOf(id domain.ArtifactID) (domain.SectionID, error) {
	a, ok := b.Artifact(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownArtifact, id)
	}
	return a.Section, nil
}

// Nudges returns the suggestion lines for a category.
func (b *Base) Nudges(c domain.Category) []string {
	return b.nudges[c]
}

func (b *Base) Flourishes() []string {
	return b.flourishes
}

// PaletteRefs returns the reference palettes used by capture analysis.
func (b *Base) PaletteRefs() []vision.PaletteRef {
	refs := make([]vision.PaletteRef, 0, len(b.sections))
	for _, s := range b.sections {
		if len(s.Palette) == 0 {
			continue
		}
		colors := make([]color.RGBA, 0, len(s.Palette))
		for _, hex := range s.Palette {
			c, _ := vision.ParseHexColor(hex)
			colors = append(colors, c)
		}
		refs = append(refs, vision.PaletteRef{Section: s.ID, Colors: colors})
	}
	return refs
}

// TextVocabulary returns the text layout signatures used by capture analysis.
func (b *Base) TextVocabulary() []vision.TextEntry {
	vocab := make([]vision.TextEntry, 0, len(b.sections))
	for _, s := range b.sections {
		if s.TextSignature == (domain.TextSignature{}) {
			continue
		}
		vocab = append(vocab, vision.TextEntry{Section: s.ID, Signature: s.TextSignature})
	}
	return vocab
}
