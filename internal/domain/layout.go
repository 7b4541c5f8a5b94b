package domain

// CardLayout is the on-screen box of one content card.
type CardLayout struct {
	Artifact ArtifactID `json:"artifact"`
	Top      float64    `json:"top"`
	Height   float64    `json:"height"`
}

// SectionLayout is the on-screen box of a page section and its cards.
// Top values are relative to the viewport top, so they go negative once the
// element has scrolled past.
type SectionLayout struct {
	ID     SectionID    `json:"id"`
	Top    float64      `json:"top"`
	Height float64      `json:"height"`
	Cards  []CardLayout `json:"cards,omitempty"`
}

// Layout is a viewport snapshot posted by the page on scroll.
type Layout struct {
	ViewportHeight float64         `json:"viewport_height"`
	Sections       []SectionLayout `json:"sections"`
}

// VisibleFraction returns how much of a box of the given top and height lies
// inside a viewport of height vh.
func VisibleFraction(top, height, vh float64) float64 {
	if height <= 0 || vh <= 0 {
		return 0
	}
	bottom := top + height
	visTop := max(top, 0)
	visBottom := min(bottom, vh)
	if visBottom <= visTop {
		return 0
	}
	return (visBottom - visTop) / height
}
