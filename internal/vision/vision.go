// Package vision guesses what part of the page a captured screen frame shows.
//
// Every stage is a pure function over an image that returns a Reading, so
// stages can be tested and swapped on their own. Analyze runs all three and
// Combine merges them into one reading.
package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/curator/internal/domain"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DarkLuma is the luma below which a pixel counts as dark.
	DarkLuma = 50.0 / 255.0
	// ModalDarkRatio is the dark-pixel share that indicates a modal overlay.
	ModalDarkRatio = 0.3

	BlockSize    = 20
	TextContrast = 0.35
	// TextConfidenceScale caps the text stage, which only sees layout.
	TextConfidenceScale = 0.6

	HistogramBins = 4
	HistogramSize = HistogramBins * HistogramBins * HistogramBins
	sampleSize    = 32

	// MinConfidence is the combined confidence below which a reading is discarded.
	MinConfidence = 0.3

	// MaxFramePixels bounds the decoded size of a frame.
	MaxFramePixels = 4096 * 4096
)

var (
	ErrEmptyFrame    = errors.New("empty frame")
	ErrFrameTooLarge = errors.New("frame too large")
)

// Stage names one analysis step.
type Stage string

const (
	StageModal    Stage = "modal"
	StageText     Stage = "text"
	StagePalette  Stage = "palette"
	StageCombined Stage = "combined"
)

// Reading is the outcome of one analysis stage.
type Reading struct {
	Stage      Stage            `json:"stage"`
	Section    domain.SectionID `json:"section,omitempty"`
	Confidence float64          `json:"confidence"`
	Modal      bool             `json:"modal,omitempty"`
}

// PaletteRef is the reference palette of one section.
type PaletteRef struct {
	Section domain.SectionID
	Colors  []color.RGBA
}

// TextEntry is one vocabulary item for the text layout stage.
type TextEntry struct {
	Section   domain.SectionID
	Signature domain.TextSignature
}

// Analysis bundles the per-stage readings with the combined result.
type Analysis struct {
	Readings []Reading
	Combined Reading
	Palette  []float32
}

// Decode reads a PNG, JPEG, GIF or WebP frame. The header is checked first
// so frames above MaxFramePixels are rejected before any pixel is allocated.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrEmptyFrame
	}
	if cfg.Width > MaxFramePixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d", ErrFrameTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyFrame
	}
	return img, nil
}

// Analyze runs every stage over img and combines the results.
func Analyze(img image.Image, vocab []TextEntry, refs []PaletteRef) Analysis {
	rgba := toRGBA(img)
	hist := histogram(rgba)

	readings := []Reading{
		detectModal(rgba),
		scanTextRegions(rgba, vocab),
		MatchHistogram(hist, refs),
	}
	return Analysis{
		Readings: readings,
		Combined: Combine(readings...),
		Palette:  hist,
	}
}

// Combine merges stage readings. The combined confidence is the highest
// stage confidence; the section comes from the most confident stage that
// names one. A modal hides the page behind it, so a modal reading names no
// section.
func Combine(readings ...Reading) Reading {
	out := Reading{Stage: StageCombined}
	bestTarget := 0.0
	for _, r := range readings {
		if r.Confidence > out.Confidence {
			out.Confidence = r.Confidence
		}
		if r.Modal {
			out.Modal = true
		}
		if r.Section != "" && r.Confidence > bestTarget {
			out.Section = r.Section
			bestTarget = r.Confidence
		}
	}
	if out.Modal {
		out.Section = ""
	}
	return out
}

// DetectModal reports a modal overlay when more than ModalDarkRatio of the
// pixels are dark.
func DetectModal(img image.Image) Reading {
	return detectModal(toRGBA(img))
}

func detectModal(img *image.RGBA) Reading {
	r := Reading{Stage: StageModal}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return r
	}
	dark := 0
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			if luma(row[i], row[i+1], row[i+2]) < DarkLuma {
				dark++
			}
		}
	}
	ratio := float64(dark) / float64(w*h)
	if ratio > ModalDarkRatio {
		r.Modal = true
		r.Confidence = ratio
	}
	return r
}

// ScanTextRegions finds high-contrast blocks and matches their layout
// against the vocabulary.
func ScanTextRegions(img image.Image, vocab []TextEntry) Reading {
	return scanTextRegions(toRGBA(img), vocab)
}

func scanTextRegions(img *image.RGBA, vocab []TextEntry) Reading {
	r := Reading{Stage: StageText}
	cols, rows := img.Rect.Dx()/BlockSize, img.Rect.Dy()/BlockSize
	if cols == 0 || rows == 0 {
		return r
	}

	text := 0
	minRow, maxRow := rows, -1
	for by := 0; by < rows; by++ {
		for bx := 0; bx < cols; bx++ {
			if blockContrast(img, bx*BlockSize, by*BlockSize) >= TextContrast {
				text++
				minRow = min(minRow, by)
				maxRow = max(maxRow, by)
			}
		}
	}
	if text == 0 {
		return r
	}

	density := float64(text) / float64(cols*rows)
	centerY := float64(minRow+maxRow+1) / 2 / float64(rows)

	best := 0.0
	for _, e := range vocab {
		dist := math.Abs(centerY-e.Signature.CenterY) + math.Abs(density-e.Signature.Density)
		score := max(0, 1-2*dist)
		if score > best {
			best = score
			r.Section = e.Section
		}
	}
	r.Confidence = best * TextConfidenceScale
	return r
}

// blockContrast returns the luma range of the block whose top-left corner is
// at (x0, y0) relative to the image origin.
func blockContrast(img *image.RGBA, x0, y0 int) float64 {
	lo, hi := 1.0, 0.0
	for y := y0; y < y0+BlockSize; y++ {
		off := y*img.Stride + x0*4
		for x := 0; x < BlockSize; x++ {
			p := img.Pix[off+x*4 : off+x*4+3]
			l := luma(p[0], p[1], p[2])
			lo = min(lo, l)
			hi = max(hi, l)
		}
	}
	return hi - lo
}

// MatchPalette compares the frame's colour histogram with each reference
// palette and returns the closest section.
func MatchPalette(img image.Image, refs []PaletteRef) Reading {
	return MatchHistogram(Histogram(img), refs)
}

// MatchHistogram scores hist against each reference palette by histogram
// intersection.
func MatchHistogram(hist []float32, refs []PaletteRef) Reading {
	r := Reading{Stage: StagePalette}
	for _, ref := range refs {
		score := intersection(hist, paletteHistogram(ref.Colors))
		if score > r.Confidence {
			r.Confidence = score
			r.Section = ref.Section
		}
	}
	return r
}

// Histogram downsamples img and returns its normalized RGB histogram with
// HistogramBins bins per channel.
func Histogram(img image.Image) []float32 {
	return histogram(toRGBA(img))
}

func histogram(img *image.RGBA) []float32 {
	h := make([]float32, HistogramSize)
	if img.Rect.Empty() {
		return h
	}
	small := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	n := float32(sampleSize * sampleSize)
	for i := 0; i < len(small.Pix); i += 4 {
		h[binIndex(small.Pix[i], small.Pix[i+1], small.Pix[i+2])] += 1 / n
	}
	return h
}

func paletteHistogram(colors []color.RGBA) []float32 {
	h := make([]float32, HistogramSize)
	if len(colors) == 0 {
		return h
	}
	w := 1 / float32(len(colors))
	for _, c := range colors {
		h[binIndex(c.R, c.G, c.B)] += w
	}
	return h
}

func binIndex(r, g, b uint8) int {
	const width = 256 / HistogramBins
	return int(r)/width*HistogramBins*HistogramBins + int(g)/width*HistogramBins + int(b)/width
}

func intersection(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(min(a[i], b[i]))
	}
	return sum
}

// luma returns Rec. 601 luma in [0,1].
func luma(r, g, b uint8) float64 {
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// ParseHexColor parses "#rrggbb" or "#rgb".
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
