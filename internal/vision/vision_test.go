package vision

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// stripes paints alternating black and white rows between y0 and y1.
func stripes(img *image.RGBA, y0, y1 int) {
	for y := y0; y < y1; y++ {
		c := color.RGBA{A: 0xff}
		if y%2 == 0 {
			c = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
		}
		for x := 0; x < img.Rect.Dx(); x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

func TestDetectModal(t *testing.T) {
	t.Run("dark overlay", func(t *testing.T) {
		r := DetectModal(solid(100, 100, color.RGBA{R: 10, G: 10, B: 10, A: 0xff}))
		assert.True(t, r.Modal)
		assert.InDelta(t, 1.0, r.Confidence, 1e-9)
	})

	t.Run("bright page", func(t *testing.T) {
		r := DetectModal(solid(100, 100, white))
		assert.False(t, r.Modal)
		assert.Zero(t, r.Confidence)
	})

	t.Run("just under threshold", func(t *testing.T) {
		img := solid(100, 100, white)
		for y := 0; y < 30; y++ {
			for x := 0; x < 100; x++ {
				img.SetRGBA(x, y, color.RGBA{A: 0xff})
			}
		}
		r := DetectModal(img)
		assert.False(t, r.Modal, "exactly 30 percent dark is not a modal")
	})
}

func TestScanTextRegions(t *testing.T) {
	vocab := []TextEntry{
		{Section: "gallery", Signature: domain.TextSignature{CenterY: 0.1, Density: 0.2}},
		{Section: "contact", Signature: domain.TextSignature{CenterY: 0.9, Density: 0.2}},
	}

	t.Run("heading band at top", func(t *testing.T) {
		img := solid(200, 200, white)
		stripes(img, 0, 40)
		r := ScanTextRegions(img, vocab)
		assert.Equal(t, domain.SectionID("gallery"), r.Section)
		assert.InDelta(t, TextConfidenceScale, r.Confidence, 1e-9)
	})

	t.Run("text near bottom", func(t *testing.T) {
		img := solid(200, 200, white)
		stripes(img, 160, 200)
		r := ScanTextRegions(img, vocab)
		assert.Equal(t, domain.SectionID("contact"), r.Section)
	})

	t.Run("flat frame has no text", func(t *testing.T) {
		r := ScanTextRegions(solid(200, 200, white), vocab)
		assert.Empty(t, r.Section)
		assert.Zero(t, r.Confidence)
	})

	t.Run("frame smaller than a block", func(t *testing.T) {
		r := ScanTextRegions(solid(10, 10, white), vocab)
		assert.Zero(t, r.Confidence)
	})
}

func TestMatchPalette(t *testing.T) {
	teal := color.RGBA{R: 0x2a, G: 0x9d, B: 0x8f, A: 0xff}
	refs := []PaletteRef{
		{Section: "illustrations", Colors: []color.RGBA{teal}},
		{Section: "drawings", Colors: []color.RGBA{white}},
	}

	r := MatchPalette(solid(64, 48, teal), refs)
	assert.Equal(t, domain.SectionID("illustrations"), r.Section)
	assert.InDelta(t, 1.0, r.Confidence, 1e-4)

	r = MatchPalette(solid(64, 48, color.RGBA{R: 0xff, A: 0xff}), refs)
	assert.Empty(t, r.Section)
	assert.Zero(t, r.Confidence)
}

func TestHistogramSumsToOne(t *testing.T) {
	img := solid(40, 40, white)
	stripes(img, 0, 20)
	var sum float32
	for _, v := range Histogram(img) {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestCombine(t *testing.T) {
	t.Run("max confidence and best named section", func(t *testing.T) {
		c := Combine(
			Reading{Stage: StageModal},
			Reading{Stage: StageText, Section: "workflow", Confidence: 0.4},
			Reading{Stage: StagePalette, Section: "drawings", Confidence: 0.5},
		)
		assert.InDelta(t, 0.5, c.Confidence, 1e-9)
		assert.Equal(t, domain.SectionID("drawings"), c.Section)
		assert.False(t, c.Modal)
	})

	t.Run("modal names no section", func(t *testing.T) {
		c := Combine(
			Reading{Stage: StageModal, Modal: true, Confidence: 0.9},
			Reading{Stage: StageText, Section: "workflow", Confidence: 0.4},
			Reading{Stage: StagePalette, Section: "home", Confidence: 0.5},
		)
		assert.InDelta(t, 0.9, c.Confidence, 1e-9)
		assert.Empty(t, c.Section)
		assert.True(t, c.Modal)
	})

	t.Run("zero-confidence section is ignored", func(t *testing.T) {
		c := Combine(Reading{Stage: StageText, Section: "workflow"})
		assert.Empty(t, c.Section)
	})
}

func TestAnalyzeDecodedFrame(t *testing.T) {
	teal := color.RGBA{R: 0x2a, G: 0x9d, B: 0x8f, A: 0xff}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(80, 60, teal)))

	img, err := Decode(&buf)
	require.NoError(t, err)

	a := Analyze(img, nil, []PaletteRef{{Section: "illustrations", Colors: []color.RGBA{teal}}})
	require.Len(t, a.Readings, 3)
	assert.Len(t, a.Palette, HistogramSize)
	assert.Equal(t, domain.SectionID("illustrations"), a.Combined.Section)
	assert.GreaterOrEqual(t, a.Combined.Confidence, MinConfidence)
}

// withDimensions rewrites the IHDR chunk of an encoded PNG so it declares
// w x h pixels.
func withDimensions(t *testing.T, encoded []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), encoded...)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecodeRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(8, 8, white)))

	_, err := Decode(bytes.NewReader(withDimensions(t, buf.Bytes(), 20000, 20000)))
	assert.True(t, errors.Is(err, ErrFrameTooLarge), "got %v", err)

	_, err = Decode(bytes.NewReader(withDimensions(t, buf.Bytes(), MaxFramePixels, 2)))
	assert.True(t, errors.Is(err, ErrFrameTooLarge), "got %v", err)

	img, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#ffffff", white, false},
		{"#2a9d8f", color.RGBA{R: 0x2a, G: 0x9d, B: 0x8f, A: 0xff}, false},
		{"#fff", white, false},
		{"#12345", color.RGBA{}, true},
		{"#zzzzzz", color.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
