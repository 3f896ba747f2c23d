package signal

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"

	// Registered for image.Decode on the common frame encodings.
	_ "image/jpeg"
	_ "image/png"
)

// ErrClassifierUnavailable reports a classifier that never initialized.
// Callers treat it as a degrade path, not a session failure.
var ErrClassifierUnavailable = errors.New("frame classifier unavailable")

// Classification is the capability output for one video frame.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // 0..1
}

// FrameClassifier is the pluggable capability behind the posture scorer.
// Implementations wrap whatever model is loaded at runtime.
type FrameClassifier interface {
	// Classify labels one encoded frame. It must be safe for
	// concurrent use across sessions.
	Classify(ctx context.Context, frame []byte) (Classification, error)

	// Available reports whether the underlying model loaded.
	Available() bool
}

// LumaClassifier is the built-in classifier. It scores framing and
// lighting from luminance statistics: a well-lit, centered subject
// reads as engaged posture. It stands in for an external model and
// keeps the pipeline exercised without one.
type LumaClassifier struct{}

// NewLumaClassifier creates the built-in luminance classifier.
func NewLumaClassifier() *LumaClassifier {
	return &LumaClassifier{}
}

// Available always reports true for the built-in classifier.
func (c *LumaClassifier) Available() bool { return true }

// Classify decodes the frame and derives a posture label from how much
// of the luminance mass sits in the center of the image.
func (c *LumaClassifier) Classify(ctx context.Context, frame []byte) (Classification, error) {
	if err := ctx.Err(); err != nil {
		return Classification{}, err
	}
	if len(frame) == 0 {
		return Classification{}, ErrDecodeChunk
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return Classification{}, ErrDecodeChunk
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return Classification{}, ErrDecodeChunk
	}

	var total, center float64
	cx0 := bounds.Min.X + bounds.Dx()/4
	cx1 := bounds.Max.X - bounds.Dx()/4
	cy0 := bounds.Min.Y + bounds.Dy()/4
	cy1 := bounds.Max.Y - bounds.Dy()/4

	// Sample on a coarse grid; per-pixel accuracy buys nothing here.
	stepX := maxInt(1, bounds.Dx()/64)
	stepY := maxInt(1, bounds.Dy()/64)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			total += luma
			if x >= cx0 && x < cx1 && y >= cy0 && y < cy1 {
				center += luma
			}
		}
	}
	if total == 0 {
		return Classification{Label: "not_visible", Confidence: 0.1}, nil
	}

	// The center quarter covers 25% of the area; a centered subject
	// concentrates noticeably more luminance mass there.
	ratio := center / total
	confidence := clamp01(ratio / 0.5)

	label := "upright"
	switch {
	case ratio < 0.2:
		label = "off_center"
	case ratio < 0.35:
		label = "leaning"
	}

	return Classification{Label: label, Confidence: confidence}, nil
}

// UnavailableClassifier reports a model that failed to load. Scoring
// degrades to the fixed unavailable result instead of erroring.
type UnavailableClassifier struct{}

// Available always reports false.
func (UnavailableClassifier) Available() bool { return false }

// Classify always returns ErrClassifierUnavailable.
func (UnavailableClassifier) Classify(context.Context, []byte) (Classification, error) {
	return Classification{}, ErrClassifierUnavailable
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
