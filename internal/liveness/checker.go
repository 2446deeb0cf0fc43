// Package liveness provides a coarse real-vs-fake judgment on a face
// region. The primary signal is texture sharpness; printed photos and
// screen replays show less high-frequency variance than live skin
// under the same capture conditions. This is advisory only and is not
// a security boundary.
package liveness

import (
	"context"
	"image"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

const (
	// DefaultVarianceThreshold is the calibrated cutoff for the
	// sharpness signal. Live faces typically measure above 100.
	DefaultVarianceThreshold = 100.0

	SignalSharpness   = "sharpness"
	SignalBlink       = "blink"
	SignalBlinkAbsent = "blink_absent"

	// blinkAbsentPenalty scales the score down when the optional blink
	// capability saw no blink across the frame window.
	blinkAbsentPenalty = 0.5
)

// EyeLandmarker is the optional eye-landmark capability used for the
// secondary blink signal. Implementations report whether the eyes are
// open in a single frame.
type EyeLandmarker interface {
	EyesOpen(ctx context.Context, frame []byte) (open bool, confidence float64, err error)
}

// Checker assesses liveness of face regions.
type Checker struct {
	threshold float64
	eyes      EyeLandmarker
}

// Option configures a Checker.
type Option func(*Checker)

// WithEyeLandmarker enables the secondary blink signal.
func WithEyeLandmarker(eyes EyeLandmarker) Option {
	return func(c *Checker) {
		c.eyes = eyes
	}
}

// NewChecker creates a checker with the given variance threshold.
// Values <= 0 fall back to the default.
func NewChecker(threshold float64, opts ...Option) *Checker {
	if threshold <= 0 {
		threshold = DefaultVarianceThreshold
	}
	c := &Checker{threshold: threshold}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Assess runs the primary sharpness signal on a single region.
func (c *Checker) Assess(region *image.Gray) domain.LivenessVerdict {
	variance := laplacianVariance(region)
	return domain.LivenessVerdict{
		IsLive:  variance > c.threshold,
		Score:   variance,
		Signals: []string{SignalSharpness},
	}
}

// AssessSequence runs the primary signal on the region and, when the
// eye-landmark capability is available and more than one raw frame was
// supplied, adds the blink signal: the absence of any blink within the
// window lowers confidence but never flips a live verdict on its own.
// Capability errors degrade gracefully to the primary signal alone.
func (c *Checker) AssessSequence(ctx context.Context, region *image.Gray, frames [][]byte) domain.LivenessVerdict {
	verdict := c.Assess(region)
	if c.eyes == nil || len(frames) < 2 {
		return verdict
	}

	states := make([]bool, 0, len(frames))
	for _, frame := range frames {
		open, _, err := c.eyes.EyesOpen(ctx, frame)
		if err != nil {
			// Degrade to the primary signal.
			return verdict
		}
		states = append(states, open)
	}

	if sawBlink(states) {
		verdict.Signals = append(verdict.Signals, SignalBlink)
		return verdict
	}

	verdict.Score *= blinkAbsentPenalty
	verdict.Signals = append(verdict.Signals, SignalBlinkAbsent)
	return verdict
}

// sawBlink reports whether the eye states contain an open-closed-open
// transition.
func sawBlink(states []bool) bool {
	openSeen := false
	closedAfterOpen := false
	for _, open := range states {
		switch {
		case open && closedAfterOpen:
			return true
		case open:
			openSeen = true
		case openSeen:
			closedAfterOpen = true
		}
	}
	return false
}

// laplacianVariance measures high-frequency content: the variance of a
// 3x3 second-derivative filter over the interior pixels.
func laplacianVariance(img *image.Gray) float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w < 3 || h < 3 {
		return 0
	}

	n := (w - 2) * (h - 2)
	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := int(img.GrayAt(x, y).Y)
			r := float64(int(img.GrayAt(x, y-1).Y) +
				int(img.GrayAt(x-1, y).Y) +
				int(img.GrayAt(x+1, y).Y) +
				int(img.GrayAt(x, y+1).Y) - 4*center)
			responses = append(responses, r)
			sum += r
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}
	return variance / float64(n)
}
