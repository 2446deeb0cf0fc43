// Package recognizer matches normalized face regions against enrolled
// identity models using local-binary-pattern histograms and a
// chi-square distance, the same scheme the deployment was calibrated
// on: distances are ~0 for identical regions and accept below a
// threshold around 70.
package recognizer

import (
	"fmt"
	"image"
	"sort"
	"sync/atomic"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

const (
	DefaultThreshold = 70.0
	DefaultMargin    = 5.0
)

// IdentityModel is the matching structure for one enrolled user: the
// descriptors of their enrollment samples. Matching takes the minimum
// distance over the samples.
type IdentityModel struct {
	Identity    string
	Descriptors [][]float32
}

// modelSet is an immutable snapshot of every enrolled model. Refits
// build a fresh snapshot and swap it atomically, so concurrent readers
// never observe a partially updated model.
type modelSet struct {
	version uint64
	models  []*IdentityModel
}

// Recognizer identifies faces against the current model snapshot.
// Safe for concurrent use; Identify is lock-free.
type Recognizer struct {
	threshold float64
	margin    float64
	snapshot  atomic.Pointer[modelSet]
	version   atomic.Uint64
}

// New creates a recognizer. Non-positive threshold or margin fall back
// to the calibrated defaults.
func New(threshold, margin float64) *Recognizer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if margin <= 0 {
		margin = DefaultMargin
	}
	return &Recognizer{threshold: threshold, margin: margin}
}

// Sample is one labeled normalized region used for model fitting.
type Sample struct {
	Identity string
	Region   *image.Gray
}

// Fit rebuilds every identity model from labeled samples and swaps the
// snapshot in. Batch operation, triggered after enrollment changes.
// Idempotent: refitting with the same sample set yields an equivalent
// model.
func (r *Recognizer) Fit(samples []Sample) error {
	byIdentity := make(map[string][][]float32)
	for _, s := range samples {
		byIdentity[s.Identity] = append(byIdentity[s.Identity], Descriptor(s.Region))
	}
	return r.FitDescriptors(byIdentity)
}

// FitDescriptors rebuilds the models from precomputed descriptors,
// e.g. loaded back from the persistence gateway at startup.
func (r *Recognizer) FitDescriptors(byIdentity map[string][][]float32) error {
	models := make([]*IdentityModel, 0, len(byIdentity))
	for identity, descs := range byIdentity {
		if identity == "" {
			return fmt.Errorf("fit: sample with empty identity label")
		}
		for _, d := range descs {
			if len(d) != DescriptorLen {
				return fmt.Errorf("fit %s: descriptor length %d, want %d", identity, len(d), DescriptorLen)
			}
		}
		models = append(models, &IdentityModel{Identity: identity, Descriptors: descs})
	}
	// Deterministic ordering keeps refits with equal input equivalent.
	sort.Slice(models, func(i, j int) bool { return models[i].Identity < models[j].Identity })

	r.snapshot.Store(&modelSet{
		version: r.version.Add(1),
		models:  models,
	})
	return nil
}

// Ready reports whether at least one identity is enrolled.
func (r *Recognizer) Ready() bool {
	set := r.snapshot.Load()
	return set != nil && len(set.models) > 0
}

// Enrolled returns the identities in the current snapshot.
func (r *Recognizer) Enrolled() []string {
	set := r.snapshot.Load()
	if set == nil {
		return nil
	}
	names := make([]string, len(set.models))
	for i, m := range set.models {
		names[i] = m.Identity
	}
	return names
}

// Identify matches a normalized region against the enrolled models.
//
// Accepts iff the best distance is strictly below the confidence
// threshold AND the gap to the second-best identity exceeds the
// separation margin; a near-tie between two users is reported as
// AmbiguousMatch rather than silently crowning the closer one. On
// rejection the best distance is still returned for diagnostics.
func (r *Recognizer) Identify(region *image.Gray) (domain.RecognitionResult, error) {
	set := r.snapshot.Load()
	if set == nil || len(set.models) == 0 {
		return domain.RecognitionResult{}, domain.ErrNotEnrolled
	}

	probe := Descriptor(region)

	best, second := maxDistance, maxDistance
	bestIdentity := ""
	for _, m := range set.models {
		d := m.distance(probe)
		switch {
		case d < best:
			second = best
			best = d
			bestIdentity = m.Identity
		case d < second:
			second = d
		}
	}

	if !(best < r.threshold) {
		return domain.RecognitionResult{Distance: best},
			domain.ErrLowConfidence.WithError(fmt.Errorf("best distance %.2f, threshold %.2f", best, r.threshold))
	}
	if len(set.models) > 1 && second-best <= r.margin {
		return domain.RecognitionResult{Distance: best},
			domain.ErrAmbiguousMatch.WithError(fmt.Errorf("gap %.2f <= margin %.2f", second-best, r.margin))
	}

	return domain.RecognitionResult{
		Identity: bestIdentity,
		Distance: best,
		Accepted: true,
	}, nil
}

// distance is the model's match distance: minimum chi-square over its
// sample descriptors.
func (m *IdentityModel) distance(probe []float32) float64 {
	best := maxDistance
	for _, d := range m.Descriptors {
		if dist := ChiSquare(probe, d); dist < best {
			best = dist
		}
	}
	return best
}
