package recognizer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

func TestIdentify_NotEnrolled(t *testing.T) {
	rec := New(DefaultThreshold, DefaultMargin)
	_, err := rec.Identify(textured(1))
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)
}

func TestIdentify_ExactMatch(t *testing.T) {
	rec := New(DefaultThreshold, DefaultMargin)
	require.NoError(t, rec.Fit([]Sample{
		{Identity: "alice", Region: textured(1)},
		{Identity: "alice", Region: textured(2)},
	}))

	got, err := rec.Identify(textured(1))
	require.NoError(t, err)
	assert.True(t, got.Accepted)
	assert.Equal(t, "alice", got.Identity)
	assert.Equal(t, 0.0, got.Distance)
}

func TestIdentify_ThresholdIsStrict(t *testing.T) {
	enrolled := Descriptor(textured(1))
	probe := textured(2)
	d := ChiSquare(Descriptor(probe), enrolled)
	require.Greater(t, d, 0.0)

	// Threshold set to the exact measured distance: strictly-below means
	// the probe must be rejected, and the distance still comes back.
	rec := New(d, DefaultMargin)
	require.NoError(t, rec.FitDescriptors(map[string][][]float32{
		"alice": {enrolled},
	}))

	got, err := rec.Identify(probe)
	assert.ErrorIs(t, err, domain.ErrLowConfidence)
	assert.False(t, got.Accepted)
	assert.Equal(t, d, got.Distance)

	// Nudge the threshold just above the distance and the same probe
	// passes.
	rec = New(d+1e-6, DefaultMargin)
	require.NoError(t, rec.FitDescriptors(map[string][][]float32{
		"alice": {enrolled},
	}))
	got, err = rec.Identify(probe)
	require.NoError(t, err)
	assert.True(t, got.Accepted)
}

func TestIdentify_AmbiguousMatch(t *testing.T) {
	probe := textured(1)
	desc := Descriptor(probe)

	// Bob's descriptor differs from the probe in a single bin, putting
	// the two models within the separation margin of each other.
	near := make([]float32, len(desc))
	copy(near, desc)
	near[0]++

	rec := New(DefaultThreshold, DefaultMargin)
	require.NoError(t, rec.FitDescriptors(map[string][][]float32{
		"alice": {desc},
		"bob":   {near},
	}))

	got, err := rec.Identify(probe)
	assert.ErrorIs(t, err, domain.ErrAmbiguousMatch)
	assert.False(t, got.Accepted)
	assert.Equal(t, 0.0, got.Distance)
}

func TestIdentify_ClearSeparation(t *testing.T) {
	probe := textured(1)

	rec := New(DefaultThreshold, DefaultMargin)
	require.NoError(t, rec.Fit([]Sample{
		{Identity: "alice", Region: probe},
		{Identity: "bob", Region: textured(9)},
	}))

	got, err := rec.Identify(probe)
	require.NoError(t, err)
	assert.True(t, got.Accepted)
	assert.Equal(t, "alice", got.Identity)
}

func TestIdentify_SingleModelSkipsMarginCheck(t *testing.T) {
	// With one enrolled identity there is no runner-up to separate from.
	rec := New(DefaultThreshold, DefaultMargin)
	require.NoError(t, rec.Fit([]Sample{{Identity: "alice", Region: textured(1)}}))

	got, err := rec.Identify(textured(1))
	require.NoError(t, err)
	assert.True(t, got.Accepted)
}

func TestFit_Idempotent(t *testing.T) {
	samples := []Sample{
		{Identity: "alice", Region: textured(1)},
		{Identity: "bob", Region: textured(9)},
	}

	rec := New(DefaultThreshold, DefaultMargin)
	require.NoError(t, rec.Fit(samples))
	first, err := rec.Identify(textured(1))
	require.NoError(t, err)

	require.NoError(t, rec.Fit(samples))
	second, err := rec.Identify(textured(1))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"alice", "bob"}, rec.Enrolled())
}

func TestFit_RejectsBadInput(t *testing.T) {
	rec := New(DefaultThreshold, DefaultMargin)

	err := rec.FitDescriptors(map[string][][]float32{"": {make([]float32, DescriptorLen)}})
	assert.Error(t, err)

	err = rec.FitDescriptors(map[string][][]float32{"alice": {make([]float32, 10)}})
	assert.Error(t, err)

	// A failed fit leaves the recognizer in its previous state.
	assert.False(t, rec.Ready())
}

func TestReady(t *testing.T) {
	rec := New(DefaultThreshold, DefaultMargin)
	assert.False(t, rec.Ready())

	require.NoError(t, rec.Fit([]Sample{{Identity: "alice", Region: textured(1)}}))
	assert.True(t, rec.Ready())
}

func TestIdentify_ConcurrentWithRefit(t *testing.T) {
	rec := New(DefaultThreshold, DefaultMargin)
	require.NoError(t, rec.Fit([]Sample{{Identity: "alice", Region: textured(1)}}))

	probe := textured(1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// Every read must see a complete snapshot: either the
				// one-identity set or the two-identity set, never a
				// partial refit.
				got, err := rec.Identify(probe)
				if err != nil {
					panic(fmt.Sprintf("unexpected error: %v", err))
				}
				if got.Identity != "alice" {
					panic("matched wrong identity")
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		require.NoError(t, rec.Fit([]Sample{
			{Identity: "alice", Region: textured(1)},
			{Identity: "bob", Region: textured(9)},
		}))
	}
	wg.Wait()
}
