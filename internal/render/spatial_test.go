package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-wavefield/internal/bank"
	"github.com/tphakala/go-wavefield/internal/testutil"
)

func validSpatialConfig() SpatialConfig {
	return SpatialConfig{
		OutputChannels:          12,
		DistanceToIntervalRatio: 4,
		SpeakerSeparation:       0.1,
		StageWidth:              1.3,
	}
}

func TestSpatialConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SpatialConfig)
	}{
		{"too few channels", func(c *SpatialConfig) { c.OutputChannels = 1 }},
		{"below side bleed width", func(c *SpatialConfig) { c.OutputChannels = minArrayChannels - 1 }},
		{"zero ratio", func(c *SpatialConfig) { c.DistanceToIntervalRatio = 0 }},
		{"negative separation", func(c *SpatialConfig) { c.SpeakerSeparation = -0.1 }},
		{"zero stage", func(c *SpatialConfig) { c.StageWidth = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSpatialConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidGeometry)
		})
	}

	cfg := validSpatialConfig()
	assert.NoError(t, cfg.Validate())

	cfg.OutputChannels = minArrayChannels
	assert.NoError(t, cfg.Validate(), "the minimum width is accepted")
}

func TestMinimumWidthArrayRenders(t *testing.T) {
	const (
		numBands = 32
		count    = 6000
		histLen  = 1 << 13
	)
	cfg := validSpatialConfig()
	cfg.OutputChannels = minArrayChannels
	s, err := NewSpatialRenderer(cfg, numBands)
	require.NoError(t, err)

	// The side bleed indexes four speakers from each edge; the narrowest
	// accepted array must render panned bands without reaching past the
	// frame.
	history := testutil.StereoSine(histLen, 2000, 48000, 1.0, 0.05)
	frames := renderScene(t, s, numBands, history, count)
	testutil.AssertNoNaNOrInf(t, frames)
	assert.Greater(t, testutil.TotalEnergy(frames), 0.0)
}

func TestSpatialRendererChannels(t *testing.T) {
	cfg := validSpatialConfig()
	s, err := NewSpatialRenderer(cfg, 128)
	require.NoError(t, err)
	assert.Equal(t, 12, s.OutputChannels())
	assert.InDelta(t, 5.5, s.Midpoint(), 1e-12)
	assert.Equal(t, 25, s.BassBands())

	cfg.ReverbChannels = true
	s, err = NewSpatialRenderer(cfg, 128)
	require.NoError(t, err)
	assert.Equal(t, 14, s.OutputChannels(), "reverb appends one pair")
}

func TestBassCrossoverScalesWithResolution(t *testing.T) {
	cfg := validSpatialConfig()
	s, err := NewSpatialRenderer(cfg, 256)
	require.NoError(t, err)
	assert.Equal(t, 50, s.BassBands())

	cfg.BassBands = 7
	s, err = NewSpatialRenderer(cfg, 256)
	require.NoError(t, err)
	assert.Equal(t, 7, s.BassBands(), "explicit crossover wins")
}

// renderScene drives every band of a stereo bank over a synthetic history
// and returns the accumulated output frames.
func renderScene(t *testing.T, s *SpatialRenderer, numBands int, history []float64, count int) []float64 {
	t.Helper()
	r, err := bank.NewRotators(bank.Params{
		NumBands: numBands, Channels: 2, SampleRate: 48000, CascadeDepth: 8,
	})
	require.NoError(t, err)

	histMask := len(history)/2 - 1
	width := s.OutputChannels()
	dst := make([]float64, count*width)
	for b := 0; b < numBands; b++ {
		r.FilterBand(b, history, histMask, 0, count, s, dst)
	}
	return dst
}

func channelEnergies(frames []float64, width int) []float64 {
	energies := make([]float64, width)
	for i := 0; i < len(frames); i += width {
		for c := 0; c < width; c++ {
			energies[c] += frames[i+c] * frames[i+c]
		}
	}
	return energies
}

func TestLeftHeavySourceRendersLeft(t *testing.T) {
	const (
		numBands = 32
		count    = 6000
		histLen  = 1 << 13
	)
	s, err := NewSpatialRenderer(validSpatialConfig(), numBands)
	require.NoError(t, err)

	// 2 kHz tone, far above the bass crossover, much louder on the left.
	history := testutil.StereoSine(histLen, 2000, 48000, 1.0, 0.05)
	frames := renderScene(t, s, numBands, history, count)
	testutil.AssertNoNaNOrInf(t, frames)

	energies := channelEnergies(frames, s.OutputChannels())
	var leftHalf, rightHalf float64
	for c := 0; c < 6; c++ {
		leftHalf += energies[c]
		rightHalf += energies[6+c]
	}
	assert.Greater(t, leftHalf, rightHalf, "left-heavy input must favor the left half of the array")
}

func TestBalancedSourceRendersCentered(t *testing.T) {
	const (
		numBands = 32
		count    = 6000
		histLen  = 1 << 13
	)
	s, err := NewSpatialRenderer(validSpatialConfig(), numBands)
	require.NoError(t, err)

	history := testutil.StereoSine(histLen, 2000, 48000, 0.7, 0.7)
	frames := renderScene(t, s, numBands, history, count)

	energies := channelEnergies(frames, s.OutputChannels())
	peak := 0
	for c := 1; c < len(energies); c++ {
		if energies[c] > energies[peak] {
			peak = c
		}
	}
	assert.GreaterOrEqual(t, peak, 4, "balanced input must peak near the center")
	assert.LessOrEqual(t, peak, 7, "balanced input must peak near the center")
}

func TestTripletDecompositionIsLossless(t *testing.T) {
	const numBands = 32
	s, err := NewSpatialRenderer(validSpatialConfig(), numBands)
	require.NoError(t, err)

	r, err := bank.NewRotators(bank.Params{
		NumBands: numBands, Channels: 2, SampleRate: 48000, CascadeDepth: 8,
	})
	require.NoError(t, err)

	// Drive the bank with correlated stereo so the out-of-phase path stays
	// quiet, then check the residual/center split reassembles the summed
	// reconstruction of both channels.
	histLen := 1 << 13
	history := testutil.StereoSine(histLen, 1500, 48000, 0.9, 0.4)
	histMask := histLen - 1
	nop := &discardRenderer{}
	dst := make([]float64, 6000)
	for b := 0; b < numBands; b++ {
		r.FilterBand(b, history, histMask, 0, 6000, nop, dst)
	}

	for _, band := range []int{8, 16, 28} {
		wantL := r.Sample(band, 0)
		wantR := r.Sample(band, 1)
		left, center, right, oopL, oopR := s.triplet(r, band, r.Window(band))

		// In-phase input keeps the out-of-phase level at zero, making the
		// decomposition exact: residuals + center = summed reconstruction.
		assert.InDelta(t, 0.0, oopL, 1e-12, "band %d oop left", band)
		assert.InDelta(t, 0.0, oopR, 1e-12, "band %d oop right", band)
		want := wantL + wantR
		assert.InDelta(t, want, left+center+right, math.Abs(want)*1e-9+1e-12, "band %d", band)
	}
}

// discardRenderer advances bank state without keeping output.
type discardRenderer struct{}

func (*discardRenderer) OutputChannels() int { return 1 }

func (*discardRenderer) Accumulate(*bank.Rotators, int, int64, []float64) {}
