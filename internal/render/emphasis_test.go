package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-wavefield/internal/bank"
	"github.com/tphakala/go-wavefield/internal/testutil"
)

func TestReverbRatioCurve(t *testing.T) {
	tests := []struct {
		freq float64
		want float64
	}{
		{100, 0},
		{499, 0},
		{750, 0.5},
		{1000, 1},
		{1200, 1},
		{2000, 0.5}, // notch bottom
		{1750, 0.75},
		{2250, 0.75},
		{3000, 1},
		{4000, 1},
		{5000, 0.55},
		{6000, 0.1},
		{8000, 0.05},
		{10000, 0},
		{15000, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ReverbRatio(tt.freq), 1e-9, "frequency %g", tt.freq)
	}

	// The whole curve stays a valid share.
	for f := 20.0; f < 20000; f *= 1.05 {
		r := ReverbRatio(f)
		testutil.AssertInRange(t, r, 0, 1)
	}
}

// identityAndEmphasis renders the emphasis triplet and the plain
// reconstruction side by side from identical band state.
type identityAndEmphasis struct {
	emphasis *EmphasisRenderer
}

func (ie *identityAndEmphasis) OutputChannels() int { return emphasisChannels + 2 }

func (ie *identityAndEmphasis) Accumulate(r *bank.Rotators, band int, index int64, frame []float64) {
	ie.emphasis.Accumulate(r, band, index, frame[:emphasisChannels])
	frame[emphasisChannels] += ie.emphasis.Gain * r.Sample(band, 0)
	frame[emphasisChannels+1] += ie.emphasis.Gain * r.Sample(band, 1)
}

func TestEmphasisTripletSumsToReconstruction(t *testing.T) {
	const (
		numBands = 32
		count    = 8000
		histLen  = 1 << 13
	)
	r, err := bank.NewRotators(bank.Params{
		NumBands: numBands, Channels: 2, SampleRate: 48000, CascadeDepth: 3,
		TrackEnvelope: true,
	})
	require.NoError(t, err)

	ren := &identityAndEmphasis{emphasis: NewEmphasisRenderer(numBands, 0.5)}
	history := testutil.StereoSine(histLen, 1200, 48000, 0.8, 0.3)
	histMask := histLen - 1
	width := ren.OutputChannels()
	dst := make([]float64, count*width)
	for b := 0; b < numBands; b++ {
		r.FilterBand(b, history, histMask, 0, count, ren, dst)
	}

	testutil.AssertNoNaNOrInf(t, dst)
	for i := 0; i < count; i++ {
		frame := dst[i*width : (i+1)*width]
		for c := 0; c < 2; c++ {
			sum := frame[c] + frame[2+c] + frame[4+c]
			want := frame[emphasisChannels+c]
			if !assert.InDelta(t, want, sum, math.Abs(want)*1e-9+1e-9,
				"frame %d channel %d: dry+mid+wet must equal the reconstruction", i, c) {
				return
			}
		}
	}
}

func TestEmphasisSplitsAreFinite(t *testing.T) {
	const numBands = 16
	e := NewEmphasisRenderer(numBands, 1)
	assert.Equal(t, emphasisChannels, e.OutputChannels())

	r, err := bank.NewRotators(bank.Params{
		NumBands: numBands, Channels: 2, SampleRate: 48000, CascadeDepth: 3,
		TrackEnvelope: true,
	})
	require.NoError(t, err)

	// Silence must not produce NaN from the ratio regularization.
	frame := make([]float64, emphasisChannels)
	for b := 0; b < numBands; b++ {
		e.Accumulate(r, b, 0, frame)
	}
	testutil.AssertNoNaNOrInf(t, frame)
	for _, v := range frame {
		assert.Zero(t, v, "silence renders silence")
	}
}
