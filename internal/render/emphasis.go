package render

import (
	"math"

	"github.com/tphakala/go-wavefield/internal/bank"
)

// Emphasis separation constants. The exponents were tuned by ear: the
// steeper curve isolates the driest onsets, the shallower one a slightly
// wider transient region.
const (
	emphasisEpsilon  = 1e-8
	dryExponent      = 8.0
	midExponent      = 2.0
	emphasisChannels = 6
)

// ReverbRatio is the frequency-dependent share of a band's sound that is
// allowed into the reverberant output pairs. Low bands carry no reverb, the
// speech range is fully reverberant with a notch near 2 kHz, and the share
// rolls off above 4 kHz.
func ReverbRatio(frequency float64) float64 {
	switch {
	case frequency < 500:
		return 0
	case frequency < 1000:
		return (frequency - 500.0) / 500.0
	case frequency < 1500:
		return 1.0
	case frequency < 2500:
		return 1.0 - 0.5*math.Abs(frequency-2000)/500
	case frequency < 4000:
		return 1.0
	case frequency < 6000:
		return 0.1 + 0.9*(6000-frequency)/2000
	case frequency < 10000:
		return 0.1 * (10000 - frequency) / 4000
	default:
		return 0
	}
}

// EmphasisRenderer splits a stereo signal into dry, mid and wet pairs by
// comparing each band's instantaneous amplitude against its slow envelope:
// amplitude above the envelope marks sound onsets (dry), amplitude well
// below it marks reverberant decay (wet). The three pairs sum back to the
// identity reconstruction exactly.
//
// Requires a bank built with envelope tracking and two input channels.
type EmphasisRenderer struct {
	Gain        float64
	reverbRatio []float64
}

// NewEmphasisRenderer precomputes per-band reverb ratios.
func NewEmphasisRenderer(numBands int, gain float64) *EmphasisRenderer {
	if gain == 0 {
		gain = 1.0
	}
	e := &EmphasisRenderer{
		Gain:        gain,
		reverbRatio: make([]float64, numBands),
	}
	for b := range e.reverbRatio {
		e.reverbRatio[b] = ReverbRatio(bank.BandCenter(float64(b) / float64(numBands-1)))
	}
	return e
}

// OutputChannels is always six: dry, mid and wet stereo pairs.
func (e *EmphasisRenderer) OutputChannels() int { return emphasisChannels }

// Accumulate splits one band of both channels into the three pairs.
// Frame layout: dryL, dryR, midL, midR, wetL, wetR.
func (e *EmphasisRenderer) Accumulate(r *bank.Rotators, band int, _ int64, frame []float64) {
	rr := e.reverbRatio[band]
	for c := 0; c < 2; c++ {
		tap := r.Tap(band, c)
		amp := math.Sqrt(sqMag(tap))
		env := r.Envelope(band, c)
		excess := env - amp
		if excess < 0 {
			excess = 0
		}
		x := -excess / (amp + env + emphasisEpsilon)

		dry := clamp01(math.Exp(dryExponent * x))
		mid := clamp01(math.Exp(midExponent * x))

		val := e.Gain * r.Sample(band, c)
		v0 := dry * val
		v1 := (mid - dry) * val
		v2 := (1.0 - mid) * val

		// Frequencies outside the reverb range return their share to the
		// dry pair; the triplet keeps summing to val.
		v0 += (1.0 - rr) * (v1 + v2)
		v1 *= rr
		v2 *= rr

		frame[c] += v0
		frame[2+c] += v1
		frame[4+c] += v2
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
