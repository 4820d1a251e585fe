package bank

import (
	"math"
	"math/cmplx"
)

// Renderer turns the state of one band, after each sample increment, into a
// contribution to one output frame. Implementations may keep per-band state
// (smoothed pan positions, envelopes); a band is only ever visited by one
// goroutine at a time, and samples within a band arrive strictly in order.
type Renderer interface {
	// OutputChannels reports the width of the frames passed to Accumulate.
	OutputChannels() int

	// Accumulate adds the band's contribution for the sample at absolute
	// input index into frame, which holds OutputChannels values.
	Accumulate(r *Rotators, band int, index int64, frame []float64)
}

// FilterBand runs one band over count input samples taken from the circular
// history, rendering each sample into dst. history is interleaved frames
// masked by historyMask; start is the absolute index of the first sample of
// the block. dst must hold count*ren.OutputChannels() values and is
// accumulated into, not overwritten.
//
// Each band reads its input Advance(band) samples behind the block cursor so
// that all bands describe the same input instant once the delay horizon has
// passed.
func (r *Rotators) FilterBand(band int, history []float64, historyMask int, start int64, count int, ren Renderer, dst []float64) {
	width := ren.OutputChannels()
	samples := make([]float64, r.channels)
	advance := int64(r.advance[band])
	for i := 0; i < count; i++ {
		delayedIx := start + int64(i) - advance
		frameIx := int(delayedIx&int64(historyMask)) * r.channels
		for c := 0; c < r.channels; c++ {
			samples[c] = history[frameIx+c]
		}
		r.increment(band, samples)
		ren.Accumulate(r, band, start+int64(i), dst[i*width:(i+1)*width])
	}
}

// IdentityRenderer sums reconstructed band signals back into one output
// channel per input channel. Summing all bands approximates the input,
// delayed by the bank's delay horizon.
type IdentityRenderer struct {
	Channels int
	Gain     float64
}

func (ir *IdentityRenderer) OutputChannels() int { return ir.Channels }

func (ir *IdentityRenderer) Accumulate(r *Rotators, band int, _ int64, frame []float64) {
	for c := 0; c < ir.Channels; c++ {
		frame[c] += ir.Gain * r.Sample(band, c)
	}
}

// AmplitudeRenderer reports per-band accumulator magnitudes. The output
// frame is a bands-by-channels matrix laid out band-major; there is no
// reconstruction guarantee in this mode.
type AmplitudeRenderer struct {
	Bands    int
	Channels int
	Gain     float64
}

func (ar *AmplitudeRenderer) OutputChannels() int { return ar.Bands * ar.Channels }

func (ar *AmplitudeRenderer) Accumulate(r *Rotators, band int, _ int64, frame []float64) {
	for c := 0; c < ar.Channels; c++ {
		frame[band*ar.Channels+c] = ar.Gain * magnitudeOf(r.Tap(band, c))
	}
}

// PhaseRenderer reports the per-band accumulator phase in radians, in the
// same band-major layout as AmplitudeRenderer.
type PhaseRenderer struct {
	Bands    int
	Channels int
}

func (pr *PhaseRenderer) OutputChannels() int { return pr.Bands * pr.Channels }

func (pr *PhaseRenderer) Accumulate(r *Rotators, band int, _ int64, frame []float64) {
	for c := 0; c < pr.Channels; c++ {
		frame[band*pr.Channels+c] = phaseOf(r.Tap(band, c))
	}
}

func phaseOf(z complex128) float64 {
	if z == 0 {
		return 0
	}
	return cmplx.Phase(z)
}

// magnitudeOf avoids the cmplx.Abs overflow dance; accumulators are always
// well within float64 range.
func magnitudeOf(z complex128) float64 {
	return math.Sqrt(real(z)*real(z) + imag(z)*imag(z))
}
