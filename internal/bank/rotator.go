// Package bank implements the Bark-scale rotator filter bank: one complex
// oscillator per band driving a cascade of leaky integrators, with per-band
// delay equalization and periodic gain renormalization.
//
// Each band demodulates the input against a rotating unit phasor, smooths the
// baseband projection through the cascade, and projects the smoothed value
// back onto the carrier to produce a band-passed time-domain signal. Deeper
// cascades give a steeper roll-off at the cost of group delay, which is
// compensated by reading each band's input further ahead in the history
// buffer so that all bands emit energy for the same input instant together.
package bank

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// Cascade depth limits. Three stages reproduce the classic median-3x-leaker
// bank; eight stages match the spatial rendering bank.
const (
	MinCascadeDepth = 3
	MaxCascadeDepth = 8
)

// Decay and delay calibration constants. The delay magics are empirical fits
// for the median delay of the leaky-integrator cascade and are preserved
// as-is; they are calibration data, not derived quantities.
const (
	// baseDecay is the per-sample decay of a 40 Hz band; higher bands decay
	// faster in proportion to their center frequency.
	baseDecay = 0.9996

	// decayRefHz is the reference frequency for baseDecay.
	decayRefHz = 40.0

	// medianLeaker3Magic approximates the median delay of the 3-stage
	// cascade as -2.32 / ln(decay).
	medianLeaker3Magic = -2.32

	// medianLeakerDeepMagic approximates the median delay of deeper
	// cascades as 5.46 / (1 - decay).
	medianLeakerDeepMagic = 5.46

	// envBaseDecay and envRefHz parametrize the slow amplitude envelope
	// used by the reverb/dry separation back end.
	envBaseDecay = 0.99995
	envRefHz     = 2000.0
)

// ErrInvalidBank indicates invalid filter bank construction parameters.
var ErrInvalidBank = errors.New("invalid filter bank parameters")

// Params configures a Rotators bank.
type Params struct {
	NumBands     int
	Channels     int
	SampleRate   float64
	CascadeDepth int

	// Gains is an optional per-band calibration vector (unity when nil).
	// The oscillator gain vector is kept at length sqrt(Gains[i]) so that
	// applying it on both input and output yields a total gain of Gains[i].
	Gains []float64

	// TrackEnvelope maintains a slow per-band amplitude envelope alongside
	// the cascade. Needed only by the reverb/dry separation renderer.
	TrackEnvelope bool
}

// perChannel holds the cascade accumulators for one input channel.
// accu[s][b] is cascade stage s of band b.
type perChannel struct {
	accu [][]complex128
	env  []float64
}

// Rotators is the per-band oscillator and cascade state for all bands and
// input channels. The oscillator phase and gain vector are shared between
// channels; only the accumulators are per channel.
type Rotators struct {
	numBands int
	channels int
	depth    int

	oscIncrement []complex128 // fixed unit-modulus phase increment
	gainVec      []complex128 // free-running, length sqrt(gain)
	gainTarget   []float64    // renormalization target: sqrt(gain)

	window   []float64 // per-sample cascade decay
	windowM1 []float64 // 1 - window

	envWindow   []float64
	envWindowM1 []float64

	delay    []int
	advance  []int
	maxDelay int

	state []perChannel
}

// NewRotators builds the band table and all rotator state.
func NewRotators(p Params) (*Rotators, error) {
	if p.NumBands < 2 {
		return nil, fmt.Errorf("%w: need at least 2 bands, got %d", ErrInvalidBank, p.NumBands)
	}
	if p.Channels < 1 {
		return nil, fmt.Errorf("%w: need at least 1 channel, got %d", ErrInvalidBank, p.Channels)
	}
	if p.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %g", ErrInvalidBank, p.SampleRate)
	}
	if p.CascadeDepth < MinCascadeDepth || p.CascadeDepth > MaxCascadeDepth {
		return nil, fmt.Errorf("%w: cascade depth must be %d-%d, got %d",
			ErrInvalidBank, MinCascadeDepth, MaxCascadeDepth, p.CascadeDepth)
	}
	if p.Gains != nil && len(p.Gains) != p.NumBands {
		return nil, fmt.Errorf("%w: gain table has %d entries, want %d",
			ErrInvalidBank, len(p.Gains), p.NumBands)
	}

	n := p.NumBands
	r := &Rotators{
		numBands:     n,
		channels:     p.Channels,
		depth:        p.CascadeDepth,
		oscIncrement: make([]complex128, n),
		gainVec:      make([]complex128, n),
		gainTarget:   make([]float64, n),
		window:       make([]float64, n),
		windowM1:     make([]float64, n),
		delay:        make([]int, n),
		advance:      make([]int, n),
	}
	if p.TrackEnvelope {
		r.envWindow = make([]float64, n)
		r.envWindowM1 = make([]float64, n)
	}

	hzToRad := 2.0 * math.Pi / p.SampleRate
	for i := 0; i < n; i++ {
		f := BandCenter(float64(i) / float64(n-1))
		if f <= 0 {
			return nil, fmt.Errorf("%w: band %d has non-positive frequency %g", ErrInvalidBank, i, f)
		}
		w := math.Pow(baseDecay, math.Max(1.0, f/decayRefHz))
		r.window[i] = w
		r.windowM1[i] = 1.0 - w
		r.delay[i] = MedianLeakerDelay(w, p.CascadeDepth)

		gain := 1.0
		if p.Gains != nil {
			gain = p.Gains[i]
		}
		if gain <= 0 {
			return nil, fmt.Errorf("%w: band %d has non-positive gain %g", ErrInvalidBank, i, gain)
		}
		r.gainTarget[i] = math.Sqrt(gain)
		r.gainVec[i] = complex(r.gainTarget[i], 0)

		theta := f * hzToRad
		r.oscIncrement[i] = complex(math.Cos(theta), -math.Sin(theta))

		if p.TrackEnvelope {
			wd := math.Pow(envBaseDecay, math.Max(1.0, f/envRefHz))
			r.envWindow[i] = wd
			r.envWindowM1[i] = 1.0 - wd
		}

		if r.delay[i] > r.maxDelay {
			r.maxDelay = r.delay[i]
		}
	}
	for i := 0; i < n; i++ {
		r.advance[i] = r.maxDelay - r.delay[i]
	}

	r.state = make([]perChannel, p.Channels)
	for c := range r.state {
		accu := make([][]complex128, p.CascadeDepth)
		for s := range accu {
			accu[s] = make([]complex128, n)
		}
		r.state[c] = perChannel{accu: accu}
		if p.TrackEnvelope {
			r.state[c].env = make([]float64, n)
		}
	}
	return r, nil
}

// MedianLeakerDelay approximates the median group delay, in samples, of a
// depth-stage leaky-integrator cascade with per-sample decay w.
func MedianLeakerDelay(w float64, depth int) int {
	if depth == MinCascadeDepth {
		return int(medianLeaker3Magic / math.Log(w))
	}
	return int(medianLeakerDeepMagic / (1.0 - w))
}

// NumBands returns the number of bands in the bank.
func (r *Rotators) NumBands() int { return r.numBands }

// Channels returns the number of input channels.
func (r *Rotators) Channels() int { return r.channels }

// MaxDelay returns the delay-equalization horizon in samples: all bands emit
// output for input time T once T >= MaxDelay.
func (r *Rotators) MaxDelay() int { return r.maxDelay }

// Delay returns the group delay of one band in samples.
func (r *Rotators) Delay(band int) int { return r.delay[band] }

// Advance returns how many samples ahead of the delay horizon the band reads
// its input: MaxDelay - Delay(band).
func (r *Rotators) Advance(band int) int { return r.advance[band] }

// Window returns the band's per-sample decay factor.
func (r *Rotators) Window(band int) float64 { return r.window[band] }

// CenterFrequency returns a band's center frequency in Hz.
func (r *Rotators) CenterFrequency(band int) float64 {
	return BandCenter(float64(band) / float64(r.numBands-1))
}

// increment advances one band by one input sample on all channels.
// samples holds one input value per channel.
func (r *Rotators) increment(band int, samples []float64) {
	g := r.gainVec[band] * r.oscIncrement[band]
	r.gainVec[band] = g
	w := complex(r.window[band], 0)
	wm1 := r.windowM1[band]
	last := r.depth - 1
	for c := range r.state {
		accu := r.state[c].accu
		accu[0][band] = w*accu[0][band] + complex(wm1*samples[c], 0)*g
		for s := 1; s < r.depth; s++ {
			accu[s][band] = w*accu[s][band] + complex(wm1, 0)*accu[s-1][band]
		}
		if r.envWindow != nil {
			env := &r.state[c].env[band]
			*env = r.envWindow[band]**env + r.envWindowM1[band]*cmplx.Abs(accu[last][band])
		}
	}
}

// OccasionallyRenormalize rescales every gain vector back to its target
// magnitude. The magnitude is analytically constant but drifts under
// floating-point accumulation over millions of samples; this must be called
// between blocks, never per sample.
func (r *Rotators) OccasionallyRenormalize() {
	for i := 0; i < r.numBands; i++ {
		norm := r.gainTarget[i] / cmplx.Abs(r.gainVec[i])
		r.gainVec[i] *= complex(norm, 0)
	}
}

// GainMagnitude reports the current gain vector magnitude of one band.
func (r *Rotators) GainMagnitude(band int) float64 {
	return cmplx.Abs(r.gainVec[band])
}

// Sample reconstructs the band-passed time-domain sample for one channel:
// the projection of the last cascade stage onto the current carrier phase.
func (r *Rotators) Sample(band, channel int) float64 {
	g := r.gainVec[band]
	a := r.state[channel].accu[r.depth-1][band]
	return real(g)*real(a) + imag(g)*imag(a)
}

// Tap returns the last cascade stage accumulator (the fully smoothed
// baseband projection) for one channel.
func (r *Rotators) Tap(band, channel int) complex128 {
	return r.state[channel].accu[r.depth-1][band]
}

// EnergyTap returns the mid-cascade accumulator used for direction and
// phase-relation estimates. It is less smoothed than the output tap and
// tracks onsets earlier.
func (r *Rotators) EnergyTap(band, channel int) complex128 {
	return r.state[channel].accu[r.depth/2][band]
}

// BandEnergy returns the squared magnitude of the mid-cascade accumulator.
func (r *Rotators) BandEnergy(band, channel int) float64 {
	a := r.EnergyTap(band, channel)
	return real(a)*real(a) + imag(a)*imag(a)
}

// GainVec returns the current rotating gain vector of one band.
func (r *Rotators) GainVec(band int) complex128 { return r.gainVec[band] }

// Envelope returns the slow amplitude envelope of one band and channel.
// Zero unless the bank was built with TrackEnvelope.
func (r *Rotators) Envelope(band, channel int) float64 {
	if r.state[channel].env == nil {
		return 0
	}
	return r.state[channel].env[band]
}
