package render

import (
	"errors"
	"fmt"

	"github.com/tphakala/simd/f64"

	"github.com/tphakala/go-wavefield/internal/bank"
)

// ErrInvalidGeometry indicates invalid speaker array geometry.
var ErrInvalidGeometry = errors.New("invalid speaker array geometry")

// Spatial render tuning constants.
const (
	// residualEpsilon keeps the energy-proportional blend finite on silence.
	residualEpsilon = 1e-20

	// Out-of-phase handling, as band indices of a 128-band bank: detection
	// starts at oopStartBand, the redirection amount ramps from
	// oopRampBand over oopRampWidth bands.
	oopStartBand = 30
	oopRampBand  = 44
	oopRampWidth = 24

	// bassBandsRef is the default crossover below which bands are spread
	// near-uniformly instead of angularly weighted, per 128 bands.
	bassBandsRef = 25

	// bassEdgeShare is the share of a bass residual sent to each of the two
	// speakers on its own edge.
	bassEdgeShare = 0.5

	// reverbOutOfPhaseShare sets how much out-of-phase signal feeds the
	// dedicated reverb channel pair; the residual share is whatever the
	// side bleed left over.
	reverbOutOfPhaseShare = 0.5
)

// sideBleed is the fixed fraction of the left/right residuals bled into the
// four speakers nearest each edge to preserve stereo width cues.
var sideBleed = [4]float64{0.06, 0.06, 0.05, 0.03}

// minArrayChannels is the narrowest supported array. The side bleed feeds
// len(sideBleed) speakers on each edge and the two edges must stay disjoint.
const minArrayChannels = 2 * len(sideBleed)

// SpatialConfig describes the output array and render options.
type SpatialConfig struct {
	// OutputChannels is the number of speakers in the line array.
	OutputChannels int

	// DistanceToIntervalRatio is (distance between microphone pair and
	// source array) / (distance between adjacent sources).
	DistanceToIntervalRatio float64

	// SpeakerSeparation is the physical interval between speakers in
	// meters.
	SpeakerSeparation float64

	// StageWidth is the assumed width of the rendered acoustic stage in
	// meters; the listener is assumed at twice this distance.
	StageWidth float64

	// BassBands is the number of lowest bands spread uniformly across the
	// array. Zero selects the default crossover.
	BassBands int

	// ReverbChannels appends a dedicated channel pair receiving residual
	// and out-of-phase content.
	ReverbChannels bool

	// Gain scales all rendered output.
	Gain float64

	// Binaural, when non-nil, additionally renders a headphone pair
	// through delay lines. Binaural rendering requires serial band
	// evaluation.
	Binaural *BinauralModel
}

// Validate checks the geometry.
func (c *SpatialConfig) Validate() error {
	if c.OutputChannels < minArrayChannels {
		return fmt.Errorf("%w: need at least %d output channels, got %d", ErrInvalidGeometry, minArrayChannels, c.OutputChannels)
	}
	if c.DistanceToIntervalRatio <= 0 {
		return fmt.Errorf("%w: distance-to-interval ratio must be positive, got %g", ErrInvalidGeometry, c.DistanceToIntervalRatio)
	}
	if c.SpeakerSeparation <= 0 {
		return fmt.Errorf("%w: speaker separation must be positive, got %g", ErrInvalidGeometry, c.SpeakerSeparation)
	}
	if c.StageWidth <= 0 {
		return fmt.Errorf("%w: stage width must be positive, got %g", ErrInvalidGeometry, c.StageWidth)
	}
	return nil
}

// SpatialRenderer pans each band across the line array from its left/right
// energy balance. Per-band state is limited to smoothed pan positions and
// out-of-phase levels; the render itself is a pure function of the current
// accumulators, the lookup table and static geometry.
type SpatialRenderer struct {
	cfg      SpatialConfig
	numBands int
	table    *RatioTable

	bassBands int
	oopStart  int
	oopRamp   int
	midpoint  float64

	pos     [][3]float64 // triple-smoothed subspeaker index per band
	oop     [][3]float64 // triple-smoothed out-of-phase level per band
	weights [][]float64  // per-band scratch, avoids allocation in the hot path
}

// NewSpatialRenderer builds the ratio table and per-band smoothing state.
// The bank must have exactly two input channels.
func NewSpatialRenderer(cfg SpatialConfig, numBands int) (*SpatialRenderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Gain == 0 {
		cfg.Gain = 1.0
	}
	s := &SpatialRenderer{
		cfg:      cfg,
		numBands: numBands,
		table:    NewRatioTable(cfg.OutputChannels, cfg.DistanceToIntervalRatio),
		oopStart: oopStartBand * numBands / angleBandsRef,
		oopRamp:  oopRampBand * numBands / angleBandsRef,
		midpoint: 0.5 * float64(cfg.OutputChannels-1),
		pos:      make([][3]float64, numBands),
		oop:      make([][3]float64, numBands),
		weights:  make([][]float64, numBands),
	}
	s.bassBands = cfg.BassBands
	if s.bassBands == 0 {
		s.bassBands = bassBandsRef * numBands / angleBandsRef
	}
	for b := range s.pos {
		// Start every band at the center of the array.
		s.pos[b] = [3]float64{s.midpoint, s.midpoint, s.midpoint}
		s.weights[b] = make([]float64, cfg.OutputChannels)
	}
	return s, nil
}

// OutputChannels reports the array width plus the reverb pair if enabled.
func (s *SpatialRenderer) OutputChannels() int {
	if s.cfg.ReverbChannels {
		return s.cfg.OutputChannels + 2
	}
	return s.cfg.OutputChannels
}

// Accumulate renders one band's current state into an output frame.
func (s *SpatialRenderer) Accumulate(r *bank.Rotators, band int, index int64, frame []float64) {
	w := r.Window(band)

	// Energy-balance panning, triple-smoothed per band.
	ratio := ActualRatio(r.BandEnergy(band, 0), r.BandEnergy(band, 1))
	p := &s.pos[band]
	p[0] = (1-w)*p[0] + w*s.table.Find(ratio)
	p[1] = (1-w)*p[1] + w*p[0]
	p[2] = (1-w)*p[2] + w*p[1]
	sub := p[2]

	left, center, right, oopLeft, oopRight := s.triplet(r, band, w)
	left *= s.cfg.Gain
	center *= s.cfg.Gain
	right *= s.cfg.Gain
	oopLeft *= s.cfg.Gain
	oopRight *= s.cfg.Gain

	nc := s.cfg.OutputChannels
	if band < s.bassBands {
		// Bass does not localize; spread the common component uniformly
		// and park the residuals on the edges.
		frame[0] += bassEdgeShare * left
		frame[1] += bassEdgeShare * left
		frame[nc-2] += bassEdgeShare * right
		frame[nc-1] += bassEdgeShare * right
		v := center / float64(nc)
		for k := 0; k < nc; k++ {
			frame[k] += v
		}
		if s.cfg.ReverbChannels {
			frame[nc] += bassEdgeShare*left + reverbOutOfPhaseShare*oopLeft
			frame[nc+1] += bassEdgeShare*right + reverbOutOfPhaseShare*oopRight
		}
	} else {
		sourceOffset := s.cfg.StageWidth * (sub - s.midpoint) / float64(nc-1)
		listenerDistance := 2.0 * s.cfg.StageWidth
		wts := s.weights[band]
		for k := 0; k < nc; k++ {
			speakerOffset := (float64(k) - s.midpoint) * s.cfg.SpeakerSeparation
			wts[k] = AngleEffect(speakerOffset-sourceOffset, listenerDistance, band, s.numBands)
		}
		scale := center / (residualEpsilon + f64.Sum(wts))
		for k := 0; k < nc; k++ {
			frame[k] += wts[k] * scale
		}
		for z, bleed := range sideBleed {
			frame[z] += bleed * left
			frame[nc-1-z] += bleed * right
		}
		if s.cfg.ReverbChannels {
			residualShare := 0.5 * (1.0 - sideBleed[0] - sideBleed[1] - sideBleed[2] - sideBleed[3])
			frame[nc] += left*residualShare + reverbOutOfPhaseShare*oopLeft
			frame[nc+1] += right*residualShare + reverbOutOfPhaseShare*oopRight
		}
	}

	if s.cfg.Binaural != nil {
		s.cfg.Binaural.AddBand(band, s.numBands, index, left, right, center, sub, float64(nc-1))
	}
}

// triplet decomposes the band's stereo energy into a common center component
// and left/right residuals (the three sum back to the stereo pair), plus the
// out-of-phase portion redirected away from the array. The decomposition is
// energy-proportional blending, preserved from the original tuning.
func (s *SpatialRenderer) triplet(r *bank.Rotators, band int, w float64) (left, center, right, oopLeft, oopRight float64) {
	g := r.GainVec(band)
	tapL := r.Tap(band, 0)
	tapR := r.Tap(band, 1)
	prevL := r.EnergyTap(band, 0)
	prevR := r.EnergyTap(band, 1)

	// Phase-cancelling content does not localize on a line array; measure
	// it on the faster mid-cascade taps and fade it out of the pan path.
	oopRaw := 0.0
	q := real(prevR)*real(prevL) + imag(prevR)*imag(prevL)
	if q < 0 && band >= s.oopStart {
		mul := 2.0 * float64(band-s.oopRamp) / float64(oopRampWidth*s.numBands/angleBandsRef)
		if mul > 1 {
			mul = 1
		}
		if mul < 0 {
			mul = 0
		}
		den := 0.5 * (sqMag(prevR) + sqMag(prevL))
		oopRaw = mul * -q / den
		oopRaw /= w * w * w
	}
	v := &s.oop[band]
	v[0] = (1-w)*v[0] + w*oopRaw
	v[1] = (1-w)*v[1] + w*v[0]
	v[2] = (1-w)*v[2] + w*v[1]
	oopLevel := v[2]

	// Out-of-phase signal is emitted crossed: left output carries the
	// right channel's content and vice versa.
	oopLeft = oopLevel * dot(g, tapR)
	oopRight = oopLevel * dot(g, tapL)
	keep := complex(1.0-oopLevel, 0)
	tapL *= keep
	tapR *= keep

	rlen := sqMag(tapR) + residualEpsilon
	llen := sqMag(tapL) + residualEpsilon
	inv := 1.0 / (rlen + llen)
	rlen *= inv
	llen *= inv

	ave := complex(rlen, 0)*tapR + complex(llen, 0)*tapL
	center = dot(g, ave)

	tapR -= complex(rlen, 0) * ave
	tapL -= complex(llen, 0) * ave
	right = dot(g, tapR)
	left = dot(g, tapL)
	return left, center, right, oopLeft, oopRight
}

func dot(a, b complex128) float64 {
	return real(a)*real(b) + imag(a)*imag(b)
}

func sqMag(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

// Midpoint returns the center position of the array in subspeaker units.
func (s *SpatialRenderer) Midpoint() float64 { return s.midpoint }

// BassBands returns the effective bass crossover band count.
func (s *SpatialRenderer) BassBands() int { return s.bassBands }
