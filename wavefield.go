package wavefield

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/tphakala/go-wavefield/internal/bank"
	"github.com/tphakala/go-wavefield/internal/render"
)

// Sentinel errors returned by constructors and Process.
var (
	// ErrInvalidConfig indicates an invalid processing configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrChannelMismatch indicates the source channel count does not match
	// the configuration.
	ErrChannelMismatch = errors.New("source channel count mismatch")

	// ErrDelayExceedsHistory indicates the band delay horizon does not fit
	// the streaming history window.
	ErrDelayExceedsHistory = errors.New("band delay exceeds history window")
)

// Mode selects what an analyzer writes per sample.
type Mode int

const (
	// ModeIdentity sums reconstructed band signals into one output channel
	// per input channel, delayed by the bank's delay horizon.
	ModeIdentity Mode = iota

	// ModeAmplitude writes per-band accumulator magnitudes, band-major,
	// one column per input channel.
	ModeAmplitude

	// ModePhase writes per-band accumulator phase in radians, in the same
	// layout as ModeAmplitude.
	ModePhase
)

func (m Mode) String() string {
	switch m {
	case ModeIdentity:
		return "identity"
	case ModeAmplitude:
		return "amplitude"
	case ModePhase:
		return "phase"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config holds the settings shared by all processing modes. Zero values
// select defaults where a default exists; Validate reports the rest.
type Config struct {
	// SampleRate is the input sample rate in Hz.
	SampleRate int

	// Channels is the input channel count.
	Channels int

	// NumBands is the filter bank resolution. Zero selects
	// DefaultNumBands.
	NumBands int

	// CascadeDepth is the number of leaky integrator stages per band,
	// between 3 and 8. Zero selects the per-mode preset.
	CascadeDepth int

	// Workers is the number of band worker goroutines. Zero selects
	// GOMAXPROCS. Binaural rendering forces serial evaluation.
	Workers int

	// Gain scales the rendered output. Zero selects unity.
	Gain float64

	// BandGains is an optional per-band calibration vector; nil selects
	// unity calibration.
	BandGains []float64
}

// withDefaults fills zero fields, using depth as the mode's cascade preset.
func (c Config) withDefaults(depth int) Config {
	if c.NumBands == 0 {
		c.NumBands = DefaultNumBands
	}
	if c.CascadeDepth == 0 {
		c.CascadeDepth = depth
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Gain == 0 {
		c.Gain = 1
	}
	return c
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > maxChannels {
		return fmt.Errorf("%w: channels must be 1-%d, got %d", ErrInvalidConfig, maxChannels, c.Channels)
	}
	if c.NumBands < 2 {
		return fmt.Errorf("%w: need at least 2 bands, got %d", ErrInvalidConfig, c.NumBands)
	}
	if c.CascadeDepth < bank.MinCascadeDepth || c.CascadeDepth > bank.MaxCascadeDepth {
		return fmt.Errorf("%w: cascade depth must be %d-%d, got %d",
			ErrInvalidConfig, bank.MinCascadeDepth, bank.MaxCascadeDepth, c.CascadeDepth)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Gain <= 0 {
		return fmt.Errorf("%w: gain must be positive, got %g", ErrInvalidConfig, c.Gain)
	}
	if c.BandGains != nil && len(c.BandGains) != c.NumBands {
		return fmt.Errorf("%w: band gain table has %d entries, want %d",
			ErrInvalidConfig, len(c.BandGains), c.NumBands)
	}
	return nil
}

// SpeakerConfig describes the output line array for NewSpatializer. Zero
// values select a small nearfield array.
type SpeakerConfig struct {
	// OutputChannels is the number of speakers in the array, left to
	// right, at least 8. Channel 0 is the leftmost speaker.
	OutputChannels int

	// DistanceToIntervalRatio is (distance from the microphone pair to
	// the virtual source array) / (interval between adjacent virtual
	// sources). Zero selects 4.
	DistanceToIntervalRatio float64

	// SpeakerSeparation is the physical speaker interval in meters. Zero
	// selects 0.1.
	SpeakerSeparation float64

	// StageWidth is the rendered stage width in meters; the listener is
	// assumed at twice this distance. Zero selects 1.3.
	StageWidth float64

	// BassBands is the number of lowest bands spread uniformly across the
	// array instead of being panned. Zero selects a crossover scaled from
	// 25 bands of 128.
	BassBands int

	// ReverbChannels appends a channel pair receiving residual and
	// out-of-phase content after the speaker columns.
	ReverbChannels bool

	// Binaural appends a headphone pair rendered through per-band delay
	// lines after the speaker (and reverb) columns.
	Binaural bool
}

func (s SpeakerConfig) withDefaults() SpeakerConfig {
	if s.DistanceToIntervalRatio == 0 {
		s.DistanceToIntervalRatio = 4
	}
	if s.SpeakerSeparation == 0 {
		s.SpeakerSeparation = 0.1
	}
	if s.StageWidth == 0 {
		s.StageWidth = 1.3
	}
	return s
}

// NewAnalyzer builds a Processor that runs the filter bank over any number
// of input channels and renders per mode: reconstruction, band magnitudes
// or band phases.
func NewAnalyzer(cfg Config, mode Mode) (*Processor, error) {
	cfg = cfg.withDefaults(defaultAnalyzerDepth)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var ren bank.Renderer
	switch mode {
	case ModeIdentity:
		ren = &bank.IdentityRenderer{Channels: cfg.Channels, Gain: cfg.Gain}
	case ModeAmplitude:
		ren = &bank.AmplitudeRenderer{Bands: cfg.NumBands, Channels: cfg.Channels, Gain: cfg.Gain}
	case ModePhase:
		ren = &bank.PhaseRenderer{Bands: cfg.NumBands, Channels: cfg.Channels}
	default:
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, int(mode))
	}
	return newProcessor(cfg, ren, nil, false)
}

// NewSpatializer builds a Processor that pans a stereo recording across a
// speaker line array, with optional reverb and binaural columns.
func NewSpatializer(cfg Config, spk SpeakerConfig) (*Processor, error) {
	cfg = cfg.withDefaults(defaultSpatializerDepth)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Channels != stereoChannels {
		return nil, fmt.Errorf("%w: spatializer needs %d input channels, got %d",
			ErrInvalidConfig, stereoChannels, cfg.Channels)
	}
	spk = spk.withDefaults()

	var binaural *render.BinauralModel
	if spk.Binaural {
		binaural = render.NewBinauralModel(cfg.NumBands)
		// Delay-line writes are not synchronized between bands.
		cfg.Workers = 1
	}
	ren, err := render.NewSpatialRenderer(render.SpatialConfig{
		OutputChannels:          spk.OutputChannels,
		DistanceToIntervalRatio: spk.DistanceToIntervalRatio,
		SpeakerSeparation:       spk.SpeakerSeparation,
		StageWidth:              spk.StageWidth,
		BassBands:               spk.BassBands,
		ReverbChannels:          spk.ReverbChannels,
		Gain:                    cfg.Gain,
		Binaural:                binaural,
	}, cfg.NumBands)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return newProcessor(cfg, ren, binaural, false)
}

// NewEmphasizer builds a Processor that splits a stereo recording into dry,
// mid and wet stereo pairs from each band's envelope-to-amplitude ratio.
func NewEmphasizer(cfg Config) (*Processor, error) {
	cfg = cfg.withDefaults(defaultEmphasizerDepth)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Channels != stereoChannels {
		return nil, fmt.Errorf("%w: emphasizer needs %d input channels, got %d",
			ErrInvalidConfig, stereoChannels, cfg.Channels)
	}
	ren := render.NewEmphasisRenderer(cfg.NumBands, cfg.Gain)
	return newProcessor(cfg, ren, nil, true)
}
