package wavefield

import (
	"fmt"

	"github.com/tphakala/go-wavefield/internal/bank"
	"github.com/tphakala/go-wavefield/internal/pool"
	"github.com/tphakala/go-wavefield/internal/render"
)

// Processor streams interleaved audio through the filter bank and a
// renderer. It owns the circular input history, the band worker pool and
// the output gating that aligns all bands to a common delay horizon.
//
// A Processor carries filter state across calls, so it processes exactly
// one stream; build a new one per stream.
type Processor struct {
	cfg      Config
	rot      *bank.Rotators
	ren      bank.Renderer
	binaural *render.BinauralModel
	exec     *pool.Executor

	history     []float64 // historySize frames, interleaved, circular
	input       []float64 // one block of input frames
	block       []float64 // one block of rendered output frames
	reduced     []float64 // renderer columns before binaural interleave
	blockFrames int       // frames per driver iteration, capped for wide renderers
	renWidth    int       // frame width written by the renderer
	outWidth    int       // renWidth plus the binaural pair if attached

	totalIn int64 // absolute index of the next input frame
}

func newProcessor(cfg Config, ren bank.Renderer, binaural *render.BinauralModel, trackEnvelope bool) (*Processor, error) {
	rot, err := bank.NewRotators(bank.Params{
		NumBands:      cfg.NumBands,
		Channels:      cfg.Channels,
		SampleRate:    float64(cfg.SampleRate),
		CascadeDepth:  cfg.CascadeDepth,
		Gains:         cfg.BandGains,
		TrackEnvelope: trackEnvelope,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	renWidth := ren.OutputChannels()
	blockFrames := blockSize
	if limit := maxWorkerAccuSamples / renWidth; limit < blockFrames {
		blockFrames = limit
	}
	// Workers read up to MaxDelay frames behind the block cursor, so that
	// much history must survive a full block write.
	if rot.MaxDelay() > historySize-blockFrames {
		return nil, fmt.Errorf("%w: delay horizon %d frames, history window %d",
			ErrDelayExceedsHistory, rot.MaxDelay(), historySize-blockFrames)
	}
	outWidth := renWidth
	var reduced []float64
	if binaural != nil {
		outWidth += 2
		reduced = make([]float64, blockFrames*renWidth)
	}
	return &Processor{
		cfg:         cfg,
		rot:         rot,
		ren:         ren,
		binaural:    binaural,
		exec:        pool.NewExecutor(cfg.Workers, blockFrames*renWidth),
		history:     make([]float64, historySize*cfg.Channels),
		input:       make([]float64, blockFrames*cfg.Channels),
		block:       make([]float64, blockFrames*outWidth),
		reduced:     reduced,
		blockFrames: blockFrames,
		renWidth:    renWidth,
		outWidth:    outWidth,
	}, nil
}

// OutputChannels reports the width of the frames written to the sink.
func (p *Processor) OutputChannels() int { return p.outWidth }

// NumBands reports the filter bank resolution.
func (p *Processor) NumBands() int { return p.cfg.NumBands }

// Delay reports the common delay horizon in frames. Every output frame
// describes the input frame this many samples earlier; Process compensates
// by dropping the leading horizon and flushing an equal tail, so output
// length equals input length.
func (p *Processor) Delay() int { return p.rot.MaxDelay() }

// Process drains src through the filter bank into dst. It returns after the
// end-of-stream flush, having written exactly as many frames as were read.
func (p *Processor) Process(src Source, dst Sink) error {
	if src.Channels() != p.cfg.Channels {
		return fmt.Errorf("%w: source has %d channels, configured for %d",
			ErrChannelMismatch, src.Channels(), p.cfg.Channels)
	}
	for {
		frames := p.readBlock(src)
		if frames == 0 {
			break
		}
		if err := p.processBlock(p.input, frames, dst); err != nil {
			return err
		}
	}
	return p.flush(dst)
}

// readBlock fills the input buffer with up to one block of frames,
// tolerating short reads from the source.
func (p *Processor) readBlock(src Source) int {
	ch := p.cfg.Channels
	frames := 0
	for frames < p.blockFrames {
		n := src.ReadFrames(p.input[frames*ch : p.blockFrames*ch])
		if n == 0 {
			break
		}
		frames += n
	}
	return frames
}

// flush pushes silence through the bank until the delayed tail of the real
// input has been emitted.
func (p *Processor) flush(dst Sink) error {
	remaining := p.rot.MaxDelay()
	clear(p.input)
	for remaining > 0 {
		frames := remaining
		if frames > p.blockFrames {
			frames = p.blockFrames
		}
		if err := p.processBlock(p.input[:frames*p.cfg.Channels], frames, dst); err != nil {
			return err
		}
		remaining -= frames
	}
	return nil
}

// processBlock runs one block: record the input into history, advance every
// band over the block in parallel, reduce the per-worker accumulators and
// emit the frames past the delay horizon.
func (p *Processor) processBlock(input []float64, frames int, dst Sink) error {
	ch := p.cfg.Channels
	start := p.totalIn
	for i := 0; i < frames; i++ {
		hix := int((start+int64(i))&historyMask) * ch
		copy(p.history[hix:hix+ch], input[i*ch:(i+1)*ch])
	}
	p.totalIn += int64(frames)

	p.rot.OccasionallyRenormalize()
	p.exec.Execute(p.cfg.NumBands, func(band int, out []float64) {
		p.rot.FilterBand(band, p.history, historyMask, start, frames, p.ren, out[:frames*p.renWidth])
	})

	clear(p.block[:frames*p.outWidth])
	if p.outWidth == p.renWidth {
		p.exec.Reduce(p.block[:frames*p.renWidth])
	} else {
		p.reduceWithBinaural(frames)
	}

	// Frames before the delay horizon carry partial band state; drop them.
	gate := 0
	if start < int64(p.rot.MaxDelay()) {
		gate = int(int64(p.rot.MaxDelay()) - start)
		if gate > frames {
			gate = frames
		}
	}
	if gate == frames {
		return nil
	}
	return dst.WriteFrames(p.block[gate*p.outWidth:frames*p.outWidth], frames-gate)
}

// reduceWithBinaural interleaves the reduced renderer columns with the two
// binaural delay-line columns. Every slot in the block's range is emitted
// and cleared, gated or not, so stale energy never survives a ring wrap.
func (p *Processor) reduceWithBinaural(frames int) {
	start := p.totalIn - int64(frames)
	reduced := p.reduced[:frames*p.renWidth]
	clear(reduced)
	p.exec.Reduce(reduced)
	for i := 0; i < frames; i++ {
		copy(p.block[i*p.outWidth:i*p.outWidth+p.renWidth], reduced[i*p.renWidth:(i+1)*p.renWidth])
		l, r := p.binaural.Emit(start + int64(i))
		p.block[i*p.outWidth+p.renWidth] = l
		p.block[i*p.outWidth+p.renWidth+1] = r
	}
}
