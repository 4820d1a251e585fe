package wavefield

// Source supplies interleaved multi-channel samples. ReadFrames fills dst
// with whole frames and returns the number of frames read; zero signals
// exhaustion. Short reads are allowed anywhere in the stream.
type Source interface {
	// ReadFrames reads up to len(dst)/Channels() frames into dst.
	ReadFrames(dst []float64) int

	// Channels is the number of interleaved channels per frame.
	Channels() int

	// SampleRate is the stream sample rate in Hz.
	SampleRate() int
}

// Sink consumes interleaved multi-channel output frames.
type Sink interface {
	// WriteFrames writes whole interleaved frames from src.
	WriteFrames(src []float64, frames int) error
}

// SliceSource serves a float64 slice of interleaved samples as a Source.
// ChunkFrames, when positive, caps every read at that many frames, which is
// useful for exercising short-read paths.
type SliceSource struct {
	Samples     []float64
	NumChannels int
	Rate        int
	ChunkFrames int

	pos int
}

// NewSliceSource wraps interleaved samples in a Source.
func NewSliceSource(samples []float64, channels, sampleRate int) *SliceSource {
	return &SliceSource{Samples: samples, NumChannels: channels, Rate: sampleRate}
}

func (s *SliceSource) ReadFrames(dst []float64) int {
	frames := len(dst) / s.NumChannels
	if s.ChunkFrames > 0 && frames > s.ChunkFrames {
		frames = s.ChunkFrames
	}
	remaining := (len(s.Samples) - s.pos) / s.NumChannels
	if frames > remaining {
		frames = remaining
	}
	if frames <= 0 {
		return 0
	}
	n := frames * s.NumChannels
	copy(dst[:n], s.Samples[s.pos:s.pos+n])
	s.pos += n
	return frames
}

func (s *SliceSource) Channels() int   { return s.NumChannels }
func (s *SliceSource) SampleRate() int { return s.Rate }

// Reset rewinds the source to the beginning of the slice.
func (s *SliceSource) Reset() { s.pos = 0 }

// BufferSink collects output frames in memory.
type BufferSink struct {
	Samples     []float64
	NumChannels int
}

// NewBufferSink creates a sink for the given channel count.
func NewBufferSink(channels int) *BufferSink {
	return &BufferSink{NumChannels: channels}
}

func (b *BufferSink) WriteFrames(src []float64, frames int) error {
	b.Samples = append(b.Samples, src[:frames*b.NumChannels]...)
	return nil
}

// Frames returns the number of frames collected.
func (b *BufferSink) Frames() int { return len(b.Samples) / b.NumChannels }

// Frame returns one output frame by index.
func (b *BufferSink) Frame(i int) []float64 {
	return b.Samples[i*b.NumChannels : (i+1)*b.NumChannels]
}

// Channel extracts one de-interleaved channel.
func (b *BufferSink) Channel(c int) []float64 {
	out := make([]float64, b.Frames())
	for i := range out {
		out[i] = b.Samples[i*b.NumChannels+c]
	}
	return out
}
