package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// Frames decoded per read; larger chunks reduce I/O overhead.
	readFrames = 32768

	// Full-scale values per PCM bit depth
	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	progressInterval = 10 // Print progress every N%
	percentScale     = 100
)

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file        *os.File
	decoder     *wav.Decoder
	rate        int
	channels    int
	bitDepth    int
	totalFrames int64
	format      *audio.Format
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	inputRate := format.SampleRate
	channels := format.NumChannels
	bitDepth := int(decoder.BitDepth)

	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", inputRate, channels, bitDepth)
	}

	// Total duration is only used for progress reporting.
	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}
	totalFrames := int64(duration.Seconds() * float64(inputRate))

	return &wavInputInfo{
		file:        inputFile,
		decoder:     decoder,
		rate:        inputRate,
		channels:    channels,
		bitDepth:    bitDepth,
		totalFrames: totalFrames,
		format:      format,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// getMaxValue returns the full-scale sample value for the given bit depth.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// wavSource streams a WAV decoder as normalized interleaved float64 frames.
type wavSource struct {
	input      *wavInputInfo
	intBuffer  *audio.IntBuffer
	invMaxVal  float64
	framesRead int64
	progress   *progressTracker
}

func newWAVSource(input *wavInputInfo, verbose bool) *wavSource {
	return &wavSource{
		input: input,
		intBuffer: &audio.IntBuffer{
			Data:   make([]int, readFrames*input.channels),
			Format: input.format,
		},
		invMaxVal: 1.0 / getMaxValue(input.bitDepth),
		progress:  newProgressTracker(input.totalFrames, verbose),
	}
}

func (s *wavSource) Channels() int   { return s.input.channels }
func (s *wavSource) SampleRate() int { return s.input.rate }

// ReadFrames decodes up to one chunk of frames into dst, normalized to
// [-1, 1]. Short reads are expected; the caller loops.
func (s *wavSource) ReadFrames(dst []float64) int {
	ch := s.input.channels
	frames := len(dst) / ch
	if frames > readFrames {
		frames = readFrames
	}
	s.intBuffer.Data = s.intBuffer.Data[:frames*ch]
	n, err := s.input.decoder.PCMBuffer(s.intBuffer)
	if err != nil && !errors.Is(err, io.EOF) {
		log.Printf("read error, truncating input: %v", err)
		return 0
	}
	if n == 0 {
		return 0
	}
	for i := 0; i < n*ch; i++ {
		dst[i] = float64(s.intBuffer.Data[i]) * s.invMaxVal
	}
	s.framesRead += int64(n)
	s.progress.reportIfNeeded(s.framesRead)
	return n
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalFrames  int64
	lastProgress int
	verbose      bool
}

func newProgressTracker(totalFrames int64, verbose bool) *progressTracker {
	return &progressTracker{
		totalFrames: totalFrames,
		verbose:     verbose,
	}
}

// reportIfNeeded reports progress if a threshold was crossed.
func (p *progressTracker) reportIfNeeded(currentFrames int64) {
	if !p.verbose || p.totalFrames == 0 {
		return
	}

	progress := int(float64(currentFrames) / float64(p.totalFrames) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		log.Printf("Progress: %d%%", progress)
		p.lastProgress = progress
	}
}
