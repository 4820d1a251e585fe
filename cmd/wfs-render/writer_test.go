package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizeClamps(t *testing.T) {
	w := &pcmWriter{bitDepth: bitsPerSample16, maxVal: maxInt16}
	assert.Equal(t, 32767, w.quantize(1.0))
	assert.Equal(t, 32767, w.quantize(2.5), "overdriven samples clamp to full scale")
	assert.Equal(t, -32767, w.quantize(-1.0))
	assert.Equal(t, -32767, w.quantize(-7.0))
	assert.Equal(t, 0, w.quantize(0.0))
	assert.Equal(t, 16383, w.quantize(0.5))
}

func TestGetMaxValue(t *testing.T) {
	assert.Equal(t, maxInt16, getMaxValue(16))
	assert.Equal(t, maxInt24, getMaxValue(24))
	assert.Equal(t, maxInt32, getMaxValue(32))
	assert.Equal(t, maxInt16, getMaxValue(0), "unknown depths fall back to 16-bit")
}

func TestPCMWriterHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	const (
		rate     = 48000
		channels = 12
	)
	w, err := newPCMWriter(f, rate, bitsPerSample16, channels)
	require.NoError(t, err)

	frames := make([]float64, 4*channels)
	require.NoError(t, w.WriteFrames(frames, 4))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), wavHeaderSize)

	assert.Equal(t, "RIFF", string(raw[0:4]))
	assert.Equal(t, "WAVE", string(raw[8:12]))
	assert.Equal(t, uint16(channels), binary.LittleEndian.Uint16(raw[22:24]))
	assert.Equal(t, uint32(rate), binary.LittleEndian.Uint32(raw[24:28]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(raw[34:36]))

	dataSize := binary.LittleEndian.Uint32(raw[40:44])
	assert.Equal(t, uint32(4*channels*bytesPerSample16), dataSize)
	assert.Equal(t, uint32(len(raw)-8), binary.LittleEndian.Uint32(raw[4:8]))
}

func TestPCMWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	const (
		rate     = 44100
		channels = 2
		frames   = 64
	)
	w, err := newPCMWriter(f, rate, bitsPerSample16, channels)
	require.NoError(t, err)

	src := make([]float64, frames*channels)
	for i := range src {
		src[i] = float64(i%100)/100 - 0.5
	}
	require.NoError(t, w.WriteFrames(src, frames))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	in, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = in.Close() }()

	decoder := wav.NewDecoder(in)
	require.True(t, decoder.IsValidFile())
	buf, err := decoder.FullPCMBuffer()
	require.NoError(t, err)
	require.Len(t, buf.Data, frames*channels)

	for i, v := range buf.Data {
		got := float64(v) / maxInt16
		assert.InDelta(t, src[i], got, 1.0/maxInt16, "sample %d", i)
	}
}

func TestWriteFramesRejectsUnknownDepth(t *testing.T) {
	w := &pcmWriter{bitDepth: 20, byteBuf: make([]byte, 64)}
	assert.Error(t, w.WriteFrames(make([]float64, 4), 2))
}
