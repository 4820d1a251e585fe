package wavefield

import (
	"runtime"
	"testing"

	"github.com/tphakala/go-wavefield/internal/testutil"
)

// BenchmarkAnalyzerSerial benchmarks single-worker identity analysis.
func BenchmarkAnalyzerSerial(b *testing.B) {
	benchmarkAnalyzer(b, 1)
}

// BenchmarkAnalyzerParallel benchmarks identity analysis across all cores.
func BenchmarkAnalyzerParallel(b *testing.B) {
	benchmarkAnalyzer(b, runtime.GOMAXPROCS(0))
}

func benchmarkAnalyzer(b *testing.B, workers int) {
	b.Helper()

	const numFrames = 48000 // 1 second of audio
	input := testutil.StereoSine(numFrames, 1000, 48000, 0.7, 0.3)
	cfg := Config{SampleRate: 48000, Channels: 2, Workers: workers}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		proc, err := NewAnalyzer(cfg, ModeIdentity)
		if err != nil {
			b.Fatalf("Failed to create analyzer: %v", err)
		}
		sink := NewBufferSink(proc.OutputChannels())
		if err := proc.Process(NewSliceSource(input, 2, 48000), sink); err != nil {
			b.Fatalf("Process failed: %v", err)
		}
	}
}

// BenchmarkSpatializer benchmarks spatial rendering onto a 12-speaker array.
func BenchmarkSpatializer(b *testing.B) {
	const numFrames = 48000
	input := testutil.StereoSine(numFrames, 1000, 48000, 0.7, 0.3)
	cfg := Config{SampleRate: 48000, Channels: 2, Gain: 0.1}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		proc, err := NewSpatializer(cfg, SpeakerConfig{OutputChannels: 12})
		if err != nil {
			b.Fatalf("Failed to create spatializer: %v", err)
		}
		sink := NewBufferSink(proc.OutputChannels())
		if err := proc.Process(NewSliceSource(input, 2, 48000), sink); err != nil {
			b.Fatalf("Process failed: %v", err)
		}
	}
}
