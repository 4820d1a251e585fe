// Package wavefield decomposes audio into perceptually spaced frequency
// bands and re-renders it spatially, in pure Go.
//
// The filter bank places bands on a Bark-like scale from 20 Hz to 20 kHz.
// Each band is a complex oscillator feeding a short cascade of leaky
// integrators; the cascade acts as a narrow band-pass around the oscillator
// frequency while keeping per-sample cost to a handful of multiply-adds.
// Bands are delay-equalized against the slowest band, so summing all
// reconstructed bands returns the input, delayed by a fixed horizon.
//
// # Processing modes
//
// Three constructors cover the supported front ends:
//
//   - [NewAnalyzer] runs the bank over any channel count and renders per
//     [Mode]: [ModeIdentity] reconstructs the signal, [ModeAmplitude] and
//     [ModePhase] emit per-band spectra suitable for visualization.
//   - [NewSpatializer] pans a stereo recording across an N-speaker line
//     array from the per-band left/right energy balance, with optional
//     reverb and binaural output pairs.
//   - [NewEmphasizer] splits a stereo recording into dry, mid and wet
//     stereo pairs from each band's envelope-to-amplitude ratio; the three
//     pairs sum back to the reconstruction.
//
// # Quick Start
//
//	cfg := wavefield.Config{SampleRate: 48000, Channels: 2}
//	proc, err := wavefield.NewSpatializer(cfg, wavefield.SpeakerConfig{
//	    OutputChannels: 12,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sink := wavefield.NewBufferSink(proc.OutputChannels())
//	if err := proc.Process(wavefield.NewSliceSource(samples, 2, 48000), sink); err != nil {
//	    log.Fatal(err)
//	}
//
// [Processor.Process] streams in fixed blocks, drops the leading delay
// horizon and flushes an equal tail, so output length equals input length.
//
// # Concurrency
//
// Bands are independent between samples, so the bank evaluates them on a
// worker pool sized by [Config.Workers]; each worker accumulates into a
// private buffer and the driver sums the buffers after every block, so
// worker assignment only permutes floating-point summation order. A
// [Processor] itself is not safe for concurrent use.
package wavefield
