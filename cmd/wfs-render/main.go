// Command wfs-render renders a stereo WAV recording onto a multichannel
// speaker line array, or splits it into dry/mid/wet stereo pairs.
//
// Usage:
//
//	wfs-render -channels 12 input.wav output.wav
//	wfs-render -channels 16 -reverb input.wav output.wav
//	wfs-render -channels 12 -binaural input.wav output.wav
//	wfs-render -emphasis input.wav output.wav
//
// The output WAV carries one channel per speaker, left to right, followed
// by the optional reverb pair and the optional binaural pair. With
// -emphasis the output is six channels: dry, mid and wet stereo pairs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/tphakala/go-wavefield"
)

const (
	// CLI defaults
	defaultChannels = 12
	defaultGain     = 0.1 // headroom: a panned band can land on few speakers
	minRequiredArgs = 2

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	stereoChannels = 2
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() (err error) {
	channels := flag.Int("channels", defaultChannels, "Number of speakers in the output array")
	ratio := flag.Float64("ratio", 0, "Microphone distance to source interval ratio (0 = default)")
	separation := flag.Float64("separation", 0, "Speaker separation in meters (0 = default)")
	stage := flag.Float64("stage", 0, "Stage width in meters (0 = default)")
	bands := flag.Int("bands", 0, "Filter bank resolution (0 = default)")
	workers := flag.Int("workers", 0, "Band worker goroutines (0 = GOMAXPROCS)")
	gain := flag.Float64("gain", defaultGain, "Output gain")
	reverb := flag.Bool("reverb", false, "Append a reverb channel pair")
	binaural := flag.Bool("binaural", false, "Append a binaural headphone pair")
	emphasis := flag.Bool("emphasis", false, "Split into dry/mid/wet stereo pairs instead of panning")
	bits := flag.Int("bits", 0, "Output bit depth: 16, 24 or 32 (0 = match input)")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file (for PGO)")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -channels 12 stereo.wav array.wav      # 12-speaker line array\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -channels 16 -reverb in.wav out.wav   # with reverb pair\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -emphasis in.wav split.wav            # dry/mid/wet pairs\n", os.Args[0])
		return fmt.Errorf("insufficient arguments")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	inputPath := args[0]
	outputPath := args[1]

	input, err := openWAVInput(inputPath, *verbose)
	if err != nil {
		return err
	}
	defer func() { _ = input.Close() }()

	if input.channels != stereoChannels {
		return fmt.Errorf("input must be stereo, has %d channels", input.channels)
	}

	cfg := wavefield.Config{
		SampleRate: input.rate,
		Channels:   input.channels,
		NumBands:   *bands,
		Workers:    *workers,
		Gain:       *gain,
	}
	var proc *wavefield.Processor
	if *emphasis {
		proc, err = wavefield.NewEmphasizer(cfg)
	} else {
		proc, err = wavefield.NewSpatializer(cfg, wavefield.SpeakerConfig{
			OutputChannels:          *channels,
			DistanceToIntervalRatio: *ratio,
			SpeakerSeparation:       *separation,
			StageWidth:              *stage,
			ReverbChannels:          *reverb,
			Binaural:                *binaural,
		})
	}
	if err != nil {
		return err
	}

	bitDepth := *bits
	if bitDepth == 0 {
		bitDepth = input.bitDepth
	}
	if *verbose {
		log.Printf("Rendering to %d channels, %d bands, delay %d frames",
			proc.OutputChannels(), proc.NumBands(), proc.Delay())
	}

	output, err := createWAVOutput(outputPath, input.rate, bitDepth, proc.OutputChannels())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	start := time.Now()
	src := newWAVSource(input, *verbose)
	if err := proc.Process(src, output); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Rendered %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %d Hz, %d -> %d channels, %d-bit\n",
		input.rate, input.channels, proc.OutputChannels(), bitDepth)
	fmt.Printf("  %d frames, Duration: %.2fs, Speed: %.1fx realtime\n",
		src.framesRead,
		elapsed.Seconds(),
		float64(src.framesRead)/float64(input.rate)/elapsed.Seconds())

	return err
}
