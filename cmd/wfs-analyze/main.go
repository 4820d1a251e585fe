// Command wfs-analyze runs the filter bank over a WAV file and reports the
// result as a reconstruction, a band spectrogram image, or a frequency
// response dump.
//
// Usage:
//
//	wfs-analyze -mode identity -o out.wav input.wav
//	wfs-analyze -mode amplitude -ppm spectrogram.ppm input.wav
//	wfs-analyze -mode phase -ppm phase.ppm input.wav
//	wfs-analyze -mode identity -fft response.txt input.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tphakala/go-wavefield"
)

const (
	defaultFFTFrom = 0
	defaultFFTTo   = 20000
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	mode := flag.String("mode", "amplitude", "Analysis mode: identity, amplitude, phase")
	bands := flag.Int("bands", 0, "Filter bank resolution (0 = default)")
	workers := flag.Int("workers", 0, "Band worker goroutines (0 = GOMAXPROCS)")
	gain := flag.Float64("gain", 1.0, "Global volume scaling")
	wavOut := flag.String("o", "", "Write reconstructed audio to this WAV file (identity mode)")
	ppmOut := flag.String("ppm", "", "Write band spectrogram to this PPM file (amplitude/phase mode)")
	fftOut := flag.String("fft", "", "Write output FFT magnitudes to this text file")
	fftFrom := flag.Int("from", defaultFFTFrom, "FFT dump start frequency in Hz")
	fftTo := flag.Int("to", defaultFFTTo, "FFT dump end frequency in Hz")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return fmt.Errorf("insufficient arguments")
	}

	samples, channels, rate, err := decodeWAV(args[0])
	if err != nil {
		return err
	}
	if *verbose {
		log.Printf("Input: %d Hz, %d channels, %d frames", rate, channels, len(samples)/channels)
	}

	var m wavefield.Mode
	switch *mode {
	case "identity":
		m = wavefield.ModeIdentity
	case "amplitude":
		m = wavefield.ModeAmplitude
	case "phase":
		m = wavefield.ModePhase
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}

	proc, err := wavefield.NewAnalyzer(wavefield.Config{
		SampleRate: rate,
		Channels:   channels,
		NumBands:   *bands,
		Workers:    *workers,
		Gain:       *gain,
	}, m)
	if err != nil {
		return err
	}
	if *verbose {
		log.Printf("Bank: %d bands, delay %d frames", proc.NumBands(), proc.Delay())
	}

	sink := wavefield.NewBufferSink(proc.OutputChannels())
	if err := proc.Process(wavefield.NewSliceSource(samples, channels, rate), sink); err != nil {
		return err
	}

	wrote := false
	if *wavOut != "" {
		if m != wavefield.ModeIdentity {
			return errors.New("-o requires -mode identity")
		}
		if err := encodeWAV(*wavOut, sink.Samples, channels, rate); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", *wavOut)
		wrote = true
	}
	if *ppmOut != "" {
		if m == wavefield.ModeIdentity {
			return errors.New("-ppm requires -mode amplitude or phase")
		}
		if err := writePPM(*ppmOut, sink, m); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", *ppmOut)
		wrote = true
	}
	if *fftOut != "" {
		if err := dumpFFT(*fftOut, sink.Channel(0), rate, *fftFrom, *fftTo); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", *fftOut)
		wrote = true
	}
	if !wrote {
		return errors.New("nothing to do: give -o, -ppm or -fft")
	}
	return nil
}
