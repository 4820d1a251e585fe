package main

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/tphakala/go-wavefield"
)

const (
	// Spectrogram width cap; longer recordings are truncated.
	maxPlotFrames = 1 << 14

	// Amplitude heatmap thresholds. Values below goodThreshold map onto
	// the dark cold range, values above badThreshold escalate to white.
	goodThreshold = 0.01
	badThreshold  = 0.05
)

// amplitudeHeatmap ramps black, blue, cyan, green, yellow, red, magenta and
// on to white; the last color repeats for a solid overload range.
var amplitudeHeatmap = [12][3]float64{
	{0, 0, 0}, {0, 0, 1},
	{0, 1, 1}, {0, 1, 0},
	{1, 1, 0}, {1, 0, 0},
	{1, 0, 1}, {0.5, 0.5, 1.0},
	{1.0, 0.5, 0.5},
	{1.0, 1.0, 0.5}, {1, 1, 1},
	{1, 1, 1},
}

// valueToRGB maps a band magnitude onto the heatmap, compressing the range
// above badThreshold.
func valueToRGB(val float64, rgb *[3]float64) {
	switch {
	case val < goodThreshold:
		val = (val / goodThreshold) * 0.3
	case val < badThreshold:
		val = 0.3 + (val-goodThreshold)/(badThreshold-goodThreshold)*0.15
	default:
		val = 0.45 + (val-badThreshold)/(badThreshold*12)*0.5
	}
	tableSize := len(amplitudeHeatmap)
	val = math.Min(math.Max(val*float64(tableSize-1), 0.0), float64(tableSize-2))
	ix := int(val)
	if ix < 0 || ix > tableSize-2 { // NaN lands here too
		ix = 0
	}
	mix := val - float64(ix)
	for i := 0; i < 3; i++ {
		v := mix*amplitudeHeatmap[ix+1][i] + (1-mix)*amplitudeHeatmap[ix][i]
		rgb[i] = math.Sqrt(v)
	}
}

// phaseToRGB maps a phase in [-pi, pi] onto a cyclic color wheel.
func phaseToRGB(phase float64, rgb *[3]float64) {
	phase /= math.Pi
	phase++
	switch {
	case phase < 1.0/3:
		rgb[0] = 3 * phase
		rgb[1] = 1 - 3*phase
	case phase < 2.0/3:
		phase -= 1.0 / 3
		rgb[1] = 3 * phase
		rgb[2] = 1 - 3*phase
	default:
		phase -= 2.0 / 3
		rgb[2] = 3 * phase
		rgb[0] = 1 - 3*phase
	}
}

func pixel(sample float64, mode wavefield.Mode, out []byte) {
	var rgb [3]float64
	if mode == wavefield.ModeAmplitude {
		valueToRGB(sample, &rgb)
	} else {
		phaseToRGB(sample, &rgb)
	}
	for i := 0; i < 3; i++ {
		v := int(math.Round(rgb[i] * 255))
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
}

// writePPM renders the collected band columns as a binary PPM image, one
// row per band-and-channel, one column per input frame.
func writePPM(path string, sink *wavefield.BufferSink, mode wavefield.Mode) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	xsize := sink.Frames()
	if xsize > maxPlotFrames {
		xsize = maxPlotFrames
	}
	ysize := sink.NumChannels

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P6\n%d %d\n255\n", xsize, ysize)
	line := make([]byte, 3*xsize)
	for y := 0; y < ysize; y++ {
		for x := 0; x < xsize; x++ {
			pixel(sink.Frame(x)[y], mode, line[3*x:])
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return w.Flush()
}
