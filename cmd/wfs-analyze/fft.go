package main

import (
	"bufio"
	"fmt"
	"math/cmplx"
	"os"

	"gonum.org/v1/gonum/dsp/fourier"
)

// dumpFFT writes "frequency magnitude" lines for one output channel,
// zero-padded to a power of two, restricted to [fromHz, toHz).
func dumpFFT(path string, signal []float64, rate, fromHz, toHz int) (err error) {
	n := 1
	for n < len(signal) {
		n <<= 1
	}
	padded := make([]float64, n)
	copy(padded, signal)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, padded)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create FFT dump: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(f)
	startI := fromHz * n / rate
	endI := toHz * n / rate
	if endI > len(coeffs) {
		endI = len(coeffs)
	}
	for i := startI; i < endI; i++ {
		fmt.Fprintf(w, "%f  %f\n", float64(i)*float64(rate)/float64(n), cmplx.Abs(coeffs[i]))
	}
	return w.Flush()
}
