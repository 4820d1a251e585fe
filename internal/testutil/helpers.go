// Package testutil provides reusable test helper functions for filter bank
// and spatial rendering tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tphakala/simd/f64"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	SumTolerance     = 1e-9
	EnergyTolerance  = 1e-2
)

// Sine generates count samples of a unit sine at the given frequency.
func Sine(count int, frequency, sampleRate float64) []float64 {
	s := make([]float64, count)
	omega := 2 * math.Pi * frequency / sampleRate
	for i := range s {
		s[i] = math.Sin(omega * float64(i))
	}
	return s
}

// Impulse generates count samples with a single unit impulse at position.
func Impulse(count, position int) []float64 {
	s := make([]float64, count)
	s[position] = 1
	return s
}

// Interleave merges per-channel slices of equal length into interleaved
// frames.
func Interleave(channels ...[]float64) []float64 {
	n := len(channels[0])
	out := make([]float64, 0, n*len(channels))
	for i := 0; i < n; i++ {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}

// StereoSine generates an interleaved stereo sine with the given left and
// right amplitudes.
func StereoSine(count int, frequency, sampleRate, left, right float64) []float64 {
	s := make([]float64, 2*count)
	omega := 2 * math.Pi * frequency / sampleRate
	for i := 0; i < count; i++ {
		v := math.Sin(omega * float64(i))
		s[2*i] = left * v
		s[2*i+1] = right * v
	}
	return s
}

// TotalEnergy returns the sum of squared samples.
func TotalEnergy(s []float64) float64 {
	return f64.DotProduct(s, s)
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertMonotonicIncreasing verifies that a slice never decreases.
func AssertMonotonicIncreasing(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return assert.Fail(t, "not monotonically increasing",
				"s[%d]=%f < s[%d]=%f", i, s[i], i-1, s[i-1])
		}
	}
	return true
}

// AssertMonotonicDecreasing verifies that a slice never increases.
func AssertMonotonicDecreasing(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i] > s[i-1] {
			return assert.Fail(t, "not monotonically decreasing",
				"s[%d]=%f > s[%d]=%f", i, s[i], i-1, s[i-1])
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and
// expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}
