// Package render maps per-band filter bank state onto output loudspeaker
// channels. It contains the speaker-angle lookup table derived from a
// parametric microphone directivity model, the angular falloff used to
// weight a line array, and the spatial, emphasis and binaural back ends.
package render

import (
	"math"
	"sort"
)

// Directivity model constants.
const (
	// ratioEpsilon regularizes energy ratios so silence maps to the center.
	ratioEpsilon = 1e-14

	// micAngleOffset is the angular separation of the virtual microphone
	// pair from the source direction: a quarter turn between the two.
	micAngleOffset = math.Pi / 4

	// SubSourcePrecision is the number of table entries per speaker
	// interval in the ratio lookup table.
	SubSourcePrecision = 4000
)

// squaredMicResponse is the power response of a cardioid-like microphone at
// the given angle off axis.
func squaredMicResponse(angle float64) float64 {
	r := 0.5 * (1.0 + math.Cos(angle))
	return r * r
}

// ExpectedRatio predicts the left/right energy ratio of a source at the
// given angle, as seen by the crossed microphone pair.
func ExpectedRatio(angle float64) float64 {
	return (ratioEpsilon + squaredMicResponse(angle+micAngleOffset)) /
		(ratioEpsilon + squaredMicResponse(angle-micAngleOffset))
}

// ActualRatio forms the observed left/right energy ratio, regularized so
// that silent bands resolve to a finite ratio.
func ActualRatio(leftEnergy, rightEnergy float64) float64 {
	return (ratioEpsilon + leftEnergy) / (ratioEpsilon + rightEnergy)
}

// RatioTable maps discretized positions along the virtual speaker line to
// the energy ratio a source at that position would produce. Entries are
// monotonically decreasing by construction: position 0 is the leftmost
// speaker, which yields the largest left/right ratio.
type RatioTable struct {
	ratios    []float64
	precision int
}

// NewRatioTable builds the table for an array of numSpeakers with the given
// ratio of listening distance to speaker interval.
func NewRatioTable(numSpeakers int, distanceToIntervalRatio float64) *RatioTable {
	n := SubSourcePrecision*(numSpeakers-1) + 1
	ratios := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		xDivInterval := float64(i)/SubSourcePrecision - 0.5*float64(numSpeakers-1)
		xDivDistance := xDivInterval / distanceToIntervalRatio
		angle := math.Atan(xDivDistance)
		ratios = append(ratios, ExpectedRatio(angle))
	}
	return &RatioTable{ratios: ratios, precision: SubSourcePrecision}
}

// Find returns the fractional subspeaker index whose expected ratio is
// closest below the observed one. Large ratios (left-heavy content) map to
// index 0, the leftmost speaker.
func (t *RatioTable) Find(ratio float64) float64 {
	ix := sort.Search(len(t.ratios), func(i int) bool {
		return t.ratios[i] <= ratio
	})
	return float64(ix) / float64(t.precision)
}

// Len returns the number of table entries.
func (t *RatioTable) Len() int { return len(t.ratios) }

// Ratio returns the expected ratio at table entry i.
func (t *RatioTable) Ratio(i int) float64 { return t.ratios[i] }

// Angular falloff escalation thresholds, as fractions of a 128-band bank.
// Higher bands localize more sharply, so their energy is focused onto fewer
// speakers by raising the cosine falloff to higher powers.
const (
	angleBands8th  = 30
	angleBands16th = 50
	angleBands32nd = 75
	angleBands64th = 105
	angleBandsRef  = 128
)

// AngleEffect computes the unnormalized weight of a speaker at lateral
// offset dy from the virtual source, for a listener at the given distance.
// The falloff steepens with band index.
func AngleEffect(dy, distance float64, band, numBands int) float64 {
	dist2 := dy*dy + distance*distance
	cosAngle := distance * distance / dist2 // 2nd
	cosAngle *= cosAngle                    // 4th
	scaled := band * angleBandsRef / numBands
	if scaled > angleBands8th {
		cosAngle *= cosAngle // 8th
	}
	if scaled > angleBands16th {
		cosAngle *= cosAngle // 16th
	}
	if scaled >= angleBands32nd {
		cosAngle *= cosAngle // 32nd
	}
	if scaled >= angleBands64th {
		cosAngle *= cosAngle // 64th
	}
	return cosAngle
}
