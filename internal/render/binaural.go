package render

import "math"

// Binaural rendering constants.
const (
	// binauralRingSize must exceed the driver block size plus the longest
	// write-ahead delay so that unemitted slots are never overwritten.
	binauralRingSize = 1 << 16
	binauralRingMask = binauralRingSize - 1

	// binauralTableWidth is the number of lateral positions in the
	// attenuation table.
	binauralTableWidth = 16

	// Residual echo schedule: the left/right residuals bounce between the
	// ears echoCount times, the first hop after echoFirstDelay samples and
	// later hops after echoDelay samples (roughly 19 cm of travel).
	echoCount      = 5
	echoFirstDelay = 17
	echoDelay      = 27
	echoInputGain  = 2.0

	// CenterDelayMul converts subspeaker distance into per-ear delay.
	centerDelayMul = 0.15
)

// binauralBase is the per-position attenuation base; band b uses
// base^(b/numBands).
var binauralBase = [binauralTableWidth]float64{
	1.4, 1.3, 1.2, 1.1, 1.0, 0.9, 0.8, 0.7,
	0.6, 0.5, 0.4, 0.35, 0.3, 0.25, 0.2, 0.15,
}

// BinauralModel renders a headphone pair through two delay lines indexed by
// absolute sample time. Bands add energy at (now + delay); the driver emits
// and clears slots once every band has contributed to them. The model keeps
// per-band attenuation derived from a lateral position table.
//
// The model is not safe for concurrent use: bands must be evaluated
// serially when it is attached.
type BinauralModel struct {
	channel [2][binauralRingSize]float64
	table   []float64 // numBands x binauralTableWidth
	bands   int
}

// NewBinauralModel precomputes the attenuation table for numBands bands.
func NewBinauralModel(numBands int) *BinauralModel {
	m := &BinauralModel{
		table: make([]float64, numBands*binauralTableWidth),
		bands: numBands,
	}
	for b := 0; b < numBands; b++ {
		frac := float64(b) / float64(numBands)
		for k := 0; k < binauralTableWidth; k++ {
			m.table[b*binauralTableWidth+k] = math.Pow(binauralBase[k], frac)
		}
	}
	return m
}

func (m *BinauralModel) writeWithDelay(c int, index int64, delay int, v float64) {
	m.channel[c][(index+int64(delay))&binauralRingMask] += v
}

func (m *BinauralModel) writeWithFloatDelay(c int, index int64, floatDelay, v float64) {
	delay := int(math.Floor(floatDelay))
	frac := floatDelay - float64(delay)
	m.writeWithDelay(c, index, delay, v*(1.0-frac))
	m.writeWithDelay(c, index, delay+1, v*frac)
}

// AddBand contributes one band's residual and center components at the
// given absolute sample index. sub is the fractional subspeaker position,
// span the array length in subspeaker units.
func (m *BinauralModel) AddBand(band, numBands int, index int64, left, right, center, sub, span float64) {
	row := m.table[band*binauralTableWidth : (band+1)*binauralTableWidth]

	// Residuals: a handful of cross-ear echoes relaxes the acoustic image.
	lbin := left * echoInputGain
	rbin := right * echoInputGain
	delay := 0
	for i := 0; i < echoCount; i++ {
		m.writeWithDelay(0, index, delay, lbin)
		m.writeWithDelay(1, index, delay, rbin)
		lt := row[binauralTableWidth-1] * lbin
		rt := row[binauralTableWidth-1] * rbin
		lbin, rbin = rt, lt
		if i == 0 {
			delay += echoFirstDelay
		} else {
			delay += echoDelay
		}
	}

	// Center: lateral position picks interpolated per-ear gains, and the
	// delay difference shrinks toward the middle to keep the image small.
	speaker := int(math.Floor(sub))
	if speaker < 0 {
		speaker = 0
	}
	if speaker > binauralTableWidth-2 {
		speaker = binauralTableWidth - 2
	}
	off := sub - float64(speaker)
	leftGain := (1.0-off)*row[speaker] + off*row[speaker+1]
	rightGain := (1.0-off)*row[binauralTableWidth-1-speaker] + off*row[binauralTableWidth-2-speaker]

	dx := sub - 0.5*span
	dist := math.Sqrt(dx*dx+span*span) - span
	if dx < 0 {
		dist = -dist
	}
	dist += 0.5 * span
	delayL := 1.0 + centerDelayMul*dist
	delayR := 1.0 + centerDelayMul*(span-dist)
	m.writeWithFloatDelay(0, index, delayL, center*leftGain)
	m.writeWithFloatDelay(1, index, delayR, center*rightGain)
}

// Emit reads, clips and clears both ears at the given absolute index.
func (m *BinauralModel) Emit(index int64) (left, right float64) {
	ix := index & binauralRingMask
	left = hardClip(m.channel[0][ix])
	right = hardClip(m.channel[1][ix])
	m.channel[0][ix] = 0
	m.channel[1][ix] = 0
	return left, right
}

func hardClip(v float64) float64 {
	return math.Max(-1.0, math.Min(1.0, v))
}
