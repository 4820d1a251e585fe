package bank

import "math"

// Bark-like frequency scale constants. The scale is linear over the lowest
// decile of the normalized index and exponential above it, which keeps the
// same relative resolution across the audible range.
const (
	// barkLinLogSplit is the normalized index where the scale switches from
	// linear to exponential. A larger value (around 0.165) would match human
	// hearing more closely, but bass quality suffers.
	barkLinLogSplit = 0.1

	// barkLowHz is the lowest band center frequency.
	barkLowHz = 20.0

	// barkSplitHz is the center frequency at the linear/exponential split.
	barkSplitHz = 40.0

	// barkSpanFactor spans the exponential segment: 40 Hz * 500 = 20 kHz.
	barkSpanFactor = 500.0
)

// BandCenter returns the center frequency in Hz for a normalized band index
// v in [0, 1]. Pure function of v.
func BandCenter(v float64) float64 {
	if v < barkLinLogSplit {
		// Linear 20-40 Hz.
		return barkLowHz + (v/barkLinLogSplit)*(barkSplitHz-barkLowHz)
	}
	// Exponential 40 Hz - 20 kHz.
	normalized := (v - barkLinLogSplit) / (1.0 - barkLinLogSplit)
	return barkSplitHz * math.Pow(barkSpanFactor, normalized)
}

// BandCenters returns numBands center frequencies on the Bark-like scale.
func BandCenters(numBands int) []float64 {
	centers := make([]float64, numBands)
	for i := range centers {
		centers[i] = BandCenter(float64(i) / float64(numBands-1))
	}
	return centers
}
