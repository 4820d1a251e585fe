package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinauralEmitClearsSlot(t *testing.T) {
	m := NewBinauralModel(128)

	m.AddBand(64, 128, 100, 0.1, 0.1, 0.3, 7.5, 15)
	var total float64
	for ix := int64(100); ix < 100+200; ix++ {
		l, r := m.Emit(ix)
		total += l*l + r*r
	}
	assert.Greater(t, total, 0.0, "contributed energy must be emitted")

	for ix := int64(100); ix < 100+200; ix++ {
		l, r := m.Emit(ix)
		assert.Zero(t, l, "slot %d left must be cleared", ix)
		assert.Zero(t, r, "slot %d right must be cleared", ix)
	}
}

func TestBinauralWritesOnlyForward(t *testing.T) {
	m := NewBinauralModel(128)
	const index = 5000

	m.AddBand(32, 128, index, 0.2, 0.2, 0.4, 2.0, 15)
	for ix := int64(index - 64); ix < index; ix++ {
		l, r := m.Emit(ix)
		assert.Zero(t, l, "no energy may appear before its input sample")
		assert.Zero(t, r, "no energy may appear before its input sample")
	}
}

func TestBinauralHardClip(t *testing.T) {
	m := NewBinauralModel(128)
	m.AddBand(64, 128, 0, 50, 50, 100, 7.5, 15)
	for ix := int64(0); ix < 256; ix++ {
		l, r := m.Emit(ix)
		assert.GreaterOrEqual(t, l, -1.0)
		assert.LessOrEqual(t, l, 1.0)
		assert.GreaterOrEqual(t, r, -1.0)
		assert.LessOrEqual(t, r, 1.0)
	}
}

func TestBinauralLateralGainsFavorNearEar(t *testing.T) {
	// A source on the left of the array must reach the left ear louder
	// than the right ear.
	left := NewBinauralModel(128)
	left.AddBand(100, 128, 0, 0, 0, 1.0, 0.0, 15)
	var lEnergy, rEnergy float64
	for ix := int64(0); ix < 64; ix++ {
		l, r := left.Emit(ix)
		lEnergy += l * l
		rEnergy += r * r
	}
	assert.Greater(t, lEnergy, rEnergy)
}
