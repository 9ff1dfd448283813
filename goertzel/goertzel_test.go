package goertzel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineBlock(freqHz, sampleRate float64, n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/sampleRate)
	}
	return out
}

func TestBinDetectsMatchingTone(t *testing.T) {
	const sampleRate = 8000.0
	const blockLen = 120
	const freq = 1100.0

	onFreq := NewBin(freq, sampleRate)
	offFreq := NewBin(1700.0, sampleRate)

	for _, s := range sineBlock(freq, sampleRate, blockLen, 1000) {
		onFreq.Update(s)
		offFreq.Update(s)
	}

	require.Greater(t, onFreq.Energy(), offFreq.Energy()*10,
		"matching bin should report much more energy than a distant one")
}

func TestBinResetClearsState(t *testing.T) {
	b := NewBin(1100, 8000)
	for _, s := range sineBlock(1100, 8000, 120, 1000) {
		b.Update(s)
	}
	assert.NotZero(t, b.Energy())
	b.Reset()
	assert.Zero(t, b.Energy())
}

func TestBankFeedReportsBlockBoundary(t *testing.T) {
	bank := NewBank([]float64{697, 770, 852, 941, 1209, 1336}, 8000, 120)
	samples := sineBlock(697, 8000, 120*3, 1000)

	blocks := 0
	for _, s := range samples {
		if bank.Feed(s) {
			blocks++
			e := bank.Energies()
			assert.Len(t, e, 6)
		}
	}
	assert.Equal(t, 3, blocks)
}

func TestBankNoStateAcrossBlocks(t *testing.T) {
	bank := NewBank([]float64{1100, 1700}, 8000, 120)
	block1 := sineBlock(1100, 8000, 120, 1000)
	block2 := sineBlock(1700, 8000, 120, 1000)

	var e1, e2 []float64
	for _, s := range block1 {
		if bank.Feed(s) {
			e1 = append([]float64(nil), bank.Energies()...)
		}
	}
	for _, s := range block2 {
		if bank.Feed(s) {
			e2 = append([]float64(nil), bank.Energies()...)
		}
	}

	require.Len(t, e1, 2)
	require.Len(t, e2, 2)
	assert.Greater(t, e1[0], e1[1], "block 1 favors bin 0 (1100Hz)")
	assert.Greater(t, e2[1], e2[0], "block 2 favors bin 1 (1700Hz), unaffected by block 1's history")
}
