package mf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRate = 8000.0

func mixedTone(f1, f2, sampleRate float64, n int, amplitude float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		v := amplitude/2*math.Sin(2*math.Pi*f1*float64(i)/sampleRate) +
			amplitude/2*math.Sin(2*math.Pi*f2*float64(i)/sampleRate)
		out[i] = int16(v)
	}
	return out
}

// TestBellReceiverEmitsKPAfterFourHits grounds scenario F of spec.md
// §8: 1100Hz+1700Hz (KP) emits '*' after four consecutive block hits
// preceded by two non-hit blocks.
func TestBellReceiverEmitsKPAfterFourHits(t *testing.T) {
	var got string
	r := NewBellReceiver(sampleRate, func(digits string) { got += digits })

	silence := make([]int16, BellTuning.BlockLen*2)
	for _, s := range silence {
		r.Feed(s)
	}
	require.Empty(t, got)

	kp := mixedTone(1100, 1700, sampleRate, BellTuning.BlockLen*5, 20000)
	for _, s := range kp {
		r.Feed(s)
	}
	assert.Equal(t, "*", got)
}

func TestBellReceiverRequiresOnlyTwoHitsForOrdinaryDigit(t *testing.T) {
	var got string
	r := NewBellReceiver(sampleRate, func(digits string) { got += digits })

	silence := make([]int16, BellTuning.BlockLen*2)
	for _, s := range silence {
		r.Feed(s)
	}
	// digit '1' is 700+900
	one := mixedTone(700, 900, sampleRate, BellTuning.BlockLen*3, 20000)
	for _, s := range one {
		r.Feed(s)
	}
	assert.Equal(t, "1", got)
}

func TestR2ReceiverReportsPerBlockNoHistory(t *testing.T) {
	r := NewR2Receiver(sampleRate, Forward)

	// digit '1' forward is 1380+1500
	block := mixedTone(1380, 1500, sampleRate, R2ForwardTuning.BlockLen, 20000)
	var last byte
	for _, s := range block {
		last = r.Feed(s)
	}
	assert.Equal(t, byte('1'), last)

	silence := make([]int16, R2ForwardTuning.BlockLen)
	for _, s := range silence {
		last = r.Feed(s)
	}
	assert.Equal(t, byte(0), last, "R2 has no history; a silent block clears the decision")
}

func TestClassifyRejectsWeakSecondTone(t *testing.T) {
	tun := BellTuning
	energies := make([]float64, 6)
	energies[0] = tun.Threshold * 2
	// all others near zero: fails because second_best never reaches threshold
	assert.Equal(t, byte(0), classify(energies, &tun))
}
