// Package goertzel implements a bank of single-frequency Goertzel
// resonators evaluated in lockstep over fixed-length blocks of audio
// samples.
//
// Purpose:     Detect the energy present at a small set of known
//
//	frequencies without a full FFT. Used by package mf to
//	classify two-tone signalling digits (Bell MF, R2 MF).
//
// Description: Each Bin accumulates three running values (v1 implicit,
//
//	v2, v3) driven by one multiply-add per sample. At the end
//	of a block the bin's energy is read off and the bin is
//	reset to zero for the next block. No state survives a
//	block boundary and no bin allocates once constructed.
package goertzel

import "math"

// Bin is a single Goertzel resonator tuned to one frequency.
//
// Update must be called once per audio sample for the duration of a
// block; Energy reads the block's accumulated energy; Reset clears the
// running sums so the bin is ready for the next block. A Bin is a
// value type: copying it copies independent resonator state.
type Bin struct {
	coef float64 // 2*cos(2*pi*freq/sampleRate), precomputed once.
	v2   float64
	v3   float64
}

// NewBin returns a Bin tuned to freqHz at the given sampleRate, both in
// Hz. The coefficient is fixed for the lifetime of the Bin; only v2/v3
// change per sample.
func NewBin(freqHz, sampleRate float64) Bin {
	return Bin{coef: 2 * math.Cos(2*math.Pi*freqHz/sampleRate)}
}

// Update folds one more sample into the running sums.
//
//	v1 = v2; v2 = v3; v3 = coef*v2 - v1 + x
func (b *Bin) Update(x float64) {
	v1 := b.v2
	b.v2 = b.v3
	b.v3 = b.coef*b.v2 - v1 + x
}

// Energy returns the block's accumulated energy: v3^2 + v2^2 - coef*v2*v3.
// It does not reset the bin; call Reset separately once the block ends.
func (b *Bin) Energy() float64 {
	return b.v3*b.v3 + b.v2*b.v2 - b.coef*b.v2*b.v3
}

// Reset zeroes the running sums, discarding any partial block. Call
// this at every block boundary regardless of whether Energy was read.
func (b *Bin) Reset() {
	b.v2 = 0
	b.v3 = 0
}

// Bank is a fixed set of Bins evaluated together, one sample at a time,
// over a fixed block length. It owns no heap state beyond the Bin
// slice allocated at construction; Feed never allocates.
type Bank struct {
	bins      []Bin
	blockLen  int
	n         int
	energies  []float64 // reused scratch, sized len(bins)
}

// NewBank builds a Bank for the given center frequencies (Hz), sample
// rate (Hz) and block length in samples. blockLen should be chosen so
// each frequency is close to an integral number of cycles per block
// (see package mf for the two concrete tunings this repo uses).
func NewBank(freqsHz []float64, sampleRate float64, blockLen int) *Bank {
	bins := make([]Bin, len(freqsHz))
	for i, f := range freqsHz {
		bins[i] = NewBin(f, sampleRate)
	}
	return &Bank{bins: bins, blockLen: blockLen, energies: make([]float64, len(freqsHz))}
}

// Len returns the number of bins in the bank.
func (k *Bank) Len() int { return len(k.bins) }

// BlockLen returns the configured block length in samples.
func (k *Bank) BlockLen() int { return k.blockLen }

// Feed folds one more sample into every bin. It reports whether the
// block just completed; when it returns true, call Energies to read
// the block's result, then the bank auto-resets for the next block.
func (k *Bank) Feed(sample float64) (blockDone bool) {
	for i := range k.bins {
		k.bins[i].Update(sample)
	}
	k.n++
	if k.n < k.blockLen {
		return false
	}
	k.n = 0
	return true
}

// Energies computes each bin's energy into the bank's reusable scratch
// slice (valid until the next call to Energies or Feed) and resets all
// bins for the next block. The returned slice must not be retained
// across calls.
func (k *Bank) Energies() []float64 {
	for i := range k.bins {
		k.energies[i] = k.bins[i].Energy()
		k.bins[i].Reset()
	}
	return k.energies
}
