package mf

import "github.com/doismellburning/faxt30/goertzel"

// Direction selects which MFC/R2 tone set (forward or backward) an
// R2Receiver decodes.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// R2Receiver decodes MFC/R2 digits. Unlike BellReceiver it has no
// consecutive-hit history: each block boundary's classification is
// held until overwritten by the next, and Feed returns the current
// decision directly rather than through a callback (spec.md §4.2,
// "the most recently decided digit character returned from the feed
// call").
type R2Receiver struct {
	bank   *goertzel.Bank
	tuning Tuning
	digit  byte
}

// NewR2Receiver constructs an R2 MF receiver for the given direction,
// sampled at sampleRate Hz.
func NewR2Receiver(sampleRate float64, dir Direction) *R2Receiver {
	t := R2ForwardTuning
	if dir == Backward {
		t = R2BackwardTuning
	}
	return &R2Receiver{
		bank:   goertzel.NewBank(t.FreqsHz[:], sampleRate, t.BlockLen),
		tuning: t,
	}
}

// Feed processes one 16-bit PCM sample and returns the most recently
// decided digit: the classification from the block that just ended, or
// the previous block's decision while a block is still in progress. A
// block with no valid tone pair decides 0, clearing any earlier digit.
func (r *R2Receiver) Feed(sample int16) byte {
	if r.bank.Feed(float64(sample)) {
		r.digit = classify(r.bank.Energies(), &r.tuning)
	}
	return r.digit
}

// Current returns the last decided digit without consuming a sample.
func (r *R2Receiver) Current() byte { return r.digit }
