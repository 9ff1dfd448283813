// Package mf decodes two-tone multi-frequency signalling digits (Bell
// MF and MFC/R2 forward/backward) from a stream of 16-bit audio
// samples, using package goertzel as its DSP front end.
//
// Purpose:     classify each fixed-length block of samples into at
//
//	most one detected tone pair, map that pair to a digit,
//	and (Bell MF only) filter by a consecutive-hit count
//	before reporting it.
//
// Grounded on _examples/original_source/src/bell_r2_mf.c
// (bell_mf_rx / r2_mf_rx) and doismellburning-samoyed/src/dtmf.go for
// the Go-idiomatic rendering of a Goertzel-bank tone decoder (struct
// per channel, block_size derived from sample rate, callback on
// decode) adapted from DTMF's four tones to MF's six.
package mf

// Tuning holds the six channel frequencies, detection thresholds and
// the low/high-index-to-digit lookup table for one MF tone family.
// BellTuning and R2ForwardTuning/R2BackwardTuning are the three
// concrete tunings this repo needs; Tuning itself has no built-in
// instances so a caller could add others (e.g. the commented-out
// Socotel table in the original source) without touching this file.
type Tuning struct {
	FreqsHz      [6]float64
	BlockLen     int
	Threshold    float64
	Twist        float64
	RelativePeak float64
	// Positions is a 25-entry lookup table indexed by low*5+high-1
	// (low, high being the ascending bin indices of the detected
	// pair). Entries that can never be produced by a valid pair are
	// '-'.
	Positions [25]byte
}

// BellTuning is the classic Bell System 2-of-6 MF signalling tone set
// used on inter-office trunks and by T.30 call-progress tone senders
// that emit MF digits. KP is reported as '*', ST as '#', and the three
// additional ST' / ST'' / ST''' codes as 'A' / 'B' / 'C'.
var BellTuning = Tuning{
	FreqsHz:      [6]float64{700, 900, 1100, 1300, 1500, 1700},
	BlockLen:     120,
	Threshold:    1.6e9,
	Twist:        4.0,
	RelativePeak: 12.6,
	Positions:    positions("1247C-358A--69*---0B----#"),
}

// R2ForwardTuning is the MFC/R2 forward (calling-to-called) tone set.
var R2ForwardTuning = Tuning{
	FreqsHz:      [6]float64{1380, 1500, 1620, 1740, 1860, 1980},
	BlockLen:     133,
	Threshold:    5.0e8,
	Twist:        5.0,
	RelativePeak: 12.6,
	Positions:    positions("1247B-358C--69D---0E----F"),
}

// R2BackwardTuning is the MFC/R2 backward (called-to-calling) tone set.
var R2BackwardTuning = Tuning{
	FreqsHz:      [6]float64{1140, 1020, 900, 780, 660, 540},
	BlockLen:     133,
	Threshold:    5.0e8,
	Twist:        5.0,
	RelativePeak: 12.6,
	Positions:    positions("1247B-358C--69D---0E----F"),
}

func positions(s string) [25]byte {
	var p [25]byte
	copy(p[:], s)
	return p
}

// classify runs one block's worth of bin energies through the
// threshold/twist/relative-peak test of spec.md §4.2 step 3 and
// returns the detected digit, or 0 if the block is not a hit.
func classify(energies []float64, t *Tuning) byte {
	best, secondBest := 0, 1
	if energies[1] > energies[0] {
		best, secondBest = 1, 0
	}
	for i := 2; i < len(energies); i++ {
		if energies[i] >= energies[best] {
			secondBest = best
			best = i
		} else if energies[i] >= energies[secondBest] {
			secondBest = i
		}
	}

	if !(energies[best] >= t.Threshold &&
		energies[secondBest] >= t.Threshold &&
		energies[best] < energies[secondBest]*t.Twist &&
		energies[best]*t.Twist > energies[secondBest]) {
		return 0
	}

	for i := range energies {
		if i == best || i == secondBest {
			continue
		}
		if energies[i]*t.RelativePeak >= energies[secondBest] {
			return 0
		}
	}

	low, high := best, secondBest
	if high < low {
		low, high = high, low
	}
	return t.Positions[low*5+high-1]
}
