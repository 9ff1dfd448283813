package mf

import "github.com/doismellburning/faxt30/goertzel"

// BellCallback receives a run of decoded digits as they clear the
// consecutive-hit filter. It is called synchronously from Feed/Flush;
// it must not block.
type BellCallback func(digits string)

// BellReceiver decodes Bell MF digits. A digit is reported only after
// two clean identical hits preceded by two differing blocks (four for
// KP, per spec.md §4.2), matching bell_mf_rx in the original source.
type BellReceiver struct {
	bank     *goertzel.Bank
	tuning   Tuning
	hits     [5]byte // ring buffer, hits[4] is the most recent block
	pending  []byte
	callback BellCallback
}

// NewBellReceiver constructs a Bell MF receiver sampled at sampleRate
// Hz. cb is invoked with each run of newly-confirmed digits.
func NewBellReceiver(sampleRate float64, cb BellCallback) *BellReceiver {
	t := BellTuning
	return &BellReceiver{
		bank:     goertzel.NewBank(t.FreqsHz[:], sampleRate, t.BlockLen),
		tuning:   t,
		callback: cb,
	}
}

// Feed processes one 16-bit PCM sample. Call this once per sample for
// the duration of the tone burst.
func (r *BellReceiver) Feed(sample int16) {
	if !r.bank.Feed(float64(sample)) {
		return
	}
	hit := classify(r.bank.Energies(), &r.tuning)
	r.confirm(hit)
	r.hits[0], r.hits[1], r.hits[2], r.hits[3], r.hits[4] = r.hits[1], r.hits[2], r.hits[3], r.hits[4], hit
}

// confirm applies the consecutive-hit filter and appends any newly
// confirmed digit to the pending run, flushing it through the
// callback.
func (r *BellReceiver) confirm(hit byte) {
	if hit == 0 {
		return
	}
	h := r.hits
	var confirmed bool
	if hit == h[4] && hit == h[3] {
		if hit == '*' {
			confirmed = hit == h[2] && hit != h[1] && hit != h[0]
		} else {
			confirmed = hit != h[2] && hit != h[1]
		}
	}
	if !confirmed {
		return
	}
	r.pending = append(r.pending, hit)
	if r.callback != nil {
		r.callback(string(r.pending))
		r.pending = r.pending[:0]
	}
}

// Flush delivers any digits accumulated since the last callback
// invocation with no caller-supplied callback, or is a no-op when a
// callback is configured (it always fires synchronously). Present for
// parity with bell_mf_rx's end-of-call flush and exercised by
// BellReceiver users that batch digits instead of using a callback.
func (r *BellReceiver) Flush() string {
	out := string(r.pending)
	r.pending = r.pending[:0]
	return out
}
