package t30

import "github.com/doismellburning/faxt30/hdlc"

// Modem is the capability-trait interface standing in for the
// external voiceband modem layer (spec.md §1 Out-of-scope; §9 "Model
// as a capability trait/interface per external collaborator"). The
// engine only ever asks it to switch rate/kind for receive or
// transmit; carrier/training events flow back in through
// Session.FrontEndStatus.
type Modem interface {
	// SetRxType configures the receive modem: kind, whether a short
	// (already-trained-at-this-rate) training is acceptable, and
	// whether the channel carries HDLC frames (phase B/D/E) or a raw
	// bit stream (phase C).
	SetRxType(kind ModemKind, shortTrain, useHDLC bool)
	// SetTxType configures the transmit modem, same parameters.
	SetTxType(kind ModemKind, shortTrain, useHDLC bool)
}

// HDLCTransmitter accepts outgoing control frames for transmission
// (spec.md §1 "HDLC framing and FCS verification" abstracted away;
// this is the upward-facing half of that abstraction).
type HDLCTransmitter interface {
	SendHDLC(f hdlc.Frame)
}

// PageSource is the transmit-side page codec: a byte/bit source over
// the page being sent, plus per-row statistics (spec.md §1 "page codec
// ... abstracted as a bit/byte/chunk sink and source").
type PageSource interface {
	// NextChunk returns up to max bytes of encoded page data, and
	// whether this was the last chunk of the page (short read / EOF).
	NextChunk(max int) (chunk []byte, last bool)
}

// PageSink is the receive-side page codec.
type PageSink interface {
	// PutChunk writes a chunk of decoded page data.
	PutChunk(chunk []byte) error
	// BadRowRatio reports the fraction (0..1) of rows that failed to
	// decode cleanly since the last page boundary, used to classify a
	// non-ECM page as good/poor/bad (spec.md §4.5).
	BadRowRatio() float64
}

// DocumentHandler answers "is there another page to send/receive"
// between pages of a multi-page call (spec.md §4.5 "document-handler
// callback").
type DocumentHandler interface {
	HasMorePages() bool
}

// PhaseCallback is invoked on transitions into phase B, D and E
// (spec.md §4.5/§4.6; the supplemented CIG/CSI/TSI learned-identity
// callback of SPEC_FULL.md item 4 is OnPhaseB's remoteIdent argument).
// OnPhaseB and OnPhaseD fire on the calling side only: OnPhaseB when
// DIS/DTC arrives, with the CSI identity the answerer sent before it
// ("" if none), and OnPhaseD as each sent page is acknowledged.
// OnPhaseE fires on both sides.
type PhaseCallback interface {
	OnPhaseB(remoteIdent string)
	OnPhaseD(pageNumber int, goodPage bool)
	OnPhaseE(final Status)
}

// Metrics observes protocol-level counters a deployment might want to
// export (retries, PPR rounds, fallback steps). Nil is a valid
// Collaborators.Metrics: every call site checks before invoking it, so
// a Session built without one behaves exactly as it did before this
// collaborator existed.
type Metrics interface {
	IncRetry()
	IncPPR()
	IncFallback()
}

// Collaborators bundles every external capability trait a Session
// needs. Tests supply mocks for each (spec.md §9).
type Collaborators struct {
	Modem    Modem
	HDLC     HDLCTransmitter
	Source   PageSource
	Sink     PageSink
	Document DocumentHandler
	Phase    PhaseCallback
	Metrics  Metrics
}
