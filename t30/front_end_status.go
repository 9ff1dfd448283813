package t30

// FrontEndKind enumerates the modem/front-end status signals the
// engine consumes (spec.md §4.5 "Events consumed: front_end_status(kind)").
type FrontEndKind int

const (
	SendStepComplete FrontEndKind = iota
	SendComplete
	ReceiveComplete
	SignalPresent
	SignalAbsent
)

// FrontEndStatus is the front_end_status entry point.
func (s *Session) FrontEndStatus(kind FrontEndKind) {
	if s.State == StateCallFinished {
		return
	}
	switch kind {
	case SignalPresent:
		s.onSignalPresent()
	case SignalAbsent, ReceiveComplete:
		s.onCarrierDown()
	case SendComplete:
		s.onSendComplete()
	case SendStepComplete:
		// No state in this engine waits on a per-step send
		// acknowledgement narrower than SendComplete; logged for
		// parity with the modem layer's event taxonomy.
		s.log.Debug("send step complete", "state", s.State)
	}
}

// onSignalPresent reacts to the far end's carrier appearing: in phase
// A it is the cue to move into capability exchange (spec.md §4.5
// "Phases A → B. ... First valid HDLC flag resets T2.").
func (s *Session) onSignalPresent() {
	s.Scheduler.NoteHDLCSignal()
	switch s.Phase {
	case PhaseACED, PhaseACNG:
		s.EnterPhaseB()
	}
}

// onSendComplete reacts to the local transmitter finishing flushing
// its bit stream: the TCF zero-bit burst (state D_TCF) or a non-ECM
// page (state I).
func (s *Session) onSendComplete() {
	switch s.State {
	case StateDTCF:
		s.onCarrierDown()
	case StateI:
		s.TransmitComplete()
	}
}
