package t30

import "github.com/doismellburning/faxt30/hdlc"

// handler processes one received, FCS-good control frame while the
// session is in a particular State. Returning no value: handlers
// mutate the session directly via setState/send/finishCall, matching
// the "switched by handlers" invariant of spec.md §3.
type handler func(s *Session, f hdlc.Frame)

// dispatch is the State -> handler table replacing the source's
// switch-inside-switch (spec.md §9 first redesign note). A state with
// no entry here never receives frames directly (phase A, and the pure
// send states B/C/D which exist only as a place to have just sent
// something and are moved out of by TimerUpdate or FrontEndStatus, not
// by HDLCAccept). States I, D_TCF and F_DOC_NON_ECM are the exception:
// both sides detect the same phase C/TCF carrier drop independently, so
// either one's own completion handler can run after the other's
// message has already arrived — handleI/handleDTCF/handleFDocNonECM
// catch up instead of treating that race as an unexpected frame.
var dispatch = map[State]handler{
	StateT:              (*Session).handleT,
	StateR:              (*Session).handleR,
	StateI:              (*Session).handleI,
	StateDTCF:           (*Session).handleDTCF,
	StateDPostTCF:       (*Session).handleDPostTCF,
	StateFCFR:           (*Session).handleFAwaitingDoc,
	StateFFTT:           (*Session).handleFAwaitingDoc,
	StateFDocNonECM:     (*Session).handleFDocNonECM,
	StateFDocECM:        (*Session).handleFDocECM,
	StateFPostDocNonECM: (*Session).handleFPostDoc,
	StateFPostDocECM:    (*Session).handleFPostDoc,
	StateFPostRCPMCF:    (*Session).handleFPostRCP,
	StateFPostRCPPPR:    (*Session).handleFPostRCP,
	StateFPostRCPRNR:    (*Session).handleFPostRCP,
	StateIIQ:            (*Session).handleIIQ,
	StateIIIQMCF:        (*Session).handleIIIQ,
	StateIIIQRTP:        (*Session).handleIIIQ,
	StateIIIQRTN:        (*Session).handleIIIQ,
	StateIVPPSNull:      (*Session).handleIVPPS,
	StateIVPPSQ:         (*Session).handleIVPPS,
	StateIVPPSRNR:       (*Session).handleIVPPS,
	StateIVCTC:          (*Session).handleIVCTC,
	StateEOR:            (*Session).handleUnexpectedFinal,
	StateEOREOR:          (*Session).handleUnexpectedFinal,
	StateEOREORRNR:       (*Session).handleUnexpectedFinal,
}

// HDLCAccept is the hdlc_accept entry point (spec.md §4.5 "Events
// consumed"): a decoded control frame plus its FCS-good flag.
func (s *Session) HDLCAccept(f hdlc.Frame, ok bool) {
	if s.State == StateCallFinished {
		return
	}
	s.Scheduler.NoteHDLCSignal()

	if !ok {
		s.log.Warn("bad FCS, ignoring frame", "state", s.State)
		s.sendSimple(hdlc.FCFCRP, true)
		return
	}

	if f.Header.FCF.Base() == hdlc.FCFCRP {
		s.RepeatLastCommand()
		return
	}

	if f.Header.FCF.Base() == hdlc.FCFDCN {
		s.handleDCNReceived()
		return
	}

	h, known := dispatch[s.State]
	if !known {
		s.handleUnexpectedFinal(f)
		return
	}
	h(s, f)
}

// handleUnexpectedFinal implements spec.md §7's default: an
// unrecognised final frame logs, sets UNEXPECTED, and sends DCN; a
// non-final one logs and sets UNEXPECTED without disconnecting.
func (s *Session) handleUnexpectedFinal(f hdlc.Frame) {
	s.log.Warn("unexpected frame", "state", s.State, "fcf", f.Header.FCF)
	s.setStatus(StatusUnexpected)
	if f.Header.Final() {
		s.sendDCN(StatusUnexpected)
	}
}

// handleDCNReceived maps a received DCN to the context-appropriate
// status and ends the call without sending a response (spec.md §4.5
// DCN is always the last frame of an exchange).
func (s *Session) handleDCNReceived() {
	status := StatusDCNWhyRX
	switch s.State {
	case StateIIQ, StateIVPPSNull, StateIVPPSQ, StateIVPPSRNR, StateDPostTCF:
		status = StatusGotDCNTX
	case StateFDocNonECM, StateFDocECM:
		status = StatusDCNDataRX
	case StateIIIQMCF, StateIIIQRTP, StateIIIQRTN, StateFPostRCPMCF:
		// Already acknowledged the page (MCF/RTP/RTN, or an ECM block's
		// MCF) before the far end's DCN arrived: a normal end of call,
		// not something to flag as unexpected.
		status = StatusOK
	}
	s.finishCall(status)
}
