package t30

import "github.com/doismellburning/faxt30/hdlc"

// goodRowRatio / poorRowRatio are the bad-row-ratio cutoffs classifying
// a received non-ECM page (spec.md §4.5 "Phase C, non-ECM transfer").
const (
	goodRowRatio = 0.02
	poorRowRatio = 0.05
)

// pageChunkSize bounds how much the page source is asked for per
// NonECMGetChunk call; the modem collaborator is expected to call
// repeatedly until the session signals completion.
const pageChunkSize = 256

// beginPageTransmit starts sending the current page, in ECM or non-ECM
// mode depending on what was negotiated in DCS (spec.md §4.5 "Phase C,
// non-ECM transfer" / "Phase C, ECM transfer").
func (s *Session) beginPageTransmit() {
	if s.ECMMode {
		s.beginECMTransmit()
		return
	}
	s.setState(StateI)
	s.setPhase(PhaseCNonECMTX)
}

// handleNonECMPageChunk is unused on the transmit side (the modem
// pulls via NonECMGetChunk); on the receive side it is where incoming
// page bytes from non-TCF states land.
func (s *Session) handleNonECMPageChunk(chunk []byte) {
	if s.State != StateFDocNonECM {
		return
	}
	if s.collaborators.Sink != nil {
		if err := s.collaborators.Sink.PutChunk(chunk); err != nil {
			s.log.Warn("page sink error", "err", err)
		}
	}
}

// finishNonECMPage is the receive side's end of a non-ECM page, called
// when the carrier drops or when the sender's post-message command
// arrives first (handleFDocNonECM): it classifies the page and moves to
// the post-message acknowledgement states. The transmit side's
// counterpart is TransmitComplete.
func (s *Session) finishNonECMPage() {
	if s.collaborators.Sink == nil {
		s.respondToPage(hdlc.FCFMCF)
		return
	}
	ratio := s.collaborators.Sink.BadRowRatio()
	switch {
	case ratio <= goodRowRatio:
		s.respondToPage(hdlc.FCFMCF)
	case ratio <= poorRowRatio:
		s.respondToPage(hdlc.FCFRTP)
	default:
		s.respondToPage(hdlc.FCFRTN)
	}
}

// respondToPage sends the non-ECM page-quality acknowledgement and
// moves to the matching III_Q_* state to await the next command
// (spec.md §8 invariant 5).
func (s *Session) respondToPage(ack hdlc.FCF) {
	s.setPhase(PhaseDTX)
	// Committed before the ack goes out: a synchronous MPS/EOP/EOM
	// reply must see us already waiting in the matching III_Q state.
	var target State
	switch ack {
	case hdlc.FCFMCF:
		target = StateIIIQMCF
	case hdlc.FCFRTP:
		target = StateIIIQRTP
	default:
		target = StateIIIQRTN
	}
	s.setState(target)
	s.sendSimple(ack, true)
	if s.State != target {
		// A synchronous reply already moved us on (the next command,
		// or a disconnect) before we got back here.
		return
	}
	s.setPhase(PhaseDRX)
	s.Scheduler.StartCommandTimer()
}

// TransmitComplete is called by the modem collaborator once it has
// pulled the page source's last chunk and the carrier has gone down:
// the transmit-side counterpart to onCarrierDown's receive path. It
// sends the post-message command (MPS/EOP) appropriate to whether
// another page follows.
func (s *Session) TransmitComplete() {
	if s.State != StateI {
		return
	}
	more := s.collaborators.Document != nil && s.collaborators.Document.HasMorePages()
	s.setPhase(PhaseDTX)
	// Committed before MPS/EOP goes out: a synchronous MCF/RTP/RTN
	// reply must see us already waiting in II_Q.
	s.setState(StateIIQ)
	if more {
		s.sendSimple(hdlc.FCFMPS, true)
	} else {
		s.sendSimple(hdlc.FCFEOP, true)
	}
	if s.State != StateIIQ {
		// A synchronous reply already moved us on (the page's ack, or
		// a disconnect) before we got back here.
		return
	}
	s.setPhase(PhaseDRX)
	s.armResponseTimer()
}

// handleI is the sender's dispatch-table entry for state I (streaming
// phase C image data): the only frame that can arrive here is the
// receiver's own page-quality response, racing ahead of our
// send-complete notification because both sides detect the same
// carrier drop independently. Treat it as proof our carrier is down
// too, catch up via TransmitComplete, then handle the frame normally.
func (s *Session) handleI(f hdlc.Frame) {
	s.TransmitComplete()
	if s.finished() {
		return
	}
	if h, known := dispatch[s.State]; known {
		h(s, f)
	}
}

// handleFDocNonECM is the receiver's dispatch-table entry for state
// F_DOC_NON_ECM (receiving phase C image data): a frame arriving here
// can only be the sender's post-message command (MPS/EOM/EOP) racing
// ahead of our own carrier-down notification. Classify what has been
// received so far, then handle the frame normally.
func (s *Session) handleFDocNonECM(f hdlc.Frame) {
	s.finishNonECMPage()
	if s.finished() {
		return
	}
	if h, known := dispatch[s.State]; known {
		h(s, f)
	}
}

// handleIIQ is the sender's wait for MCF/RTP/RTN after a post-message
// command (state II_Q).
func (s *Session) handleIIQ(f hdlc.Frame) {
	switch f.Header.FCF.Base() {
	case hdlc.FCFMCF:
		s.onPageAcknowledged(true)
	case hdlc.FCFRTP:
		s.onPageAcknowledged(true)
	case hdlc.FCFRTN:
		s.setStatus(StatusInvalidResponseTX)
		s.onPageAcknowledged(false)
	default:
		s.handleUnexpectedFinal(f)
	}
}

// onPageAcknowledged advances to the next page (if any and accepted)
// or ends the call, and fires the phase-D callback (spec.md §4.5
// "Phase D").
func (s *Session) onPageAcknowledged(accepted bool) {
	if accepted {
		s.PageNumber++
	}
	good := accepted
	if s.collaborators.Phase != nil {
		s.collaborators.Phase.OnPhaseD(s.PageNumber, good)
	}
	s.stats.PagesTransferred = s.PageNumber

	if !accepted {
		// RTN: keep the INVALRSPTX status handleIIQ set, no retry.
		s.sendDCN(StatusInvalidResponseTX)
		return
	}
	more := s.collaborators.Document != nil && s.collaborators.Document.HasMorePages()
	if !more {
		s.sendDCN(StatusOK)
		return
	}
	s.setPhase(PhaseBTX)
	s.beginPageTransmit()
}

// handleIIIQ is the receiver's wait for the next command after
// acknowledging a page (states III_Q_MCF/RTP/RTN): MPS continues the
// session, EOM returns to phase B, EOP ends it.
func (s *Session) handleIIIQ(f hdlc.Frame) {
	switch f.Header.FCF.Base() {
	case hdlc.FCFMPS:
		s.PageNumber++
		s.setState(StateFDocNonECM)
		s.setPhase(PhaseCNonECMRX)
	case hdlc.FCFEOP:
		s.PageNumber++
		s.sendDCN(StatusOK)
	case hdlc.FCFEOM:
		s.PageNumber++
		s.EnterPhaseB()
	default:
		s.handleUnexpectedFinal(f)
	}
}
