package t30

import "github.com/doismellburning/faxt30/hdlc"

// tcfDurationMs is how long the training-check field lasts (spec.md
// §4.5 "transmit 1.5 seconds of zero bits").
const tcfDurationMs = 1500

// beginTCFTransmit switches the modem to the negotiated rate and
// streams 1.5s of zero bits, then waits in D_TCF for the carrier-down
// signal that marks the end of the training burst (spec.md §4.5
// "Trainability test (TCF)").
func (s *Session) beginTCFTransmit() {
	s.setState(StateDTCF)
	s.setPhase(PhaseCNonECMTX)
	entry := FallbackTable[s.currentFallback]
	s.tcfBitsRemaining = entry.BitsPerSecond * tcfDurationMs / 1000
}

// NonECMGetChunk is the transmit-side non_ecm_get_chunk entry point:
// called by the modem collaborator to pull the next chunk of outgoing
// bits. During D_TCF it returns zero bits; otherwise it defers to the
// page source.
func (s *Session) NonECMGetChunk(max int) (chunk []byte, last bool) {
	if s.State == StateDTCF {
		n := max
		bitsLeft := s.tcfBitsRemaining
		if n*8 > bitsLeft {
			n = (bitsLeft + 7) / 8
		}
		if n <= 0 {
			return nil, true
		}
		s.tcfBitsRemaining -= n * 8
		return make([]byte, n), s.tcfBitsRemaining <= 0
	}
	if s.collaborators.Source == nil {
		return nil, true
	}
	return s.collaborators.Source.NextChunk(max)
}

// beginTCFReceive switches the modem to the negotiated rate and starts
// counting the longest run of zero bits received, ready to classify
// the training once carrier drops (answerer side, state F_TCF).
func (s *Session) beginTCFReceive() {
	s.setState(StateFTCF)
	s.setPhase(PhaseCNonECMRX)
	s.tcfLongestRun = 0
	s.tcfCurrentRun = 0
}

// NonECMPutChunk is the receive-side non_ecm_put_chunk entry point.
// During F_TCF it feeds the zero-run counter; otherwise it is page
// image data (handled in page_nonecm.go).
func (s *Session) NonECMPutChunk(chunk []byte) {
	if s.State == StateFTCF {
		for _, b := range chunk {
			for bit := 0; bit < 8; bit++ {
				if b&(1<<uint(bit)) == 0 {
					s.tcfCurrentRun++
					if s.tcfCurrentRun > s.tcfLongestRun {
						s.tcfLongestRun = s.tcfCurrentRun
					}
				} else {
					s.tcfCurrentRun = 0
				}
			}
		}
		return
	}
	s.handleNonECMPageChunk(chunk)
}

// onCarrierDown is called by FrontEndStatus when the receive carrier
// drops, the trigger for every phase-C-to-post-transfer transition.
func (s *Session) onCarrierDown() {
	switch s.State {
	case StateDTCF:
		s.setState(StateDPostTCF)
		s.setPhase(PhaseBRX)
		s.armResponseTimer()
	case StateFTCF:
		s.finishTCFReceive()
	case StateFDocNonECM:
		s.finishNonECMPage()
	}
}

// finishTCFReceive classifies the training burst and replies CFR or
// FTT (spec.md §8 invariant 7).
func (s *Session) finishTCFReceive() {
	entry := FallbackTable[s.currentFallback]
	ok := s.tcfLongestRun >= entry.BitsPerSecond
	s.setPhase(PhaseDTX)
	if ok {
		s.noteTrainSucceeded()
		s.setPhase(PhaseCNonECMRX)
		// State commits to the post-CFR receive state before CFR goes
		// out: F_CFR itself is never actually occupied (a reply can
		// arrive before we'd get back around to setting it), so we skip
		// straight to F_DOC_{ECM,NON_ECM}.
		if s.ECMMode {
			s.setState(StateFDocECM)
			s.ecmRxBuf.Reset()
		} else {
			s.setState(StateFDocNonECM)
		}
		s.sendSimple(hdlc.FCFCFR, true)
		return
	}

	// Each failed training attempt is reported as FTT and, on the sender
	// side, triggers an immediate fallback to the next compatible rate
	// (spec.md §8 scenario C: a single FTT causes fallback, not three
	// retries at the same rate). Giving up after MAX_MESSAGE_TRIES
	// consecutive FTTs, or after fallback is exhausted, is the sender's
	// call to make (handleDPostTCF's FTT branch) since it is the one
	// receiving the FTT responses (spec.md §8 "three consecutive FTT
	// responses"); this side just keeps reporting training quality.
	s.setPhase(PhaseBRX)
	s.setState(StateR)
	s.sendSimple(hdlc.FCFFTT, true)
	if s.State != StateR {
		// A synchronous reply already moved us on (a restarted TCF
		// receive, or an outright disconnect) before we got back here.
		return
	}
	s.armResponseTimer()
}

// handleDPostTCF is the caller's wait for CFR/FTT after sending TCF
// (state D_POST_TCF).
func (s *Session) handleDPostTCF(f hdlc.Frame) {
	switch f.Header.FCF.Base() {
	case hdlc.FCFCFR:
		s.noteTrainSucceeded()
		s.tcfTries = 0
		s.beginPageTransmit()
	case hdlc.FCFFTT:
		s.tcfTries++
		if s.tcfTries >= MaxMessageTries {
			s.setStatus(StatusCannotTrain)
			s.sendDCN(StatusCannotTrain)
			return
		}
		idx := NextCompatible(s.currentFallback, s.localFallbackMask()&s.remoteFallbackMask())
		if idx < 0 {
			s.setStatus(StatusCannotTrain)
			s.sendDCN(StatusCannotTrain)
			return
		}
		if s.collaborators.Metrics != nil {
			s.collaborators.Metrics.IncFallback()
		}
		s.currentFallback = idx
		s.setPhase(PhaseBTX)
		s.beginTCFTransmit()
		s.send(capabilityToHDLC(s.buildDCS()))
	default:
		s.handleUnexpectedFinal(f)
	}
}

// handleDTCF is the sender's dispatch-table entry for state D_TCF
// (streaming the training burst): the only frame that can arrive here
// is the receiver's CFR/FTT, racing ahead of our own send-complete
// notification because both sides detect the same carrier drop
// independently. Treat it as proof our carrier is down too, catch up
// via onCarrierDown, then handle the frame normally.
func (s *Session) handleDTCF(f hdlc.Frame) {
	s.onCarrierDown()
	if s.finished() {
		return
	}
	if h, known := dispatch[s.State]; known {
		h(s, f)
	}
}

// handleFAwaitingDoc exists for the F_CFR/F_FTT states, which are
// momentary: by the time another HDLC frame could arrive the session
// has already moved to F_DOC_{ECM,NON_ECM} or R. Any frame seen here
// is unexpected.
func (s *Session) handleFAwaitingDoc(f hdlc.Frame) {
	s.handleUnexpectedFinal(f)
}
