package t30

// switchPhase translates a phase transition into set_rx_type/
// set_tx_type calls on the modem collaborator (spec.md §4.6). Phase A
// sets V.21 with HDLC for receive and V.21 without HDLC for transmit;
// ModemKind has no CNG/CED tone kind, so no tone is requested from the
// Modem collaborator. Phase B/D use V.21; phase C uses the negotiated
// fallback-table entry.
func (s *Session) switchPhase(p Phase) {
	if s.collaborators.Modem == nil {
		return
	}

	shortTrain := s.trainedAtCurrentRate()

	switch p {
	case PhaseIdle, PhaseCallFinished:
		// Nothing to reconfigure; the call is over or not yet begun.
	case PhaseACED, PhaseACNG:
		s.collaborators.Modem.SetRxType(ModemV21, false, true)
		s.collaborators.Modem.SetTxType(ModemV21, false, false)
	case PhaseBRX:
		s.collaborators.Modem.SetRxType(ModemV21, false, true)
	case PhaseBTX:
		s.collaborators.Modem.SetTxType(ModemV21, false, true)
	case PhaseDRX:
		s.collaborators.Modem.SetRxType(ModemV21, false, true)
	case PhaseDTX:
		s.collaborators.Modem.SetTxType(ModemV21, false, true)
	case PhaseCNonECMRX, PhaseCECMRX:
		s.collaborators.Modem.SetRxType(FallbackTable[s.currentFallback].Modem, shortTrain, false)
	case PhaseCNonECMTX, PhaseCECMTX:
		s.collaborators.Modem.SetTxType(FallbackTable[s.currentFallback].Modem, shortTrain, false)
	case PhaseE:
		s.collaborators.Modem.SetTxType(ModemV21, false, true)
	}
}

// trainedAtCurrentRate reports whether the current fallback-table index
// has already completed a successful TCF this call (trainedRates), so a
// later re-entry at the same rate can request a short (abbreviated)
// training.
func (s *Session) trainedAtCurrentRate() bool {
	return s.trainedRates[s.currentFallback]
}

func (s *Session) noteTrainSucceeded() {
	if s.trainedRates == nil {
		s.trainedRates = make(map[int]bool)
	}
	s.trainedRates[s.currentFallback] = true
}
