package t30

// TimerUpdate is the timer_update entry point: advances every timer by
// n audio samples and reacts to whichever one expires first (spec.md
// §4.7).
func (s *Session) TimerUpdate(samples int) {
	if s.State == StateCallFinished {
		return
	}
	switch s.Scheduler.Tick(samples) {
	case ExpiryT0:
		s.setStatus(StatusT0Expired)
		s.finishCall(StatusT0Expired)
	case ExpiryT1:
		s.setStatus(StatusT1Expired)
		if s.Role == RoleCalling && s.State == StateT {
			s.finishCall(StatusNoDISTX)
			return
		}
		s.finishCall(StatusT1Expired)
	case ExpiryT2:
		s.onCommandTimeout()
	case ExpiryT4:
		s.onResponseTimeout()
	case ExpiryT3:
		s.setStatus(StatusT3Expired)
	case ExpiryT5:
		s.setStatus(StatusT5Expired)
		s.sendDCN(StatusT5Expired)
	}
}

// onCommandTimeout handles T2 (command-wait) expiry: the states that
// arm it are waiting for the other side to send a command at all
// (receiver side), not for a response to one of ours.
func (s *Session) onCommandTimeout() {
	switch s.State {
	case StateR:
		s.setStatus(StatusT2ExpRX)
		s.finishCall(StatusT2ExpRX)
	case StateFDocNonECM, StateFDocECM:
		s.setStatus(StatusT2ExpFaxRX)
		s.finishCall(StatusT2ExpFaxRX)
	default:
		s.setStatus(StatusT2ExpRX)
		s.finishCall(StatusT2ExpRX)
	}
}

// retryExhaustionStatus names the status to disconnect with once
// MaxMessageTries response-timeouts have occurred in state st (spec.md
// §8 "Boundary behaviour: Timer T4 exhaustion").
func retryExhaustionStatus(st State) Status {
	switch st {
	case StateDPostTCF, StateR, StateFFTT, StateFCFR:
		return StatusPhaseBDeadTX
	case StateIIQ, StateIIIQMCF, StateIIIQRTP, StateIIIQRTN:
		return StatusPhaseDDeadTX
	case StateIVPPSNull, StateIVPPSQ, StateIVPPSRNR:
		return StatusRetryDCN
	default:
		return StatusPhaseDDeadTX
	}
}

// onResponseTimeout handles T4 (response-wait) expiry: resend the last
// command up to MaxMessageTries, then disconnect (spec.md §4.5
// "Retries").
func (s *Session) onResponseTimeout() {
	if !AwaitingResponse(s.State) {
		s.setStatus(StatusUnexpected)
		s.sendDCN(StatusUnexpected)
		return
	}
	s.retries++
	if s.collaborators.Metrics != nil {
		s.collaborators.Metrics.IncRetry()
	}
	if s.retries < MaxMessageTries {
		s.RepeatLastCommand()
		s.Scheduler.StartResponseTimer()
		return
	}
	s.retries = 0
	s.sendDCN(retryExhaustionStatus(s.State))
}
