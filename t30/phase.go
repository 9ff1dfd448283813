package t30

// Phase is the coarse call stage (spec.md §3 "Phase"), driving the
// Phase/Modem Switcher independently of the finer-grained State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseACED
	PhaseACNG
	PhaseBRX
	PhaseBTX
	PhaseCNonECMRX
	PhaseCNonECMTX
	PhaseCECMRX
	PhaseCECMTX
	PhaseDRX
	PhaseDTX
	PhaseE
	PhaseCallFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseACED:
		return "A_CED"
	case PhaseACNG:
		return "A_CNG"
	case PhaseBRX:
		return "B_RX"
	case PhaseBTX:
		return "B_TX"
	case PhaseCNonECMRX:
		return "C_NON_ECM_RX"
	case PhaseCNonECMTX:
		return "C_NON_ECM_TX"
	case PhaseCECMRX:
		return "C_ECM_RX"
	case PhaseCECMTX:
		return "C_ECM_TX"
	case PhaseDRX:
		return "D_RX"
	case PhaseDTX:
		return "D_TX"
	case PhaseE:
		return "E"
	case PhaseCallFinished:
		return "CALL_FINISHED"
	default:
		return "UNKNOWN_PHASE"
	}
}
