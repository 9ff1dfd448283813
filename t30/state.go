package t30

// Role identifies which side of the call this Session plays.
type Role int

const (
	RoleCalling Role = iota
	RoleAnswering
)

// State is the fine-grained T.30 flow-chart position (spec.md §3
// "State"). CALL_FINISHED is the sole terminal state; ANSWERING and T
// are the two initial states, chosen by Role.
type State int

const (
	StateAnswering State = iota
	StateB
	StateC
	StateD
	StateDTCF
	StateDPostTCF
	StateFTCF
	StateFCFR
	StateFFTT
	StateFDocNonECM
	StateFDocECM
	StateFPostDocECM
	StateFPostDocNonECM
	StateFPostRCPMCF
	StateFPostRCPPPR
	StateFPostRCPRNR
	StateR
	StateT
	StateI
	StateIIQ
	StateIIIQMCF
	StateIIIQRTP
	StateIIIQRTN
	StateIV
	StateIVPPSNull
	StateIVPPSQ
	StateIVPPSRNR
	StateIVCTC
	StateEOR
	StateEOREOR
	StateEOREORRNR
	StateCallFinished
)

var stateNames = map[State]string{
	StateAnswering:      "ANSWERING",
	StateB:              "B",
	StateC:              "C",
	StateD:              "D",
	StateDTCF:           "D_TCF",
	StateDPostTCF:       "D_POST_TCF",
	StateFTCF:           "F_TCF",
	StateFCFR:           "F_CFR",
	StateFFTT:           "F_FTT",
	StateFDocNonECM:     "F_DOC_NON_ECM",
	StateFDocECM:        "F_DOC_ECM",
	StateFPostDocECM:    "F_POST_DOC_ECM",
	StateFPostDocNonECM: "F_POST_DOC_NON_ECM",
	StateFPostRCPMCF:    "F_POST_RCP_MCF",
	StateFPostRCPPPR:    "F_POST_RCP_PPR",
	StateFPostRCPRNR:    "F_POST_RCP_RNR",
	StateR:              "R",
	StateT:              "T",
	StateI:              "I",
	StateIIQ:            "II_Q",
	StateIIIQMCF:        "III_Q_MCF",
	StateIIIQRTP:        "III_Q_RTP",
	StateIIIQRTN:        "III_Q_RTN",
	StateIV:             "IV",
	StateIVPPSNull:      "IV_PPS_NULL",
	StateIVPPSQ:         "IV_PPS_Q",
	StateIVPPSRNR:       "IV_PPS_RNR",
	StateIVCTC:          "IV_CTC",
	StateEOR:            "EOR",
	StateEOREOR:         "EOR_EOR",
	StateEOREORRNR:      "EOR_RNR",
	StateCallFinished:   "CALL_FINISHED",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "UNKNOWN_STATE"
}

// InitialState returns the state a freshly restarted session begins
// in: ANSWERING if it answered the call, T if it placed it.
func InitialState(role Role) State {
	if role == RoleAnswering {
		return StateAnswering
	}
	return StateT
}

// awaitingResponse is the set of states in which a T4 expiry means
// "the last command went unanswered, retry it" rather than something
// else (spec.md §4.5 "Retries").
var awaitingResponse = map[State]bool{
	StateIIQ:      true,
	StateIVPPSNull: true,
	StateIVPPSQ:    true,
	StateIVPPSRNR:  true,
	StateDPostTCF: true,
	StateR:        true,
	StateFFTT:     true,
	StateFCFR:     true,
	StateIIIQMCF:  true,
	StateIIIQRTP:  true,
	StateIIIQRTN:  true,
}

// AwaitingResponse reports whether s is one of the states where a T4
// timeout triggers a retry of the last command rather than some other
// timer-specific handling.
func AwaitingResponse(s State) bool {
	return awaitingResponse[s]
}
