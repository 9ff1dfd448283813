package hdlc

// Simple reports whether f's frame type carries no payload beyond the
// three-byte header: acknowledgement and post-message-block control
// frames that are pure signals (spec.md §6). Capability (DIS/DTC/DCS),
// identity (CSI/CIG/TSI/...), PPS, PPR, EOR, FCD and NSF/NSC/NSS all
// carry a payload and are not simple.
func Simple(f FCF) bool {
	switch f.Base() {
	case FCFCFR, FCFFTT, FCFCTR,
		FCFEOM, FCFMPS, FCFEOP, FCFPRIEOM, FCFPRIMPS, FCFPRIEOP, FCFEOS,
		FCFRR, FCFCTC,
		FCFMCF, FCFRTP, FCFRTN, FCFPIP, FCFPIN, FCFRNR, FCFERR,
		FCFDCN, FCFCRP, FCFFNV, FCFTNR, FCFTR,
		FCFRCP:
		return true
	default:
		return false
	}
}

// PostMessageCommand reports whether f is one of the post-message-
// block command frames a transmitter sends after a page or partial
// page: MPS, EOP, EOM and their priority/ECM-partial-page variants.
func PostMessageCommand(f FCF) bool {
	switch f.Base() {
	case FCFMPS, FCFEOP, FCFEOM, FCFPRIEOM, FCFPRIMPS, FCFPRIEOP, FCFEOS, FCFPPS:
		return true
	default:
		return false
	}
}
