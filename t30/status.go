package t30

// Status is the outward, user-visible result taxonomy a call ends (or
// passes through) with. It is not a Go error: collaborator boundaries
// (HDLC/modem/page I/O) use plain `error`; Status is the protocol-level
// code the phase-E callback receives exactly once per call, matching
// t30.c's s->rx_status/s->tx_status and t30_get_current_status.
type Status int

const (
	StatusOK Status = iota

	// Setup
	StatusCedTone
	StatusT0Expired
	StatusT1Expired
	StatusHDLCCarrier

	// Negotiation
	StatusCannotTrain
	StatusIncompatible
	StatusRXIncapable
	StatusTXIncapable
	StatusNoResSupport
	StatusNoSizeSupport

	// Transmit
	StatusBadDCSTX
	StatusBadPageTX
	StatusECMPhdTX
	StatusT5Expired
	StatusGotDCNTX
	StatusInvalidResponseTX
	StatusNoDISTX
	StatusPhaseBDeadTX
	StatusPhaseDDeadTX

	// Receive
	StatusECMPhdRX
	StatusGotDCSRX
	StatusInvalidCommandRX
	StatusNoCarrierRX
	StatusNoEOLRX
	StatusNoFaxRX
	StatusT2ExpDCNRX
	StatusT2ExpDRX
	StatusT2ExpFaxRX
	StatusT2ExpMPSRX
	StatusT2ExpRRRX
	StatusT2ExpRX
	StatusDCNWhyRX
	StatusDCNDataRX
	StatusDCNFaxRX
	StatusDCNPhdRX
	StatusDCNRRDRX
	StatusDCNNoRTNRX
	StatusT3Expired

	// File/protocol
	StatusFileError
	StatusNoPage
	StatusBadTIFF
	StatusBadPage
	StatusBadTag
	StatusBadTIFFHeader
	StatusNoData
	StatusNoMemory
	StatusNoPoll
	StatusRetryDCN
	StatusCallDropped
	StatusUnexpected
)

var statusNames = map[Status]string{
	StatusOK:                  "OK",
	StatusCedTone:             "CEDTONE",
	StatusT0Expired:           "T0_EXPIRED",
	StatusT1Expired:           "T1_EXPIRED",
	StatusHDLCCarrier:         "HDLC_CARRIER",
	StatusCannotTrain:         "CANNOT_TRAIN",
	StatusIncompatible:        "INCOMPATIBLE",
	StatusRXIncapable:         "RX_INCAPABLE",
	StatusTXIncapable:         "TX_INCAPABLE",
	StatusNoResSupport:        "NORESSUPPORT",
	StatusNoSizeSupport:       "NOSIZESUPPORT",
	StatusBadDCSTX:            "BADDCSTX",
	StatusBadPageTX:           "BADPGTX",
	StatusECMPhdTX:            "ECMPHDTX",
	StatusT5Expired:           "T5_EXPIRED",
	StatusGotDCNTX:            "GOTDCNTX",
	StatusInvalidResponseTX:   "INVALRSPTX",
	StatusNoDISTX:             "NODISTX",
	StatusPhaseBDeadTX:        "PHBDEADTX",
	StatusPhaseDDeadTX:        "PHDDEADTX",
	StatusECMPhdRX:            "ECMPHDRX",
	StatusGotDCSRX:            "GOTDCSRX",
	StatusInvalidCommandRX:    "INVALCMDRX",
	StatusNoCarrierRX:         "NOCARRIERRX",
	StatusNoEOLRX:             "NOEOLRX",
	StatusNoFaxRX:             "NOFAXRX",
	StatusT2ExpDCNRX:          "T2EXPDCNRX",
	StatusT2ExpDRX:            "T2EXPDRX",
	StatusT2ExpFaxRX:          "T2EXPFAXRX",
	StatusT2ExpMPSRX:          "T2EXPMPSRX",
	StatusT2ExpRRRX:           "T2EXPRRRX",
	StatusT2ExpRX:             "T2EXPRX",
	StatusDCNWhyRX:            "DCNWHYRX",
	StatusDCNDataRX:           "DCNDATARX",
	StatusDCNFaxRX:            "DCNFAXRX",
	StatusDCNPhdRX:            "DCNPHDRX",
	StatusDCNRRDRX:            "DCNRRDRX",
	StatusDCNNoRTNRX:          "DCNNORTNRX",
	StatusT3Expired:           "T3_EXPIRED",
	StatusFileError:           "FILEERROR",
	StatusNoPage:              "NOPAGE",
	StatusBadTIFF:             "BADTIFF",
	StatusBadPage:             "BADPAGE",
	StatusBadTag:              "BADTAG",
	StatusBadTIFFHeader:       "BADTIFFHDR",
	StatusNoData:              "NODATA",
	StatusNoMemory:            "NOMEM",
	StatusNoPoll:              "NOPOLL",
	StatusRetryDCN:            "RETRYDCN",
	StatusCallDropped:         "CALLDROPPED",
	StatusUnexpected:          "UNEXPECTED",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "UNKNOWN_STATUS"
}
