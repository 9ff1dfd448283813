package t30

import (
	"github.com/doismellburning/faxt30/capability"
	"github.com/doismellburning/faxt30/hdlc"
)

// capabilityToHDLC splits a built capability.Frame's wire image into
// an hdlc.Frame (header + payload), since capability.Frame stores the
// three header bytes inline while hdlc.Frame keeps them separate.
func capabilityToHDLC(f *capability.Frame) hdlc.Frame {
	raw := f.Bytes[:f.Len]
	h, err := hdlc.ParseHeader(raw)
	if err != nil {
		// capability.New always writes a valid address/control pair;
		// this can only happen if that invariant is broken elsewhere.
		panic(err)
	}
	return hdlc.Frame{Header: h, Payload: append([]byte(nil), raw[3:]...)}
}

// hdlcToCapability reassembles a received hdlc.Frame carrying a
// DIS/DTC/DCS back into the single byte image capability.Parse wants.
func hdlcToCapability(f hdlc.Frame) *capability.Frame {
	raw := make([]byte, 3+len(f.Payload))
	hb := f.Header.Bytes()
	copy(raw, hb[:])
	copy(raw[3:], f.Payload)
	return capability.Parse(raw)
}

// buildLocalDIS renders this station's capability frame (DIS when
// answering, DTC when calling with nothing to send and requesting a
// poll — this repo always offers DIS, since both sides advertise
// receive capability even when only one is about to transmit).
func (s *Session) buildLocalDIS() *capability.Frame {
	p := s.LocalCaps.Params
	p.ReadyToReceive = true
	f := p.Apply(capability.DIS, true)
	s.disDTCFrame = f
	return f
}

// sendIdentityPreamble emits the non-final identity frames that
// precede DIS/DCS (NSF/CSI for the answerer, PWD/SUB/TSI for the
// caller), per spec.md §4.5 "The answerer builds DIS (optionally
// prefixed by NSF and CSI)" / "the caller ... sends (PWD)(SUB)(TSI)
// DCS".
func (s *Session) sendIdentityPreamble(csiOrTsi hdlc.FCF) {
	if s.Local.NonStandardFacility != nil {
		nsf := hdlc.Frame{
			Header:  hdlc.NewHeader(hdlc.FCFNSF, s.disReceived, false),
			Payload: append([]byte{s.Local.NonStandardFacility.Country, s.Local.NonStandardFacility.Vendor}, s.Local.NonStandardFacility.Payload...),
		}
		s.send(nsf)
	}
	if s.Local.Password != "" {
		s.sendIdentity(hdlc.FCFPWD, s.Local.Password)
	}
	if s.Local.Subaddress != "" {
		s.sendIdentity(hdlc.FCFSUB, s.Local.Subaddress)
	}
	if s.Local.ID != "" {
		s.sendIdentity(csiOrTsi, s.Local.ID)
	}
}

func (s *Session) sendIdentity(fcf hdlc.FCF, id string) {
	wire, err := capability.BuildIdentity20(byte(hdlc.WithResponseBit(fcf, s.disReceived)), false, id)
	if err != nil {
		s.log.Warn("identity string too long, dropping", "fcf", fcf, "id", id)
		return
	}
	frame, parseErr := hdlc.ParseHeader(wire[:3])
	if parseErr != nil {
		panic(parseErr)
	}
	s.send(hdlc.Frame{Header: frame, Payload: wire[3:]})
}

// EnterPhaseB transitions into capability exchange: the answerer
// sends its identity preamble then DIS and waits in R; the caller
// waits in T for the answerer's DIS/DTC (spec.md §4.5 "Phases A → B").
func (s *Session) EnterPhaseB() {
	if s.Role == RoleAnswering {
		s.setPhase(PhaseBTX)
		s.sendIdentityPreamble(hdlc.FCFCSI)
		// State commits to R before DIS goes out: a peer that replies
		// synchronously must find us already waiting here, not still
		// showing whatever state preceded phase B.
		s.setState(StateR)
		s.send(capabilityToHDLC(s.buildLocalDIS()))
		if s.State != StateR {
			// A synchronous reply already moved us on (into TCF receive,
			// or ended the call outright) before we got back here.
			return
		}
		s.setPhase(PhaseBRX)
		s.armResponseTimer()
		return
	}
	s.setPhase(PhaseBRX)
	s.setState(StateT)
	s.armResponseTimer()
}

// handleT is the caller's wait for DIS/DTC (state T).
func (s *Session) handleT(f hdlc.Frame) {
	switch f.Header.FCF.Base() {
	case hdlc.FCFDIS, hdlc.FCFDTC:
		s.onRemoteCapability(f)
	case hdlc.FCFCSI:
		// The answerer's identity, sent ahead of DIS; OnPhaseB reports it.
		if id, err := capability.ParseIdentity20(f.Payload); err == nil {
			s.RemoteID = id
		}
	default:
		s.handleUnexpectedFinal(f)
	}
}

// handleR is the answerer's wait for DCS (state R).
func (s *Session) handleR(f hdlc.Frame) {
	switch f.Header.FCF.Base() {
	case hdlc.FCFCSI, hdlc.FCFCIG, hdlc.FCFTSI, hdlc.FCFNSF, hdlc.FCFNSC,
		hdlc.FCFNSS, hdlc.FCFSUB, hdlc.FCFSID, hdlc.FCFPWD:
		// identity preamble frame, non-final: absorb it and keep waiting.
	case hdlc.FCFDCS:
		s.onRemoteDCS(f)
	default:
		s.handleUnexpectedFinal(f)
	}
}

// onRemoteCapability handles a received DIS/DTC: remembers the
// remote's Params, selects a compatible resolution and fallback-table
// entry, and sends the local DCS sequence (spec.md §4.5 "Phase B,
// capability exchange").
func (s *Session) onRemoteCapability(f hdlc.Frame) {
	cf := hdlcToCapability(f)
	s.RemoteDIS = capability.ParseParams(cf)
	if s.collaborators.Phase != nil {
		s.collaborators.Phase.OnPhaseB(s.RemoteID)
	}

	if !s.selectResolution() {
		return // status + DCN already sent by selectResolution
	}

	idx := s.selectFallback()
	if idx < 0 {
		s.setStatus(StatusIncompatible)
		s.sendDCN(StatusIncompatible)
		return
	}
	s.currentFallback = idx

	s.setPhase(PhaseBTX)
	s.sendIdentityPreamble(hdlc.FCFTSI)
	// beginTCFTransmit commits state/phase to D_TCF before the DCS frame
	// goes out, so a synchronous CFR/FTT reply finds us already there
	// instead of still in T.
	s.beginTCFTransmit()
	s.send(capabilityToHDLC(s.buildDCS()))
}

// selectResolution picks the lowest-bit resolution/width/length DIS
// advertises that the local page also supports, or sends DCN with
// NORESSUPPORT/NOSIZESUPPORT (spec.md §4.5). This repo keeps local
// capability and page requirements identical (LocalCaps.Params is both
// "what I can do" and "what my outgoing page needs"), so the check
// degenerates to "does DIS admit everything I require".
func (s *Session) selectResolution() bool {
	want := s.LocalCaps.Params
	got := s.RemoteDIS
	if want.ResolutionY && !got.ResolutionY {
		s.setStatus(StatusNoResSupport)
		s.sendDCN(StatusNoResSupport)
		return false
	}
	if (want.Width255mm && !got.Width255mm) || (want.Width303mm && !got.Width303mm) {
		s.setStatus(StatusNoSizeSupport)
		s.sendDCN(StatusNoSizeSupport)
		return false
	}
	return true
}

// selectFallback returns the highest fallback-table entry both the
// remote DIS and local capability/ceiling admit.
func (s *Session) selectFallback() int {
	localMask := s.localFallbackMask()
	idx := HighestCompatible(s.remoteFallbackMask(), localMask)
	if idx < 0 || idx > s.LocalCaps.FallbackCeiling {
		return -1
	}
	return idx
}

func (s *Session) remoteFallbackMask() int {
	var m int
	if s.RemoteDIS.ModemV29 {
		m |= capV29
	}
	if s.RemoteDIS.ModemV27ter {
		m |= capV27ter
	}
	if s.RemoteDIS.ModemV17 {
		m |= capV17
	}
	return m
}

func (s *Session) localFallbackMask() int {
	p := s.LocalCaps.Params
	var m int
	if p.ModemV29 {
		m |= capV29
	}
	if p.ModemV27ter {
		m |= capV27ter
	}
	if p.ModemV17 {
		m |= capV17
	}
	return m
}

// buildDCS renders the negotiated-parameters frame for the currently
// selected fallback entry.
func (s *Session) buildDCS() *capability.Frame {
	p := s.LocalCaps.Params
	entry := FallbackTable[s.currentFallback]
	p.ModemV29 = entry.Modem == ModemV29
	p.ModemV27ter = entry.Modem == ModemV27ter
	p.ModemV17 = entry.Modem == ModemV17
	// ECM is used only if both ends offer it; the caller's page transfer
	// (beginPageTransmit) follows the same flag the DCS announces.
	s.ECMMode = p.ECMSupported && s.RemoteDIS.ECMSupported
	p.ECMSupported = s.ECMMode
	p.ECMFrameSize64 = s.ECMFrameSize == 64
	f := p.Apply(capability.DCS, true)
	s.dcsFrame = f
	return f
}

// onRemoteDCS handles a received DCS (answerer side): records the
// negotiated parameters and begins the trainability test receive path
// (spec.md §4.5 "Trainability test (TCF)").
func (s *Session) onRemoteDCS(f hdlc.Frame) {
	cf := hdlcToCapability(f)
	s.RemoteDIS = capability.ParseParams(cf) // DCS reuses the same bit layout as DIS/DTC
	s.ECMMode = s.RemoteDIS.ECMSupported && s.LocalCaps.Params.ECMSupported
	if s.RemoteDIS.ECMFrameSize64 {
		s.ECMFrameSize = 64
	} else {
		s.ECMFrameSize = 256
	}
	idx := fallbackIndexForDCSBits(s.RemoteDIS)
	if idx < 0 {
		s.setStatus(StatusBadDCSTX)
		s.sendDCN(StatusBadDCSTX)
		return
	}
	s.currentFallback = idx
	s.setStatus(StatusGotDCSRX)
	s.beginTCFReceive()
}

// fallbackIndexForDCSBits re-derives the negotiated fallback entry
// from a received DCS's modem bits, since DCS doesn't carry the index
// directly.
func fallbackIndexForDCSBits(p capability.Params) int {
	for i, e := range FallbackTable {
		switch e.Modem {
		case ModemV29:
			if p.ModemV29 {
				return i
			}
		case ModemV27ter:
			if p.ModemV27ter {
				return i
			}
		case ModemV17:
			if p.ModemV17 {
				return i
			}
		}
	}
	return -1
}
