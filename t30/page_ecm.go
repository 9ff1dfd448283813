package t30

import (
	"github.com/doismellburning/faxt30/ecm"
	"github.com/doismellburning/faxt30/hdlc"
)

// ppsStepNull marks a PPS whose block is not the last of the page: no
// post-page operation follows it (spec.md §6 "PPS wire format... fcf2
// (page-end step or NULL)").
const ppsStepNull = 0x00

// pps is the decoded payload of a PPS control frame.
type pps struct {
	Step        byte // ppsStepNull, or hdlc.FCFMPS/FCFEOM/FCFEOP (as a byte)
	Page        byte
	Block       byte
	FrameCountM1 byte // frames-in-burst minus one, 0xFF if zero frames
}

func buildPPS(p pps) []byte {
	return []byte{p.Step, p.Page, p.Block, p.FrameCountM1}
}

func parsePPS(payload []byte) pps {
	var p pps
	if len(payload) > 0 {
		p.Step = payload[0]
	}
	if len(payload) > 1 {
		p.Page = payload[1]
	}
	if len(payload) > 2 {
		p.Block = payload[2]
	}
	if len(payload) > 3 {
		p.FrameCountM1 = payload[3]
	}
	return p
}

// frameCount decodes FrameCountM1 back into a count, handling the
// wrap-to-0xFF-for-zero-frames rule (spec.md §4.4 "If frame-count = 0
// wrap to 0xFF in the wire field").
func (p pps) frameCount() int {
	if p.FrameCountM1 == 0xFF {
		return 0
	}
	return int(p.FrameCountM1) + 1
}

func frameCountM1(frames int) byte {
	if frames == 0 {
		return 0xFF
	}
	return byte(frames - 1)
}

// beginECMTransmit starts a fresh page: resets the pending-bytes
// buffer, fills the ECM buffer with the page's first block, and sends
// the first burst (spec.md §4.4 "Fill-for-transmit" / "Send-burst").
func (s *Session) beginECMTransmit() {
	s.setState(StateIV)
	s.setPhase(PhaseCECMTX)
	s.ecmRetry.Reset()
	s.BlockNumber = 0
	s.ecmPending = nil
	s.ecmSourceDone = false
	s.fillNextECMBlock()
}

// fillNextECMBlock pulls one block's worth of page data (at most
// ecm.Slots frames) and loads it into the transmit buffer, then sends
// it. A page longer than one block's worth of frames is split across
// successive blocks, each with its own PPS (spec.md §4.4 "Partial-page
// buffer... 256 slots"; a page is not required to fit in one).
func (s *Session) fillNextECMBlock() {
	data, lastOfPage := s.pullECMBlock(s.ecmOctetsPerFrame())
	s.ecmBlockLastOfPage = lastOfPage
	frames, err := ecm.Fill(s.ecmTxBuf, data, s.ecmOctetsPerFrame())
	if err != nil {
		s.log.Error("ECM fill failed", "err", err)
		s.setStatus(StatusBadPageTX)
		s.sendDCN(StatusBadPageTX)
		return
	}
	s.ecmFrames = frames
	s.sendECMBurst()
}

// pullECMBlock drains the page source into s.ecmPending until it holds
// enough octets for a full block (ecm.Slots frames) or the source runs
// out, then slices off exactly one block's worth. Leftover bytes carry
// over to the next call, so a page of arbitrary length is chopped into
// fixed-size blocks regardless of the source's own chunk sizes.
func (s *Session) pullECMBlock(frameOctets int) (block []byte, lastOfPage bool) {
	maxBytes := ecm.Slots * frameOctets
	for len(s.ecmPending) < maxBytes && !s.ecmSourceDone {
		if s.collaborators.Source == nil {
			s.ecmSourceDone = true
			break
		}
		chunk, last := s.collaborators.Source.NextChunk(ecm.MaxFrameOctets)
		s.ecmPending = append(s.ecmPending, chunk...)
		if last {
			s.ecmSourceDone = true
		}
	}
	n := maxBytes
	if n > len(s.ecmPending) {
		n = len(s.ecmPending)
	}
	block = s.ecmPending[:n]
	s.ecmPending = s.ecmPending[n:]
	return block, s.ecmSourceDone && len(s.ecmPending) == 0
}

func (s *Session) ecmOctetsPerFrame() int {
	if s.ECMFrameSize == 64 {
		return 64
	}
	return 256
}

// sendECMBurst sends every filled slot as FCD, three RCP frames, then
// the PPS command for the current block.
func (s *Session) sendECMBurst() {
	burst, err := ecm.BuildBurst(s.ecmTxBuf, s.ecmFrames, s.disReceived)
	if err != nil {
		s.log.Error("ECM burst build failed", "err", err)
		s.setStatus(StatusECMPhdTX)
		s.sendDCN(StatusECMPhdTX)
		return
	}
	for _, f := range burst {
		s.send(f)
	}

	step := byte(ppsStepNull)
	if s.ecmBlockLastOfPage {
		step = s.pageEndStep()
	}
	payload := pps{
		Step:         step,
		Page:         byte(s.PageNumber),
		Block:        byte(s.BlockNumber),
		FrameCountM1: frameCountM1(s.ecmFrames),
	}
	// Committed before the PPS goes out: a synchronous MCF/PPR reply
	// must see us already waiting in IV_PPS_*, not still in IV.
	target := StateIVPPSQ
	if step == ppsStepNull {
		target = StateIVPPSNull
	}
	s.setState(target)
	s.send(hdlc.Frame{
		Header:  hdlc.NewHeader(hdlc.FCFPPS, s.disReceived, true),
		Payload: buildPPS(payload),
	})
	if s.State != target {
		// A synchronous reply already moved us on (a retry burst, a
		// rate fallback, or a disconnect) before we got back here.
		return
	}
	s.armResponseTimer()
}

// handleIVPPS is the sender's wait for MCF/PPR/RNR/CTC after a PPS
// (states IV_PPS_NULL/Q/RNR).
func (s *Session) handleIVPPS(f hdlc.Frame) {
	switch f.Header.FCF.Base() {
	case hdlc.FCFMCF:
		s.onECMBlockAcknowledged()
	case hdlc.FCFPPR:
		s.onPPRReceived(f.Payload)
	case hdlc.FCFRNR:
		s.setState(StateIVPPSRNR)
		s.armResponseTimer()
	case hdlc.FCFRR:
		s.sendSimple(hdlc.FCFERR, true)
	default:
		s.handleUnexpectedFinal(f)
	}
}

// onECMBlockAcknowledged handles MCF for the current burst: either the
// block just confirmed was the page's last (the PPS step said so) and
// the transfer moves on past Phase D, or another block of the same
// page follows.
func (s *Session) onECMBlockAcknowledged() {
	s.ecmRetry.Reset()
	if s.ecmBlockLastOfPage {
		s.onPageAcknowledged(true)
		return
	}
	s.BlockNumber++
	s.fillNextECMBlock()
}

// pageEndStep decides the PPS step for a page's final block: MPS/EOM
// if another page follows (depending on whether phase B is revisited),
// EOP if the call ends here. This repo always uses MPS for "more pages,
// no facility renegotiation", matching TransmitComplete's own choice
// on the non-ECM path.
func (s *Session) pageEndStep() byte {
	more := s.collaborators.Document != nil && s.collaborators.Document.HasMorePages()
	if !more {
		return byte(hdlc.FCFEOP)
	}
	return byte(hdlc.FCFMPS)
}

// onPPRReceived applies the retry policy and either retransmits the
// still-missing slots, falls back a rate (CTC), or gives up (EOR).
func (s *Session) onPPRReceived(payload []byte) {
	p := ecm.ParsePPR(payload)
	bad := p.Count()
	outcome := s.ecmRetry.Observe(bad)
	if s.collaborators.Metrics != nil {
		s.collaborators.Metrics.IncPPR()
	}
	switch outcome {
	case ecm.OutcomeRetry:
		p.Apply(s.ecmTxBuf, s.ecmFrames)
		s.sendECMBurst()
	case ecm.OutcomeCTC:
		if s.collaborators.Metrics != nil {
			s.collaborators.Metrics.IncFallback()
		}
		s.setState(StateIVCTC)
		s.sendSimple(hdlc.FCFCTC, true)
		if s.State != StateIVCTC {
			return
		}
		s.armResponseTimer()
	case ecm.OutcomeEOR:
		s.setState(StateEOR)
		s.sendSimple(hdlc.FCFEOR, true)
		if s.State != StateEOR {
			return
		}
		s.armResponseTimer()
	}
}

// handleIVCTC is the sender's wait for CTR after requesting a rate
// fallback retrain mid-block.
func (s *Session) handleIVCTC(f hdlc.Frame) {
	if f.Header.FCF.Base() != hdlc.FCFCTR {
		s.handleUnexpectedFinal(f)
		return
	}
	idx := NextCompatible(s.currentFallback, s.localFallbackMask()&s.remoteFallbackMask())
	if idx < 0 {
		s.setStatus(StatusCannotTrain)
		s.sendDCN(StatusCannotTrain)
		return
	}
	s.currentFallback = idx
	s.ecmRetry.Reset()
	s.beginTCFTransmit()
}

// --- Receive side ---

// handleFDocECM is the receive-side F_DOC_ECM handler: FCD frames
// arrive via HDLCAccept like any other control frame, since
// ECM carries image data as control-channel frames rather than a raw
// modem bit stream (spec.md §4.4's frames are HDLC-framed).
func (s *Session) handleFDocECM(f hdlc.Frame) {
	switch f.Header.FCF.Base() {
	case hdlc.FCFFCD:
		frameNo, data, err := ecm.ParseFCD(f.Payload)
		if err != nil {
			s.log.Warn("bad FCD frame", "err", err)
			return
		}
		if err := s.ecmRxBuf.Put(frameNo, data); err != nil {
			s.log.Warn("FCD frame number out of range", "frameNo", frameNo)
		}
	case hdlc.FCFRCP:
		// End of burst marker; PPS (sent as a separate final frame)
		// carries the actual frame count to check against.
	case hdlc.FCFPPS:
		s.onPPSReceived(f.Payload)
	default:
		s.handleUnexpectedFinal(f)
	}
}

// onPPSReceived builds the missing-slot bitmap and responds per
// spec.md §4.4 "Receive state": RNR first if deferred, else MCF (and
// commit) or PPR.
func (s *Session) onPPSReceived(payload []byte) {
	req := parsePPS(payload)
	frames := req.frameCount()

	if s.receiverNotReadyCount > 0 {
		s.receiverNotReadyCount--
		s.setState(StateFPostRCPRNR)
		s.sendSimple(hdlc.FCFRNR, true)
		return
	}

	if s.ecmRxBuf.Complete(frames) {
		s.commitECMBlock(frames)
		// Committed before MCF goes out: a synchronous DCN (the far
		// end ending the call right after this ack) must see us
		// already past F_DOC_ECM, not still there.
		s.setState(StateFPostRCPMCF)
		s.sendSimple(hdlc.FCFMCF, true)
		if s.State != StateFPostRCPMCF {
			// A synchronous cascade (the far end's next burst, or a
			// disconnect) already moved this session past this point —
			// a recursive call already handled (or will handle) req.
			return
		}
		s.handleECMPageStep(req)
		return
	}

	ppr := ecm.BuildPPR(s.ecmRxBuf, frames)
	s.setState(StateFPostRCPPPR)
	s.send(hdlc.Frame{
		Header:  hdlc.NewHeader(hdlc.FCFPPR, s.disReceived, true),
		Payload: ppr.Bytes(),
	})
}

// commitECMBlock feeds every filled slot to the page sink in ascending
// order and resets the buffer for the next block (spec.md §4.4
// "Commit-on-receive").
func (s *Session) commitECMBlock(frames int) {
	if s.collaborators.Sink != nil {
		for i := 0; i < frames; i++ {
			if data, ok := s.ecmRxBuf.Get(i); ok {
				if err := s.collaborators.Sink.PutChunk(data); err != nil {
					s.log.Warn("page sink error", "err", err)
				}
			}
		}
	}
	s.ecmRxBuf.Reset()
	s.BlockNumber++
}

// handleECMPageStep acts on a completed block's PPS step: NULL means
// more blocks follow in the same page; otherwise the page (and
// possibly the call) is over.
func (s *Session) handleECMPageStep(req pps) {
	switch req.Step {
	case ppsStepNull:
		s.setState(StateFDocECM)
	case byte(hdlc.FCFMPS):
		s.PageNumber++
		s.setState(StateFDocECM)
	case byte(hdlc.FCFEOP):
		s.PageNumber++
		s.sendDCN(StatusOK)
	case byte(hdlc.FCFEOM):
		s.PageNumber++
		s.EnterPhaseB()
	}
}

// handleFPostDoc covers F_POST_DOC_ECM/NON_ECM, the receiver's
// momentary position between "page image fully received" and "quality
// response sent": commitECMBlock/finishNonECMPage move straight on to
// F_POST_RCP_*/III_Q_* before another frame could plausibly arrive
// here, so any frame actually dispatched to this state is unexpected.
func (s *Session) handleFPostDoc(f hdlc.Frame) {
	s.handleUnexpectedFinal(f)
}

// handleFPostRCP covers F_POST_RCP_MCF/PPR/RNR: CRP repeats the last
// command, FNV is logged, and FCD, PPS and RCP (the next block's burst,
// or the resend burst after a PPR) are passed to handleFDocECM rather
// than treated as unexpected. Every other frame goes to
// handleUnexpectedFinal.
func (s *Session) handleFPostRCP(f hdlc.Frame) {
	switch f.Header.FCF.Base() {
	case hdlc.FCFCRP:
		s.RepeatLastCommand()
	case hdlc.FCFFNV:
		s.log.Warn("far end reports field not valid")
	case hdlc.FCFFCD, hdlc.FCFPPS, hdlc.FCFRCP:
		s.handleFDocECM(f)
	default:
		s.handleUnexpectedFinal(f)
	}
}
