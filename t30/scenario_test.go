package t30

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/doismellburning/faxt30/capability"
	"github.com/doismellburning/faxt30/ecm"
	"github.com/doismellburning/faxt30/hdlc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() *log.Logger {
	l := log.New(nil)
	l.SetLevel(log.FatalLevel + 1)
	return l
}

// v29OnlyParams returns capability bits admitting only the V.29 modem
// family, forcing the fallback table to land on the 9600bps V.29 row
// (spec.md §8 scenario A).
func v29OnlyParams() capability.Params {
	return capability.Params{
		ModemV29:       true,
		ReadyToReceive: true,
	}
}

func v27ter4800OnlyParams() capability.Params {
	return capability.Params{
		ModemV27ter:    true,
		ReadyToReceive: true,
	}
}

func v17OnlyParams() capability.Params {
	return capability.Params{
		ModemV17:       true,
		ReadyToReceive: true,
	}
}

func ecmParams() capability.Params {
	return capability.Params{
		ModemV29:       true,
		ReadyToReceive: true,
		ECMSupported:   true,
	}
}

// testPair wires a calling and an answering Session together with
// in-process HDLC forwarding, matching the single-process test harness
// spec.md §9 calls for ("tests supply mocks").
type testPair struct {
	caller, answerer     *Session
	callerSource         *bufferPageSource
	answererSink         *bufferPageSink
	callerPhase, answererPhase *recordingPhase
}

func newTestPair(t *testing.T, params capability.Params, pageData []byte) *testPair {
	t.Helper()

	tp := &testPair{
		callerSource:  &bufferPageSource{data: pageData, step: 64},
		answererSink:  &bufferPageSink{},
		callerPhase:   &recordingPhase{},
		answererPhase: &recordingPhase{},
	}

	tp.caller = New(RoleCalling, LocalIdentity{ID: "15551234567"}, Capabilities{Params: params}, Collaborators{
		Modem:    &mockModem{},
		Source:   tp.callerSource,
		Document: &fixedDocument{remaining: []bool{false}},
		Phase:    tp.callerPhase,
	}, silentLogger())

	tp.answerer = New(RoleAnswering, LocalIdentity{ID: "15557654321"}, Capabilities{Params: params}, Collaborators{
		Modem:    &mockModem{},
		Sink:     tp.answererSink,
		Document: &fixedDocument{remaining: []bool{false}},
		Phase:    tp.answererPhase,
	}, silentLogger())

	tp.caller.collaborators.HDLC = &pipeHDLC{peer: tp.answerer}
	tp.answerer.collaborators.HDLC = &pipeHDLC{peer: tp.caller}

	tp.caller.Restart()
	tp.answerer.Restart()
	return tp
}

// negotiateAndTrain drives phases A/B and the TCF burst to completion,
// leaving both sides past trainability: the caller ready to transmit a
// page (StateI or StateIV), the answerer ready to receive one.
func (tp *testPair) negotiateAndTrain(t *testing.T) {
	t.Helper()
	tp.answerer.FrontEndStatus(SignalPresent)
	require.Equal(t, StateDTCF, tp.caller.State, "caller should be sending TCF after DCS")
	require.Equal(t, StateFTCF, tp.answerer.State, "answerer should be receiving TCF")

	driveNonECM(tp.caller, tp.answerer, 512)
}

func TestScenarioA_MinimumCallCallingSide(t *testing.T) {
	page := make([]byte, 300)
	for i := range page {
		page[i] = byte(i)
	}
	tp := newTestPair(t, v29OnlyParams(), page)

	tp.negotiateAndTrain(t)

	require.Equal(t, StateI, tp.caller.State)
	require.Equal(t, StateFDocNonECM, tp.answerer.State)
	assert.Equal(t, ModemV29, FallbackTable[tp.caller.currentFallback].Modem)
	assert.Equal(t, 9600, FallbackTable[tp.caller.currentFallback].BitsPerSecond)

	driveNonECM(tp.caller, tp.answerer, 64)

	assert.Equal(t, StateCallFinished, tp.caller.State)
	assert.Equal(t, StateCallFinished, tp.answerer.State)
	assert.Equal(t, StatusOK, tp.caller.CurrentStatus())
	assert.Equal(t, page, tp.answererSink.buf.Bytes())
	assert.Len(t, tp.callerPhase.eStatus, 1, "phase-E callback fires exactly once")
	assert.Equal(t, StatusOK, tp.callerPhase.eStatus[0])
	assert.Len(t, tp.answererPhase.eStatus, 1)
}

func TestScenarioB_AnsweringSideGoodPage(t *testing.T) {
	page := []byte("a non-ecm page of scanned image data, good quality")
	tp := newTestPair(t, v27ter4800OnlyParams(), page)
	tp.answererSink.badRows = 0.01

	tp.negotiateAndTrain(t)
	assert.Equal(t, ModemV27ter, FallbackTable[tp.caller.currentFallback].Modem)
	assert.Equal(t, 4800, FallbackTable[tp.caller.currentFallback].BitsPerSecond)

	driveNonECM(tp.caller, tp.answerer, 32)

	assert.Equal(t, page, tp.answererSink.buf.Bytes())
	assert.Equal(t, StatusOK, tp.answerer.CurrentStatus())
	assert.Equal(t, StateCallFinished, tp.answerer.State)
}

// TestScenarioC_FallbackOnFailedTraining exercises a first TCF that
// fails to train (not enough zero bits at the selected rate): the
// sender immediately falls back one rate and retrains (spec.md §8
// scenario C), rather than retrying the failed rate.
func TestScenarioC_FallbackOnFailedTraining(t *testing.T) {
	page := []byte("short page")
	tp := newTestPair(t, v29OnlyParams(), page)

	tp.answerer.FrontEndStatus(SignalPresent)
	require.Equal(t, StateDTCF, tp.caller.State)
	require.Equal(t, 9600, FallbackTable[tp.caller.currentFallback].BitsPerSecond)

	// Simulate a too-short training burst: far fewer zero bits than a
	// full second at the selected rate requires.
	tp.answerer.tcfLongestRun = 7200
	tp.answerer.FrontEndStatus(SignalAbsent)

	assert.Equal(t, 7200, FallbackTable[tp.caller.currentFallback].BitsPerSecond)
	assert.Equal(t, ModemV29, FallbackTable[tp.caller.currentFallback].Modem)

	// Caller should have re-sent DCS at the new rate and be back in
	// D_TCF; finish training this time.
	require.Equal(t, StateDTCF, tp.caller.State)
	driveNonECM(tp.caller, tp.answerer, 512)

	require.Equal(t, StateI, tp.caller.State)
	require.Equal(t, StateFDocNonECM, tp.answerer.State)
}

// TestScenarioD_ECMMultiBlockPage drives a 257-frame ECM page (two
// blocks: 256 + 1) through to completion (spec.md §8 scenario D). The
// in-process harness forwards HDLC frames synchronously, so the whole
// multi-block exchange (FCD/RCP/PPS/MCF, twice) completes within one
// call; the block split itself is checked at the unit level below.
func TestScenarioD_ECMMultiBlockPage(t *testing.T) {
	page := make([]byte, 256*256+10) // 256 full frames + one 10-byte tail frame = 257 frames
	for i := range page {
		page[i] = byte(i)
	}
	tp := newTestPair(t, ecmParams(), page)
	tp.negotiateAndTrain(t)

	assert.Equal(t, StateCallFinished, tp.caller.State)
	assert.Equal(t, StateCallFinished, tp.answerer.State)
	assert.Equal(t, StatusOK, tp.caller.CurrentStatus())
	assert.Equal(t, page, tp.answererSink.buf.Bytes())
}

// TestECMBlockSplit_257FramesIntoTwoBlocks is the unit-level check of
// the multi-block split scenario D depends on: a page longer than one
// block's worth of frames is chopped into a full 256-frame block and a
// short tail block, in source-pull order.
func TestECMBlockSplit_257FramesIntoTwoBlocks(t *testing.T) {
	page := make([]byte, 256*256+10)
	for i := range page {
		page[i] = byte(i)
	}
	s := New(RoleCalling, LocalIdentity{}, Capabilities{Params: ecmParams()}, Collaborators{
		Source: &bufferPageSource{data: page, step: 256},
	}, silentLogger())
	s.Restart()
	s.ECMFrameSize = 256

	first, firstLast := s.pullECMBlock(256)
	assert.Len(t, first, 256*256)
	assert.False(t, firstLast)

	second, secondLast := s.pullECMBlock(256)
	assert.Len(t, second, 10)
	assert.True(t, secondLast)
}

// TestScenarioE_ECMMissingFrameRetransmit verifies that a PPR naming a
// single missing slot results in exactly that slot being retransmitted
// and nothing else (spec.md §8 scenario E), testing the receive and
// send handlers directly against a hand-built gap rather than via the
// full two-session cascade (which never actually drops a frame).
func TestScenarioE_ECMMissingFrameRetransmit(t *testing.T) {
	// Receive side: 99 of 100 frames present, slot 99 missing.
	recv := New(RoleAnswering, LocalIdentity{}, Capabilities{Params: ecmParams()}, Collaborators{
		Sink: &bufferPageSink{},
	}, silentLogger())
	recv.Restart()
	recv.setState(StateFDocECM)
	for i := 0; i < 100; i++ {
		if i == 99 {
			continue
		}
		require.NoError(t, recv.ecmRxBuf.Put(i, []byte{byte(i)}))
	}
	capture := &capturingHDLC{}
	recv.collaborators.HDLC = capture
	recv.onPPSReceived(buildPPS(pps{Step: byte(hdlc.FCFEOP), FrameCountM1: frameCountM1(100)}))

	require.Len(t, capture.sent, 1)
	require.Equal(t, hdlc.FCFPPR, capture.sent[0].Header.FCF.Base())
	ppr := ecm.ParsePPR(capture.sent[0].Payload)
	assert.True(t, ppr.Missing(99))
	assert.Equal(t, 1, ppr.Count())
	assert.Equal(t, StateFPostRCPPPR, recv.State)

	// Send side: retransmitting against that PPR should resend exactly
	// slot 99, then the RCP trio, then a PPS.
	send := New(RoleCalling, LocalIdentity{}, Capabilities{Params: ecmParams()}, Collaborators{}, silentLogger())
	send.Restart()
	send.setState(StateIVPPSQ)
	for i := 0; i < 100; i++ {
		require.NoError(t, send.ecmTxBuf.Put(i, []byte{byte(i)}))
	}
	send.ecmFrames = 100
	send.ecmBlockLastOfPage = true
	sendCapture := &capturingHDLC{}
	send.collaborators.HDLC = sendCapture

	send.onPPRReceived(ppr.Bytes())

	var fcdCount, rcpCount, ppsCount int
	var retransmitted []int
	for _, f := range sendCapture.sent {
		switch f.Header.FCF.Base() {
		case hdlc.FCFFCD:
			fcdCount++
			frameNo, _, err := ecm.ParseFCD(f.Payload)
			require.NoError(t, err)
			retransmitted = append(retransmitted, frameNo)
		case hdlc.FCFRCP:
			rcpCount++
		case hdlc.FCFPPS:
			ppsCount++
		}
	}
	assert.Equal(t, 1, fcdCount, "only the missing slot is retransmitted")
	assert.Equal(t, []int{99}, retransmitted)
	assert.Equal(t, ecm.RCPRepeats, rcpCount)
	assert.Equal(t, 1, ppsCount)
}

// capturingHDLC records every frame sent through it, for white-box
// assertions that don't need a live peer Session.
type capturingHDLC struct {
	sent []hdlc.Frame
}

func (c *capturingHDLC) SendHDLC(f hdlc.Frame) {
	c.sent = append(c.sent, f)
}

// TestIdempotence_RepeatLastCommand checks that repeat_last_command
// retransmits byte-for-byte without advancing state (spec.md §8
// "Idempotence").
func TestIdempotence_RepeatLastCommand(t *testing.T) {
	tp := newTestPair(t, v29OnlyParams(), []byte("x"))
	tp.answerer.FrontEndStatus(SignalPresent)

	capture := &capturingHDLC{}
	tp.caller.collaborators.HDLC = capture
	before := tp.caller.State
	tp.caller.RepeatLastCommand()
	after := tp.caller.State

	assert.Equal(t, before, after, "repeat_last_command must not advance state")
	require.Len(t, capture.sent, 1)
	assert.Equal(t, tp.caller.lastSent.Bytes(), capture.sent[0].Bytes())
}

// TestFallbackExhaustion_ThreeFTTsYieldsCannotTrain exercises the
// boundary behaviour of spec.md §8: starting from a fallback index
// with at least three compatible rows below it, three consecutive FTT
// responses disconnect with CANNOT_TRAIN.
func TestFallbackExhaustion_ThreeFTTsYieldsCannotTrain(t *testing.T) {
	tp := newTestPair(t, v17OnlyParams(), []byte("page"))

	tp.answerer.FrontEndStatus(SignalPresent)
	require.Equal(t, StateDTCF, tp.caller.State)
	require.Equal(t, 14400, FallbackTable[tp.caller.currentFallback].BitsPerSecond)

	for i := 0; i < MaxMessageTries && tp.caller.State != StateCallFinished; i++ {
		tp.answerer.tcfLongestRun = 0
		tp.answerer.FrontEndStatus(SignalAbsent)
	}

	assert.Equal(t, StateCallFinished, tp.caller.State)
	assert.Equal(t, StatusCannotTrain, tp.caller.CurrentStatus())
}

func TestTimerT4Exhaustion_ThreeRetriesYieldPhaseDDead(t *testing.T) {
	s := New(RoleCalling, LocalIdentity{}, Capabilities{Params: v29OnlyParams()}, Collaborators{}, silentLogger())
	s.Restart()
	s.setState(StateIIQ)
	s.armResponseTimer()

	durationSamples := msToSamples(DefaultT4Ms)
	for i := 0; i < MaxMessageTries; i++ {
		s.TimerUpdate(durationSamples + 1)
	}

	assert.Equal(t, StateCallFinished, s.State)
	assert.Equal(t, StatusPhaseDDeadTX, s.CurrentStatus())
}

func TestPhaseECallback_FiresExactlyOnceOnTerminate(t *testing.T) {
	phase := &recordingPhase{}
	s := New(RoleCalling, LocalIdentity{}, Capabilities{Params: v29OnlyParams()}, Collaborators{Phase: phase}, silentLogger())
	s.Restart()
	s.Terminate()
	s.Terminate()

	require.Len(t, phase.eStatus, 1)
	assert.Equal(t, StatusCallDropped, phase.eStatus[0])
}
