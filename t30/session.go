// Package t30 implements the ITU-T T.30 Group 3 fax session state
// machine: phases A-E, the six timers, capability negotiation, the
// trainability test, page transfer (both non-ECM and ECM), and call
// teardown.
//
// Grounded throughout on _examples/original_source/src/t30.c, restructured
// per the redesign notes: a dispatch table from State to handler
// replaces the source's switch-inside-switch, collaborators are
// capability-trait interfaces rather than opaque callback pointers,
// and the shared T2/T4 timer slot is a tagged union instead of a
// boolean selector.
package t30

import (
	"github.com/charmbracelet/log"
	"github.com/doismellburning/faxt30/capability"
	"github.com/doismellburning/faxt30/ecm"
	"github.com/doismellburning/faxt30/hdlc"
)

// MaxMessageTries is the retry budget for TCF and response-timeout
// retries (spec.md §4.5 "MAX_MESSAGE_TRIES (3)").
const MaxMessageTries = 3

// LocalIdentity carries this station's identity/addressing fields
// sent in DIS/DCS-adjacent identity frames (spec.md §3 Session
// attributes "local identity / subaddress / password / non-standard
// facility blob").
type LocalIdentity struct {
	ID                  string // CSI/CIG/TSI
	Subaddress          string // SUB
	Password            string // PWD
	NonStandardFacility *capability.NonStandardFacility
}

// Capabilities is the locally supported feature mask, used both to
// build the local DIS/DTC and to bound which fallback-table entries
// and DCS parameters this side will ever offer or accept.
type Capabilities struct {
	Params          capability.Params
	FallbackCeiling int // highest usable index into FallbackTable; defaults to len-1
}

// Statistics is the supplemented real-time transfer report (SPEC_FULL
// item 2). Only PagesTransferred is filled in, on the sending side as
// each page is acknowledged; the other fields are never set and stay
// zero.
type Statistics struct {
	PagesTransferred int
	TotalBadRows     int
	Compression      string
	ResolutionX      int
	ResolutionY      int
	BitsPerRow       int
	ImageSize        int
	ECM              bool
}

// Session is one active call (spec.md §3 "Session. One per active
// call."). It is not safe for concurrent use: an external scheduler
// serialises every entry point (spec.md §5).
type Session struct {
	Role Role

	Phase Phase
	State State

	Scheduler *Scheduler

	Local         LocalIdentity
	LocalCaps     Capabilities
	collaborators Collaborators

	RemoteDIS    capability.Params
	RemoteID     string
	disDTCFrame  *capability.Frame
	dcsFrame     *capability.Frame

	ECMMode        bool
	ECMFrameSize   int // 64 or 256
	currentFallback int
	trainedRates   map[int]bool
	disReceived    bool // the response-frame bit (spec.md §3)

	retries             int
	pprCount             int
	receiverNotReadyCount int

	tcfBitsRemaining int
	tcfLongestRun    int
	tcfCurrentRun    int
	tcfTries         int

	currentStatus Status
	inMessage     bool
	phaseECalled  bool

	PageNumber int
	BlockNumber int

	ecmTxBuf *ecm.Buffer
	ecmRxBuf *ecm.Buffer
	ecmRetry *ecm.RetryTracker
	ecmFrames int // frames in the current burst

	ecmPending         []byte // page bytes pulled but not yet assigned to a block
	ecmSourceDone      bool   // PageSource has reported its last chunk
	ecmBlockLastOfPage bool   // the block currently buffered is the page's last

	lastSent hdlc.Frame

	stats Statistics

	log *log.Logger
}

// New creates a Session with the given role, local configuration and
// collaborators. Call Restart before driving it.
func New(role Role, local LocalIdentity, caps Capabilities, c Collaborators, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	if caps.FallbackCeiling <= 0 || caps.FallbackCeiling >= len(FallbackTable) {
		caps.FallbackCeiling = len(FallbackTable) - 1
	}
	s := &Session{
		Role:          role,
		Local:         local,
		LocalCaps:     caps,
		collaborators: c,
		Scheduler:     NewScheduler(DefaultDurations()),
		ecmTxBuf:      ecm.NewBuffer(),
		ecmRxBuf:      ecm.NewBuffer(),
		ecmRetry:      ecm.NewRetryTracker(),
		log:           logger,
	}
	return s
}

// Restart begins a new call: selects the initial phase/state per
// Role, clears per-call counters, and starts T0 (spec.md §3
// "Lifecycle").
func (s *Session) Restart() {
	s.State = InitialState(s.Role)
	if s.Role == RoleAnswering {
		s.Phase = PhaseACED
	} else {
		s.Phase = PhaseACNG
	}
	s.Scheduler.StopAll()
	s.retries = 0
	s.pprCount = 0
	s.receiverNotReadyCount = 0
	s.currentStatus = StatusOK
	s.inMessage = false
	s.phaseECalled = false
	s.disReceived = s.Role == RoleAnswering
	s.currentFallback = 0
	s.PageNumber = 0
	s.BlockNumber = 0
	s.stats = Statistics{}
	s.Scheduler.StartT0()
	s.switchPhase(s.Phase)
}

// setState transitions State, logging the move (spec.md §3 "States
// are strictly switched by handlers; never modified from multiple
// code paths" — every call to setState is the single point of
// mutation).
func (s *Session) setState(next State) {
	s.log.Debug("state transition", "from", s.State, "to", next, "phase", s.Phase)
	s.State = next
}

// setPhase transitions Phase and reconfigures the modem layer for it.
func (s *Session) setPhase(next Phase) {
	s.Phase = next
	s.switchPhase(next)
}

// finished reports whether the call has already ended, for handlers
// whose trailing code would otherwise mutate phase/timers on a session
// that a synchronous nested reply already drove to completion.
func (s *Session) finished() bool {
	return s.State == StateCallFinished
}

// CurrentStatus returns the most recently set protocol status.
func (s *Session) CurrentStatus() Status { return s.currentStatus }

// Statistics returns a snapshot of the transfer statistics
// accumulated so far this call (SPEC_FULL item 2).
func (s *Session) Statistics() Statistics { return s.stats }

func (s *Session) setStatus(st Status) {
	s.currentStatus = st
	s.log.Debug("status set", "status", st)
}

// finishCall moves to CALL_FINISHED and invokes the phase-E callback
// exactly once (spec.md §8 invariant 6).
func (s *Session) finishCall(final Status) {
	s.setStatus(final)
	s.Scheduler.StopAll()
	s.setPhase(PhaseCallFinished)
	s.setState(StateCallFinished)
	if !s.phaseECalled {
		s.phaseECalled = true
		if s.collaborators.Phase != nil {
			s.collaborators.Phase.OnPhaseE(final)
		}
	}
}

// sendDCN emits a disconnect frame and finishes the call with the
// given status (spec.md §4.5 "Phase E... DCN is sent").
func (s *Session) sendDCN(status Status) {
	s.sendSimple(hdlc.FCFDCN, true)
	s.finishCall(status)
}

// sendSimple sends a header-only control frame (no payload).
func (s *Session) sendSimple(f hdlc.FCF, final bool) {
	frame := hdlc.Frame{Header: hdlc.NewHeader(f, s.disReceived, final)}
	s.send(frame)
}

// send transmits a frame via the HDLC collaborator and remembers it as
// the last outbound command for repeat_last_command / CRP handling.
func (s *Session) send(f hdlc.Frame) {
	s.lastSent = f
	if s.collaborators.HDLC != nil {
		s.collaborators.HDLC.SendHDLC(f)
	}
}

// RepeatLastCommand re-emits the last outbound frame unchanged and
// does not advance state (spec.md §8 "Idempotence"; §4.5 "CRP
// reception triggers repeat_last_command").
func (s *Session) RepeatLastCommand() {
	if s.collaborators.HDLC != nil {
		s.collaborators.HDLC.SendHDLC(s.lastSent)
	}
}

// armResponseTimer starts T4 for a freshly sent command, resetting the
// retry counter: every response-wait state entered this way gets a
// full MaxMessageTries budget before retryExhaustionStatus applies.
// The one caller that must NOT reset it — onResponseTimeout's own
// resend of the same command — calls Scheduler.StartResponseTimer
// directly instead.
func (s *Session) armResponseTimer() {
	s.retries = 0
	s.Scheduler.StartResponseTimer()
}

// Terminate delivers premature call teardown (spec.md §5
// "Cancellation"): CALL_FINISHED is a no-op, otherwise it synthesises
// CALLDROPPED.
func (s *Session) Terminate() {
	if s.State == StateCallFinished {
		return
	}
	s.finishCall(StatusCallDropped)
}
