package t30

// SampleRate is the audio rate timer durations are quantised to
// (spec.md §3 "Timers... Mapped to milliseconds by sample-rate").
const SampleRate = 8000

// Default timer durations in milliseconds (spec.md §6 "Configurable
// timers").
const (
	DefaultT0Ms = 60000
	DefaultT1Ms = 35000
	DefaultT2Ms = 7000
	DefaultT3Ms = 15000
	DefaultT4Ms = 3450
	DefaultT5Ms = 65000
)

func msToSamples(ms int) int {
	return ms * SampleRate / 1000
}

// TimerKind selects which of T2/T4's shared storage slot currently
// means: the redesign in spec.md §9 replaces the source's boolean
// selector with this tagged union.
type TimerKind int

const (
	TimerNone TimerKind = iota
	TimerCommand
	TimerResponse
)

// T2T4 is the tagged timer value for the shared T2 (command-wait) /
// T4 (response-wait) storage slot.
type T2T4 struct {
	Kind    TimerKind
	Samples int
}

// Active reports whether this timer slot currently counts down.
func (t T2T4) Active() bool { return t.Kind != TimerNone && t.Samples > 0 }

// Durations holds the configured timer lengths in milliseconds,
// overridable per session (spec.md §6).
type Durations struct {
	T0Ms, T1Ms, T2Ms, T3Ms, T4Ms, T5Ms int
}

// DefaultDurations returns the spec's default timer lengths.
func DefaultDurations() Durations {
	return Durations{
		T0Ms: DefaultT0Ms,
		T1Ms: DefaultT1Ms,
		T2Ms: DefaultT2Ms,
		T3Ms: DefaultT3Ms,
		T4Ms: DefaultT4Ms,
		T5Ms: DefaultT5Ms,
	}
}

// Scheduler holds the six session timers as sample counts, active
// when positive (spec.md §4.7).
type Scheduler struct {
	durations Durations

	t0 int
	t1 int
	t2t4 T2T4
	t3   int
	t5   int

	t0Seen bool // has any valid HDLC signal been observed, converting T0 to T1 duty
}

// NewScheduler returns a scheduler with every timer stopped.
func NewScheduler(d Durations) *Scheduler {
	return &Scheduler{durations: d}
}

// StartT0 arms the pre-contact timer.
func (s *Scheduler) StartT0() { s.t0 = msToSamples(s.durations.T0Ms) }

// StartT1 arms the identification timer.
func (s *Scheduler) StartT1() { s.t1 = msToSamples(s.durations.T1Ms) }

// StopT0T1 disarms both the pre-contact and identification timers.
func (s *Scheduler) StopT0T1() { s.t0 = 0; s.t1 = 0 }

// NoteHDLCSignal converts a still-running T0 into T1: spec.md §4.7 "T0
// converts to T1 once any valid HDLC signal has been observed from the
// far end."
func (s *Scheduler) NoteHDLCSignal() {
	if s.t0 > 0 && !s.t0Seen {
		s.t0Seen = true
		s.t0 = 0
		s.StartT1()
	}
}

// StartCommandTimer arms the shared slot in command-wait (T2) mode.
func (s *Scheduler) StartCommandTimer() {
	s.t2t4 = T2T4{Kind: TimerCommand, Samples: msToSamples(s.durations.T2Ms)}
}

// StartResponseTimer arms the shared slot in response-wait (T4) mode.
func (s *Scheduler) StartResponseTimer() {
	s.t2t4 = T2T4{Kind: TimerResponse, Samples: msToSamples(s.durations.T4Ms)}
}

// StopCommandResponseTimer disarms the shared T2/T4 slot.
func (s *Scheduler) StopCommandResponseTimer() {
	s.t2t4 = T2T4{}
}

// StartT3 arms the procedural-interrupt timer.
func (s *Scheduler) StartT3() { s.t3 = msToSamples(s.durations.T3Ms) }

// StopT3 disarms the procedural-interrupt timer.
func (s *Scheduler) StopT3() { s.t3 = 0 }

// StartT5 arms the RNR/RR retry ceiling.
func (s *Scheduler) StartT5() { s.t5 = msToSamples(s.durations.T5Ms) }

// StopT5 disarms the RNR/RR retry ceiling.
func (s *Scheduler) StopT5() { s.t5 = 0 }

// StopAll disarms every timer, used on disconnect.
func (s *Scheduler) StopAll() {
	s.t0, s.t1, s.t3, s.t5 = 0, 0, 0, 0
	s.t2t4 = T2T4{}
}

// Expiry names which timer fired, for Tick's caller to dispatch on.
type Expiry int

const (
	ExpiryNone Expiry = iota
	ExpiryT0
	ExpiryT1
	ExpiryT2
	ExpiryT4
	ExpiryT3
	ExpiryT5
)

// Tick advances every active timer by n samples and reports the first
// one to expire, in T0/T1/T2-or-T4/T3/T5 priority order (spec.md §4.7
// "If any timer reaches ≤ 0 its handler fires"; T3 "runs concurrently"
// with the others so it is checked independently of the T2/T4 slot).
func (s *Scheduler) Tick(n int) Expiry {
	if s.t0 > 0 {
		s.t0 -= n
		if s.t0 <= 0 {
			s.t0 = 0
			return ExpiryT0
		}
	}
	if s.t1 > 0 {
		s.t1 -= n
		if s.t1 <= 0 {
			s.t1 = 0
			return ExpiryT1
		}
	}
	if s.t2t4.Active() {
		s.t2t4.Samples -= n
		if s.t2t4.Samples <= 0 {
			kind := s.t2t4.Kind
			s.t2t4 = T2T4{}
			if kind == TimerCommand {
				return ExpiryT2
			}
			return ExpiryT4
		}
	}
	if s.t3 > 0 {
		s.t3 -= n
		if s.t3 <= 0 {
			s.t3 = 0
			return ExpiryT3
		}
	}
	if s.t5 > 0 {
		s.t5 -= n
		if s.t5 <= 0 {
			s.t5 = 0
			return ExpiryT5
		}
	}
	return ExpiryNone
}

// ResponseTimerKind reports the shared slot's current tag, for
// handlers that need to know whether a retry is command- or
// response-side without re-deriving it from state.
func (s *Scheduler) ResponseTimerKind() TimerKind { return s.t2t4.Kind }
