package t30

import (
	"bytes"
	"sync"

	"github.com/doismellburning/faxt30/hdlc"
)

// mockModem records rate/mode switches without driving anything on its
// own; raw bit-stream transfer is driven explicitly in tests via
// driveNonECM, matching how an external modem would pump
// NonECMGetChunk/NonECMPutChunk in a real front end.
type mockModem struct {
	mu       sync.Mutex
	rxCalls  []modemCall
	txCalls  []modemCall
}

type modemCall struct {
	Kind       ModemKind
	ShortTrain bool
	UseHDLC    bool
}

func (m *mockModem) SetRxType(kind ModemKind, shortTrain, useHDLC bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rxCalls = append(m.rxCalls, modemCall{kind, shortTrain, useHDLC})
}

func (m *mockModem) SetTxType(kind ModemKind, shortTrain, useHDLC bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls = append(m.txCalls, modemCall{kind, shortTrain, useHDLC})
}

// pipeHDLC forwards every sent frame straight to the peer's HDLCAccept,
// as if transport always delivers a good FCS: the two Sessions in a
// test run entirely in-process, call stack growing one level per hop.
type pipeHDLC struct {
	peer *Session
}

func (p *pipeHDLC) SendHDLC(f hdlc.Frame) {
	p.peer.HDLCAccept(f, true)
}

// bufferPageSource hands out a fixed payload in fixed-size chunks.
type bufferPageSource struct {
	data []byte
	pos  int
	step int
}

func (b *bufferPageSource) NextChunk(max int) ([]byte, bool) {
	n := b.step
	if n <= 0 || n > max {
		n = max
	}
	if b.pos >= len(b.data) {
		return nil, true
	}
	end := b.pos + n
	if end > len(b.data) {
		end = len(b.data)
	}
	chunk := b.data[b.pos:end]
	b.pos = end
	return chunk, b.pos >= len(b.data)
}

// bufferPageSink accumulates every chunk and reports a fixed bad-row
// ratio configured by the test.
type bufferPageSink struct {
	buf     bytes.Buffer
	badRows float64
}

func (s *bufferPageSink) PutChunk(chunk []byte) error {
	s.buf.Write(chunk)
	return nil
}

func (s *bufferPageSink) BadRowRatio() float64 { return s.badRows }

// fixedDocument answers HasMorePages from a canned sequence, popping
// one entry per call and repeating the last once exhausted.
type fixedDocument struct {
	remaining []bool
}

func (d *fixedDocument) HasMorePages() bool {
	if len(d.remaining) == 0 {
		return false
	}
	v := d.remaining[0]
	if len(d.remaining) > 1 {
		d.remaining = d.remaining[1:]
	}
	return v
}

// recordingPhase captures every phase callback invocation for
// assertions.
type recordingPhase struct {
	bCalls []string
	dCalls []struct {
		Page int
		Good bool
	}
	eStatus []Status
}

func (r *recordingPhase) OnPhaseB(remoteIdent string) {
	r.bCalls = append(r.bCalls, remoteIdent)
}

func (r *recordingPhase) OnPhaseD(pageNumber int, goodPage bool) {
	r.dCalls = append(r.dCalls, struct {
		Page int
		Good bool
	}{pageNumber, goodPage})
}

func (r *recordingPhase) OnPhaseE(final Status) {
	r.eStatus = append(r.eStatus, final)
}

// driveNonECM pumps chunks from tx's NonECMGetChunk into rx's
// NonECMPutChunk until the source is exhausted, then signals both
// sides as a real modem would on carrier loss: SendComplete on the
// transmitter, SignalAbsent on the receiver.
func driveNonECM(tx, rx *Session, chunkSize int) {
	for {
		chunk, last := tx.NonECMGetChunk(chunkSize)
		if len(chunk) > 0 {
			rx.NonECMPutChunk(chunk)
		}
		if last {
			break
		}
	}
	tx.FrontEndStatus(SendComplete)
	rx.FrontEndStatus(SignalAbsent)
}
