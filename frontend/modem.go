package frontend

import (
	"github.com/charmbracelet/log"

	"github.com/doismellburning/faxt30/hdlc"
	"github.com/doismellburning/faxt30/t30"
)

// SerialModem adapts a SerialPort to t30.Modem and t30.HDLCTransmitter.
// Real rate/kind switching and HDLC bit-stuffing happen in the modem
// hardware or a soundcard-modem driver on the other end of the wire
// (out of scope per spec.md §1, same boundary the teacher draws around
// its own direwolf modem); this type's job is only to log the
// requested configuration and push already-framed bytes out the port,
// the serial analogue of serial_port_write in src/serial_port.go.
type SerialModem struct {
	port *SerialPort
	log  *log.Logger
}

// NewSerialModem wraps an already-open SerialPort.
func NewSerialModem(port *SerialPort, logger *log.Logger) *SerialModem {
	if logger == nil {
		logger = log.Default()
	}
	return &SerialModem{port: port, log: logger}
}

func (m *SerialModem) SetRxType(kind t30.ModemKind, shortTrain, useHDLC bool) {
	m.log.Debug("set rx type", "kind", kind, "short_train", shortTrain, "hdlc", useHDLC)
}

func (m *SerialModem) SetTxType(kind t30.ModemKind, shortTrain, useHDLC bool) {
	m.log.Debug("set tx type", "kind", kind, "short_train", shortTrain, "hdlc", useHDLC)
}

// SendHDLC writes one already-encoded control frame to the serial
// port, logging and swallowing any write failure the way a hardware
// modem's transmit-complete callback has nowhere else to report it.
func (m *SerialModem) SendHDLC(f hdlc.Frame) {
	if err := m.port.Write(f.Bytes()); err != nil {
		m.log.Warn("serial write failed", "error", err, "fcf", f.Header.FCF)
	}
}

// FrontEndNotifier implements CarrierSink, translating a DCDWatcher's
// carrier transitions into the Session's front-end event vocabulary.
type FrontEndNotifier struct {
	session *t30.Session
}

// NewFrontEndNotifier binds a DCDWatcher's carrier events to session.
func NewFrontEndNotifier(session *t30.Session) *FrontEndNotifier {
	return &FrontEndNotifier{session: session}
}

func (n *FrontEndNotifier) FrontEndStatusSignal(present bool) {
	if present {
		n.session.FrontEndStatus(t30.SignalPresent)
		return
	}
	n.session.FrontEndStatus(t30.SignalAbsent)
}
