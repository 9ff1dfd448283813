// Package frontend provides the serial-port front end this repo's
// demo binaries use to talk to a real fax modem: a SerialPort that
// opens and frames bytes over a tty, and a SerialModem/DCDWatcher pair
// that turn that tty into the t30.Modem, t30.HDLCTransmitter and
// carrier-sense collaborators the protocol engine expects.
//
// Grounded on doismellburning-samoyed/src/serial_port.go (the
// term.Open/SetSpeed/Write/Read/Close wrapper) and src/ptt.go's
// OCTYPE_DCD output-control concept, rewritten for a single fax modem
// line instead of that file's multi-channel PTT/DCD/CON switchboard.
package frontend

import (
	"fmt"
	"sync"

	"github.com/pkg/term"
)

// SerialPort wraps a single tty opened in raw mode, the same shape as
// serial_port_open/_write/_get1/_close in the teacher's serial_port.go
// but as a type with methods instead of four free functions closing
// over a *term.Term handle.
type SerialPort struct {
	mu sync.Mutex
	fd *term.Term
}

// OpenSerialPort opens devicename (e.g. "/dev/ttyUSB0") and configures
// it for baud bits per second. baud of 0 leaves the port's current
// speed alone, matching the teacher's "If 0, leave it alone" contract.
func OpenSerialPort(devicename string, baud int) (*SerialPort, error) {
	fd, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("frontend: open %s: %w", devicename, err)
	}

	switch baud {
	case 0:
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := fd.SetSpeed(baud); err != nil {
			fd.Close()
			return nil, fmt.Errorf("frontend: set speed %d on %s: %w", baud, devicename, err)
		}
	default:
		if err := fd.SetSpeed(4800); err != nil {
			fd.Close()
			return nil, fmt.Errorf("frontend: set speed %d on %s: %w", baud, devicename, err)
		}
	}

	return &SerialPort{fd: fd}, nil
}

// Write sends data to the port, returning an error if fewer than
// len(data) bytes made it out.
func (p *SerialPort) Write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.fd.Write(data)
	if err != nil {
		return fmt.Errorf("frontend: serial write: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("frontend: serial write: wrote %d of %d bytes", n, len(data))
	}
	return nil
}

// ReadByte blocks for a single byte, mirroring serial_port_get1.
func (p *SerialPort) ReadByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buf := make([]byte, 1)
	n, err := p.fd.Read(buf)
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, fmt.Errorf("frontend: serial read: got %d bytes", n)
	}
	return buf[0], nil
}

// Close releases the underlying tty.
func (p *SerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fd.Close()
}
