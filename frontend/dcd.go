package frontend

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
)

// CarrierSink receives a frontend's carrier present/absent
// observations. FrontEndNotifier satisfies this for a t30.Session,
// mapping present/absent onto t30.SignalPresent/t30.SignalAbsent.
type CarrierSink interface {
	FrontEndStatusSignal(present bool)
}

// DCDWatcher polls a tty's modem-control lines for the carrier-detect
// bit, the serial equivalent of the teacher's OCTYPE_DCD output
// control (src/ptt.go), which that file drives from a GPIO pin, a
// hardware CM108 line, or another of several "octrl" methods — here
// reduced to the one method this repo carries a dependency for:
// reading TIOCMGET on a plain serial line via golang.org/x/sys/unix.
//
// It opens its own raw file descriptor on the device rather than
// reaching into SerialPort's, since pkg/term.Term does not expose the
// fd needed for the ioctl.
type DCDWatcher struct {
	devicename string
	interval   time.Duration
	sink       CarrierSink
}

// NewDCDWatcher builds a watcher that polls devicename every interval
// and reports transitions to sink.
func NewDCDWatcher(devicename string, interval time.Duration, sink CarrierSink) *DCDWatcher {
	return &DCDWatcher{devicename: devicename, interval: interval, sink: sink}
}

// Run polls until ctx is cancelled. It is meant to run in its own
// goroutine alongside the rest of a demo binary's front end.
func (w *DCDWatcher) Run(ctx context.Context) error {
	fd, err := unix.Open(w.devicename, unix.O_RDONLY|unix.O_NOCTTY, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := false
	first := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			present, err := carrierPresent(fd)
			if err != nil {
				return err
			}
			if first || present != last {
				w.sink.FrontEndStatusSignal(present)
				last = present
				first = false
			}
		}
	}
}

// carrierPresent issues TIOCMGET and tests the carrier-detect bit.
func carrierPresent(fd int) (bool, error) {
	status, err := unix.IoctlGetInt(fd, unix.TIOCMGET)
	if err != nil {
		return false, err
	}
	return status&unix.TIOCM_CAR != 0, nil
}
