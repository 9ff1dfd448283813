// Command faxsend originates a T.30 call and sends a single page of
// already-encoded image data, wiring the config/frontend/metrics
// packages into a t30.Session the same way cmd/fxsend in the teacher
// pack drives direwolf's AX.25 stack from a flag-parsed main.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/doismellburning/faxt30/config"
	"github.com/doismellburning/faxt30/frontend"
	"github.com/doismellburning/faxt30/metrics"
	"github.com/doismellburning/faxt30/t30"
)

func main() {
	flags := config.ParseFlags("faxsend", os.Args[1:])

	if len(flags.Args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: faxsend [options] <page-file>")
		os.Exit(1)
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg = flags.Apply(cfg)

	logger := log.Default()
	if lvl, ok := config.LogLevel(cfg.LogLevel); ok {
		logger.SetLevel(lvl)
	}

	identity, err := cfg.Identity()
	if err != nil {
		logger.Fatal("identity", "error", err)
	}

	page, err := os.ReadFile(flags.Args[0])
	if err != nil {
		logger.Fatal("read page", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reg *metrics.Registry
	if flags.MetricsAddr != "" {
		reg = metrics.NewRegistry()
		go func() {
			if err := reg.Serve(ctx, flags.MetricsAddr); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	collaborators := t30.Collaborators{
		Source:   &filePageSource{data: page, step: 4096},
		Document: &singlePage{},
		Phase:    &loggingPhase{log: logger},
	}
	if reg != nil {
		collaborators.Metrics = reg
	}

	var port *frontend.SerialPort
	if flags.Device != "" {
		port, err = frontend.OpenSerialPort(flags.Device, flags.Baud)
		if err != nil {
			logger.Fatal("open serial port", "error", err)
		}
		defer port.Close()

		modem := frontend.NewSerialModem(port, logger)
		collaborators.Modem = modem
		collaborators.HDLC = modem
	}

	session := t30.New(t30.RoleCalling, identity, cfg.Capabilities(), collaborators, logger)
	session.Restart()

	if port != nil {
		watcher := frontend.NewDCDWatcher(flags.Device, 50*time.Millisecond, frontend.NewFrontEndNotifier(session))
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("dcd watcher stopped", "error", err)
			}
		}()
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		session.TimerUpdate(t30.SampleRate / 10)
		if session.State == t30.StateCallFinished {
			break
		}
	}

	logger.Info("call finished", "status", session.CurrentStatus(), "stats", session.Statistics())
}

type filePageSource struct {
	data []byte
	pos  int
	step int
}

func (f *filePageSource) NextChunk(max int) ([]byte, bool) {
	n := f.step
	if n <= 0 || n > max {
		n = max
	}
	if f.pos >= len(f.data) {
		return nil, true
	}
	end := f.pos + n
	if end > len(f.data) {
		end = len(f.data)
	}
	chunk := f.data[f.pos:end]
	f.pos = end
	return chunk, f.pos >= len(f.data)
}

type singlePage struct{ asked bool }

func (s *singlePage) HasMorePages() bool {
	if s.asked {
		return false
	}
	s.asked = true
	return false
}

type loggingPhase struct{ log *log.Logger }

func (p *loggingPhase) OnPhaseB(remoteIdent string) {
	p.log.Info("phase B", "remote_id", remoteIdent)
}

func (p *loggingPhase) OnPhaseD(pageNumber int, goodPage bool) {
	p.log.Info("phase D", "page", pageNumber, "good", goodPage)
}

func (p *loggingPhase) OnPhaseE(final t30.Status) {
	p.log.Info("phase E", "status", final)
}
