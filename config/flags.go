package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

// Flags is the command-line override layer, grounded on
// doismellburning-samoyed/src/appserver.go's pflag.StringP/Bool/Usage
// pattern: StringP flags with a short form, a Usage func that prints a
// "usage: <prog> [options]" line and the flag defaults, then Parse/Args.
type Flags struct {
	ConfigPath  string
	Device      string
	Baud        int
	ID          string
	NoECM       bool
	MetricsAddr string
	LogLevel    string
	Args        []string // positional arguments left after flag parsing
}

// ParseFlags registers and parses the flags common to cmd/faxsend and
// cmd/faxrecv, in the same StringP/Bool + custom Usage + Parse order
// as appserver.go's main.
func ParseFlags(progName string, args []string) Flags {
	fs := pflag.NewFlagSet(progName, pflag.ExitOnError)

	configPath := fs.StringP("config", "c", "", "Path to a faxt30.yaml configuration file.")
	device := fs.StringP("device", "d", "", "Serial device to use as the modem front end (e.g. /dev/ttyUSB0).")
	baud := fs.IntP("baud", "b", 9600, "Serial port speed.")
	id := fs.StringP("id", "i", "", "Override the local station identity (CSI/CIG/TSI).")
	noECM := fs.Bool("no-ecm", false, "Disable ECM even if the loaded configuration enables it.")
	metricsAddr := fs.String("metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. :9100).")
	logLevel := fs.StringP("log-level", "l", "", "Override the configured log level (debug/info/warn/error).")
	help := fs.Bool("help", false, "Display help text.")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options]\n\n", progName)
		fs.PrintDefaults()
	}

	_ = fs.Parse(args)

	if *help {
		fs.Usage()
		os.Exit(0)
	}

	return Flags{
		ConfigPath:  *configPath,
		Device:      *device,
		Baud:        *baud,
		ID:          strings.TrimSpace(*id),
		NoECM:       *noECM,
		MetricsAddr: *metricsAddr,
		LogLevel:    *logLevel,
		Args:        fs.Args(),
	}
}

// LogLevel maps a configured or flag-overridden level name onto a
// charmbracelet/log level, for the small fixed vocabulary this repo
// exposes (debug/info/warn/error).
func LogLevel(name string) (log.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return log.DebugLevel, true
	case "info":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	}
	return log.InfoLevel, false
}

// Apply overrides cfg's fields with any flag the caller explicitly
// set, matching the teacher's "file provides defaults, command line
// wins" precedence.
func (f Flags) Apply(cfg LocalStationConfig) LocalStationConfig {
	if f.ID != "" {
		cfg.ID = f.ID
	}
	if f.NoECM {
		cfg.ECM = false
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	return cfg
}
