// Package config loads this station's local identity and capability
// set from a YAML file, then lets command-line flags override any of
// it — the same two-layer precedence the teacher's command binaries
// use (YAML/compiled-in defaults first, flags win).
//
// Grounded on doismellburning-samoyed/src/deviceid.go for the
// search_locations/yaml.Unmarshal pattern (that file maps an external
// device-identification table onto structs the same way this one maps
// a station's fax identity), and on src/appserver.go for the
// pflag.StringP/Bool/Usage/Parse layering.
package config

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doismellburning/faxt30/capability"
	"github.com/doismellburning/faxt30/t30"
)

// SearchLocations is, like deviceid.go's search_locations, an ordered
// list of places to look for a config file when the caller didn't
// name one explicitly.
var SearchLocations = []string{
	"faxt30.yaml",
	"config/faxt30.yaml",
	"/usr/local/etc/faxt30.yaml",
	"/etc/faxt30.yaml",
}

// LocalStationConfig is the YAML-shaped view of a station's identity
// and negotiated capabilities (spec.md §3 session attributes).
type LocalStationConfig struct {
	ID         string `yaml:"id"`
	Subaddress string `yaml:"subaddress,omitempty"`
	Password   string `yaml:"password,omitempty"`

	NonStandardFacility *NonStandardFacilityConfig `yaml:"non_standard_facility,omitempty"`

	Modems          []string `yaml:"modems"`       // "v27ter", "v29", "v17"
	Compressions    []string `yaml:"compressions"` // "t4_1d", "t4_2d", "t6", "t43", "t45"
	ECM             bool     `yaml:"ecm"`
	ECMFrameSize64  bool     `yaml:"ecm_frame_size_64"`
	ReadyToPoll     bool     `yaml:"ready_to_poll"`
	ReadyToReceive  bool     `yaml:"ready_to_receive"`
	WidthB4         bool     `yaml:"width_b4"`
	LengthUnlimited bool     `yaml:"length_unlimited"`
	FallbackCeiling int      `yaml:"fallback_ceiling"`

	Timers *TimerConfig `yaml:"timers,omitempty"`

	LogLevel string `yaml:"log_level"`
}

// NonStandardFacilityConfig is the YAML form of
// capability.NonStandardFacility; Payload is hex-encoded since it is
// arbitrary binary (spec.md's "opaque" NSF/NSC/NSS blob).
type NonStandardFacilityConfig struct {
	Country byte   `yaml:"country"`
	Vendor  byte   `yaml:"vendor"`
	Payload string `yaml:"payload_hex"`
}

// TimerConfig overrides the spec's default T0-T5 lengths (spec.md §4.5
// timer table), expressed in milliseconds to match t30.Durations.
type TimerConfig struct {
	T0Ms int `yaml:"t0_ms"`
	T1Ms int `yaml:"t1_ms"`
	T2Ms int `yaml:"t2_ms"`
	T3Ms int `yaml:"t3_ms"`
	T4Ms int `yaml:"t4_ms"`
	T5Ms int `yaml:"t5_ms"`
}

// Default returns the built-in configuration a demo binary falls back
// to when no file is found anywhere in SearchLocations.
func Default() LocalStationConfig {
	return LocalStationConfig{
		ID:              "FAXT30",
		Modems:          []string{"v27ter", "v29", "v17"},
		Compressions:    []string{"t4_1d", "t4_2d", "t6"},
		ECM:             true,
		ReadyToReceive:  true,
		FallbackCeiling: -1,
		LogLevel:        "info",
	}
}

// Load reads the first file in SearchLocations that exists. If path is
// non-empty it is tried first (and an error opening it is returned,
// unlike a SearchLocations miss which falls through to Default).
func Load(path string) (LocalStationConfig, error) {
	if path != "" {
		return loadFile(path)
	}

	for _, location := range SearchLocations {
		fp, err := os.Open(location)
		if err != nil {
			continue
		}
		defer fp.Close()
		return parse(fp)
	}

	return Default(), nil
}

func loadFile(path string) (LocalStationConfig, error) {
	fp, err := os.Open(path)
	if err != nil {
		return LocalStationConfig{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer fp.Close()
	return parse(fp)
}

func parse(r io.Reader) (LocalStationConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return LocalStationConfig{}, fmt.Errorf("config: read: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return LocalStationConfig{}, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// Identity builds the t30.LocalIdentity this configuration describes.
func (c LocalStationConfig) Identity() (t30.LocalIdentity, error) {
	id := t30.LocalIdentity{ID: c.ID, Subaddress: c.Subaddress, Password: c.Password}

	if c.NonStandardFacility != nil {
		payload, err := decodeHex(c.NonStandardFacility.Payload)
		if err != nil {
			return t30.LocalIdentity{}, fmt.Errorf("config: non_standard_facility: %w", err)
		}
		id.NonStandardFacility = &capability.NonStandardFacility{
			Country: c.NonStandardFacility.Country,
			Vendor:  c.NonStandardFacility.Vendor,
			Payload: payload,
		}
	}

	return id, nil
}

// Capabilities builds the t30.Capabilities this configuration
// describes, by turning the YAML's named modem/compression lists into
// capability.Params bits (spec.md §4.3).
func (c LocalStationConfig) Capabilities() t30.Capabilities {
	p := capability.Params{
		ReadyToPoll:     c.ReadyToPoll,
		ReadyToReceive:  c.ReadyToReceive,
		Width255mm:      true,
		Width303mm:      c.WidthB4 || c.LengthUnlimited,
		LengthB4:        c.WidthB4,
		LengthUnlimited: c.LengthUnlimited,
		ECMSupported:    c.ECM,
		ECMFrameSize64:  c.ECMFrameSize64,
		ResolutionY:     true,
	}

	for _, m := range c.Modems {
		switch m {
		case "v27ter":
			p.ModemV27ter = true
		case "v29":
			p.ModemV29 = true
		case "v17":
			p.ModemV17 = true
		}
	}

	for _, comp := range c.Compressions {
		switch comp {
		case "t4_1d":
			p.CompressionUncompressed = true
		case "t4_2d":
			p.CompressionT42D = true
		case "t6":
			p.CompressionT6 = true
		case "t43":
			p.CompressionT43 = true
		case "t45":
			p.CompressionT45 = true
		}
	}

	return t30.Capabilities{Params: p, FallbackCeiling: c.FallbackCeiling}
}

// Durations builds a t30.Durations from the YAML's optional timer
// overrides, falling back to t30.DefaultDurations for any zero field.
func (c LocalStationConfig) Durations() t30.Durations {
	d := t30.DefaultDurations()
	if c.Timers == nil {
		return d
	}
	override := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	override(&d.T0Ms, c.Timers.T0Ms)
	override(&d.T1Ms, c.Timers.T1Ms)
	override(&d.T2Ms, c.Timers.T2Ms)
	override(&d.T3Ms, c.Timers.T3Ms)
	override(&d.T4Ms, c.Timers.T4Ms)
	override(&d.T5Ms, c.Timers.T5Ms)
	return d
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}
