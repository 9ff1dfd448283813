package hdlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeaderWireInvariant(t *testing.T) {
	h := NewHeader(FCFDCS, false, true)
	b := h.Bytes()
	assert.Equal(t, byte(0xFF), b[0])
	assert.Equal(t, byte(0x13), b[1])

	h2 := NewHeader(FCFMPS, false, false)
	assert.Equal(t, byte(0x03), h2.Bytes()[1])
}

func TestWithResponseBitTogglesLowBitOnly(t *testing.T) {
	base := FCFDCS
	assert.Equal(t, base, WithResponseBit(base, false))
	assert.Equal(t, base|0x01, WithResponseBit(base, true))
	assert.Equal(t, base, WithResponseBit(base, true).Base())
}

func TestFCFValuesAreDistinct(t *testing.T) {
	all := []FCF{
		FCFDIS, FCFDTC, FCFDCS, FCFCSI, FCFCIG, FCFTSI, FCFNSF, FCFNSC, FCFNSS,
		FCFSUB, FCFSID, FCFPWD, FCFSEP, FCFPSA, FCFCIA, FCFISP, FCFTSA, FCFCSA, FCFIRA,
		FCFCFR, FCFFTT, FCFCTR,
		FCFEOM, FCFMPS, FCFEOP, FCFPRIEOM, FCFPRIMPS, FCFPRIEOP, FCFEOS,
		FCFPPS, FCFEOR, FCFRR, FCFCTC,
		FCFMCF, FCFRTP, FCFRTN, FCFPIP, FCFPIN, FCFPPR, FCFRNR, FCFERR,
		FCFFDM, FCFDCN, FCFCRP, FCFFNV, FCFTNR, FCFTR, FCFPID,
		FCFFCD, FCFRCP,
	}
	seen := make(map[FCF]bool, len(all))
	for _, f := range all {
		assert.False(t, seen[f], "duplicate FCF value %d", f)
		seen[f] = true
	}
}

func TestParseHeaderRejectsBadAddress(t *testing.T) {
	_, err := ParseHeader([]byte{0x00, 0x03, byte(FCFDIS)})
	assert.Error(t, err)
}

func TestParseHeaderRejectsBadControl(t *testing.T) {
	_, err := ParseHeader([]byte{0xFF, 0x07, byte(FCFDIS)})
	assert.Error(t, err)
}

func TestParseHeaderTooShort(t *testing.T) {
	_, err := ParseHeader([]byte{0xFF, 0x03})
	assert.Error(t, err)
}

func TestFrameRoundTrip(t *testing.T) {
	f := Frame{
		Header:  NewHeader(FCFDCS, true, true),
		Payload: []byte{1, 2, 3, 4},
	}
	wire := f.Bytes()
	require.Len(t, wire, 7)

	got, err := ParseFrame(wire)
	require.NoError(t, err)
	assert.Equal(t, f.Header, got.Header)
	assert.Equal(t, f.Payload, got.Payload)
}

func TestParseFrameEmptyPayload(t *testing.T) {
	f := Frame{Header: NewHeader(FCFMCF, true, true)}
	got, err := ParseFrame(f.Bytes())
	require.NoError(t, err)
	assert.Empty(t, got.Payload)
}
