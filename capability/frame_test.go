package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewFrameHeaderInvariant(t *testing.T) {
	f := New(DIS, false)
	assert.Equal(t, byte(0xFF), f.Bytes[0])
	assert.Equal(t, byte(0x03), f.Bytes[1])

	f2 := New(DCS, true)
	assert.Equal(t, byte(0x13), f2.Bytes[1])
}

func TestPruneExtensionBitInvariant(t *testing.T) {
	f := New(DIS, false)
	f.SetBit(1)
	f.SetBit(27) // forces several info octets to be non-zero
	f.Prune()

	for i := 0; i < f.Len; i++ {
		wantExt := i < f.Len-1 && i >= headerLen
		gotExt := f.Bytes[i]&0x80 != 0
		if i < headerLen {
			continue // address/control/FCF carry no extension semantics
		}
		assert.Equal(t, wantExt, gotExt, "octet %d", i)
	}
}

func TestPruneDropsTrailingZeroOctets(t *testing.T) {
	f := New(DIS, false)
	f.SetBit(9) // only the second info octet is used
	length := f.Prune()
	assert.Equal(t, headerLen+2, length)
}

func TestSetFieldAndFieldRoundTrip(t *testing.T) {
	f := New(DCS, false)
	f.SetField(FieldMinScanTime, 3, 5)
	assert.EqualValues(t, 5, f.Field(FieldMinScanTime, 3))
}

// TestParamsRoundTrip grounds spec.md §8's "Round-trip" property:
// a capability frame built from parameters P, pruned, then parsed,
// yields P' equal to P on every T.30-mapped bit.
func TestParamsRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := Params{
			T37Capable:              rapid.Bool().Draw(rt, "t37"),
			T38Capable:              rapid.Bool().Draw(rt, "t38"),
			ReadyToPoll:             rapid.Bool().Draw(rt, "readyPoll"),
			ReadyToReceive:          rapid.Bool().Draw(rt, "readyRx"),
			ModemV29:                rapid.Bool().Draw(rt, "v29"),
			ModemV27ter:             rapid.Bool().Draw(rt, "v27"),
			ModemV17:                rapid.Bool().Draw(rt, "v17"),
			CompressionT42D:         rapid.Bool().Draw(rt, "t42d"),
			CompressionUncompressed: rapid.Bool().Draw(rt, "uncompressed"),
			CompressionT6:           rapid.Bool().Draw(rt, "t6"),
			CompressionT43:          rapid.Bool().Draw(rt, "t43"),
			CompressionT45:          rapid.Bool().Draw(rt, "t45"),
			Width255mm:              rapid.Bool().Draw(rt, "w255"),
			Width303mm:              rapid.Bool().Draw(rt, "w303"),
			LengthB4:                rapid.Bool().Draw(rt, "lb4"),
			LengthUnlimited:         rapid.Bool().Draw(rt, "lu"),
			MinScanTimeCode:         rapid.UintRange(0, 7).Draw(rt, "minscan"),
			ECMSupported:            rapid.Bool().Draw(rt, "ecm"),
			ECMFrameSize64:          rapid.Bool().Draw(rt, "ecm64"),
			ResolutionY:             rapid.Bool().Draw(rt, "resY"),
			ResolutionX:             rapid.UintRange(0, 7).Draw(rt, "resX"),
			ResolutionY2:            rapid.UintRange(0, 31).Draw(rt, "resY2"),
		}

		f := p.Apply(DIS, false)
		require.LessOrEqual(t, f.Len, len(f.Bytes))
		parsed := Parse(f.Bytes[:f.Len])
		got := ParseParams(parsed)
		assert.Equal(t, p, got)
	})
}

func TestIdentity20RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, MaxIdentLen).Draw(rt, "n")
		runes := make([]byte, n)
		for i := range runes {
			runes[i] = byte(rapid.IntRange(int('0'), int('9')).Draw(rt, "d"))
		}
		id := string(runes)

		wire, err := BuildIdentity20(0x01, false, id)
		require.NoError(t, err)
		require.Len(t, wire, identFrameLen)

		got, err := ParseIdentity20(wire[3:])
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})
}

func TestURLFrameRoundTrip(t *testing.T) {
	u := URLFrame{Sequence: 5, More: true, Type: 2, Value: "fax.example.com"}
	wire := BuildURLFrame(u)
	got, err := ParseURLFrame(wire)
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestNonStandardFacilityRoundTrip(t *testing.T) {
	n := NonStandardFacility{Country: 0xB5, Vendor: 0x01, Payload: []byte{1, 2, 3}}
	wire := BuildNonStandardFacility(n)
	got, err := ParseNonStandardFacility(wire)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}
