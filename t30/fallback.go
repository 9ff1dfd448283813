package t30

// ModemKind identifies a voiceband modem family; the engine only ever
// sees it as a tag to pass to the Modem collaborator (spec.md §1
// "abstracted as carrier up/down/trained/failed indications plus a
// byte/bit stream").
type ModemKind int

const (
	ModemV21 ModemKind = iota
	ModemV27ter
	ModemV29
	ModemV17
)

func (m ModemKind) String() string {
	switch m {
	case ModemV21:
		return "V.21"
	case ModemV27ter:
		return "V.27ter"
	case ModemV29:
		return "V.29"
	case ModemV17:
		return "V.17"
	default:
		return "UNKNOWN_MODEM"
	}
}

// FallbackEntry is one row of the ordered bit-rate fallback table
// (spec.md §3 "Fallback table", §6 "Fallback table").
type FallbackEntry struct {
	BitsPerSecond int
	Modem         ModemKind
	// Capability is the DIS bit this entry requires the far end (and
	// the local capability mask) to advertise.
	Capability int
	// DCSBits is the row's DCS rate code, folded into the single byte
	// the wire table lists. buildDCS does not write it into the DCS
	// frame, which carries only the modem-family bit.
	DCSBits byte
}

// Capability bits referenced by the fallback table: a compact local
// bitmask with one bit per modem family, the same families as
// capability.BitModemV29/BitModemV27ter/BitModemV17 (not the same bit
// values). localFallbackMask/remoteFallbackMask build it from Params.
const (
	capV29    = 1 << 0
	capV27ter = 1 << 1
	capV17    = 1 << 2
)

// FallbackTable is the ordered sequence of (bit rate, modem, required
// capability, DCS bits) tuples tried in descending order (spec.md §6).
var FallbackTable = []FallbackEntry{
	{BitsPerSecond: 14400, Modem: ModemV17, Capability: capV17, DCSBits: 0x40},
	{BitsPerSecond: 12000, Modem: ModemV17, Capability: capV17, DCSBits: 0x48},
	{BitsPerSecond: 9600, Modem: ModemV17, Capability: capV17, DCSBits: 0x44},
	{BitsPerSecond: 9600, Modem: ModemV29, Capability: capV29, DCSBits: 0x04},
	{BitsPerSecond: 7200, Modem: ModemV17, Capability: capV17, DCSBits: 0x4C},
	{BitsPerSecond: 7200, Modem: ModemV29, Capability: capV29, DCSBits: 0x0C},
	{BitsPerSecond: 4800, Modem: ModemV27ter, Capability: capV27ter, DCSBits: 0x08},
	{BitsPerSecond: 2400, Modem: ModemV27ter, Capability: capV27ter, DCSBits: 0x00},
}

// HighestCompatible returns the index of the first (highest bit rate)
// fallback entry whose Capability bit is set in both remoteCaps (DIS)
// and localCaps, or -1 if none match.
func HighestCompatible(remoteCaps, localCaps int) int {
	for i, e := range FallbackTable {
		if remoteCaps&e.Capability != 0 && localCaps&e.Capability != 0 {
			return i
		}
	}
	return -1
}

// NextCompatible returns the index of the next (lower bit rate) entry
// below from whose Capability bit is in permitted, or -1 if the table
// is exhausted (spec.md §4.5 "On trainability failure, advance to the
// next entry whose capability flag is in the currently-permitted
// set").
func NextCompatible(from int, permitted int) int {
	for i := from + 1; i < len(FallbackTable); i++ {
		if FallbackTable[i].Capability&permitted != 0 {
			return i
		}
	}
	return -1
}
