package capability

// T.30 Table 2 bit numbers this repo cares about (spec.md §4.3
// "Semantic mapping"). Named BitN for single-bit flags, FieldN for the
// start of a multi-bit field.
const (
	BitT37Capable       = 1
	BitT38Capable       = 3
	BitReadyToPoll       = 9
	BitReadyToReceive    = 10
	BitModemV29          = 11
	BitModemV27ter        = 12
	FieldModemV17        = 13 // 2 bits: V17 + one of the fallback-rate sub-bits, see t30.FallbackTable
	BitModemV17          = 14
	BitResolutionY       = 15
	BitCompressionT42D   = 16
	BitWidth255mm        = 17
	BitWidth303mm        = 18
	BitLengthB4          = 19
	BitLengthUnlimited   = 20
	FieldMinScanTime     = 21 // 3 bits
	BitCompressionUncompressed = 26
	BitECMSupported      = 27
	BitECMFrameSize      = 28 // 0 = 256 octets, 1 = 64 octets
	BitCompressionT6     = 31
	BitCompressionT43    = 36
	BitResolutionX        = 41 // 41-43, three resolution sub-bits
	BitResolutionX2      = 42
	BitResolutionX3      = 43
	FieldResolutionY2    = 105 // 105-109 extended Y resolutions
	BitCompressionT45    = 116
	BitExtendedReadyPoll = 121
	BitExtendedReadyRx   = 123
)

// Params is the decoded semantic view of a capability frame: every
// bit/field spec.md §4.3 enumerates, pulled out of the raw octets so
// callers don't poke bit numbers directly. ParseParams builds one from a
// Frame; Params.Apply writes one back into a fresh Frame.
type Params struct {
	T37Capable     bool
	T38Capable     bool
	ReadyToPoll    bool
	ReadyToReceive bool

	ModemV29    bool
	ModemV27ter bool
	ModemV17    bool

	CompressionT42D        bool
	CompressionUncompressed bool
	CompressionT6          bool
	CompressionT43         bool
	CompressionT45         bool

	Width255mm      bool
	Width303mm      bool
	LengthB4        bool
	LengthUnlimited bool
	MinScanTimeCode uint // 3-bit field at position 21

	ECMSupported bool
	ECMFrameSize64 bool // bit 28: true = 64 octets, false = 256

	ResolutionY  bool
	ResolutionX  uint // 3-bit field at 41-43
	ResolutionY2 uint // 5-bit field at 105-109
}

// ParseParams extracts Params from a received/parsed Frame.
func ParseParams(f *Frame) Params {
	return Params{
		T37Capable:     f.Bit(BitT37Capable),
		T38Capable:     f.Bit(BitT38Capable),
		ReadyToPoll:    f.Bit(BitReadyToPoll),
		ReadyToReceive: f.Bit(BitReadyToReceive),

		ModemV29:    f.Bit(BitModemV29),
		ModemV27ter: f.Bit(BitModemV27ter),
		ModemV17:    f.Bit(BitModemV17),

		CompressionT42D:         f.Bit(BitCompressionT42D),
		CompressionUncompressed: f.Bit(BitCompressionUncompressed),
		CompressionT6:           f.Bit(BitCompressionT6),
		CompressionT43:          f.Bit(BitCompressionT43),
		CompressionT45:          f.Bit(BitCompressionT45),

		Width255mm:      f.Bit(BitWidth255mm),
		Width303mm:      f.Bit(BitWidth303mm),
		LengthB4:        f.Bit(BitLengthB4),
		LengthUnlimited: f.Bit(BitLengthUnlimited),
		MinScanTimeCode: f.Field(FieldMinScanTime, 3),

		ECMSupported:   f.Bit(BitECMSupported),
		ECMFrameSize64: f.Bit(BitECMFrameSize),

		ResolutionY:  f.Bit(BitResolutionY),
		ResolutionX:  f.Field(BitResolutionX, 3),
		ResolutionY2: f.Field(FieldResolutionY2, 5),
	}
}

// Apply writes p's fields into a fresh Frame of the given opcode and
// finality, then prunes it. The returned Frame's Len already reflects
// pruning; Bytes[Len:] is zeroed.
func (p Params) Apply(op Opcode, final bool) *Frame {
	f := New(op, final)
	setBool(f, BitT37Capable, p.T37Capable)
	setBool(f, BitT38Capable, p.T38Capable)
	setBool(f, BitReadyToPoll, p.ReadyToPoll)
	setBool(f, BitReadyToReceive, p.ReadyToReceive)

	setBool(f, BitModemV29, p.ModemV29)
	setBool(f, BitModemV27ter, p.ModemV27ter)
	setBool(f, BitModemV17, p.ModemV17)

	setBool(f, BitCompressionT42D, p.CompressionT42D)
	setBool(f, BitCompressionUncompressed, p.CompressionUncompressed)
	setBool(f, BitCompressionT6, p.CompressionT6)
	setBool(f, BitCompressionT43, p.CompressionT43)
	setBool(f, BitCompressionT45, p.CompressionT45)

	setBool(f, BitWidth255mm, p.Width255mm)
	setBool(f, BitWidth303mm, p.Width303mm)
	setBool(f, BitLengthB4, p.LengthB4)
	setBool(f, BitLengthUnlimited, p.LengthUnlimited)
	f.SetField(FieldMinScanTime, 3, p.MinScanTimeCode)

	setBool(f, BitECMSupported, p.ECMSupported)
	setBool(f, BitECMFrameSize, p.ECMFrameSize64)

	setBool(f, BitResolutionY, p.ResolutionY)
	f.SetField(BitResolutionX, 3, p.ResolutionX)
	f.SetField(FieldResolutionY2, 5, p.ResolutionY2)

	f.Prune()
	return f
}

func setBool(f *Frame, bit int, v bool) {
	if v {
		f.SetBit(bit)
	}
}
