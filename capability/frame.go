// Package capability builds and parses the variable-length DIS/DTC/DCS
// capability descriptor frames of T.30 Table 2: a bit-addressed
// sequence of octets where the top bit of every non-final octet is an
// "extension follows" flag.
//
// Grounded on _examples/original_source/src/t30.c
// (prune_dis_dtc / t30_decode_dis_dtc_dcs / build_dcs) for exact bit
// semantics, rendered in the struct-per-concern style of
// doismellburning-samoyed/src/ax25_pad.go (a from-scratch Go encoder
// for another bit-addressed link-layer frame format, AX.25).
package capability

import "github.com/doismellburning/faxt30/hdlc"

// Opcode identifies which of the three capability frames a Frame holds.
// The values are the hdlc package's FCF codes for DIS, DTC and DCS, so
// the FCF octet New writes is the one package t30 dispatches on.
type Opcode byte

const (
	DIS Opcode = Opcode(hdlc.FCFDIS)
	DTC Opcode = Opcode(hdlc.FCFDTC)
	DCS Opcode = Opcode(hdlc.FCFDCS)
)

// maxOctets is the number of info octets available after the header
// (addr, control, FCF): sixteen, per spec.md §4.3's "start with opcode
// octet then sixteen zero octets."
const maxOctets = 16

// headerLen is the number of fixed bytes (address, control, FCF) that
// precede the info octets within Frame.Bytes.
const headerLen = 3

// Frame is a DIS, DTC or DCS capability descriptor, stored as the full
// wire image: Bytes[0] = 0xFF, Bytes[1] = 0x03 or 0x13, Bytes[2] = FCF
// opcode, Bytes[3:] = up to sixteen info octets (T.30 "octet 1".."octet
// 16"). Len is the number of valid bytes in Bytes; bytes beyond Len
// are unused zero padding.
type Frame struct {
	Bytes [headerLen + maxOctets]byte
	Len   int
}

// New builds an empty capability frame: opcode set, control byte
// non-final (0x03), all sixteen info octets zeroed. Bit() and Field()
// calls fill in content; Prune() trims and finalizes it before
// transmission.
func New(op Opcode, final bool) *Frame {
	f := &Frame{}
	f.Bytes[0] = 0xFF
	if final {
		f.Bytes[1] = 0x13
	} else {
		f.Bytes[1] = 0x03
	}
	f.Bytes[2] = byte(op)
	f.Len = headerLen + maxOctets
	return f
}

// octetIndex returns the Bytes index holding bit n (1-based, per T.30
// numbering) and the bit's position within that byte.
func octetIndex(n int) (idx, bit int) {
	return headerLen + (n-1)/8, (n - 1) % 8
}

// SetBit sets T.30 bit n (1-based). Bit 1 is the least significant bit
// of the first info octet.
func (f *Frame) SetBit(n int) {
	idx, bit := octetIndex(n)
	f.Bytes[idx] |= 1 << bit
}

// Bit reports whether T.30 bit n is set.
func (f *Frame) Bit(n int) bool {
	idx, bit := octetIndex(n)
	return f.Bytes[idx]&(1<<bit) != 0
}

// SetField ORs value into the bit field starting at T.30 bit n,
// width bits wide, without disturbing other bits sharing the same
// octet(s). value must fit in width bits; the caller is responsible
// for not setting a field that straddles an octet boundary (none of
// the fields spec.md §4.3 enumerates do).
func (f *Frame) SetField(n, width int, value uint) {
	for i := 0; i < width; i++ {
		if value&(1<<uint(i)) != 0 {
			f.SetBit(n + i)
		}
	}
}

// Field reads a width-bit field starting at T.30 bit n.
func (f *Frame) Field(n, width int) uint {
	var v uint
	for i := 0; i < width; i++ {
		if f.Bit(n + i) {
			v |= 1 << uint(i)
		}
	}
	return v
}

// Prune trims trailing all-zero info octets and rewrites extension
// bits, per spec.md §4.3: scan from octet 18 (array index) down to 4,
// the last non-zero octet (after masking its extension bit) fixes the
// length, and every non-final octet below that point gets its
// extension bit set. Returns the final frame length.
func (f *Frame) Prune() int {
	last := headerLen
	for i := headerLen + maxOctets - 1; i >= headerLen+1; i-- {
		f.Bytes[i] &^= 0x80
		if f.Bytes[i] != 0 {
			last = i
			break
		}
	}
	f.Len = last + 1
	for i := headerLen; i < last; i++ {
		f.Bytes[i] |= 0x80
	}
	// zero the unused tail so a reused Frame never leaks stale bits
	for i := f.Len; i < len(f.Bytes); i++ {
		f.Bytes[i] = 0
	}
	return f.Len
}

// Opcode returns the frame's FCF opcode (with the low "DIS received"
// response bit masked off, per spec.md §6: frames from the answerer
// set bit 0 of the FCF octet).
func (f *Frame) Opcode() Opcode {
	return Opcode(f.Bytes[2] &^ 0x01)
}

// Final reports whether this is the last frame of a response group
// (control byte 0x13).
func (f *Frame) Final() bool {
	return f.Bytes[1] == 0x13
}

// Parse builds a Frame from received wire bytes (already known-good
// FCS, address 0xFF and control byte verified by the caller). It
// copies up to headerLen+maxOctets bytes and zero-pads any bit
// position beyond the received length, so Bit/Field are always safe
// to call regardless of how short the remote's frame was.
func Parse(raw []byte) *Frame {
	f := &Frame{}
	n := copy(f.Bytes[:], raw)
	f.Len = n
	return f
}
