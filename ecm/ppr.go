package ecm

// PPR is the decoded form of a Partial Page Request: a 32-octet
// bitmap, one bit per slot, set where that slot's frame is still
// missing or was corrupt (spec.md §4.4; t30.c's ecm_frame_map built in
// the loop that ORs in `1 << j` for every unfilled ecm_len entry).
type PPR struct {
	Bitmap [BitmapLen]byte
}

// BuildPPR scans buf's slots up to frames and sets a bit for every one
// still missing.
func BuildPPR(buf *Buffer, frames int) PPR {
	var p PPR
	for i := 0; i < frames && i < Slots; i++ {
		if !buf.Filled(i) {
			p.Bitmap[i/8] |= 1 << uint(i%8)
		}
	}
	return p
}

// ParsePPR decodes a received PPR frame's bitmap payload. A payload
// shorter than BitmapLen is zero-extended (fewer frames were sent than
// the bitmap could describe); one longer is truncated.
func ParsePPR(payload []byte) PPR {
	var p PPR
	n := copy(p.Bitmap[:], payload)
	_ = n
	return p
}

// Bytes renders the bitmap as a PPR frame payload.
func (p PPR) Bytes() []byte {
	return append([]byte(nil), p.Bitmap[:]...)
}

// Missing reports whether frameNo is marked bad in the bitmap.
func (p PPR) Missing(frameNo int) bool {
	if frameNo < 0 || frameNo >= Slots {
		return false
	}
	return p.Bitmap[frameNo/8]&(1<<uint(frameNo%8)) != 0
}

// Count returns how many slots the bitmap marks as missing.
func (p PPR) Count() int {
	n := 0
	for i := 0; i < Slots; i++ {
		if p.Missing(i) {
			n++
		}
	}
	return n
}

// Apply clears every slot p does NOT mark missing (the ones the far
// end already has cleanly), leaving only the still-bad slots filled,
// so a subsequent retransmit burst resends exactly those. On the
// sending side this is applied to the transmit buffer: t30.c's
// response to PPR sets ecm_len[frame_no] = -1 for every frame the
// bitmap does not complain about, and leaves ecm_len alone (so it gets
// resent) for every frame it does.
func (p PPR) Apply(buf *Buffer, frames int) {
	for i := 0; i < frames && i < Slots; i++ {
		if !p.Missing(i) {
			buf.Clear(i)
		}
	}
}
