package capability

import "fmt"

// MaxIdentLen is the maximum identity string length T.30 carries in a
// 20-digit identity frame (CSI/CIG/TSI/SUB/SID/PWD/SEP/PSA).
const MaxIdentLen = 20

// identFrameLen is the fixed wire size of a 20-digit identity frame:
// address, control, FCF, then 20 payload bytes (spec.md §6).
const identFrameLen = 3 + MaxIdentLen

// BuildIdentity20 encodes id (at most 20 characters) as a 20-digit
// identity frame's payload: the characters stored in reverse order,
// space-padded on the left, grounded on
// _examples/original_source/src/t30.c's decode_20digit_msg (this is
// its inverse).
func BuildIdentity20(fcf byte, final bool, id string) ([]byte, error) {
	if len(id) > MaxIdentLen {
		return nil, fmt.Errorf("capability: identity %q exceeds %d characters", id, MaxIdentLen)
	}
	out := make([]byte, identFrameLen)
	out[0] = 0xFF
	if final {
		out[1] = 0x13
	} else {
		out[1] = 0x03
	}
	out[2] = fcf
	for i := range out[3:] {
		out[3+i] = ' '
	}
	// Characters fill from the right end of the payload, reversed.
	for i, c := range []byte(id) {
		out[3+MaxIdentLen-1-i] = c
	}
	return out, nil
}

// ParseIdentity20 decodes a 20-digit identity frame payload back into
// its string form, the inverse of BuildIdentity20: skip the leading
// space padding and reverse the remaining characters. A trailing space
// of the original identity cannot be told apart from padding and is
// dropped.
func ParseIdentity20(payload []byte) (string, error) {
	if len(payload) > MaxIdentLen {
		return "", fmt.Errorf("capability: identity payload length %d exceeds %d", len(payload), MaxIdentLen)
	}
	start := 0
	for start < len(payload) && payload[start] == ' ' {
		start++
	}
	out := make([]byte, 0, len(payload)-start)
	for p := len(payload) - 1; p >= start; p-- {
		out = append(out, payload[p])
	}
	return string(out), nil
}

// URLFrame is the payload of a URL-style identity frame (TSA/CSA/IRA/
// CIA/ISP): a sequence number + continuation flag, an address type,
// and a string, per spec.md §6.
type URLFrame struct {
	Sequence int
	More     bool
	Type     byte
	Value    string
}

// BuildURLFrame encodes a URLFrame's payload only; header bytes are the
// caller's responsibility, unlike BuildIdentity20, which writes them.
func BuildURLFrame(u URLFrame) []byte {
	seq := byte(u.Sequence & 0x7F)
	if u.More {
		seq |= 0x80
	}
	out := make([]byte, 3+len(u.Value))
	out[0] = seq
	out[1] = u.Type
	out[2] = byte(len(u.Value))
	copy(out[3:], u.Value)
	return out
}

// ParseURLFrame decodes a URL-style identity frame payload.
func ParseURLFrame(payload []byte) (URLFrame, error) {
	if len(payload) < 3 {
		return URLFrame{}, fmt.Errorf("capability: URL frame payload too short (%d bytes)", len(payload))
	}
	length := int(payload[2] &^ 0x80)
	if len(payload) < 3+length {
		return URLFrame{}, fmt.Errorf("capability: URL frame payload truncated: want %d, have %d", 3+length, len(payload))
	}
	return URLFrame{
		Sequence: int(payload[0] &^ 0x80),
		More:     payload[0]&0x80 != 0,
		Type:     payload[1],
		Value:    string(payload[3 : 3+length]),
	}, nil
}
