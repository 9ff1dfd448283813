package ecm

import (
	"fmt"

	"github.com/doismellburning/faxt30/hdlc"
)

// RCPRepeats is how many RCP (return to control, end of ECM block)
// frames follow a burst of FCD frames: three, to maximize the chance
// the far end's HDLC receiver actually catches one, grounded on
// t30.c's comment on why it sends RCP three times rather than once.
const RCPRepeats = 3

// Fill splits raw page data into FCD-sized frames and loads them into
// buf starting at slot 0, returning the number of frames produced.
// frameOctets is the negotiated per-frame payload size (256 normally,
// 64 when DCS bit 28 selected the smaller size).
func Fill(buf *Buffer, data []byte, frameOctets int) (int, error) {
	if frameOctets <= 0 {
		return 0, fmt.Errorf("ecm: invalid frame size %d", frameOctets)
	}
	buf.Reset()
	n := 0
	for off := 0; off < len(data); off += frameOctets {
		if n >= Slots {
			return n, fmt.Errorf("ecm: page data exceeds %d ECM frames at %d octets each", Slots, frameOctets)
		}
		end := off + frameOctets
		if end > len(data) {
			end = len(data)
		}
		if err := buf.Put(n, data[off:end]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// BuildFCD renders slot frameNo of buf as an FCD frame: header plus a
// one-octet frame number plus the slot's data (t30.c stores frame_no
// at msg[3] and the payload from msg[4:]).
func BuildFCD(buf *Buffer, frameNo int, disReceived bool) (hdlc.Frame, error) {
	data, ok := buf.Get(frameNo)
	if !ok {
		return hdlc.Frame{}, fmt.Errorf("ecm: slot %d is empty", frameNo)
	}
	payload := make([]byte, 1+len(data))
	payload[0] = byte(frameNo)
	copy(payload[1:], data)
	return hdlc.Frame{
		Header:  hdlc.NewHeader(hdlc.FCFFCD, disReceived, false),
		Payload: payload,
	}, nil
}

// ParseFCD extracts the frame number and data from a received FCD
// frame's payload.
func ParseFCD(payload []byte) (frameNo int, data []byte, err error) {
	if len(payload) < 1 {
		return 0, nil, fmt.Errorf("ecm: empty FCD payload")
	}
	return int(payload[0]), payload[1:], nil
}

// BuildRCP renders one RCP frame: the simple one-byte-FCF control
// frame marking the end of an ECM block.
func BuildRCP(disReceived bool) hdlc.Frame {
	return hdlc.Frame{Header: hdlc.NewHeader(hdlc.FCFRCP, disReceived, false)}
}

// BuildBurst renders the full send burst for a partial page: every
// filled slot below frames as an FCD frame, followed by RCPRepeats RCP
// frames (spec.md §4.4 "send-burst").
func BuildBurst(buf *Buffer, frames int, disReceived bool) ([]hdlc.Frame, error) {
	out := make([]hdlc.Frame, 0, frames+RCPRepeats)
	for i := 0; i < frames; i++ {
		if !buf.Filled(i) {
			continue
		}
		f, err := BuildFCD(buf, i, disReceived)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	for i := 0; i < RCPRepeats; i++ {
		out = append(out, BuildRCP(disReceived))
	}
	return out, nil
}
