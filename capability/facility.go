package capability

import "fmt"

// NonStandardFacility is the raw NSF/NSC/NSS blob T.30 lets a vendor
// attach to DIS/DCS (spec.md "local identity / subaddress / password /
// non-standard facility blob"; §9 "Supplemented features" #1). The
// wire layout is a country code octet, then a vendor-identifying
// sequence, then an arbitrary payload — spandsp passes this opaquely
// and so does this repo; Country/Vendor are just split out for
// logging, they carry no protocol semantics of their own.
type NonStandardFacility struct {
	Country byte
	Vendor  byte
	Payload []byte
}

// BuildNonStandardFacility encodes the facility blob's payload only;
// header bytes are the caller's responsibility, unlike BuildIdentity20,
// which writes them.
func BuildNonStandardFacility(n NonStandardFacility) []byte {
	out := make([]byte, 2+len(n.Payload))
	out[0] = n.Country
	out[1] = n.Vendor
	copy(out[2:], n.Payload)
	return out
}

// ParseNonStandardFacility decodes a received NSF/NSC/NSS payload.
func ParseNonStandardFacility(payload []byte) (NonStandardFacility, error) {
	if len(payload) < 2 {
		return NonStandardFacility{}, fmt.Errorf("capability: non-standard facility payload too short (%d bytes)", len(payload))
	}
	return NonStandardFacility{
		Country: payload[0],
		Vendor:  payload[1],
		Payload: append([]byte(nil), payload[2:]...),
	}, nil
}
