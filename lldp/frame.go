package lldp

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ChassisID is the mandatory Chassis ID TLV (type 1).
type ChassisID struct {
	Subtype uint8
	ID      []byte
}

// PortID is the mandatory Port ID TLV (type 2).
type PortID struct {
	Subtype uint8
	ID      []byte
}

// Capabilities is the System Capabilities TLV (type 7) bitmap pair.
type Capabilities struct {
	Supported uint16
	Enabled   uint16
}

// StationOnly is the sole capability bit this implementation advertises, per
// LLDP: bit 2 of both bitmaps.
const StationOnly uint16 = 1 << 2

// ManagementAddress is the Management Address TLV (type 8) payload.
type ManagementAddress struct {
	AddressSubtype uint8 // MgmtAddrIPv4 or MgmtAddrIPv6
	Address        []byte
	InterfaceIndex uint32
}

// OrgSpecific is an Organizationally Specific TLV (type 127).
type OrgSpecific struct {
	OUI     [3]byte
	SubType uint8
	Data    []byte
}

// Frame is a structured LLDP advertisement: the three mandatory TLVs plus
// typed optional TLV fields. Encode emits the optional TLVs in a fixed order
// (PortDescription, SystemName, SystemDescription, Capabilities,
// ManagementAddresses, OrgSpecific, Unknown), not in the order a decoded
// frame carried them. Encode appends End-Of-LLDPDU automatically; Decode
// strips it.
type Frame struct {
	ChassisID ChassisID
	PortID    PortID
	TTL       uint16

	PortDescription    string
	HasPortDescription bool
	SystemName         string
	HasSystemName      bool
	SystemDescription  string
	HasSystemDescription bool
	Capabilities       *Capabilities
	ManagementAddresses []ManagementAddress
	OrgSpecific         []OrgSpecific
	Unknown             []TLV
}

// Encode serializes f into the LLDPDU TLV stream (no Ethernet header),
// enforcing mandatory ordering Chassis -> Port -> TTL -> optional -> End.
func (f Frame) Encode() ([]byte, error) {
	var out []byte

	chassisPayload := append([]byte{f.ChassisID.Subtype}, f.ChassisID.ID...)
	b, err := TLV{Type: TypeChassisID, Payload: chassisPayload}.encode()
	if err != nil {
		return nil, err
	}
	out = append(out, b...)

	portPayload := append([]byte{f.PortID.Subtype}, f.PortID.ID...)
	b, err = TLV{Type: TypePortID, Payload: portPayload}.encode()
	if err != nil {
		return nil, err
	}
	out = append(out, b...)

	ttlPayload := make([]byte, 2)
	binary.BigEndian.PutUint16(ttlPayload, f.TTL)
	b, err = TLV{Type: TypeTTL, Payload: ttlPayload}.encode()
	if err != nil {
		return nil, err
	}
	out = append(out, b...)

	if f.HasPortDescription {
		b, err = TLV{Type: TypePortDescription, Payload: []byte(f.PortDescription)}.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	if f.HasSystemName {
		b, err = TLV{Type: TypeSystemName, Payload: []byte(f.SystemName)}.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	if f.HasSystemDescription {
		b, err = TLV{Type: TypeSystemDescription, Payload: []byte(f.SystemDescription)}.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	if f.Capabilities != nil {
		payload := make([]byte, 4)
		binary.BigEndian.PutUint16(payload[0:2], f.Capabilities.Supported)
		binary.BigEndian.PutUint16(payload[2:4], f.Capabilities.Enabled)
		b, err = TLV{Type: TypeSystemCapabilities, Payload: payload}.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	for _, m := range f.ManagementAddresses {
		payload, err := encodeManagementAddress(m)
		if err != nil {
			return nil, err
		}
		b, err = TLV{Type: TypeManagementAddress, Payload: payload}.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	for _, o := range f.OrgSpecific {
		payload := append([]byte{o.OUI[0], o.OUI[1], o.OUI[2], o.SubType}, o.Data...)
		b, err = TLV{Type: TypeOrganizationallySpecific, Payload: payload}.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	for _, u := range f.Unknown {
		b, err = u.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}

	end, err := TLV{Type: TypeEndOfLLDPDU, Payload: nil}.encode()
	if err != nil {
		return nil, err
	}
	out = append(out, end...)

	if len(out) > MaxFrameBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, len(out))
	}
	return out, nil
}

func encodeManagementAddress(m ManagementAddress) ([]byte, error) {
	addrLen := len(m.Address) + 1
	if addrLen > 0xFF {
		return nil, fmt.Errorf("%w: management address too long", ErrTLVTooLong)
	}
	out := make([]byte, 0, 1+1+len(m.Address)+1+4+1)
	out = append(out, byte(addrLen), m.AddressSubtype)
	out = append(out, m.Address...)
	out = append(out, 2) // interface-numbering subtype: ifIndex
	ifIdx := make([]byte, 4)
	binary.BigEndian.PutUint32(ifIdx, m.InterfaceIndex)
	out = append(out, ifIdx...)
	out = append(out, 0) // OID length: always empty
	return out, nil
}

// Decode parses raw into a Frame, validating mandatory TLV order and
// preserving unknown optional TLVs verbatim. It stops at End-Of-LLDPDU or at
// buffer exhaustion.
func Decode(raw []byte) (Frame, error) {
	var f Frame
	var step int
	b := raw

	for i := 0; len(b) > 0; i++ {
		tlv, n, err := decodeTLV(b)
		if err != nil {
			return Frame{}, err
		}
		b = b[n:]

		if tlv.Type == TypeEndOfLLDPDU {
			break
		}

		switch step {
		case 0:
			if tlv.Type != TypeChassisID {
				return Frame{}, fmt.Errorf("%w: expected chassis id first, got type %d", ErrFrameOrderInvalid, tlv.Type)
			}
			if len(tlv.Payload) < 1 {
				return Frame{}, fmt.Errorf("%w: empty chassis id payload", ErrMalformedFrame)
			}
			f.ChassisID = ChassisID{Subtype: tlv.Payload[0], ID: append([]byte(nil), tlv.Payload[1:]...)}
			step = 1
			continue
		case 1:
			if tlv.Type != TypePortID {
				return Frame{}, fmt.Errorf("%w: expected port id second, got type %d", ErrFrameOrderInvalid, tlv.Type)
			}
			if len(tlv.Payload) < 1 {
				return Frame{}, fmt.Errorf("%w: empty port id payload", ErrMalformedFrame)
			}
			f.PortID = PortID{Subtype: tlv.Payload[0], ID: append([]byte(nil), tlv.Payload[1:]...)}
			step = 2
			continue
		case 2:
			if tlv.Type != TypeTTL {
				return Frame{}, fmt.Errorf("%w: expected ttl third, got type %d", ErrFrameOrderInvalid, tlv.Type)
			}
			if len(tlv.Payload) != 2 {
				return Frame{}, fmt.Errorf("%w: ttl payload must be 2 bytes", ErrMalformedFrame)
			}
			f.TTL = binary.BigEndian.Uint16(tlv.Payload)
			step = 3
			continue
		}

		switch tlv.Type {
		case TypePortDescription:
			f.PortDescription = decodeText(tlv.Payload)
			f.HasPortDescription = true
		case TypeSystemName:
			f.SystemName = decodeText(tlv.Payload)
			f.HasSystemName = true
		case TypeSystemDescription:
			f.SystemDescription = decodeText(tlv.Payload)
			f.HasSystemDescription = true
		case TypeSystemCapabilities:
			if len(tlv.Payload) != 4 {
				return Frame{}, fmt.Errorf("%w: capabilities payload must be 4 bytes", ErrMalformedFrame)
			}
			f.Capabilities = &Capabilities{
				Supported: binary.BigEndian.Uint16(tlv.Payload[0:2]),
				Enabled:   binary.BigEndian.Uint16(tlv.Payload[2:4]),
			}
		case TypeManagementAddress:
			m, err := decodeManagementAddress(tlv.Payload)
			if err != nil {
				return Frame{}, err
			}
			f.ManagementAddresses = append(f.ManagementAddresses, m)
		case TypeOrganizationallySpecific:
			if len(tlv.Payload) < 4 {
				return Frame{}, fmt.Errorf("%w: org-specific payload too short", ErrMalformedFrame)
			}
			f.OrgSpecific = append(f.OrgSpecific, OrgSpecific{
				OUI:     [3]byte{tlv.Payload[0], tlv.Payload[1], tlv.Payload[2]},
				SubType: tlv.Payload[3],
				Data:    append([]byte(nil), tlv.Payload[4:]...),
			})
		default:
			f.Unknown = append(f.Unknown, tlv)
		}
	}

	if step < 3 {
		return Frame{}, fmt.Errorf("%w: frame ended before mandatory tlvs were seen", ErrFrameOrderInvalid)
	}
	return f, nil
}

func decodeManagementAddress(p []byte) (ManagementAddress, error) {
	if len(p) < 2 {
		return ManagementAddress{}, fmt.Errorf("%w: management address payload too short", ErrMalformedFrame)
	}
	addrLen := int(p[0])
	if addrLen < 1 || len(p) < 1+addrLen {
		return ManagementAddress{}, fmt.Errorf("%w: management address length overrun", ErrMalformedFrame)
	}
	subtype := p[1]
	addr := append([]byte(nil), p[2:1+addrLen]...)
	rest := p[1+addrLen:]
	var ifIndex uint32
	if len(rest) >= 5 {
		ifIndex = binary.BigEndian.Uint32(rest[1:5])
	}
	return ManagementAddress{AddressSubtype: subtype, Address: addr, InterfaceIndex: ifIndex}, nil
}

// decodeText decodes a UTF-8 string TLV with lossy replacement; it never
// fails on invalid UTF-8.
func decodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
