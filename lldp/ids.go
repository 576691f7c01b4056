package lldp

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// idKind classifies how an identifier's bytes should round-trip through
// text, per the neighbor store's serialization rule.
type idKind int

const (
	idKindMAC idKind = iota
	idKindText
	idKindHex
)

func kindForChassisSubtype(subtype uint8) idKind {
	if subtype == ChassisIDMACAddress {
		return idKindMAC
	}
	return idKindText
}

func kindForPortSubtype(subtype uint8) idKind {
	switch subtype {
	case PortIDMACAddress:
		return idKindMAC
	case PortIDInterfaceName:
		return idKindText
	default:
		return idKindHex
	}
}

// FormatChassisID renders a Chassis ID's raw bytes the way the neighbor
// store persists them: lowercase colon-separated hex for MAC subtypes, UTF-8
// text for name subtypes, "hex:"-prefixed hex otherwise.
func FormatChassisID(subtype uint8, id []byte) string {
	return formatID(kindForChassisSubtype(subtype), id)
}

// FormatPortID renders a Port ID's raw bytes using the same rule as
// FormatChassisID, keyed on the Port ID subtype space.
func FormatPortID(subtype uint8, id []byte) string {
	return formatID(kindForPortSubtype(subtype), id)
}

func formatID(kind idKind, id []byte) string {
	switch kind {
	case idKindMAC:
		return formatMAC(id)
	case idKindText:
		return decodeText(id)
	default:
		return "hex:" + hex.EncodeToString(id)
	}
}

func formatMAC(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, ":")
}
