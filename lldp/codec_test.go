package lldp

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMandatoryOnly(t *testing.T) {
	f := Frame{
		ChassisID: ChassisID{Subtype: ChassisIDMACAddress, ID: []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}},
		PortID:    PortID{Subtype: PortIDInterfaceName, ID: []byte("eth0")},
		TTL:       120,
	}

	got, err := f.Encode()
	require.NoError(t, err)

	want, err := hex.DecodeString("0207040011223344550405056574683006020078" + "0000")
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestDecodeRoundTrip(t *testing.T) {
	f := Frame{
		ChassisID:          ChassisID{Subtype: ChassisIDMACAddress, ID: []byte{0xaa, 0xbb, 0xcc, 0x00, 0x11, 0x22}},
		PortID:             PortID{Subtype: PortIDInterfaceName, ID: []byte("eth1")},
		TTL:                120,
		PortDescription:    "Ethernet Port",
		HasPortDescription: true,
		SystemName:         "host1",
		HasSystemName:      true,
		Capabilities:       &Capabilities{Supported: StationOnly, Enabled: StationOnly},
		ManagementAddresses: []ManagementAddress{{
			AddressSubtype: MgmtAddrIPv4,
			Address:        []byte{192, 168, 1, 1},
			InterfaceIndex: 2,
		}},
	}

	raw, err := f.Encode()
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, f.ChassisID, decoded.ChassisID)
	assert.Equal(t, f.PortID, decoded.PortID)
	assert.Equal(t, f.TTL, decoded.TTL)
	assert.Equal(t, f.PortDescription, decoded.PortDescription)
	assert.Equal(t, f.SystemName, decoded.SystemName)
	assert.Equal(t, *f.Capabilities, *decoded.Capabilities)
	assert.Equal(t, f.ManagementAddresses, decoded.ManagementAddresses)

	// Round-trip stability: re-encoding the parsed frame reproduces the
	// same bytes.
	reencoded, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, raw, reencoded)
}

func TestDecodePreservesUnknownTLV(t *testing.T) {
	f := Frame{
		ChassisID: ChassisID{Subtype: ChassisIDMACAddress, ID: []byte{1, 2, 3, 4, 5, 6}},
		PortID:    PortID{Subtype: PortIDInterfaceName, ID: []byte("eth2")},
		TTL:       60,
		Unknown:   []TLV{{Type: 9, Payload: []byte("future-extension")}},
	}

	raw, err := f.Encode()
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, decoded.Unknown, 1)
	assert.Equal(t, uint8(9), decoded.Unknown[0].Type)
	assert.Equal(t, []byte("future-extension"), decoded.Unknown[0].Payload)
}

func TestEncodeRejectsOverlongTLV(t *testing.T) {
	ok := Frame{
		ChassisID: ChassisID{Subtype: ChassisIDMACAddress, ID: []byte{1, 2, 3, 4, 5, 6}},
		PortID:    PortID{Subtype: PortIDInterfaceName, ID: []byte("eth0")},
		TTL:       30,
		SystemDescription:    string(make([]byte, 511)),
		HasSystemDescription: true,
	}
	_, err := ok.Encode()
	require.NoError(t, err)

	tooLong := ok
	tooLong.SystemDescription = string(make([]byte, 512))
	_, err = tooLong.Encode()
	require.ErrorIs(t, err, ErrTLVTooLong)
}

func TestDecodeWithoutEndOfLLDPDU(t *testing.T) {
	f := Frame{
		ChassisID: ChassisID{Subtype: ChassisIDMACAddress, ID: []byte{1, 2, 3, 4, 5, 6}},
		PortID:    PortID{Subtype: PortIDInterfaceName, ID: []byte("eth0")},
		TTL:       30,
	}
	raw, err := f.Encode()
	require.NoError(t, err)

	// Strip the trailing End-Of-LLDPDU TLV (last 2 bytes).
	truncated := raw[:len(raw)-2]

	decoded, err := Decode(truncated)
	require.NoError(t, err)
	assert.Equal(t, f.ChassisID, decoded.ChassisID)
	assert.Equal(t, f.TTL, decoded.TTL)
}

func TestDecodeRejectsLengthOverrun(t *testing.T) {
	f := Frame{
		ChassisID: ChassisID{Subtype: ChassisIDMACAddress, ID: []byte{1, 2, 3, 4, 5, 6}},
		PortID:    PortID{Subtype: PortIDInterfaceName, ID: []byte("eth0")},
		TTL:       30,
	}
	raw, err := f.Encode()
	require.NoError(t, err)

	// Corrupt the Port ID TLV's length field to declare 200 bytes while
	// only 4 remain.
	portIDHeaderOffset := 9 // chassis tlv (2 hdr + 7 payload) = 9 bytes
	header := (uint16(TypePortID&0x7F) << 9) | uint16(200)
	corrupted := append([]byte(nil), raw[:portIDHeaderOffset]...)
	corrupted = append(corrupted, byte(header>>8), byte(header))
	corrupted = append(corrupted, raw[portIDHeaderOffset+2:portIDHeaderOffset+2+4]...)

	_, err = Decode(corrupted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedFrame))
}

func TestDecodeRejectsBadOrder(t *testing.T) {
	// Port ID before Chassis ID.
	portTLV := TLV{Type: TypePortID, Payload: append([]byte{PortIDInterfaceName}, []byte("eth0")...)}
	b, err := portTLV.encode()
	require.NoError(t, err)

	_, err = Decode(b)
	require.ErrorIs(t, err, ErrFrameOrderInvalid)
}

func TestFormatChassisAndPortID(t *testing.T) {
	assert.Equal(t, "00:11:22:33:44:55", FormatChassisID(ChassisIDMACAddress, []byte{0, 0x11, 0x22, 0x33, 0x44, 0x55}))
	assert.Equal(t, "eth0", FormatPortID(PortIDInterfaceName, []byte("eth0")))
	assert.Equal(t, "hex:0102", FormatPortID(PortIDMACAddress+10, []byte{1, 2}))
}
