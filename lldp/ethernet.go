package lldp

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// MulticastMAC is the nearest-bridge multicast destination LLDP frames are
// sent to.
var MulticastMAC = net.HardwareAddr{0x01, 0x80, 0xc2, 0x00, 0x00, 0x0e}

// EtherType is the LLDP EtherType.
const EtherType = 0x88cc

// EncodeEthernet builds a complete Ethernet-II frame carrying f's LLDPDU,
// using srcMAC as the frame's source address.
func EncodeEthernet(f Frame, srcMAC net.HardwareAddr) ([]byte, error) {
	payload, err := f.Encode()
	if err != nil {
		return nil, err
	}

	eth := layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       MulticastMAC,
		EthernetType: EtherType,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	if err := gopacket.SerializeLayers(buf, opts, &eth, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("lldp: serialize ethernet frame: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeEthernet pulls the LLDPDU out of a captured gopacket.Packet,
// verifying the EtherType before delegating to TLV decode.
func DecodeEthernet(pkt gopacket.Packet) (Frame, net.HardwareAddr, error) {
	ethLayer := pkt.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return Frame{}, nil, fmt.Errorf("lldp: packet has no ethernet layer")
	}
	eth := ethLayer.(*layers.Ethernet)
	if eth.EthernetType != EtherType {
		return Frame{}, nil, fmt.Errorf("lldp: unexpected ethertype 0x%04x", uint16(eth.EthernetType))
	}
	f, err := Decode(eth.Payload)
	if err != nil {
		return Frame{}, nil, err
	}
	return f, eth.SrcMAC, nil
}
