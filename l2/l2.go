// Package l2 adapts gopacket/pcap into the "send raw L2 bytes on interface
// I" / "deliver L2 frames matching a BPF filter for interface I" operations
// the sender and capture worker need.
package l2

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// BPFFilter is the capture filter applied to every listener.
const BPFFilter = "ether proto 0x88cc and ether dst 01:80:c2:00:00:0e"

const snapLen = 1600

// ErrPrivilegeDenied is surfaced when opening a raw capture/send handle
// fails due to insufficient privilege.
var ErrPrivilegeDenied = errors.New("l2: privilege denied opening raw socket")

// Send transmits frame on the named interface using a short-lived pcap
// handle.
func Send(iface string, frame []byte) error {
	handle, err := pcap.OpenLive(iface, snapLen, false, pcap.BlockForever)
	if err != nil {
		return classifyOpenError(iface, err)
	}
	defer handle.Close()
	if err := handle.WritePacketData(frame); err != nil {
		return fmt.Errorf("l2: write to %s: %w", iface, err)
	}
	return nil
}

// Listener captures LLDP frames on one interface, delivering each as a raw
// Ethernet frame (header included) on Frames. It is closed by cancelling
// ctx.
type Listener struct {
	Frames <-chan []byte
	handle *pcap.Handle
}

// Listen opens a capture on iface with the LLDP BPF filter applied, using
// the standard pcap.OpenLive + SetBPFFilter + gopacket.NewPacketSource
// sequence, handing back a channel instead of printing decoded packets.
func Listen(ctx context.Context, iface string) (*Listener, error) {
	handle, err := pcap.OpenLive(iface, snapLen, true, 500)
	if err != nil {
		return nil, classifyOpenError(iface, err)
	}
	if err := handle.SetBPFFilter(BPFFilter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("l2: set bpf filter on %s: %w", iface, err)
	}

	out := make(chan []byte, 32)
	src := gopacket.NewPacketSource(handle, handle.LinkType())
	src.DecodeOptions.Lazy = true
	src.DecodeOptions.NoCopy = true

	go func() {
		defer close(out)
		packets := src.Packets()
		for {
			select {
			case <-ctx.Done():
				return
			case pkt, ok := <-packets:
				if !ok {
					return
				}
				data := append([]byte(nil), pkt.Data()...)
				select {
				case out <- data:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &Listener{Frames: out, handle: handle}, nil
}

// Close releases the underlying pcap handle.
func (l *Listener) Close() {
	if l.handle != nil {
		l.handle.Close()
	}
}

// Interfaces lists every pcap-visible device.
func Interfaces() ([]pcap.Interface, error) {
	return pcap.FindAllDevs()
}

// permissionPhrases are the substrings libpcap/Npcap use in their error
// text when raw-socket access is denied; pcap has no typed sentinel for
// this, so string matching is the only option.
var permissionPhrases = []string{"Operation not permitted", "permission denied", "You don't have permission"}

func classifyOpenError(iface string, err error) error {
	msg := err.Error()
	for _, phrase := range permissionPhrases {
		if strings.Contains(msg, phrase) {
			return fmt.Errorf("%w: %s: %v", ErrPrivilegeDenied, iface, err)
		}
	}
	return fmt.Errorf("l2: open %s: %w", iface, err)
}
