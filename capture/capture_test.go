package capture

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mvance/winlldp/lldp"
	"github.com/mvance/winlldp/store"
)

func buildTestFrame(t *testing.T, chassisMAC net.HardwareAddr, port string, ttl uint16) []byte {
	t.Helper()
	f := lldp.Frame{
		ChassisID: lldp.ChassisID{Subtype: lldp.ChassisIDMACAddress, ID: []byte(chassisMAC)},
		PortID:    lldp.PortID{Subtype: lldp.PortIDInterfaceName, ID: []byte(port)},
		TTL:       ttl,
	}
	raw, err := lldp.EncodeEthernet(f, chassisMAC)
	require.NoError(t, err)
	return raw
}

func TestProcessFrameCreatesNeighbor(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop()
	st := store.New(filepath.Join(dir, "neighbors.json"), log)

	mac := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	raw := buildTestFrame(t, mac, "eth0", 120)

	require.NoError(t, processFrame(raw, "eth1", st, log))

	records, err := st.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	require.Equal(t, "eth1", r.Interface)
	require.Equal(t, "00:11:22:33:44:55", r.ChassisID)
	require.Equal(t, "eth0", r.PortID)
	require.Equal(t, uint16(120), r.ReceivedTTL)
	require.Equal(t, r.FirstSeen, r.LastSeen)
}

func TestProcessFrameUpdatesPreservesFirstSeen(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop()
	st := store.New(filepath.Join(dir, "neighbors.json"), log)

	mac := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	raw := buildTestFrame(t, mac, "eth0", 120)

	require.NoError(t, processFrame(raw, "eth1", st, log))
	records, err := st.Load()
	require.NoError(t, err)
	firstSeen := records[0].FirstSeen

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, processFrame(raw, "eth1", st, log))

	records, err = st.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, firstSeen, records[0].FirstSeen)
	require.True(t, records[0].LastSeen.After(firstSeen.Time))
}

func TestProcessFrameRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop()
	st := store.New(filepath.Join(dir, "neighbors.json"), log)

	// Chassis + truncated Port ID TLV declaring length 200 with 4 bytes
	// remaining.
	chassisTLV := []byte{0x02, 0x07, 0x04, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	portHeader := (uint16(2&0x7F) << 9) | uint16(200)
	malformed := append(append([]byte(nil), chassisTLV...), byte(portHeader>>8), byte(portHeader), 0x05, 0x65, 0x74, 0x68)

	eth := layers.Ethernet{SrcMAC: net.HardwareAddr{1, 2, 3, 4, 5, 6}, DstMAC: lldp.MulticastMAC, EthernetType: lldp.EtherType}
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, &eth, gopacket.Payload(malformed)))

	require.Error(t, processFrame(buf.Bytes(), "eth1", st, log))

	records, err := st.Load()
	require.NoError(t, err)
	require.Empty(t, records)
}
