package sender

import (
	"context"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mvance/winlldp/config"
	"github.com/mvance/winlldp/lldp"
	"github.com/mvance/winlldp/sysinfo"
)

func gopacketDecode(t *testing.T, raw []byte) gopacket.Packet {
	t.Helper()
	return gopacket.NewPacket(raw, layers.LayerTypeEthernet, gopacket.Default)
}

type fakeTransport struct {
	sent map[string][]byte
}

func (f *fakeTransport) Send(iface string, frame []byte) error {
	if f.sent == nil {
		f.sent = map[string][]byte{}
	}
	f.sent[iface] = frame
	return nil
}

func testSnapshot() sysinfo.Snapshot {
	return sysinfo.Snapshot{
		Hostname:  "host1",
		OSVersion: "Linux 6.8.0 X86_64",
		Interfaces: []sysinfo.Interface{
			{
				Name:          "eth0",
				MAC:           net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
				IPv4Addresses: []net.IP{net.ParseIP("10.0.0.1").To4()},
				IsOperational: true,
			},
			{
				Name:          "eth1",
				MAC:           net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, // shares MAC with eth0
				IPv4Addresses: []net.IP{net.ParseIP("10.0.0.2").To4()},
				IsOperational: true,
			},
			{
				Name:          "lo",
				IsOperational: false,
			},
		},
	}
}

func newTestSender(t *testing.T, cfg *config.Config) (*Sender, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	s := &Sender{
		cfg:       cfg,
		log:       zap.NewNop(),
		transport: ft,
		snapshot:  func() (sysinfo.Snapshot, error) { return testSnapshot(), nil },
	}
	return s, ft
}

func TestTickSkipsDuplicateMAC(t *testing.T) {
	cfg := &config.Config{Interface: "all", SystemName: "auto", TTL: 120, ManagementAddress: "auto"}
	s, ft := newTestSender(t, cfg)

	s.Tick(context.Background(), false)

	assert.Contains(t, ft.sent, "eth0")
	assert.NotContains(t, ft.sent, "eth1")
	assert.NotContains(t, ft.sent, "lo")
}

func TestTickEncodesDecodableFrame(t *testing.T) {
	cfg := &config.Config{Interface: "eth0", SystemName: "auto", TTL: 120, ManagementAddress: "auto", PortDescription: "Ethernet Port"}
	s, ft := newTestSender(t, cfg)

	s.Tick(context.Background(), false)
	require.Contains(t, ft.sent, "eth0")

	_, _, err := lldp.DecodeEthernet(gopacketDecode(t, ft.sent["eth0"]))
	require.NoError(t, err)
}

func TestShutdownSendsWithdrawTTL(t *testing.T) {
	cfg := &config.Config{Interface: "eth0", SystemName: "auto", TTL: 120, ManagementAddress: "auto"}
	s, ft := newTestSender(t, cfg)

	s.Shutdown(context.Background())
	require.Contains(t, ft.sent, "eth0")

	f, _, err := lldp.DecodeEthernet(gopacketDecode(t, ft.sent["eth0"]))
	require.NoError(t, err)
	assert.Equal(t, uint16(0), f.TTL)
}
