// Package sender builds and schedules periodic LLDP advertisement frames,
package sender

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/mvance/winlldp/config"
	"github.com/mvance/winlldp/l2"
	"github.com/mvance/winlldp/lldp"
	"github.com/mvance/winlldp/sysinfo"
)

// Transport is the subset of the l2 package the sender depends on; tests
// substitute a fake to avoid opening real raw sockets.
type Transport interface {
	Send(iface string, frame []byte) error
}

type pcapTransport struct{}

func (pcapTransport) Send(iface string, frame []byte) error { return l2.Send(iface, frame) }

// Sender owns the scheduled-emission loop.
type Sender struct {
	cfg       *config.Config
	log       *zap.Logger
	transport Transport
	snapshot  func() (sysinfo.Snapshot, error)
}

// New builds a Sender against the real pcap transport and live system
// snapshot.
func New(cfg *config.Config, log *zap.Logger) *Sender {
	return &Sender{cfg: cfg, log: log, transport: pcapTransport{}, snapshot: sysinfo.Collect}
}

// Run executes one tick every cfg.Interval seconds until ctx is cancelled,
// using a monotonic "tick_start + interval" wake schedule so processing
// time does not accumulate drift.
func (s *Sender) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.Interval) * time.Second
	for {
		start := time.Now()
		s.Tick(ctx, false)

		next := start.Add(interval)
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tick builds and emits one frame per resolved interface. Per-interface
// failures are logged at warn and never abort the tick for other
// interfaces.
func (s *Sender) Tick(ctx context.Context, verbose bool) {
	snap, err := s.snapshot()
	if err != nil {
		s.log.Error("system snapshot failed", zap.Error(err))
		return
	}

	for _, ifi := range s.resolveInterfaces(snap) {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := s.buildFrame(snap, ifi, s.cfg.TTL)
		if err != nil {
			s.log.Warn("encode failed", zap.String("interface", ifi.Name), zap.Error(err))
			continue
		}
		raw, err := lldp.EncodeEthernet(frame, ifi.MAC)
		if err != nil {
			s.log.Warn("encode ethernet frame failed", zap.String("interface", ifi.Name), zap.Error(err))
			continue
		}
		if verbose {
			s.log.Info("sending lldp frame",
				zap.String("interface", ifi.Name),
				zap.String("mac", ifi.MAC.String()),
				zap.Int("bytes", len(raw)),
				zap.String("hex", fmt.Sprintf("%x", raw)),
			)
		}
		if err := s.transport.Send(ifi.Name, raw); err != nil {
			s.log.Warn("send failed", zap.String("interface", ifi.Name), zap.Error(err))
			continue
		}
	}
}

// Shutdown emits one TTL=0 withdraw frame per resolved interface,
// best-effort.
func (s *Sender) Shutdown(ctx context.Context) {
	snap, err := s.snapshot()
	if err != nil {
		return
	}
	for _, ifi := range s.resolveInterfaces(snap) {
		frame, err := s.buildFrame(snap, ifi, 0)
		if err != nil {
			continue
		}
		raw, err := lldp.EncodeEthernet(frame, ifi.MAC)
		if err != nil {
			continue
		}
		if err := s.transport.Send(ifi.Name, raw); err != nil {
			s.log.Warn("withdraw send failed", zap.String("interface", ifi.Name), zap.Error(err))
		}
	}
}

// SendOnce runs a single tick immediately, for the "send" CLI command.
func (s *Sender) SendOnce(verbose bool) {
	s.Tick(context.Background(), verbose)
}

// resolveInterfaces returns either the single configured interface, or
// every operational interface with a MAC and at least one IPv4 address,
// skipping loopback/MAC-less interfaces and later interfaces that share a
// MAC with one already selected.
func (s *Sender) resolveInterfaces(snap sysinfo.Snapshot) []sysinfo.Interface {
	if s.cfg.Interface != "all" {
		ifi, ok := snap.ByName(s.cfg.Interface)
		if !ok || !ifi.IsOperational || ifi.MAC == nil {
			return nil
		}
		return []sysinfo.Interface{ifi}
	}

	seenMAC := map[string]string{} // mac -> first interface name claiming it
	var out []sysinfo.Interface
	for _, ifi := range snap.Operational() {
		if len(ifi.IPv4Addresses) == 0 {
			continue
		}
		macKey := ifi.MAC.String()
		if owner, dup := seenMAC[macKey]; dup {
			s.log.Warn("skipping interface sharing a MAC with an earlier one",
				zap.String("interface", ifi.Name), zap.String("mac", macKey), zap.String("already_used_by", owner))
			continue
		}
		seenMAC[macKey] = ifi.Name
		out = append(out, ifi)
	}
	return out
}

// buildFrame fills in Chassis, Port, TTL, SystemName, SystemDescription,
// PortDescription, SystemCapabilities and ManagementAddress. Wire order is
// set by lldp.Frame.Encode: Chassis -> Port -> TTL -> PortDescription ->
// SystemName -> SystemDescription -> SystemCapabilities ->
// ManagementAddress -> End.
func (s *Sender) buildFrame(snap sysinfo.Snapshot, ifi sysinfo.Interface, ttl int) (lldp.Frame, error) {
	f := lldp.Frame{
		ChassisID: lldp.ChassisID{Subtype: lldp.ChassisIDMACAddress, ID: []byte(ifi.MAC)},
		PortID:    lldp.PortID{Subtype: lldp.PortIDInterfaceName, ID: []byte(ifi.Name)},
		TTL:       uint16(ttl),
	}

	systemName := s.cfg.SystemName
	if systemName == "auto" {
		systemName = snap.Hostname
		if systemName == "" {
			systemName = "unknown"
		}
	}
	f.SystemName = systemName
	f.HasSystemName = true

	systemDesc := s.cfg.SystemDescription
	if systemDesc == "" {
		systemDesc = snap.OSVersion
	}
	f.SystemDescription = systemDesc
	f.HasSystemDescription = true

	portDesc := s.cfg.PortDescription
	if portDesc == "" {
		portDesc = ifi.Name
	}
	f.PortDescription = portDesc
	f.HasPortDescription = true

	f.Capabilities = &lldp.Capabilities{Supported: lldp.StationOnly, Enabled: lldp.StationOnly}

	mgmtAddr := s.cfg.ManagementAddress
	var resolved net.IP
	if mgmtAddr == "auto" {
		if ip, ok := ifi.PrimaryIPv4(); ok {
			resolved = ip
		}
	} else if ip := net.ParseIP(mgmtAddr); ip != nil {
		resolved = ip.To4()
	}
	if resolved != nil {
		f.ManagementAddresses = []lldp.ManagementAddress{{
			AddressSubtype: lldp.MgmtAddrIPv4,
			Address:        resolved.To4(),
			InterfaceIndex: uint32(interfaceIndex(ifi.Name)),
		}}
	}

	return f, nil
}

func interfaceIndex(name string) int {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return 0
	}
	return ifi.Index
}
