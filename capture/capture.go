// Package capture implements the long-running capture worker: one listener
// per resolved interface, decoding LLDP frames and upserting neighbor
// records into the store.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvance/winlldp/l2"
	"github.com/mvance/winlldp/lldp"
	"github.com/mvance/winlldp/store"
	"github.com/mvance/winlldp/sysinfo"
)

func decodeEthernetPacket(raw []byte) gopacket.Packet {
	return gopacket.NewPacket(raw, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
}

// Config selects which interfaces the worker listens on.
type Config struct {
	Interface string // "all" or a single interface name
}

// Run resolves the target interfaces and listens on each until ctx is
// cancelled. It returns nil if at least one interface ran to a clean
// (context-cancelled) stop; otherwise a non-nil error so the caller can
// exit(2) — exit 0 only if at least one interface ran to termination.
func Run(ctx context.Context, cfg Config, st *store.Store, log *zap.Logger) error {
	ifaces, err := resolveInterfaces(cfg)
	if err != nil {
		return err
	}
	if len(ifaces) == 0 {
		return fmt.Errorf("capture: no operational interfaces to listen on")
	}

	g, ctx := errgroup.WithContext(ctx)
	var succeeded int32

	for _, name := range ifaces {
		name := name
		g.Go(func() error {
			if err := listenOn(ctx, name, st, log); err != nil {
				log.Warn("capture on interface failed", zap.String("interface", name), zap.Error(err))
				return nil // isolate: one interface's failure doesn't cancel siblings
			}
			atomic.AddInt32(&succeeded, 1)
			return nil
		})
	}

	_ = g.Wait()
	if atomic.LoadInt32(&succeeded) == 0 {
		return fmt.Errorf("capture: all interfaces failed")
	}
	return nil
}

func resolveInterfaces(cfg Config) ([]string, error) {
	if cfg.Interface != "all" {
		return []string{cfg.Interface}, nil
	}
	snap, err := sysinfo.Collect()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ifi := range snap.Operational() {
		names = append(names, ifi.Name)
	}
	return names, nil
}

// listenOn runs one interface's receive loop until ctx is cancelled or the
// listener reports a fatal error. A clean context-cancellation counts as
// "ran to termination."
func listenOn(ctx context.Context, iface string, st *store.Store, log *zap.Logger) error {
	listener, err := l2.Listen(ctx, iface)
	if err != nil {
		return err
	}
	defer listener.Close()

	log.Info("listening for lldp frames", zap.String("interface", iface))

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-listener.Frames:
			if !ok {
				return nil
			}
			if err := processFrame(raw, iface, st, log); err != nil {
				log.Debug("dropped frame", zap.String("interface", iface), zap.Error(err))
			}
		}
	}
}

// processFrame decodes one captured frame and upserts the resulting
// neighbor record.
func processFrame(raw []byte, iface string, st *store.Store, log *zap.Logger) error {
	pkt := decodeEthernetPacket(raw)
	f, _, err := lldp.DecodeEthernet(pkt)
	if err != nil {
		return err
	}

	now := time.Now()
	record := store.Record{
		Interface:             iface,
		ChassisIDSubtype:      f.ChassisID.Subtype,
		ChassisID:             lldp.FormatChassisID(f.ChassisID.Subtype, f.ChassisID.ID),
		PortIDSubtype:         f.PortID.Subtype,
		PortID:                lldp.FormatPortID(f.PortID.Subtype, f.PortID.ID),
		PortDescription:       f.PortDescription,
		SystemName:            f.SystemName,
		SystemDescription:     f.SystemDescription,
		ReceivedTTL:           f.TTL,
		FirstSeen:             store.NewTimestamp(now),
		LastSeen:              store.NewTimestamp(now),
		RawTLVDump:            fmt.Sprintf("%x", raw),
	}
	if f.Capabilities != nil {
		record.CapabilitiesSupported = f.Capabilities.Supported
		record.CapabilitiesEnabled = f.Capabilities.Enabled
	}
	for _, m := range f.ManagementAddresses {
		record.ManagementAddresses = append(record.ManagementAddresses, formatManagementAddress(m))
	}

	_, err = st.Upsert(record)
	return err
}

func formatManagementAddress(m lldp.ManagementAddress) string {
	if m.AddressSubtype == lldp.MgmtAddrIPv4 && len(m.Address) == 4 {
		return fmt.Sprintf("%d.%d.%d.%d", m.Address[0], m.Address[1], m.Address[2], m.Address[3])
	}
	return fmt.Sprintf("hex:%x", m.Address)
}

// PID sidecar helpers, used by the worker entry point (cmd/winlldp-capture).

// WritePIDFile writes the current process's PID to path.
func WritePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644)
}

// RemovePIDFile removes path, ignoring a not-exist error.
func RemovePIDFile(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
