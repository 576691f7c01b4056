// Package store implements the durable, cross-process-safe neighbor table:
// atomic JSON persistence under an exclusive advisory lock, TTL-based
// expiry, and a merge-or-insert upsert that preserves first-seen timestamps.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// ErrCorrupt is returned (and otherwise only logged) when the neighbor file
// fails to parse on write; a write never overwrites a corrupt file
// blindly.
var ErrCorrupt = errors.New("store: neighbors file is corrupt")

const timeLayout = "2006-01-02T15:04:05.000Z"

// Key identifies a neighbor record by the triple that uniquely names a
// neighbor: local interface, chassis id bytes, and port id bytes (both
// already rendered to their persisted string form by package lldp).
type Key struct {
	Interface string
	ChassisID string
	PortID    string
}

// Record is a persisted neighbor entry.
type Record struct {
	Interface            string    `json:"interface"`
	ChassisIDSubtype      uint8     `json:"chassis_id_subtype"`
	ChassisID             string    `json:"chassis_id"`
	PortIDSubtype         uint8     `json:"port_id_subtype"`
	PortID                string    `json:"port_id"`
	PortDescription       string    `json:"port_description,omitempty"`
	SystemName            string    `json:"system_name,omitempty"`
	SystemDescription     string    `json:"system_description,omitempty"`
	CapabilitiesSupported uint16    `json:"capabilities_supported"`
	CapabilitiesEnabled   uint16    `json:"capabilities_enabled"`
	ManagementAddresses   []string  `json:"management_addresses,omitempty"`
	ReceivedTTL           uint16    `json:"received_ttl"`
	FirstSeen             Timestamp `json:"first_seen"`
	LastSeen              Timestamp `json:"last_seen"`
	RawTLVDump            string    `json:"raw_tlv_dump,omitempty"`
}

func (r Record) key() Key {
	return Key{Interface: r.Interface, ChassisID: r.ChassisID, PortID: r.PortID}
}

// IsLive reports whether r has not yet expired at instant now, per the
// liveness rule: now - last_seen <= received_ttl.
func (r Record) IsLive(now time.Time) bool {
	if r.ReceivedTTL == 0 {
		return false
	}
	return !now.After(r.LastSeen.Add(time.Duration(r.ReceivedTTL) * time.Second))
}

type snapshot struct {
	Neighbors []Record `json:"neighbors"`
}

// Store owns the on-disk neighbor table at path, with an advisory lock
// sidecar at path+".lock".
type Store struct {
	path string
	lock *flock.Flock
	log  *zap.Logger

	// mu serializes writers within this process; the flock sidecar only
	// excludes other processes.
	mu sync.Mutex

	corruptOnce sync.Once
}

// New returns a Store backed by path, logging to log the first time a read
// finds the neighbor file corrupt. The file and its lock sidecar are
// created lazily on first write.
func New(path string, log *zap.Logger) *Store {
	return &Store{path: path, lock: flock.New(path + ".lock"), log: log}
}

// UpsertResult reports whether an Upsert created a new record or refreshed
// an existing one.
type UpsertResult int

const (
	Created UpsertResult = iota
	Updated
)

// Load reads the neighbor file and returns every record it contains,
// expired or not. A missing or malformed file yields an empty result rather
// than an error — callers wanting only expired-filtered records should
// use ListLive.
func (s *Store) Load() ([]Record, error) {
	return s.readWithRetry()
}

func (s *Store) readWithRetry() ([]Record, error) {
	records, err := s.readOnce()
	if err == nil {
		return records, nil
	}
	time.Sleep(20 * time.Millisecond)
	records, err = s.readOnce()
	if err != nil {
		s.logCorruptOnce(err)
		return nil, nil
	}
	return records, nil
}

// logCorruptOnce emits ErrCorrupt at most once per Store, per spec.md
// §4.2/§7's "log once" requirement for a read that treats a malformed
// neighbor file as empty.
func (s *Store) logCorruptOnce(err error) {
	if !errors.Is(err, ErrCorrupt) || s.log == nil {
		return
	}
	s.corruptOnce.Do(func() {
		s.log.Warn("neighbor store file is corrupt, treating as empty", zap.String("path", s.path), zap.Error(err))
	})
}

func (s *Store) readOnce() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return snap.Neighbors, nil
}

// ListLive returns every non-expired record as of now, ordered by
// (interface, last_seen desc).
func (s *Store) ListLive(now time.Time) ([]Record, error) {
	records, err := s.Load()
	if err != nil {
		return nil, err
	}
	live := records[:0:0]
	for _, r := range records {
		if r.IsLive(now) {
			live = append(live, r)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].Interface != live[j].Interface {
			return live[i].Interface < live[j].Interface
		}
		return live[i].LastSeen.After(live[j].LastSeen.Time)
	})
	return live, nil
}

// Upsert merges update into the store under the exclusive lock, preserving
// the existing record's FirstSeen when the key already exists.
func (s *Store) Upsert(update Record) (UpsertResult, error) {
	var result UpsertResult
	err := s.withLock(func() error {
		records, err := s.readOnce()
		if err != nil && !errors.Is(err, ErrCorrupt) {
			return err
		}
		if errors.Is(err, ErrCorrupt) {
			return fmt.Errorf("upsert refused: %w", err)
		}

		found := false
		for i := range records {
			if records[i].key() == update.key() {
				update.FirstSeen = records[i].FirstSeen
				records[i] = update
				found = true
				result = Updated
				break
			}
		}
		if !found {
			if update.FirstSeen.IsZero() {
				update.FirstSeen = update.LastSeen
			}
			records = append(records, update)
			result = Created
		}
		return s.writeAtomic(records)
	})
	return result, err
}

// AgeOut physically removes every record expired as of now.
func (s *Store) AgeOut(now time.Time) error {
	return s.withLock(func() error {
		records, err := s.readOnce()
		if err != nil {
			if errors.Is(err, ErrCorrupt) {
				s.logCorruptOnce(err)
				return nil
			}
			return err
		}
		kept := records[:0:0]
		for _, r := range records {
			if r.IsLive(now) {
				kept = append(kept, r)
			}
		}
		return s.writeAtomic(kept)
	})
}

// Clear truncates the store to empty.
func (s *Store) Clear() error {
	return s.withLock(func() error {
		return s.writeAtomic(nil)
	})
}

func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil && !os.IsExist(err) {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("store: acquire lock: %w", err)
	}
	defer s.lock.Unlock()
	return fn()
}

// writeAtomic serializes records and commits them via temp-file-then-rename,
// so readers never observe a partial write.
func (s *Store) writeAtomic(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(snapshot{Neighbors: records}, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".neighbors-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
