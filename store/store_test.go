package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRecord(iface, chassis, port string, ttl uint16, at time.Time) Record {
	return Record{
		Interface:   iface,
		ChassisID:   chassis,
		PortID:      port,
		ReceivedTTL: ttl,
		FirstSeen:   NewTimestamp(at),
		LastSeen:    NewTimestamp(at),
	}
}

func TestUpsertCreateThenUpdate(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "neighbors.json"), zap.NewNop())

	t0 := time.Now()
	res, err := s.Upsert(newRecord("eth1", "00:11:22:33:44:55", "eth0", 120, t0))
	require.NoError(t, err)
	assert.Equal(t, Created, res)

	t1 := t0.Add(30 * time.Second)
	res, err = s.Upsert(newRecord("eth1", "00:11:22:33:44:55", "eth0", 120, t1))
	require.NoError(t, err)
	assert.Equal(t, Updated, res)

	records, err := s.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, NewTimestamp(t0), records[0].FirstSeen)
	assert.Equal(t, NewTimestamp(t1), records[0].LastSeen)
}

func TestTTLAging(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "neighbors.json"), zap.NewNop())

	t0 := time.Now()
	_, err := s.Upsert(newRecord("eth1", "00:11:22:33:44:55", "eth0", 120, t0))
	require.NoError(t, err)

	live, err := s.ListLive(t0.Add(119 * time.Second))
	require.NoError(t, err)
	assert.Len(t, live, 1)

	live, err = s.ListLive(t0.Add(121 * time.Second))
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestTTLZeroIsImmediatelyExpired(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "neighbors.json"), zap.NewNop())

	t0 := time.Now()
	_, err := s.Upsert(newRecord("eth1", "00:11:22:33:44:55", "eth0", 0, t0))
	require.NoError(t, err)

	live, err := s.ListLive(t0)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestAgeOutRemovesExpired(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "neighbors.json"), zap.NewNop())

	t0 := time.Now()
	_, err := s.Upsert(newRecord("eth1", "a", "b", 5, t0))
	require.NoError(t, err)

	require.NoError(t, s.AgeOut(t0.Add(10*time.Second)))

	records, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "neighbors.json"), zap.NewNop())

	_, err := s.Upsert(newRecord("eth1", "a", "b", 120, time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.Clear())

	records, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestConcurrentUpsertsUnionOfKeys(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "neighbors.json"), zap.NewNop())

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			port := string(rune('a' + i%26))
			_, err := s.Upsert(newRecord("eth1", "mac", port+string(rune(i)), 120, time.Now()))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, records, n)
}

func TestListLiveOrdering(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "neighbors.json"), zap.NewNop())

	t0 := time.Now()
	_, err := s.Upsert(newRecord("eth0", "a", "1", 120, t0))
	require.NoError(t, err)
	_, err = s.Upsert(newRecord("eth0", "b", "2", 120, t0.Add(time.Second)))
	require.NoError(t, err)
	_, err = s.Upsert(newRecord("eth1", "c", "3", 120, t0))
	require.NoError(t, err)

	live, err := s.ListLive(t0.Add(2 * time.Second))
	require.NoError(t, err)
	require.Len(t, live, 3)
	assert.Equal(t, "eth0", live[0].Interface)
	assert.Equal(t, "b", live[0].ChassisID) // newer last_seen first within eth0
	assert.Equal(t, "a", live[1].ChassisID)
	assert.Equal(t, "eth1", live[2].Interface)
}

func TestCorruptFileTreatedAsEmptyAndLoggedOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "neighbors.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	s := New(path, zap.New(core))

	records, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, records)

	live, err := s.ListLive(time.Now())
	require.NoError(t, err)
	assert.Empty(t, live)

	// Two reads of the corrupt file log exactly once, per the "log once"
	// requirement.
	assert.Equal(t, 1, logs.Len())
}
