package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"resume-insight/internal/shared/metrics"
	"resume-insight/internal/shared/telemetry"
)

// Key identifies a cached analysis result.
type Key struct {
	Fingerprint string
	Kind        string
	Params      string
}

// String renders the key in its canonical, filesystem-safe form.
func (k Key) String() string {
	if k.Params == "" {
		return fmt.Sprintf("%s_%s", k.Kind, k.Fingerprint)
	}
	return fmt.Sprintf("%s_%s_%s", k.Kind, k.Fingerprint, k.Params)
}

// Entry is the stored unit. Payload is the parsed structured result; it
// round-trips losslessly through the disk tier as JSON.
type Entry struct {
	Key       string          `json:"key"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Options configures the two tiers.
type Options struct {
	// MemoryMaxEntries bounds the memory tier; LRU eviction on overflow.
	MemoryMaxEntries int
	// Dir is the disk tier root. Empty disables the disk tier.
	Dir string
	// DiskMaxBytes bounds the disk tier's total size. Zero means unbounded.
	DiskMaxBytes int64
	// DiskMaxAge evicts disk entries older than this. Zero means no age bound.
	DiskMaxAge time.Duration
}

const defaultMemoryMaxEntries = 128

// Store is a two-level cache: a process-lifetime memory tier backed by a
// durable disk tier. Lookups check memory first; a disk hit is promoted into
// memory before returning. Puts write through to both tiers, and a disk
// write failure degrades to memory-only rather than failing the caller.
type Store struct {
	mem   *memoryTier
	disk  *diskTier
	group singleflight.Group
}

// New constructs the store. The disk tier directory is created eagerly; if
// that fails the store still works memory-only and the failure is logged.
func New(opts Options) *Store {
	if opts.MemoryMaxEntries <= 0 {
		opts.MemoryMaxEntries = defaultMemoryMaxEntries
	}
	s := &Store{mem: newMemoryTier(opts.MemoryMaxEntries)}
	if opts.Dir != "" {
		disk, err := newDiskTier(opts.Dir, opts.DiskMaxBytes, opts.DiskMaxAge)
		if err != nil {
			telemetry.Error("cache.disk_unavailable", map[string]any{
				"dir":   opts.Dir,
				"error": err.Error(),
			})
		} else {
			s.disk = disk
		}
	}
	return s
}

// Get returns the entry for key, checking the memory tier then the disk
// tier. A disk hit populates the memory tier before returning.
func (s *Store) Get(key Key) (Entry, bool) {
	ks := key.String()
	if entry, ok := s.mem.get(ks); ok {
		metrics.IncCacheHit("memory")
		return entry, true
	}
	if s.disk != nil {
		if entry, ok := s.disk.get(ks); ok {
			s.mem.put(ks, entry)
			metrics.IncCacheHit("disk")
			return entry, true
		}
	}
	metrics.IncCacheMiss()
	return Entry{}, false
}

// Put writes the entry to both tiers. Disk failures are logged and absorbed;
// the memory entry still stands for this process's lifetime.
func (s *Store) Put(key Key, payload json.RawMessage) Entry {
	entry := Entry{
		Key:       key.String(),
		Kind:      key.Kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	s.mem.put(entry.Key, entry)
	if s.disk != nil {
		if err := s.disk.put(entry.Key, entry); err != nil {
			metrics.IncCacheDiskWriteFailure()
			telemetry.Error("cache.disk_write_failed", map[string]any{
				"key":   entry.Key,
				"error": err.Error(),
			})
		}
	}
	return entry
}

// Clear removes entries whose key starts with prefix from both tiers and
// returns the number of distinct keys removed. An empty prefix clears
// everything.
func (s *Store) Clear(prefix string) int {
	removed := map[string]struct{}{}
	for _, k := range s.mem.clear(prefix) {
		removed[k] = struct{}{}
	}
	if s.disk != nil {
		for _, k := range s.disk.clear(prefix) {
			removed[k] = struct{}{}
		}
	}
	return len(removed)
}

// GetOrCompute returns the cached entry for key, or runs compute exactly once
// to populate it. Concurrent callers for the same key share a single
// computation: late arrivals block on the first caller's flight and observe
// its result. Compute errors are returned to every waiter and nothing is
// cached. The second return value reports whether the entry came from cache.
func (s *Store) GetOrCompute(ctx context.Context, key Key, compute func(context.Context) (json.RawMessage, error)) (Entry, bool, error) {
	if entry, ok := s.Get(key); ok {
		return entry, true, nil
	}

	type flightResult struct {
		entry  Entry
		cached bool
	}
	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		// Re-check under the flight: a previous holder may have populated
		// the key between our miss and acquiring the flight.
		if entry, ok := s.Get(key); ok {
			return flightResult{entry: entry, cached: true}, nil
		}
		payload, err := compute(ctx)
		if err != nil {
			return flightResult{}, err
		}
		return flightResult{entry: s.Put(key, payload)}, nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	res := v.(flightResult)
	return res.entry, res.cached, nil
}

// sanitizeKey guards disk paths against hostile key strings. Keys built by
// this package are already safe; this catches callers passing raw strings.
func sanitizeKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty cache key")
	}
	if strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return key, nil
}
