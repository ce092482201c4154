package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const entrySuffix = ".json"

// diskTier persists entries as one JSON file per key under dir. Writes are
// atomic: the entry is staged to a temp file and renamed into place, so a
// reader never observes a partial entry.
type diskTier struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	maxAge   time.Duration
}

func newDiskTier(dir string, maxBytes int64, maxAge time.Duration) (*diskTier, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &diskTier{dir: dir, maxBytes: maxBytes, maxAge: maxAge}, nil
}

func (d *diskTier) path(key string) (string, error) {
	safe, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.dir, safe+entrySuffix), nil
}

func (d *diskTier) get(key string) (Entry, bool) {
	path, err := d.path(key)
	if err != nil {
		return Entry{}, false
	}
	d.mu.Lock()
	raw, err := os.ReadFile(path)
	d.mu.Unlock()
	if err != nil {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false
	}
	if d.maxAge > 0 && time.Since(entry.CreatedAt) > d.maxAge {
		return Entry{}, false
	}
	return entry, true
}

func (d *diskTier) put(key string, entry Entry) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tmp, err := os.CreateTemp(d.dir, ".cache-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}

	d.evictLocked()
	return nil
}

func (d *diskTier) clear(prefix string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names, err := os.ReadDir(d.dir)
	if err != nil {
		return nil
	}
	var removed []string
	for _, f := range names {
		name := f.Name()
		if !strings.HasSuffix(name, entrySuffix) {
			continue
		}
		key := strings.TrimSuffix(name, entrySuffix)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, name)); err == nil {
			removed = append(removed, key)
		}
	}
	return removed
}

type diskFile struct {
	path    string
	size    int64
	modTime time.Time
}

// evictLocked enforces the size and age bounds, removing the oldest entries
// first until the tier fits the byte budget. The entry that triggered the
// sweep is the newest file, so it is evicted last; with a budget smaller
// than a single entry even the trigger goes.
func (d *diskTier) evictLocked() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}

	var files []diskFile
	var total int64
	now := time.Now()
	for _, f := range entries {
		if !strings.HasSuffix(f.Name(), entrySuffix) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		df := diskFile{
			path:    filepath.Join(d.dir, f.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		}
		if d.maxAge > 0 && now.Sub(df.modTime) > d.maxAge {
			os.Remove(df.path)
			continue
		}
		files = append(files, df)
		total += df.size
	}

	if d.maxBytes <= 0 || total <= d.maxBytes {
		return
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	for _, f := range files {
		if total <= d.maxBytes {
			break
		}
		if err := os.Remove(f.path); err == nil {
			total -= f.size
		}
	}
}
