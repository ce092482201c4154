package cache

import (
	"container/list"
	"strings"
	"sync"
)

// memoryTier is a count-bounded LRU map. It owns entries for the process
// lifetime; the disk tier is the durable backing it is seeded from.
type memoryTier struct {
	mu         sync.Mutex
	maxEntries int
	order      *list.List
	items      map[string]*list.Element
}

type memoryItem struct {
	key   string
	entry Entry
}

func newMemoryTier(maxEntries int) *memoryTier {
	return &memoryTier{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}
}

func (m *memoryTier) get(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.items[key]
	if !ok {
		return Entry{}, false
	}
	m.order.MoveToFront(el)
	return el.Value.(memoryItem).entry, true
}

func (m *memoryTier) put(key string, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		el.Value = memoryItem{key: key, entry: entry}
		m.order.MoveToFront(el)
		return
	}
	m.items[key] = m.order.PushFront(memoryItem{key: key, entry: entry})
	for m.order.Len() > m.maxEntries {
		oldest := m.order.Back()
		if oldest == nil {
			break
		}
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(memoryItem).key)
	}
}

func (m *memoryTier) clear(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for key, el := range m.items {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		m.order.Remove(el)
		delete(m.items, key)
		removed = append(removed, key)
	}
	return removed
}

func (m *memoryTier) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}
