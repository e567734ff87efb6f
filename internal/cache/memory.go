package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/digitaldoctors/dda-assistant/internal/classifier"
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 100
)

type entry struct {
	key      string
	resp     classifier.Response
	storedAt time.Time
}

// Memory is an in-process cache with a TTL and a bounded size.
// When full, the oldest inserted entry is evicted.
type Memory struct {
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

var _ Cache = (*Memory)(nil)

// MemoryOption configures a Memory cache
type MemoryOption func(*Memory)

// WithClock overrides the time source
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an in-memory cache. Non-positive values select the defaults.
func NewMemory(ttl time.Duration, maxSize int, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	m := &Memory{
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		order:   list.New(),
		items:   make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a fresh entry. Expired entries are removed on read.
func (m *Memory) Get(_ context.Context, key string) (classifier.Response, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return classifier.Response{}, false
	}

	e := el.Value.(*entry)
	if m.now().Sub(e.storedAt) >= m.ttl {
		m.order.Remove(el)
		delete(m.items, key)
		return classifier.Response{}, false
	}

	return copyResponse(e.resp), true
}

// Set stores a response. Overwriting a key refreshes its timestamp but keeps
// its original eviction position.
func (m *Memory) Set(_ context.Context, key string, resp classifier.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		e := el.Value.(*entry)
		e.resp = copyResponse(resp)
		e.storedAt = m.now()
		return
	}

	m.items[key] = m.order.PushBack(&entry{key: key, resp: copyResponse(resp), storedAt: m.now()})

	for m.order.Len() > m.maxSize {
		oldest := m.order.Front()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*entry).key)
	}
}

// Len returns the number of stored entries, including expired ones not yet read
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func copyResponse(r classifier.Response) classifier.Response {
	if r.SuggestedActions != nil {
		r.SuggestedActions = append([]string(nil), r.SuggestedActions...)
	}
	return r
}
