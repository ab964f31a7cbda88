package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// unboundedSweepFloor 无上限存储两次清理之间至少新增的条目数
const unboundedSweepFloor = 1024

// MemoryStore 进程内缓存，未启用 Redis 时使用；容量有上限，满时先清理过期项，
// 仍然不足则淘汰最早过期的一项
type MemoryStore struct {
	maxEntries int
	sweepAt    int
	clock      func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryStore{
		maxEntries: maxEntries,
		clock:      time.Now,
		entries:    make(map[string]memoryEntry),
	}
}

// NewUnboundedMemoryStore 从不淘汰未过期的条目，只在条目数翻倍时清理过期项。
// 用于令牌吊销这类丢一条就会出错的数据
func NewUnboundedMemoryStore() *MemoryStore {
	return &MemoryStore{
		sweepAt: unboundedSweepFloor,
		clock:   time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !entry.expiresAt.After(m.clock()) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return entry.value, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists {
		switch {
		case m.maxEntries > 0 && len(m.entries) >= m.maxEntries:
			m.evictLocked(now)
		case m.maxEntries == 0 && len(m.entries) >= m.sweepAt:
			m.sweepLocked(now)
			m.sweepAt = 2*len(m.entries) + unboundedSweepFloor
		}
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	m.entries[key] = memoryEntry{value: buf, expiresAt: now.Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// Len 当前条目数（含尚未清理的过期项）
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	for key, entry := range m.entries {
		if !entry.expiresAt.After(now) {
			delete(m.entries, key)
		}
	}
}

func (m *MemoryStore) evictLocked(now time.Time) {
	m.sweepLocked(now)
	if len(m.entries) < m.maxEntries {
		return
	}

	var oldestKey string
	var oldest time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = entry.expiresAt
		}
	}
	delete(m.entries, oldestKey)
}
