package slot

import (
	"context"
	"sync"
)

// Memory keeps values in a process-local map. Slots created from the same
// Memory share it, which makes it usable as a stand-in for a real backend.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string][]byte),
	}
}

func (m *Memory) Slot(key string) *MemorySlot {
	return &MemorySlot{mem: m, key: key}
}

// Value returns a copy of the raw value stored under key.
func (m *Memory) Value(key string) ([]byte, bool) {
	m.mu.RLock()
	b, ok := m.values[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}

	return append([]byte(nil), b...), true
}

func (m *Memory) Set(key string, b []byte) {
	m.mu.Lock()
	m.values[key] = append([]byte(nil), b...)
	m.mu.Unlock()
}

type MemorySlot struct {
	mem *Memory
	key string
}

func (s *MemorySlot) Key() string {
	return s.key
}

func (s *MemorySlot) Read(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	b, ok := s.mem.Value(s.key)
	return b, ok, nil
}

func (s *MemorySlot) Write(ctx context.Context, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mem.Set(s.key, b)
	return nil
}
