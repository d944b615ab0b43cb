// Package storage holds the local StateStore backends: a process-local
// map and a directory of JSON files.
package storage

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("storage")

// Memory keeps snapshots in a map. Values are copied in and out.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailSave, when set, is returned by Save for the matching key.
	// Tests use it to simulate a broken backend.
	FailSave func(key string) error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Load(ctx context.Context, key string) ([]byte, error) {
	_, span := tracer.Start(ctx, "Memory.Load")
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Save(ctx context.Context, key string, value []byte) error {
	_, span := tracer.Start(ctx, "Memory.Save")
	defer span.End()

	if m.FailSave != nil {
		if err := m.FailSave(key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }
