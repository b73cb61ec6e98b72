// Package tablestore holds an in-memory category table store used for dry
// runs.
package tablestore

import (
	"context"
	"sync"

	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

type Memory struct {
	mu     sync.RWMutex
	tables map[signal.Category][][]string
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[signal.Category][][]string)}
}

func (m *Memory) ReadTable(_ context.Context, category signal.Category) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRows(m.tables[category]), nil
}

func (m *Memory) ClearTable(_ context.Context, category signal.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, category)
	return nil
}

func (m *Memory) WriteTable(_ context.Context, category signal.Category, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[category] = append(m.tables[category], cloneRows(rows)...)
	return nil
}

func cloneRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
