package data

import (
	"context"
	"sync"

	"github.com/adjudex/adjudex/common"
	"github.com/rs/zerolog"
)

const defaultMemoryMaxItems = 100_000

// MemoryConnector is the default single-process audit store, bounded by
// maxItems with oldest-first eviction.
type MemoryConnector struct {
	logger   *zerolog.Logger
	maxItems int

	mu    sync.RWMutex
	data  map[string][]byte
	order []string
}

var _ Connector = (*MemoryConnector)(nil)

func NewMemoryConnector(logger *zerolog.Logger, cfg *common.MemoryConnectorConfig) *MemoryConnector {
	lg := logger.With().Str("connector", MemoryDriverName).Logger()

	maxItems := defaultMemoryMaxItems
	if cfg != nil && cfg.MaxItems > 0 {
		maxItems = cfg.MaxItems
	}

	return &MemoryConnector{
		logger:   &lg,
		maxItems: maxItems,
		data:     make(map[string][]byte),
	}
}

func (m *MemoryConnector) Id() string {
	return MemoryDriverName
}

func (m *MemoryConnector) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[key]; !exists {
		m.order = append(m.order, key)
		for len(m.order) > m.maxItems {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.data, oldest)
		}
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryConnector) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, common.NewErrRecordNotFound(key)
	}
	return value, nil
}
