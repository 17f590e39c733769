package tournament

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// MemoryStateTracker keeps snapshots in process memory. Used when no
// Redis is configured and in tests.
type MemoryStateTracker struct {
	mu          sync.RWMutex
	tournaments map[string][]byte
}

func NewMemoryStateTracker() *MemoryStateTracker {
	return &MemoryStateTracker{
		tournaments: make(map[string][]byte),
	}
}

func (m *MemoryStateTracker) Load(code string) (*Snapshot, error) {
	m.mu.RLock()
	data, ok := m.tournaments[code]
	m.mu.RUnlock()
	if !ok {
		return nil, TournamentNotFoundError{Code: code}
	}
	var snapshot Snapshot
	err := jsoniter.Unmarshal(data, &snapshot)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (m *MemoryStateTracker) Save(code string, snapshot *Snapshot) error {
	data, err := jsoniter.Marshal(snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.tournaments[code] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStateTracker) Remove(code string) error {
	m.mu.Lock()
	delete(m.tournaments, code)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStateTracker) ListCodes() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]string, 0, len(m.tournaments))
	for code := range m.tournaments {
		codes = append(codes, code)
	}
	return codes, nil
}
