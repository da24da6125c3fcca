package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

// MemoryStore keeps snapshots in process. Stored values are deep copies, so
// callers can never alias what the store holds.
type MemoryStore struct {
	mu      sync.RWMutex
	schools map[string][]byte
}

func NewMemoryStore(seed ...models.School) *MemoryStore {
	m := &MemoryStore{schools: make(map[string][]byte)}
	for _, s := range seed {
		_ = m.Save(context.Background(), s)
	}
	return m
}

func (m *MemoryStore) Load(_ context.Context, id string) (models.School, error) {
	m.mu.RLock()
	raw, ok := m.schools[id]
	m.mu.RUnlock()
	if !ok {
		return models.School{}, fmt.Errorf("%w: %s", ports.ErrSchoolNotFound, id)
	}

	var out models.School
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.School{}, err
	}
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, school models.School) error {
	if school.ID == "" {
		return fmt.Errorf("save school: empty id")
	}
	raw, err := json.Marshal(school)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.schools[school.ID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]models.School, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.schools))
	for id := range m.schools {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	slices.Sort(ids)

	out := make([]models.School, 0, len(ids))
	for _, id := range ids {
		s, err := m.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

var (
	_ ports.SchoolStore = (*MemoryStore)(nil)
	_ ports.SchoolStore = (*MongoStore)(nil)
)
