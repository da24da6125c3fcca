package backups

import (
	"context"
	"slices"
	"sync"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

// MemoryLog is the in-process BackupLog used with the memory store.
type MemoryLog struct {
	mu      sync.Mutex
	entries map[string][]ports.BackupEntry
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: make(map[string][]ports.BackupEntry)}
}

func (l *MemoryLog) Append(_ context.Context, e ports.BackupEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := append([]ports.BackupEntry{e}, l.entries[e.SchoolID]...)
	slices.SortStableFunc(list, func(a, b ports.BackupEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(list) > KeepLast {
		list = list[:KeepLast]
	}
	l.entries[e.SchoolID] = list
	return nil
}

func (l *MemoryLog) Recent(_ context.Context, schoolID string, limit int) ([]ports.BackupEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.entries[schoolID]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return slices.Clone(list), nil
}

var _ ports.BackupLog = (*MemoryLog)(nil)
