package backup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/backups"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/snapshot"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/school"
)

type memSink struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (m *memSink) Put(_ context.Context, key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

func (m *memSink) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func setup(t *testing.T, now time.Time) (*Service, *memSink, *backups.MemoryLog, *snapshot.MemoryStore) {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := snapshot.NewMemoryStore(
		models.School{ID: "1234", Name: "Centro", Students: []models.Student{{ID: "s1", FullName: "Ana"}}},
		models.School{ID: "5678", Name: "Norte", Students: []models.Student{}},
	)
	schools := school.NewService(store, log, models.FinancialConfig{})
	sink := &memSink{}
	logs := backups.NewMemoryLog()
	svc := NewService(schools, sink, logs, log)
	svc.now = func() time.Time { return now }
	return svc, sink, logs, store
}

func TestBackupWritesKeyAndLog(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	svc, sink, _, _ := setup(t, now)
	ctx := context.Background()

	e, err := svc.Backup(ctx, "1234", KindManual)
	require.NoError(t, err)
	assert.Equal(t, "backups/1234/backup-2024-03-10.json", e.Key)
	assert.Equal(t, 1, e.Students)
	assert.Contains(t, string(sink.objects[e.Key]), `"fullName": "Ana"`)

	logs, err := svc.Logs(ctx, "1234")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, KindManual, logs[0].Kind)
}

func TestBackupSinkFailureLeavesNoLog(t *testing.T) {
	svc, sink, logs, _ := setup(t, time.Now())
	sink.err = errors.New("bucket gone")

	_, err := svc.Backup(context.Background(), "1234", KindManual)
	assert.Error(t, err)
	recent, _ := logs.Recent(context.Background(), "1234", 0)
	assert.Empty(t, recent)
}

func TestRunAutoOnlyWhenDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, logs, _ := setup(t, now)
	ctx := context.Background()

	require.NoError(t, logs.Append(ctx, ports.BackupEntry{ID: "old", SchoolID: "1234", CreatedAt: now.Add(-23 * time.Hour)}))
	require.NoError(t, logs.Append(ctx, ports.BackupEntry{ID: "older", SchoolID: "5678", CreatedAt: now.Add(-25 * time.Hour)}))

	n, err := svc.RunAuto(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	recent, _ := logs.Recent(ctx, "5678", 1)
	assert.Equal(t, KindAuto, recent[0].Kind)

	n, err = svc.RunAuto(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRestore(t *testing.T) {
	svc, _, _, store := setup(t, time.Now())
	ctx := context.Background()

	_, err := svc.Restore(ctx, "1234", []byte(`{"id":"1234"}`))
	assert.ErrorIs(t, err, ErrInvalidBackup)
	_, err = svc.Restore(ctx, "1234", []byte(`{"students":[]}`))
	assert.ErrorIs(t, err, ErrInvalidBackup)
	_, err = svc.Restore(ctx, "1234", []byte(`{"id":"5678","students":[]}`))
	assert.ErrorIs(t, err, ErrInvalidBackup)
	_, err = svc.Restore(ctx, "1234", []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidBackup)

	raw := []byte(`{"id":"1234","name":"Centro","students":[{"id":"s9","fullName":"Bia","status":"Em Atraso",
		"installments":[{"id":"i1","dueDate":"2024-01-10T03:00:00.000Z","amount":100,"originalAmount":100,"status":"Vencido"}]}]}`)
	sc, err := svc.Restore(ctx, "1234", raw)
	require.NoError(t, err)
	assert.Len(t, sc.Students, 1)

	stored, err := store.Load(ctx, "1234")
	require.NoError(t, err)
	require.Len(t, stored.Students, 1)
	assert.Equal(t, "s9", stored.Students[0].ID)
	assert.Equal(t, "2024-01-10", stored.Students[0].Installments[0].DueDate.String())
}

func TestRestoreKeyStaysInTenant(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, _, _ := setup(t, now)
	ctx := context.Background()

	e, err := svc.Backup(ctx, "5678", KindManual)
	require.NoError(t, err)

	_, err = svc.RestoreKey(ctx, "1234", e.Key)
	assert.ErrorIs(t, err, ErrInvalidBackup)

	sc, err := svc.RestoreKey(ctx, "5678", e.Key)
	require.NoError(t, err)
	assert.Equal(t, "Norte", sc.Name)
}
