// Package backup exports tenant snapshots to object storage and restores
// them.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

const (
	KindManual = "manual"
	KindAuto   = "auto"

	AutoInterval = 24 * time.Hour
	LogLimit     = 30
)

var ErrInvalidBackup = errors.New("invalid backup file")

// Snapshots is the part of the school service backups need.
type Snapshots interface {
	Get(ctx context.Context, schoolID string) (models.School, error)
	Replace(ctx context.Context, sc models.School) error
	List(ctx context.Context) ([]models.School, error)
}

type Service struct {
	schools Snapshots
	sink    ports.BackupSink
	logs    ports.BackupLog
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewService(schools Snapshots, sink ports.BackupSink, logs ports.BackupLog, log logrus.FieldLogger) *Service {
	return &Service{schools: schools, sink: sink, logs: logs, log: log, now: time.Now}
}

// Key is where the backup of schoolID taken at t is stored. Two backups of
// the same day share a key; the later one wins.
func Key(schoolID string, t time.Time) string {
	return fmt.Sprintf("backups/%s/backup-%s.json", schoolID, t.Format("2006-01-02"))
}

// Export returns the snapshot as the JSON document a backup holds.
func (s *Service) Export(ctx context.Context, schoolID string) ([]byte, models.School, error) {
	sc, err := s.schools.Get(ctx, schoolID)
	if err != nil {
		return nil, models.School{}, err
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return nil, models.School{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, sc, nil
}

func (s *Service) Backup(ctx context.Context, schoolID, kind string) (ports.BackupEntry, error) {
	data, sc, err := s.Export(ctx, schoolID)
	if err != nil {
		return ports.BackupEntry{}, err
	}

	now := s.now().UTC()
	entry := ports.BackupEntry{
		ID:        uuid.NewString(),
		SchoolID:  schoolID,
		Key:       Key(schoolID, now),
		Kind:      kind,
		SizeBytes: int64(len(data)),
		Students:  len(sc.Students),
		CreatedAt: now,
	}
	if err := s.sink.Put(ctx, entry.Key, data); err != nil {
		s.log.WithField("school", schoolID).WithError(err).Error("[BACKUP][ERR] put")
		return ports.BackupEntry{}, err
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		return ports.BackupEntry{}, fmt.Errorf("backup log: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"school":   schoolID,
		"key":      entry.Key,
		"kind":     kind,
		"size":     entry.SizeBytes,
		"students": entry.Students,
	}).Info("[BACKUP][DONE]")
	return entry, nil
}

// Due reports whether schoolID has no backup in the last AutoInterval.
func (s *Service) Due(ctx context.Context, schoolID string) (bool, error) {
	recent, err := s.logs.Recent(ctx, schoolID, 1)
	if err != nil {
		return false, err
	}
	if len(recent) == 0 {
		return true, nil
	}
	return s.now().Sub(recent[0].CreatedAt) > AutoInterval, nil
}

// RunAuto backs up every school that is due. Failures of one school do not
// stop the others; they come back joined.
func (s *Service) RunAuto(ctx context.Context) (int, error) {
	list, err := s.schools.List(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	done := 0
	for _, sc := range list {
		due, err := s.Due(ctx, sc.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("school %s: %w", sc.ID, err))
			continue
		}
		if !due {
			continue
		}
		if _, err := s.Backup(ctx, sc.ID, KindAuto); err != nil {
			errs = append(errs, fmt.Errorf("school %s: %w", sc.ID, err))
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

func (s *Service) Logs(ctx context.Context, schoolID string) ([]ports.BackupEntry, error) {
	return s.logs.Recent(ctx, schoolID, LogLimit)
}

// Restore replaces the snapshot of schoolID with the document in data. The
// document must carry an id equal to schoolID and a students list.
func (s *Service) Restore(ctx context.Context, schoolID string, data []byte) (models.School, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.School{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if _, ok := fields["id"]; !ok {
		return models.School{}, fmt.Errorf("%w: missing id", ErrInvalidBackup)
	}
	if _, ok := fields["students"]; !ok {
		return models.School{}, fmt.Errorf("%w: missing students", ErrInvalidBackup)
	}

	var sc models.School
	if err := json.Unmarshal(data, &sc); err != nil {
		return models.School{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if sc.ID != schoolID {
		return models.School{}, fmt.Errorf("%w: backup belongs to school %s", ErrInvalidBackup, sc.ID)
	}
	if sc.Students == nil {
		sc.Students = []models.Student{}
	}

	if err := s.schools.Replace(ctx, sc); err != nil {
		return models.School{}, err
	}
	s.log.WithFields(logrus.Fields{"school": schoolID, "students": len(sc.Students)}).Info("[BACKUP][RESTORE]")
	return sc, nil
}

// RestoreKey restores from a stored backup of the same school.
func (s *Service) RestoreKey(ctx context.Context, schoolID, key string) (models.School, error) {
	if !strings.HasPrefix(key, "backups/"+schoolID+"/") {
		return models.School{}, fmt.Errorf("%w: key %s", ErrInvalidBackup, key)
	}
	data, err := s.sink.Get(ctx, key)
	if err != nil {
		return models.School{}, err
	}
	return s.Restore(ctx, schoolID, data)
}
