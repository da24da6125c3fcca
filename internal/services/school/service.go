// Package school runs billing operations against tenant snapshots. Each call
// loads the school, applies one engine operation and saves the whole snapshot
// back. Writes to the same school are serialised inside this process only.
package school

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidSettings = errors.New("invalid financial settings")
	ErrInvalidStatus   = errors.New("unknown student status")

	ErrMatchNeedsStudent = errors.New("student id or cpf is required to match by document number")
	ErrAmbiguousMatch    = errors.New("more than one unpaid installment matches")
)

type Service struct {
	store    ports.SchoolStore
	log      logrus.FieldLogger
	defaults models.FinancialConfig
	now      func() time.Time

	locks sync.Map // school id -> *sync.Mutex
}

type Option func(*Service)

// WithClock pins the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store ports.SchoolStore, log logrus.FieldLogger, defaults models.FinancialConfig, opts ...Option) *Service {
	s := &Service{store: store, log: log, defaults: defaults, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Today() calendar.Date { return calendar.Today(s.now()) }

func (s *Service) Defaults() models.FinancialConfig { return s.defaults }

// Get returns the snapshot of schoolID.
func (s *Service) Get(ctx context.Context, schoolID string) (models.School, error) {
	return s.store.Load(ctx, schoolID)
}

// Update runs fn on a loaded copy of the school and saves the result. Nothing
// is saved when fn fails.
func (s *Service) Update(ctx context.Context, schoolID string, fn func(*models.School) error) (models.School, error) {
	mu := s.lock(schoolID)
	mu.Lock()
	defer mu.Unlock()

	sc, err := s.store.Load(ctx, schoolID)
	if err != nil {
		return models.School{}, err
	}
	if err := fn(&sc); err != nil {
		return models.School{}, err
	}
	if err := s.store.Save(ctx, sc); err != nil {
		return models.School{}, fmt.Errorf("save school %s: %w", schoolID, err)
	}
	return sc, nil
}

// Create stores a brand new snapshot. It fails if the id is taken.
func (s *Service) Create(ctx context.Context, sc models.School) error {
	mu := s.lock(sc.ID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.store.Load(ctx, sc.ID); err == nil {
		return fmt.Errorf("school %s already exists", sc.ID)
	} else if !errors.Is(err, ports.ErrSchoolNotFound) {
		return err
	}
	return s.store.Save(ctx, sc)
}

// Replace overwrites the snapshot wholesale; restore uses it.
func (s *Service) Replace(ctx context.Context, sc models.School) error {
	mu := s.lock(sc.ID)
	mu.Lock()
	defer mu.Unlock()
	return s.store.Save(ctx, sc)
}

func (s *Service) List(ctx context.Context) ([]models.School, error) {
	return s.store.List(ctx)
}

// updateStudent applies fn to one student of the school.
func (s *Service) updateStudent(ctx context.Context, schoolID, studentID string, fn func(models.Student, calendar.Date) (models.Student, error)) (models.Student, error) {
	var out models.Student
	today := s.Today()
	_, err := s.Update(ctx, schoolID, func(sc *models.School) error {
		idx := sc.StudentIndex(studentID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
		}
		next, err := fn(sc.Students[idx], today)
		if err != nil {
			return err
		}
		*sc = sc.ReplaceStudent(next)
		out = next
		return nil
	})
	return out, err
}

func (s *Service) settings(sc models.School) models.FinancialConfig {
	return sc.FinancialSettings(s.defaults)
}

func (s *Service) lock(schoolID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(schoolID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
