package school

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

func (s *Service) AddExpense(ctx context.Context, schoolID string, e models.Expense) (models.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Date.IsZero() {
		e.Date = s.Today()
	}
	_, err := s.Update(ctx, schoolID, func(sc *models.School) error {
		sc.Expenses = append(slices.Clone(sc.Expenses), e)
		return nil
	})
	return e, err
}

func (s *Service) DeleteExpense(ctx context.Context, schoolID, expenseID string) error {
	_, err := s.Update(ctx, schoolID, func(sc *models.School) error {
		idx := slices.IndexFunc(sc.Expenses, func(e models.Expense) bool { return e.ID == expenseID })
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
		}
		sc.Expenses = slices.Delete(slices.Clone(sc.Expenses), idx, idx+1)
		return nil
	})
	return err
}

func (s *Service) Settings(ctx context.Context, schoolID string) (models.FinancialConfig, error) {
	sc, err := s.store.Load(ctx, schoolID)
	if err != nil {
		return models.FinancialConfig{}, err
	}
	return s.settings(sc), nil
}

func (s *Service) UpdateSettings(ctx context.Context, schoolID string, cfg models.FinancialConfig) (models.FinancialConfig, error) {
	if cfg.FineAmount < 0 || cfg.DailyInterestRate < 0 || cfg.GracePeriodDays < 0 {
		return models.FinancialConfig{}, ErrInvalidSettings
	}
	_, err := s.Update(ctx, schoolID, func(sc *models.School) error {
		sc.Settings = &cfg
		return nil
	})
	if err != nil {
		return models.FinancialConfig{}, err
	}
	s.log.WithFields(logrus.Fields{
		"school":   schoolID,
		"fine":     cfg.FineAmount,
		"interest": cfg.DailyInterestRate,
		"grace":    cfg.GracePeriodDays,
	}).Info("[BILLING][SETTINGS]")
	return cfg, nil
}

// Dashboard aggregates the whole school as of today.
func (s *Service) Dashboard(ctx context.Context, schoolID string) (billing.Dashboard, error) {
	sc, err := s.store.Load(ctx, schoolID)
	if err != nil {
		return billing.Dashboard{}, err
	}
	return billing.BuildDashboard(sc.Students, sc.Expenses, s.Today()), nil
}

func (s *Service) DueDates(ctx context.Context, schoolID string, q billing.DueQuery) (billing.DueReport, error) {
	sc, err := s.store.Load(ctx, schoolID)
	if err != nil {
		return billing.DueReport{}, err
	}
	return billing.DueDates(sc.Students, q, s.Today()), nil
}

func (s *Service) Statement(ctx context.Context, schoolID, studentID, course string, filter billing.StatusFilter) (billing.Statement, error) {
	sc, err := s.store.Load(ctx, schoolID)
	if err != nil {
		return billing.Statement{}, err
	}
	idx := sc.StudentIndex(studentID)
	if idx < 0 {
		return billing.Statement{}, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	return billing.BuildStatement(sc.Students[idx], course, filter, s.Today(), s.settings(sc)), nil
}
