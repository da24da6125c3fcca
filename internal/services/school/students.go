package school

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

// StudentView is a student with the statuses derived for today.
type StudentView struct {
	models.Student
	EffectiveStatus models.StudentStatus `json:"effectiveStatus"`
	ActiveCourses   []string             `json:"activeCourses"`
}

func (s *Service) Students(ctx context.Context, schoolID string) ([]StudentView, error) {
	sc, err := s.store.Load(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	out := make([]StudentView, 0, len(sc.Students))
	for _, st := range sc.Students {
		out = append(out, StudentView{
			Student:         st,
			EffectiveStatus: billing.StudentEffectiveStatus(st, today),
			ActiveCourses:   billing.ActiveCourses(st),
		})
	}
	return out, nil
}

func (s *Service) Student(ctx context.Context, schoolID, studentID string) (models.Student, error) {
	sc, err := s.store.Load(ctx, schoolID)
	if err != nil {
		return models.Student{}, err
	}
	idx := sc.StudentIndex(studentID)
	if idx < 0 {
		return models.Student{}, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	return sc.Students[idx], nil
}

// Enroll adds a new student with the installment plan built from plan. The
// returned warnings never block the enrollment.
func (s *Service) Enroll(ctx context.Context, schoolID string, profile models.Student, plan billing.Plan) (models.Student, []string, error) {
	if plan.PackageValue <= 0 || plan.CourseClass == "" {
		return models.Student{}, nil, billing.ErrIncompletePlan
	}

	var (
		out      models.Student
		warnings []string
	)
	_, err := s.Update(ctx, schoolID, func(sc *models.School) error {
		out, warnings = billing.Enroll(profile, plan, s.Today())
		if sc.StudentIndex(out.ID) >= 0 {
			return fmt.Errorf("student %s already exists", out.ID)
		}
		sc.Students = append(slices.Clone(sc.Students), out)
		return nil
	})
	if err != nil {
		return models.Student{}, nil, err
	}

	s.log.WithFields(logrus.Fields{
		"school":       schoolID,
		"student":      out.ID,
		"installments": len(out.Installments),
		"warnings":     warnings,
	}).Info("[BILLING][ENROLL]")
	return out, warnings, nil
}

// UpdateProfile overwrites the registration data of a student. Installments
// and contract values only change through the billing operations.
func (s *Service) UpdateProfile(ctx context.Context, schoolID string, profile models.Student) (models.Student, error) {
	return s.updateStudent(ctx, schoolID, profile.ID, func(cur models.Student, today calendar.Date) (models.Student, error) {
		next := profile
		next.Installments = cur.Installments
		next.ContractNumber = cur.ContractNumber
		next.TotalValue = cur.TotalValue
		next.EnrollmentDate = cur.EnrollmentDate
		if next.Status == "" {
			next.Status = cur.Status
		}
		if !billing.IsMinor(next.Birth, today) {
			next.GuardianName, next.GuardianCPF, next.GuardianPhone = "", "", ""
		}
		return next, nil
	})
}

// DeleteStudents removes students together with their installments.
func (s *Service) DeleteStudents(ctx context.Context, schoolID string, ids ...string) (int, error) {
	removed := 0
	_, err := s.Update(ctx, schoolID, func(sc *models.School) error {
		kept := make([]models.Student, 0, len(sc.Students))
		for _, st := range sc.Students {
			if slices.Contains(ids, st.ID) {
				removed++
				continue
			}
			kept = append(kept, st)
		}
		sc.Students = kept
		return nil
	})
	if err == nil {
		s.log.WithFields(logrus.Fields{"school": schoolID, "removed": removed}).Info("[BILLING][DELETE_STUDENTS]")
	}
	return removed, err
}

func (s *Service) UpdateEnrollment(ctx context.Context, schoolID, studentID string, mode billing.RegenerateMode, plan billing.Plan) (models.Student, error) {
	return s.updateStudent(ctx, schoolID, studentID, func(cur models.Student, today calendar.Date) (models.Student, error) {
		return billing.UpdateEnrollment(cur, mode, plan, today)
	})
}

func (s *Service) ToggleRecurring(ctx context.Context, schoolID, studentID string) (models.Student, error) {
	return s.updateStudent(ctx, schoolID, studentID, func(cur models.Student, _ calendar.Date) (models.Student, error) {
		return billing.ToggleRecurring(cur), nil
	})
}

func (s *Service) CancelCourse(ctx context.Context, schoolID, studentID, reason string) (models.Student, error) {
	at := s.now()
	return s.updateStudent(ctx, schoolID, studentID, func(cur models.Student, _ calendar.Date) (models.Student, error) {
		return billing.CancelCourse(cur, reason, at), nil
	})
}

// SetStatus covers start course (active) and contract breach.
func (s *Service) SetStatus(ctx context.Context, schoolID, studentID string, status models.StudentStatus) (models.Student, error) {
	switch status {
	case models.StudentActive, models.StudentLate, models.StudentDropout, models.StudentBreach, models.StudentCompleted:
	default:
		return models.Student{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.updateStudent(ctx, schoolID, studentID, func(cur models.Student, _ calendar.Date) (models.Student, error) {
		return billing.SetStatus(cur, status), nil
	})
}
