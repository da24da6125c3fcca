package billing

import (
	"strings"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

// AttributeInstallment decides whether inst belongs to course. Installments
// carry no course reference, only their history label, so this matches the
// label prefix case-insensitively. Plain "Mensalidade" lines count for the
// student's primary course. Courses whose names share a prefix cannot be told
// apart.
func AttributeInstallment(inst models.Installment, course, primaryCourse string) bool {
	if inst.History == "" || course == "" {
		return false
	}
	history := strings.ToLower(inst.History)
	if strings.HasPrefix(history, strings.ToLower(course)) {
		return true
	}
	return course == primaryCourse && strings.Contains(history, "mensalidade")
}

// FilterByCourse keeps the installments attributed to course. An empty course
// keeps everything.
func FilterByCourse(s models.Student, course string) []models.Installment {
	if course == "" {
		return s.Installments
	}
	out := make([]models.Installment, 0, len(s.Installments))
	for _, inst := range s.Installments {
		if AttributeInstallment(inst, course, s.CourseClass) {
			out = append(out, inst)
		}
	}
	return out
}

// ActiveCourses lists the primary course followed by every course name found
// in "Name - 01/10" style histories, fee lines excluded, in first-seen order.
func ActiveCourses(s models.Student) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	if s.CourseClass != "" {
		add(s.CourseClass)
	}
	for _, inst := range s.Installments {
		name, _, found := strings.Cut(inst.History, "-")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		lower := strings.ToLower(name)
		if len(name) <= 2 || strings.Contains(lower, "taxa") || strings.Contains(lower, "material") {
			continue
		}
		add(name)
	}
	return out
}
