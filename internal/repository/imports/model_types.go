package importitems

import "strings"

type ModelType string

const (
	ModelTypeStudents ModelType = "students"
	ModelTypePayments ModelType = "payments"
)

// entityByModel names the snapshot path an import row lands in.
var entityByModel = map[ModelType]string{
	ModelTypeStudents: "school.students",
	ModelTypePayments: "school.students.installments",
}

func ParseModelType(s string) (ModelType, bool) {
	mt := ModelType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := entityByModel[mt]
	return mt, ok
}

func EntityByModel(mt ModelType) string {
	if e, ok := entityByModel[mt]; ok {
		return e
	}
	return entityByModel[ModelTypeStudents]
}
