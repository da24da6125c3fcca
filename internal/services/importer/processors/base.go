package processors

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
	importitems "github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/imports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/school"
)

var ErrNoSchool = errors.New("import without school id")

// Schools is the slice of the school service the processors drive.
type Schools interface {
	Enroll(ctx context.Context, schoolID string, profile models.Student, plan billing.Plan) (models.Student, []string, error)
	PayMatching(ctx context.Context, schoolID string, m school.InstallmentMatch, p billing.Payment) (models.Student, models.Installment, error)
}

type BaseProcessor struct {
	Schools Schools
	Items   *importitems.ItemLogger
	Log     logrus.FieldLogger
}

func NewBaseProcessor(schools Schools, items *importitems.ItemLogger, log logrus.FieldLogger) *BaseProcessor {
	return &BaseProcessor{Schools: schools, Items: items, Log: log}
}

// scope reads the school and import record ids the importer put in ctx.
func (b *BaseProcessor) scope(ctx context.Context) (schoolID, recordID string, err error) {
	schoolID = strings.TrimSpace(ports.StringFromContext(ctx, ports.CtxSchoolID))
	recordID = strings.TrimSpace(ports.StringFromContext(ctx, ports.CtxImportRecordID))
	if schoolID == "" {
		return "", "", ErrNoSchool
	}
	if b.Schools == nil {
		return "", "", errors.New("school service not available")
	}
	return schoolID, recordID, nil
}

func (b *BaseProcessor) fail(ctx context.Context, p importitems.LogParams, msg string) {
	p.Errors = msg
	b.Items.Fail(ctx, p)
	b.Log.WithFields(logrus.Fields{"model": p.ModelType, "id": p.ModelID}).Warn("[PROC][ROW][FAIL] " + msg)
}

func DefaultRegistry(base *BaseProcessor) map[string]ports.Processor {
	reg := map[string]ports.Processor{}
	for _, p := range []ports.Processor{
		&StudentsProcessor{BaseProcessor: base},
		&PaymentsProcessor{BaseProcessor: base},
	} {
		reg[p.Type()] = p
	}
	return reg
}
