package ports

import "context"

type ctxKey string

const (
	CtxImportRecordID ctxKey = "import_record_id"
	CtxSchoolID       ctxKey = "school_id"
)

// Processor consumes rows of an import file, keyed by header name.
type Processor interface {
	Type() string
	ProcessBatch(ctx context.Context, batch []map[string]string) error
}

// StringFromContext reads one of the import context values, "" if unset.
func StringFromContext(ctx context.Context, key ctxKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
