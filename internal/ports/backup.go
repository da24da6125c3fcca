package ports

import (
	"context"
	"time"
)

// BackupSink stores serialized snapshots under a key.
type BackupSink interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type BackupEntry struct {
	ID        string    `json:"id" bson:"_id"`
	SchoolID  string    `json:"schoolId" bson:"school_id"`
	Key       string    `json:"key" bson:"key"`
	Kind      string    `json:"kind" bson:"kind"`
	SizeBytes int64     `json:"sizeBytes" bson:"size_bytes"`
	Students  int       `json:"students" bson:"students"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// BackupLog keeps the history of backups per school.
type BackupLog interface {
	Append(ctx context.Context, e BackupEntry) error
	Recent(ctx context.Context, schoolID string, limit int) ([]BackupEntry, error)
}
