// Package backups keeps the backup history of each school in Mongo.
package backups

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

const (
	BackupLogsCollection = "backup_logs"
	KeepLast             = 30
)

type MongoLog struct {
	coll *mongo.Collection
}

func NewMongoLog(db *mongo.Database) *MongoLog {
	return &MongoLog{coll: db.Collection(BackupLogsCollection)}
}

// Append inserts e and drops everything older than the last KeepLast entries
// of the same school.
func (l *MongoLog) Append(ctx context.Context, e ports.BackupEntry) error {
	if _, err := l.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("append backup log: %w", err)
	}

	cur, err := l.coll.Find(ctx,
		bson.M{"school_id": e.SchoolID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(KeepLast).
			SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return fmt.Errorf("trim backup log: %w", err)
	}
	defer cur.Close(ctx)

	var stale []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return err
		}
		stale = append(stale, row.ID)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	_, err = l.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": stale}})
	return err
}

func (l *MongoLog) Recent(ctx context.Context, schoolID string, limit int) ([]ports.BackupEntry, error) {
	if limit <= 0 || limit > KeepLast {
		limit = KeepLast
	}

	cur, err := l.coll.Find(ctx,
		bson.M{"school_id": schoolID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]ports.BackupEntry, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ ports.BackupLog = (*MongoLog)(nil)
