package importitems

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mg "github.com/robinhoalvessb-ui/performance-gest-o/internal/config/connections/mongo"
)

const ImportRecordItemsCollection = "import_record_items"

const (
	ItemStatusDone   = "done"
	ItemStatusFailed = "failed"
)

// Item is the audit line written for every processed row.
type Item struct {
	ImportRecordID string    `bson:"import_record_id" json:"import_record_id"`
	SchoolID       string    `bson:"school_id" json:"school_id"`
	ModelType      string    `bson:"model_type" json:"model_type"`
	Entity         string    `bson:"entity" json:"entity"`
	ModelID        string    `bson:"model_id" json:"model_id"`
	Payload        string    `bson:"payload" json:"payload"`
	Status         string    `bson:"status" json:"status"`
	Errors         string    `bson:"errors" json:"errors"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

type LogParams struct {
	ImportRecordID string
	SchoolID       string
	ModelType      ModelType
	ModelID        string
	Payload        map[string]string
	Status         string
	Errors         string
}

func InsertItem(ctx context.Context, m *mg.Mongo, item Item) (*mongo.InsertOneResult, error) {
	if m == nil || m.Client == nil || m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}

	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	doc := bson.D{
		{Key: "import_record_id", Value: item.ImportRecordID},
		{Key: "school_id", Value: item.SchoolID},
		{Key: "model_type", Value: item.ModelType},
		{Key: "entity", Value: item.Entity},
		{Key: "model_id", Value: item.ModelID},
		{Key: "payload", Value: item.Payload},
		{Key: "status", Value: item.Status},
		{Key: "errors", Value: item.Errors},
		{Key: "created_at", Value: item.CreatedAt},
		{Key: "updated_at", Value: item.UpdatedAt},
	}

	return m.Database.Collection(ImportRecordItemsCollection).InsertOne(ctx, doc, options.InsertOne())
}

// ItemLogger writes row outcomes to import_record_items. A nil Mongo turns it
// into a no-op, which is what the memory store setup uses.
type ItemLogger struct {
	mg  *mg.Mongo
	log logrus.FieldLogger
}

func NewItemLogger(m *mg.Mongo, log logrus.FieldLogger) *ItemLogger {
	return &ItemLogger{mg: m, log: log}
}

func (l *ItemLogger) Done(ctx context.Context, p LogParams) {
	p.Status = ItemStatusDone
	l.write(ctx, p)
}

func (l *ItemLogger) Fail(ctx context.Context, p LogParams) {
	p.Status = ItemStatusFailed
	l.write(ctx, p)
}

func (l *ItemLogger) write(ctx context.Context, p LogParams) {
	if l == nil || l.mg == nil || l.mg.Database == nil {
		return
	}

	b, _ := json.Marshal(p.Payload)

	if _, err := InsertItem(ctx, l.mg, Item{
		ImportRecordID: p.ImportRecordID,
		SchoolID:       p.SchoolID,
		ModelType:      string(p.ModelType),
		Entity:         EntityByModel(p.ModelType),
		ModelID:        p.ModelID,
		Payload:        string(b),
		Status:         p.Status,
		Errors:         p.Errors,
	}); err != nil {
		l.log.WithFields(logrus.Fields{
			"model":  p.ModelType,
			"id":     p.ModelID,
			"status": p.Status,
		}).WithError(err).Error("[PROC][MONGO][ERR]")
	}
}
