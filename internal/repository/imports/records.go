package importitems

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mg "github.com/robinhoalvessb-ui/performance-gest-o/internal/config/connections/mongo"
)

const ImportRecordsCollection = "import_records"

var ErrRecordNotFound = errors.New("import record not found")

const (
	RecordStatusParsed     = "parsed"
	RecordStatusProcessing = "processing"
	RecordStatusDone       = "done"
	RecordStatusFailed     = "failed"
)

type Record struct {
	ID        any        `bson:"_id" json:"id"`
	SchoolID  string     `bson:"school_id" json:"school_id"`
	UserID    *string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Count     int        `bson:"count" json:"count"`
	Status    string     `bson:"status" json:"status"`
	Errors    *string    `bson:"errors,omitempty" json:"errors,omitempty"`
	Type      string     `bson:"type" json:"type"`
	Path      *string    `bson:"path,omitempty" json:"path,omitempty"`
	Bucket    *string    `bson:"bucket,omitempty" json:"bucket,omitempty"`
	Key       *string    `bson:"key,omitempty" json:"key,omitempty"`
	SizeBytes *int64     `bson:"size_bytes,omitempty" json:"size_bytes,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

func InsertImportRecord(ctx context.Context, m *mg.Mongo, rec Record) (*mongo.InsertOneResult, error) {
	if m == nil || m.Client == nil || m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = RecordStatusParsed
	}

	doc := bson.D{
		{Key: "school_id", Value: rec.SchoolID},
		{Key: "user_id", Value: rec.UserID},
		{Key: "count", Value: rec.Count},
		{Key: "status", Value: rec.Status},
		{Key: "errors", Value: rec.Errors},
		{Key: "type", Value: rec.Type},
		{Key: "path", Value: rec.Path},
		{Key: "bucket", Value: rec.Bucket},
		{Key: "key", Value: rec.Key},
		{Key: "size_bytes", Value: rec.SizeBytes},
		{Key: "created_at", Value: rec.CreatedAt},
		{Key: "updated_at", Value: rec.UpdatedAt},
	}

	return m.Database.Collection(ImportRecordsCollection).InsertOne(ctx, doc, options.InsertOne())
}

func FindImportRecordByID(ctx context.Context, m *mg.Mongo, id string) (Record, error) {
	var out Record
	if m == nil || m.Database == nil {
		return out, mongo.ErrClientDisconnected
	}
	coll := m.Database.Collection(ImportRecordsCollection)

	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&out); err == nil {
			out.ID = oid
			return out, nil
		}
	}

	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return out, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return out, err
	}
	out.ID = id
	return out, nil
}

func ListImportRecords(ctx context.Context, m *mg.Mongo, filter bson.M, limit, skip int64) ([]Record, int64, error) {
	if m == nil || m.Database == nil {
		return nil, 0, mongo.ErrClientDisconnected
	}
	coll := m.Database.Collection(ImportRecordsCollection)
	if filter == nil {
		filter = bson.M{}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if skip > 0 {
		opts.SetSkip(skip)
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	recs := make([]Record, 0)
	for cur.Next(ctx) {
		var r Record
		if err := cur.Decode(&r); err != nil {
			continue
		}
		recs = append(recs, r)
	}
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		total = int64(len(recs))
	}
	return recs, total, nil
}

func UpdateImportRecordStatus(ctx context.Context, m *mg.Mongo, importRecordID, status string) error {
	return updateImportRecord(ctx, m, importRecordID, bson.M{"status": status})
}

// FinishImportRecord stores the final status, the processed row count and
// the joined row errors, if any.
func FinishImportRecord(ctx context.Context, m *mg.Mongo, importRecordID, status string, count int, errs string) error {
	set := bson.M{"status": status, "count": count}
	if errs != "" {
		set["errors"] = errs
	}
	return updateImportRecord(ctx, m, importRecordID, set)
}

func updateImportRecord(ctx context.Context, m *mg.Mongo, importRecordID string, set bson.M) error {
	if m == nil || m.Database == nil {
		return mongo.ErrClientDisconnected
	}
	if importRecordID == "" {
		return fmt.Errorf("empty importRecordID")
	}
	if s, _ := set["status"].(string); s == "" {
		return fmt.Errorf("empty status")
	}

	coll := m.Database.Collection(ImportRecordsCollection)
	set["updated_at"] = time.Now().UTC()
	update := bson.M{"$set": set}

	if oid, err := primitive.ObjectIDFromHex(importRecordID); err == nil {
		res, err := coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
		if err != nil {
			return err
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}

	res, err := coll.UpdateOne(ctx, bson.M{"_id": importRecordID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no import_record found with id %s (tried ObjectId and string)", importRecordID)
	}
	return nil
}

// Records binds the import record functions to one connection.
type Records struct {
	m *mg.Mongo
}

func NewRecords(m *mg.Mongo) *Records { return &Records{m: m} }

// Create stores rec and returns its id.
func (r *Records) Create(ctx context.Context, rec Record) (string, error) {
	res, err := InsertImportRecord(ctx, r.m, rec)
	if err != nil {
		return "", err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (r *Records) Get(ctx context.Context, id string) (Record, error) {
	return FindImportRecordByID(ctx, r.m, id)
}

// List returns the newest records of one school.
func (r *Records) List(ctx context.Context, schoolID string, limit, skip int64) ([]Record, int64, error) {
	return ListImportRecords(ctx, r.m, bson.M{"school_id": schoolID}, limit, skip)
}

func (r *Records) Processing(ctx context.Context, importRecordID string) error {
	return UpdateImportRecordStatus(ctx, r.m, importRecordID, RecordStatusProcessing)
}

func (r *Records) Finish(ctx context.Context, importRecordID string, rows int, err error) error {
	if err != nil {
		return FinishImportRecord(ctx, r.m, importRecordID, RecordStatusFailed, rows, err.Error())
	}
	return FinishImportRecord(ctx, r.m, importRecordID, RecordStatusDone, rows, "")
}
