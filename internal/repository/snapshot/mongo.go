package snapshot

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

const SchoolsCollection = "schools"

// MongoStore keeps one document per school in the schools collection, keyed
// by the school id.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(SchoolsCollection)}
}

func (s *MongoStore) Load(ctx context.Context, id string) (models.School, error) {
	var out models.School
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.School{}, fmt.Errorf("%w: %s", ports.ErrSchoolNotFound, id)
	}
	if err != nil {
		return models.School{}, fmt.Errorf("load school %s: %w", id, err)
	}
	return out, nil
}

func (s *MongoStore) Save(ctx context.Context, school models.School) error {
	if school.ID == "" {
		return errors.New("save school: empty id")
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": school.ID}, school, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save school %s: %w", school.ID, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.School, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.School, 0)
	for cur.Next(ctx) {
		var sc models.School
		if err := cur.Decode(&sc); err != nil {
			return nil, fmt.Errorf("decode school: %w", err)
		}
		out = append(out, sc)
	}
	return out, cur.Err()
}
