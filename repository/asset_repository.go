package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yashrajoria/asset-inventory-backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAssetRepository is the MongoDB-backed AssetRepository.
type MongoAssetRepository struct {
	collection *mongo.Collection
}

func NewAssetRepository(db *mongo.Database, collection string) *MongoAssetRepository {
	return &MongoAssetRepository{collection: db.Collection(collection)}
}

func (r *MongoAssetRepository) FindExistingTombos(ctx context.Context, tombos []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(tombos) == 0 {
		return existing, nil
	}

	opts := options.Find().SetProjection(bson.M{"tombo": 1, "_id": 0})
	cursor, err := r.collection.Find(ctx, bson.M{"tombo": bson.M{"$in": tombos}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find existing tombos: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Tombo string `bson:"tombo"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode existing tombos: %w", err)
	}

	for _, d := range docs {
		existing[d.Tombo] = struct{}{}
	}
	return existing, nil
}

func (r *MongoAssetRepository) InsertMany(ctx context.Context, assets []models.Asset) (int, []WriteFailure, error) {
	if len(assets) == 0 {
		return 0, nil, nil
	}

	docs := make([]interface{}, len(assets))
	for i := range assets {
		docs[i] = assets[i]
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(assets), nil, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 {
		return 0, nil, fmt.Errorf("insert assets: %w", err)
	}

	failures := make([]WriteFailure, 0, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		failures = append(failures, WriteFailure{
			Index:   we.Index,
			Code:    we.Code,
			Message: we.Message,
		})
	}
	return len(assets) - len(failures), failures, nil
}

// EnsureIndexes creates the unique tombo index. Blank tombos are excluded
// so assets without a tag number never collide.
func (r *MongoAssetRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tombo", Value: 1}},
			Options: options.Index().
				SetName("tombo_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"tombo": bson.M{"$gt": ""}}),
		},
		{
			Keys:    bson.D{{Key: "campus_id", Value: 1}, {Key: "room_id", Value: 1}},
			Options: options.Index().SetName("campus_room"),
		},
	})
	if err != nil {
		return fmt.Errorf("create asset indexes: %w", err)
	}
	return nil
}
