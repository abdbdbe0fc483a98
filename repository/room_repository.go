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

// MongoRoomRepository is the MongoDB-backed RoomRepository.
type MongoRoomRepository struct {
	collection *mongo.Collection
}

func NewRoomRepository(db *mongo.Database, collection string) *MongoRoomRepository {
	return &MongoRoomRepository{collection: db.Collection(collection)}
}

func keyFilter(key models.RoomKey) bson.M {
	return bson.M{"name": key.Name, "block": key.Block, "campus_id": key.CampusID}
}

func (r *MongoRoomRepository) FindByKey(ctx context.Context, key models.RoomKey) (*models.Room, error) {
	var room models.Room
	err := r.collection.FindOne(ctx, keyFilter(key)).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	return &room, nil
}

// Create upserts on the room key so concurrent imports converge on a single
// document. A duplicate key error means a racing upsert won; the winner is
// read back.
func (r *MongoRoomRepository) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"_id":        room.ID,
		"created_at": room.CreatedAt,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored models.Room
	err := r.collection.FindOneAndUpdate(ctx, keyFilter(room.Key()), update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		return r.FindByKey(ctx, room.Key())
	}
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &stored, nil
}

func (r *MongoRoomRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "campus_id", Value: 1},
			{Key: "block", Value: 1},
			{Key: "name", Value: 1},
		},
		Options: options.Index().SetName("room_key_unique").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create room indexes: %w", err)
	}
	return nil
}
