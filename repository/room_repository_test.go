package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/asset-inventory-backend/models"
	"github.com/yashrajoria/asset-inventory-backend/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func roomDoc(id, name, block, campus string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "block", Value: block},
		{Key: "campus_id", Value: campus},
		{Key: "created_at", Value: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestRoomRepository_FindByKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	key := models.RoomKey{Name: "Sala 101", Block: "Bloco A", CampusID: "c1"}

	mt.Run("found", func(mt *mtest.T) {
		repo := repository.NewRoomRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			roomDoc("r1", "Sala 101", "Bloco A", "c1")))

		room, err := repo.FindByKey(context.Background(), key)
		require.NoError(mt, err)
		assert.Equal(mt, "r1", room.ID)
		assert.Equal(mt, key, room.Key())
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := repository.NewRoomRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := repo.FindByKey(context.Background(), key)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}

func TestRoomRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	room := &models.Room{ID: "r-new", Name: "Sala 101", Block: "Bloco A", CampusID: "c1", CreatedAt: time.Now()}

	mt.Run("upsert returns stored room", func(mt *mtest.T) {
		repo := repository.NewRoomRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "value",
			Value: roomDoc("r-new", "Sala 101", "Bloco A", "c1"),
		}))

		stored, err := repo.Create(context.Background(), room)
		require.NoError(mt, err)
		assert.Equal(mt, "r-new", stored.ID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		upsert, _ := started.Command.Lookup("upsert").BooleanOK()
		assert.True(mt, upsert)
	})

	mt.Run("existing room wins", func(mt *mtest.T) {
		repo := repository.NewRoomRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "value",
			Value: roomDoc("r-old", "Sala 101", "Bloco A", "c1"),
		}))

		stored, err := repo.Create(context.Background(), room)
		require.NoError(mt, err)
		assert.Equal(mt, "r-old", stored.ID)
	})

	mt.Run("duplicate key race reads back winner", func(mt *mtest.T) {
		repo := repository.NewRoomRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Message: "E11000 duplicate key error"}),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, roomDoc("r-race", "Sala 101", "Bloco A", "c1")),
		)

		stored, err := repo.Create(context.Background(), room)
		require.NoError(mt, err)
		assert.Equal(mt, "r-race", stored.ID)
	})

	mt.Run("failure", func(mt *mtest.T) {
		repo := repository.NewRoomRepository(mt.DB, mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value"}))

		_, err := repo.Create(context.Background(), room)
		assert.Error(mt, err)
	})
}
