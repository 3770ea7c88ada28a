package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"usermanagement/internal/models"
)

func userDoc(id, name, email string, admin bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "email", Value: email},
		{Key: "mobile", Value: "0123456789"},
		{Key: "password", Value: []byte("hash")},
		{Key: "is_admin", Value: admin},
	}
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by email", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			userDoc("u1", "Ada", "ada@example.com", false)))

		user, err := repo.FindByEmail(context.Background(), "ADA@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", user.ID)
		assert.Equal(mt, "Ada", user.Name)
		assert.Equal(mt, []byte("hash"), user.PasswordHash)
		assert.False(mt, user.IsAdmin)
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "missing")
		assert.ErrorIs(mt, err, ErrUserNotFound)
	})

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"})
		require.NoError(mt, err)
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users index: email_unique",
		}))

		err := repo.Create(context.Background(), models.User{ID: "u2", Name: "Ada", Email: "ada@example.com"})
		assert.ErrorIs(mt, err, ErrDuplicateEmail)
	})

	mt.Run("create other failure", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Name:    "ShutdownInProgress",
			Message: "shutting down",
		}))

		err := repo.Create(context.Background(), models.User{ID: "u3", Name: "Ada", Email: "ada@example.com"})
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrDuplicateEmail)
	})

	mt.Run("update", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.Update(context.Background(), "u1", models.UserUpdate{Name: "Grace", Email: "grace@example.com", Mobile: "9876543210"})
		require.NoError(mt, err)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Update(context.Background(), "nope", models.UserUpdate{Name: "Grace", Email: "grace@example.com", Mobile: "9876543210"})
		assert.ErrorIs(mt, err, ErrUserNotFound)
	})

	mt.Run("delete twice", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		require.NoError(mt, repo.Delete(context.Background(), "u1"))
		require.NoError(mt, repo.Delete(context.Background(), "u1"))
	})

	mt.Run("search", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			userDoc("u1", "Ada", "ada@example.com", false),
			userDoc("u2", "Adam", "adam@example.com", false),
		))

		users, err := repo.Search(context.Background(), "ad", false)
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, "Adam", users[1].Name)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, repo.EnsureIndexes(context.Background()))
	})
}
