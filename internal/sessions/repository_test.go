package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create get delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse()) // createIndexes
		repo, err := NewMongoRepository(ctx, mt.Coll)
		require.NoError(mt, err)

		exp := time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "s1"},
				{Key: "tokenHash", Value: "h1"},
				{Key: "userId", Value: "user-1"},
				{Key: "expiresAt", Value: exp},
			}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)
		require.NoError(mt, repo.Create(ctx, &Session{ID: "s1", TokenHash: "h1", UserID: "user-1", ExpiresAt: exp}))

		got, err := repo.Get(ctx, "h1")
		require.NoError(mt, err)
		require.Equal(mt, "user-1", got.UserID)
		require.True(mt, exp.Equal(got.ExpiresAt))

		missing, err := repo.Get(ctx, "h2")
		require.NoError(mt, err)
		require.Nil(mt, missing)

		require.NoError(mt, repo.Delete(ctx, "h1"))
	})
}
