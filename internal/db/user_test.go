package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaybesin/logistics-console/internal/models"
)

func TestMemoryUserCollection_Lifecycle(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUserCollection()

	id, err := users.InsertUser(ctx, models.User{Email: " Admin@JayBesin.com ", PasswordHash: "hash", Role: models.RoleAdmin})
	require.NoError(t, err)

	found, err := users.FindUserByEmail(ctx, "admin@jaybesin.com")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID.Hex())
	assert.True(t, found.IsActive)
	assert.NotZero(t, found.CreatedAt)

	_, err = users.InsertUser(ctx, models.User{Email: "admin@jaybesin.com"})
	assert.ErrorIs(t, err, ErrUserExists)

	require.NoError(t, users.UpdateLastLogin(ctx, id))
	found, err = users.FindUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)

	found.Role = models.RoleViewer
	require.NoError(t, users.UpdateUser(ctx, id, *found))
	found, err = users.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, found.Role)

	require.NoError(t, users.DeleteUser(ctx, id))
	_, err = users.FindUserByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserCollection_FindUsersSorted(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUserCollection()
	for _, email := range []string{"zed@x.com", "amy@x.com", "kofi@x.com"} {
		_, err := users.InsertUser(ctx, models.User{Email: email, Role: models.RoleViewer})
		require.NoError(t, err)
	}
	list, err := users.FindUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "amy@x.com", list[0].Email)
	assert.Equal(t, "zed@x.com", list[2].Email)
}

func TestEnsureSuperAdmin(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUserCollection()

	created, err := EnsureSuperAdmin(ctx, users, "root@jaybesin.com", "hash")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureSuperAdmin(ctx, users, "root@jaybesin.com", "hash")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := users.FindUserByEmail(ctx, "root@jaybesin.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, u.Role)

	created, err = EnsureSuperAdmin(ctx, users, "", "hash")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMongoUserCollection_NilCollection(t *testing.T) {
	users := &MongoUserCollection{}
	_, err := users.InsertUser(context.Background(), models.User{Email: "a@b.com"})
	assert.Error(t, err)
	_, err = users.FindUsers(context.Background())
	assert.Error(t, err)
}

// Integration test (requires running MongoDB)
func TestMongoUserCollection_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Disconnect(context.Background())

	collection := client.Database("test_jaybesin").Collection("users")
	_ = collection.Drop(ctx)
	users := &MongoUserCollection{Collection: collection}

	id, err := users.InsertUser(ctx, models.User{Email: "ops@jaybesin.com", PasswordHash: "hash", Role: models.RoleAdmin})
	require.NoError(t, err)

	found, err := users.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ops@jaybesin.com", found.Email)

	_, err = users.FindUserByEmail(ctx, "nobody@jaybesin.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = users.FindUserByID(ctx, "invalid-id")
	assert.Error(t, err)
}
