package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jaybesin/logistics-console/internal/models"
)

// ErrUserExists is returned when inserting a user whose email is taken.
var ErrUserExists = errors.New("user already exists")

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) (string, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	DeleteUser(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// InsertUser inserts a new user into the database
func (c *MongoUserCollection) InsertUser(ctx context.Context, user models.User) (string, error) {
	if c.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	user.Email = normalizeEmail(user.Email)
	if _, err := c.FindUserByEmail(ctx, user.Email); err == nil {
		return "", ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true

	if _, err := c.Collection.InsertOne(ctx, user); err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return user.ID.Hex(), nil
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	return c.findOne(ctx, bson.M{"_id": objectID})
}

// FindUserByEmail finds a user by their email
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (c *MongoUserCollection) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var user models.User
	if err := c.Collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// FindUsers lists all users ordered by email
func (c *MongoUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	sortUsers(users)
	return users, nil
}

// UpdateUser replaces a user document, keeping its ID
func (c *MongoUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	user.UpdatedAt = time.Now()
	user.ID = objectID
	user.Email = normalizeEmail(user.Email)

	res, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, user)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	return nil
}

// DeleteUser deletes a user from the database
func (c *MongoUserCollection) DeleteUser(ctx context.Context, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	res, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	return nil
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	now := time.Now()
	_, err = c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}},
	)
	return err
}

// MemoryUserCollection implements UserCollection in process.
type MemoryUserCollection struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemoryUserCollection returns an empty collection.
func NewMemoryUserCollection() *MemoryUserCollection {
	return &MemoryUserCollection{users: make(map[string]models.User)}
}

// InsertUser implements UserCollection.
func (c *MemoryUserCollection) InsertUser(_ context.Context, user models.User) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	user.Email = normalizeEmail(user.Email)
	for _, u := range c.users {
		if u.Email == user.Email {
			return "", ErrUserExists
		}
	}
	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true
	c.users[user.ID.Hex()] = user
	return user.ID.Hex(), nil
}

// FindUserByID implements UserCollection.
func (c *MemoryUserCollection) FindUserByID(_ context.Context, id string) (*models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	return &u, nil
}

// FindUserByEmail implements UserCollection.
func (c *MemoryUserCollection) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user: %w", ErrNotFound)
}

// FindUsers implements UserCollection.
func (c *MemoryUserCollection) FindUsers(_ context.Context) ([]models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	users := make([]models.User, 0, len(c.users))
	for _, u := range c.users {
		users = append(users, u)
	}
	sortUsers(users)
	return users, nil
}

// UpdateUser implements UserCollection.
func (c *MemoryUserCollection) UpdateUser(_ context.Context, id string, user models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.users[id]
	if !ok {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	user.ID = existing.ID
	user.Email = normalizeEmail(user.Email)
	user.UpdatedAt = time.Now()
	c.users[id] = user
	return nil
}

// DeleteUser implements UserCollection.
func (c *MemoryUserCollection) DeleteUser(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[id]; !ok {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	delete(c.users, id)
	return nil
}

// UpdateLastLogin implements UserCollection.
func (c *MemoryUserCollection) UpdateLastLogin(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[id]
	if !ok {
		return fmt.Errorf("user: %w", ErrNotFound)
	}
	now := time.Now()
	u.LastLogin = &now
	u.UpdatedAt = now
	c.users[id] = u
	return nil
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
}

// EnsureSuperAdmin creates the bootstrap super admin when no user with that
// email exists yet. passwordHash must already be hashed.
func EnsureSuperAdmin(ctx context.Context, users UserCollection, email, passwordHash string) (bool, error) {
	if normalizeEmail(email) == "" || passwordHash == "" {
		return false, nil
	}
	if _, err := users.FindUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("look up super admin: %w", err)
	}
	_, err := users.InsertUser(ctx, models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleSuperAdmin,
		CreatedBy:    "bootstrap",
	})
	if err != nil {
		return false, fmt.Errorf("create super admin: %w", err)
	}
	return true, nil
}
