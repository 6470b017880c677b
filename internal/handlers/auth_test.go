package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jaybesin/logistics-console/internal/auth"
	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/middleware"
	"github.com/jaybesin/logistics-console/internal/models"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	svc, err := auth.NewService("test-secret", 0)
	require.NoError(t, err)
	return svc
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func withClaims(req *http.Request, claims *models.Claims) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
}

func TestAuthHandler_Login(t *testing.T) {
	authService := newAuthService(t)
	passwordHash, err := authService.HashPassword("password123")
	require.NoError(t, err)

	t.Run("successful login", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		user := &models.User{
			ID:           primitive.NewObjectID(),
			Email:        "ama@jaybesin.com",
			PasswordHash: passwordHash,
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		mockUserCollection.On("FindUserByEmail", mock.Anything, "ama@jaybesin.com").Return(user, nil)
		mockUserCollection.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, models.LoginRequest{Email: "ama@jaybesin.com", Password: "password123"}))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response.Token)
		assert.NotEmpty(t, response.RefreshToken)
		assert.Equal(t, user.Email, response.User.Email)

		claims, err := authService.ValidateToken(response.Token)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, claims.Role)

		mockUserCollection.AssertExpectations(t)
	})

	t.Run("last login failure does not block login", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		user := &models.User{ID: primitive.NewObjectID(), Email: "ama@jaybesin.com", PasswordHash: passwordHash, Role: models.RoleViewer, IsActive: true}
		mockUserCollection.On("FindUserByEmail", mock.Anything, "ama@jaybesin.com").Return(user, nil)
		mockUserCollection.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(assert.AnError)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, models.LoginRequest{Email: "ama@jaybesin.com", Password: "password123"}))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	tests := []struct {
		name     string
		req      models.LoginRequest
		user     *models.User
		findErr  error
		expected int
	}{
		{
			name:     "unknown email",
			req:      models.LoginRequest{Email: "nobody@jaybesin.com", Password: "password123"},
			findErr:  fmt.Errorf("user: %w", db.ErrNotFound),
			expected: http.StatusUnauthorized,
		},
		{
			name:     "wrong password",
			req:      models.LoginRequest{Email: "ama@jaybesin.com", Password: "wrongpassword"},
			user:     &models.User{ID: primitive.NewObjectID(), PasswordHash: passwordHash, Role: models.RoleAdmin, IsActive: true},
			expected: http.StatusUnauthorized,
		},
		{
			name:     "inactive user",
			req:      models.LoginRequest{Email: "ama@jaybesin.com", Password: "password123"},
			user:     &models.User{ID: primitive.NewObjectID(), PasswordHash: passwordHash, Role: models.RoleAdmin, IsActive: false},
			expected: http.StatusUnauthorized,
		},
		{
			name:     "store failure",
			req:      models.LoginRequest{Email: "ama@jaybesin.com", Password: "password123"},
			findErr:  assert.AnError,
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserCollection := new(MockUserCollection)
			handler := NewAuthHandler(authService, mockUserCollection)
			if tt.user != nil {
				mockUserCollection.On("FindUserByEmail", mock.Anything, tt.req.Email).Return(tt.user, nil)
			} else {
				mockUserCollection.On("FindUserByEmail", mock.Anything, tt.req.Email).Return(nil, tt.findErr)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, tt.req))
			w := httptest.NewRecorder()

			handler.Login(w, req)

			assert.Equal(t, tt.expected, w.Code)
			mockUserCollection.AssertExpectations(t)
			mockUserCollection.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything)
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, models.LoginRequest{Email: "ama@jaybesin.com"}))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))
		w := httptest.NewRecorder()

		handler.Login(w, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	authService := newAuthService(t)

	t.Run("successful profile retrieval", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		userID := primitive.NewObjectID()
		user := &models.User{ID: userID, Email: "ama@jaybesin.com", DisplayName: "Ama", Role: models.RoleAdmin, IsActive: true}
		mockUserCollection.On("FindUserByID", mock.Anything, userID.Hex()).Return(user, nil)

		req := withClaims(httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil),
			&models.Claims{UserID: userID.Hex(), Email: user.Email, Role: models.RoleAdmin})
		w := httptest.NewRecorder()

		handler.GetProfile(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Ama", response.DisplayName)
		assert.Equal(t, user.Email, response.Email)
		assert.NotContains(t, w.Body.String(), "password")
		mockUserCollection.AssertExpectations(t)
	})

	t.Run("user not found", func(t *testing.T) {
		mockUserCollection := new(MockUserCollection)
		handler := NewAuthHandler(authService, mockUserCollection)

		userID := primitive.NewObjectID()
		mockUserCollection.On("FindUserByID", mock.Anything, userID.Hex()).Return(nil, db.ErrNotFound)

		req := withClaims(httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil),
			&models.Claims{UserID: userID.Hex(), Email: "ama@jaybesin.com", Role: models.RoleAdmin})
		w := httptest.NewRecorder()

		handler.GetProfile(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUserCollection.AssertExpectations(t)
	})

	t.Run("no user context", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))
		w := httptest.NewRecorder()

		handler.GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	authService := newAuthService(t)
	currentHash, err := authService.HashPassword("oldpassword")
	require.NoError(t, err)

	userID := primitive.NewObjectID()
	claims := &models.Claims{UserID: userID.Hex(), Email: "ama@jaybesin.com", Role: models.RoleAdmin}

	tests := []struct {
		name     string
		body     map[string]string
		update   bool
		expected int
	}{
		{"successful change", map[string]string{"current_password": "oldpassword", "new_password": "newpassword123"}, true, http.StatusOK},
		{"wrong current password", map[string]string{"current_password": "nope-nope", "new_password": "newpassword123"}, false, http.StatusUnauthorized},
		{"weak new password", map[string]string{"current_password": "oldpassword", "new_password": "short"}, false, http.StatusBadRequest},
		{"missing fields", map[string]string{"new_password": "newpassword123"}, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserCollection := new(MockUserCollection)
			handler := NewAuthHandler(authService, mockUserCollection)

			user := &models.User{ID: userID, Email: "ama@jaybesin.com", PasswordHash: currentHash, Role: models.RoleAdmin, IsActive: true}
			mockUserCollection.On("FindUserByID", mock.Anything, userID.Hex()).Return(user, nil).Maybe()
			if tt.update {
				mockUserCollection.On("UpdateUser", mock.Anything, userID.Hex(), mock.MatchedBy(func(u models.User) bool {
					return authService.CheckPassword("newpassword123", u.PasswordHash)
				})).Return(nil)
			}

			req := withClaims(httptest.NewRequest(http.MethodPost, "/api/auth/change-password", jsonBody(t, tt.body)), claims)
			w := httptest.NewRecorder()

			handler.ChangePassword(w, req)

			assert.Equal(t, tt.expected, w.Code)
			mockUserCollection.AssertExpectations(t)
			if !tt.update {
				mockUserCollection.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAuthHandler_CreateUser(t *testing.T) {
	authService := newAuthService(t)
	creator := &models.Claims{UserID: primitive.NewObjectID().Hex(), Email: "root@jaybesin.com", Role: models.RoleSuperAdmin}

	t.Run("creates an admin by default", func(t *testing.T) {
		users := db.NewMemoryUserCollection()
		handler := NewAuthHandler(authService, users)

		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/admin/users", jsonBody(t, models.CreateUserRequest{
			Email:       "Kofi@JayBesin.com",
			Password:    "password123",
			DisplayName: " Kofi ",
		})), creator)
		w := httptest.NewRecorder()

		handler.CreateUser(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var created models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, "kofi@jaybesin.com", created.Email)
		assert.Equal(t, "Kofi", created.DisplayName)
		assert.Equal(t, models.RoleAdmin, created.Role)
		assert.Equal(t, "root@jaybesin.com", created.CreatedBy)
		assert.True(t, created.IsActive)

		stored, err := users.FindUserByEmail(context.Background(), "kofi@jaybesin.com")
		require.NoError(t, err)
		assert.True(t, authService.CheckPassword("password123", stored.PasswordHash))
	})

	tests := []struct {
		name     string
		req      models.CreateUserRequest
		expected int
	}{
		{"invalid email", models.CreateUserRequest{Email: "kofi", Password: "password123"}, http.StatusBadRequest},
		{"weak password", models.CreateUserRequest{Email: "kofi@jaybesin.com", Password: "short"}, http.StatusBadRequest},
		{"invalid role", models.CreateUserRequest{Email: "kofi@jaybesin.com", Password: "password123", Role: "owner"}, http.StatusBadRequest},
		{"duplicate email", models.CreateUserRequest{Email: "taken@jaybesin.com", Password: "password123"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := db.NewMemoryUserCollection()
			_, err := users.InsertUser(context.Background(), models.User{Email: "taken@jaybesin.com", Role: models.RoleViewer})
			require.NoError(t, err)
			handler := NewAuthHandler(authService, users)

			req := withClaims(httptest.NewRequest(http.MethodPost, "/api/admin/users", jsonBody(t, tt.req)), creator)
			w := httptest.NewRecorder()

			handler.CreateUser(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestAuthHandler_ListUsers(t *testing.T) {
	authService := newAuthService(t)
	mockUserCollection := new(MockUserCollection)
	handler := NewAuthHandler(authService, mockUserCollection)

	mockUserCollection.On("FindUsers", mock.Anything).Return([]models.User{
		{Email: "a@jaybesin.com", Role: models.RoleAdmin},
		{Email: "b@jaybesin.com", Role: models.RoleViewer},
	}, nil).Once()
	mockUserCollection.On("FindUsers", mock.Anything).Return(nil, assert.AnError).Once()

	w := httptest.NewRecorder()
	handler.ListUsers(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	w = httptest.NewRecorder()
	handler.ListUsers(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	mockUserCollection.AssertExpectations(t)
}

func TestAuthHandler_UpdateUser(t *testing.T) {
	authService := newAuthService(t)
	viewer := models.RoleViewer
	admin := models.RoleAdmin
	owner := models.Role("owner")
	inactive := false
	name := " Ama O. "

	tests := []struct {
		name     string
		self     bool
		target   string
		req      models.UpdateUserRequest
		expected int
	}{
		{"promote", false, "", models.UpdateUserRequest{Role: &admin, DisplayName: &name}, http.StatusOK},
		{"deactivate", false, "", models.UpdateUserRequest{IsActive: &inactive}, http.StatusOK},
		{"invalid role", false, "", models.UpdateUserRequest{Role: &owner}, http.StatusBadRequest},
		{"own role", true, "", models.UpdateUserRequest{Role: &viewer}, http.StatusBadRequest},
		{"own display name", true, "", models.UpdateUserRequest{DisplayName: &name}, http.StatusOK},
		{"unknown user", false, primitive.NewObjectID().Hex(), models.UpdateUserRequest{Role: &admin}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := db.NewMemoryUserCollection()
			id, err := users.InsertUser(context.Background(), models.User{Email: "ama@jaybesin.com", Role: models.RoleViewer, IsActive: true})
			require.NoError(t, err)
			handler := NewAuthHandler(authService, users)

			callerID := primitive.NewObjectID().Hex()
			if tt.self {
				callerID = id
			}
			target := id
			if tt.target != "" {
				target = tt.target
			}
			req := withClaims(httptest.NewRequest(http.MethodPut, "/api/admin/users/"+target, jsonBody(t, tt.req)),
				&models.Claims{UserID: callerID, Email: "root@jaybesin.com", Role: models.RoleSuperAdmin})
			req.SetPathValue("id", target)
			w := httptest.NewRecorder()

			handler.UpdateUser(w, req)

			require.Equal(t, tt.expected, w.Code, w.Body.String())
			if tt.expected != http.StatusOK {
				return
			}
			stored, err := users.FindUserByID(context.Background(), id)
			require.NoError(t, err)
			if tt.req.Role != nil {
				assert.Equal(t, *tt.req.Role, stored.Role)
			}
			if tt.req.IsActive != nil {
				assert.False(t, stored.IsActive)
			}
			if tt.req.DisplayName != nil {
				assert.Equal(t, "Ama O.", stored.DisplayName)
			}
		})
	}
}

func TestAuthHandler_DeleteUser(t *testing.T) {
	authService := newAuthService(t)
	users := db.NewMemoryUserCollection()
	id, err := users.InsertUser(context.Background(), models.User{Email: "yaw@jaybesin.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	handler := NewAuthHandler(authService, users)
	root := &models.Claims{UserID: primitive.NewObjectID().Hex(), Email: "root@jaybesin.com", Role: models.RoleSuperAdmin}

	del := func(target string, claims *models.Claims) int {
		req := withClaims(httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+target, nil), claims)
		req.SetPathValue("id", target)
		w := httptest.NewRecorder()
		handler.DeleteUser(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, del(root.UserID, root))
	assert.Equal(t, http.StatusNoContent, del(id, root))
	assert.Equal(t, http.StatusNotFound, del(id, root))

	_, err = users.FindUserByID(context.Background(), id)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
