package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jaybesin/logistics-console/internal/models"
)

const testSecret = "test-secret"

func newService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(testSecret, 0)
	require.NoError(t, err)
	return service
}

func testUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Email:    "ops@jaybesin.com",
		Role:     models.RoleAdmin,
		IsActive: true,
	}
}

func TestNewService(t *testing.T) {
	service := newService(t)
	assert.Equal(t, []byte(testSecret), service.jwtSecret)
	assert.Equal(t, DefaultTokenExpiry, service.tokenExp)

	service, err := NewService(testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, service.tokenExp)

	_, err = NewService("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestService_HashPassword(t *testing.T) {
	service := newService(t)

	password := "testpassword123"
	hash, err := service.HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
	assert.True(t, service.CheckPassword(password, hash))
	assert.False(t, service.CheckPassword("wrongpassword", hash))
}

func TestService_ValidateToken(t *testing.T) {
	service := newService(t)
	user := testUser()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)

	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)

	_, err = service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_Rejects(t *testing.T) {
	service := newService(t)
	other, err := NewService("another-secret", 0)
	require.NoError(t, err)

	foreign, err := other.GenerateToken(testUser())
	require.NoError(t, err)

	now := time.Now()
	subject := primitive.NewObjectID().Hex()
	claims := func(mutate func(c *consoleClaims)) consoleClaims {
		c := consoleClaims{
			Email: "ops@jaybesin.com",
			Role:  models.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    TokenIssuer,
				Subject:   subject,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		mutate(&c)
		return c
	}
	sign := func(method jwt.SigningMethod, c consoleClaims) string {
		s, err := jwt.NewWithClaims(method, c).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"well formed", sign(jwt.SigningMethodHS256, claims(func(*consoleClaims) {})), nil},
		{"wrong secret", foreign, ErrInvalidToken},
		{"expired", sign(jwt.SigningMethodHS256, claims(func(c *consoleClaims) {
			c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
		})), ErrExpiredToken},
		{"no expiry", sign(jwt.SigningMethodHS256, claims(func(c *consoleClaims) { c.ExpiresAt = nil })), ErrInvalidToken},
		{"issued in the future", sign(jwt.SigningMethodHS256, claims(func(c *consoleClaims) {
			c.IssuedAt = jwt.NewNumericDate(now.Add(time.Hour))
		})), ErrInvalidToken},
		{"other issuer", sign(jwt.SigningMethodHS256, claims(func(c *consoleClaims) { c.Issuer = "fleet" })), ErrInvalidToken},
		{"other algorithm", sign(jwt.SigningMethodHS512, claims(func(*consoleClaims) {})), ErrInvalidToken},
		{"subject is not a user id", sign(jwt.SigningMethodHS256, claims(func(c *consoleClaims) { c.Subject = "u" })), ErrInvalidToken},
		{"unknown role", sign(jwt.SigningMethodHS256, claims(func(c *consoleClaims) { c.Role = "manager" })), ErrInvalidToken},
		{"missing email", sign(jwt.SigningMethodHS256, claims(func(c *consoleClaims) { c.Email = "" })), ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateToken(tt.token)
			assert.Equal(t, tt.want, err)
		})
	}
}

func TestService_GenerateToken_RefusesUnusableAccounts(t *testing.T) {
	service := newService(t)

	inactive := testUser()
	inactive.IsActive = false
	unranked := testUser()
	unranked.Role = "driver"

	_, err := service.GenerateToken(inactive)
	assert.ErrorIs(t, err, ErrUserInactive)
	_, err = service.GenerateToken(unranked)
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, err = service.GenerateToken(nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_GenerateToken_UniqueIDs(t *testing.T) {
	service := newService(t)
	parse := func(tok string) consoleClaims {
		var c consoleClaims
		_, _, err := jwt.NewParser().ParseUnverified(tok, &c)
		require.NoError(t, err)
		return c
	}

	a, err := service.GenerateToken(testUser())
	require.NoError(t, err)
	b, err := service.GenerateToken(testUser())
	require.NoError(t, err)

	ca, cb := parse(a), parse(b)
	assert.NotEmpty(t, ca.ID)
	assert.NotEqual(t, ca.ID, cb.ID)
	assert.Equal(t, TokenIssuer, ca.Issuer)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := newService(t)

	extracted, err := service.ExtractTokenFromHeader("Bearer valid-token")
	assert.NoError(t, err)
	assert.Equal(t, "valid-token", extracted)

	for _, header := range []string{"", "InvalidFormat", "Bearer ", "Basic abc"} {
		_, err = service.ExtractTokenFromHeader(header)
		assert.Equal(t, ErrInvalidToken, err, "header %q", header)
	}
}

func TestService_ValidatePassword(t *testing.T) {
	service := newService(t)

	assert.NoError(t, service.ValidatePassword("validpassword123"))

	err := service.ValidatePassword("short")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")
}

func TestService_ValidateEmail(t *testing.T) {
	service := newService(t)

	tests := []struct {
		email string
		valid bool
	}{
		{"test@example.com", true},
		{"first.last@jaybesin.com.gh", true},
		{"testexample.com", false},
		{"test@", false},
		{"test@localhost", false},
		{"@example.com", false},
		{"test", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := service.ValidateEmail(tt.email)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, "invalid email format")
			}
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	service := newService(t)
	hash, err := service.HashPassword("correct-horse")
	require.NoError(t, err)

	active := testUser()
	active.PasswordHash = hash
	inactive := testUser()
	inactive.PasswordHash = hash
	inactive.IsActive = false

	assert.NoError(t, service.Authenticate(active, "correct-horse"))
	assert.ErrorIs(t, service.Authenticate(active, "battery-staple"), ErrInvalidCredentials)
	assert.ErrorIs(t, service.Authenticate(nil, "correct-horse"), ErrInvalidCredentials)
	assert.ErrorIs(t, service.Authenticate(inactive, "correct-horse"), ErrUserInactive)
}

func TestService_GenerateRefreshToken(t *testing.T) {
	service := newService(t)

	token, err := service.GenerateRefreshToken()
	assert.NoError(t, err)
	assert.Len(t, token, 44) // base64 of 32 bytes
}

func TestService_TokenExpiration(t *testing.T) {
	service, err := NewService(testSecret, 2*time.Hour)
	require.NoError(t, err)
	clock := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return clock }

	token, err := service.GenerateToken(testUser())
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, clock.Add(2*time.Hour).Unix(), claims.Exp)

	clock = clock.Add(2*time.Hour + time.Second)
	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}
