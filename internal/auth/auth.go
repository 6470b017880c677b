package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/jaybesin/logistics-console/internal/models"
)

const (
	// DefaultTokenExpiry applies when NewService is given a non-positive expiry.
	DefaultTokenExpiry = 24 * time.Hour

	// TokenIssuer is stamped on every console token and required on parse.
	TokenIssuer = "jaybesin-console"

	minPasswordLength = 8
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is inactive")
	ErrInvalidRole        = errors.New("user has no console role")
	ErrMissingSecret      = errors.New("jwt secret is required")
)

// consoleClaims is the token body: the user id travels as the subject and
// every token carries its own id so a log line can name it.
type consoleClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and checks console sessions and owns the password rules.
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
	now       func() time.Time
}

// NewService returns a Service signing HS256 tokens with secret.
func NewService(secret string, exp time.Duration) (*Service, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if exp <= 0 {
		exp = DefaultTokenExpiry
	}
	return &Service{jwtSecret: []byte(secret), tokenExp: exp, now: time.Now}, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken opens a session for an active user holding a console role.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	if user == nil {
		return "", ErrUserNotFound
	}
	if !user.IsActive {
		return "", ErrUserInactive
	}
	if !models.IsValidRole(user.Role) {
		return "", ErrInvalidRole
	}

	now := s.now()
	claims := consoleClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    TokenIssuer,
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExp)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// GenerateRefreshToken returns 32 random bytes, URL-safe encoded.
func (s *Service) GenerateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// ValidateToken parses a console token, with or without the Bearer prefix.
// Expired tokens report ErrExpiredToken; anything else wrong is ErrInvalidToken.
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	var claims consoleClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (interface{}, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}

	if !primitive.IsValidObjectID(claims.Subject) || claims.Email == "" || !models.IsValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}
	return &models.Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		Exp:    claims.ExpiresAt.Unix(),
	}, nil
}

// ExtractTokenFromHeader returns the token of a "Bearer <token>" header.
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || token == "" || strings.ContainsRune(token, ' ') {
		return "", ErrInvalidToken
	}
	return token, nil
}

func (s *Service) ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	return nil
}

// ValidateEmail wants a local part and a dotted domain.
func (s *Service) ValidateEmail(email string) error {
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at:], ".") {
		return errors.New("invalid email format")
	}
	return nil
}

// Authenticate checks a login against the stored user. Unknown emails and
// wrong passwords both report ErrInvalidCredentials.
func (s *Service) Authenticate(user *models.User, password string) error {
	if user == nil || !s.CheckPassword(password, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if !user.IsActive {
		return ErrUserInactive
	}
	return nil
}
