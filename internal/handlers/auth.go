package handlers

import (
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/jaybesin/logistics-console/internal/auth"
	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/middleware"
	"github.com/jaybesin/logistics-console/internal/models"
)

// AuthHandler handles authentication and console user requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var loginReq models.LoginRequest
	if !decodeJSON(w, r, &loginReq) {
		return
	}

	if strings.TrimSpace(loginReq.Email) == "" || loginReq.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userCollection.FindUserByEmail(r.Context(), loginReq.Email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		writeError(w, r, err)
		return
	}

	switch err := h.authService.Authenticate(user, loginReq.Password); {
	case errors.Is(err, auth.ErrUserInactive):
		http.Error(w, "Account is deactivated", http.StatusUnauthorized)
		return
	case err != nil:
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		http.Error(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithField("user_id", user.ID.Hex()).WithError(err).Warn("Failed to update last login")
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var passwordReq struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &passwordReq) {
		return
	}

	if passwordReq.CurrentPassword == "" || passwordReq.NewPassword == "" {
		http.Error(w, "Current password and new password are required", http.StatusBadRequest)
		return
	}

	if err := h.authService.ValidatePassword(passwordReq.NewPassword); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	newPasswordHash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// CreateUser adds a console user. Super admin only.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req models.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleAdmin
	}

	if err := h.authService.ValidateEmail(req.Email); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !models.IsValidRole(req.Role) {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Email:        req.Email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: passwordHash,
		Role:         req.Role,
		CreatedBy:    claims.Email,
	}
	id, err := h.userCollection.InsertUser(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.userCollection.FindUserByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.WithFields(log.Fields{"user_id": id, "role": req.Role, "created_by": claims.Email}).Info("Console user created")
	writeJSON(w, http.StatusCreated, created)
}

// ListUsers returns every console user. Super admin only.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	users, err := h.userCollection.FindUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UpdateUser changes another user's role, display name or active flag. Super
// admin only. Super admins cannot demote or deactivate themselves.
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req models.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if id == claims.UserID && (req.Role != nil || req.IsActive != nil) {
		http.Error(w, "You cannot change your own role or access", http.StatusBadRequest)
		return
	}
	if req.Role != nil && !models.IsValidRole(*req.Role) {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := h.userCollection.UpdateUser(r.Context(), id, *user); err != nil {
		writeError(w, r, err)
		return
	}

	log.WithFields(log.Fields{"user_id": id, "role": user.Role, "active": user.IsActive, "updated_by": claims.Email}).Info("Console user updated")
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes a console user. Super admin only.
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}
	id := r.PathValue("id")
	if id == claims.UserID {
		http.Error(w, "You cannot delete your own account", http.StatusBadRequest)
		return
	}
	if err := h.userCollection.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	log.WithFields(log.Fields{"user_id": id, "deleted_by": claims.Email}).Info("Console user deleted")
	w.WriteHeader(http.StatusNoContent)
}
