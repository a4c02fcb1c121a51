package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

// signJWT creates a signed HMAC-SHA256 JWT for the given account.
func signJWT(user *models.InternalUser, config *common.AuthConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.AccountID,
		"username": user.Username,
		"role":     user.Role,
		"iss":      "apex-server",
		"iat":      now.Unix(),
		"exp":      now.Add(config.GetTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	Token     string `json:"token"`
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// handleSignup handles POST /api/auth/signup.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req signupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	store := s.app.Storage.InternalStore()
	if _, err := store.GetUserByUsername(r.Context(), req.Username); err == nil {
		WriteError(w, http.StatusConflict, "Username already exists")
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		WriteDomainError(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.InternalUser{
		AccountID:    uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         "trader",
	}
	if err := store.SaveUser(r.Context(), user); err != nil {
		WriteDomainError(w, err)
		return
	}

	token, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to sign token")
		return
	}

	s.logger.Info().Str("username", user.Username).Msg("Account registered")
	WriteJSON(w, http.StatusCreated, authResponse{
		Token:     token,
		AccountID: user.AccountID,
		Username:  user.Username,
		Name:      user.Name,
		Role:      user.Role,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := s.app.Storage.InternalStore().GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		// Same response for unknown user and bad password.
		WriteError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to sign token")
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{
		Token:     token,
		AccountID: user.AccountID,
		Username:  user.Username,
		Name:      user.Name,
		Role:      user.Role,
	})
}

// handleSession handles GET /api/auth/session; the auth middleware has
// already validated the token by the time this runs.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ac := common.AccountFromContext(r.Context())
	if ac == nil {
		WriteError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logged_in":  true,
		"account_id": ac.AccountID,
		"username":   ac.Username,
		"role":       ac.Role,
	})
}
