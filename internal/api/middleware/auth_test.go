package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskline/taskline-api/internal/service/auth"
)

// stubJWTService validates exactly one known token.
type stubJWTService struct {
	validToken    string
	userID        uuid.UUID
	validateError error
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.validToken, nil
}

func (s *stubJWTService) ValidateToken(ctx context.Context, tokenString string) (uuid.UUID, error) {
	if s.validateError != nil {
		return uuid.Nil, s.validateError
	}
	if tokenString != s.validToken {
		return uuid.Nil, auth.ErrInvalidToken
	}
	return s.userID, nil
}

func runAuthenticated(t *testing.T, jwtService auth.JWTService, authHeader string) (*httptest.ResponseRecorder, uuid.UUID, bool) {
	t.Helper()

	var gotUserID uuid.UUID
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, reached = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(rr, req)

	return rr, gotUserID, reached
}

func TestAuthenticateValidToken(t *testing.T) {
	userID := uuid.New()
	jwtService := &stubJWTService{validToken: "good-token", userID: userID}

	rr, gotUserID, reached := runAuthenticated(t, jwtService, "Bearer good-token")

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, reached)
	assert.Equal(t, userID, gotUserID)
}

func TestAuthenticateMissingHeader(t *testing.T) {
	jwtService := &stubJWTService{validToken: "good-token"}

	rr, _, reached := runAuthenticated(t, jwtService, "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, reached)
	assert.Contains(t, rr.Body.String(), "Authorization header required")
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	jwtService := &stubJWTService{validToken: "good-token"}

	for _, header := range []string{
		"good-token",
		"Basic good-token",
		"Bearer",
		"Bearer one two",
	} {
		rr, _, reached := runAuthenticated(t, jwtService, header)

		assert.Equal(t, http.StatusUnauthorized, rr.Code, "header %q", header)
		assert.False(t, reached, "header %q", header)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	jwtService := &stubJWTService{validToken: "good-token"}

	rr, _, reached := runAuthenticated(t, jwtService, "Bearer forged-token")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, reached)
	assert.Contains(t, rr.Body.String(), "Invalid token")
}

func TestAuthenticateExpiredToken(t *testing.T) {
	jwtService := &stubJWTService{validateError: auth.ErrExpiredToken}

	rr, _, reached := runAuthenticated(t, jwtService, "Bearer stale-token")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, reached)
	assert.Contains(t, rr.Body.String(), "Token expired")
}

func TestGetUserIDWithoutAuthentication(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)

	_, ok := GetUserID(req)

	assert.False(t, ok)
}
