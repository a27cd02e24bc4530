package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"familytree-backend/pkg/auth"
)

const (
	testSecret = "test-secret"
	testIssuer = "familytree-backend"
)

func newValidator(t *testing.T) *auth.JWTValidator {
	t.Helper()
	v, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: testSecret, Issuer: testIssuer})
	require.NoError(t, err)
	return v
}

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := auth.Claims{
		UserID: "user-1",
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthenticate_ValidTokenPutsUserInContext(t *testing.T) {
	// Arrange
	var gotUser *auth.UserContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = auth.GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(newValidator(t), zap.NewNop())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tree", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	// Act
	handler.ServeHTTP(rec, req)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUser)
	assert.Equal(t, "user-1", gotUser.UserID)
	assert.Equal(t, "user@example.com", gotUser.Email)
}

func TestAuthenticate_MissingTokenRejected(t *testing.T) {
	// Arrange
	handler := Authenticate(newValidator(t), zap.NewNop())(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not be reached")
		}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tree", nil)
	rec := httptest.NewRecorder()

	// Act
	handler.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_WrongSignatureRejected(t *testing.T) {
	handler := Authenticate(newValidator(t), zap.NewNop())(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not be reached")
		}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tree", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "another-secret", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_ExpiredTokenRejected(t *testing.T) {
	handler := Authenticate(newValidator(t), zap.NewNop())(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not be reached")
		}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tree", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(-time.Hour)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
