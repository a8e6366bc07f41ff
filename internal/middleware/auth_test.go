package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func runAuth(req *http.Request) (*httptest.ResponseRecorder, *http.Request) {
	var seen *http.Request
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestAuth_ValidToken(t *testing.T) {
	token := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: []string{"conversations:write"},
	})

	rec, seen := runAuth(authedRequest(token))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-123", GetUserID(seen.Context()))
	assert.True(t, HasScope(seen.Context(), "conversations:write"))
	assert.False(t, HasScope(seen.Context(), "admin"))
}

func TestAuth_MissingHeader(t *testing.T) {
	rec, seen := runAuth(authedRequest(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}

func TestAuth_WrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	rec, seen := runAuth(authedRequest(token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}

func TestAuth_ExpiredToken(t *testing.T) {
	token := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	rec, seen := runAuth(authedRequest(token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}

func TestAuth_MalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	rec, seen := runAuth(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)
}

func TestValidateTopic(t *testing.T) {
	assert.NoError(t, ValidateTopic("release planning"))
	assert.Error(t, ValidateTopic(""))
	assert.Error(t, ValidateTopic("   "))
	assert.Error(t, ValidateTopic(string(make([]byte, 2001))))
}

func TestValidateSpecificationText(t *testing.T) {
	assert.NoError(t, ValidateSpecificationText("Create 3 agents"))
	assert.Error(t, ValidateSpecificationText(""))
	assert.Error(t, ValidateSpecificationText(string(make([]byte, 10001))))
}

func TestValidateAgentID(t *testing.T) {
	assert.NoError(t, ValidateAgentID("agent_0"))
	assert.Error(t, ValidateAgentID(""))
	assert.Error(t, ValidateAgentID(string(make([]byte, 65))))
}
