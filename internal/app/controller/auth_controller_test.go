package controller

import (
	"net/http"
	"testing"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, env *apiEnv, email string) map[string]interface{} {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Email:    email,
		Password: "Helmet@2024",
		Name:     "Test Rider",
		Phone:    "9876543210",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func tokensOf(body map[string]interface{}) (access, refresh string) {
	tokens := body["tokens"].(map[string]interface{})
	return tokens["access_token"].(string), tokens["refresh_token"].(string)
}

func TestAuthController_Register(t *testing.T) {
	env := newAPIEnv(t)

	body := register(t, env, "rider@example.com")
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "rider@example.com", user["email"])
	assert.Equal(t, string(model.RoleUser), user["role"])
	assert.NotContains(t, user, "password_hash")
	access, refresh := tokensOf(body)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Email: "rider@example.com", Password: "Helmet@2024", Name: "Again",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "AUTH_EMAIL_EXISTS", decode(t, w)["error"])
}

func TestAuthController_Register_InvalidInput(t *testing.T) {
	env := newAPIEnv(t)

	tests := []struct {
		name string
		body RegisterRequest
	}{
		{name: "bad email", body: RegisterRequest{Email: "not-an-email", Password: "Helmet@2024", Name: "A"}},
		{name: "short password", body: RegisterRequest{Email: "a@example.com", Password: "short", Name: "A"}},
		{name: "missing name", body: RegisterRequest{Email: "a@example.com", Password: "Helmet@2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_INVALID_INPUT", decode(t, w)["error"])
		})
	}
}

func TestAuthController_Login(t *testing.T) {
	env := newAPIEnv(t)
	register(t, env, "rider@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "rider@example.com", Password: "Helmet@2024"})
	require.Equal(t, http.StatusOK, w.Code)
	access, _ := tokensOf(decode(t, w))

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rider@example.com", decode(t, w)["user"].(map[string]interface{})["email"])

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "rider@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: "Helmet@2024"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_RefreshRotatesToken(t *testing.T) {
	env := newAPIEnv(t)
	_, refresh := tokensOf(register(t, env, "rider@example.com"))

	w := env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{RefreshToken: refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access, rotated := tokensOf(decode(t, w))
	assert.NotEmpty(t, access)
	assert.NotEqual(t, refresh, rotated)

	w = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{RefreshToken: refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_REVOKED", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{RefreshToken: access})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_INVALID", decode(t, w)["error"])
}

func TestAuthController_LogoutRevokesTokens(t *testing.T) {
	env := newAPIEnv(t)
	access, refresh := tokensOf(register(t, env, "rider@example.com"))

	w := env.do(t, http.MethodPost, "/api/v1/auth/logout", access, LogoutRequest{RefreshToken: refresh})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", access, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_REVOKED", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{RefreshToken: refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
