package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddt-backend/internal/config"
	"ddt-backend/internal/database"
	"ddt-backend/internal/models"
)

var testConfig = &config.Config{JWTSecret: strings.Repeat("k", 32)}

func TestToken_RoundTrip(t *testing.T) {
	user := &models.User{ID: 7, Name: "Anna", Email: "anna@example.it", Role: models.RoleOperator}
	tok, err := GenerateToken(testConfig.JWTSecret, user)
	require.NoError(t, err)

	claims, err := ParseToken(testConfig.JWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleOperator, claims.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	_, err = ParseToken(strings.Repeat("x", 32), tok)
	assert.Error(t, err)
}

func TestToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := &JWTCustomClaims{UserID: 1, Role: models.RoleAdmin}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testConfig.JWTSecret))
	require.NoError(t, err)

	_, err = ParseToken(testConfig.JWTSecret, tok)
	assert.Error(t, err)
}

func setupAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	app := fiber.New()
	app.Post("/auth/register-admin", RegisterAdminHandler())
	app.Post("/auth/login", LoginHandler(testConfig))
	protected := app.Group("", JWTMiddleware(testConfig))
	protected.Get("/auth/me", MeHandler())
	protected.Post("/admin/users", RequireRole(models.RoleAdmin), CreateUserHandler())
	return app
}

func post(t *testing.T, app *fiber.App, path, token string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp := post(t, app, "/auth/login", "", LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string       `json:"token"`
		User  UserResponse `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestRegisterAdmin_OnlyOnce(t *testing.T) {
	app := setupAuthApp(t)

	resp := post(t, app, "/auth/register-admin", "", RegisterRequest{Name: "Admin", Email: "Admin@Example.it", Password: "segreta123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "admin@example.it", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)

	resp = post(t, app, "/auth/register-admin", "", RegisterRequest{Name: "Altro", Email: "altro@example.it", Password: "segreta123"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRegister_Validation(t *testing.T) {
	app := setupAuthApp(t)

	resp := post(t, app, "/auth/register-admin", "", RegisterRequest{Name: "A", Email: "non-una-mail", Password: "segreta123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = post(t, app, "/auth/register-admin", "", RegisterRequest{Name: "A", Email: "a@example.it", Password: "corta"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginAndRoles(t *testing.T) {
	app := setupAuthApp(t)
	require.Equal(t, http.StatusCreated,
		post(t, app, "/auth/register-admin", "", RegisterRequest{Name: "Admin", Email: "admin@example.it", Password: "segreta123"}).StatusCode)

	resp := post(t, app, "/auth/login", "", LoginRequest{Email: "admin@example.it", Password: "sbagliata"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	adminToken := login(t, app, " ADMIN@example.it ", "segreta123")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	me, err := app.Test(req, -1)
	require.NoError(t, err)
	defer me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)

	resp = post(t, app, "/admin/users", adminToken, RegisterRequest{Name: "Operatore", Email: "op@example.it", Password: "segreta123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var op UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&op))
	assert.Equal(t, models.RoleOperator, op.Role)

	resp = post(t, app, "/admin/users", adminToken, RegisterRequest{Name: "Doppio", Email: "op@example.it", Password: "segreta123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	opToken := login(t, app, "op@example.it", "segreta123")
	resp = post(t, app, "/admin/users", opToken, RegisterRequest{Name: "X", Email: "x@example.it", Password: "segreta123"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = post(t, app, "/admin/users", "", RegisterRequest{Name: "X", Email: "x@example.it", Password: "segreta123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = post(t, app, "/admin/users", "garbage", RegisterRequest{Name: "X", Email: "x@example.it", Password: "segreta123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
