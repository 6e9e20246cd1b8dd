package numbering

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddt-backend/internal/database"
	"ddt-backend/internal/models"
)

func setupHandlers(t *testing.T) (*fiber.App, *GormStore) {
	t.Helper()
	store, db := openStore(t)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	seedRecords(t, db, "2024-0041")
	engine := NewEngine(store, nil, time.UTC)
	engine.now = func() time.Time { return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC) }

	app := fiber.New()
	app.Get("/next", NextNumberHandler(engine))
	app.Get("/validate", ValidateNumberHandler(engine))
	app.Get("/formats", ListFormatsHandler(store))
	app.Post("/formats", CreateFormatHandler(store))
	app.Put("/formats/:id", UpdateFormatHandler(store))
	app.Post("/formats/:id/activate", ActivateFormatHandler(store))
	return app, store
}

func do(t *testing.T, app *fiber.App, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestNextNumberHandler(t *testing.T) {
	app, _ := setupHandlers(t)

	var next NextNumberResponse
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/next?year=2024&month=3", nil, &next))
	assert.Equal(t, "2024-0042", next.Number)
	assert.Equal(t, 3, next.Month)
	assert.True(t, next.Format.Active)

	// defaults to the current period, preview does not consume the number
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/next", nil, &next))
	assert.Equal(t, "2024-0042", next.Number)
	assert.Equal(t, 6, next.Month)

	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodGet, "/next?month=13", nil, nil))
}

func TestValidateNumberHandler(t *testing.T) {
	app, _ := setupHandlers(t)

	var out struct {
		Number    string `json:"number"`
		Available bool   `json:"available"`
	}
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/validate?number=2024-0041", nil, &out))
	assert.False(t, out.Available)
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/validate?number=2024-0042", nil, &out))
	assert.True(t, out.Available)
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodGet, "/validate", nil, nil))
}

func TestFormatLifecycle(t *testing.T) {
	app, store := setupHandlers(t)

	status := do(t, app, http.MethodPost, "/formats", map[string]any{"kind": "custom", "custom_template": "DDT-{anno}"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var created models.NumberingFormat
	status = do(t, app, http.MethodPost, "/formats", map[string]any{
		"kind": "custom", "custom_template": "DDT/{anno}/{numero}", "width": 3,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.False(t, created.Active)
	assert.Equal(t, 1, created.InitialValue)

	var activated models.NumberingFormat
	require.Equal(t, http.StatusOK, do(t, app, http.MethodPost, "/formats/"+itoa(created.ID)+"/activate", nil, &activated))
	assert.True(t, activated.Active)

	var next NextNumberResponse
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/next?year=2024&month=3", nil, &next))
	assert.Equal(t, "DDT/2024/001", next.Number)

	var updated models.NumberingFormat
	require.Equal(t, http.StatusOK, do(t, app, http.MethodPut, "/formats/"+itoa(created.ID), map[string]any{
		"custom_template": "DDT/{anno}/{numero}", "initial_value": 50,
	}, &updated))
	assert.Equal(t, 50, updated.InitialValue)
	assert.Equal(t, models.NumberingCustom, updated.Kind)

	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodPut, "/formats/999", map[string]any{"kind": "num"}, nil))
	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodPost, "/formats/999/activate", nil, nil))

	var formats []models.NumberingFormat
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/formats", nil, &formats))
	active := 0
	for _, f := range formats {
		if f.Active {
			active++
		}
	}
	assert.Equal(t, 1, active)

	got, err := store.ActiveFormat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
