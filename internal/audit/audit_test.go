package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddt-backend/internal/auth"
	"ddt-backend/internal/database"
	"ddt-backend/internal/models"
)

func openDB(t *testing.T) {
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
}

func TestRecord_UsesRequestActor(t *testing.T) {
	openDB(t)

	app := fiber.New()
	app.Post("/things", func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(4))
		c.Locals(auth.CtxUserNameKey, "Giulia")
		Record(c, LogOptions{
			EntityType:  EntityArticle,
			EntityID:    9,
			Action:      models.AuditActionCreate,
			Description: "Articolo 9 creato",
			After:       map[string]string{"name": "Fieno"},
		})
		return c.SendStatus(fiber.StatusCreated)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/things", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	var entry models.AuditLog
	require.NoError(t, database.DB.First(&entry).Error)
	assert.Equal(t, uint(4), entry.UserID)
	assert.Equal(t, "Giulia", entry.UserName)
	assert.Equal(t, "null", entry.BeforeData)
	assert.JSONEq(t, `{"name":"Fieno"}`, entry.AfterData)
}

func TestListAuditLogsHandler_Filters(t *testing.T) {
	openDB(t)
	for i, opts := range []LogOptions{
		{UserID: 1, EntityType: EntityTransportRecord, EntityID: 1, Action: models.AuditActionCreate},
		{UserID: 1, EntityType: EntityTransportRecord, EntityID: 1, Action: models.AuditActionUpdate},
		{UserID: 2, EntityType: EntitySender, EntityID: 3, Action: models.AuditActionDelete},
	} {
		opts.Description = "voce " + string(rune('a'+i))
		require.NoError(t, WriteLog(opts))
	}

	app := fiber.New()
	app.Get("/audit-logs", ListAuditLogsHandler())

	get := func(query string) []AuditLogResponse {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/audit-logs"+query, nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []AuditLogResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	all := get("")
	require.Len(t, all, 3)
	assert.Equal(t, "voce c", all[0].Description, "newest first")

	records := get("?entity_type=transport_record&entity_id=1")
	require.Len(t, records, 2)
	assert.Equal(t, models.AuditActionUpdate, records[0].Action)

	assert.Len(t, get("?user_id=2"), 1)
	assert.Len(t, get("?limit=1"), 1)
}
