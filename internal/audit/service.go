package audit

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ddt-backend/internal/auth"
	"ddt-backend/internal/database"
	"ddt-backend/internal/logging"
	"ddt-backend/internal/models"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Entity types written by the handlers
const (
	EntityTransportRecord = "transport_record"
	EntityNumberingFormat = "numbering_format"
	EntitySender          = "sender"
	EntityRecipient       = "recipient"
	EntityCarrier         = "carrier"
	EntityArticle         = "article"
	EntityReason          = "transport_reason"
	EntityUser            = "user"
)

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func WriteLog(opts LogOptions) error {
	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("impossibile salvare il registro attività: %w", err)
	}
	return nil
}

// Record fills the actor from the request and writes the entry. Audit failures
// never fail the request that caused them.
func Record(c *fiber.Ctx, opts LogOptions) {
	opts.UserID, opts.UserName = auth.Actor(c)
	if err := WriteLog(opts); err != nil {
		logging.FromCtx(c).Warn("audit log not written", zap.Error(err))
	}
}
