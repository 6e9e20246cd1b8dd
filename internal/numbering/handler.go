package numbering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ddt-backend/internal/audit"
	"ddt-backend/internal/database"
	"ddt-backend/internal/logging"
	"ddt-backend/internal/models"
)

type FormatRequest struct {
	Kind           models.NumberingKind `json:"kind"`
	CustomTemplate string               `json:"custom_template"`
	InitialValue   *int                 `json:"initial_value"`
	Width          *int                 `json:"width"`
}

func (r FormatRequest) toModel() models.NumberingFormat {
	f := DefaultFormat()
	f.Active = false
	f.Kind = r.Kind
	f.CustomTemplate = strings.TrimSpace(r.CustomTemplate)
	if r.InitialValue != nil {
		f.InitialValue = *r.InitialValue
	}
	if r.Width != nil {
		f.Width = *r.Width
	}
	return f
}

type NextNumberResponse struct {
	Number   string                 `json:"number"`
	Year     int                    `json:"year"`
	Month    int                    `json:"month"`
	FormatID uint                   `json:"format_id"`
	Format   models.NumberingFormat `json:"format"`
}

// GET /api/numbering/next?year=2024&month=3
// Preview only: the number is assigned when the record is stored.
func NextNumberHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, month, err := periodParams(c)
		if err != nil {
			return err
		}
		year, month = engine.Period(year, month)

		number, f, err := engine.Next(c.UserContext(), year, month)
		if err != nil {
			logging.FromCtx(c).Error("next number", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Impossibile calcolare il prossimo numero")
		}

		return c.JSON(NextNumberResponse{
			Number:   number,
			Year:     year,
			Month:    month,
			FormatID: f.ID,
			Format:   f,
		})
	}
}

func periodParams(c *fiber.Ctx) (int, int, error) {
	year := c.QueryInt("year", 0)
	month := c.QueryInt("month", 0)
	if year < 0 || year > 9999 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Anno non valido")
	}
	if month < 0 || month > 12 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Mese non valido")
	}
	return year, month, nil
}

// GET /api/numbering/validate?number=2024-0001
func ValidateNumberHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		number := strings.TrimSpace(c.Query("number"))
		if number == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Parametro number obbligatorio")
		}

		available, err := engine.Available(c.UserContext(), number)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Impossibile verificare il numero")
		}
		return c.JSON(fiber.Map{
			"number":    number,
			"available": available,
		})
	}
}

// GET /api/numbering/formats
func ListFormatsHandler(store *GormStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		formats, err := store.List(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Impossibile elencare i formati")
		}
		return c.JSON(formats)
	}
}

// POST /api/numbering/formats
func CreateFormatHandler(store *GormStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body FormatRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo della richiesta non valido")
		}

		f := body.toModel()
		if err := ValidateFormat(f); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := store.Create(c.UserContext(), &f); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Impossibile salvare il formato")
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  audit.EntityNumberingFormat,
			EntityID:    f.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Formato di numerazione %s creato", f.Kind),
			After:       f,
		})
		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

// PUT /api/numbering/formats/:id
func UpdateFormatHandler(store *GormStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID non valido")
		}

		before, err := store.Get(c.UserContext(), uint(id))
		if err != nil {
			return formatError(err)
		}

		var body FormatRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo della richiesta non valido")
		}
		f := before
		if body.Kind != "" {
			f.Kind = body.Kind
		}
		f.CustomTemplate = strings.TrimSpace(body.CustomTemplate)
		if body.InitialValue != nil {
			f.InitialValue = *body.InitialValue
		}
		if body.Width != nil {
			f.Width = *body.Width
		}
		if err := ValidateFormat(f); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := store.Update(c.UserContext(), &f); err != nil {
			return formatError(err)
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  audit.EntityNumberingFormat,
			EntityID:    f.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Formato di numerazione %d aggiornato", f.ID),
			Before:      before,
			After:       f,
		})
		return c.JSON(f)
	}
}

// POST /api/numbering/formats/:id/activate
func ActivateFormatHandler(store *GormStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID non valido")
		}

		f, err := store.Activate(c.UserContext(), uint(id))
		if err != nil {
			return formatError(err)
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  audit.EntityNumberingFormat,
			EntityID:    f.ID,
			Action:      models.AuditActionActivate,
			Description: fmt.Sprintf("Formato di numerazione %s attivato", f.Kind),
			After:       f,
		})
		return c.JSON(f)
	}
}

func formatError(err error) error {
	switch {
	case errors.Is(err, ErrFormatNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Formato di numerazione non trovato")
	case database.IsUniqueViolation(err):
		return fiber.NewError(fiber.StatusConflict, "Esiste già un formato attivo")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Operazione sul formato non riuscita")
	}
}
