package transport

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ddt-backend/internal/archive"
	"ddt-backend/internal/audit"
	"ddt-backend/internal/ddtpdf"
	"ddt-backend/internal/logging"
	"ddt-backend/internal/metrics"
	"ddt-backend/internal/models"
)

// RecordResponse adds the computed values to the stored record.
type RecordResponse struct {
	models.TransportRecord
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	TotalValue       decimal.Decimal `json:"total_value"`
	UsesCentralNotes bool            `json:"uses_central_notes"`
}

func toResponse(rec *models.TransportRecord) RecordResponse {
	return RecordResponse{
		TransportRecord:  *rec,
		TotalQuantity:    rec.TotalQuantity(),
		TotalValue:       rec.TotalValue(),
		UsesCentralNotes: rec.UsesCentralNotes(),
	}
}

func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Documento di trasporto non trovato")
	case errors.Is(err, ErrNumberTaken):
		return fiber.NewError(fiber.StatusConflict, "Numero DDT già utilizzato")
	case errors.Is(err, ErrInvalidReference):
		return fiber.NewError(fiber.StatusBadRequest, strings.ToUpper(err.Error()[:1])+err.Error()[1:])
	default:
		logging.FromCtx(c).Error("transport record", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Errore del database")
	}
}

func recordID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, badRequest("ID non valido")
	}
	return uint(id), nil
}

// GET /api/ddt?q=2024&from=2024-01-01&to=2024-12-31&limit=50
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := ListFilter{
			Number: strings.TrimSpace(c.Query("q")),
			Limit:  c.QueryInt("limit", 200),
		}
		if filter.Limit > 1000 {
			filter.Limit = 1000
		}
		for param, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
			if v := c.Query(param); v != "" {
				t, ok := parseDate(v, time.Time{})
				if !ok {
					return badRequest("Data non valida: " + param)
				}
				*dst = t
			}
		}

		records, err := svc.List(c.UserContext(), filter)
		if err != nil {
			return serviceError(c, err)
		}
		out := make([]RecordResponse, 0, len(records))
		for i := range records {
			out = append(out, toResponse(&records[i]))
		}
		return c.JSON(out)
	}
}

func GetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := recordID(c)
		if err != nil {
			return err
		}
		rec, err := svc.Load(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(toResponse(rec))
	}
}

// POST /api/ddt
// A blank number is assigned by the active numbering format.
func CreateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RecordRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest("Corpo della richiesta non valido")
		}
		rec, err := req.toRecord(svc.Today())
		if err != nil {
			return err
		}

		if err := svc.Create(c.UserContext(), rec); err != nil {
			return serviceError(c, err)
		}
		saved, err := svc.Load(c.UserContext(), rec.ID)
		if err != nil {
			return serviceError(c, err)
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  audit.EntityTransportRecord,
			EntityID:    saved.ID,
			Action:      models.AuditActionCreate,
			Description: "DDT " + saved.Number + " creato",
			After:       saved,
		})
		return c.Status(fiber.StatusCreated).JSON(toResponse(saved))
	}
}

// PUT /api/ddt/:id
// Line items in the body replace the stored ones.
func UpdateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := recordID(c)
		if err != nil {
			return err
		}
		var req RecordRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest("Corpo della richiesta non valido")
		}
		rec, err := req.toRecord(svc.Today())
		if err != nil {
			return err
		}

		before, err := svc.Update(c.UserContext(), id, rec)
		if err != nil {
			return serviceError(c, err)
		}
		after, err := svc.Load(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  audit.EntityTransportRecord,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: "DDT " + after.Number + " aggiornato",
			Before:      before,
			After:       after,
		})
		return c.JSON(toResponse(after))
	}
}

func DeleteHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := recordID(c)
		if err != nil {
			return err
		}
		removed, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  audit.EntityTransportRecord,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: "DDT " + removed.Number + " eliminato",
			Before:      removed,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type PDFOptions struct {
	Renderer *ddtpdf.Renderer
	Archive  archive.Archiver
	// OutputDir, when set, receives a copy of every rendered document.
	OutputDir string
}

// GET /api/ddt/:id/pdf
// Copy and archive failures are logged, the download is still served.
func PDFHandler(svc *Service, opts PDFOptions) fiber.Handler {
	if opts.Archive == nil {
		opts.Archive = archive.Nop{}
	}
	return func(c *fiber.Ctx) error {
		id, err := recordID(c)
		if err != nil {
			return err
		}
		rec, err := svc.Load(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		log := logging.FromCtx(c).With(zap.Uint("record_id", rec.ID), zap.String("number", rec.Number))

		start := time.Now()
		pdf, err := opts.Renderer.RenderBytes(rec)
		metrics.RecordRender(err, time.Since(start))
		if err != nil {
			log.Error("pdf render failed", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Errore nella generazione del PDF")
		}

		name := ddtpdf.AttachmentName(rec.Number)
		if opts.OutputDir != "" {
			if err := ddtpdf.WriteFile(filepath.Join(opts.OutputDir, name), pdf); err != nil {
				log.Warn("pdf copy not written", zap.String("dir", opts.OutputDir), zap.Error(err))
			}
		}
		if _, err := opts.Archive.Store(c.UserContext(), name, rec.DocumentDate, pdf); err != nil {
			log.Warn("pdf not archived", zap.Error(err))
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
		return c.Send(pdf)
	}
}

// Register mounts the transport-record routes on api.
func Register(api fiber.Router, svc *Service, pdf PDFOptions) {
	api.Get("/ddt", ListHandler(svc))
	api.Post("/ddt", CreateHandler(svc))
	api.Get("/ddt/:id", GetHandler(svc))
	api.Put("/ddt/:id", UpdateHandler(svc))
	api.Delete("/ddt/:id", DeleteHandler(svc))
	api.Get("/ddt/:id/pdf", PDFHandler(svc, pdf))
}
