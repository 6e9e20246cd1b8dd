package registry

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ddt-backend/internal/audit"
	"ddt-backend/internal/database"
	"ddt-backend/internal/logging"
	"ddt-backend/internal/models"
)

// resource describes one master-data table served by the generic handlers.
type resource[T any] struct {
	entity  string // audit entity type
	label   string // Italian name used in messages
	order   string
	preload []string

	id       func(*T) uint
	setID    func(*T, uint)
	validate func(*T) error

	// child resources only: the parent id comes from the :id route param
	parentColumn string
	newParent    func() any
	setParent    func(*T, uint)

	// optional ?q= filter
	search func(db *gorm.DB, q string) *gorm.DB
}

func (r resource[T]) scope(c *fiber.Ctx) (*gorm.DB, error) {
	db := database.DB.WithContext(c.UserContext())
	if r.parentColumn == "" {
		return db, nil
	}
	parentID, err := c.ParamsInt("id")
	if err != nil || parentID <= 0 {
		return nil, badRequest("ID non valido")
	}
	return db.Where(r.parentColumn+" = ?", parentID), nil
}

func (r resource[T]) parentID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, badRequest("ID non valido")
	}
	if err := database.DB.WithContext(c.UserContext()).First(r.newParent(), id).Error; err != nil {
		if database.IsNotFound(err) {
			return 0, fiber.NewError(fiber.StatusNotFound, "Elemento padre non trovato")
		}
		return 0, fiber.NewError(fiber.StatusInternalServerError, "Errore del database")
	}
	return uint(id), nil
}

// itemParam is "child_id" for child routes, "id" otherwise.
func (r resource[T]) itemParam() string {
	if r.parentColumn != "" {
		return "child_id"
	}
	return "id"
}

func (r resource[T]) find(c *fiber.Ctx, preload bool) (*T, error) {
	id, err := c.ParamsInt(r.itemParam())
	if err != nil || id <= 0 {
		return nil, badRequest("ID non valido")
	}
	db, err := r.scope(c)
	if err != nil {
		return nil, err
	}
	if preload {
		for _, p := range r.preload {
			db = db.Preload(p)
		}
	}
	var item T
	if err := db.First(&item, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, fiber.NewError(fiber.StatusNotFound, r.label+" non trovato")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Errore del database")
	}
	return &item, nil
}

func (r resource[T]) writeError(c *fiber.Ctx, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return fiber.NewError(fiber.StatusConflict, r.label+" già esistente")
	case database.IsForeignKeyViolation(err):
		return fiber.NewError(fiber.StatusConflict, r.label+" è utilizzato da altri documenti")
	default:
		logging.FromCtx(c).Error("registry write", zap.String("entity", r.entity), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Impossibile salvare "+r.label)
	}
}

func (r resource[T]) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db, err := r.scope(c)
		if err != nil {
			return err
		}
		if r.search != nil {
			if q := c.Query("q"); q != "" {
				db = r.search(db, q)
			}
		}
		for _, p := range r.preload {
			db = db.Preload(p)
		}
		items := make([]T, 0)
		if err := db.Order(r.order).Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Impossibile elencare "+r.label)
		}
		return c.JSON(items)
	}
}

func (r resource[T]) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := r.find(c, true)
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

func (r resource[T]) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var item T
		if err := c.BodyParser(&item); err != nil {
			return badRequest("Corpo della richiesta non valido")
		}
		r.setID(&item, 0)
		if r.setParent != nil {
			parentID, err := r.parentID(c)
			if err != nil {
				return err
			}
			r.setParent(&item, parentID)
		}
		if err := r.validate(&item); err != nil {
			return err
		}

		if err := database.DB.WithContext(c.UserContext()).Omit(clause.Associations).Create(&item).Error; err != nil {
			return r.writeError(c, err)
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  r.entity,
			EntityID:    r.id(&item),
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("%s %d creato", r.label, r.id(&item)),
			After:       item,
		})
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

func (r resource[T]) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		existing, err := r.find(c, false)
		if err != nil {
			return err
		}
		before := *existing
		id := r.id(existing)

		item := *existing
		if err := c.BodyParser(&item); err != nil {
			return badRequest("Corpo della richiesta non valido")
		}
		r.setID(&item, id)
		if r.setParent != nil {
			parentID, _ := c.ParamsInt("id")
			r.setParent(&item, uint(parentID))
		}
		if err := r.validate(&item); err != nil {
			return err
		}

		if err := database.DB.WithContext(c.UserContext()).Omit(clause.Associations).Save(&item).Error; err != nil {
			return r.writeError(c, err)
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  r.entity,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%s %d aggiornato", r.label, id),
			Before:      before,
			After:       item,
		})
		return c.JSON(item)
	}
}

// Delete refuses with 409 while transport records still reference the row.
func (r resource[T]) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := r.find(c, false)
		if err != nil {
			return err
		}
		id := r.id(item)

		if err := database.DB.WithContext(c.UserContext()).Delete(item).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return fiber.NewError(fiber.StatusConflict, r.label+" è utilizzato da documenti di trasporto e non può essere eliminato")
			}
			return r.writeError(c, err)
		}

		audit.Record(c, audit.LogOptions{
			EntityType:  r.entity,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("%s %d eliminato", r.label, id),
			Before:      item,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
