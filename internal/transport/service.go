// Package transport stores transport documents (DDT) and serves them as PDF.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ddt-backend/internal/database"
	"ddt-backend/internal/ddtpdf"
	"ddt-backend/internal/metrics"
	"ddt-backend/internal/models"
	"ddt-backend/internal/numbering"
)

var (
	ErrNotFound = errors.New("documento di trasporto non trovato")
	// ErrNumberTaken: the document number is already assigned to another record.
	ErrNumberTaken = errors.New("numero documento già utilizzato")
	// ErrInvalidReference wraps every dangling or mismatched master-data id.
	ErrInvalidReference = errors.New("riferimento non valido")
)

// Relations loaded for rendering
var fullPreload = []string{
	"Sender", "SenderSite", "SenderSite.Sender",
	"Recipient", "Destination", "Reason",
	"Carrier", "Plate", "SecondPlate", "Driver",
	"Items", "Items.Article",
}

// Associations never written through the record itself
var recordAssociations = []string{
	"Sender", "SenderSite", "Recipient", "Destination", "Reason",
	"Carrier", "Plate", "SecondPlate", "Driver", "Items",
}

type Service struct {
	db         *gorm.DB
	engine     *numbering.Engine
	logger     *zap.Logger
	maxRetries int
}

func NewService(db *gorm.DB, engine *numbering.Engine, logger *zap.Logger, maxRetries int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Service{db: db, engine: engine, logger: logger, maxRetries: maxRetries}
}

// Today is the current date in the numbering time zone.
func (s *Service) Today() time.Time {
	return s.engine.Today()
}

// Create stores rec with its line items. A blank number is taken from the
// numbering engine for the document date's period; when a concurrent insert
// wins that number the engine is asked again, up to maxRetries attempts.
func (s *Service) Create(ctx context.Context, rec *models.TransportRecord) error {
	if err := s.prepare(ctx, rec); err != nil {
		return err
	}

	if rec.Number != "" {
		err := s.insert(ctx, rec)
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrNumberTaken, rec.Number)
		}
		return err
	}

	year, month := rec.DocumentDate.Year(), int(rec.DocumentDate.Month())
	for attempt := 1; ; attempt++ {
		number, f, err := s.engine.Next(ctx, year, month)
		if err != nil {
			return fmt.Errorf("numerazione: %w", err)
		}
		rec.Number = number

		err = s.insert(ctx, rec)
		if err == nil {
			metrics.NumbersIssued.WithLabelValues(string(f.Kind)).Inc()
			return nil
		}
		if !database.IsUniqueViolation(err) {
			rec.Number = ""
			return err
		}

		metrics.NumberConflicts.Inc()
		s.logger.Warn("document number taken by a concurrent insert",
			zap.String("number", number),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", s.maxRetries),
		)
		resetIDs(rec)
		rec.Number = ""
		if attempt >= s.maxRetries {
			return fmt.Errorf("%w: %s dopo %d tentativi", ErrNumberTaken, number, attempt)
		}
	}
}

func resetIDs(rec *models.TransportRecord) {
	rec.ID = 0
	for i := range rec.Items {
		rec.Items[i].ID = 0
		rec.Items[i].TransportRecordID = 0
	}
}

func (s *Service) insert(ctx context.Context, rec *models.TransportRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(recordAssociations...).Create(rec).Error; err != nil {
			return err
		}
		return createItems(tx, rec)
	})
}

func createItems(tx *gorm.DB, rec *models.TransportRecord) error {
	if len(rec.Items) == 0 {
		return nil
	}
	for i := range rec.Items {
		rec.Items[i].ID = 0
		rec.Items[i].TransportRecordID = rec.ID
	}
	return tx.Omit("Article").Create(&rec.Items).Error
}

// Update replaces the stored record id, line items included. A blank number
// keeps the current one.
func (s *Service) Update(ctx context.Context, id uint, rec *models.TransportRecord) (*models.TransportRecord, error) {
	before, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Number == "" {
		rec.Number = before.Number
	}
	if err := s.prepare(ctx, rec); err != nil {
		return nil, err
	}
	rec.ID = id
	rec.CreatedAt = before.CreatedAt

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("*").Omit(recordAssociations...).Save(rec).Error; err != nil {
			return err
		}
		if err := tx.Where("transport_record_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		return createItems(tx, rec)
	})
	if database.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", ErrNumberTaken, rec.Number)
	}
	if err != nil {
		return nil, err
	}
	return before, nil
}

// Delete removes the record and its line items, returning what was removed.
func (s *Service) Delete(ctx context.Context, id uint) (*models.TransportRecord, error) {
	rec, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transport_record_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.TransportRecord{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Load returns the record with every relation the renderer reads.
func (s *Service) Load(ctx context.Context, id uint) (*models.TransportRecord, error) {
	db := s.db.WithContext(ctx)
	for _, p := range fullPreload {
		db = db.Preload(p)
	}
	var rec models.TransportRecord
	if err := db.First(&rec, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

type ListFilter struct {
	Number string // substring match
	From   time.Time
	To     time.Time
	Limit  int
}

// List returns records newest document date first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.TransportRecord, error) {
	db := s.db.WithContext(ctx).
		Preload("Sender").Preload("Recipient").Preload("Reason").Preload("Items")
	if f.Number != "" {
		db = db.Where("number LIKE ?", "%"+f.Number+"%")
	}
	if !f.From.IsZero() {
		db = db.Where("document_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		db = db.Where("document_date <= ?", f.To)
	}
	if f.Limit > 0 {
		db = db.Limit(f.Limit)
	}

	records := make([]models.TransportRecord, 0)
	err := db.Order("document_date DESC").Order("id DESC").Find(&records).Error
	return records, err
}

// prepare checks the master-data references and fills the defaults derived
// from them.
func (s *Service) prepare(ctx context.Context, rec *models.TransportRecord) error {
	db := s.db.WithContext(ctx)

	if err := exists(db, &models.Sender{}, "mittente", "id = ?", rec.SenderID); err != nil {
		return err
	}
	if rec.SenderSiteID != nil {
		if err := exists(db, &models.SenderSite{}, "sede del mittente", "id = ? AND sender_id = ?", *rec.SenderSiteID, rec.SenderID); err != nil {
			return err
		}
	}
	if err := exists(db, &models.Recipient{}, "destinatario", "id = ?", rec.RecipientID); err != nil {
		return err
	}
	var dest models.Destination
	if err := db.Where("id = ? AND recipient_id = ?", rec.DestinationID, rec.RecipientID).First(&dest).Error; err != nil {
		return referenceError(err, "destinazione")
	}
	if err := exists(db, &models.TransportReason{}, "causale", "id = ?", rec.ReasonID); err != nil {
		return err
	}

	if rec.CarrierID != nil {
		carrierID := *rec.CarrierID
		if err := exists(db, &models.Carrier{}, "vettore", "id = ?", carrierID); err != nil {
			return err
		}
		for _, plate := range []*uint{rec.PlateID, rec.SecondPlateID} {
			if plate == nil {
				continue
			}
			if err := exists(db, &models.VehiclePlate{}, "targa", "id = ? AND carrier_id = ?", *plate, carrierID); err != nil {
				return err
			}
		}
		if rec.DriverID != nil {
			if err := exists(db, &models.Driver{}, "autista", "id = ? AND carrier_id = ?", *rec.DriverID, carrierID); err != nil {
				return err
			}
		}
	}

	for _, it := range rec.Items {
		if err := exists(db, &models.Article{}, "articolo", "id = ?", it.ArticleID); err != nil {
			return err
		}
	}

	if rec.DestinationPlace == "" {
		rec.DestinationPlace = ddtpdf.DestinationPlace(&dest)
	}
	return nil
}

func exists(db *gorm.DB, model any, label, query string, args ...any) error {
	err := db.Model(model).Select("id").Where(query, args...).Take(model).Error
	return referenceError(err, label)
}

func referenceError(err error, label string) error {
	if err == nil {
		return nil
	}
	if database.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrInvalidReference, label)
	}
	return err
}
