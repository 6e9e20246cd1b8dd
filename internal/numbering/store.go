package numbering

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"ddt-backend/internal/database"
	"ddt-backend/internal/models"
)

var ErrFormatNotFound = errors.New("formato di numerazione non trovato")

// DefaultFormat is created on first use when no format is active.
func DefaultFormat() models.NumberingFormat {
	return models.NumberingFormat{
		Kind:         models.NumberingYear,
		InitialValue: 1,
		Width:        4,
		Active:       true,
	}
}

// GormStore reads issued numbers from transport_records and keeps the
// numbering_formats table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LastNumberWithPrefix orders by length first: a sequence that outgrew its
// padding ("2024-10000") sorts after "2024-9999". The substr match keeps the
// prefix case-sensitive on SQLite, whose LIKE folds ASCII case.
func (s *GormStore) LastNumberWithPrefix(ctx context.Context, prefix string) (string, bool, error) {
	var numbers []string
	err := s.db.WithContext(ctx).
		Model(&models.TransportRecord{}).
		Where(`number LIKE ? ESCAPE '\'`, likeEscaper.Replace(prefix)+"%").
		Where("substr(number, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix).
		Order("LENGTH(number) DESC").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", false, err
	}
	if len(numbers) == 0 {
		return "", false, nil
	}
	return numbers[0], true, nil
}

func (s *GormStore) NumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.TransportRecord{}).
		Where("number = ?", number).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ActiveFormat(ctx context.Context) (models.NumberingFormat, error) {
	return s.EnsureDefault(ctx)
}

// EnsureDefault returns the active format, creating DefaultFormat when none is active.
func (s *GormStore) EnsureDefault(ctx context.Context) (models.NumberingFormat, error) {
	var f models.NumberingFormat
	err := s.db.WithContext(ctx).Where("active = ?", true).First(&f).Error
	if err == nil {
		return f, nil
	}
	if !database.IsNotFound(err) {
		return f, err
	}

	f = DefaultFormat()
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		// a concurrent request created it first
		if database.IsUniqueViolation(err) {
			var existing models.NumberingFormat
			if err := s.db.WithContext(ctx).Where("active = ?", true).First(&existing).Error; err != nil {
				return existing, err
			}
			return existing, nil
		}
		return f, err
	}
	return f, nil
}

func (s *GormStore) List(ctx context.Context) ([]models.NumberingFormat, error) {
	var formats []models.NumberingFormat
	err := s.db.WithContext(ctx).Order("id ASC").Find(&formats).Error
	return formats, err
}

func (s *GormStore) Get(ctx context.Context, id uint) (models.NumberingFormat, error) {
	var f models.NumberingFormat
	err := s.db.WithContext(ctx).First(&f, id).Error
	if database.IsNotFound(err) {
		return f, ErrFormatNotFound
	}
	return f, err
}

// Create stores f inactive; activation goes through Activate.
func (s *GormStore) Create(ctx context.Context, f *models.NumberingFormat) error {
	f.ID = 0
	f.Active = false
	return s.db.WithContext(ctx).Create(f).Error
}

// Update rewrites the scheme fields of an existing format, leaving its active flag alone.
func (s *GormStore) Update(ctx context.Context, f *models.NumberingFormat) error {
	res := s.db.WithContext(ctx).
		Model(&models.NumberingFormat{}).
		Where("id = ?", f.ID).
		Updates(map[string]any{
			"kind":            f.Kind,
			"custom_template": f.CustomTemplate,
			"initial_value":   f.InitialValue,
			"width":           f.Width,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFormatNotFound
	}
	return s.db.WithContext(ctx).First(f, f.ID).Error
}

// Activate makes id the only active format. Both flips happen in one
// transaction so readers never see zero or two active formats.
func (s *GormStore) Activate(ctx context.Context, id uint) (models.NumberingFormat, error) {
	var f models.NumberingFormat
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.NumberingFormat{}).
			Where("active = ? AND id <> ?", true, id).
			Update("active", false).Error; err != nil {
			return err
		}
		res := tx.Model(&models.NumberingFormat{}).Where("id = ?", id).Update("active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrFormatNotFound
		}
		return tx.First(&f, id).Error
	})
	return f, err
}
