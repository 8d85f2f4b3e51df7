package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nadlan/internal/cache"
	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
)

// numericSettings must hold decimal values; calculators read them as defaults.
var numericSettings = map[string]bool{
	models.SettingExchangeRate:       true,
	models.SettingVATRate:            true,
	models.SettingMortgageRateIsrael: true,
	models.SettingMortgageRateCyprus: true,
}

// settingService handles the key/value settings store.
type settingService struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewSettingService creates a new SettingServicer. store may be nil.
func NewSettingService(db *gorm.DB, store *cache.Store) SettingServicer {
	return &settingService{db: db, cache: store}
}

// ListSettings returns every setting ordered by key.
func (s *settingService) ListSettings() ([]models.Setting, error) {
	ctx := context.Background()
	var settings []models.Setting
	if s.cache.Get(ctx, cache.KeySettingsAll, &settings) {
		return settings, nil
	}

	if err := s.db.Order("key ASC").Find(&settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if settings == nil {
		settings = []models.Setting{}
	}
	s.cache.Set(ctx, cache.KeySettingsAll, settings)
	return settings, nil
}

// GetSetting returns one setting by key.
func (s *settingService) GetSetting(key string) (*models.Setting, error) {
	ctx := context.Background()
	var setting models.Setting
	if s.cache.Get(ctx, cache.SettingKey(key), &setting) {
		return &setting, nil
	}

	if err := s.db.Where(map[string]interface{}{"key": key}).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSettingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	s.cache.Set(ctx, cache.SettingKey(key), setting)
	return &setting, nil
}

// UpdateSetting inserts the key or overwrites its value. The description is
// only changed when one is supplied.
func (s *settingService) UpdateSetting(key, value string, description *string) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return nil, apperrors.Invalid("key", "is required")
	}
	if value == "" {
		return nil, apperrors.Invalid("value", "is required")
	}
	if numericSettings[key] {
		if _, err := decimal.NewFromString(value); err != nil {
			return nil, apperrors.Invalid("value", "must be a number")
		}
	}

	setting := models.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	columns := []string{"value", "updated_at"}
	if description != nil {
		setting.Description = *description
		columns = append(columns, "description")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).Create(&setting).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where(map[string]interface{}{"key": key}).First(&setting).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(context.Background(), cache.KeySettingsAll, cache.SettingKey(key))
	return &setting, nil
}

// settingDecimal reads a numeric setting, returning fallback when the key is
// missing or unparsable.
func settingDecimal(db *gorm.DB, key string, fallback decimal.Decimal) decimal.Decimal {
	var setting models.Setting
	if err := db.Where(map[string]interface{}{"key": key}).First(&setting).Error; err != nil {
		return fallback
	}
	d, err := decimal.NewFromString(setting.Value)
	if err != nil {
		return fallback
	}
	return d
}
