package repository

import (
	"context"
	"errors"

	"github.com/sifan077/LinkDesk/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrSettingNotFound signals that a settings document has not been written yet.
	ErrSettingNotFound = errors.New("setting not found")
)

// SettingRepository stores the singleton documents of the settings collection.
type SettingRepository interface {
	GetDomainOrder(ctx context.Context) ([]string, error)
	SaveDomainOrder(ctx context.Context, order []string) error
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository returns a GORM-backed SettingRepository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) GetDomainOrder(ctx context.Context) ([]string, error) {
	var s model.Setting
	if err := r.db.WithContext(ctx).Where("id = ?", model.DomainOrderKey).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return []string(s.Order), nil
}

func (r *settingRepository) SaveDomainOrder(ctx context.Context, order []string) error {
	s := model.Setting{ID: model.DomainOrderKey, Order: model.DomainOrder(order)}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"domain_order"}),
		}).
		Create(&s).Error
}
