package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sifan077/LinkDesk/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrThemeNotFound signals that a user has no saved theme preference.
	ErrThemeNotFound = errors.New("theme not found")
)

// ThemeRepository stores shared themes and per-user preferences.
type ThemeRepository interface {
	ListThemes(ctx context.Context) ([]model.Theme, error)
	CreateTheme(ctx context.Context, theme *model.Theme) error
	GetUserTheme(ctx context.Context, email string) (*model.UserTheme, error)
	SaveUserTheme(ctx context.Context, pref *model.UserTheme) error
}

type themeRepository struct {
	db *gorm.DB
}

// NewThemeRepository returns a GORM-backed ThemeRepository.
func NewThemeRepository(db *gorm.DB) ThemeRepository {
	return &themeRepository{db: db}
}

func (r *themeRepository) ListThemes(ctx context.Context) ([]model.Theme, error) {
	var themes []model.Theme
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&themes).Error; err != nil {
		return nil, err
	}
	return themes, nil
}

func (r *themeRepository) CreateTheme(ctx context.Context, theme *model.Theme) error {
	if theme.ID == "" {
		theme.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(theme).Error
}

func (r *themeRepository) GetUserTheme(ctx context.Context, email string) (*model.UserTheme, error) {
	var pref model.UserTheme
	if err := r.db.WithContext(ctx).Where("user_email = ?", email).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThemeNotFound
		}
		return nil, err
	}
	return &pref, nil
}

func (r *themeRepository) SaveUserTheme(ctx context.Context, pref *model.UserTheme) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_email"}},
			UpdateAll: true,
		}).
		Create(pref).Error
}
