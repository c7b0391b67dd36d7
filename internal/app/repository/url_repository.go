package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sifan077/LinkDesk/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrURLNotFound signals that the requested URL record does not exist.
	ErrURLNotFound = errors.New("url not found")
)

// URLUpdate is a partial field set merged into an existing record.
// Nil fields are left untouched.
type URLUpdate struct {
	Status        *model.Status
	ErrorMessages *model.ErrorEntries
}

// URLRepository defines the data access contract for submitted URLs.
type URLRepository interface {
	Create(ctx context.Context, rec *model.URLRecord) error
	GetByID(ctx context.Context, id string) (*model.URLRecord, error)
	List(ctx context.Context) ([]model.URLRecord, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.URLRecord, error)
	Update(ctx context.Context, id string, upd URLUpdate) error
	// AppendVisit appends entry to the visit log and writes the visit
	// counter in a single statement.
	AppendVisit(ctx context.Context, id string, entry model.VisitEntry, visits int) error
}

type urlRepository struct {
	db *gorm.DB
}

// NewURLRepository returns a GORM-backed URLRepository.
func NewURLRepository(db *gorm.DB) URLRepository {
	return &urlRepository{db: db}
}

func (r *urlRepository) Create(ctx context.Context, rec *model.URLRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ErrorMessages == nil {
		rec.ErrorMessages = model.ErrorEntries{}
	}
	if rec.VisitDetails == nil {
		rec.VisitDetails = model.VisitEntries{}
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return err
	}
	return nil
}

func (r *urlRepository) GetByID(ctx context.Context, id string) (*model.URLRecord, error) {
	var rec model.URLRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrURLNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *urlRepository) List(ctx context.Context) ([]model.URLRecord, error) {
	var result []model.URLRecord
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *urlRepository) ListByStatus(ctx context.Context, status model.Status) ([]model.URLRecord, error) {
	var result []model.URLRecord
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *urlRepository) Update(ctx context.Context, id string, upd URLUpdate) error {
	fields := map[string]interface{}{}
	if upd.Status != nil {
		fields["status"] = *upd.Status
	}
	if upd.ErrorMessages != nil {
		fields["error_messages"] = *upd.ErrorMessages
	}
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.URLRecord{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrURLNotFound
	}
	return nil
}

func (r *urlRepository) AppendVisit(ctx context.Context, id string, entry model.VisitEntry, visits int) error {
	data, err := json.Marshal([]model.VisitEntry{entry})
	if err != nil {
		return fmt.Errorf("marshal visit: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&model.URLRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"visits":        visits,
			"visit_details": gorm.Expr("COALESCE(visit_details, '[]'::jsonb) || ?::jsonb", string(data)),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrURLNotFound
	}
	return nil
}
