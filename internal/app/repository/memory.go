package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sifan077/LinkDesk/internal/app/model"
)

// MemoryURLRepository provides thread-safe in-memory URL storage.
// Records are listed newest first.
type MemoryURLRepository struct {
	mu    sync.RWMutex
	data  map[string]*model.URLRecord
	order []string
}

// NewMemoryURLRepository creates an empty in-memory URL repository.
func NewMemoryURLRepository() *MemoryURLRepository {
	return &MemoryURLRepository{
		data: make(map[string]*model.URLRecord),
	}
}

func (r *MemoryURLRepository) Create(ctx context.Context, rec *model.URLRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ErrorMessages == nil {
		rec.ErrorMessages = model.ErrorEntries{}
	}
	if rec.VisitDetails == nil {
		rec.VisitDetails = model.VisitEntries{}
	}
	if _, exists := r.data[rec.ID]; !exists {
		r.order = append([]string{rec.ID}, r.order...)
	}
	r.data[rec.ID] = rec.Clone()
	return nil
}

func (r *MemoryURLRepository) GetByID(ctx context.Context, id string) (*model.URLRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.data[id]
	if !ok {
		return nil, ErrURLNotFound
	}
	return rec.Clone(), nil
}

func (r *MemoryURLRepository) List(ctx context.Context) ([]model.URLRecord, error) {
	return r.filter(ctx, func(*model.URLRecord) bool { return true })
}

func (r *MemoryURLRepository) ListByStatus(ctx context.Context, status model.Status) ([]model.URLRecord, error) {
	return r.filter(ctx, func(rec *model.URLRecord) bool { return rec.Status == status })
}

func (r *MemoryURLRepository) filter(ctx context.Context, keep func(*model.URLRecord) bool) ([]model.URLRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.URLRecord, 0, len(r.order))
	for _, id := range r.order {
		rec := r.data[id]
		if keep(rec) {
			out = append(out, *rec.Clone())
		}
	}
	return out, nil
}

func (r *MemoryURLRepository) Update(ctx context.Context, id string, upd URLUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.data[id]
	if !ok {
		return ErrURLNotFound
	}
	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.ErrorMessages != nil {
		rec.ErrorMessages = append(model.ErrorEntries{}, (*upd.ErrorMessages)...)
	}
	return nil
}

func (r *MemoryURLRepository) AppendVisit(ctx context.Context, id string, entry model.VisitEntry, visits int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.data[id]
	if !ok {
		return ErrURLNotFound
	}
	rec.Visits = visits
	rec.VisitDetails = append(rec.VisitDetails, entry)
	return nil
}

// MemorySettingRepository keeps settings documents in memory.
type MemorySettingRepository struct {
	mu    sync.RWMutex
	order []string
	saved bool
}

// NewMemorySettingRepository creates a settings repository with no documents.
func NewMemorySettingRepository() *MemorySettingRepository {
	return &MemorySettingRepository{}
}

func (r *MemorySettingRepository) GetDomainOrder(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.saved {
		return nil, ErrSettingNotFound
	}
	return append([]string(nil), r.order...), nil
}

func (r *MemorySettingRepository) SaveDomainOrder(ctx context.Context, order []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = append([]string(nil), order...)
	r.saved = true
	return nil
}

// MemoryThemeRepository keeps themes and user preferences in memory.
type MemoryThemeRepository struct {
	mu     sync.RWMutex
	themes []model.Theme
	prefs  map[string]model.UserTheme
}

// NewMemoryThemeRepository creates an empty theme repository.
func NewMemoryThemeRepository() *MemoryThemeRepository {
	return &MemoryThemeRepository{prefs: make(map[string]model.UserTheme)}
}

func (r *MemoryThemeRepository) ListThemes(ctx context.Context) ([]model.Theme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.Theme(nil), r.themes...), nil
}

func (r *MemoryThemeRepository) CreateTheme(ctx context.Context, theme *model.Theme) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if theme.ID == "" {
		theme.ID = uuid.New().String()
	}
	r.themes = append(r.themes, *theme)
	return nil
}

func (r *MemoryThemeRepository) GetUserTheme(ctx context.Context, email string) (*model.UserTheme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pref, ok := r.prefs[email]
	if !ok {
		return nil, ErrThemeNotFound
	}
	return &pref, nil
}

func (r *MemoryThemeRepository) SaveUserTheme(ctx context.Context, pref *model.UserTheme) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs[pref.UserEmail] = *pref
	return nil
}
