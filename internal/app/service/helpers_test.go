package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/sifan077/LinkDesk/internal/app/repository"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

// stepClock advances by step on every read so timestamps are strictly increasing.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{
		now:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		step: time.Millisecond,
	}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// flakyURLRepo delegates to an in-memory repository unless an error is set.
type flakyURLRepo struct {
	repository.URLRepository

	createErr error
	getErr    error
	listErr   error
	updateErr error
	appendErr error
}

func (r *flakyURLRepo) Create(ctx context.Context, rec *model.URLRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.URLRepository.Create(ctx, rec)
}

func (r *flakyURLRepo) GetByID(ctx context.Context, id string) (*model.URLRecord, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.URLRepository.GetByID(ctx, id)
}

func (r *flakyURLRepo) List(ctx context.Context) ([]model.URLRecord, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.URLRepository.List(ctx)
}

func (r *flakyURLRepo) Update(ctx context.Context, id string, upd repository.URLUpdate) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.URLRepository.Update(ctx, id, upd)
}

func (r *flakyURLRepo) AppendVisit(ctx context.Context, id string, entry model.VisitEntry, visits int) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	return r.URLRepository.AppendVisit(ctx, id, entry, visits)
}

// flakySettingRepo delegates to an in-memory repository unless an error is set.
type flakySettingRepo struct {
	repository.SettingRepository

	getErr  error
	saveErr error
	saves   int
}

func (r *flakySettingRepo) GetDomainOrder(ctx context.Context) ([]string, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.SettingRepository.GetDomainOrder(ctx)
}

func (r *flakySettingRepo) SaveDomainOrder(ctx context.Context, order []string) error {
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.SettingRepository.SaveDomainOrder(ctx, order)
}

type testEnv struct {
	store    *ModerationStore
	urls     *flakyURLRepo
	settings *flakySettingRepo
	memURLs  *repository.MemoryURLRepository
	memOrder *repository.MemorySettingRepository
	clock    *stepClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	memURLs := repository.NewMemoryURLRepository()
	memOrder := repository.NewMemorySettingRepository()
	env := &testEnv{
		urls:     &flakyURLRepo{URLRepository: memURLs},
		settings: &flakySettingRepo{SettingRepository: memOrder},
		memURLs:  memURLs,
		memOrder: memOrder,
		clock:    newStepClock(),
	}
	env.store = NewModerationStore(StoreDeps{
		Logger:   zap.NewNop(),
		URLs:     env.urls,
		Settings: env.settings,
		Clock:    env.clock,
	})
	return env
}

// seed writes a record straight into the backing repository.
func (e *testEnv) seed(t *testing.T, rec model.URLRecord) string {
	t.Helper()
	if rec.Status == "" {
		rec.Status = model.StatusPending
	}
	if err := e.memURLs.Create(context.Background(), &rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return rec.ID
}
