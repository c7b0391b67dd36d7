package service

import (
	"context"
	"strings"
	"sync"

	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/sifan077/LinkDesk/internal/app/repository"
	"github.com/sifan077/LinkDesk/internal/metrics"
	"go.uber.org/zap"
)

// StoreDeps groups the collaborators of a ModerationStore.
type StoreDeps struct {
	Logger   *zap.Logger
	URLs     repository.URLRepository
	Settings repository.SettingRepository
	Clock    Clock
}

// ModerationStore is the console's state manager. It wraps the URL and
// settings repositories with a local read cache that is refreshed after
// every successful mutation.
//
// The mutex only guards the cache memory. Read-modify-write sequences
// (Reject, RemoveError, RecordVisit) carry no version check, so two writers
// on the same record race and the last write wins.
type ModerationStore struct {
	logger   *zap.Logger
	urls     repository.URLRepository
	settings repository.SettingRepository
	clock    Clock

	mu          sync.RWMutex
	records     []*model.URLRecord
	domainOrder []string
	orderLoaded bool
	known       map[string]struct{}
	inflight    int
	lastErr     string
}

// AddURLInput captures data required to submit a URL.
type AddURLInput struct {
	Name     string
	Original string
	SiteName string
}

// NewModerationStore returns an empty store backed by the given repositories.
func NewModerationStore(deps StoreDeps) *ModerationStore {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	s := &ModerationStore{
		logger:   logger,
		urls:     deps.URLs,
		settings: deps.Settings,
		clock:    clock,
	}
	s.Reset()
	return s
}

// Reset drops the cache, the domain order and the last error.
func (s *ModerationStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.domainOrder = nil
	s.orderLoaded = false
	s.known = nil
	s.lastErr = ""
}

// FetchAll reloads every record from the store, replacing the cache, and
// then makes sure the domain order exists.
func (s *ModerationStore) FetchAll(ctx context.Context) ([]model.URLRecord, error) {
	done := s.begin()
	defer done()

	list, err := s.urls.List(ctx)
	if err != nil {
		return nil, s.fail("fetch urls", err)
	}

	records := make([]*model.URLRecord, len(list))
	for i := range list {
		records[i] = list[i].Clone()
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	s.EnsureDomainOrder(ctx)
	return s.URLs(), nil
}

// Add creates a pending record and registers its hostname in the domain order.
func (s *ModerationStore) Add(ctx context.Context, input AddURLInput) (string, error) {
	done := s.begin()
	defer done()

	original := strings.TrimSpace(input.Original)
	if original == "" {
		return "", s.fail("add url", validationErr("original url is required"))
	}

	rec := &model.URLRecord{
		Name:          strings.TrimSpace(input.Name),
		Original:      original,
		SiteName:      strings.TrimSpace(input.SiteName),
		CreatedAt:     s.clock.Now(),
		Status:        model.StatusPending,
		ErrorMessages: model.ErrorEntries{},
		Visits:        0,
		VisitDetails:  model.VisitEntries{},
	}
	if err := s.urls.Create(ctx, rec); err != nil {
		return "", s.fail("add url", err, zap.String("original", original))
	}

	s.mu.Lock()
	s.records = append([]*model.URLRecord{rec.Clone()}, s.records...)
	s.mu.Unlock()

	metrics.URLsSubmittedTotal.Inc()
	s.logger.Info("url submitted", zap.String("id", rec.ID), zap.String("original", original))

	host, ok := Hostname(original)
	if !ok {
		s.logger.Debug("skipping domain order for unparseable url", zap.String("id", rec.ID))
		return rec.ID, nil
	}
	s.registerDomain(ctx, host)
	return rec.ID, nil
}

// Approve marks the record approved and clears its error messages.
func (s *ModerationStore) Approve(ctx context.Context, id string) error {
	done := s.begin()
	defer done()

	status := model.StatusApproved
	cleared := model.ErrorEntries{}
	if err := s.urls.Update(ctx, id, repository.URLUpdate{Status: &status, ErrorMessages: &cleared}); err != nil {
		return s.fail("approve url", err, zap.String("id", id))
	}

	s.mutate(id, func(rec *model.URLRecord) {
		rec.Status = status
		rec.ErrorMessages = model.ErrorEntries{}
	})

	metrics.ModerationDecisionsTotal.WithLabelValues("approve").Inc()
	s.logger.Info("url approved", zap.String("id", id))
	return nil
}

// Reject appends entries to the persisted error messages and marks the
// record rejected. Existing entries keep their position ahead of the new ones.
func (s *ModerationStore) Reject(ctx context.Context, id string, entries []model.ErrorEntry) error {
	done := s.begin()
	defer done()

	if len(entries) == 0 {
		return s.fail("reject url", validationErr("at least one error message is required"), zap.String("id", id))
	}
	for i := range entries {
		if strings.TrimSpace(entries[i].Text) == "" {
			return s.fail("reject url", validationErr("error message %d has no text", i), zap.String("id", id))
		}
	}

	current, err := s.urls.GetByID(ctx, id)
	if err != nil {
		return s.fail("reject url", err, zap.String("id", id))
	}

	combined := make(model.ErrorEntries, 0, len(current.ErrorMessages)+len(entries))
	combined = append(combined, current.ErrorMessages...)
	combined = append(combined, entries...)

	status := model.StatusRejected
	if err := s.urls.Update(ctx, id, repository.URLUpdate{Status: &status, ErrorMessages: &combined}); err != nil {
		return s.fail("reject url", err, zap.String("id", id))
	}

	s.mutate(id, func(rec *model.URLRecord) {
		rec.Status = status
		rec.ErrorMessages = append(model.ErrorEntries{}, combined...)
	})

	metrics.ModerationDecisionsTotal.WithLabelValues("reject").Inc()
	s.logger.Info("url rejected",
		zap.String("id", id),
		zap.Int("new_errors", len(entries)),
		zap.Int("total_errors", len(combined)),
	)
	return nil
}

// RemoveError deletes the persisted error message at index. Removing the last
// message of a rejected record puts it back to pending.
func (s *ModerationStore) RemoveError(ctx context.Context, id string, index int) error {
	done := s.begin()
	defer done()

	current, err := s.urls.GetByID(ctx, id)
	if err != nil {
		return s.fail("remove error", err, zap.String("id", id))
	}
	if index < 0 || index >= len(current.ErrorMessages) {
		return s.fail("remove error",
			validationErr("error index %d out of range [0,%d)", index, len(current.ErrorMessages)),
			zap.String("id", id))
	}

	remaining := make(model.ErrorEntries, 0, len(current.ErrorMessages)-1)
	remaining = append(remaining, current.ErrorMessages[:index]...)
	remaining = append(remaining, current.ErrorMessages[index+1:]...)

	upd := repository.URLUpdate{ErrorMessages: &remaining}
	resetStatus := len(remaining) == 0 && current.Status == model.StatusRejected
	if resetStatus {
		pending := model.StatusPending
		upd.Status = &pending
	}

	if err := s.urls.Update(ctx, id, upd); err != nil {
		return s.fail("remove error", err, zap.String("id", id))
	}

	s.mutate(id, func(rec *model.URLRecord) {
		rec.ErrorMessages = append(model.ErrorEntries{}, remaining...)
		if resetStatus {
			rec.Status = model.StatusPending
		}
	})

	metrics.ModerationDecisionsTotal.WithLabelValues("remove_error").Inc()
	s.logger.Info("error message removed",
		zap.String("id", id),
		zap.Int("index", index),
		zap.Bool("status_reset", resetStatus),
	)
	return nil
}

// Get reads the record from the store and refreshes its cached copy.
func (s *ModerationStore) Get(ctx context.Context, id string) (*model.URLRecord, error) {
	rec, err := s.urls.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("get url", err, zap.String("id", id))
	}

	fresh := rec.Clone()
	s.mutate(id, func(cached *model.URLRecord) { *cached = *fresh })
	return rec, nil
}

// ListByStatus queries the store for records in the given state. The cache
// is not touched.
func (s *ModerationStore) ListByStatus(ctx context.Context, status model.Status) ([]model.URLRecord, error) {
	done := s.begin()
	defer done()

	if !status.Valid() {
		return nil, s.fail("list urls", validationErr("unknown status %q", status))
	}
	list, err := s.urls.ListByStatus(ctx, status)
	if err != nil {
		return nil, s.fail("list urls", err, zap.String("status", string(status)))
	}
	return list, nil
}

// UniqueDomains returns the distinct hostnames of the cached records in
// first-seen order. Unparseable URLs are skipped.
func (s *ModerationStore) UniqueDomains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uniqueDomains(s.records)
}

// URLsByDomain returns the cached records whose hostname equals domain.
func (s *ModerationStore) URLsByDomain(domain string) []model.URLRecord {
	domain = strings.ToLower(strings.TrimSpace(domain))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.URLRecord, 0)
	for _, rec := range s.records {
		if host, ok := Hostname(rec.Original); ok && host == domain {
			out = append(out, *rec.Clone())
		}
	}
	return out
}

// URLs returns a copy of the cached records.
func (s *ModerationStore) URLs() []model.URLRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.URLRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = *rec.Clone()
	}
	return out
}

// URL returns the cached record with the given id.
func (s *ModerationStore) URL(id string) (model.URLRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.ID == id {
			return *rec.Clone(), true
		}
	}
	return model.URLRecord{}, false
}

// Count returns the number of cached records.
func (s *ModerationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Loading reports whether an operation is in flight.
func (s *ModerationStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// LastError returns the message of the most recent failed operation, or ""
// when the last operation succeeded.
func (s *ModerationStore) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *ModerationStore) begin() func() {
	s.mu.Lock()
	s.inflight++
	s.lastErr = ""
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}
}

func (s *ModerationStore) fail(op string, err error, fields ...zap.Field) error {
	err = classify(err)
	wrapped := wrapOp(op, err)
	s.recordError(op, wrapped, fields...)
	return wrapped
}

func (s *ModerationStore) recordError(op string, err error, fields ...zap.Field) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()

	metrics.StoreErrorsTotal.WithLabelValues(strings.ReplaceAll(op, " ", "_")).Inc()
	s.logger.Warn(op+" failed", append(fields, zap.Error(err))...)
}

func (s *ModerationStore) mutate(id string, fn func(*model.URLRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.ID == id {
			fn(rec)
			return
		}
	}
}

func uniqueDomains(records []*model.URLRecord) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, rec := range records {
		host, ok := Hostname(rec.Original)
		if !ok {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	return out
}
