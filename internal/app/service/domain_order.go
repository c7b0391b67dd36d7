package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sifan077/LinkDesk/internal/app/repository"
	"github.com/sifan077/LinkDesk/internal/metrics"
	"go.uber.org/zap"
)

// EnsureDomainOrder loads the persisted domain order. When the document does
// not exist yet it is rebuilt from the cached records and written back. When
// the read itself fails the rebuilt order is only kept in memory.
func (s *ModerationStore) EnsureDomainOrder(ctx context.Context) []string {
	order, err := s.settings.GetDomainOrder(ctx)
	switch {
	case err == nil:
		s.setDomainOrder(sanitizeDomainOrder(order), true)

	case errors.Is(err, repository.ErrSettingNotFound):
		fallback := s.UniqueDomains()
		if len(fallback) > 0 {
			if err := s.settings.SaveDomainOrder(ctx, fallback); err != nil {
				s.recordError("save domain order", wrapOp("save domain order", classify(err)))
				s.setDomainOrder(fallback, false)
				return s.DomainOrder()
			}
			s.logger.Info("domain order initialized", zap.Int("domains", len(fallback)))
		}
		s.setDomainOrder(fallback, true)

	default:
		s.recordError("load domain order", wrapOp("load domain order", classify(err)))
		s.setDomainOrder(s.UniqueDomains(), false)
	}

	return s.DomainOrder()
}

// SaveDomainOrder replaces the domain order. Empty entries and duplicates are
// dropped first; an order left empty by that is rejected and the previous one
// is kept.
func (s *ModerationStore) SaveDomainOrder(ctx context.Context, order []string) error {
	done := s.begin()
	defer done()
	return s.saveDomainOrder(ctx, order)
}

// DomainOrder returns a copy of the cached domain order.
func (s *ModerationStore) DomainOrder() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.domainOrder...)
}

func (s *ModerationStore) saveDomainOrder(ctx context.Context, order []string) error {
	clean := sanitizeDomainOrder(order)
	if len(clean) == 0 {
		return s.fail("save domain order", validationErr("domain order is empty"))
	}

	if err := s.settings.SaveDomainOrder(ctx, clean); err != nil {
		return s.fail("save domain order", err, zap.Int("domains", len(clean)))
	}

	s.setDomainOrder(clean, true)
	s.logger.Debug("domain order saved", zap.Int("domains", len(clean)))
	return nil
}

// registerDomain prepends host to the domain order when it is not there yet.
func (s *ModerationStore) registerDomain(ctx context.Context, host string) {
	s.mu.RLock()
	loaded := s.orderLoaded
	s.mu.RUnlock()

	if !loaded {
		s.EnsureDomainOrder(ctx)
		s.mu.RLock()
		loaded = s.orderLoaded
		s.mu.RUnlock()
		if !loaded {
			s.logger.Warn("domain order unavailable, skipping registration", zap.String("domain", host))
			return
		}
	}

	if s.knowsDomain(host) {
		return
	}

	order := append([]string{host}, s.DomainOrder()...)
	if err := s.saveDomainOrder(ctx, order); err != nil {
		return
	}
	s.logger.Info("domain registered", zap.String("domain", host))
}

func (s *ModerationStore) knowsDomain(host string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.known[host]
	return ok
}

func (s *ModerationStore) setDomainOrder(order []string, loaded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.domainOrder = append([]string(nil), order...)
	s.orderLoaded = loaded
	s.known = make(map[string]struct{}, len(s.domainOrder))
	for _, d := range s.domainOrder {
		s.known[d] = struct{}{}
	}
	metrics.DomainOrderSize.Set(float64(len(s.domainOrder)))
}

func sanitizeDomainOrder(order []string) []string {
	seen := make(map[string]struct{}, len(order))
	out := make([]string, 0, len(order))
	for _, d := range order {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
