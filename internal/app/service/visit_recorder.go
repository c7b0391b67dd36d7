package service

import (
	"context"
	"time"

	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/sifan077/LinkDesk/internal/metrics"
	"go.uber.org/zap"
)

// RecordVisit appends a visit entry to the record and bumps its counter.
// The prior count is read first; the append and the new count are then
// written in one update. A missing record is reported as ErrNotFound and is
// never created.
func (s *ModerationStore) RecordVisit(ctx context.Context, id string, info *model.VisitorInfo) error {
	done := s.begin()
	defer done()

	current, err := s.urls.GetByID(ctx, id)
	if err != nil {
		return s.fail("record visit", err, zap.String("id", id))
	}

	entry := buildVisitEntry(s.clock.Now(), info)
	visits := current.Visits + 1

	if err := s.urls.AppendVisit(ctx, id, entry, visits); err != nil {
		return s.fail("record visit", err, zap.String("id", id))
	}

	s.mutate(id, func(rec *model.URLRecord) {
		rec.Visits = visits
		rec.VisitDetails = append(rec.VisitDetails, entry)
	})

	metrics.VisitsRecordedTotal.Inc()
	s.logger.Debug("visit recorded", zap.String("id", id), zap.Int("visits", visits))
	return nil
}

// buildVisitEntry turns the optional visitor metadata into a stored entry.
// Without metadata the entry only carries its timestamp.
func buildVisitEntry(now time.Time, info *model.VisitorInfo) model.VisitEntry {
	entry := model.VisitEntry{Timestamp: now.UTC().Format(time.RFC3339Nano)}
	if info == nil {
		return entry
	}

	entry.Country = orDefault(info.Country, model.UnknownGeo)
	entry.Region = orDefault(info.Region, model.UnknownGeo)
	entry.City = orDefault(info.City, model.UnknownGeo)
	entry.IP = orDefault(info.IP, model.UnknownIP)

	entry.UserAgent = info.UserAgent
	entry.Referrer = info.Referrer
	entry.ScreenSize = info.ScreenSize
	entry.Latitude = info.Latitude
	entry.Longitude = info.Longitude
	entry.ISP = info.ISP
	entry.Email = info.Email
	entry.ConsentTimestamp = info.ConsentTimestamp
	entry.AcceptedTerms = info.AcceptedTerms
	entry.BrowserInfo = SanitizeMap(info.BrowserInfo)
	return entry
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
