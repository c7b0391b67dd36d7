package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	URLsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkdesk_urls_submitted_total",
		Help: "URL records created through the console.",
	})

	ModerationDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkdesk_moderation_decisions_total",
		Help: "Approve, reject and error-removal operations that reached the store.",
	}, []string{"decision"})

	VisitsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkdesk_visits_recorded_total",
		Help: "Visit entries appended to URL records.",
	})

	VisitEventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkdesk_visit_events_published_total",
		Help: "Visit events published by the public redirect.",
	}, []string{"result"})

	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkdesk_store_errors_total",
		Help: "Failed console operations by operation name.",
	}, []string{"op"})

	ImageUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkdesk_image_uploads_total",
		Help: "Images sent to the image host.",
	}, []string{"result"})

	DomainOrderSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkdesk_domain_order_size",
		Help: "Number of hostnames in the cached domain order.",
	})
)
