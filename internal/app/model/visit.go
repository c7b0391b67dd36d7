package model

// Geo placeholders recorded when the visitor location is unknown.
const (
	UnknownGeo = "Unknown"
	UnknownIP  = "0.0.0.0"
)

// VisitEntry is one recorded visit of a URL.
type VisitEntry struct {
	Timestamp string `json:"timestamp"`

	UserAgent  string `json:"userAgent,omitempty"`
	Referrer   string `json:"referrer,omitempty"`
	ScreenSize string `json:"screenSize,omitempty"`

	Country   string   `json:"country,omitempty"`
	Region    string   `json:"region,omitempty"`
	City      string   `json:"city,omitempty"`
	IP        string   `json:"ip,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	ISP       string   `json:"isp,omitempty"`

	Email            string `json:"email,omitempty"`
	ConsentTimestamp string `json:"consentTimestamp,omitempty"`
	AcceptedTerms    *bool  `json:"acceptedTerms,omitempty"`

	BrowserInfo map[string]any `json:"browserInfo,omitempty"`
}

// VisitorInfo carries the optional metadata a client reports with a visit.
type VisitorInfo struct {
	UserAgent  string `json:"userAgent,omitempty"`
	Referrer   string `json:"referrer,omitempty"`
	ScreenSize string `json:"screenSize,omitempty"`

	Country   string   `json:"country,omitempty"`
	Region    string   `json:"region,omitempty"`
	City      string   `json:"city,omitempty"`
	IP        string   `json:"ip,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	ISP       string   `json:"isp,omitempty"`

	Email            string `json:"email,omitempty"`
	ConsentTimestamp string `json:"consentTimestamp,omitempty"`
	AcceptedTerms    *bool  `json:"acceptedTerms,omitempty"`

	BrowserInfo map[string]any `json:"browserInfo,omitempty"`
}

// VisitEvent is published on the visit stream by the public redirect.
type VisitEvent struct {
	ID      string       `json:"id"`
	URLID   string       `json:"url_id"`
	Visitor *VisitorInfo `json:"visitor,omitempty"`
}

const (
	VisitStreamName     = "VISITS"
	VisitStreamSubject  = "visits.events"
	VisitConsumerName   = "visit-recorder"
	VisitStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
