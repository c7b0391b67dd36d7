package handler

import (
	"time"

	"github.com/sifan077/LinkDesk/internal/app/model"
)

// CreateURLRequest represents the request body for submitting a URL.
type CreateURLRequest struct {
	Name     string `json:"name" form:"name"`
	Original string `json:"original" form:"original"`
	SiteName string `json:"site_name,omitempty" form:"site_name"`
}

// RejectRequest represents the request body for rejecting a URL.
type RejectRequest struct {
	Errors []ErrorMessageRequest `json:"errors"`
}

// ErrorMessageRequest is one rejection reason; ImageURL points at an already hosted image.
type ErrorMessageRequest struct {
	Text         string `json:"text"`
	ImageURL     string `json:"imageUrl,omitempty"`
	ImagePreview string `json:"imagePreview,omitempty"`
}

// DomainOrderRequest represents the request body for reordering domains.
type DomainOrderRequest struct {
	Order []string `json:"order" form:"order"`
}

// URLResponse is the JSON shape of a URL record.
type URLResponse struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Original      string             `json:"original"`
	SiteName      string             `json:"site_name,omitempty"`
	Domain        string             `json:"domain,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	Status        model.Status       `json:"status"`
	ErrorMessages []model.ErrorEntry `json:"errorMessages"`
	Visits        int                `json:"visits"`
	VisitDetails  []model.VisitEntry `json:"visitDetails"`
}

func toURLResponse(rec model.URLRecord, domain string) URLResponse {
	errs := []model.ErrorEntry(rec.ErrorMessages)
	if errs == nil {
		errs = []model.ErrorEntry{}
	}
	visits := []model.VisitEntry(rec.VisitDetails)
	if visits == nil {
		visits = []model.VisitEntry{}
	}
	return URLResponse{
		ID:            rec.ID,
		Name:          rec.Name,
		Original:      rec.Original,
		SiteName:      rec.SiteName,
		Domain:        domain,
		CreatedAt:     rec.CreatedAt,
		Status:        rec.Status,
		ErrorMessages: errs,
		Visits:        rec.Visits,
		VisitDetails:  visits,
	}
}

// SaveThemeRequest names the caller's current palette for the shared collection.
type SaveThemeRequest struct {
	Name string `json:"name" form:"name"`
}

// ApplyThemeRequest carries the palette a user applies. Omitted colors use the default.
type ApplyThemeRequest struct {
	Name string `json:"name"`
	model.Palette
}
