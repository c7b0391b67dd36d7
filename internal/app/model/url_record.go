package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the moderation state of a submitted URL.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known moderation states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// URLRecord describes a user-submitted URL stored in Postgres.
type URLRecord struct {
	ID            string       `json:"id" gorm:"primaryKey;size:36"`
	Name          string       `json:"name" gorm:"size:255;not null"`
	Original      string       `json:"original" gorm:"type:text;not null"`
	SiteName      string       `json:"site_name,omitempty" gorm:"size:255"`
	CreatedAt     time.Time    `json:"createdAt" gorm:"not null"`
	Status        Status       `json:"status" gorm:"size:16;not null;default:pending;index"`
	ErrorMessages ErrorEntries `json:"errorMessages" gorm:"type:jsonb;not null;default:'[]'"`
	Visits        int          `json:"visits" gorm:"not null;default:0"`
	VisitDetails  VisitEntries `json:"visitDetails" gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName keeps the collection name used by the console.
func (URLRecord) TableName() string { return "urls" }

// Clone returns a deep copy so cached records never share slices with callers.
func (r *URLRecord) Clone() *URLRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.ErrorMessages = append(ErrorEntries(nil), r.ErrorMessages...)
	c.VisitDetails = append(VisitEntries(nil), r.VisitDetails...)
	if c.ErrorMessages == nil {
		c.ErrorMessages = ErrorEntries{}
	}
	if c.VisitDetails == nil {
		c.VisitDetails = VisitEntries{}
	}
	return &c
}

// ErrorEntry is one rejection reason attached to a URL.
type ErrorEntry struct {
	Text         string    `json:"text"`
	ImageURL     *string   `json:"imageUrl"`
	ImagePreview *string   `json:"imagePreview,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ErrorEntries is persisted as a JSONB array.
type ErrorEntries []ErrorEntry

func (e ErrorEntries) Value() (driver.Value, error) {
	if e == nil {
		e = ErrorEntries{}
	}
	return marshalColumn(e)
}

func (e *ErrorEntries) Scan(src any) error {
	return scanColumn(src, e)
}

// VisitEntries is persisted as a JSONB array.
type VisitEntries []VisitEntry

func (v VisitEntries) Value() (driver.Value, error) {
	if v == nil {
		v = VisitEntries{}
	}
	return marshalColumn(v)
}

func (v *VisitEntries) Scan(src any) error {
	return scanColumn(src, v)
}

func marshalColumn(v any) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func scanColumn(src any, dst any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("model: unsupported column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
