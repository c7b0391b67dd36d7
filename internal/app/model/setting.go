package model

import "database/sql/driver"

// DomainOrderKey identifies the singleton domain order row in settings.
const DomainOrderKey = "domainOrder"

// Setting is a singleton document of the settings collection.
type Setting struct {
	ID    string      `gorm:"primaryKey;size:64"`
	Order DomainOrder `gorm:"column:domain_order;type:jsonb;not null;default:'[]'"`
}

func (Setting) TableName() string { return "settings" }

// DomainOrder is the ordered list of hostnames shown by the console.
type DomainOrder []string

func (o DomainOrder) Value() (driver.Value, error) {
	if o == nil {
		o = DomainOrder{}
	}
	return marshalColumn(o)
}

func (o *DomainOrder) Scan(src any) error {
	return scanColumn(src, o)
}
