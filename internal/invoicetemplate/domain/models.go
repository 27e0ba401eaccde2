package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Template is a named invoice snapshot. Saving under an existing name
// replaces the snapshot but keeps the original position in the list.
type Template struct {
	Name      string         `gorm:"primaryKey;type:varchar(255)" json:"name"`
	Snapshot  datatypes.JSON `gorm:"not null" json:"snapshot"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Template) TableName() string { return "invoice_templates" }
