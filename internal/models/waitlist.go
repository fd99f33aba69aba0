package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WaitlistEntry mirrors one accepted CSV row. The CSV file stays the system
// of record, so email is indexed but not unique.
type WaitlistEntry struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id"`
	FullName    string    `gorm:"not null" json:"full_name"`
	Email       string    `gorm:"not null;index" json:"email"`
	CountryCode string    `json:"country_code"`
	Phone       string    `gorm:"not null" json:"phone"`
	Country     string    `json:"country"`
	Interests   string    `gorm:"type:text" json:"interests"`
	SubmittedAt string    `gorm:"not null" json:"submitted_at"`
	IPAddress   string    `json:"ip_address"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (e *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
