package models

import "time"

// Credential is the unguessable token issued to one registrant. Rows are never updated;
// reissuing replaces the row.
type Credential struct {
	BaseModel
	RegistrantID  string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"registrant_id"`
	Token         string    `gorm:"size:64;uniqueIndex;not null" json:"token"`
	ImageKey      string    `gorm:"size:255;not null" json:"image_key"`
	ValidationURL string    `gorm:"size:512;not null" json:"validation_url"`
	IssuedAt      time.Time `gorm:"not null" json:"issued_at"`
}
