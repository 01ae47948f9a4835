package models

import "time"

// ValidationRecord marks the single successful validation of a registrant's credential.
// The unique index on RegistrantID is what makes validation one-time.
type ValidationRecord struct {
	BaseModel
	RegistrantID     string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"registrant_id"`
	ValidatedAt      time.Time `gorm:"not null;index" json:"validated_at"`
	ClientDescriptor string    `gorm:"size:512" json:"client_descriptor"`
}
