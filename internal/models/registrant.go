package models

import (
	"gorm.io/datatypes"
)

// RegistrantState is the per-registrant lifecycle position.
type RegistrantState string

const (
	StateNoCredential     RegistrantState = "no_credential"
	StateCredentialIssued RegistrantState = "credential_issued"
	StateValidated        RegistrantState = "validated"
)

// Registrant is a person registered for the event, identified by a stable external id.
type Registrant struct {
	BaseModel
	ExternalID string            `gorm:"size:64;uniqueIndex;not null" json:"external_id"`
	Name       string            `gorm:"size:255;not null;index" json:"name"`
	Email      string            `gorm:"size:320" json:"email"`
	Attributes datatypes.JSONMap `json:"attributes,omitempty"`

	Credential *Credential       `gorm:"foreignKey:RegistrantID;constraint:OnDelete:CASCADE" json:"credential,omitempty"`
	Validation *ValidationRecord `gorm:"foreignKey:RegistrantID;constraint:OnDelete:CASCADE" json:"validation,omitempty"`
}

// State derives the lifecycle state from the loaded associations.
func (r *Registrant) State() RegistrantState {
	switch {
	case r == nil:
		return StateNoCredential
	case r.Validation != nil:
		return StateValidated
	case r.Credential != nil:
		return StateCredentialIssued
	default:
		return StateNoCredential
	}
}

// Identity is the display identity returned to scanning operators.
type Identity struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
}

// Identity returns the operator-facing view of the registrant.
func (r *Registrant) Identity() Identity {
	return Identity{ExternalID: r.ExternalID, Name: r.Name, Email: r.Email}
}
