package models

import (
	"time"
)

// Patient represents a patient in the clinic registry.
type Patient struct {
	BaseModel
	Name        string    `gorm:"size:255;not null" json:"name"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	PatientID   string    `gorm:"uniqueIndex;size:50;not null" json:"patientId"` // business identifier, e.g. "PAT-001"
	Phone       string    `gorm:"size:50" json:"phone,omitempty"`
	Email       string    `gorm:"size:255" json:"email,omitempty"`
	Address     string    `gorm:"size:500" json:"address,omitempty"`

	// Relations (not always preloaded)
	Notes []Note `gorm:"foreignKey:PatientID" json:"notes,omitempty"`
}

// PatientSummary is the denormalized patient projection embedded in note responses.
type PatientSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PatientID   string    `json:"patientId"`
	DateOfBirth time.Time `json:"dateOfBirth"`
}

// Summary creates a PatientSummary from a Patient model.
func (p *Patient) Summary() PatientSummary {
	return PatientSummary{
		ID:          p.ID,
		Name:        p.Name,
		PatientID:   p.PatientID,
		DateOfBirth: p.DateOfBirth,
	}
}

// NoteDigest is the slimmed note projection embedded in patient list responses.
type NoteDigest struct {
	ID        string    `json:"id"`
	NoteType  NoteType  `json:"noteType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Digest creates a NoteDigest from a Note model.
func (n *Note) Digest() NoteDigest {
	return NoteDigest{
		ID:        n.ID,
		NoteType:  n.NoteType,
		CreatedAt: n.CreatedAt,
	}
}
