package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// NoteType reflects which input channels contributed to a note.
type NoteType string

const (
	NoteTypeText  NoteType = "TEXT"
	NoteTypeAudio NoteType = "AUDIO"
	NoteTypeMixed NoteType = "MIXED"
)

// SOAPFormat is the structured Subjective/Objective/Assessment/Plan breakdown
// of a clinical note. Stored as a JSON column.
type SOAPFormat struct {
	Subjective string `json:"subjective,omitempty"`
	Objective  string `json:"objective,omitempty"`
	Assessment string `json:"assessment,omitempty"`
	Plan       string `json:"plan,omitempty"`
}

// Value implements driver.Valuer so gorm can persist the struct as JSON.
func (s SOAPFormat) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for reading the JSON column back.
func (s *SOAPFormat) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for SOAPFormat: %T", value)
	}
}

// Note represents a clinical note belonging to exactly one patient.
// Optional fields are pointers so that a partial update can distinguish
// "absent" from "set to empty".
type Note struct {
	BaseModel
	PatientID       string      `gorm:"size:36;index;not null" json:"patientId"`
	RawText         *string     `gorm:"type:text" json:"rawText,omitempty"`
	TranscribedText *string     `gorm:"type:text" json:"transcribedText,omitempty"`
	AISummary       *string     `gorm:"type:text" json:"aiSummary,omitempty"`
	NoteType        NoteType    `gorm:"size:10;default:'TEXT'" json:"noteType"`
	AudioFilePath   *string     `gorm:"size:512" json:"audioFilePath,omitempty"` // relative path into the upload store
	SOAPFormat      *SOAPFormat `gorm:"type:json" json:"soapFormat,omitempty"`

	// Relations (not always preloaded)
	Patient *Patient `gorm:"belongsTo;foreignKey:PatientID;references:ID" json:"-"`
}
