package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ai-scribe-server/internal/models"
)

// ErrDuplicatePatientID is returned when the business patient identifier is
// already taken.
var ErrDuplicatePatientID = errors.New("patient ID already exists")

// PatientService is plain CRUD over patient records.
type PatientService struct {
	db *gorm.DB
}

// NewPatientService creates a new PatientService.
func NewPatientService(db *gorm.DB) *PatientService {
	return &PatientService{db: db}
}

// PatientInput carries the full field set for create and replace.
type PatientInput struct {
	Name        string
	DateOfBirth time.Time
	PatientID   string
	Phone       string
	Email       string
	Address     string
}

// List returns all patients newest first with their notes preloaded.
func (s *PatientService) List(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	err := s.db.WithContext(ctx).Preload("Notes").
		Order("created_at desc").Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// Get returns a patient with notes ordered newest first.
func (s *PatientService) Get(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	err := s.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc")
		}).
		First(&patient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return &patient, nil
}

// Create persists a new patient. The business patientId must be unique.
func (s *PatientService) Create(ctx context.Context, in PatientInput) (*models.Patient, error) {
	var existing models.Patient
	err := s.db.WithContext(ctx).First(&existing, "patient_id = ?", in.PatientID).Error
	if err == nil {
		return nil, ErrDuplicatePatientID
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check patient id: %w", err)
	}

	patient := models.Patient{
		Name:        in.Name,
		DateOfBirth: in.DateOfBirth,
		PatientID:   in.PatientID,
		Phone:       in.Phone,
		Email:       in.Email,
		Address:     in.Address,
	}
	if err := s.db.WithContext(ctx).Create(&patient).Error; err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return &patient, nil
}

// Update is a full-field replace.
func (s *PatientService) Update(ctx context.Context, id string, in PatientInput) (*models.Patient, error) {
	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	patient.Name = in.Name
	patient.DateOfBirth = in.DateOfBirth
	patient.PatientID = in.PatientID
	patient.Phone = in.Phone
	patient.Email = in.Email
	patient.Address = in.Address

	if err := s.db.WithContext(ctx).Save(&patient).Error; err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return &patient, nil
}

// Delete removes a patient. What happens to notes referencing it is a
// database concern (no cascade specified here).
func (s *PatientService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Patient{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPatientNotFound
	}
	return nil
}
