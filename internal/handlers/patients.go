package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-scribe-server/internal/models"
	"ai-scribe-server/internal/services"
	"ai-scribe-server/internal/utils"
)

// PatientHandler handles patient related requests.
type PatientHandler struct {
	Service *services.PatientService
	Log     *zap.Logger
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(svc *services.PatientService, log *zap.Logger) *PatientHandler {
	return &PatientHandler{Service: svc, Log: log}
}

// PatientRequest represents the request body for creating or replacing a patient.
type PatientRequest struct {
	Name        string `json:"name" binding:"required,min=2"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
	PatientID   string `json:"patientId" binding:"required"`
	Phone       string `json:"phone" binding:"omitempty"`
	Email       string `json:"email" binding:"omitempty,email"`
	Address     string `json:"address" binding:"omitempty"`
}

// parseDateOfBirth accepts RFC 3339 timestamps and plain dates.
func parseDateOfBirth(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

type patientListEntry struct {
	models.Patient
	Notes []models.NoteDigest `json:"notes"`
}

// GetPatients handles fetching all patients, newest first, each with a digest
// of its notes.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	patients, err := h.Service.List(c.Request.Context())
	if err != nil {
		h.Log.Error("failed to list patients", zap.Error(err))
		utils.BadRequest(c, "Error retrieving patients")
		return
	}
	if len(patients) == 0 {
		utils.NotFound(c, "Patient not found.")
		return
	}

	entries := make([]patientListEntry, len(patients))
	for i, p := range patients {
		digests := make([]models.NoteDigest, len(p.Notes))
		for j, n := range p.Notes {
			digests[j] = n.Digest()
		}
		p.Notes = nil
		entries[i] = patientListEntry{Patient: p, Notes: digests}
	}

	utils.Success(c, "Patients fetched successfully", entries)
}

// GetPatientByID handles fetching a single patient with its notes.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patient, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			utils.NotFound(c, "Patient not found.")
			return
		}
		h.Log.Error("failed to fetch patient", zap.String("id", c.Param("id")), zap.Error(err))
		utils.BadRequest(c, "Error retrieving patient")
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// CreatePatient handles creating a new patient.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req PatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dob, err := parseDateOfBirth(req.DateOfBirth)
	if err != nil {
		utils.BadRequest(c, "Invalid date format")
		return
	}

	patient, err := h.Service.Create(c.Request.Context(), services.PatientInput{
		Name:        req.Name,
		DateOfBirth: dob,
		PatientID:   req.PatientID,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicatePatientID) {
			utils.Conflict(c, "Patient ID already exists")
			return
		}
		h.Log.Error("failed to create patient", zap.Error(err))
		utils.BadRequest(c, "Error creating patient")
		return
	}

	utils.Created(c, "Patient created successfully", patient)
}

// UpdatePatient handles a full-field replace of an existing patient.
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var req PatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dob, err := parseDateOfBirth(req.DateOfBirth)
	if err != nil {
		utils.BadRequest(c, "Invalid date format")
		return
	}

	patient, err := h.Service.Update(c.Request.Context(), c.Param("id"), services.PatientInput{
		Name:        req.Name,
		DateOfBirth: dob,
		PatientID:   req.PatientID,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
	})
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			utils.NotFound(c, "Patient not found.")
			return
		}
		h.Log.Error("failed to update patient", zap.String("id", c.Param("id")), zap.Error(err))
		utils.BadRequest(c, "Error updating patient")
		return
	}

	utils.Success(c, "Patient updated successfully", patient)
}

// DeletePatient handles deleting a patient.
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	err := h.Service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			utils.NotFound(c, "Patient not found.")
			return
		}
		h.Log.Error("failed to delete patient", zap.String("id", c.Param("id")), zap.Error(err))
		utils.BadRequest(c, "Error deleting patient")
		return
	}
	utils.Success(c, "Patient deleted successfully", nil)
}
