package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ai-scribe-server/internal/middleware"
	"ai-scribe-server/internal/models"
	"ai-scribe-server/internal/services"
	"ai-scribe-server/internal/storage"
	"ai-scribe-server/internal/utils"
)

// NoteHandler handles note related requests.
type NoteHandler struct {
	Service *services.NoteService
	Store   *storage.Store
	Log     *zap.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(svc *services.NoteService, store *storage.Store, log *zap.Logger) *NoteHandler {
	return &NoteHandler{Service: svc, Store: store, Log: log}
}

// noteResponse pairs a note with the denormalized summary of its patient.
type noteResponse struct {
	models.Note
	Patient models.PatientSummary `json:"patient"`
}

func toNoteResponse(n models.Note) noteResponse {
	resp := noteResponse{Note: n}
	if n.Patient != nil {
		resp.Patient = n.Patient.Summary()
	}
	return resp
}

// noteDetailResponse pairs a note with its full patient record.
type noteDetailResponse struct {
	models.Note
	Patient *models.Patient `json:"patient,omitempty"`
}

// GetNotes handles fetching all notes, newest first.
func (h *NoteHandler) GetNotes(c *gin.Context) {
	notes, err := h.Service.List(c.Request.Context())
	if err != nil {
		h.Log.Error("failed to list notes", zap.Error(err))
		utils.BadRequest(c, "Error retrieving notes")
		return
	}
	if len(notes) == 0 {
		utils.NotFound(c, "Note not found.")
		return
	}

	responses := make([]noteResponse, len(notes))
	for i, n := range notes {
		responses[i] = toNoteResponse(n)
	}
	utils.Success(c, "Notes fetched successfully", responses)
}

// GetNoteByID handles fetching a single note with full patient detail.
func (h *NoteHandler) GetNoteByID(c *gin.Context) {
	note, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found.")
			return
		}
		h.Log.Error("failed to fetch note", zap.String("id", c.Param("id")), zap.Error(err))
		utils.BadRequest(c, "Error retrieving note")
		return
	}
	utils.Success(c, "Note fetched successfully", noteDetailResponse{Note: *note, Patient: note.Patient})
}

// CreateNote handles note creation from a multipart form: text fields plus an
// optional audio upload (already validated by the upload middleware).
func (h *NoteHandler) CreateNote(c *gin.Context) {
	patientID := c.PostForm("patientId")
	if patientID == "" {
		utils.UnprocessableEntity(c, "Patient ID is required")
		return
	}

	input := services.CreateNoteInput{PatientID: patientID}

	if v, ok := c.GetPostForm("rawText"); ok && v != "" {
		input.RawText = &v
	}
	if v, ok := c.GetPostForm("transcribedText"); ok && v != "" {
		input.TranscribedText = &v
	}
	if v, ok := c.GetPostForm("aiSummary"); ok && v != "" {
		input.AISummary = &v
	}
	if v, ok := c.GetPostForm("soapFormat"); ok && v != "" {
		var soap models.SOAPFormat
		if err := json.Unmarshal([]byte(v), &soap); err != nil {
			utils.BadRequest(c, "Invalid soapFormat: must be a JSON object")
			return
		}
		input.SOAPFormat = &soap
	}

	file, hasFile := middleware.GetAudioFileFromContext(c)
	if hasFile {
		src, err := file.Open()
		if err != nil {
			h.Log.Error("failed to open uploaded audio", zap.Error(err))
			utils.InternalServerError(c, "Error reading uploaded file")
			return
		}
		defer src.Close()
		input.Audio = src
		input.AudioName = file.Filename
	}

	if input.RawText == nil && !hasFile {
		utils.UnprocessableEntity(c, "Either rawText or an audio file is required")
		return
	}

	note, err := h.Service.Create(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrPatientNotFound) {
			utils.NotFound(c, "Patient not found")
			return
		}
		h.Log.Error("failed to create note", zap.String("patientId", patientID), zap.Error(err))
		utils.BadRequest(c, "Error creating note")
		return
	}

	utils.Created(c, "Note created successfully", toNoteResponse(*note))
}

// UpdateNoteRequest represents the JSON body for a partial note update.
// Pointer fields distinguish "absent" from "set to empty".
type UpdateNoteRequest struct {
	RawText         *string            `json:"rawText"`
	TranscribedText *string            `json:"transcribedText"`
	AISummary       *string            `json:"aiSummary"`
	NoteType        *models.NoteType   `json:"noteType" binding:"omitempty,oneof=TEXT AUDIO MIXED"`
	AudioFilePath   *string            `json:"audioFilePath"`
	SOAPFormat      *models.SOAPFormat `json:"soapFormat"`
}

// UpdateNote handles a partial update: only fields present in the payload are
// written. No AI invocation happens on this path.
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	var req UpdateNoteRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	note, err := h.Service.Update(c.Request.Context(), c.Param("id"), services.UpdateNoteInput{
		RawText:         req.RawText,
		TranscribedText: req.TranscribedText,
		AISummary:       req.AISummary,
		NoteType:        req.NoteType,
		AudioFilePath:   req.AudioFilePath,
		SOAPFormat:      req.SOAPFormat,
	})
	if err != nil {
		if errors.Is(err, services.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found.")
			return
		}
		h.Log.Error("failed to update note", zap.String("id", c.Param("id")), zap.Error(err))
		utils.BadRequest(c, "Error updating note")
		return
	}

	utils.Success(c, "Note updated successfully", toNoteResponse(*note))
}

// DeleteNote handles deleting a note. Stored audio blobs are left in place.
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	err := h.Service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found.")
			return
		}
		h.Log.Error("failed to delete note", zap.String("id", c.Param("id")), zap.Error(err))
		utils.BadRequest(c, "Error deleting note")
		return
	}
	utils.Success(c, "Note deleted successfully", nil)
}

// UploadAudio handles a standalone audio upload without creating a note.
func (h *NoteHandler) UploadAudio(c *gin.Context) {
	file, ok := middleware.GetAudioFileFromContext(c)
	if !ok {
		utils.BadRequest(c, "No audio file provided")
		return
	}

	src, err := file.Open()
	if err != nil {
		h.Log.Error("failed to open uploaded audio", zap.Error(err))
		utils.InternalServerError(c, "Error reading uploaded file")
		return
	}
	defer src.Close()

	rel, err := h.Store.Store(src, file.Filename)
	if err != nil {
		h.Log.Error("failed to store uploaded audio", zap.Error(err))
		utils.InternalServerError(c, "Error storing uploaded file")
		return
	}

	utils.Success(c, "Audio file uploaded successfully", gin.H{
		"filePath":     rel,
		"originalName": file.Filename,
		"size":         file.Size,
		"mimetype":     file.Header.Get("Content-Type"),
	})
}

// ProcessWithAI handles on-demand AI re-processing of an existing note.
// Failures here are reported, not degraded: enrichment is the whole point.
func (h *NoteHandler) ProcessWithAI(c *gin.Context) {
	note, err := h.Service.Reprocess(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoteNotFound):
			utils.NotFound(c, "Note not found.")
		case errors.Is(err, services.ErrAudioNotFound):
			utils.NotFound(c, "Audio file not found")
		case errors.Is(err, services.ErrNothingToProcess):
			utils.BadRequest(c, "Note already processed or no content to process")
		default:
			h.Log.Error("AI processing failed", zap.String("id", c.Param("id")), zap.Error(err))
			utils.InternalServerError(c, "Error processing note with AI")
		}
		return
	}

	utils.Success(c, "Note processed successfully", toNoteResponse(*note))
}

// ServeAudio streams a stored audio file. Content type follows the file
// extension; byte-range requests are honored.
func (h *NoteHandler) ServeAudio(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	if rel == "" || !h.Store.Exists(rel) {
		utils.NotFound(c, "Audio file not found")
		return
	}

	f, err := h.Store.Open(rel)
	if err != nil {
		h.Log.Error("failed to open stored audio", zap.String("path", rel), zap.Error(err))
		utils.InternalServerError(c, "Error streaming audio file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.Log.Error("failed to stat stored audio", zap.String("path", rel), zap.Error(err))
		utils.InternalServerError(c, "Error streaming audio file")
		return
	}

	c.Header("Content-Type", storage.MIMEType(rel))
	c.Header("Accept-Ranges", "bytes")
	http.ServeContent(c.Writer, c.Request, filepath.Base(rel), info.ModTime(), f)
}
