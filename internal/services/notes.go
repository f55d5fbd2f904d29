package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ai-scribe-server/internal/ai"
	"ai-scribe-server/internal/models"
	"ai-scribe-server/internal/storage"
)

// Service-level failures mapped to HTTP statuses by the handlers.
var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrNoteNotFound     = errors.New("note not found")
	ErrAudioNotFound    = errors.New("audio file not found")
	ErrNothingToProcess = errors.New("note already processed or no content to process")
)

// NoteService orchestrates the note lifecycle: audio upload, optional AI
// enrichment and persistence.
type NoteService struct {
	db    *gorm.DB
	store *storage.Store
	ai    ai.Client
	log   *zap.Logger
}

// NewNoteService creates a new NoteService.
func NewNoteService(db *gorm.DB, store *storage.Store, aiClient ai.Client, log *zap.Logger) *NoteService {
	return &NoteService{db: db, store: store, ai: aiClient, log: log}
}

// CreateNoteInput carries the caller-supplied fields for note creation.
// Audio is nil when no file was uploaded.
type CreateNoteInput struct {
	PatientID       string
	RawText         *string
	TranscribedText *string
	AISummary       *string
	SOAPFormat      *models.SOAPFormat
	Audio           io.Reader
	AudioName       string
}

// Create builds and persists a note. The audio file, when present, is stored
// before any AI call so a transcription outage never loses the recording. AI
// enrichment failures degrade to persisting whatever fields are available.
func (s *NoteService) Create(ctx context.Context, in CreateNoteInput) (*models.Note, error) {
	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", in.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("verify patient: %w", err)
	}

	note := models.Note{
		PatientID:       in.PatientID,
		RawText:         in.RawText,
		TranscribedText: in.TranscribedText,
		AISummary:       in.AISummary,
		SOAPFormat:      in.SOAPFormat,
		NoteType:        models.NoteTypeText,
	}

	hasText := in.RawText != nil && *in.RawText != ""

	if in.Audio != nil {
		rel, err := s.store.Store(in.Audio, in.AudioName)
		if err != nil {
			return nil, fmt.Errorf("store audio: %w", err)
		}
		note.AudioFilePath = &rel
		note.NoteType = models.NoteTypeAudio
		if hasText {
			note.NoteType = models.NoteTypeMixed
		}

		// Enrich only when fields are missing; caller-supplied values win.
		if note.TranscribedText == nil || note.AISummary == nil {
			s.enrichFromAudio(ctx, &note)
		}
	} else if hasText && note.AISummary == nil {
		s.enrichFromText(ctx, &note)
	}

	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	note.Patient = &patient
	return &note, nil
}

// enrichFromAudio runs the combined transcribe-and-summarize operation on the
// freshly stored audio. Failures are logged and swallowed: creation proceeds
// with whatever fields are available.
func (s *NoteService) enrichFromAudio(ctx context.Context, note *models.Note) {
	fullPath, err := s.store.FullPath(*note.AudioFilePath)
	if err != nil {
		s.log.Warn("resolving stored audio for enrichment failed", zap.Error(err))
		return
	}

	var contextText string
	if note.RawText != nil {
		contextText = *note.RawText
	}

	result, err := s.ai.ProcessAudioNote(ctx, fullPath, contextText)
	if err != nil {
		s.log.Warn("AI audio processing failed, persisting note without enrichment",
			zap.String("audioFilePath", *note.AudioFilePath), zap.Error(err))
		return
	}

	if note.TranscribedText == nil && result.TranscribedText != "" {
		note.TranscribedText = &result.TranscribedText
	}
	applySummary(note, result.Summary)
}

// enrichFromText summarizes rawText for text-only notes. Failures degrade the
// same way as audio enrichment.
func (s *NoteService) enrichFromText(ctx context.Context, note *models.Note) {
	result, err := s.ai.GenerateSummary(ctx, *note.RawText, models.NoteTypeText)
	if err != nil {
		s.log.Warn("AI summary failed, persisting note without enrichment", zap.Error(err))
		return
	}
	applySummary(note, result)
}

// applySummary copies an AI summary onto the note without overwriting
// caller-supplied values.
func applySummary(note *models.Note, result *ai.SummaryResult) {
	if result == nil {
		return
	}
	if note.AISummary == nil && result.Summary != "" {
		note.AISummary = &result.Summary
	}
	if note.SOAPFormat == nil && result.SOAP != nil {
		note.SOAPFormat = result.SOAP
	}
}

// UpdateNoteInput is a pure partial update: only non-nil fields are written.
type UpdateNoteInput struct {
	RawText         *string
	TranscribedText *string
	AISummary       *string
	NoteType        *models.NoteType
	AudioFilePath   *string
	SOAPFormat      *models.SOAPFormat
}

// Update applies the fields present in the input and leaves the rest
// untouched. No AI invocation happens here.
func (s *NoteService) Update(ctx context.Context, id string, in UpdateNoteInput) (*models.Note, error) {
	var note models.Note
	if err := s.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("load note: %w", err)
	}

	updates := map[string]interface{}{}
	if in.RawText != nil {
		updates["raw_text"] = *in.RawText
	}
	if in.TranscribedText != nil {
		updates["transcribed_text"] = *in.TranscribedText
	}
	if in.AISummary != nil {
		updates["ai_summary"] = *in.AISummary
	}
	if in.NoteType != nil {
		updates["note_type"] = *in.NoteType
	}
	if in.AudioFilePath != nil {
		updates["audio_file_path"] = *in.AudioFilePath
	}
	if in.SOAPFormat != nil {
		updates["soap_format"] = *in.SOAPFormat
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&note).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update note: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Reprocess runs AI enrichment on an existing note. Unlike creation there is
// no degraded fallback: this path exists only to enrich, so its failures are
// reported to the caller.
func (s *NoteService) Reprocess(ctx context.Context, id string) (*models.Note, error) {
	var note models.Note
	if err := s.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("load note: %w", err)
	}

	updates := map[string]interface{}{}

	switch {
	case note.AudioFilePath != nil && note.TranscribedText == nil:
		if !s.store.Exists(*note.AudioFilePath) {
			return nil, ErrAudioNotFound
		}
		fullPath, err := s.store.FullPath(*note.AudioFilePath)
		if err != nil {
			return nil, err
		}
		var contextText string
		if note.RawText != nil {
			contextText = *note.RawText
		}
		result, err := s.ai.ProcessAudioNote(ctx, fullPath, contextText)
		if err != nil {
			return nil, err
		}
		if result.TranscribedText != "" {
			updates["transcribed_text"] = result.TranscribedText
		}
		if result.Summary != nil {
			if result.Summary.Summary != "" {
				updates["ai_summary"] = result.Summary.Summary
			}
			if result.Summary.SOAP != nil {
				updates["soap_format"] = *result.Summary.SOAP
			}
		}

	case note.RawText != nil && *note.RawText != "" && note.AISummary == nil:
		result, err := s.ai.GenerateSummary(ctx, *note.RawText, note.NoteType)
		if err != nil {
			return nil, err
		}
		if result.Summary != "" {
			updates["ai_summary"] = result.Summary
		}
		if result.SOAP != nil {
			updates["soap_format"] = *result.SOAP
		}

	default:
		return nil, ErrNothingToProcess
	}

	// Write back only AI-produced columns so concurrent updates to other
	// fields are never clobbered. Two racing reprocess calls remain
	// last-write-wins, an accepted outcome of this design.
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&note).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("save AI results: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// List returns all notes newest first, each with its patient preloaded.
func (s *NoteService) List(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.WithContext(ctx).Preload("Patient").
		Order("created_at desc").Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Get returns a single note with its patient preloaded.
func (s *NoteService) Get(ctx context.Context, id string) (*models.Note, error) {
	var note models.Note
	err := s.db.WithContext(ctx).Preload("Patient").First(&note, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("load note: %w", err)
	}
	return &note, nil
}

// Delete removes a note. Orphaned audio blobs are accepted.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Note{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
