// Package testutil provides shared fixtures for the test suites: an isolated
// sqlite database per test and a scriptable AI client stub.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ai-scribe-server/internal/ai"
	"ai-scribe-server/internal/models"
)

// NewTestDB opens a throwaway sqlite database in the test's temp directory
// and migrates the schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// SeedPatient inserts a patient and returns it.
func SeedPatient(t *testing.T, db *gorm.DB, name, businessID string) *models.Patient {
	t.Helper()
	patient := models.Patient{
		Name:        name,
		DateOfBirth: time.Date(1985, 3, 15, 0, 0, 0, 0, time.UTC),
		PatientID:   businessID,
	}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	return &patient
}

// Str returns a pointer to its argument, for filling optional note fields.
func Str(s string) *string {
	return &s
}

// StubAI is a scriptable ai.Client. Unset hooks fail with ErrNotConfigured,
// which matches a deployment with no API key.
type StubAI struct {
	TranscribeFn func(ctx context.Context, audioPath string) (string, error)
	SummaryFn    func(ctx context.Context, text string, noteType models.NoteType) (*ai.SummaryResult, error)
	ProcessFn    func(ctx context.Context, audioPath, existingText string) (*ai.AudioResult, error)

	SummaryCalls int
	ProcessCalls int
}

func (s *StubAI) TranscribeAudio(ctx context.Context, audioPath string) (string, error) {
	if s.TranscribeFn == nil {
		return "", ai.ErrNotConfigured
	}
	return s.TranscribeFn(ctx, audioPath)
}

func (s *StubAI) GenerateSummary(ctx context.Context, text string, noteType models.NoteType) (*ai.SummaryResult, error) {
	s.SummaryCalls++
	if s.SummaryFn == nil {
		return nil, ai.ErrNotConfigured
	}
	return s.SummaryFn(ctx, text, noteType)
}

func (s *StubAI) ProcessAudioNote(ctx context.Context, audioPath, existingText string) (*ai.AudioResult, error) {
	s.ProcessCalls++
	if s.ProcessFn == nil {
		return nil, ai.ErrNotConfigured
	}
	return s.ProcessFn(ctx, audioPath, existingText)
}
