package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-scribe-server/internal/services"
	"ai-scribe-server/internal/testutil"
)

func TestCreatePatientDuplicateBusinessID(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewPatientService(db)

	original, err := svc.Create(context.Background(), services.PatientInput{
		Name:        "Sarah Johnson",
		DateOfBirth: time.Date(1985, 3, 15, 0, 0, 0, 0, time.UTC),
		PatientID:   "PAT-001",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), services.PatientInput{
		Name:        "Someone Else",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		PatientID:   "PAT-001",
	})
	assert.ErrorIs(t, err, services.ErrDuplicatePatientID)

	// pre-existing patient is unmodified
	reloaded, err := svc.Get(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", reloaded.Name)
}

func TestUpdatePatientFullReplace(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewPatientService(db)
	patient := testutil.SeedPatient(t, db, "Sarah Johnson", "PAT-001")

	updated, err := svc.Update(context.Background(), patient.ID, services.PatientInput{
		Name:        "Sarah Johnson-Smith",
		DateOfBirth: patient.DateOfBirth,
		PatientID:   "PAT-001",
		Phone:       "+1-555-0123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson-Smith", updated.Name)
	assert.Equal(t, "+1-555-0123", updated.Phone)
	// replace semantics: fields absent from the input go back to zero
	assert.Empty(t, updated.Email)
}

func TestUpdatePatientNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewPatientService(db)

	_, err := svc.Update(context.Background(), "no-such-id", services.PatientInput{
		Name:        "X Y",
		DateOfBirth: time.Now(),
		PatientID:   "PAT-404",
	})
	assert.ErrorIs(t, err, services.ErrPatientNotFound)
}

func TestDeletePatient(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewPatientService(db)
	patient := testutil.SeedPatient(t, db, "Sarah Johnson", "PAT-001")

	require.NoError(t, svc.Delete(context.Background(), patient.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), patient.ID), services.ErrPatientNotFound)
}

func TestGetPatientNotesNewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewPatientService(db)
	patient := testutil.SeedPatient(t, db, "Michael Chen", "PAT-002")

	for i, text := range []string{"older", "newer"} {
		note := map[string]interface{}{
			"id":         time.Now().Format("150405.000") + text,
			"patient_id": patient.ID,
			"raw_text":   text,
			"note_type":  "TEXT",
			"created_at": time.Now().Add(time.Duration(i) * time.Minute),
			"updated_at": time.Now(),
		}
		require.NoError(t, db.Table("notes").Create(note).Error)
	}

	loaded, err := svc.Get(context.Background(), patient.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Notes, 2)
	assert.Equal(t, "newer", *loaded.Notes[0].RawText)
}
