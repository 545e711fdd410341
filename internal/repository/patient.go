package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/careline-io/careline/pkg/careline/core"
)

// PatientRepository is the tag store and mark store collaborator used by
// the add_tag, remove_tag and mark_change step handlers. Every statement
// is tenant-parameterized.
type PatientRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewPatientRepository(db *sql.DB, clock core.Clock) *PatientRepository {
	return &PatientRepository{db: db, clock: clock}
}

// AddTag attaches a tag to a patient. Adding an already-present tag is a
// no-op rather than an error.
func (r *PatientRepository) AddTag(ctx context.Context, tenantID string, patientID string, tagID int64) error {
	// delete-then-insert keeps the upsert portable across all three dialects
	del := `
		DELETE FROM patient_tags
		WHERE tenant_id = ` + placeholder(1) + ` AND patient_id = ` + placeholder(2) + ` AND tag_id = ` + placeholder(3) + `
	`
	if _, err := r.db.ExecContext(ctx, del, tenantID, patientID, tagID); err != nil {
		return err
	}
	ins := `
		INSERT INTO patient_tags (tenant_id, patient_id, tag_id, created)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)
	`
	_, err := r.db.ExecContext(ctx, ins, tenantID, patientID, tagID, formatDateInDatabase(r.clock.Now()))
	if err != nil {
		slog.Error("Failed to add patient tag", "error", err, "patient_id", patientID, "tag_id", tagID)
	}
	return err
}

// RemoveTag detaches a tag from a patient. Removing an absent tag is a no-op.
func (r *PatientRepository) RemoveTag(ctx context.Context, tenantID string, patientID string, tagID int64) error {
	query := `
		DELETE FROM patient_tags
		WHERE tenant_id = ` + placeholder(1) + ` AND patient_id = ` + placeholder(2) + ` AND tag_id = ` + placeholder(3) + `
	`
	_, err := r.db.ExecContext(ctx, query, tenantID, patientID, tagID)
	return err
}

// SetMark replaces the patient's current mark.
func (r *PatientRepository) SetMark(ctx context.Context, tenantID string, patientID string, mark string) error {
	del := `
		DELETE FROM patient_marks
		WHERE tenant_id = ` + placeholder(1) + ` AND patient_id = ` + placeholder(2) + `
	`
	if _, err := r.db.ExecContext(ctx, del, tenantID, patientID); err != nil {
		return err
	}
	ins := `
		INSERT INTO patient_marks (tenant_id, patient_id, mark, updated)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)
	`
	_, err := r.db.ExecContext(ctx, ins, tenantID, patientID, mark, formatDateInDatabase(r.clock.Now()))
	if err != nil {
		slog.Error("Failed to set patient mark", "error", err, "patient_id", patientID, "mark", mark)
	}
	return err
}
