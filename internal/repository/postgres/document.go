package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbr/backoffice-api/internal/model"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	query := `
		INSERT INTO documents (
			id, patient_id, title, content_type, storage_path, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	doc.ID = uuid.New()
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.PatientID,
		doc.Title,
		doc.ContentType,
		doc.StoragePath,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	query := `
		SELECT id, patient_id, title, content_type, storage_path, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var doc model.Document
	err := r.db.GetContext(ctx, &doc, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("document", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Document, error) {
	query := `
		SELECT id, patient_id, title, content_type, storage_path, created_at, updated_at
		FROM documents
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var docs []*model.Document
	if err := r.db.SelectContext(ctx, &docs, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("document", nil)
	}
	return nil
}
