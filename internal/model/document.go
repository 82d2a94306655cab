package model

import (
	"github.com/google/uuid"
)

// Document is a file attached to a patient record. Only metadata lives
// here; the content sits at StoragePath.
type Document struct {
	Base
	PatientID   uuid.UUID `json:"patient_id" db:"patient_id"`
	Title       string    `json:"title" db:"title"`
	ContentType string    `json:"content_type" db:"content_type"`
	StoragePath string    `json:"storage_path" db:"storage_path"`
}

type CreateDocumentRequest struct {
	Title       string `json:"title" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	StoragePath string `json:"storage_path" binding:"required"`
}
