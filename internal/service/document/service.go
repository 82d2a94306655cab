package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/internal/repository"
	apperrors "github.com/clinicbr/backoffice-api/pkg/errors"
)

// Service manages patient document metadata.
type Service struct {
	repo        repository.DocumentRepository
	patientRepo repository.PatientRepository
}

func NewService(repo repository.DocumentRepository, patientRepo repository.PatientRepository) *Service {
	return &Service{repo: repo, patientRepo: patientRepo}
}

func (s *Service) Create(ctx context.Context, patientID uuid.UUID, req *model.CreateDocumentRequest) (*model.Document, error) {
	if _, err := s.patientRepo.Get(ctx, patientID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidation(fmt.Sprintf("patient %s does not exist", patientID))
		}
		return nil, fmt.Errorf("failed to check patient: %w", err)
	}

	doc := &model.Document{
		PatientID:   patientID,
		Title:       req.Title,
		ContentType: req.ContentType,
		StoragePath: req.StoragePath,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Document, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
