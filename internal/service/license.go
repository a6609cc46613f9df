package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daftar-app/daftar/internal/model"
	"github.com/daftar-app/daftar/internal/repository"
	"github.com/daftar-app/daftar/internal/storage"
	"github.com/daftar-app/daftar/internal/validation"
)

type LicenseService struct {
	licenseRepo repository.LicenseRepository
	reportRepo  repository.ReportRepository
	storage     storage.Storage
}

func NewLicenseService(
	licenseRepo repository.LicenseRepository,
	reportRepo repository.ReportRepository,
	storage storage.Storage,
) *LicenseService {
	return &LicenseService{
		licenseRepo: licenseRepo,
		reportRepo:  reportRepo,
		storage:     storage,
	}
}

// Create validates the field batch and persists the license with its
// property types. Validation failure persists nothing.
func (s *LicenseService) Create(name string, drafts []validation.PropertyTypeDraft) (*model.License, error) {
	if err := validation.ValidateLicenseName(name); err != nil {
		return nil, validation.Errors{"name": err.Error()}
	}
	if err := validation.ValidateDrafts(drafts); err != nil {
		return nil, validation.Errors{"property_types": err.Error()}
	}

	now := time.Now()
	license := &model.License{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
	}

	types := make([]*model.PropertyType, 0, len(drafts))
	for i, d := range drafts {
		types = append(types, &model.PropertyType{
			ID:           uuid.New().String(),
			LicenseID:    license.ID,
			Name:         d.Name,
			ValueType:    d.ValueType,
			Hint:         d.Hint,
			ShowToLoser:  d.ShowToLoser,
			ShowToFinder: d.ShowToFinder,
			Position:     i,
			CreatedAt:    now,
		})
	}

	err := s.licenseRepo.Create(license, types)
	if err != nil {
		return nil, fmt.Errorf("failed to create license: %w", err)
	}

	license.PropertyTypes = types
	return license, nil
}

func (s *LicenseService) ByID(id string) (*model.License, error) {
	return s.licenseRepo.ByID(id)
}

func (s *LicenseService) All() ([]*model.License, error) {
	return s.licenseRepo.All()
}

// Delete cascades: property types, every lost/found report under the
// license, their properties, and the stored image files. Files are released
// only after the rows are durably gone.
func (s *LicenseService) Delete(id string) error {
	paths, err := s.reportRepo.ImagePathsByLicense(id)
	if err != nil {
		return fmt.Errorf("failed to collect image paths: %w", err)
	}

	err = s.licenseRepo.Delete(id)
	if err != nil {
		return err
	}

	for _, path := range paths {
		delErr := s.storage.Delete(path)
		if delErr != nil {
			// Rows are already gone; the file is orphaned but harmless
			slog.Error("failed to release image file", "path", path, "error", delErr)
		}
	}

	return nil
}

// FieldsFor returns the license's fields visible to the role, stripped of
// the visibility flags, in insertion order.
func (s *LicenseService) FieldsFor(license *model.License, role model.Role) []model.PropertyTypeView {
	types := model.PropertyTypesFor(license.PropertyTypes, role)
	views := make([]model.PropertyTypeView, 0, len(types))
	for _, pt := range types {
		views = append(views, pt.View())
	}
	return views
}
