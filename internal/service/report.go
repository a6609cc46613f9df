package service

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daftar-app/daftar/internal/model"
	"github.com/daftar-app/daftar/internal/repository"
	"github.com/daftar-app/daftar/internal/storage"
	"github.com/daftar-app/daftar/internal/validation"
)

// storageNamespace is the shared prefix for uploaded report images.
const storageNamespace = "licenses"

// FieldInput is one submitted field of a report form: a text value or an
// uploaded file, depending on the property type.
type FieldInput struct {
	Value string
	File  *multipart.FileHeader
}

// Form maps property type IDs to submitted field inputs. A nil entry and a
// missing entry are both "not supplied".
type Form map[string]*FieldInput

type ReportService struct {
	reportRepo repository.ReportRepository
	storage    storage.Storage
}

func NewReportService(reportRepo repository.ReportRepository, storage storage.Storage) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		storage:    storage,
	}
}

// FieldKey is how a property type's form field (and its validation error)
// is named, following the report form wire format.
func FieldKey(propertyTypeID string) string {
	return "property_type_" + propertyTypeID
}

// Create files a new report. Every property type visible to the report
// kind's role must be supplied and valid; any failure aborts the whole
// create with a field-keyed error and nothing persisted.
func (s *ReportService) Create(kind model.ReportKind, license *model.License, user *model.User, form Form) (*model.Report, error) {
	visible := model.PropertyTypesFor(license.PropertyTypes, kind.Role())

	verrs := validation.Errors{}
	for _, pt := range visible {
		input := form[pt.ID]
		err := validateInput(pt, input, true)
		if err != nil {
			verrs[FieldKey(pt.ID)] = err.Error()
		}
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	now := time.Now()
	report := &model.Report{
		ID:        uuid.New().String(),
		Kind:      kind,
		UserID:    user.ID,
		LicenseID: license.ID,
		CreatedAt: now,
	}

	var stored []string
	properties := make([]*model.Property, 0, len(visible))
	for _, pt := range visible {
		input := form[pt.ID]

		value := input.Value
		if pt.ValueType == model.ValueTypeImage {
			path, err := s.storeImage(input.File)
			if err != nil {
				s.removeFiles(stored)
				return nil, err
			}
			stored = append(stored, path)
			value = path
		}

		properties = append(properties, &model.Property{
			ID:             uuid.New().String(),
			ReportID:       report.ID,
			PropertyTypeID: pt.ID,
			Value:          value,
			CreatedAt:      now,
		})
	}

	err := s.reportRepo.Create(report, properties)
	if err != nil {
		s.removeFiles(stored)
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	report.Properties = properties
	return report, nil
}

// Update applies a partial edit: only supplied fields change, and a supplied
// field must validate. Any invalid field aborts the whole update before a
// single row is touched. Replaced image files are released only after the
// new rows are committed.
func (s *ReportService) Update(license *model.License, report *model.Report, form Form) error {
	visible := model.PropertyTypesFor(license.PropertyTypes, report.Kind.Role())

	verrs := validation.Errors{}
	var updates []*fieldUpdate
	for _, pt := range visible {
		input, supplied := form[pt.ID]
		if !supplied || input == nil {
			continue
		}

		err := validateInput(pt, input, false)
		if err != nil {
			verrs[FieldKey(pt.ID)] = err.Error()
			continue
		}

		property := report.PropertyFor(pt.ID)
		if property == nil {
			verrs[FieldKey(pt.ID)] = "unknown field for this report"
			continue
		}

		updates = append(updates, &fieldUpdate{propertyType: pt, property: property, input: input})
	}
	if len(verrs) > 0 {
		return verrs
	}

	var stored, obsolete []string
	values := make(map[string]string, len(updates))
	for _, u := range updates {
		value := u.input.Value
		if u.propertyType.ValueType == model.ValueTypeImage {
			path, err := s.storeImage(u.input.File)
			if err != nil {
				s.removeFiles(stored)
				return err
			}
			stored = append(stored, path)
			obsolete = append(obsolete, u.property.Value)
			value = path
		}
		values[u.property.ID] = value
	}

	err := s.reportRepo.UpdateValues(values)
	if err != nil {
		s.removeFiles(stored)
		return fmt.Errorf("failed to update report: %w", err)
	}

	for _, u := range updates {
		u.property.Value = values[u.property.ID]
	}
	s.removeFiles(obsolete)
	return nil
}

// Delete removes the report with its properties and releases its stored
// image files, rows first.
func (s *ReportService) Delete(license *model.License, report *model.Report) error {
	var paths []string
	for _, pt := range license.PropertyTypes {
		if pt.ValueType != model.ValueTypeImage {
			continue
		}
		property := report.PropertyFor(pt.ID)
		if property != nil {
			paths = append(paths, property.Value)
		}
	}

	err := s.reportRepo.Delete(report.ID)
	if err != nil {
		return err
	}

	s.removeFiles(paths)
	return nil
}

func (s *ReportService) ByID(id string) (*model.Report, error) {
	return s.reportRepo.ByID(id)
}

func (s *ReportService) OwnReports(user *model.User, license *model.License, kind model.ReportKind) ([]*model.Report, error) {
	return s.reportRepo.ByUserLicenseAndKind(user.ID, license.ID, kind)
}

type fieldUpdate struct {
	propertyType *model.PropertyType
	property     *model.Property
	input        *FieldInput
}

// validateInput checks one submitted field against its property type. On
// create a missing input is an error; on update the caller skips missing
// fields before getting here.
func validateInput(pt *model.PropertyType, input *FieldInput, required bool) error {
	if input == nil {
		if required {
			return fmt.Errorf("%s is required", pt.Name)
		}
		return nil
	}

	if pt.ValueType == model.ValueTypeImage {
		return validation.ValidateImageUpload(input.File)
	}
	return validation.ValidateTextValue(input.Value)
}

// storeImage writes the upload under a collision-resistant name in the
// shared namespace and returns the storage path.
func (s *ReportService) storeImage(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	path := fmt.Sprintf("%s/%s%s", storageNamespace, uuid.New().String(), ext)

	err = s.storage.Save(path, file)
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return path, nil
}

// removeFiles releases stored files best effort; the referencing rows are
// already gone (or were never written).
func (s *ReportService) removeFiles(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		err := s.storage.Delete(path)
		if err != nil {
			slog.Error("failed to release image file", "path", path, "error", err)
		}
	}
}
