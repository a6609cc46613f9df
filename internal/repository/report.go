package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/daftar-app/daftar/internal/model"
)

var ErrReportNotFound = errors.New("report not found")

type ReportRepository interface {
	// Create persists a report and all of its properties in one
	// transaction; partial reports never hit the database.
	Create(report *model.Report, properties []*model.Property) error
	ByID(id string) (*model.Report, error)
	// ByLicenseAndKind returns reports in creation order, properties loaded.
	ByLicenseAndKind(licenseID string, kind model.ReportKind) ([]*model.Report, error)
	// ByUserLicenseAndKind narrows ByLicenseAndKind to one owner.
	ByUserLicenseAndKind(userID, licenseID string, kind model.ReportKind) ([]*model.Report, error)
	// UpdateValues rewrites the given property rows (id -> new value) in one
	// transaction.
	UpdateValues(values map[string]string) error
	// Delete removes the report and its properties in one transaction.
	Delete(id string) error
	// ImagePathsByLicense lists stored file paths of every image-typed
	// property under the license.
	ImagePathsByLicense(licenseID string) ([]string, error)
}

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(report *model.Report, properties []*model.Property) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT INTO reports (id, kind, user_id, license_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		report.ID, report.Kind, report.UserID, report.LicenseID, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	query := `INSERT INTO properties (id, report_id, property_type_id, value, created_at) VALUES ($1, $2, $3, $4, $5)`
	for _, p := range properties {
		_, err = tx.Exec(query, p.ID, p.ReportID, p.PropertyTypeID, p.Value, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert property: %w", err)
		}
	}

	return tx.Commit()
}

func (r *reportRepository) ByID(id string) (*model.Report, error) {
	report := &model.Report{}
	err := r.db.Get(report, `SELECT * FROM reports WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	err = r.loadProperties(report)
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (r *reportRepository) ByLicenseAndKind(licenseID string, kind model.ReportKind) ([]*model.Report, error) {
	var reports []*model.Report
	err := r.db.Select(&reports,
		`SELECT * FROM reports WHERE license_id = $1 AND kind = $2 ORDER BY created_at, id`,
		licenseID, kind)
	if err != nil {
		return nil, err
	}

	for _, report := range reports {
		err = r.loadProperties(report)
		if err != nil {
			return nil, err
		}
	}

	return reports, nil
}

func (r *reportRepository) ByUserLicenseAndKind(userID, licenseID string, kind model.ReportKind) ([]*model.Report, error) {
	var reports []*model.Report
	err := r.db.Select(&reports,
		`SELECT * FROM reports WHERE user_id = $1 AND license_id = $2 AND kind = $3 ORDER BY created_at, id`,
		userID, licenseID, kind)
	if err != nil {
		return nil, err
	}

	for _, report := range reports {
		err = r.loadProperties(report)
		if err != nil {
			return nil, err
		}
	}

	return reports, nil
}

// loadProperties attaches the report's properties in field (position) order.
func (r *reportRepository) loadProperties(report *model.Report) error {
	return r.db.Select(&report.Properties,
		`SELECT p.* FROM properties p
		 JOIN property_types pt ON pt.id = p.property_type_id
		 WHERE p.report_id = $1
		 ORDER BY pt.position`,
		report.ID)
}

func (r *reportRepository) UpdateValues(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for id, value := range values {
		result, err := tx.Exec(`UPDATE properties SET value = $1 WHERE id = $2`, value, id)
		if err != nil {
			return fmt.Errorf("failed to update property: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("property %s not found", id)
		}
	}

	return tx.Commit()
}

func (r *reportRepository) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`DELETE FROM properties WHERE report_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete properties: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrReportNotFound
	}

	return tx.Commit()
}

func (r *reportRepository) ImagePathsByLicense(licenseID string) ([]string, error) {
	var paths []string
	err := r.db.Select(&paths,
		`SELECT p.value FROM properties p
		 JOIN property_types pt ON pt.id = p.property_type_id
		 WHERE pt.license_id = $1 AND pt.value_type = 'image'`,
		licenseID)
	if err != nil {
		return nil, err
	}

	return paths, nil
}
