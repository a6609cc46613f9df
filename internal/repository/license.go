package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/daftar-app/daftar/internal/model"
)

var ErrLicenseNotFound = errors.New("license not found")

type LicenseRepository interface {
	// Create persists a license together with its whole property type batch
	// in one transaction. The schema is immutable afterwards.
	Create(license *model.License, types []*model.PropertyType) error
	ByID(id string) (*model.License, error)
	All() ([]*model.License, error)
	// Delete removes the license, its property types, and every report and
	// property under it, in one transaction.
	Delete(id string) error
}

type licenseRepository struct {
	db *sqlx.DB
}

func NewLicenseRepository(db *sqlx.DB) LicenseRepository {
	return &licenseRepository{db: db}
}

func (r *licenseRepository) Create(license *model.License, types []*model.PropertyType) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT INTO licenses (id, name, created_at) VALUES ($1, $2, $3)`,
		license.ID, license.Name, license.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert license: %w", err)
	}

	query := `INSERT INTO property_types (id, license_id, name, value_type, hint, show_to_loser, show_to_finder, position, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, pt := range types {
		_, err = tx.Exec(query,
			pt.ID, pt.LicenseID, pt.Name, pt.ValueType, pt.Hint,
			pt.ShowToLoser, pt.ShowToFinder, pt.Position, pt.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert property type: %w", err)
		}
	}

	return tx.Commit()
}

func (r *licenseRepository) ByID(id string) (*model.License, error) {
	license := &model.License{}
	err := r.db.Get(license, `SELECT * FROM licenses WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrLicenseNotFound
	}
	if err != nil {
		return nil, err
	}

	err = r.db.Select(&license.PropertyTypes,
		`SELECT * FROM property_types WHERE license_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}

	return license, nil
}

func (r *licenseRepository) All() ([]*model.License, error) {
	var licenses []*model.License
	err := r.db.Select(&licenses, `SELECT * FROM licenses ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}

	return licenses, nil
}

func (r *licenseRepository) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`DELETE FROM properties WHERE report_id IN (SELECT id FROM reports WHERE license_id = $1)`, id)
	if err != nil {
		return fmt.Errorf("failed to delete properties: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM reports WHERE license_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reports: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM property_types WHERE license_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property types: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete license: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrLicenseNotFound
	}

	return tx.Commit()
}
