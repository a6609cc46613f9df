package model

import (
	"time"
)

// ReportKind discriminates the two report variants. A property always
// belongs to exactly one report, so the lost/found polymorphism of the data
// model collapses into this tag.
type ReportKind string

const (
	ReportKindLost  ReportKind = "lost"
	ReportKindFound ReportKind = "found"
)

// Role returns the authoring role for reports of this kind.
func (k ReportKind) Role() Role {
	if k == ReportKindLost {
		return RoleLoser
	}
	return RoleFinder
}

func (k ReportKind) Valid() bool {
	return k == ReportKindLost || k == ReportKindFound
}

type Report struct {
	ID        string     `db:"id" json:"id"`
	Kind      ReportKind `db:"kind" json:"kind"`
	UserID    string     `db:"user_id" json:"user_id"`
	LicenseID string     `db:"license_id" json:"license_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`

	// Loaded separately
	Properties []*Property `db:"-" json:"properties,omitempty"`
}

// Property holds one field value of a report. For image-typed fields the
// value is the storage path of the uploaded file.
type Property struct {
	ID             string    `db:"id" json:"id"`
	ReportID       string    `db:"report_id" json:"-"`
	PropertyTypeID string    `db:"property_type_id" json:"property_type_id"`
	Value          string    `db:"value" json:"value"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PropertyFor returns the report's property for the given property type, or
// nil if the report has none.
func (r *Report) PropertyFor(propertyTypeID string) *Property {
	for _, p := range r.Properties {
		if p.PropertyTypeID == propertyTypeID {
			return p
		}
	}
	return nil
}
