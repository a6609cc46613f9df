package model

import (
	"time"
)

const (
	ValueTypeText  = "text"
	ValueTypeImage = "image"
)

// Role is the side a reporting user acts on. A property type's visibility
// flags decide which role sees (and must fill) the field.
type Role string

const (
	RoleLoser  Role = "loser"
	RoleFinder Role = "finder"
)

type License struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Loaded separately, in position order
	PropertyTypes []*PropertyType `db:"-" json:"property_types,omitempty"`
}

type PropertyType struct {
	ID           string    `db:"id" json:"id"`
	LicenseID    string    `db:"license_id" json:"license_id"`
	Name         string    `db:"name" json:"name"`
	ValueType    string    `db:"value_type" json:"value_type"`
	Hint         string    `db:"hint" json:"hint,omitempty"`
	ShowToLoser  bool      `db:"show_to_loser" json:"show_to_loser"`
	ShowToFinder bool      `db:"show_to_finder" json:"show_to_finder"`
	Position     int       `db:"position" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Shared reports whether the field is visible to both sides and therefore
// acts as a match key.
func (pt *PropertyType) Shared() bool {
	return pt.ShowToLoser && pt.ShowToFinder
}

// VisibleTo reports whether the field appears on the given role's form.
func (pt *PropertyType) VisibleTo(role Role) bool {
	if role == RoleLoser {
		return pt.ShowToLoser
	}
	return pt.ShowToFinder
}

// PropertyTypeView is the field metadata exposed to reporting users. The
// visibility flags are internals of the matching system and are stripped;
// only the admin license view carries them.
type PropertyTypeView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ValueType string `json:"value_type"`
	Hint      string `json:"hint,omitempty"`
}

func (pt *PropertyType) View() PropertyTypeView {
	return PropertyTypeView{
		ID:        pt.ID,
		Name:      pt.Name,
		ValueType: pt.ValueType,
		Hint:      pt.Hint,
	}
}

// PropertyTypesFor filters a license's property types down to the ones
// visible to the role, keeping insertion order.
func PropertyTypesFor(types []*PropertyType, role Role) []*PropertyType {
	var out []*PropertyType
	for _, pt := range types {
		if pt.VisibleTo(role) {
			out = append(out, pt)
		}
	}
	return out
}

// SharedPropertyTypes returns the dual-visible (match key) property types in
// insertion order. For any validly created license these are text-typed and
// at least one exists.
func SharedPropertyTypes(types []*PropertyType) []*PropertyType {
	var out []*PropertyType
	for _, pt := range types {
		if pt.Shared() {
			out = append(out, pt)
		}
	}
	return out
}
