package validation

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MaxLicenseNameLen = 30
	MaxFieldNameLen   = 50
	MaxHintLen        = 100
)

var (
	// ErrNoSharedField: without a field visible to both sides there is
	// nothing to match lost and found reports on.
	ErrNoSharedField = errors.New("at least one field must be shared between the loser and the finder")

	// ErrOrphanField: a field hidden from both sides can never be filled.
	ErrOrphanField = errors.New("a field visible to neither the loser nor the finder is not allowed")

	// ErrInvalidSharedFieldType: only text fields may act as match keys.
	ErrInvalidSharedFieldType = errors.New("fields shared between the loser and the finder must be text")
)

// PropertyTypeDraft is one field definition submitted with a new license.
// Drafts are validated as one atomic batch; a license's schema is immutable
// after creation, so this is the only place these rules run.
type PropertyTypeDraft struct {
	Name         string `json:"name"`
	ValueType    string `json:"value_type"`
	Hint         string `json:"hint"`
	ShowToLoser  bool   `json:"show_to_loser"`
	ShowToFinder bool   `json:"show_to_finder"`
}

func ValidateLicenseName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	if len(name) > MaxLicenseNameLen {
		return fmt.Errorf("name is too long (max %d characters)", MaxLicenseNameLen)
	}
	return nil
}

// ValidateDrafts checks a proposed license schema. Fail fast: the first
// violated rule is returned.
func ValidateDrafts(drafts []PropertyTypeDraft) error {
	if len(drafts) == 0 {
		return errors.New("at least one field is required")
	}

	for i, d := range drafts {
		if err := validateDraft(d); err != nil {
			return fmt.Errorf("field %d: %w", i+1, err)
		}
	}

	if !sharedFieldExists(drafts) {
		return ErrNoSharedField
	}
	if orphanFieldExists(drafts) {
		return ErrOrphanField
	}
	for i, d := range drafts {
		if d.ShowToLoser && d.ShowToFinder && d.ValueType != "text" {
			return fmt.Errorf("field %d: %w", i+1, ErrInvalidSharedFieldType)
		}
	}

	return nil
}

func validateDraft(d PropertyTypeDraft) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("name is required")
	}
	if len(d.Name) > MaxFieldNameLen {
		return fmt.Errorf("name is too long (max %d characters)", MaxFieldNameLen)
	}
	if d.ValueType != "text" && d.ValueType != "image" {
		return fmt.Errorf("value type must be text or image, got %q", d.ValueType)
	}
	if len(d.Hint) > MaxHintLen {
		return fmt.Errorf("hint is too long (max %d characters)", MaxHintLen)
	}
	return nil
}

func sharedFieldExists(drafts []PropertyTypeDraft) bool {
	for _, d := range drafts {
		if d.ShowToLoser && d.ShowToFinder {
			return true
		}
	}
	return false
}

func orphanFieldExists(drafts []PropertyTypeDraft) bool {
	for _, d := range drafts {
		if !d.ShowToLoser && !d.ShowToFinder {
			return true
		}
	}
	return false
}
