package service

import (
	"fmt"

	"github.com/daftar-app/daftar/internal/model"
	"github.com/daftar-app/daftar/internal/policy"
	"github.com/daftar-app/daftar/internal/repository"
	"github.com/daftar-app/daftar/internal/storage"
)

// MatchNotifier queues the lost-has-found email. Satisfied by EmailService.
type MatchNotifier interface {
	QueueMatchFound(n MatchNotification)
}

// MatchNotification carries everything the finder needs: the loser's field
// values and a way to reach them.
type MatchNotification struct {
	FinderEmail string
	LoserEmail  string
	LicenseName string
	Properties  []MatchProperty
}

type MatchProperty struct {
	Name      string
	ValueType string
	Value     string // text payload, or a resolvable URL for images
}

type MatchService struct {
	reportRepo repository.ReportRepository
	userRepo   repository.UserRepository
	notifier   MatchNotifier
	storage    storage.Storage
}

func NewMatchService(
	reportRepo repository.ReportRepository,
	userRepo repository.UserRepository,
	notifier MatchNotifier,
	storage storage.Storage,
) *MatchService {
	return &MatchService{
		reportRepo: reportRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		storage:    storage,
	}
}

// FindMatches returns every found report under the lost report's license
// that agrees with it on all shared fields: exact, case-sensitive string
// equality, no normalization. A found report missing a shared-field value is
// excluded. Results come back in report creation order.
func (s *MatchService) FindMatches(license *model.License, lost *model.Report) ([]*model.Report, error) {
	shared := model.SharedPropertyTypes(license.PropertyTypes)

	lostValues := make(map[string]string, len(shared))
	for _, pt := range shared {
		property := lost.PropertyFor(pt.ID)
		if property == nil {
			// Shared values are mandatory on create; without them nothing
			// can match.
			return nil, nil
		}
		lostValues[pt.ID] = property.Value
	}

	founds, err := s.reportRepo.ByLicenseAndKind(license.ID, model.ReportKindFound)
	if err != nil {
		return nil, err
	}

	var matches []*model.Report
	for _, found := range founds {
		if matchesAll(found, shared, lostValues) {
			matches = append(matches, found)
		}
	}

	return matches, nil
}

func matchesAll(found *model.Report, shared []*model.PropertyType, lostValues map[string]string) bool {
	for _, pt := range shared {
		property := found.PropertyFor(pt.ID)
		if property == nil || property.Value != lostValues[pt.ID] {
			return false
		}
	}
	return true
}

// ConfirmMatch re-derives the match server-side before notifying: the
// claimed found report must actually be among FindMatches results, on top
// of the ownership and license checks. Client-supplied match claims are
// never trusted.
func (s *MatchService) ConfirmMatch(user *model.User, license *model.License, lost, found *model.Report) error {
	if err := policy.ConfirmMatch(user, lost, found); err != nil {
		return err
	}

	matches, err := s.FindMatches(license, lost)
	if err != nil {
		return err
	}
	confirmed := false
	for _, m := range matches {
		if m.ID == found.ID {
			confirmed = true
			break
		}
	}
	if !confirmed {
		return policy.ErrForbidden
	}

	finder, err := s.userRepo.ByID(found.UserID)
	if err != nil {
		return fmt.Errorf("failed to load finder: %w", err)
	}
	loser, err := s.userRepo.ByID(lost.UserID)
	if err != nil {
		return fmt.Errorf("failed to load loser: %w", err)
	}

	s.notifier.QueueMatchFound(MatchNotification{
		FinderEmail: finder.Email,
		LoserEmail:  loser.Email,
		LicenseName: license.Name,
		Properties:  s.lostProperties(license, lost),
	})

	return nil
}

// lostProperties projects every lost-report field for the email body, in
// field order. Image values become URLs the finder can open.
func (s *MatchService) lostProperties(license *model.License, lost *model.Report) []MatchProperty {
	var out []MatchProperty
	for _, pt := range license.PropertyTypes {
		property := lost.PropertyFor(pt.ID)
		if property == nil {
			continue
		}

		value := property.Value
		if pt.ValueType == model.ValueTypeImage {
			value = s.storage.URL(value)
		}

		out = append(out, MatchProperty{
			Name:      pt.Name,
			ValueType: pt.ValueType,
			Value:     value,
		})
	}
	return out
}
