// Package policy is the authorization gate consulted before every license
// and report operation. Ownership and license-scope checks live here rather
// than inside individual handlers.
package policy

import (
	"errors"

	"github.com/daftar-app/daftar/internal/model"
)

var ErrForbidden = errors.New("forbidden")

// AdministerLicenses allows license creation, listing and deletion.
// Admin only.
func AdministerLicenses(user *model.User) error {
	if user == nil || !user.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// ListLicensesForReporting allows browsing licenses to file a report
// against. Reporting is a non-admin activity.
func ListLicensesForReporting(user *model.User) error {
	return report(user)
}

// CreateReport allows filing a new lost or found report.
func CreateReport(user *model.User) error {
	return report(user)
}

// ViewOwnReports allows listing the caller's reports under a license.
func ViewOwnReports(user *model.User) error {
	return report(user)
}

// AccessReport allows viewing, updating or deleting a report: owner only,
// and the report must belong to the license in the request path.
func AccessReport(user *model.User, rep *model.Report, license *model.License) error {
	if err := report(user); err != nil {
		return err
	}
	if rep.UserID != user.ID || rep.LicenseID != license.ID {
		return ErrForbidden
	}
	return nil
}

// ConfirmMatch allows confirming a lost/found pair: the caller must own the
// lost report and both reports must share a license. Whether the pair
// actually matches is re-checked by the match engine, not here.
func ConfirmMatch(user *model.User, lost, found *model.Report) error {
	if err := report(user); err != nil {
		return err
	}
	if lost.UserID != user.ID || lost.LicenseID != found.LicenseID {
		return ErrForbidden
	}
	return nil
}

func report(user *model.User) error {
	if user == nil || user.IsAdmin {
		return ErrForbidden
	}
	return nil
}
