package policy

import (
	"errors"
	"testing"

	"github.com/daftar-app/daftar/internal/model"
)

var (
	admin  = &model.User{ID: "admin", IsAdmin: true}
	alice  = &model.User{ID: "alice"}
	bob    = &model.User{ID: "bob"}
	wallet = &model.License{ID: "wallet"}
	phone  = &model.License{ID: "phone"}
)

func TestAdministerLicenses(t *testing.T) {
	if err := AdministerLicenses(admin); err != nil {
		t.Errorf("admin should administer licenses, got %v", err)
	}
	if err := AdministerLicenses(alice); !errors.Is(err, ErrForbidden) {
		t.Errorf("regular user got %v, want ErrForbidden", err)
	}
	if err := AdministerLicenses(nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("anonymous got %v, want ErrForbidden", err)
	}
}

func TestReportingIsNotForAdmins(t *testing.T) {
	for name, check := range map[string]func(*model.User) error{
		"ListLicensesForReporting": ListLicensesForReporting,
		"CreateReport":             CreateReport,
		"ViewOwnReports":           ViewOwnReports,
	} {
		if err := check(alice); err != nil {
			t.Errorf("%s: regular user got %v, want nil", name, err)
		}
		if err := check(admin); !errors.Is(err, ErrForbidden) {
			t.Errorf("%s: admin got %v, want ErrForbidden", name, err)
		}
		if err := check(nil); !errors.Is(err, ErrForbidden) {
			t.Errorf("%s: anonymous got %v, want ErrForbidden", name, err)
		}
	}
}

func TestAccessReport(t *testing.T) {
	report := &model.Report{ID: "r1", UserID: alice.ID, LicenseID: wallet.ID}

	if err := AccessReport(alice, report, wallet); err != nil {
		t.Errorf("owner got %v, want nil", err)
	}
	if err := AccessReport(bob, report, wallet); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-owner got %v, want ErrForbidden", err)
	}
	if err := AccessReport(alice, report, phone); !errors.Is(err, ErrForbidden) {
		t.Errorf("wrong license got %v, want ErrForbidden", err)
	}
	if err := AccessReport(admin, report, wallet); !errors.Is(err, ErrForbidden) {
		t.Errorf("admin got %v, want ErrForbidden", err)
	}
}

func TestConfirmMatch(t *testing.T) {
	lost := &model.Report{ID: "lost", Kind: model.ReportKindLost, UserID: alice.ID, LicenseID: wallet.ID}
	found := &model.Report{ID: "found", Kind: model.ReportKindFound, UserID: bob.ID, LicenseID: wallet.ID}
	elsewhere := &model.Report{ID: "other", Kind: model.ReportKindFound, UserID: bob.ID, LicenseID: phone.ID}

	if err := ConfirmMatch(alice, lost, found); err != nil {
		t.Errorf("lost owner got %v, want nil", err)
	}
	if err := ConfirmMatch(bob, lost, found); !errors.Is(err, ErrForbidden) {
		t.Errorf("finder confirming got %v, want ErrForbidden", err)
	}
	if err := ConfirmMatch(alice, lost, elsewhere); !errors.Is(err, ErrForbidden) {
		t.Errorf("cross-license pair got %v, want ErrForbidden", err)
	}
	if err := ConfirmMatch(admin, lost, found); !errors.Is(err, ErrForbidden) {
		t.Errorf("admin got %v, want ErrForbidden", err)
	}
}
