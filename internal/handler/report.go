package handler

import (
	"net/http"

	"github.com/daftar-app/daftar/internal/ctxkeys"
	"github.com/daftar-app/daftar/internal/model"
	"github.com/daftar-app/daftar/internal/policy"
	"github.com/daftar-app/daftar/internal/service"
)

// maxFormMemory bounds in-memory multipart parsing; larger file parts spill
// to disk.
const maxFormMemory = 8 << 20

type ReportHandler struct {
	licenseService *service.LicenseService
	reportService  *service.ReportService
}

func NewReportHandler(licenseService *service.LicenseService, reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{
		licenseService: licenseService,
		reportService:  reportService,
	}
}

// Index returns the caller's reports under the license, together with the
// field metadata their role sees (visibility flags stripped).
func (h *ReportHandler) Index(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	license, kind, ok := h.licenseAndKind(w, r)
	if !ok {
		return
	}

	if err := policy.ViewOwnReports(user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	reports, err := h.reportService.OwnReports(user, license, kind)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"license":        map[string]string{"id": license.ID, "name": license.Name},
		"property_types": h.licenseService.FieldsFor(license, kind.Role()),
		"reports":        reports,
	})
}

// Fields returns just the form metadata for filing a new report.
func (h *ReportHandler) Fields(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	license, kind, ok := h.licenseAndKind(w, r)
	if !ok {
		return
	}

	if err := policy.CreateReport(user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"license":        map[string]string{"id": license.ID, "name": license.Name},
		"property_types": h.licenseService.FieldsFor(license, kind.Role()),
	})
}

// Create files a report. All role-visible fields are mandatory; any invalid
// field aborts the whole create.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	license, kind, ok := h.licenseAndKind(w, r)
	if !ok {
		return
	}

	if err := policy.CreateReport(user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	form, err := parseReportForm(r, license, kind.Role())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	report, err := h.reportService.Create(kind, license, user, form)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, report)
}

// Show returns one of the caller's own reports.
func (h *ReportHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	license, _, report, ok := h.scopedReport(w, r)
	if !ok {
		return
	}

	if err := policy.AccessReport(user, report, license); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"license":        map[string]string{"id": license.ID, "name": license.Name},
		"property_types": h.licenseService.FieldsFor(license, report.Kind.Role()),
		"report":         report,
	})
}

// Update applies a partial edit: only supplied fields change.
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	license, _, report, ok := h.scopedReport(w, r)
	if !ok {
		return
	}

	if err := policy.AccessReport(user, report, license); err != nil {
		respondServiceError(w, r, err)
		return
	}

	form, err := parseReportForm(r, license, report.Kind.Role())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	err = h.reportService.Update(license, report, form)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Delete removes the report, its properties and its image files.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	license, _, report, ok := h.scopedReport(w, r)
	if !ok {
		return
	}

	if err := policy.AccessReport(user, report, license); err != nil {
		respondServiceError(w, r, err)
		return
	}

	err := h.reportService.Delete(license, report)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// licenseAndKind resolves the {license} and {kind} path segments.
func (h *ReportHandler) licenseAndKind(w http.ResponseWriter, r *http.Request) (*model.License, model.ReportKind, bool) {
	kind, ok := kindFromPath(r)
	if !ok {
		respondError(w, http.StatusNotFound, "not found")
		return nil, "", false
	}

	license, err := h.licenseService.ByID(r.PathValue("license"))
	if err != nil {
		respondServiceError(w, r, err)
		return nil, "", false
	}

	return license, kind, true
}

// scopedReport additionally resolves {report} and checks it is of the kind
// named in the path.
func (h *ReportHandler) scopedReport(w http.ResponseWriter, r *http.Request) (*model.License, model.ReportKind, *model.Report, bool) {
	license, kind, ok := h.licenseAndKind(w, r)
	if !ok {
		return nil, "", nil, false
	}

	report, err := h.reportService.ByID(r.PathValue("report"))
	if err != nil {
		respondServiceError(w, r, err)
		return nil, "", nil, false
	}
	if report.Kind != kind {
		respondError(w, http.StatusNotFound, "not found")
		return nil, "", nil, false
	}

	return license, kind, report, true
}

func kindFromPath(r *http.Request) (model.ReportKind, bool) {
	switch r.PathValue("kind") {
	case "losts":
		return model.ReportKindLost, true
	case "founds":
		return model.ReportKindFound, true
	}
	return "", false
}

// parseReportForm extracts the role-visible fields from a multipart (or
// urlencoded) body, keyed property_type_<id> like the original forms.
func parseReportForm(r *http.Request, license *model.License, role model.Role) (service.Form, error) {
	err := r.ParseMultipartForm(maxFormMemory)
	if err == http.ErrNotMultipart {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, err
	}

	form := service.Form{}
	for _, pt := range model.PropertyTypesFor(license.PropertyTypes, role) {
		key := service.FieldKey(pt.ID)

		if pt.ValueType == model.ValueTypeImage {
			if r.MultipartForm == nil {
				continue
			}
			files := r.MultipartForm.File[key]
			if len(files) > 0 {
				form[pt.ID] = &service.FieldInput{File: files[0]}
			} else if _, sent := r.MultipartForm.Value[key]; sent {
				// Key supplied without a file part: surfaces as a
				// validation error instead of being silently skipped
				form[pt.ID] = &service.FieldInput{}
			}
			continue
		}

		values, sent := r.Form[key]
		if r.MultipartForm != nil {
			values, sent = r.MultipartForm.Value[key]
		}
		if sent && len(values) > 0 {
			form[pt.ID] = &service.FieldInput{Value: values[0]}
		} else if sent {
			form[pt.ID] = &service.FieldInput{}
		}
	}

	return form, nil
}
