package handler

import (
	"encoding/json"
	"net/http"

	"github.com/daftar-app/daftar/internal/ctxkeys"
	"github.com/daftar-app/daftar/internal/policy"
	"github.com/daftar-app/daftar/internal/service"
	"github.com/daftar-app/daftar/internal/validation"
)

type LicenseHandler struct {
	licenseService *service.LicenseService
}

func NewLicenseHandler(licenseService *service.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

type createLicenseRequest struct {
	Name          string                         `json:"name"`
	PropertyTypes []validation.PropertyTypeDraft `json:"property_types"`
}

// Create stores a license with its whole field batch. Admin only; the
// schema cannot be changed afterwards.
func (h *LicenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if err := policy.AdministerLicenses(user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	var req createLicenseRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	license, err := h.licenseService.Create(req.Name, req.PropertyTypes)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, license)
}

// List returns all licenses for the admin overview.
func (h *LicenseHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if err := policy.AdministerLicenses(user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	licenses, err := h.licenseService.All()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"licenses": licenses})
}

// Show returns one license with its property types, visibility flags
// included. This is the admin view; reporting users get the stripped field
// metadata from the report endpoints instead.
func (h *LicenseHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if err := policy.AdministerLicenses(user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	license, err := h.licenseService.ByID(r.PathValue("license"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, license)
}

// Delete cascades the license, its reports and their files.
func (h *LicenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if err := policy.AdministerLicenses(user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	err := h.licenseService.Delete(r.PathValue("license"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListForReporting returns the licenses a user can file reports against.
func (h *LicenseHandler) ListForReporting(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if err := policy.ListLicensesForReporting(user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	licenses, err := h.licenseService.All()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"licenses": licenses})
}
