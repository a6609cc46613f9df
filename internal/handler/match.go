package handler

import (
	"net/http"

	"github.com/daftar-app/daftar/internal/ctxkeys"
	"github.com/daftar-app/daftar/internal/model"
	"github.com/daftar-app/daftar/internal/policy"
	"github.com/daftar-app/daftar/internal/service"
)

type MatchHandler struct {
	licenseService *service.LicenseService
	reportService  *service.ReportService
	matchService   *service.MatchService
}

func NewMatchHandler(
	licenseService *service.LicenseService,
	reportService *service.ReportService,
	matchService *service.MatchService,
) *MatchHandler {
	return &MatchHandler{
		licenseService: licenseService,
		reportService:  reportService,
		matchService:   matchService,
	}
}

// Matches lists the found reports agreeing with the lost report on every
// shared field. Only the shared-field values of a match are exposed; what a
// finder filled into finder-only fields stays theirs.
func (h *MatchHandler) Matches(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	license, lost, ok := h.scopedLost(w, r)
	if !ok {
		return
	}

	if err := policy.AccessReport(user, lost, license); err != nil {
		respondServiceError(w, r, err)
		return
	}

	matches, err := h.matchService.FindMatches(license, lost)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared := model.SharedPropertyTypes(license.PropertyTypes)
	out := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		properties := make([]*model.Property, 0, len(shared))
		for _, pt := range shared {
			if p := m.PropertyFor(pt.ID); p != nil {
				properties = append(properties, p)
			}
		}
		out = append(out, map[string]any{
			"id":         m.ID,
			"created_at": m.CreatedAt,
			"properties": properties,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"matches": out})
}

// Confirm re-validates the claimed match server-side and queues the
// notification to the finder.
func (h *MatchHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	license, lost, ok := h.scopedLost(w, r)
	if !ok {
		return
	}

	found, err := h.reportService.ByID(r.PathValue("found"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if found.Kind != model.ReportKindFound {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	err = h.matchService.ConfirmMatch(user, license, lost, found)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "finder notified"})
}

func (h *MatchHandler) scopedLost(w http.ResponseWriter, r *http.Request) (*model.License, *model.Report, bool) {
	license, err := h.licenseService.ByID(r.PathValue("license"))
	if err != nil {
		respondServiceError(w, r, err)
		return nil, nil, false
	}

	lost, err := h.reportService.ByID(r.PathValue("lost"))
	if err != nil {
		respondServiceError(w, r, err)
		return nil, nil, false
	}
	if lost.Kind != model.ReportKindLost {
		respondError(w, http.StatusNotFound, "not found")
		return nil, nil, false
	}

	return license, lost, true
}
