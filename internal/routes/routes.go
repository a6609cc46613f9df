package routes

import (
	"net/http"

	"github.com/daftar-app/daftar/internal/app"
	"github.com/daftar-app/daftar/internal/handler"
	"github.com/daftar-app/daftar/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	license := handler.NewLicenseHandler(app.LicenseService)
	report := handler.NewReportHandler(app.LicenseService, app.ReportService)
	match := handler.NewMatchHandler(app.LicenseService, app.ReportService, app.MatchService)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Report mutations are rate limited per IP
	rateLimiter := middleware.RateLimitReports()

	// License administration (admin only, checked by policy)
	mux.HandleFunc("POST /admin/licenses", middleware.RequireAuth(license.Create))
	mux.HandleFunc("GET /admin/licenses", middleware.RequireAuth(license.List))
	mux.HandleFunc("GET /admin/licenses/{license}", middleware.RequireAuth(license.Show))
	mux.HandleFunc("DELETE /admin/licenses/{license}", middleware.RequireAuth(license.Delete))

	// Reporting ({kind} is losts or founds)
	mux.HandleFunc("GET /licenses", middleware.RequireAuth(license.ListForReporting))
	mux.HandleFunc("GET /licenses/{license}/{kind}", middleware.RequireAuth(report.Index))
	mux.HandleFunc("GET /licenses/{license}/{kind}/new", middleware.RequireAuth(report.Fields))
	mux.HandleFunc("POST /licenses/{license}/{kind}", rateLimiter(middleware.RequireAuth(report.Create)))
	mux.HandleFunc("GET /licenses/{license}/{kind}/{report}", middleware.RequireAuth(report.Show))
	mux.HandleFunc("PATCH /licenses/{license}/{kind}/{report}", rateLimiter(middleware.RequireAuth(report.Update)))
	mux.HandleFunc("DELETE /licenses/{license}/{kind}/{report}", rateLimiter(middleware.RequireAuth(report.Delete)))

	// Matching (lost side only)
	mux.HandleFunc("GET /licenses/{license}/losts/{lost}/matches", middleware.RequireAuth(match.Matches))
	mux.HandleFunc("POST /licenses/{license}/losts/{lost}/matches/{found}", rateLimiter(middleware.RequireAuth(match.Confirm)))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.Cfg.JWTSecret, app.Users),
	)
}
