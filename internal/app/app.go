package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/daftar-app/daftar/internal/config"
	"github.com/daftar-app/daftar/internal/db"
	"github.com/daftar-app/daftar/internal/repository"
	"github.com/daftar-app/daftar/internal/service"
	"github.com/daftar-app/daftar/internal/storage"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Users          repository.UserRepository
	LicenseService *service.LicenseService
	ReportService  *service.ReportService
	MatchService   *service.MatchService
	EmailService   *service.EmailService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	licenseRepository := repository.NewLicenseRepository(database)
	reportRepository := repository.NewReportRepository(database)

	// Storage
	fileStorage, err := storage.New(storage.Config{
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Endpoint:      cfg.S3Endpoint,
		PresignExpiry: cfg.S3PresignExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AppName, cfg.IsDevelopment())
	licenseService := service.NewLicenseService(licenseRepository, reportRepository, fileStorage)
	reportService := service.NewReportService(reportRepository, fileStorage)
	matchService := service.NewMatchService(reportRepository, userRepository, emailService, fileStorage)

	return &App{
		Cfg:            cfg,
		DB:             database,
		Users:          userRepository,
		LicenseService: licenseService,
		ReportService:  reportService,
		MatchService:   matchService,
		EmailService:   emailService,
	}, nil
}

func (a *App) Close() error {
	if a.EmailService != nil {
		a.EmailService.Close()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
