package service

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daftar-app/daftar/internal/db"
	"github.com/daftar-app/daftar/internal/model"
	"github.com/daftar-app/daftar/internal/repository"
	"github.com/daftar-app/daftar/internal/validation"
)

// testEnv wires the services against a migrated throwaway sqlite database,
// an in-memory file store, and a recording notifier.
type testEnv struct {
	users    repository.UserRepository
	licenses repository.LicenseRepository
	reports  repository.ReportRepository

	store    *memStorage
	notifier *recordingNotifier

	licenseService *LicenseService
	reportService  *ReportService
	matchService   *MatchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := db.RunMigrations(database.DB, "sqlite"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	env := &testEnv{
		users:    repository.NewUserRepository(database),
		licenses: repository.NewLicenseRepository(database),
		reports:  repository.NewReportRepository(database),
		store:    newMemStorage(),
		notifier: &recordingNotifier{},
	}
	env.licenseService = NewLicenseService(env.licenses, env.reports, env.store)
	env.reportService = NewReportService(env.reports, env.store)
	env.matchService = NewMatchService(env.reports, env.users, env.notifier, env.store)

	return env
}

func (e *testEnv) createUser(t *testing.T, email string, isAdmin bool) *model.User {
	t.Helper()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now(),
	}
	if err := e.users.Create(user); err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

func (e *testEnv) createLicense(t *testing.T, name string, drafts []validation.PropertyTypeDraft) *model.License {
	t.Helper()
	license, err := e.licenseService.Create(name, drafts)
	if err != nil {
		t.Fatalf("failed to create license %s: %v", name, err)
	}
	return license
}

// fieldByName resolves a property type by its display name, for tests that
// would otherwise have to track generated IDs.
func fieldByName(t *testing.T, license *model.License, name string) *model.PropertyType {
	t.Helper()
	for _, pt := range license.PropertyTypes {
		if pt.Name == name {
			return pt
		}
	}
	t.Fatalf("license %s has no field named %s", license.Name, name)
	return nil
}

func textInput(value string) *FieldInput {
	return &FieldInput{Value: value}
}

func fileInput(t *testing.T, filename string, content []byte) *FieldInput {
	t.Helper()
	return &FieldInput{File: uploadHeader(t, filename, content)}
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func pngUpload(t *testing.T, filename string) *FieldInput {
	t.Helper()
	content := make([]byte, 256)
	copy(content, pngMagic)
	return fileInput(t, filename, content)
}

// uploadHeader round-trips content through a multipart form so the header
// looks exactly like one produced by an HTTP request.
func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1<<20)
	if err != nil {
		t.Fatalf("failed to read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

// memStorage is an in-memory Storage for tests.
type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) Save(path string, file io.Reader) error {
	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
	return nil
}

func (m *memStorage) Delete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *memStorage) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *memStorage) URL(path string) string {
	return "https://files.test/" + path
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func (m *memStorage) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *memStorage) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	return out
}

// recordingNotifier captures queued match notifications.
type recordingNotifier struct {
	mu            sync.Mutex
	notifications []MatchNotification
}

func (r *recordingNotifier) QueueMatchFound(n MatchNotification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingNotifier) sent() []MatchNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MatchNotification(nil), r.notifications...)
}

// walletDrafts is a typical schema: one shared match key, a loser-only
// detail, a loser-only photo, and a finder-only detail.
func walletDrafts() []validation.PropertyTypeDraft {
	return []validation.PropertyTypeDraft{
		{Name: "Serial", ValueType: "text", Hint: "Number on the back", ShowToLoser: true, ShowToFinder: true},
		{Name: "Owner", ValueType: "text", ShowToLoser: true},
		{Name: "Photo", ValueType: "image", ShowToLoser: true},
		{Name: "Where found", ValueType: "text", ShowToFinder: true},
	}
}

// assertFieldError checks a failure is a validation error keyed by the
// given property type.
func assertFieldError(t *testing.T, err error, pt *model.PropertyType) {
	t.Helper()
	verrs, ok := err.(validation.Errors)
	if !ok {
		t.Fatalf("error = %v (%T), want validation.Errors", err, err)
	}
	if _, ok := verrs[FieldKey(pt.ID)]; !ok {
		t.Fatalf("errors %v missing key for field %s", verrs, pt.Name)
	}
}

// insertReport writes a report with explicit timestamps straight through
// the repository, for tests that depend on creation order.
func (e *testEnv) insertReport(t *testing.T, kind model.ReportKind, user *model.User, license *model.License, createdAt time.Time, values map[string]string) *model.Report {
	t.Helper()

	report := &model.Report{
		ID:        uuid.New().String(),
		Kind:      kind,
		UserID:    user.ID,
		LicenseID: license.ID,
		CreatedAt: createdAt,
	}
	var properties []*model.Property
	for _, pt := range license.PropertyTypes {
		value, ok := values[pt.Name]
		if !ok {
			continue
		}
		properties = append(properties, &model.Property{
			ID:             uuid.New().String(),
			ReportID:       report.ID,
			PropertyTypeID: pt.ID,
			Value:          value,
			CreatedAt:      createdAt,
		})
	}
	if err := e.reports.Create(report, properties); err != nil {
		t.Fatalf("failed to insert report: %v", err)
	}
	report.Properties = properties
	return report
}

func reportIDs(reports []*model.Report) string {
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ID)
	}
	return fmt.Sprintf("[%s]", strings.Join(ids, " "))
}
