// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/mgx/internal/models"
)

// MockEngine is a test double for the engine client. Each method delegates to
// the matching function field when set and returns zero values otherwise.
type MockEngine struct {
	UploadFunc         func(ctx context.Context, payload []byte) (*models.UploadPreview, error)
	StartMigrationFunc func(ctx context.Context, payload []byte, config models.MigrationConfig) (*models.StartResponse, error)
	StatusFunc         func(ctx context.Context, sessionID string) (*models.Session, error)
	SubmitDecisionFunc func(ctx context.Context, req models.DecisionRequest) (*models.DecisionOutcome, error)
	ResultsFunc        func(ctx context.Context, sessionID string) (*models.MigrationResult, error)
}

func (m *MockEngine) Upload(ctx context.Context, payload []byte) (*models.UploadPreview, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, payload)
	}
	return &models.UploadPreview{}, nil
}

func (m *MockEngine) StartMigration(ctx context.Context, payload []byte, config models.MigrationConfig) (*models.StartResponse, error) {
	if m.StartMigrationFunc != nil {
		return m.StartMigrationFunc(ctx, payload, config)
	}
	return &models.StartResponse{SessionID: "mock", Status: models.StatusProcessing}, nil
}

func (m *MockEngine) Status(ctx context.Context, sessionID string) (*models.Session, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, sessionID)
	}
	return &models.Session{ID: sessionID, Status: models.StatusProcessing}, nil
}

func (m *MockEngine) SubmitDecision(ctx context.Context, req models.DecisionRequest) (*models.DecisionOutcome, error) {
	if m.SubmitDecisionFunc != nil {
		return m.SubmitDecisionFunc(ctx, req)
	}
	return &models.DecisionOutcome{Session: &models.Session{ID: req.SessionID, Status: models.StatusProcessing}}, nil
}

func (m *MockEngine) Results(ctx context.Context, sessionID string) (*models.MigrationResult, error) {
	if m.ResultsFunc != nil {
		return m.ResultsFunc(ctx, sessionID)
	}
	return &models.MigrationResult{SessionID: sessionID}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
