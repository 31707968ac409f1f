package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/services"
	"github.com/desertthunder/mgx/internal/shared"
	tu "github.com/desertthunder/mgx/internal/testing"
	"github.com/urfave/cli/v3"
)

func testRunner(t *testing.T, opts RunnerOpts) (*Runner, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	opts.Output = out
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
		opts.Config.Database.Path = filepath.Join(t.TempDir(), "mgx.db")
	}
	return NewRunner(opts), out
}

func runApp(r *Runner, args ...string) error {
	app := &cli.Command{Name: "mgx", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"mgx"}, args...))
}

func writeLibrary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.json")
	if err := os.WriteFile(path, []byte(`{"songs": [{"title": "A", "artist": "B"}]}`), 0644); err != nil {
		t.Fatalf("failed to write library: %v", err)
	}
	return path
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(RunnerOpts{})

	if r.config == nil {
		t.Error("expected a default config")
	}
	if r.engine == nil || r.raw == nil || r.channel == nil {
		t.Error("expected default services to be constructed")
	}
	if r.output != os.Stdout {
		t.Error("expected stdout as the default output")
	}
}

func TestWriters(t *testing.T) {
	r, out := testRunner(t, RunnerOpts{Engine: &tu.MockEngine{}})

	t.Run("JSON Compact", func(t *testing.T) {
		out.Reset()
		if err := r.writeJSON(map[string]string{"key": "value"}, false); err != nil {
			t.Fatalf("writeJSON() unexpected error: %v", err)
		}
		if out.String() != "{\"key\":\"value\"}\n" {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("JSON Pretty", func(t *testing.T) {
		out.Reset()
		if err := r.writeJSON(map[string]string{"key": "value"}, true); err != nil {
			t.Fatalf("writeJSON() unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "  \"key\": \"value\"") {
			t.Errorf("expected indented output, got %q", out.String())
		}
	})

	t.Run("Plain Header", func(t *testing.T) {
		out.Reset()
		r.writePlainHeader("Title")
		if !strings.Contains(out.String(), "Title") {
			t.Errorf("expected header output, got %q", out.String())
		}
	})
}

func TestMigratePreview(t *testing.T) {
	engine := &tu.MockEngine{
		UploadFunc: func(ctx context.Context, payload []byte) (*models.UploadPreview, error) {
			return &models.UploadPreview{
				TotalSongs: 42,
				Playlists:  3,
				SampleSong: &models.Song{Title: "First Song", Artist: "Someone"},
			}, nil
		},
	}
	r, out := testRunner(t, RunnerOpts{Engine: engine})

	if err := runApp(r, "migrate", "preview", writeLibrary(t)); err != nil {
		t.Fatalf("preview failed: %v", err)
	}

	if !strings.Contains(out.String(), "Songs: 42") {
		t.Errorf("expected song count in output, got %q", out.String())
	}
	if !strings.Contains(out.String(), "First Song") {
		t.Errorf("expected sample song in output, got %q", out.String())
	}
}

func TestMigrateRun(t *testing.T) {
	statuses := []*models.Session{
		{ID: "s1", Status: models.StatusProcessing, Totals: models.Totals{Total: 2, Processed: 1, Accepted: 1}},
		{ID: "s1", Status: models.StatusCompleted, Totals: models.Totals{Total: 2, Processed: 2, Accepted: 2}},
	}
	call := 0
	engine := &tu.MockEngine{
		UploadFunc: func(ctx context.Context, payload []byte) (*models.UploadPreview, error) {
			return &models.UploadPreview{TotalSongs: 2}, nil
		},
		StartMigrationFunc: func(ctx context.Context, payload []byte, config models.MigrationConfig) (*models.StartResponse, error) {
			if config.DryRun != true {
				t.Error("expected the dry-run flag to reach the engine")
			}
			return &models.StartResponse{SessionID: "s1", Status: models.StatusInitializing}, nil
		},
		StatusFunc: func(ctx context.Context, sessionID string) (*models.Session, error) {
			idx := call
			if idx >= len(statuses) {
				idx = len(statuses) - 1
			}
			call++
			return statuses[idx].Clone(), nil
		},
		ResultsFunc: func(ctx context.Context, sessionID string) (*models.MigrationResult, error) {
			return &models.MigrationResult{
				SessionID: sessionID,
				Totals:    models.Totals{Total: 2, Processed: 2, Accepted: 2},
			}, nil
		},
	}

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "mgx.db")
	config.Engine.PollIntervalMS = 1
	r, out := testRunner(t, RunnerOpts{Engine: engine, Config: config})

	err := runApp(r, "migrate", "run", "--dest", "youtube", "--accept-best", "--dry-run", writeLibrary(t))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(out.String(), "Session: s1") {
		t.Errorf("expected session id in output, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Accepted: 2") {
		t.Errorf("expected totals in output, got %q", out.String())
	}
}

func TestMigrateStatus(t *testing.T) {
	engine := &tu.MockEngine{
		StatusFunc: func(ctx context.Context, sessionID string) (*models.Session, error) {
			return &models.Session{
				ID:     sessionID,
				Status: models.StatusProcessing,
				Totals: models.Totals{Total: 5, Processed: 3, Accepted: 3},
			}, nil
		},
	}
	r, out := testRunner(t, RunnerOpts{Engine: engine})

	if err := runApp(r, "migrate", "status", "s1"); err != nil {
		t.Fatalf("status failed: %v", err)
	}

	if !strings.Contains(out.String(), "\"session_id\": \"s1\"") {
		t.Errorf("expected session JSON, got %q", out.String())
	}
	if !strings.Contains(out.String(), "\"status\": \"processing\"") {
		t.Errorf("expected status JSON, got %q", out.String())
	}
}

func TestMigrateDecide(t *testing.T) {
	awaiting := &models.Session{
		ID:     "s1",
		Status: models.StatusAwaitingDecision,
		Totals: models.Totals{Total: 5, Processed: 3, Accepted: 3},
		PendingDecision: &models.PendingDecision{
			Song:       models.Song{Title: "Song", Artist: "Artist"},
			Candidates: []models.Candidate{{ID: "c1", MatchScore: 0.9}},
		},
	}
	engine := &tu.MockEngine{
		StatusFunc: func(ctx context.Context, sessionID string) (*models.Session, error) {
			return awaiting.Clone(), nil
		},
		SubmitDecisionFunc: func(ctx context.Context, req models.DecisionRequest) (*models.DecisionOutcome, error) {
			if req.Decision != models.ChoiceManual || req.CandidateID != "c1" {
				t.Errorf("unexpected decision request %+v", req)
			}
			return &models.DecisionOutcome{
				Session: &models.Session{ID: "s1", Status: models.StatusProcessing, Totals: models.Totals{Total: 5, Processed: 4, Accepted: 4}},
			}, nil
		},
	}
	r, out := testRunner(t, RunnerOpts{Engine: engine})

	err := runApp(r, "migrate", "decide", "--choice", "manual", "--candidate", "c1", "s1")
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}

	if !strings.Contains(out.String(), "session is processing") {
		t.Errorf("expected outcome in output, got %q", out.String())
	}
}

func TestAuthStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "providers": ["spotify"]}`))
	}))
	defer server.Close()

	r, out := testRunner(t, RunnerOpts{
		Engine: &tu.MockEngine{},
		Raw:    services.NewRawService(server.URL, nil),
	})

	if err := runApp(r, "auth", "status"); err != nil {
		t.Fatalf("status failed: %v", err)
	}

	if !strings.Contains(out.String(), "Engine is healthy") {
		t.Errorf("expected healthy output, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Providers: 1 connected") {
		t.Errorf("expected provider count, got %q", out.String())
	}
}

func TestAPICommands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case http.MethodGet:
			w.Write([]byte(`{"sessions": []}`))
		case http.MethodPost:
			w.Write([]byte(`{"ok": true}`))
		}
	}))
	defer server.Close()

	r, out := testRunner(t, RunnerOpts{
		Engine: &tu.MockEngine{},
		Raw:    services.NewRawService(server.URL, nil),
	})

	t.Run("Get", func(t *testing.T) {
		out.Reset()
		if err := runApp(r, "api", "get", "/sessions"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !strings.Contains(out.String(), "sessions") {
			t.Errorf("expected JSON output, got %q", out.String())
		}
	})

	t.Run("Post", func(t *testing.T) {
		out.Reset()
		if err := runApp(r, "api", "post", "--data", `{"x": 1}`, "/sessions"); err != nil {
			t.Fatalf("post failed: %v", err)
		}
		if !strings.Contains(out.String(), "\"ok\": true") {
			t.Errorf("expected JSON output, got %q", out.String())
		}
	})

	t.Run("Post Rejects Invalid JSON", func(t *testing.T) {
		err := runApp(r, "api", "post", "--data", "not json", "/sessions")
		if err == nil {
			t.Error("expected an error for malformed JSON")
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	// The template database path is relative, so run from the temp dir
	wd := tu.MustGetwd(t)
	tu.MustChdir(t, dir)
	defer tu.MustChdir(t, wd)

	r, _ := testRunner(t, RunnerOpts{Engine: &tu.MockEngine{}})

	if err := runApp(r, "setup", "database", "--config", configPath); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	tu.AssertFileExists(t, configPath)
	tu.AssertFileExists(t, filepath.Join(dir, "mgx.db"))
}
