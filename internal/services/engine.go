// Engine service for driving migration jobs on the remote engine
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// EngineService implements [EngineClient] against the migration engine's HTTP API.
//
// All requests pass through a client-side rate limiter and carry a bearer
// token when a token source is configured.
type EngineService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     oauth2.TokenSource
}

// NewEngineService creates an engine client from configuration.
//
// A nil client falls back to a fresh [http.Client] with the configured timeout.
func NewEngineService(cfg shared.EngineConfig, client *http.Client) *EngineService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &EngineService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// SetTokenSource attaches the bearer token source obtained during the
// authorization handshake. Subsequent requests carry the token.
func (e *EngineService) SetTokenSource(ts oauth2.TokenSource) {
	e.tokens = ts
}

// do performs a rate-limited, optionally authenticated request and decodes a
// JSON response into result. Non-2xx statuses are mapped by mapStatus.
func (e *EngineService) do(ctx context.Context, method, path string, body io.Reader, contentType string, result any) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if e.tokens != nil {
		token, err := e.tokens.Token()
		if err != nil {
			return fmt.Errorf("%w: token source: %v", shared.ErrAuthProvider, err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mapStatus(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrNetwork, err)
		}
	}

	return nil
}

// mapStatus converts a non-2xx engine response into a typed error.
func mapStatus(resp *http.Response) error {
	var detail struct {
		Detail string `json:"detail"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(body, &detail)

	msg := detail.Detail
	if msg == "" {
		msg = fmt.Sprintf("status %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, msg)
	case http.StatusBadRequest, http.StatusConflict:
		return fmt.Errorf("%w: %s", shared.ErrStaleDecision, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrAuthProvider, msg)
	default:
		return fmt.Errorf("%w: %s", shared.ErrNetwork, msg)
	}
}

// Upload submits a library payload for parsing without starting a job.
func (e *EngineService) Upload(ctx context.Context, payload []byte) (*models.UploadPreview, error) {
	if err := shared.ValidateJSON(payload); err != nil {
		return nil, err
	}

	var preview models.UploadPreview
	if err := e.do(ctx, http.MethodPost, "/upload", bytes.NewReader(payload), "application/json", &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// StartMigration submits the payload and matching config as a multipart form,
// creating a new session on the engine.
func (e *EngineService) StartMigration(ctx context.Context, payload []byte, config models.MigrationConfig) (*models.StartResponse, error) {
	if err := shared.ValidateJSON(payload); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", "library.json")
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := form.WriteField("config", string(configJSON)); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	var started models.StartResponse
	if err := e.do(ctx, http.MethodPost, "/migrate/start", &buf, form.FormDataContentType(), &started); err != nil {
		return nil, err
	}
	if started.SessionID == "" {
		return nil, fmt.Errorf("%w: engine returned no session id", shared.ErrNetwork)
	}
	return &started, nil
}

// Status fetches the current session snapshot.
//
// Snapshots are validated before being returned so downstream consumers only
// ever see sessions that satisfy the counter and decision invariants.
func (e *EngineService) Status(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	var session models.Session
	if err := e.do(ctx, http.MethodGet, "/migrate/status/"+sessionID, nil, "", &session); err != nil {
		return nil, err
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("%w: malformed snapshot: %v", shared.ErrNetwork, err)
	}
	return &session, nil
}

// SubmitDecision resolves the pending decision for a session.
func (e *EngineService) SubmitDecision(ctx context.Context, req models.DecisionRequest) (*models.DecisionOutcome, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}
	if !req.Decision.Valid() {
		return nil, fmt.Errorf("%w: decision %q", shared.ErrInvalidArgument, req.Decision)
	}
	if req.Decision == models.ChoiceManual && req.CandidateID == "" {
		return nil, fmt.Errorf("%w: candidate id is required for manual decisions", shared.ErrMissingArgument)
	}
	if req.Decision != models.ChoiceManual {
		req.CandidateID = ""
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode decision: %w", err)
	}

	var outcome models.DecisionOutcome
	if err := e.do(ctx, http.MethodPost, "/migrate/decision", bytes.NewReader(body), "application/json", &outcome); err != nil {
		return nil, err
	}
	if outcome.Session == nil {
		return nil, fmt.Errorf("%w: decision response missing session", shared.ErrNetwork)
	}
	if err := outcome.Session.Validate(); err != nil {
		return nil, fmt.Errorf("%w: malformed snapshot: %v", shared.ErrNetwork, err)
	}
	return &outcome, nil
}

// Results fetches the final itemized outcomes of a finished session.
func (e *EngineService) Results(ctx context.Context, sessionID string) (*models.MigrationResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	var result models.MigrationResult
	if err := e.do(ctx, http.MethodGet, "/migrate/results/"+sessionID, nil, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}
