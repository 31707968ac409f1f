package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/shared"
	"golang.org/x/oauth2"
)

// Handshake message types posted by the engine's authorization page.
const (
	MessageAuthSuccess = "AUTH_SUCCESS"
	MessageAuthError   = "AUTH_ERROR"
)

// HandshakeMessage is the JSON body the engine's authorization page posts to
// the local callback endpoint once the user authorizes (or the provider fails).
type HandshakeMessage struct {
	Type         string                `json:"type"`
	State        string                `json:"state"`
	AccessToken  string                `json:"access_token,omitempty"`
	RefreshToken string                `json:"refresh_token,omitempty"`
	ExpiresIn    int                   `json:"expires_in,omitempty"`
	User         *models.AuthUser      `json:"user,omitempty"`
	Playlists    []models.AuthPlaylist `json:"playlists,omitempty"`
	Error        string                `json:"error,omitempty"`
}

// HandshakeResult contains the result of an authorization handshake.
type HandshakeResult struct {
	Credential *models.AuthCredential
	err        error
}

func (r *HandshakeResult) Error() error {
	return r.err
}

// HandshakeHandler handles the completion callback of an authorization flow.
// Implements the Handler interface for registration with a Router.
//
// Messages whose Origin header or state token do not match are discarded
// without resolving the handshake, mirroring how a cross-window message
// listener ignores posts from unknown origins.
type HandshakeHandler struct {
	provider      string
	allowedOrigin string
	state         string
	resultChan    chan HandshakeResult
	once          sync.Once
	handled       bool
	mu            sync.Mutex
}

// NewHandshakeHandler creates a handshake handler for one authorization flow.
// The state token should be cryptographically random for CSRF protection.
func NewHandshakeHandler(provider, allowedOrigin, state string) *HandshakeHandler {
	return &HandshakeHandler{
		provider:      provider,
		allowedOrigin: allowedOrigin,
		state:         state,
		resultChan:    make(chan HandshakeResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *HandshakeHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the handshake callback request.
//
// Validates the Origin header and state token, then resolves the handshake
// exactly once with either a credential or a provider error.
func (h *HandshakeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		if origin != h.allowedOrigin {
			// Unknown origin: discard silently, keep waiting
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", h.allowedOrigin)
	}

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg HandshakeMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "Malformed handshake message", http.StatusBadRequest)
		return
	}

	if msg.State != h.state {
		// Wrong or missing state: not our flow, keep waiting
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if msg.Type != MessageAuthSuccess && msg.Type != MessageAuthError {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.mu.Lock()
	if h.handled {
		h.mu.Unlock()
		http.Error(w, "Handshake already processed", http.StatusBadRequest)
		return
	}
	h.handled = true
	h.mu.Unlock()

	if msg.Type == MessageAuthError {
		reason := msg.Error
		if reason == "" {
			reason = "no reason given"
		}
		h.Send(HandshakeResult{err: fmt.Errorf("%w: %s", shared.ErrAuthProvider, reason)})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]bool{"received": true})
		return
	}

	credential := &models.AuthCredential{
		Provider:  h.provider,
		User:      msg.User,
		Playlists: msg.Playlists,
		IssuedAt:  time.Now(),
	}
	if msg.AccessToken != "" {
		credential.Token = &oauth2.Token{
			AccessToken:  msg.AccessToken,
			RefreshToken: msg.RefreshToken,
			TokenType:    "Bearer",
		}
		if msg.ExpiresIn > 0 {
			credential.Token.Expiry = time.Now().Add(time.Duration(msg.ExpiresIn) * time.Second)
		}
	}

	if err := credential.Validate(); err != nil {
		h.Send(HandshakeResult{err: fmt.Errorf("%w: %v", shared.ErrAuthProvider, err)})
		http.Error(w, "Invalid handshake payload", http.StatusBadRequest)
		return
	}

	h.Send(HandshakeResult{Credential: credential})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

// Cancel resolves the handshake with a cancellation error.
//
// Safe to call concurrently with an in-flight callback; whichever resolves
// first wins and the other becomes a no-op.
func (h *HandshakeHandler) Cancel(reason error) {
	if reason == nil {
		reason = shared.ErrAuthCancelled
	}
	h.Send(HandshakeResult{err: reason})
}

// Send sends the handshake result through the channel (only once).
func (h *HandshakeHandler) Send(result HandshakeResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving handshake completion.
//
// Channel will receive exactly one result and then be closed.
func (h *HandshakeHandler) Result() <-chan HandshakeResult {
	return h.resultChan
}
