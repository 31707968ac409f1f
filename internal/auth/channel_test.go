package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/server"
	"github.com/desertthunder/mgx/internal/shared"
)

const testOrigin = "http://localhost:8000"

type fakeWindow struct {
	mu     sync.Mutex
	closed bool
}

func (w *fakeWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// capturingOpener records the authorization URL and hands out a fake window.
type capturingOpener struct {
	mu     sync.Mutex
	url    string
	window *fakeWindow
	err    error
	opened chan struct{}
}

func newCapturingOpener(err error) *capturingOpener {
	return &capturingOpener{
		window: &fakeWindow{},
		err:    err,
		opened: make(chan struct{}),
	}
}

func (o *capturingOpener) open(authURL string) (Window, error) {
	o.mu.Lock()
	o.url = authURL
	o.mu.Unlock()
	close(o.opened)

	if o.err != nil {
		return nil, o.err
	}
	return o.window, nil
}

// authParams waits for the window to open and extracts the state token and
// callback URL the channel embedded in the authorization page URL.
func (o *capturingOpener) authParams(t *testing.T) (state, callback string) {
	t.Helper()

	select {
	case <-o.opened:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for window to open")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	parsed, err := url.Parse(o.url)
	if err != nil {
		t.Fatalf("failed to parse auth URL %q: %v", o.url, err)
	}
	return parsed.Query().Get("state"), parsed.Query().Get("callback")
}

func postHandshake(t *testing.T, callback, origin string, msg server.HandshakeMessage) *http.Response {
	t.Helper()

	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to encode message: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, callback, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", origin)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to post handshake: %v", err)
	}
	resp.Body.Close()
	return resp
}

func testChannel(opener *capturingOpener) *Channel {
	cfg := shared.CallbackConfig{Host: "127.0.0.1", Port: 0, AllowedOrigin: testOrigin}
	return NewChannel(testOrigin, cfg, opener.open, nil)
}

func TestChannelAuthorize(t *testing.T) {
	origInterval := livenessInterval
	livenessInterval = 10 * time.Millisecond
	defer func() { livenessInterval = origInterval }()

	t.Run("Successful Handshake", func(t *testing.T) {
		opener := newCapturingOpener(nil)
		channel := testChannel(opener)

		go func() {
			state, callback := opener.authParams(t)
			postHandshake(t, callback, testOrigin, server.HandshakeMessage{
				Type:        server.MessageAuthSuccess,
				State:       state,
				AccessToken: "token_1",
				User:        &models.AuthUser{ID: "u1"},
				Playlists:   []models.AuthPlaylist{{ID: "p1", Name: "Favorites"}},
			})
		}()

		credential, err := channel.Authorize(context.Background(), "spotify", RoleSource)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if credential.Provider != "spotify" {
			t.Errorf("expected provider spotify, got %s", credential.Provider)
		}
		if credential.Token == nil || credential.Token.AccessToken != "token_1" {
			t.Error("expected credential to carry the access token")
		}

		opener.mu.Lock()
		authURL := opener.url
		opener.mu.Unlock()
		if !strings.Contains(authURL, "/auth/spotify") {
			t.Errorf("expected provider path in auth URL %q", authURL)
		}
		if !strings.Contains(authURL, "role=source") {
			t.Errorf("expected role parameter in auth URL %q", authURL)
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		opener := newCapturingOpener(nil)
		channel := testChannel(opener)

		go func() {
			state, callback := opener.authParams(t)
			postHandshake(t, callback, testOrigin, server.HandshakeMessage{
				Type:  server.MessageAuthError,
				State: state,
				Error: "access_denied",
			})
		}()

		_, err := channel.Authorize(context.Background(), "spotify", RoleSource)
		if !errors.Is(err, shared.ErrAuthProvider) {
			t.Errorf("expected ErrAuthProvider, got %v", err)
		}
	})

	t.Run("Blocked Window", func(t *testing.T) {
		opener := newCapturingOpener(errors.New("no display"))
		channel := testChannel(opener)

		_, err := channel.Authorize(context.Background(), "spotify", RoleSource)
		if !errors.Is(err, shared.ErrPopupBlocked) {
			t.Errorf("expected ErrPopupBlocked, got %v", err)
		}
	})

	t.Run("Window Closed Before Authorizing", func(t *testing.T) {
		opener := newCapturingOpener(nil)
		channel := testChannel(opener)

		go func() {
			opener.authParams(t)
			opener.window.Close()
		}()

		_, err := channel.Authorize(context.Background(), "spotify", RoleSource)
		if !errors.Is(err, shared.ErrAuthCancelled) {
			t.Errorf("expected ErrAuthCancelled, got %v", err)
		}
	})

	t.Run("Context Cancelled", func(t *testing.T) {
		opener := newCapturingOpener(nil)
		channel := testChannel(opener)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			opener.authParams(t)
			cancel()
		}()

		_, err := channel.Authorize(ctx, "spotify", RoleSource)
		if !errors.Is(err, shared.ErrAuthCancelled) {
			t.Errorf("expected ErrAuthCancelled, got %v", err)
		}
	})

	t.Run("Unknown Origin Does Not Resolve", func(t *testing.T) {
		opener := newCapturingOpener(nil)
		channel := testChannel(opener)

		go func() {
			state, callback := opener.authParams(t)
			// Discarded: wrong origin
			postHandshake(t, callback, "http://evil.example.com", server.HandshakeMessage{
				Type:        server.MessageAuthSuccess,
				State:       state,
				AccessToken: "stolen",
			})
			// Honored: right origin
			postHandshake(t, callback, testOrigin, server.HandshakeMessage{
				Type:        server.MessageAuthSuccess,
				State:       state,
				AccessToken: "token_1",
			})
		}()

		credential, err := channel.Authorize(context.Background(), "spotify", RoleSource)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if credential.Token.AccessToken != "token_1" {
			t.Errorf("expected the legitimate token, got %s", credential.Token.AccessToken)
		}
	})

	t.Run("Local Files Short-Circuit", func(t *testing.T) {
		opener := newCapturingOpener(nil)
		channel := testChannel(opener)

		credential, err := channel.Authorize(context.Background(), ProviderLocalFiles, RoleSource)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if credential.Provider != ProviderLocalFiles {
			t.Errorf("expected local_files provider, got %s", credential.Provider)
		}
		if credential.Token != nil {
			t.Error("local source should carry no token")
		}

		select {
		case <-opener.opened:
			t.Error("no window should open for local sources")
		default:
		}
	})

	t.Run("Missing Provider", func(t *testing.T) {
		opener := newCapturingOpener(nil)
		channel := testChannel(opener)

		_, err := channel.Authorize(context.Background(), "", RoleSource)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Invalid Role", func(t *testing.T) {
		opener := newCapturingOpener(nil)
		channel := testChannel(opener)

		_, err := channel.Authorize(context.Background(), "spotify", "observer")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
