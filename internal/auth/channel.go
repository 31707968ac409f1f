package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mgx/internal/models"
	"github.com/desertthunder/mgx/internal/server"
	"github.com/desertthunder/mgx/internal/shared"
)

// ProviderLocalFiles is the pseudo-provider for migrations sourced from
// local files, which require no authorization grant.
const ProviderLocalFiles = "local_files"

// Roles a provider can be authorized for in one migration.
const (
	RoleSource      = "source"
	RoleDestination = "destination"
)

// livenessInterval is the cadence of the closed-window probe.
var livenessInterval = time.Second

// Window is a handle to a launched authorization window.
type Window interface {
	// Closed reports whether the window is no longer open.
	Closed() bool
	// Close closes the window if it is still open.
	Close() error
}

// WindowOpener launches an authorization window for the given URL.
//
// A launch failure maps to [shared.ErrPopupBlocked].
type WindowOpener func(url string) (Window, error)

// Channel runs browser-based authorization handshakes against the engine.
type Channel struct {
	engineURL     string
	allowedOrigin string
	listenAddr    string
	openWindow    WindowOpener
	logger        *log.Logger
}

// NewChannel creates an authorization channel.
//
// engineURL is the engine base URL whose authorization page gets opened.
// The callback configuration supplies the loopback listen address and the
// origin allowed to post handshake messages. A nil opener uses the system
// browser.
func NewChannel(engineURL string, cfg shared.CallbackConfig, opener WindowOpener, logger *log.Logger) *Channel {
	if opener == nil {
		opener = OpenBrowserWindow
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Channel{
		engineURL:     engineURL,
		allowedOrigin: cfg.AllowedOrigin,
		listenAddr:    cfg.Addr(),
		openWindow:    opener,
		logger:        logger,
	}
}

// Authorize runs one authorization handshake for the given provider in the
// given role and returns the credential the engine's page reported.
//
// Returns [shared.ErrPopupBlocked] when the window cannot be opened,
// [shared.ErrAuthCancelled] when the user closes the window before
// authorizing or the context is done, and [shared.ErrAuthProvider] when the
// provider reports a failure. Local file sources short-circuit with a
// grant-free credential.
func (c *Channel) Authorize(ctx context.Context, provider, role string) (*models.AuthCredential, error) {
	if provider == "" {
		return nil, fmt.Errorf("%w: provider", shared.ErrMissingArgument)
	}
	if role != RoleSource && role != RoleDestination {
		return nil, fmt.Errorf("%w: role %q", shared.ErrInvalidArgument, role)
	}

	if provider == ProviderLocalFiles {
		c.logger.Debug("local source requires no authorization")
		return &models.AuthCredential{Provider: provider, IssuedAt: time.Now()}, nil
	}

	state := shared.GenerateID()
	handler := server.NewHandshakeHandler(provider, c.allowedOrigin, state)

	router := server.NewBasicRouter()
	router.Use(server.LogRequests(c.logger))
	router.Handler(handler)

	listener, err := net.Listen("tcp", c.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener: %w", err)
	}

	srv := &http.Server{Handler: router}
	go srv.Serve(listener)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := c.authorizeURL(provider, role, state, listener.Addr().String())
	c.logger.Info("opening authorization page", "provider", provider, "role", role, "url", authURL)

	window, err := c.openWindow(authURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPopupBlocked, err)
	}
	defer window.Close()

	ticker := time.NewTicker(livenessInterval)
	defer ticker.Stop()

	for {
		select {
		case result := <-handler.Result():
			if err := result.Error(); err != nil {
				return nil, err
			}
			c.logger.Info("authorization complete", "provider", provider)
			return result.Credential, nil

		case <-ticker.C:
			if window.Closed() {
				// Resolve the handler too so a late callback finds a
				// settled flow instead of a dangling channel. If the
				// handshake won the race, honor its result.
				handler.Cancel(fmt.Errorf("%w: window closed before authorization", shared.ErrAuthCancelled))
				return settle(<-handler.Result())
			}

		case <-ctx.Done():
			handler.Cancel(fmt.Errorf("%w: %v", shared.ErrAuthCancelled, ctx.Err()))
			return settle(<-handler.Result())
		}
	}
}

// settle converts a resolved handshake result into the Authorize return pair.
func settle(result server.HandshakeResult) (*models.AuthCredential, error) {
	if err := result.Error(); err != nil {
		return nil, err
	}
	return result.Credential, nil
}

// authorizeURL builds the engine authorization page URL, carrying the role,
// the state token, and the loopback callback address the page should post
// back to.
func (c *Channel) authorizeURL(provider, role, state, callbackAddr string) string {
	query := url.Values{}
	query.Set("role", role)
	query.Set("state", state)
	query.Set("callback", "http://"+callbackAddr+"/callback")
	return c.engineURL + "/auth/" + url.PathEscape(provider) + "?" + query.Encode()
}

// browserWindow wraps a launched system browser process.
//
// Closing the browser typically ends the launcher process, which is the best
// liveness signal available without a window manager integration.
type browserWindow struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// OpenBrowserWindow launches the system browser at the given URL and returns
// a [Window] tracking the launcher process.
func OpenBrowserWindow(url string) (Window, error) {
	cmd, err := shared.BrowserCommand(url)
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	w := &browserWindow{cmd: cmd, done: make(chan struct{})}
	go func() {
		cmd.Wait()
		close(w.done)
	}()
	return w, nil
}

func (w *browserWindow) Closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *browserWindow) Close() error {
	if w.Closed() {
		return nil
	}
	if w.cmd.Process != nil {
		return w.cmd.Process.Kill()
	}
	return nil
}
