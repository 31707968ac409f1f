package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/mgx/internal/shared"
	"golang.org/x/oauth2"
)

// AuthUser identifies the provider account that authorized the migration.
type AuthUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// AuthPlaylist is one playlist the authorized account exposes for migration.
type AuthPlaylist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"song_count"`
	Public    bool   `json:"public,omitempty"`
}

// AuthCredential is the result of a successful authorization handshake.
//
// Token is nil when the source is local files and no provider grant exists.
type AuthCredential struct {
	Provider  string         `json:"provider"`
	User      *AuthUser      `json:"user,omitempty"`
	Playlists []AuthPlaylist `json:"playlists,omitempty"`
	Token     *oauth2.Token  `json:"token,omitempty"`
	IssuedAt  time.Time      `json:"issued_at"`
}

// Validate checks that the credential names a provider and, for provider
// grants, carries a usable token.
func (c *AuthCredential) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("%w: provider", shared.ErrMissingArgument)
	}
	if c.Token != nil && c.Token.AccessToken == "" {
		return fmt.Errorf("%w: token without access token", shared.ErrInvalidInput)
	}
	return nil
}

// TokenSource returns an [oauth2.TokenSource] for the credential, or nil for
// local-file credentials that carry no grant.
func (c *AuthCredential) TokenSource() oauth2.TokenSource {
	if c.Token == nil {
		return nil
	}
	return oauth2.StaticTokenSource(c.Token)
}
