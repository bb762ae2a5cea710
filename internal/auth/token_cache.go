// Package auth provides Spotify OAuth2 authentication with token caching.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const (
	configDirName = "spotify-insights"
	tokenFileName = "token.json"

	tokenDirMode  = 0700
	tokenFileMode = 0600
)

// TokenCache persists the OAuth token between runs so the pipeline commands
// can authenticate without re-opening a browser. Like the artifact store, it
// never leaves a partial file behind: writes go to a temp file that is
// renamed into place.
type TokenCache struct {
	path string
}

// DefaultTokenCache places the cache in the user config dir,
// ~/.config/spotify-insights/token.json on Linux.
func DefaultTokenCache() (*TokenCache, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving user config dir: %w", err)
	}
	return NewTokenCache(filepath.Join(configDir, configDirName, tokenFileName)), nil
}

// NewTokenCache caches the token at the given path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Path reports where the token is cached.
func (c *TokenCache) Path() string {
	return c.path
}

// Load returns the cached token, or (nil, nil) when nothing is cached yet.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("reading cached token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing cached token %s: %w", c.path, err)
	}
	return &token, nil
}

// Save replaces the cached token atomically. The directory is created with
// owner-only permissions; the token file itself is 0600.
func (c *TokenCache) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("cannot cache a nil token")
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, tokenDirMode); err != nil {
		return fmt.Errorf("creating token cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tokenFileName+".*")
	if err != nil {
		return fmt.Errorf("creating token temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(tokenFileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("restricting token file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing token temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replacing cached token: %w", err)
	}
	return nil
}

// Delete removes the cached token. Deleting an absent cache is not an error,
// so logout is idempotent.
func (c *TokenCache) Delete() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cached token: %w", err)
	}
	return nil
}
