package persistence

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Credentials holds the remote write token. Anyone may read it; only the
// bootstrap methods write it.
type Credentials struct {
	mu    sync.RWMutex
	token string
	store LocalStore
}

// NewCredentials returns an empty slot persisted to store under TokenKey.
// store may be nil for a process-only slot.
func NewCredentials(store LocalStore) *Credentials {
	return &Credentials{store: store}
}

func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Credentials) HasToken() bool {
	return c.Token() != ""
}

// Restore loads a previously captured token from the local store.
func (c *Credentials) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	v, ok, err := c.store.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("restore token: %w", err)
	}
	if ok && strings.TrimSpace(v) != "" {
		c.mu.Lock()
		c.token = strings.TrimSpace(v)
		c.mu.Unlock()
	}
	return nil
}

// Bootstrap captures the token query parameter of rawURL, persists it and
// returns the URL with the parameter removed. Other parameters are kept.
// When no token is present rawURL is returned unchanged.
func (c *Credentials) Bootstrap(ctx context.Context, rawURL string) (string, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, false, fmt.Errorf("parse launch url: %w", err)
	}
	q := u.Query()
	if !q.Has(TokenParam) {
		return rawURL, false, nil
	}
	token := strings.TrimSpace(q.Get(TokenParam))
	q.Del(TokenParam)
	u.RawQuery = q.Encode()
	scrubbed := u.String()
	if token == "" {
		return scrubbed, false, nil
	}
	if err := c.Set(ctx, token); err != nil {
		return scrubbed, false, err
	}
	return scrubbed, true, nil
}

// Set stores token directly, e.g. from the environment.
func (c *Credentials) Set(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if c.store != nil {
		if err := c.store.Set(ctx, TokenKey, token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// Clear forgets the token in memory and in the local store.
func (c *Credentials) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Delete(ctx, TokenKey); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
	}
	return nil
}
