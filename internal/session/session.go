// Package session is the process-wide authentication context: the current
// bearer token, its persistence, and the invalidation hooks that reset any
// state tied to the signed-in identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Session holds the current token. It implements backend.TokenSource.
type Session struct {
	store TokenStore

	mu     sync.RWMutex
	token  string
	resets []func()
}

func New(store TokenStore) *Session {
	return &Session{store: store}
}

// Restore loads a previously saved token from the store.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Set replaces the token. A new identity invalidates everything cached for
// the previous one, so reset hooks run when a different token was held.
func (s *Session) Set(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	if err := s.store.Save(ctx, token); err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.token
	s.token = token
	resets := s.resets
	s.mu.Unlock()

	if prev != "" && prev != token {
		runAll(resets)
	}
	return nil
}

// Clear drops the token and runs every reset hook. The in-memory token is
// cleared even when the store fails, and the store error is returned.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	resets := s.resets
	s.mu.Unlock()

	runAll(resets)

	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	return nil
}

// OnInvalidate registers fn to run whenever the session identity is dropped
// or replaced. Hooks run without the session lock held.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets = append(s.resets, fn)
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
