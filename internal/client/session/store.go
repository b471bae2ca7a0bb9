// Package session owns the durable local state of the app: who is signed in
// and which ride, if any, was last active. One JSON blob per slot, fixed file
// names, last write wins.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

const (
	identityFile = "userInfo.json"
	lastRideFile = "rideInfo.json"
)

type Store struct {
	dir string
	log logger.Logger

	mu       sync.Mutex
	identity *models.Identity
	lastRide *models.RideSession
}

func NewStore(dir string, log logger.Logger) *Store {
	return &Store{
		dir: dir,
		log: log,
	}
}

// Load reads the persisted identity into memory. A missing blob is
// types.ErrNoSavedState; an unreadable or unparsable blob is
// types.ErrStorageUnavailable. The two are distinct on purpose: "you are
// signed out" and "your storage is broken" need different handling upstream.
func (s *Store) Load(ctx context.Context) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "session_load")

	var identity models.Identity
	if err := s.readBlob(identityFile, &identity); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.mu.Lock()
	s.identity = &identity
	s.mu.Unlock()

	s.log.Debug(wrap.WithUserID(ctx, identity.ID), "restored saved identity", "role", identity.Role)
	return &identity, nil
}

// LoadLastRide restores the persisted ride session, with the same error
// contract as Load.
func (s *Store) LoadLastRide(ctx context.Context) (*models.RideSession, error) {
	ctx = wrap.WithAction(ctx, "session_load_last_ride")

	var ride models.RideSession
	if err := s.readBlob(lastRideFile, &ride); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.mu.Lock()
	s.lastRide = &ride
	s.mu.Unlock()

	return &ride, nil
}

// Current returns the in-memory identity, or nil when signed out.
func (s *Store) Current() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// LastRide returns the in-memory ride session, or nil.
func (s *Store) LastRide() *models.RideSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRide
}

// SetIdentity replaces the signed-in identity and writes it through to disk.
// Login and register, rider or driver, all land here.
func (s *Store) SetIdentity(ctx context.Context, identity *models.Identity) error {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, identity.ID), "session_set_identity")

	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()

	if err := s.writeBlob(identityFile, identity); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// Logout clears the identity and the last ride, in memory and on disk.
func (s *Store) Logout(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "session_logout")

	s.mu.Lock()
	s.identity = nil
	s.lastRide = nil
	s.mu.Unlock()

	if err := s.removeBlob(identityFile); err != nil {
		return wrap.Error(ctx, err)
	}
	if err := s.removeBlob(lastRideFile); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// SetLastRide persists the active ride session so a restart mid-ride can
// rejoin the tracking room.
func (s *Store) SetLastRide(ctx context.Context, ride *models.RideSession) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, ride.RideID), "session_set_last_ride")

	s.mu.Lock()
	s.lastRide = ride
	s.mu.Unlock()

	if err := s.writeBlob(lastRideFile, ride); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// ClearLastRide drops the ride session once it reaches a terminal state.
func (s *Store) ClearLastRide(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "session_clear_last_ride")

	s.mu.Lock()
	s.lastRide = nil
	s.mu.Unlock()

	if err := s.removeBlob(lastRideFile); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

func (s *Store) readBlob(name string, dst any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return types.ErrNoSavedState
	case err != nil:
		return fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: corrupt blob %s: %v", types.ErrStorageUnavailable, name, err)
	}
	return nil
}

func (s *Store) writeBlob(name string, src any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}

	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) removeBlob(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}
	return nil
}
