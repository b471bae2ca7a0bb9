package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir, logger.InitLogger("session-test", logger.LevelError)), dir
}

func TestIdentityRoundTrip(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	identity := &models.Identity{
		ID:    "u-1",
		Name:  "Ayesha",
		Phone: "+923001234567",
		Role:  types.RoleUser,
		Token: "tok-abc",
	}

	if err := store.SetIdentity(ctx, identity); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	// A fresh store over the same directory simulates a process restart.
	restarted := NewStore(dir, logger.InitLogger("session-test", logger.LevelError))
	got, err := restarted.Load(ctx)
	if err != nil {
		t.Fatalf("Load after restart: %v", err)
	}

	if *got != *identity {
		t.Fatalf("restored identity = %+v, want %+v", got, identity)
	}
}

func TestLoadNoSavedState(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load(context.Background())
	if !errors.Is(err, types.ErrNoSavedState) {
		t.Fatalf("Load on empty dir = %v, want ErrNoSavedState", err)
	}
	if store.Current() != nil {
		t.Fatal("Current() should stay nil after a failed load")
	}
}

func TestLoadCorruptBlobIsStorageUnavailable(t *testing.T) {
	store, dir := newTestStore(t)

	if err := os.WriteFile(filepath.Join(dir, identityFile), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(context.Background())
	if !errors.Is(err, types.ErrStorageUnavailable) {
		t.Fatalf("Load on corrupt blob = %v, want ErrStorageUnavailable", err)
	}
	if errors.Is(err, types.ErrNoSavedState) {
		t.Fatal("corrupt storage must not be reported as no saved state")
	}
}

func TestLogoutDeletesBlobs(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	if err := store.SetIdentity(ctx, &models.Identity{ID: "u-2", Role: types.RoleDriver}); err != nil {
		t.Fatal(err)
	}
	if err := store.SetLastRide(ctx, &models.RideSession{RideID: "r-1", RideRoom: "room-r-1"}); err != nil {
		t.Fatal(err)
	}

	if err := store.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if store.Current() != nil || store.LastRide() != nil {
		t.Fatal("Logout must clear in-memory state")
	}
	if _, err := os.Stat(filepath.Join(dir, identityFile)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("identity blob should be deleted")
	}
	if _, err := os.Stat(filepath.Join(dir, lastRideFile)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("ride blob should be deleted")
	}

	// Logging out twice is fine.
	if err := store.Logout(ctx); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestLastRideRoundTrip(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	ride := &models.RideSession{
		RideRoom:        "room-42",
		RideID:          "42",
		PickupLocation:  models.LatLng{Lat: 24.86, Lng: 67.00},
		DropoffLocation: models.LatLng{Lat: 24.90, Lng: 67.05},
		DriverName:      "Bilal",
		LicensePlate:    "KHI-482",
		Fare:            265,
	}
	if err := store.SetLastRide(ctx, ride); err != nil {
		t.Fatal(err)
	}

	restarted := NewStore(dir, logger.InitLogger("session-test", logger.LevelError))
	got, err := restarted.LoadLastRide(ctx)
	if err != nil {
		t.Fatalf("LoadLastRide: %v", err)
	}
	if got.RideRoom != ride.RideRoom || got.LicensePlate != ride.LicensePlate || got.Fare != ride.Fare {
		t.Fatalf("restored ride = %+v, want %+v", got, ride)
	}
}
