package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/internal/backend/token"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
)

func newAuthHarness(t *testing.T) *Auth {
	t.Helper()
	return NewAuth(
		store.NewMemory(),
		token.NewService("test-secret", time.Hour),
		logger.InitLogger("auth-test", logger.LevelError),
	)
}

func TestRegisterAndLoginUser(t *testing.T) {
	svc := newAuthHarness(t)
	ctx := context.Background()

	identity, err := svc.Register(ctx, types.RoleUser, RegisterParams{
		Name:     "Ayesha",
		Phone:    "+923001234567",
		Password: "secret-pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if identity.Token == "" {
		t.Fatal("registration returned no token")
	}
	if identity.Role != types.RoleUser {
		t.Fatalf("role = %q, want user", identity.Role)
	}

	logged, err := svc.LoginUser(ctx, "+923001234567", "secret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != identity.ID {
		t.Fatalf("login id = %q, want %q", logged.ID, identity.ID)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newAuthHarness(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, types.RoleUser, RegisterParams{
		Name: "Ayesha", Phone: "+923001234567", Password: "secret-pass",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, badPass := svc.LoginUser(ctx, "+923001234567", "wrong")
	_, noUser := svc.LoginUser(ctx, "+923000000000", "secret-pass")
	if !errors.Is(badPass, types.ErrInvalidCredentials) || !errors.Is(noUser, types.ErrInvalidCredentials) {
		t.Fatalf("bad password err = %v, missing user err = %v, want ErrInvalidCredentials for both", badPass, noUser)
	}
}

func TestDriverLoginUsesEmail(t *testing.T) {
	svc := newAuthHarness(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, types.RoleDriver, RegisterParams{
		Name:         "Bilal",
		Email:        "bilal@gocar.test",
		Phone:        "+923015556677",
		Password:     "secret-pass",
		LicensePlate: "KHI-786",
	}); err != nil {
		t.Fatalf("register driver: %v", err)
	}

	identity, err := svc.LoginDriver(ctx, "bilal@gocar.test", "secret-pass")
	if err != nil {
		t.Fatalf("login driver: %v", err)
	}
	if !identity.IsDriver() {
		t.Fatalf("identity role = %q, want driver", identity.Role)
	}

	// A rider with the same email does not collide with the driver pool.
	if _, err := svc.LoginUser(ctx, "+923015556677", "secret-pass"); !errors.Is(err, types.ErrInvalidCredentials) {
		t.Fatalf("driver phone in rider pool err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticateRoundTrip(t *testing.T) {
	svc := newAuthHarness(t)
	ctx := context.Background()

	identity, err := svc.Register(ctx, types.RoleUser, RegisterParams{
		Name: "Ayesha", Phone: "+923001234567", Password: "secret-pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	account, err := svc.Authenticate(ctx, identity.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if account.ID != identity.ID {
		t.Fatalf("account id = %q, want %q", account.ID, identity.ID)
	}

	if _, err := svc.Authenticate(ctx, "not-a-token"); err == nil {
		t.Fatal("garbage token authenticated")
	}
}
