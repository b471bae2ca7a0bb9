package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gocar-app/gocar/internal/backend/events"
	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	"github.com/gocar-app/gocar/pkg/uuid"
)

type push struct {
	to      string
	event   string
	payload any
}

// fakeDispatcher records pushes instead of writing to sockets.
type fakeDispatcher struct {
	mu      sync.Mutex
	online  []string
	users   []push
	drivers []push
}

func (d *fakeDispatcher) SendToUser(userID, event string, payload any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = append(d.users, push{to: userID, event: event, payload: payload})
	return nil
}

func (d *fakeDispatcher) SendToDriver(driverID, event string, payload any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drivers = append(d.drivers, push{to: driverID, event: event, payload: payload})
	return nil
}

func (d *fakeDispatcher) OnlineDrivers() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.online...)
}

func (d *fakeDispatcher) driverPushes() []push {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]push(nil), d.drivers...)
}

func (d *fakeDispatcher) userPushes() []push {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]push(nil), d.users...)
}

func newRidesHarness(t *testing.T) (*Rides, *store.Memory, *fakeDispatcher) {
	t.Helper()
	st := store.NewMemory()
	gw := &fakeDispatcher{}
	log := logger.InitLogger("rides-test", logger.LevelError)
	return NewRides(st, gw, events.NewPublisher(nil, log), log), st, gw
}

func addAccount(t *testing.T, st *store.Memory, role types.Role, gender types.Gender) *store.Account {
	t.Helper()
	a := &store.Account{
		ID:     uuid.NewString(),
		Name:   "Account " + string(role),
		Phone:  "+92" + uuid.NewString(),
		Email:  uuid.NewString() + "@gocar.test",
		Role:   role,
		Gender: gender,
	}
	if err := st.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func testRequest(userID string) models.RideRequest {
	return models.RideRequest{
		UserID: userID,
		Pickup: models.Location{
			Latitude:  24.8607,
			Longitude: 67.0011,
			Address:   "Saddar, Karachi",
		},
		Dropoff: models.Location{
			Latitude:  24.9265,
			Longitude: 67.0882,
			Address:   "Gulshan-e-Iqbal, Karachi",
		},
		VehicleType: types.VehicleCar,
		DistanceKm:  6.7,
		Fare:        1072,
	}
}

func TestRequestFansOutToOnlineDrivers(t *testing.T) {
	svc, st, gw := newRidesHarness(t)
	ctx := context.Background()

	user := addAccount(t, st, types.RoleUser, types.GenderMale)
	d1 := addAccount(t, st, types.RoleDriver, types.GenderMale)
	d2 := addAccount(t, st, types.RoleDriver, types.GenderFemale)
	gw.online = []string{d1.ID, d2.ID}

	rideID, err := svc.Request(ctx, testRequest(user.ID))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	pushes := gw.driverPushes()
	if len(pushes) != 2 {
		t.Fatalf("got %d driver pushes, want 2", len(pushes))
	}
	for _, p := range pushes {
		if p.event != models.EventRideRequest {
			t.Fatalf("pushed %q, want %q", p.event, models.EventRideRequest)
		}
		offer, ok := p.payload.(models.RideOffer)
		if !ok {
			t.Fatalf("payload is %T, want RideOffer", p.payload)
		}
		if offer.RideID != rideID {
			t.Errorf("offer rideId = %q, want %q", offer.RideID, rideID)
		}
		if offer.DriverID != p.to {
			t.Errorf("offer driverId = %q, want %q", offer.DriverID, p.to)
		}
		if offer.UserPhone != user.Phone {
			t.Errorf("offer userPhone = %q, want %q", offer.UserPhone, user.Phone)
		}
	}
	if len(gw.userPushes()) != 0 {
		t.Errorf("rider got %d pushes, want none", len(gw.userPushes()))
	}
}

func TestRequestWithNoDriversOnline(t *testing.T) {
	svc, st, gw := newRidesHarness(t)
	ctx := context.Background()

	user := addAccount(t, st, types.RoleUser, types.GenderMale)

	rideID, err := svc.Request(ctx, testRequest(user.ID))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if rideID == "" {
		t.Fatal("expected a ride id even without drivers")
	}

	pushes := gw.userPushes()
	if len(pushes) != 1 || pushes[0].event != models.EventNoDriversAvailable {
		t.Fatalf("rider pushes = %+v, want one no-drivers-available", pushes)
	}
}

func TestProposeReChecksEligibility(t *testing.T) {
	svc, st, _ := newRidesHarness(t)
	ctx := context.Background()

	user := addAccount(t, st, types.RoleUser, types.GenderFemale)
	male := addAccount(t, st, types.RoleDriver, types.GenderMale)
	female := addAccount(t, st, types.RoleDriver, types.GenderFemale)

	req := testRequest(user.ID)
	req.FemaleDriverOnly = true
	rideID, err := svc.Request(ctx, req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := svc.Propose(ctx, rideID, male.ID, 1200); !errors.Is(err, types.ErrDriverNotEligible) {
		t.Fatalf("male driver propose err = %v, want ErrDriverNotEligible", err)
	}
	if _, err := svc.Propose(ctx, rideID, female.ID, 1200); err != nil {
		t.Fatalf("female driver propose: %v", err)
	}
}

func TestProposalPushCarriesETA(t *testing.T) {
	svc, st, gw := newRidesHarness(t)
	ctx := context.Background()

	user := addAccount(t, st, types.RoleUser, types.GenderMale)
	driver := addAccount(t, st, types.RoleDriver, types.GenderMale)

	rideID, err := svc.Request(ctx, testRequest(user.ID))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.Propose(ctx, rideID, driver.ID, 1100); err != nil {
		t.Fatalf("propose: %v", err)
	}

	var proposal *models.FareProposal
	for _, p := range gw.userPushes() {
		if p.event == models.EventFareProposal {
			fp := p.payload.(models.FareProposal)
			proposal = &fp
		}
	}
	if proposal == nil {
		t.Fatal("no fare proposal reached the rider")
	}
	// 6.7 km at city speed rounds up to 17 minutes.
	if proposal.EstimatedArrival != "17 min" {
		t.Fatalf("estimatedArrival = %q, want %q", proposal.EstimatedArrival, "17 min")
	}
}

func TestProposeOnMatchedRideFails(t *testing.T) {
	svc, st, _ := newRidesHarness(t)
	ctx := context.Background()

	user := addAccount(t, st, types.RoleUser, types.GenderMale)
	winner := addAccount(t, st, types.RoleDriver, types.GenderMale)
	late := addAccount(t, st, types.RoleDriver, types.GenderMale)

	rideID, err := svc.Request(ctx, testRequest(user.ID))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	proposalID, err := svc.Propose(ctx, rideID, winner.ID, 1100)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := svc.Accept(ctx, AcceptParams{
		ProposalID: proposalID, RideID: rideID, UserID: user.ID, DriverID: winner.ID,
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := svc.Propose(ctx, rideID, late.ID, 900); !errors.Is(err, types.ErrRideAlreadyMatched) {
		t.Fatalf("late propose err = %v, want ErrRideAlreadyMatched", err)
	}
}

func TestAcceptIsExactlyOnce(t *testing.T) {
	svc, st, gw := newRidesHarness(t)
	ctx := context.Background()

	user := addAccount(t, st, types.RoleUser, types.GenderMale)
	d1 := addAccount(t, st, types.RoleDriver, types.GenderMale)
	d2 := addAccount(t, st, types.RoleDriver, types.GenderFemale)

	rideID, err := svc.Request(ctx, testRequest(user.ID))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	p1, err := svc.Propose(ctx, rideID, d1.ID, 1100)
	if err != nil {
		t.Fatalf("propose d1: %v", err)
	}
	p2, err := svc.Propose(ctx, rideID, d2.ID, 1050)
	if err != nil {
		t.Fatalf("propose d2: %v", err)
	}

	// Race two accepts for the same ride.
	type result struct {
		sess *models.RideSession
		err  error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup
	for _, accept := range []AcceptParams{
		{ProposalID: p1, RideID: rideID, UserID: user.ID, DriverID: d1.ID},
		{ProposalID: p2, RideID: rideID, UserID: user.ID, DriverID: d2.ID},
	} {
		wg.Add(1)
		go func(p AcceptParams) {
			defer wg.Done()
			sess, err := svc.Accept(ctx, p)
			results <- result{sess: sess, err: err}
		}(accept)
	}
	wg.Wait()
	close(results)

	var won, lost int
	for r := range results {
		if r.err == nil {
			won++
			if r.sess.RideRoom != rideID {
				t.Errorf("session rideRoom = %q, want ride id %q", r.sess.RideRoom, rideID)
			}
		} else if errors.Is(r.err, types.ErrRideAlreadyMatched) {
			lost++
		} else {
			t.Errorf("unexpected accept error: %v", r.err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("won=%d lost=%d, want exactly one winner", won, lost)
	}

	// Exactly one ride-accepted push went out.
	var acceptedPushes int
	for _, p := range gw.driverPushes() {
		if p.event == models.EventRideAccepted {
			acceptedPushes++
		}
	}
	if acceptedPushes != 1 {
		t.Errorf("ride-accepted pushes = %d, want 1", acceptedPushes)
	}
}

func TestStatusPerDriver(t *testing.T) {
	svc, st, _ := newRidesHarness(t)
	ctx := context.Background()

	user := addAccount(t, st, types.RoleUser, types.GenderMale)
	winner := addAccount(t, st, types.RoleDriver, types.GenderMale)
	loser := addAccount(t, st, types.RoleDriver, types.GenderMale)

	rideID, err := svc.Request(ctx, testRequest(user.ID))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// Unmatched: everybody sees pending.
	if status, _ := svc.Status(ctx, loser.ID, rideID); status != types.RideStatusPending {
		t.Fatalf("status before match = %q, want pending", status)
	}

	proposalID, err := svc.Propose(ctx, rideID, winner.ID, 1100)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := svc.Accept(ctx, AcceptParams{
		ProposalID: proposalID, RideID: rideID, UserID: user.ID, DriverID: winner.ID,
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if status, _ := svc.Status(ctx, winner.ID, rideID); status != types.RideStatusInProgress {
		t.Errorf("winner status = %q, want in_progress", status)
	}
	if status, _ := svc.Status(ctx, loser.ID, rideID); status != types.RideStatusCancelled {
		t.Errorf("loser status = %q, want cancelled", status)
	}

	if _, err := svc.Status(ctx, winner.ID, "missing"); !errors.Is(err, types.ErrRideNotFound) {
		t.Errorf("unknown ride status err = %v, want ErrRideNotFound", err)
	}
}

func TestAcceptRejectsMismatchedProposal(t *testing.T) {
	svc, st, _ := newRidesHarness(t)
	ctx := context.Background()

	user := addAccount(t, st, types.RoleUser, types.GenderMale)
	driver := addAccount(t, st, types.RoleDriver, types.GenderMale)
	other := addAccount(t, st, types.RoleDriver, types.GenderMale)

	rideID, err := svc.Request(ctx, testRequest(user.ID))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	proposalID, err := svc.Propose(ctx, rideID, driver.ID, 1100)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	// Proposal belongs to driver, not other.
	_, err = svc.Accept(ctx, AcceptParams{
		ProposalID: proposalID, RideID: rideID, UserID: user.ID, DriverID: other.ID,
	})
	if !errors.Is(err, types.ErrProposalNotFound) {
		t.Fatalf("accept err = %v, want ErrProposalNotFound", err)
	}
}
