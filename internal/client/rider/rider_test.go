package rider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gocar-app/gocar/internal/client/api"
	"github.com/gocar-app/gocar/internal/client/channel"
	"github.com/gocar-app/gocar/internal/client/session"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
)

var upgrader = websocket.Upgrader{}

type harness struct {
	flow     *Flow
	store    *session.Store
	push     func(event string, payload any)
	apiCalls *atomic.Int64
}

// newHarness wires a Flow against a fake HTTP backend and a live websocket.
func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.InitLogger("rider-test", logger.LevelError)

	var apiCalls atomic.Int64
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		switch r.URL.Path {
		case "/api/rides/request":
			json.NewEncoder(w).Encode(map[string]any{"success": true, "rideId": "r-1"})
		case "/api/rides/accept-fare-proposal":
			json.NewEncoder(w).Encode(map[string]any{
				"success":  true,
				"rideRoom": "room-r-1",
				"rideId":   "r-1",
				"fare":     300,
			})
		default:
			t.Errorf("unexpected API call: %s %s", r.Method, r.URL.Path)
		}
	}))
	t.Cleanup(httpSrv.Close)

	connCh := make(chan *websocket.Conn, 1)
	wsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		connCh <- conn
		for {
			// Drain client emits, keep the connection alive.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(wsSrv.Close)

	ch := channel.New(channel.Config{
		URL:           "ws" + strings.TrimPrefix(wsSrv.URL, "http"),
		Role:          types.RoleUser,
		ParticipantID: "u-1",
	}, log)
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ch.Close() })

	var serverConn *websocket.Conn
	select {
	case serverConn = <-connCh:
	case <-time.After(2 * time.Second):
		t.Fatal("no websocket connection")
	}

	store := session.NewStore(t.TempDir(), log)
	if err := store.SetIdentity(context.Background(), &models.Identity{
		ID: "u-1", Name: "Ayesha", Role: types.RoleUser, Token: "tok",
	}); err != nil {
		t.Fatal(err)
	}

	apiClient := api.New(httpSrv.URL, httpSrv.Client(), log)

	return &harness{
		flow:     NewFlow(apiClient, ch, store, log),
		store:    store,
		apiCalls: &apiCalls,
		push: func(event string, payload any) {
			env, err := models.NewEnvelope(event, payload)
			if err != nil {
				t.Fatal(err)
			}
			if err := serverConn.WriteJSON(env); err != nil {
				t.Fatalf("push %s: %v", event, err)
			}
		},
	}
}

var (
	saddar  = models.Location{Latitude: 24.86, Longitude: 67.00, Address: "Saddar"}
	gulshan = models.Location{Latitude: 24.90, Longitude: 67.05, Address: "Gulshan"}
)

func TestRequestRideValidationBlocksSubmission(t *testing.T) {
	h := newHarness(t)

	bad := models.Location{Latitude: 124.0, Longitude: 67.0}
	_, err := h.flow.RequestRide(context.Background(), bad, gulshan, types.VehicleBike, false)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := vErr.Fields["pickup.latitude"]; !ok {
		t.Fatalf("fields = %v, want pickup.latitude flagged", vErr.Fields)
	}
	if h.apiCalls.Load() != 0 {
		t.Fatal("invalid request must not reach the backend")
	}
}

func TestRequestRideRejectsUnknownVehicle(t *testing.T) {
	h := newHarness(t)

	_, err := h.flow.RequestRide(context.Background(), saddar, gulshan, types.VehicleType("rickshaw"), false)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if h.apiCalls.Load() != 0 {
		t.Fatal("invalid request must not reach the backend")
	}
}

func TestProposalsAccumulateInArrivalOrder(t *testing.T) {
	h := newHarness(t)

	seen := make(chan models.FareProposal, 4)
	h.flow.OnProposal = func(p models.FareProposal) { seen <- p }

	rideID, err := h.flow.RequestRide(context.Background(), saddar, gulshan, types.VehicleBike, false)
	if err != nil {
		t.Fatal(err)
	}

	h.push(models.EventFareProposal, models.FareProposal{ProposalID: "p-1", RideID: rideID, DriverID: "d-1", ProposedFare: 250})
	h.push(models.EventFareProposal, models.FareProposal{ProposalID: "p-2", RideID: rideID, DriverID: "d-2", ProposedFare: 300})
	// A proposal for some other ride must be ignored.
	h.push(models.EventFareProposal, models.FareProposal{ProposalID: "p-x", RideID: "r-other", DriverID: "d-9"})

	for i := 0; i < 2; i++ {
		select {
		case <-seen:
		case <-time.After(2 * time.Second):
			t.Fatal("proposal never delivered")
		}
	}
	time.Sleep(100 * time.Millisecond) // let the straggler land (and be dropped)

	got := h.flow.Proposals()
	if len(got) != 2 {
		t.Fatalf("proposals = %+v, want 2", got)
	}
	if got[0].ProposalID != "p-1" || got[1].ProposalID != "p-2" {
		t.Fatalf("order = %s, %s", got[0].ProposalID, got[1].ProposalID)
	}
}

func TestRejectIsLocalOnly(t *testing.T) {
	h := newHarness(t)

	seen := make(chan models.FareProposal, 2)
	h.flow.OnProposal = func(p models.FareProposal) { seen <- p }

	rideID, err := h.flow.RequestRide(context.Background(), saddar, gulshan, types.VehicleBike, false)
	if err != nil {
		t.Fatal(err)
	}
	callsAfterRequest := h.apiCalls.Load()

	h.push(models.EventFareProposal, models.FareProposal{ProposalID: "p-1", RideID: rideID, DriverID: "d-1"})
	<-seen

	h.flow.Reject("p-1")

	if len(h.flow.Proposals()) != 0 {
		t.Fatal("rejected proposal should be gone")
	}
	if h.apiCalls.Load() != callsAfterRequest {
		t.Fatal("reject must not call the backend")
	}
}

func TestAcceptClearsPendingProposalsAndPersistsSession(t *testing.T) {
	h := newHarness(t)

	seen := make(chan models.FareProposal, 4)
	h.flow.OnProposal = func(p models.FareProposal) { seen <- p }

	rideID, err := h.flow.RequestRide(context.Background(), saddar, gulshan, types.VehicleBike, false)
	if err != nil {
		t.Fatal(err)
	}

	h.push(models.EventFareProposal, models.FareProposal{ProposalID: "p-1", RideID: rideID, DriverID: "d-1", ProposedFare: 250})
	h.push(models.EventFareProposal, models.FareProposal{ProposalID: "p-2", RideID: rideID, DriverID: "d-2", ProposedFare: 300})
	<-seen
	<-seen

	sess, err := h.flow.Accept(context.Background(), "p-2")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if sess.RideRoom != "room-r-1" {
		t.Fatalf("session = %+v", sess)
	}

	if len(h.flow.Proposals()) != 0 {
		t.Fatal("accept must clear every pending proposal")
	}
	if h.store.LastRide() == nil || h.store.LastRide().RideRoom != "room-r-1" {
		t.Fatal("accepted session must be persisted")
	}

	// Late proposals after acceptance land on cancelled subscriptions.
	h.push(models.EventFareProposal, models.FareProposal{ProposalID: "p-3", RideID: rideID, DriverID: "d-3"})
	select {
	case p := <-seen:
		t.Fatalf("proposal %s delivered after acceptance", p.ProposalID)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestAcceptUnknownProposal(t *testing.T) {
	h := newHarness(t)

	if _, err := h.flow.RequestRide(context.Background(), saddar, gulshan, types.VehicleBike, false); err != nil {
		t.Fatal(err)
	}

	_, err := h.flow.Accept(context.Background(), "p-ghost")
	if !errors.Is(err, types.ErrProposalNotFound) {
		t.Fatalf("err = %v, want ErrProposalNotFound", err)
	}
}

func TestRequestRideRequiresAuth(t *testing.T) {
	h := newHarness(t)
	if err := h.store.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := h.flow.RequestRide(context.Background(), saddar, gulshan, types.VehicleBike, false)
	if !errors.Is(err, types.ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestNoDriversAvailableResetsFlow(t *testing.T) {
	h := newHarness(t)

	done := make(chan struct{}, 1)
	h.flow.OnNoDrivers = func() { done <- struct{}{} }

	rideID, err := h.flow.RequestRide(context.Background(), saddar, gulshan, types.VehicleCar, false)
	if err != nil {
		t.Fatal(err)
	}
	_ = rideID

	h.push(models.EventNoDriversAvailable, nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnNoDrivers never fired")
	}
	if len(h.flow.Proposals()) != 0 {
		t.Fatal("no-drivers must clear state")
	}
}
