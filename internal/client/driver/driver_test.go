package driver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
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
	flow  *Flow
	store *session.Store
	push  func(event string, payload any)

	proposeCalls *atomic.Int64
	statusMu     sync.Mutex
	status       types.RideStatus
}

func (h *harness) setStatus(s types.RideStatus) {
	h.statusMu.Lock()
	h.status = s
	h.statusMu.Unlock()
}

func newHarness(t *testing.T, gender types.Gender) *harness {
	t.Helper()
	log := logger.InitLogger("driver-test", logger.LevelError)

	h := &harness{proposeCalls: &atomic.Int64{}, status: types.RideStatusPending}

	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/rides/ride-price-proposal":
			h.proposeCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{"success": true, "proposalId": "p-1"})
		case "/api/rides/check-ride-status":
			h.statusMu.Lock()
			status := h.status
			h.statusMu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"success": true, "status": status})
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
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(wsSrv.Close)

	ch := channel.New(channel.Config{
		URL:           "ws" + strings.TrimPrefix(wsSrv.URL, "http"),
		Role:          types.RoleDriver,
		ParticipantID: "d-1",
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

	h.store = session.NewStore(t.TempDir(), log)
	if err := h.store.SetIdentity(context.Background(), &models.Identity{
		ID: "d-1", Name: "Bilal", Phone: "+923009998877",
		Role: types.RoleDriver, Token: "tok-d", Gender: gender,
	}); err != nil {
		t.Fatal(err)
	}

	h.flow = NewFlow(api.New(httpSrv.URL, httpSrv.Client(), log), ch, h.store, log)
	t.Cleanup(h.flow.Close)

	h.push = func(event string, payload any) {
		env, err := models.NewEnvelope(event, payload)
		if err != nil {
			t.Fatal(err)
		}
		if err := serverConn.WriteJSON(env); err != nil {
			t.Fatalf("push %s: %v", event, err)
		}
	}
	return h
}

func testOffer(rideID string, femaleOnly bool) models.RideOffer {
	return models.RideOffer{
		RideID:           rideID,
		DriverID:         "d-1",
		PickupLocation:   models.Location{Latitude: 24.86, Longitude: 67.00, Address: "Saddar"},
		DropoffLocation:  models.Location{Latitude: 24.90, Longitude: 67.05, Address: "Gulshan"},
		UserName:         "Ayesha",
		UserPhone:        "+923001234567",
		FemaleDriverOnly: femaleOnly,
		Fare:             265,
	}
}

func waitOffer(t *testing.T, seen <-chan models.RideOffer) models.RideOffer {
	t.Helper()
	select {
	case o := <-seen:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("offer never delivered")
		return models.RideOffer{}
	}
}

func TestOffersArrive(t *testing.T) {
	h := newHarness(t, types.GenderMale)
	seen := make(chan models.RideOffer, 2)
	h.flow.OnOffer = func(o models.RideOffer) { seen <- o }
	h.flow.Start()

	h.push(models.EventRideRequest, testOffer("r-1", false))
	offer := waitOffer(t, seen)

	if offer.RideID != "r-1" || offer.UserName != "Ayesha" {
		t.Fatalf("offer = %+v", offer)
	}
	if got := h.flow.Offers(); len(got) != 1 {
		t.Fatalf("Offers() = %+v", got)
	}
}

func TestProposeOnFemaleOnlyOfferIsRefused(t *testing.T) {
	h := newHarness(t, types.GenderMale)
	seen := make(chan models.RideOffer, 1)
	h.flow.OnOffer = func(o models.RideOffer) { seen <- o }
	h.flow.Start()

	h.push(models.EventRideRequest, testOffer("r-1", true))
	waitOffer(t, seen)

	err := h.flow.Propose(context.Background(), "r-1", 250)
	if !errors.Is(err, types.ErrDriverNotEligible) {
		t.Fatalf("err = %v, want ErrDriverNotEligible", err)
	}
	if h.proposeCalls.Load() != 0 {
		t.Fatal("ineligible proposal must not reach the backend")
	}
}

func TestFemaleDriverMayProposeOnFemaleOnlyOffer(t *testing.T) {
	h := newHarness(t, types.GenderFemale)
	seen := make(chan models.RideOffer, 1)
	h.flow.OnOffer = func(o models.RideOffer) { seen <- o }
	h.flow.Start()

	h.push(models.EventRideRequest, testOffer("r-1", true))
	waitOffer(t, seen)

	if err := h.flow.Propose(context.Background(), "r-1", 250); err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if h.proposeCalls.Load() != 1 {
		t.Fatal("proposal should reach the backend")
	}
}

func TestAcceptanceViaPushFiresOnce(t *testing.T) {
	h := newHarness(t, types.GenderMale)
	seen := make(chan models.RideOffer, 1)
	accepted := make(chan *models.RideSession, 4)
	h.flow.OnOffer = func(o models.RideOffer) { seen <- o }
	h.flow.OnAccepted = func(s *models.RideSession) { accepted <- s }
	h.flow.Start()

	h.push(models.EventRideRequest, testOffer("r-1", false))
	waitOffer(t, seen)

	if err := h.flow.Propose(context.Background(), "r-1", 250); err != nil {
		t.Fatal(err)
	}

	sess := models.RideAccepted{
		RideRoom: "room-r-1", RideID: "r-1",
		UserName: "Ayesha", DriverName: "Bilal", Fare: 250,
	}
	// A duplicate push must not fire the transition twice.
	h.push(models.EventRideAccepted, sess)
	h.push(models.EventRideAccepted, sess)

	select {
	case got := <-accepted:
		if got.RideRoom != "room-r-1" {
			t.Fatalf("session = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("acceptance never fired")
	}

	select {
	case <-accepted:
		t.Fatal("acceptance fired twice")
	case <-time.After(300 * time.Millisecond):
	}

	if h.store.LastRide() == nil || h.store.LastRide().RideID != "r-1" {
		t.Fatal("accepted session must be persisted")
	}
	if len(h.flow.Offers()) != 0 {
		t.Fatal("accepted offer should be gone")
	}
}

func TestAcceptanceViaStatusPoll(t *testing.T) {
	h := newHarness(t, types.GenderMale)
	seen := make(chan models.RideOffer, 1)
	accepted := make(chan *models.RideSession, 2)
	h.flow.OnOffer = func(o models.RideOffer) { seen <- o }
	h.flow.OnAccepted = func(s *models.RideSession) { accepted <- s }
	h.flow.Start()

	h.push(models.EventRideRequest, testOffer("r-1", false))
	offer := waitOffer(t, seen)

	if err := h.flow.Propose(context.Background(), "r-1", 250); err != nil {
		t.Fatal(err)
	}
	// No push this time; the poll alone must detect the acceptance.
	h.setStatus(types.RideStatusInProgress)

	select {
	case got := <-accepted:
		if got.RideID != "r-1" || got.Fare != 250 {
			t.Fatalf("session = %+v", got)
		}
		if got.UserPhone != offer.UserPhone {
			t.Fatalf("poll-built session should carry the offer's rider contact, got %+v", got)
		}
	case <-time.After(2 * statusPollInterval + 2*time.Second):
		t.Fatal("poll never detected acceptance")
	}
}

func TestPushAndPollRaceFiresOnce(t *testing.T) {
	h := newHarness(t, types.GenderMale)
	seen := make(chan models.RideOffer, 1)
	accepted := make(chan *models.RideSession, 4)
	h.flow.OnOffer = func(o models.RideOffer) { seen <- o }
	h.flow.OnAccepted = func(s *models.RideSession) { accepted <- s }
	h.flow.Start()

	h.push(models.EventRideRequest, testOffer("r-1", false))
	waitOffer(t, seen)

	if err := h.flow.Propose(context.Background(), "r-1", 250); err != nil {
		t.Fatal(err)
	}

	// Both signals land: the poll sees in_progress and the push arrives.
	h.setStatus(types.RideStatusInProgress)
	h.push(models.EventRideAccepted, models.RideAccepted{RideRoom: "room-r-1", RideID: "r-1", Fare: 250})

	select {
	case <-accepted:
	case <-time.After(2*statusPollInterval + 2*time.Second):
		t.Fatal("acceptance never fired")
	}

	// Wait out at least one more poll cycle; nothing else may fire.
	select {
	case <-accepted:
		t.Fatal("transition happened twice")
	case <-time.After(statusPollInterval + time.Second):
	}
}

func TestLostRideDropsOffer(t *testing.T) {
	h := newHarness(t, types.GenderMale)
	seen := make(chan models.RideOffer, 1)
	accepted := make(chan *models.RideSession, 1)
	h.flow.OnOffer = func(o models.RideOffer) { seen <- o }
	h.flow.OnAccepted = func(s *models.RideSession) { accepted <- s }
	h.flow.Start()

	h.push(models.EventRideRequest, testOffer("r-1", false))
	waitOffer(t, seen)

	if err := h.flow.Propose(context.Background(), "r-1", 250); err != nil {
		t.Fatal(err)
	}
	if len(h.flow.Offers()) != 0 {
		t.Fatal("a submitted bid should leave the pending list")
	}

	// The rider picked someone else; the watch winds down without firing.
	h.setStatus(types.RideStatusCancelled)

	select {
	case <-accepted:
		t.Fatal("lost ride must not fire acceptance")
	case <-time.After(2*statusPollInterval + time.Second):
	}
}

func TestAcceptanceForUnbidRideIsIgnored(t *testing.T) {
	h := newHarness(t, types.GenderMale)
	accepted := make(chan *models.RideSession, 1)
	h.flow.OnAccepted = func(s *models.RideSession) { accepted <- s }
	h.flow.Start()

	// An acceptance for a ride this driver never proposed on.
	h.push(models.EventRideAccepted, models.RideAccepted{RideRoom: "room-r-9", RideID: "r-9"})

	select {
	case s := <-accepted:
		t.Fatalf("acceptance fired for unbid ride: %+v", s)
	case <-time.After(300 * time.Millisecond):
	}
}
