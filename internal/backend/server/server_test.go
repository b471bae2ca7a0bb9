package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gocar-app/gocar/config"
	"github.com/gocar-app/gocar/internal/backend/events"
	"github.com/gocar-app/gocar/internal/backend/gateway"
	"github.com/gocar-app/gocar/internal/backend/server"
	"github.com/gocar-app/gocar/internal/backend/service"
	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/internal/backend/token"
	"github.com/gocar-app/gocar/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st := store.NewMemory()
	log := logger.InitLogger("server-test", logger.LevelError)
	tokens := token.NewService("test-secret", time.Hour)
	pub := events.NewPublisher(nil, log)
	gw := gateway.New(st, pub, log)

	authService := service.NewAuth(st, tokens, log)
	api, err := server.New(
		config.Config{},
		authService,
		service.NewRides(st, gw, pub, log),
		service.NewRent(st, log),
		service.NewVerification(st, log),
		authService,
		gw,
		log,
	)
	if err != nil {
		t.Fatalf("build server: %v", err)
	}

	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func registerRider(t *testing.T, ts *httptest.Server, phone string) (id, bearer string) {
	t.Helper()

	status, body := postJSON(t, ts, "/api/auth/register", "", map[string]any{
		"name":     "Ayesha",
		"phone":    phone,
		"password": "secret-pass",
		"gender":   "female",
	})
	if status != http.StatusCreated {
		t.Fatalf("register rider: status %d, body %v", status, body)
	}
	user := body["user"].(map[string]any)
	return user["id"].(string), user["token"].(string)
}

func registerDriver(t *testing.T, ts *httptest.Server, email, phone string) (id, bearer string) {
	t.Helper()

	status, body := postJSON(t, ts, "/api/auth/driver/register", "", map[string]any{
		"name":         "Bilal",
		"email":        email,
		"phone":        phone,
		"password":     "secret-pass",
		"gender":       "male",
		"vehicleInfo":  "Suzuki Alto",
		"licensePlate": "KHI-786",
	})
	if status != http.StatusCreated {
		t.Fatalf("register driver: status %d, body %v", status, body)
	}
	user := body["user"].(map[string]any)
	return user["id"].(string), user["token"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	_, bearer := registerRider(t, ts, "+923001112233")
	if bearer == "" {
		t.Fatal("registration returned no token")
	}

	status, body := postJSON(t, ts, "/api/auth/login", "", map[string]any{
		"phone":    "+923001112233",
		"password": "secret-pass",
	})
	if status != http.StatusOK {
		t.Fatalf("login: status %d, body %v", status, body)
	}
	if body["success"] != true {
		t.Fatalf("login body = %v, want success", body)
	}

	status, _ = postJSON(t, ts, "/api/auth/login", "", map[string]any{
		"phone":    "+923001112233",
		"password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d, want 401", status)
	}
}

func TestRegisterDuplicatePhoneConflicts(t *testing.T) {
	ts := newTestServer(t)

	registerRider(t, ts, "+923009998877")

	status, _ := postJSON(t, ts, "/api/auth/register", "", map[string]any{
		"name":     "Other",
		"phone":    "+923009998877",
		"password": "secret-pass",
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate register: status %d, want 409", status)
	}
}

func TestRegisterValidationFailure(t *testing.T) {
	ts := newTestServer(t)

	status, body := postJSON(t, ts, "/api/auth/register", "", map[string]any{
		"name": "No Phone",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", status)
	}
	if _, ok := body["errors"]; !ok {
		t.Fatalf("body = %v, want an errors map", body)
	}
}

func TestRideRequestAuthorization(t *testing.T) {
	ts := newTestServer(t)

	riderID, riderBearer := registerRider(t, ts, "+923004445566")
	_, driverBearer := registerDriver(t, ts, "bilal@gocar.test", "+923015556677")

	rideBody := map[string]any{
		"userId":      riderID,
		"pickup":      map[string]any{"latitude": 24.8607, "longitude": 67.0011, "address": "Saddar"},
		"dropoff":     map[string]any{"latitude": 24.9265, "longitude": 67.0882, "address": "Gulshan"},
		"vehicleType": "car",
		"distance":    6.7,
		"fare":        1072,
	}

	// Anonymous.
	if status, _ := postJSON(t, ts, "/api/rides/request", "", rideBody); status != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d, want 401", status)
	}

	// Wrong role.
	if status, _ := postJSON(t, ts, "/api/rides/request", driverBearer, rideBody); status != http.StatusForbidden {
		t.Fatalf("driver on rider route: status %d, want 403", status)
	}

	// Body claims a different rider.
	spoofed := map[string]any{}
	for k, v := range rideBody {
		spoofed[k] = v
	}
	spoofed["userId"] = "someone-else"
	if status, _ := postJSON(t, ts, "/api/rides/request", riderBearer, spoofed); status != http.StatusForbidden {
		t.Fatalf("spoofed userId: status %d, want 403", status)
	}

	// The real thing.
	status, body := postJSON(t, ts, "/api/rides/request", riderBearer, rideBody)
	if status != http.StatusCreated {
		t.Fatalf("valid request: status %d, body %v", status, body)
	}
	if rideID, _ := body["rideId"].(string); rideID == "" {
		t.Fatalf("body = %v, want a rideId", body)
	}
}

func TestRentCRUDOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	_, bearer := registerRider(t, ts, "+923007770011")

	status, body := postJSON(t, ts, "/api/rent", bearer, map[string]any{
		"title":       "Honda CD70",
		"description": "Well maintained bike",
		"price":       500,
		"category":    "bike",
		"location":    "Karachi",
	})
	if status != http.StatusCreated {
		t.Fatalf("create rental: status %d, body %v", status, body)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/rent", nil)
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/rent: %v", err)
	}
	defer resp.Body.Close()

	var listing struct {
		Success bool `json:"success"`
		Rent    []struct {
			Title string `json:"title"`
		} `json:"rent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Rent) != 1 || listing.Rent[0].Title != "Honda CD70" {
		t.Fatalf("listing = %+v, want the created rental", listing)
	}
}

func TestCheckRideStatusRequiresDriverRole(t *testing.T) {
	ts := newTestServer(t)

	_, riderBearer := registerRider(t, ts, "+923002223344")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/rides/check-ride-status?driverId=d&rideId=r", nil)
	req.Header.Set("Authorization", "Bearer "+riderBearer)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET check-ride-status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}
