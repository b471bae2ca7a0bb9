// Package gateway is the backend's side of the real-time channel. It owns
// every live websocket, keyed by the join announcement, and the per-ride
// rooms the tracking phase runs in.
package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gocar-app/gocar/internal/backend/events"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/metrics"
)

// RideStatusStore is the slice of the store the gateway needs: rides started,
// stopped or cancelled over the socket still have to land in persistence.
type RideStatusStore interface {
	UpdateRideStatus(ctx context.Context, id string, status types.RideStatus) error
}

// RideEventPublisher announces terminal ride events to the broker. Requested
// and matched events go out from the rides service; completion and
// cancellation happen over the socket, so the gateway publishes those.
type RideEventPublisher interface {
	RideFinished(ctx context.Context, ev events.RideEvent)
}

type Gateway struct {
	log      logger.Logger
	rides    RideStatusStore
	pub      RideEventPublisher
	upgrader websocket.Upgrader

	mu      sync.Mutex
	drivers map[string]*client
	users   map[string]*client
	rooms   map[string]*room
}

type client struct {
	conn *websocket.Conn
	id   string
	role types.Role

	writeMu sync.Mutex
}

// send serializes writes; gorilla/websocket allows one writer at a time.
func (c *client) send(env models.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(env)
}

type room struct {
	rideID    string
	members   map[*client]types.UserType
	startedAt time.Time
}

func New(rides RideStatusStore, pub RideEventPublisher, log logger.Logger) *Gateway {
	return &Gateway{
		log:     log,
		rides:   rides,
		pub:     pub,
		drivers: make(map[string]*client),
		users:   make(map[string]*client),
		rooms:   make(map[string]*room),
	}
}

// HandleWS upgrades the request and serves the connection until it drops.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn(r.Context(), "websocket upgrade failed", "error", err.Error())
		return
	}

	c := &client{conn: conn}
	defer g.disconnect(c)

	ctx := wrap.WithAction(context.Background(), "gateway_read")
	for {
		var env models.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}

		payload, err := models.DecodeEvent(env)
		if err != nil {
			g.log.Warn(ctx, "dropping channel event", "event", env.Event, "error", err.Error())
			continue
		}
		metrics.ChannelEventsTotal.WithLabelValues(env.Event, "in").Inc()

		g.handle(ctx, c, payload)
	}
}

func (g *Gateway) handle(ctx context.Context, c *client, payload any) {
	switch p := payload.(type) {
	case *models.DriverJoin:
		g.register(c, p.DriverID, types.RoleDriver)
	case *models.UserJoin:
		g.register(c, p.UserID, types.RoleUser)
	case *models.JoinRideRoom:
		g.joinRoom(c, p)
	case *models.LeaveRideRoom:
		g.leaveRoom(c, p.RideID)
	case *models.ShareDriverLocation:
		g.shareLocation(c, p)
	case *models.StartRide:
		g.startRide(ctx, p)
	case *models.StopRide:
		g.stopRide(ctx, p)
	case *models.CancelRide:
		g.cancelRide(ctx, p)
	default:
		// Server-to-client events echoed back by a confused client.
		g.log.Warn(ctx, "ignoring client event", "payload", payload)
	}
}

// register binds a connection to a participant. A second connection for the
// same participant replaces the first, which is closed.
func (g *Gateway) register(c *client, id string, role types.Role) {
	c.id = id
	c.role = role

	g.mu.Lock()
	pool := g.users
	if role == types.RoleDriver {
		pool = g.drivers
	}
	if existing, ok := pool[id]; ok && existing != c {
		// The evicted connection no longer owns the pool slot, so its own
		// disconnect skips the gauge; settle it here.
		existing.conn.Close()
		metrics.ChannelConnectionsGauge.WithLabelValues(role.String()).Dec()
	}
	pool[id] = c
	g.mu.Unlock()

	metrics.ChannelConnectionsGauge.WithLabelValues(role.String()).Inc()
	g.log.Debug(wrap.WithUserID(context.Background(), id), "participant joined", "role", role)
}

func (g *Gateway) disconnect(c *client) {
	c.conn.Close()

	g.mu.Lock()
	if c.id != "" {
		pool := g.users
		if c.role == types.RoleDriver {
			pool = g.drivers
		}
		if pool[c.id] == c {
			delete(pool, c.id)
			metrics.ChannelConnectionsGauge.WithLabelValues(c.role.String()).Dec()
		}
	}
	for _, rm := range g.rooms {
		delete(rm.members, c)
	}
	g.mu.Unlock()
}

func (g *Gateway) joinRoom(c *client, p *models.JoinRideRoom) {
	g.mu.Lock()
	rm, ok := g.rooms[p.RideID]
	if !ok {
		rm = &room{rideID: p.RideID, members: make(map[*client]types.UserType)}
		g.rooms[p.RideID] = rm
		metrics.ActiveRideRoomsGauge.Inc()
	}
	rm.members[c] = p.UserType
	g.mu.Unlock()

	ctx := wrap.WithRideID(wrap.WithUserID(context.Background(), p.UserID), p.RideID)
	g.log.Debug(ctx, "joined ride room", "userType", p.UserType)
}

func (g *Gateway) leaveRoom(c *client, rideID string) {
	g.mu.Lock()
	if rm, ok := g.rooms[rideID]; ok {
		delete(rm.members, c)
	}
	g.mu.Unlock()
}

func (g *Gateway) closeRoom(rideID string) {
	g.mu.Lock()
	if _, ok := g.rooms[rideID]; ok {
		delete(g.rooms, rideID)
		metrics.ActiveRideRoomsGauge.Dec()
	}
	g.mu.Unlock()
}

// shareLocation relays a driver position to everyone else in the room. The
// sender is excluded; they know where they are.
func (g *Gateway) shareLocation(sender *client, p *models.ShareDriverLocation) {
	g.broadcast(p.RideRoom, sender, models.EventDriverLocationUpdate, models.DriverLocationUpdate{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	})
}

func (g *Gateway) startRide(ctx context.Context, p *models.StartRide) {
	g.mu.Lock()
	if rm, ok := g.rooms[p.RideID]; ok {
		if t, err := time.Parse(time.RFC3339, p.StartTime); err == nil {
			rm.startedAt = t
		} else {
			rm.startedAt = time.Now().UTC()
		}
	}
	g.mu.Unlock()

	g.broadcast(p.RideID, nil, models.EventRideStarted, models.RideStarted{StartTime: p.StartTime})
}

func (g *Gateway) stopRide(ctx context.Context, p *models.StopRide) {
	ctx = wrap.WithRideID(ctx, p.RideID)

	end := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, p.EndTime); err == nil {
		end = t
	}

	g.mu.Lock()
	var duration float64
	if rm, ok := g.rooms[p.RideID]; ok && !rm.startedAt.IsZero() {
		duration = end.Sub(rm.startedAt).Minutes()
	}
	g.mu.Unlock()

	g.broadcast(p.RideID, nil, models.EventRideStopped, models.RideStopped{DurationMin: duration})
	g.closeRoom(p.RideID)

	if err := g.rides.UpdateRideStatus(ctx, p.RideID, types.RideStatusCompleted); err != nil {
		g.log.Error(ctx, "marking ride completed failed", err)
	}
	if g.pub != nil {
		g.pub.RideFinished(ctx, events.RideEvent{
			RideID:   p.RideID,
			DriverID: p.UserID,
			Status:   string(types.RideStatusCompleted),
		})
	}
	metrics.RidesFinishedTotal.WithLabelValues(string(types.RideStatusCompleted)).Inc()
	g.log.Info(ctx, "ride completed", "durationMin", duration)
}

func (g *Gateway) cancelRide(ctx context.Context, p *models.CancelRide) {
	ctx = wrap.WithRideID(ctx, p.RideID)

	g.broadcast(p.RideID, nil, models.EventRideCancelled, models.RideCancelled{Reason: p.Reason})
	g.closeRoom(p.RideID)

	if err := g.rides.UpdateRideStatus(ctx, p.RideID, types.RideStatusCancelled); err != nil {
		g.log.Error(ctx, "marking ride cancelled failed", err)
	}
	if g.pub != nil {
		g.pub.RideFinished(ctx, events.RideEvent{
			RideID: p.RideID,
			UserID: p.UserID,
			Status: string(types.RideStatusCancelled),
		})
	}
	metrics.RidesFinishedTotal.WithLabelValues(string(types.RideStatusCancelled)).Inc()
	g.log.Info(ctx, "ride cancelled", "reason", p.Reason)
}

// broadcast sends an event to every room member except exclude (pass nil to
// include everyone).
func (g *Gateway) broadcast(rideID string, exclude *client, event string, payload any) {
	env, err := models.NewEnvelope(event, payload)
	if err != nil {
		g.log.Error(context.Background(), "encoding broadcast failed", err)
		return
	}

	g.mu.Lock()
	rm, ok := g.rooms[rideID]
	var members []*client
	if ok {
		members = make([]*client, 0, len(rm.members))
		for c := range rm.members {
			if c != exclude {
				members = append(members, c)
			}
		}
	}
	g.mu.Unlock()

	for _, c := range members {
		if err := c.send(env); err != nil {
			g.log.Warn(context.Background(), "room send failed", "event", event, "to", c.id)
			continue
		}
		metrics.ChannelEventsTotal.WithLabelValues(event, "out").Inc()
	}
}

// SendToUser pushes one event to a rider's connection, if they are online.
func (g *Gateway) SendToUser(userID, event string, payload any) error {
	return g.sendTo(g.users, userID, event, payload)
}

// SendToDriver pushes one event to a driver's connection, if they are online.
func (g *Gateway) SendToDriver(driverID, event string, payload any) error {
	return g.sendTo(g.drivers, driverID, event, payload)
}

func (g *Gateway) sendTo(pool map[string]*client, id, event string, payload any) error {
	env, err := models.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	g.mu.Lock()
	c, ok := pool[id]
	g.mu.Unlock()
	if !ok {
		return types.ErrNotConnected
	}

	if err := c.send(env); err != nil {
		return err
	}
	metrics.ChannelEventsTotal.WithLabelValues(event, "out").Inc()
	return nil
}

// OnlineDrivers returns the ids of every connected driver.
func (g *Gateway) OnlineDrivers() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.drivers))
	for id := range g.drivers {
		out = append(out, id)
	}
	return out
}
