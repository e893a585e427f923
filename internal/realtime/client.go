// Package realtime subscribes to the host's push channel and turns
// "new_communication" events into a single inbound stream the engine
// drains. One subscription per session; Close tears it down.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/avunu/commchat/internal/domain"
	"github.com/avunu/commchat/internal/logger"
)

const eventNewCommunication = "new_communication"

// Envelope is the wire format of one push frame.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// pingFrame keeps the connection alive; the request id correlates pongs in
// server logs.
type pingFrame struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId"`
}

// Config tunes the subscriber. Zero values get sensible defaults.
type Config struct {
	URL                  string
	Token                string
	AutoReconnect        bool
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	HeartbeatInterval    time.Duration
}

func (c *Config) defaults() {
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = 1 * time.Second
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = 30 * time.Second
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 10
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 25 * time.Second
	}
}

// Subscriber owns one websocket subscription and delivers decoded
// new-communication events on Events.
type Subscriber struct {
	config Config
	log    zerolog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	cancelFn context.CancelFunc
	closed   bool

	recon  *reconnector
	events chan domain.NewCommunication
}

func NewSubscriber(config Config) *Subscriber {
	config.defaults()
	return &Subscriber{
		config: config,
		log:    logger.Module("realtime"),
		recon:  newReconnector(config),
		events: make(chan domain.NewCommunication, 64),
	}
}

// Events is the inbound stream the engine drains. It is closed when the
// subscriber shuts down for good.
func (s *Subscriber) Events() <-chan domain.NewCommunication {
	return s.events
}

// Connect dials the push endpoint and starts the read and heartbeat loops.
func (s *Subscriber) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("subscriber is closed")
	}
	s.mu.Unlock()

	wsURL := s.config.URL
	if s.config.Token != "" {
		wsURL += "?token=" + s.config.Token
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	connCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.conn = conn
	s.cancelFn = cancel
	s.mu.Unlock()
	s.recon.markConnected()

	go s.readLoop(connCtx, conn)
	go s.heartbeatLoop(connCtx, conn)
	return nil
}

// Close deregisters the subscription. Safe to call more than once. The
// events channel is closed under the same lock that guards deliveries, so
// a read loop mid-frame can never send on a closed channel.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	cancel := s.cancelFn
	close(s.events)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "session teardown")
	}
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || ctx.Err() != nil {
				return
			}
			s.log.Warn().Err(err).Msg("read failed, connection lost")
			s.maybeReconnect()
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.log.Warn().Err(err).Msg("discarding malformed push frame")
			continue
		}
		if env.Event != eventNewCommunication {
			continue
		}

		var comm domain.NewCommunication
		if err := json.Unmarshal(env.Payload, &comm); err != nil {
			s.log.Warn().Err(err).Msg("discarding malformed communication payload")
			continue
		}

		s.deliver(comm)
	}
}

// deliver hands one event to the engine. Holding the lock keeps the send
// ordered against Close; a full buffer drops the event rather than block
// the socket.
func (s *Subscriber) deliver(comm domain.NewCommunication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- comm:
	default:
		s.log.Warn().Str("communication", comm.Name).Msg("event buffer full, dropping")
	}
}

func (s *Subscriber) heartbeatLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := json.Marshal(pingFrame{Event: "ping", RequestID: uuid.NewString()})
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				return
			}
		}
	}
}

func (s *Subscriber) maybeReconnect() {
	if !s.config.AutoReconnect {
		s.Close()
		return
	}
	for s.recon.shouldReconnect() {
		delay := s.recon.nextDelay()
		s.log.Info().Dur("delay", delay).Int("attempt", s.recon.attempt).Msg("reconnecting")
		time.Sleep(delay)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := s.Connect(ctx)
		cancel()
		if err == nil {
			return
		}
		s.log.Warn().Err(err).Msg("reconnect attempt failed")
	}
	s.log.Error().Msg("giving up on reconnection")
	s.Close()
}

// reconnector tracks exponential backoff with jitter. A connection that
// stayed up for over a minute resets the attempt counter.
type reconnector struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
	attempt     int
	connectedAt time.Time
}

func newReconnector(config Config) *reconnector {
	return &reconnector{
		baseDelay:   config.ReconnectBaseDelay,
		maxDelay:    config.ReconnectMaxDelay,
		maxAttempts: config.MaxReconnectAttempts,
	}
}

func (r *reconnector) shouldReconnect() bool {
	return r.maxAttempts == 0 || r.attempt < r.maxAttempts
}

func (r *reconnector) markConnected() {
	r.connectedAt = time.Now()
}

func (r *reconnector) nextDelay() time.Duration {
	if !r.connectedAt.IsZero() && time.Since(r.connectedAt) > 60*time.Second {
		r.attempt = 0
	}
	jitter := time.Duration(rand.Float64() * float64(r.baseDelay) * 0.5)
	delay := time.Duration(math.Min(
		float64(r.baseDelay)*math.Pow(2, float64(r.attempt))+float64(jitter),
		float64(r.maxDelay),
	))
	r.attempt++
	return delay
}
