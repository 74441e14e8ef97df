package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Srinuas/Foodapp/internal/domain"
)

// QuoteMessage is what subscribers receive.
type QuoteMessage struct {
	Type  string       `json:"type"`
	Quote domain.Quote `json:"quote"`
}

type subscriber struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (s *subscriber) send(v any, deadline time.Duration) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(deadline))
	return s.conn.WriteJSON(v)
}

func (s *subscriber) ping(deadline time.Duration) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(deadline))
}

// Hub fans quotes out to the WebSocket subscribers of each profile.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}

	ReadTimeout  time.Duration
	PingInterval time.Duration
	WriteTimeout time.Duration
}

func NewHub() *Hub {
	return &Hub{
		subs:         make(map[string]map[*subscriber]struct{}),
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Publish sends quote to every subscriber of profileID. A subscriber whose
// write fails is dropped.
func (h *Hub) Publish(profileID string, quote domain.Quote) {
	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs[profileID]))
	for s := range h.subs[profileID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	msg := QuoteMessage{Type: "quote", Quote: quote}
	for _, s := range targets {
		if err := s.send(msg, h.WriteTimeout); err != nil {
			slog.Warn("WS write failed, dropping subscriber", slog.String("profile", profileID), slog.Any("error", err))
			h.remove(profileID, s)
			s.conn.Close()
		}
	}
}

// Profiles lists profiles with at least one subscriber.
func (h *Hub) Profiles() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.subs))
	for id := range h.subs {
		out = append(out, id)
	}
	return out
}

// Subscribers counts the live connections of profileID.
func (h *Hub) Subscribers(profileID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[profileID])
}

// Close disconnects everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.subs
	h.subs = make(map[string]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for s := range set {
			s.conn.Close()
		}
	}
}

// serve owns conn until the client goes away or ctx ends. initial is sent
// before the connection is registered for broadcasts.
func (h *Hub) serve(ctx context.Context, profileID string, conn *websocket.Conn, initial domain.Quote) {
	s := &subscriber{conn: conn}
	defer conn.Close()

	if err := s.send(QuoteMessage{Type: "quote", Quote: initial}, h.WriteTimeout); err != nil {
		slog.Warn("WS initial write failed", slog.String("profile", profileID), slog.Any("error", err))
		return
	}

	h.add(profileID, s)
	defer h.remove(profileID, s)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go h.pingLoop(ctx, s)

	conn.SetReadDeadline(time.Now().Add(h.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.ReadTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				slog.Debug("WS read ended", slog.String("profile", profileID), slog.Any("error", err))
			}
			return
		}
	}
}

func (h *Hub) pingLoop(ctx context.Context, s *subscriber) {
	if h.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ping(h.WriteTimeout); err != nil {
				s.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) add(profileID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[profileID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[profileID] = set
	}
	set[s] = struct{}{}
}

func (h *Hub) remove(profileID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[profileID]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, profileID)
	}
}
