// Package api exposes the pricing service over JSON HTTP and pushes live
// quotes over WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Srinuas/Foodapp/internal/session"
)

const (
	// ProfileHeader selects the shopper profile. Missing means "default".
	ProfileHeader = "X-Profile-ID"
	// profileQuery is the WebSocket fallback since browsers can't set headers.
	profileQuery = "profile"

	sessionKey = "session"
)

// Options tune the HTTP surface.
type Options struct {
	Debug           bool
	RateLimitPerSec float64
	RateLimitBurst  int
}

type Server struct {
	registry *session.Registry
	hub      *Hub
	router   *gin.Engine
	upgrader websocket.Upgrader
}

func New(registry *session.Registry, opts Options) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		registry: registry,
		hub:      NewHub(),
		router:   gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	s.router.Use(gin.Recovery(), requestLogger())
	if opts.RateLimitPerSec > 0 {
		limiter := NewIPRateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)
		s.router.Use(limiter.Middleware())
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.health)

	api := s.router.Group("/api", s.withSession())
	api.GET("/catalog", s.listCatalog)

	api.GET("/cart", s.getQuote)
	api.DELETE("/cart", s.clearCart)
	api.POST("/cart/items", s.addItem)
	api.PUT("/cart/items/:id", s.setQuantity)
	api.DELETE("/cart/items/:id", s.removeItem)

	api.GET("/quote", s.getQuote)
	api.PUT("/currency", s.setCurrency)
	api.PUT("/coupon", s.applyCoupon)
	api.DELETE("/coupon", s.clearCoupon)

	api.GET("/session", s.currentUser)
	api.POST("/session", s.login)
	api.DELETE("/session", s.logout)

	api.GET("/addresses", s.listAddresses)
	api.POST("/addresses", s.saveAddress)
	api.PUT("/addresses/selected", s.selectAddress)

	api.POST("/checkout", s.placeOrder)
	api.GET("/rates", s.getRates)

	s.router.GET("/ws/quote", s.withSession(), s.streamQuote)
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the quote broadcaster.
func (s *Server) Hub() *Hub { return s.hub }

// RefreshSubscribers re-sends the current quote to every connected profile,
// e.g. after exchange rates resolve.
func (s *Server) RefreshSubscribers(ctx context.Context) {
	for _, id := range s.hub.Profiles() {
		sess, err := s.registry.Get(ctx, id)
		if err != nil {
			continue
		}
		s.hub.Publish(id, sess.Quote(ctx))
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func (s *Server) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(ProfileHeader)
		if id == "" {
			id = c.Query(profileQuery)
		}
		sess, err := s.registry.Get(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Context {
	return c.MustGet(sessionKey).(*session.Context)
}
