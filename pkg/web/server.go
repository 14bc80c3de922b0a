// Package web serves the peekguard HTTP API and live websocket feeds.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-peekguard/pkg/history"
	"github.com/teslashibe/go-peekguard/pkg/hub"
	"github.com/teslashibe/go-peekguard/pkg/pipeline"
	"github.com/teslashibe/go-peekguard/pkg/settings"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxFrameSize bounds uploaded frames.
const MaxFrameSize = 8 * 1024 * 1024

// Deps are the components the server exposes. Store and History are optional.
type Deps struct {
	Session  *pipeline.Session
	Settings *settings.Holder
	Store    settings.Store
	History  history.Store

	// Events carries protection changes, peeking records and feedback commands.
	Events *hub.Hub
	// Results carries per-frame detection results for overlays.
	Results *hub.Hub

	Logger *slog.Logger
}

// Server is the HTTP + websocket front end.
type Server struct {
	app    *fiber.App
	addr   string
	deps   Deps
	logger *slog.Logger
}

// NewServer creates a server listening on addr once Run is called.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Events == nil {
		deps.Events = hub.New("events", deps.Logger)
	}
	if deps.Results == nil {
		deps.Results = hub.New("results", deps.Logger)
	}

	s := &Server{
		addr:   addr,
		deps:   deps,
		logger: deps.Logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "peekguard",
		DisableStartupMessage: true,
		BodyLimit:             MaxFrameSize,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)

	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handlePutSettings)
	api.Post("/settings/reset", s.handleResetSettings)

	api.Post("/session/start", s.handleStartSession)
	api.Post("/session/stop", s.handleStopSession)
	api.Post("/frames", s.handleFrame)

	api.Post("/protection/deactivate", s.handleDeactivate)
	api.Post("/protection/test", s.handleTestProtection)

	api.Get("/history", s.handleListHistory)
	api.Get("/history/:id", s.handleGetHistory)
	api.Delete("/history", s.handleClearHistory)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/events", websocket.New(s.deps.Events.Serve))
	app.Get("/ws/results", websocket.New(s.deps.Results.Serve))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the hubs, the event forwarder and the listener. It returns
// after ctx is cancelled and the server has shut down.
func (s *Server) Run(ctx context.Context) error {
	go s.deps.Events.Run(ctx)
	go s.deps.Results.Run(ctx)
	go s.Forward(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "addr", s.addr)
		errc <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

// Forward relays session events to the websocket hubs until ctx is done.
func (s *Server) Forward(ctx context.Context) {
	events := s.deps.Session.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			target := s.deps.Events
			if e.Type == pipeline.ResultEvent {
				target = s.deps.Results
			}
			if err := target.Publish(string(e.Type), e); err != nil {
				s.logger.Warn("publish failed", "type", e.Type, "error", err)
			}
		}
	}
}

// handleError renders every error as {"error": "..."}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
