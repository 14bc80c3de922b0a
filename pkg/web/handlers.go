package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-peekguard/pkg/debounce"
	"github.com/teslashibe/go-peekguard/pkg/history"
	"github.com/teslashibe/go-peekguard/pkg/pipeline"
	"github.com/teslashibe/go-peekguard/pkg/protection"
	"github.com/teslashibe/go-peekguard/pkg/settings"
)

// SessionStatus describes the detection session.
type SessionStatus struct {
	Active    bool       `json:"active"`
	ID        string     `json:"id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// Status is the GET /api/status response.
type Status struct {
	Session        SessionStatus    `json:"session"`
	Mode           settings.Mode    `json:"mode"`
	Profile        settings.Profile `json:"profile"`
	RequiredFrames int              `json:"required_frames"`
	Protection     protection.State `json:"protection"`
	Debounce       debounce.State   `json:"debounce"`
	Stats          pipeline.Stats   `json:"stats"`
	PeekingTotal   int              `json:"peeking_total"`
	Hubs           []HubStatus      `json:"hubs"`
}

// HubStatus describes one websocket hub.
type HubStatus struct {
	Name    string `json:"name"`
	Clients int    `json:"clients"`
	Dropped int64  `json:"dropped"`
}

// handleStatus returns the current session and protection state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	sess := s.deps.Session
	st := s.deps.Settings.Load()

	status := Status{
		Session:        SessionStatus{Active: sess.Active(), ID: sess.ID()},
		Mode:           st.Mode,
		Profile:        st.Profile(),
		RequiredFrames: debounce.RequiredFrames(st.Protection.ThresholdSeconds, st.Protection.FrequencyHz),
		Protection:     sess.Protection(),
		Debounce:       sess.Debounce(),
		Stats:          sess.Stats(),
		Hubs: []HubStatus{
			{Name: "events", Clients: s.deps.Events.ClientCount(), Dropped: s.deps.Events.Dropped()},
			{Name: "results", Clients: s.deps.Results.ClientCount(), Dropped: s.deps.Results.Dropped()},
		},
	}
	if started := sess.StartedAt(); !started.IsZero() {
		status.Session.StartedAt = &started
	}

	status.PeekingTotal = int(status.Stats.PeekingConfirmed)
	if s.deps.History != nil {
		if n, err := s.deps.History.Count(c.UserContext()); err == nil {
			status.PeekingTotal = n
		}
	}

	return c.JSON(status)
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.deps.Settings.Load())
}

// handlePutSettings merges the body into the current settings.
// Fields not present in the body keep their current values.
func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	st := s.deps.Settings.Load()
	if err := json.Unmarshal(c.Body(), &st); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	saved := s.deps.Settings.Store(st)
	if err := s.persist(c.UserContext(), saved); err != nil {
		return err
	}

	s.logger.Info("settings updated", "mode", saved.Mode, "action", saved.Protection.Action)
	return c.JSON(saved)
}

func (s *Server) handleResetSettings(c *fiber.Ctx) error {
	saved := s.deps.Settings.Store(settings.Defaults())
	if err := s.persist(c.UserContext(), saved); err != nil {
		return err
	}
	s.logger.Info("settings reset")
	return c.JSON(saved)
}

func (s *Server) persist(ctx context.Context, st settings.Settings) error {
	if s.deps.Store == nil {
		return nil
	}
	if err := s.deps.Store.Save(ctx, st); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "save settings: "+err.Error())
	}
	return nil
}

func (s *Server) handleStartSession(c *fiber.Ctx) error {
	// The session outlives this request.
	err := s.deps.Session.Start(context.Background())
	if errors.Is(err, pipeline.ErrRunning) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"active": true, "id": s.deps.Session.ID()})
}

func (s *Server) handleStopSession(c *fiber.Ctx) error {
	s.deps.Session.Stop()
	return c.JSON(fiber.Map{"active": false})
}

// handleFrame accepts one encoded image, either as the raw body or as
// the "frame" field of a multipart form.
func (s *Server) handleFrame(c *fiber.Ctx) error {
	var data []byte

	if fh, err := c.FormFile("frame"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	} else {
		// Fiber reuses the request buffer once the handler returns.
		data = append([]byte(nil), c.Body()...)
	}

	if err := s.deps.Session.Submit(data); err != nil {
		if errors.Is(err, pipeline.ErrStopped) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": len(data)})
}

func (s *Server) handleDeactivate(c *fiber.Ctx) error {
	return c.JSON(s.deps.Session.Deactivate())
}

// TestRequest overrides the current settings for a simulated peeking.
type TestRequest struct {
	Action   *settings.Action       `json:"action,omitempty"`
	Disguise *settings.DisguiseKind `json:"disguise,omitempty"`
	Mode     *settings.Mode         `json:"mode,omitempty"`
	Faces    int                    `json:"faces,omitempty"` // 0 means one face
}

// TestResponse reports what a simulated peeking did.
type TestResponse struct {
	Notification *protection.Notification `json:"notification"`
	Vibrated     bool                     `json:"vibrated"`
	Sounded      bool                     `json:"sounded"`
	Errors       []string                 `json:"errors,omitempty"`
}

// handleTestProtection runs the protection path as if peeking were confirmed
func (s *Server) handleTestProtection(c *fiber.Ctx) error {
	var req TestRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if req.Faces < 0 || req.Faces > pipeline.MaxSimulatedFaces {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("faces must be between 0 and %d", pipeline.MaxSimulatedFaces))
	}

	st := s.deps.Settings.Load()
	if req.Action != nil {
		st.Protection.Action = *req.Action
	}
	if req.Disguise != nil {
		st.Protection.Disguise = *req.Disguise
	}
	if req.Mode != nil {
		st.Mode = *req.Mode
	}

	out := s.deps.Session.Simulate(c.UserContext(), st.Normalize(), req.Faces)

	resp := TestResponse{Notification: out.Notification, Vibrated: out.Vibrated, Sounded: out.Sounded}
	for _, err := range out.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return c.JSON(resp)
}

func (s *Server) handleListHistory(c *fiber.Ctx) error {
	if s.deps.History == nil {
		return c.JSON([]history.Event{})
	}
	events, err := s.deps.History.List(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	return c.JSON(events)
}

func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	if s.deps.History == nil {
		return fiber.ErrNotFound
	}
	e, err := s.deps.History.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, history.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(e)
}

func (s *Server) handleClearHistory(c *fiber.Ctx) error {
	if s.deps.History != nil {
		if err := s.deps.History.Clear(c.UserContext()); err != nil {
			return err
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}
