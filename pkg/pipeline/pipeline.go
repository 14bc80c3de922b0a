// Package pipeline runs frames through detection, debounce and protection.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/teslashibe/go-peekguard/pkg/camera"
	"github.com/teslashibe/go-peekguard/pkg/debounce"
	"github.com/teslashibe/go-peekguard/pkg/detection"
	"github.com/teslashibe/go-peekguard/pkg/frame"
	"github.com/teslashibe/go-peekguard/pkg/geometry"
	"github.com/teslashibe/go-peekguard/pkg/history"
	"github.com/teslashibe/go-peekguard/pkg/protection"
	"github.com/teslashibe/go-peekguard/pkg/settings"
)

var (
	// ErrRunning is returned by Start on an active session.
	ErrRunning = errors.New("pipeline: already running")

	// ErrStopped is returned by Submit when the session is not active.
	ErrStopped = errors.New("pipeline: not running")
)

// DefaultEventBuffer is the Events channel capacity.
const DefaultEventBuffer = 64

// MaxSimulatedFaces bounds the face count accepted by Simulate.
const MaxSimulatedFaces = 10

// Config wires a Session. Detector, Settings and Dispatcher are required.
type Config struct {
	Preprocessor  *frame.Preprocessor
	Detector      detection.Detector
	PostProcessor *detection.PostProcessor
	Settings      *settings.Holder
	Dispatcher    *protection.Dispatcher

	// Optional
	Source        camera.Source
	History       history.Recorder
	Photos        *history.PhotoStore
	DetectTimeout time.Duration
	EventBuffer   int
	Logger        *slog.Logger
}

// Session owns one detection worker. Frames are processed strictly in order,
// one at a time; when frames arrive faster than they are processed, only the
// newest waiting frame is kept.
type Session struct {
	pre      *frame.Preprocessor
	detector detection.Detector
	post     *detection.PostProcessor
	settings *settings.Holder
	dispatch *protection.Dispatcher
	source   camera.Source
	history  history.Recorder
	photos   *history.PhotoStore
	logger   *slog.Logger

	debouncer *debounce.Debouncer
	frames    chan []byte
	events    chan Event

	lifecycle sync.Mutex // serializes Start and Stop, held across Stop's wait
	mu        sync.Mutex // guards lifecycle fields and frame intake
	active    atomic.Bool
	id        string
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	processed atomic.Int64
	errs      atomic.Int64
	dropped   atomic.Int64
	confirmed atomic.Int64
	lost      atomic.Int64
	lastPeek  atomic.Pointer[time.Time]
}

// New creates an idle session.
func New(cfg Config) *Session {
	if cfg.Preprocessor == nil {
		cfg.Preprocessor = frame.DefaultPreprocessor()
	}
	if cfg.PostProcessor == nil {
		cfg.PostProcessor = detection.NewPostProcessor(detection.DefaultConfig())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultEventBuffer
	}

	return &Session{
		pre:       cfg.Preprocessor,
		detector:  detection.WithTimeout(cfg.Detector, cfg.DetectTimeout),
		post:      cfg.PostProcessor,
		settings:  cfg.Settings,
		dispatch:  cfg.Dispatcher,
		source:    cfg.Source,
		history:   cfg.History,
		photos:    cfg.Photos,
		logger:    cfg.Logger.With("component", "pipeline"),
		debouncer: debounce.New(),
		frames:    make(chan []byte, 1),
		events:    make(chan Event, cfg.EventBuffer),
	}
}

// Events delivers results, protection changes and confirmed peeking.
// The channel is never closed; slow readers lose events rather than stall detection.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Start launches the worker (and the capture loop when a Source is set).
func (s *Session) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active.Load() {
		return ErrRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.id = uuid.New().String()
	s.startedAt = time.Now()

	// Discard anything left from a previous run.
	select {
	case <-s.frames:
	default:
	}

	s.wg.Add(1)
	go s.work(runCtx)

	if s.source != nil {
		s.wg.Add(1)
		go s.capture(runCtx)
	}

	s.active.Store(true)
	s.logger.Info("session started", "session", s.id, "capture", s.source != nil)
	return nil
}

// Stop halts intake, waits for the in-flight frame and resets debounce.
// Stopping an idle session is a no-op. A concurrent Start waits until the
// stop has finished.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if !s.active.Load() {
		s.mu.Unlock()
		return
	}
	s.active.Store(false)
	cancel := s.cancel
	id := s.id
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.debouncer.Reset()

	s.logger.Info("session stopped", "session", id, "frames", s.processed.Load())
}

// Active reports whether the session is accepting frames.
func (s *Session) Active() bool {
	return s.active.Load()
}

// ID returns the current (or last) session ID.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// StartedAt returns when the current (or last) session started.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// Submit queues an encoded frame without blocking. A frame still waiting
// from an earlier Submit is replaced.
func (s *Session) Submit(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active.Load() {
		return ErrStopped
	}

	select {
	case s.frames <- data:
		return nil
	default:
	}

	// Buffer full: drop the stale frame and keep the newest.
	select {
	case <-s.frames:
		s.dropped.Add(1)
	default:
	}
	s.frames <- data
	return nil
}

// Debounce returns the debouncer's current state.
func (s *Session) Debounce() debounce.State {
	return s.debouncer.Snapshot()
}

// Protection returns the dispatcher's current state.
func (s *Session) Protection() protection.State {
	return s.dispatch.State()
}

// Stats returns cumulative counters.
func (s *Session) Stats() Stats {
	return Stats{
		FramesProcessed:  s.processed.Load(),
		FrameErrors:      s.errs.Load(),
		FramesDropped:    s.dropped.Load(),
		PeekingConfirmed: s.confirmed.Load(),
		EventsDropped:    s.lost.Load(),
		LastPeeking:      s.lastPeek.Load(),
	}
}

// Deactivate dismisses the current protection and publishes the change.
func (s *Session) Deactivate() protection.Notification {
	n := s.dispatch.Deactivate()
	s.emit(Event{Type: ProtectionEvent, At: n.At, Protection: &n})
	return n
}

// Simulate runs the confirmation path as if peeking had just been confirmed
// with st, without touching the debouncer. Used by test mode. faces is
// clamped to [1, MaxSimulatedFaces].
func (s *Session) Simulate(ctx context.Context, st settings.Settings, faces int) protection.Outcome {
	faces = max(1, min(faces, MaxSimulatedFaces))
	res := detection.Result{FaceCount: faces, Faces: simulatedFaces(faces), PeekingDetected: true}
	required := debounce.RequiredFrames(st.Protection.ThresholdSeconds, st.Protection.FrequencyHz)
	return s.confirm(ctx, st, debounce.Event{Result: res, Frames: required, At: time.Now()}, nil)
}

// simulatedFaces spreads n faces across the upper half of the frame.
func simulatedFaces(n int) []detection.Face {
	const w, h = 0.2, 0.25
	faces := make([]detection.Face, n)
	for i := range faces {
		cx, cy := float64(i+1)/float64(n+1), 0.4
		faces[i] = detection.Face{
			X:      cx - w/2,
			Y:      cy - h/2,
			Width:  w,
			Height: h,
			AngleFromCenter: geometry.AngleDegrees(
				(cx-0.5)*frame.DefaultWidth, (cy-0.5)*frame.DefaultHeight),
		}
	}
	return faces
}

func (s *Session) work(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-s.frames:
			s.process(ctx, data)
		}
	}
}

// capture pulls frames from the source at the configured frequency.
func (s *Session) capture(ctx context.Context) {
	defer s.wg.Done()

	hz := s.settings.Load().Protection.FrequencyHz
	limiter := rate.NewLimiter(rate.Limit(hz), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		if cur := s.settings.Load().Protection.FrequencyHz; cur != hz {
			hz = cur
			limiter.SetLimit(rate.Limit(hz))
			s.logger.Debug("capture rate changed", "hz", hz)
		}

		data, err := s.source.Capture(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("capture failed", "error", err)
			data = nil // processed as a negative frame
		}

		if err := s.Submit(data); err != nil {
			return
		}
	}
}

// process handles one frame. Any failure counts as a negative frame.
func (s *Session) process(ctx context.Context, data []byte) {
	res := s.detect(ctx, data)
	if ctx.Err() != nil {
		// Stopped mid-frame
		return
	}
	s.processed.Add(1)

	now := time.Now()
	st := s.settings.Load()
	required := debounce.RequiredFrames(st.Protection.ThresholdSeconds, st.Protection.FrequencyHz)

	ev, fired := s.debouncer.Observe(res, required, now)
	s.emit(Event{Type: ResultEvent, At: now, Result: &res})
	if fired {
		s.confirm(ctx, st, ev, data)
	}
}

func (s *Session) detect(ctx context.Context, data []byte) detection.Result {
	f, err := s.pre.Preprocess(data)
	if err != nil {
		s.frameError("preprocess", err)
		return detection.Empty()
	}

	out, err := s.detector.Detect(ctx, f.Tensor)
	if err != nil {
		s.frameError("detect", err)
		return detection.Empty()
	}

	return s.post.Process(out, f.Width, f.Height)
}

func (s *Session) frameError(stage string, err error) {
	s.errs.Add(1)
	if errors.Is(err, context.Canceled) {
		return
	}
	s.logger.Warn("frame failed", "stage", stage, "error", err)
}

// confirm activates protection and records the peeking event.
func (s *Session) confirm(ctx context.Context, st settings.Settings, ev debounce.Event, data []byte) protection.Outcome {
	s.confirmed.Add(1)
	at := ev.At
	s.lastPeek.Store(&at)

	s.logger.Info("peeking confirmed", "faces", ev.Result.FaceCount, "frames", ev.Frames, "mode", st.Mode)

	out := s.dispatch.Activate(ctx, st)
	if out.Notification != nil {
		s.emit(Event{Type: ProtectionEvent, At: out.Notification.At, Protection: out.Notification})
	}

	rec := &history.Event{
		Timestamp:       ev.At,
		FaceCount:       ev.Result.FaceCount,
		DurationSeconds: float64(ev.Frames) / float64(st.Protection.FrequencyHz),
		Mode:            st.Mode,
		Action:          st.Protection.Action,
	}
	if len(ev.Result.Faces) > 0 {
		rec.AngleFromCenter = ev.Result.Faces[0].AngleFromCenter
	}

	if id, err := history.NewID(ev.At); err != nil {
		s.logger.Warn("event id failed", "error", err)
	} else {
		rec.ID = id
	}

	if st.Protection.CapturePhoto && s.photos != nil && len(data) > 0 && rec.ID != "" {
		path, err := s.photos.Save(data, rec.ID, ev.At, ev.Result.FaceCount)
		if err != nil {
			s.logger.Warn("photo capture failed", "error", err)
		} else {
			rec.PhotoPath = path
		}
	}

	if s.history != nil {
		if err := s.history.Record(context.WithoutCancel(ctx), rec); err != nil {
			s.logger.Warn("history record failed", "error", err)
		}
	}

	s.emit(Event{Type: PeekingEvent, At: ev.At, Peeking: rec})
	return out
}

func (s *Session) emit(e Event) {
	if e.SessionID == "" {
		e.SessionID = s.ID()
	}
	select {
	case s.events <- e:
	default:
		s.lost.Add(1)
		s.logger.Warn("event channel full, dropping event", "type", e.Type)
	}
}
