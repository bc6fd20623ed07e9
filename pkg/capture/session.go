package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/metersnap/metersnap/internal/log"
	"github.com/metersnap/metersnap/pkg/device"
	"github.com/metersnap/metersnap/pkg/enhance"
	"github.com/metersnap/metersnap/pkg/extract"
	"github.com/metersnap/metersnap/pkg/hub"
	"github.com/metersnap/metersnap/pkg/store"
	"github.com/metersnap/metersnap/pkg/stream"
)

// DefaultPreviewInterval paces the live viewport feed.
const DefaultPreviewInterval = 100 * time.Millisecond

// Config wires a Session's collaborators. Catalog, Streams, Enhancer and
// Extractor are required; Store and the hubs are optional.
type Config struct {
	Catalog   device.Catalog
	Streams   *stream.Manager
	Enhancer  Enhancer
	Extractor extract.Extractor
	Store     store.Store

	// PreviewHub receives binary JPEG viewport frames; StatusHub
	// receives JSON state and result broadcasts.
	PreviewHub *hub.Hub
	StatusHub  *hub.Hub

	// PreviewInterval overrides the viewport frame pacing.
	PreviewInterval time.Duration
}

// Session is the capture/preview state machine. It owns the current mode
// and camera selection; the stream manager owns the hardware session.
// The machine has no terminal state and runs for the process lifetime.
type Session struct {
	cfg Config

	// cmdMu serializes user commands so two concurrent triggers cannot
	// both observe LIVE and both capture. State reads stay on mu.
	cmdMu sync.Mutex

	mu        sync.Mutex
	started   bool
	mode      Mode
	selection stream.Selection
	frozen    *Frozen
	result    *extract.Result
	lastErr   string

	previewStop chan struct{}
	previewDone chan struct{}
}

// NewSession creates a session; call Start to enter LIVE.
func NewSession(cfg Config) *Session {
	if cfg.PreviewInterval == 0 {
		cfg.PreviewInterval = DefaultPreviewInterval
	}
	return &Session{cfg: cfg, mode: ModeLive}
}

// Start selects the default camera and enters LIVE. The default follows
// the selector's rear-lens heuristic over the current catalog snapshot.
func (s *Session) Start(ctx context.Context) error {
	catalog, err := s.cfg.Catalog.ListVideoDevices(ctx)
	if err != nil {
		return fmt.Errorf("capture: enumerate devices: %w", err)
	}

	chosen := device.SelectDefault(catalog)
	if chosen == nil {
		return ErrNoCamera
	}

	sel := stream.Selection{DeviceID: chosen.ID, Facing: device.FacingEnvironment}
	if _, err := s.cfg.Streams.Start(ctx, sel); err != nil {
		return err
	}

	s.mu.Lock()
	s.started = true
	s.mode = ModeLive
	s.selection = sel
	s.mu.Unlock()

	s.startPreview()
	s.broadcastState()
	log.Info("capture: session live", "device", s.cfg.Streams.CurrentDeviceID())
	return nil
}

// Trigger fires the single overloaded command: capture while LIVE,
// resume while FROZEN. Concurrent triggers are serialized, so exactly
// one of a racing pair captures and the other resumes.
func (s *Session) Trigger(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	mode := s.mode
	s.mu.Unlock()

	if mode == ModeLive {
		return s.freeze(ctx)
	}
	return s.resume(ctx)
}

// freeze implements LIVE -> FROZEN: snapshot the current stream frame,
// run the pipeline synchronously, clear prior results, then launch the
// extraction call off the hot path.
func (s *Session) freeze(ctx context.Context) error {
	active := s.cfg.Streams.Active()
	if active == nil {
		return ErrNoFrame
	}

	frame, err := active.Grab()
	if err != nil {
		s.setError(err)
		return fmt.Errorf("%w: %v", ErrNoFrame, err)
	}

	enhanced, err := s.cfg.Enhancer.Enhance(frame)
	if err != nil {
		s.setError(err)
		return err
	}

	captureID := uuid.NewString()

	s.stopPreview()

	s.mu.Lock()
	s.mode = ModeFrozen
	s.frozen = &Frozen{CaptureID: captureID, Frame: frame, Enhanced: enhanced}
	s.result = nil
	s.lastErr = ""
	s.mu.Unlock()

	// The frozen viewport shows the enhanced frame that extraction sees.
	if s.cfg.PreviewHub != nil {
		s.cfg.PreviewHub.BroadcastBinary(enhanced.Data)
	}
	s.broadcastState()

	go s.extractAndPersist(captureID, enhanced)

	log.Info("capture: frozen", "capture_id", captureID,
		"size", fmt.Sprintf("%dx%d", enhanced.Width, enhanced.Height))
	return nil
}

// resume implements FROZEN -> LIVE: clear the previous extraction result
// and restart the stream with the currently selected device.
func (s *Session) resume(ctx context.Context) error {
	s.mu.Lock()
	s.frozen = nil
	s.result = nil
	s.lastErr = ""
	sel := s.selection
	s.mu.Unlock()

	if current := s.cfg.Streams.CurrentDeviceID(); current != "" {
		sel.DeviceID = current
	}

	if _, err := s.cfg.Streams.Start(ctx, sel); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.mode = ModeLive
	s.selection = sel
	s.mu.Unlock()

	s.startPreview()
	s.broadcastState()
	log.Info("capture: resumed live", "device", s.cfg.Streams.CurrentDeviceID())
	return nil
}

// SelectDevice switches to an explicitly chosen device, clearing prior
// result state. The session returns to (or stays in) LIVE.
func (s *Session) SelectDevice(ctx context.Context, deviceID string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.reselect(ctx, deviceID)
}

// reselect restarts the stream on deviceID. Callers hold cmdMu.
func (s *Session) reselect(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.frozen = nil
	s.result = nil
	s.lastErr = ""
	sel := stream.Selection{DeviceID: deviceID, Facing: s.selection.Facing}
	s.mu.Unlock()

	s.stopPreview()

	if _, err := s.cfg.Streams.Start(ctx, sel); err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.mode = ModeLive
	s.selection = sel
	s.mu.Unlock()

	s.startPreview()
	s.broadcastState()
	log.Info("capture: device selected", "device", s.cfg.Streams.CurrentDeviceID())
	return nil
}

// Flip switches to the counterpart lens of the current device.
func (s *Session) Flip(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.mu.Unlock()

	catalog, err := s.cfg.Catalog.ListVideoDevices(ctx)
	if err != nil {
		return fmt.Errorf("capture: enumerate devices: %w", err)
	}

	current := s.cfg.Streams.CurrentDeviceID()
	counterpart := device.SelectCounterpart(catalog, current)
	if counterpart == nil {
		return ErrNoCamera
	}
	return s.reselect(ctx, counterpart.ID)
}

// State returns a copy of the observable session state.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Mode:      s.mode,
		DeviceID:  s.cfg.Streams.CurrentDeviceID(),
		LastError: s.lastErr,
	}
	if s.frozen != nil {
		snap.CaptureID = s.frozen.CaptureID
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// Close stops the preview loop and releases the stream.
func (s *Session) Close() error {
	s.stopPreview()
	return s.cfg.Streams.Stop()
}

// extractAndPersist runs the out-of-band extraction call and the
// fire-and-forget insert. A result for a capture the session has moved
// past is discarded: resume already cleared the UI.
func (s *Session) extractAndPersist(captureID string, enhanced enhance.Enhanced) {
	result, raw, err := s.cfg.Extractor.Extract(context.Background(), enhanced.Data)
	if err != nil {
		log.Warn("capture: extraction failed", "capture_id", captureID, "err", err)
		s.mu.Lock()
		if s.frozen != nil && s.frozen.CaptureID == captureID {
			s.lastErr = err.Error()
		}
		s.mu.Unlock()
		s.broadcastState()
		return
	}

	s.mu.Lock()
	stale := s.frozen == nil || s.frozen.CaptureID != captureID
	if !stale {
		s.result = &result
	}
	s.mu.Unlock()

	if stale {
		log.Debug("capture: discarding stale extraction", "capture_id", captureID)
		return
	}

	log.Info("capture: extraction complete", "capture_id", captureID,
		"confidence", string(result.Confidence))
	log.Debug("capture: raw model response", "raw", raw)

	if s.cfg.StatusHub != nil {
		s.cfg.StatusHub.BroadcastJSON(map[string]any{
			"type":       "result",
			"capture_id": captureID,
			"result":     result,
		})
	}

	if s.cfg.Store != nil {
		s.persist(captureID, result)
	}
}

// persist inserts the reading. Failures are logged and dropped; retry
// policy belongs to the persistence collaborator, not this core.
func (s *Session) persist(captureID string, result extract.Result) {
	reading := &store.Reading{
		CaptureID:   captureID,
		Reading:     deref(result.Reading),
		Unit:        deref(result.Unit),
		MeterNumber: deref(result.SerialNumber),
		Notes:       result.Notes,
	}
	if err := s.cfg.Store.Save(context.Background(), reading); err != nil {
		log.Warn("capture: persist failed", "capture_id", captureID, "err", err)
	}
}

// startPreview launches the viewport feed for the current LIVE period.
func (s *Session) startPreview() {
	if s.cfg.PreviewHub == nil {
		return
	}

	s.mu.Lock()
	if s.previewStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.previewStop = stop
	s.previewDone = done
	s.mu.Unlock()

	go s.previewLoop(stop, done)
}

// stopPreview halts the viewport feed and waits for the loop to exit.
func (s *Session) stopPreview() {
	s.mu.Lock()
	stop := s.previewStop
	done := s.previewDone
	s.previewStop = nil
	s.previewDone = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (s *Session) previewLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.PreviewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			active := s.cfg.Streams.Active()
			if active == nil {
				continue
			}
			frame, err := active.Grab()
			if err != nil {
				continue
			}
			jpeg, err := enhance.EncodePreview(frame)
			if err != nil {
				continue
			}
			s.cfg.PreviewHub.BroadcastBinary(jpeg)
		}
	}
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.broadcastState()
}

func (s *Session) broadcastState() {
	if s.cfg.StatusHub == nil {
		return
	}
	snap := s.State()
	s.cfg.StatusHub.BroadcastJSON(map[string]any{
		"type":  "state",
		"state": snap,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
