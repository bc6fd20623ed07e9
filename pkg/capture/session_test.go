package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/metersnap/metersnap/pkg/device"
	"github.com/metersnap/metersnap/pkg/enhance"
	"github.com/metersnap/metersnap/pkg/extract"
	"github.com/metersnap/metersnap/pkg/store"
	"github.com/metersnap/metersnap/pkg/stream"
)

func testFrame() enhance.Frame {
	return enhance.Frame{Width: 4, Height: 4, Pixels: make([]byte, 4*4*3)}
}

func testCatalog() *device.StaticCatalog {
	return &device.StaticCatalog{Devices: []device.VideoDevice{
		{ID: "back0", Label: "camera2 0, facing back"},
		{ID: "front", Label: "camera2 2, facing front"},
	}}
}

type fixture struct {
	session   *Session
	opener    *stream.MockOpener
	enhancer  *MockEnhancer
	extractor *extract.MockExtractor
	readings  *store.MockStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	opener := &stream.MockOpener{Frame: testFrame()}
	catalog := testCatalog()
	enhancer := &MockEnhancer{Output: enhance.Enhanced{Width: 512, Height: 384, Data: []byte("jpeg")}}
	reading := "00123"
	unit := "kWh"
	serial := "12345678"
	extractor := &extract.MockExtractor{
		Result: extract.Result{
			Reading:      &reading,
			Unit:         &unit,
			SerialNumber: &serial,
			Confidence:   extract.ConfidenceHigh,
		},
		Raw: "model text",
	}
	readings := &store.MockStore{}

	session := NewSession(Config{
		Catalog:   catalog,
		Streams:   stream.NewManager(catalog, opener),
		Enhancer:  enhancer,
		Extractor: extractor,
		Store:     readings,
	})
	t.Cleanup(func() { session.Close() })

	return &fixture{
		session:   session,
		opener:    opener,
		enhancer:  enhancer,
		extractor: extractor,
		readings:  readings,
	}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSession_StartEntersLive(t *testing.T) {
	f := newFixture(t)

	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := f.session.State()
	if snap.Mode != ModeLive {
		t.Errorf("Mode: got %q, want live", snap.Mode)
	}
	if snap.DeviceID != "back0" {
		t.Errorf("DeviceID: got %q, want the rear-heuristic default back0", snap.DeviceID)
	}
}

func TestSession_StartWithoutCamera(t *testing.T) {
	catalog := &device.StaticCatalog{}
	session := NewSession(Config{
		Catalog:   catalog,
		Streams:   stream.NewManager(catalog, &stream.MockOpener{}),
		Enhancer:  &MockEnhancer{},
		Extractor: &extract.MockExtractor{},
	})

	if err := session.Start(context.Background()); !errors.Is(err, ErrNoCamera) {
		t.Errorf("Start: got %v, want ErrNoCamera", err)
	}
}

func TestSession_TriggerBeforeStart(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Trigger(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Trigger: got %v, want ErrNotStarted", err)
	}
}

func TestSession_CaptureThenResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// First trigger: capture.
	if err := f.session.Trigger(ctx); err != nil {
		t.Fatalf("Trigger (capture): %v", err)
	}

	snap := f.session.State()
	if snap.Mode != ModeFrozen {
		t.Fatalf("Mode after capture: got %q, want frozen", snap.Mode)
	}
	if snap.CaptureID == "" {
		t.Error("CaptureID should be set while frozen")
	}
	if f.enhancer.Calls() != 1 {
		t.Errorf("enhancer calls: got %d, want 1", f.enhancer.Calls())
	}

	// Extraction completes out of band.
	waitFor(t, "extraction result", func() bool {
		return f.session.State().Result != nil
	})

	result := f.session.State().Result
	if result.Reading == nil || *result.Reading != "00123" {
		t.Errorf("Result.Reading: got %v, want 00123", result.Reading)
	}
	if string(f.extractor.LastImage()) != "jpeg" {
		t.Errorf("extractor payload: got %q, want the enhanced bytes", f.extractor.LastImage())
	}

	// Fire-and-forget persistence lands eventually.
	waitFor(t, "persisted reading", func() bool {
		return f.readings.Count() == 1
	})
	saved := f.readings.Last()
	if saved.Reading != "00123" || saved.Unit != "kWh" || saved.MeterNumber != "12345678" {
		t.Errorf("persisted reading mismatch: %+v", saved)
	}
	if saved.CaptureID != snap.CaptureID {
		t.Errorf("persisted CaptureID: got %q, want %q", saved.CaptureID, snap.CaptureID)
	}

	// Second trigger: resume. Result state clears, stream restarts.
	if err := f.session.Trigger(ctx); err != nil {
		t.Fatalf("Trigger (resume): %v", err)
	}

	snap = f.session.State()
	if snap.Mode != ModeLive {
		t.Errorf("Mode after resume: got %q, want live", snap.Mode)
	}
	if snap.Result != nil {
		t.Error("Result should be cleared on resume")
	}
	if snap.CaptureID != "" {
		t.Error("CaptureID should be cleared on resume")
	}
	if f.opener.LiveTracks() != 1 {
		t.Errorf("live tracks after resume: got %d, want 1", f.opener.LiveTracks())
	}
}

func TestSession_ConcurrentTriggersSerialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Two racing triggers must not both observe LIVE: one captures, the
	// other sees FROZEN and resumes.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.session.Trigger(ctx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("trigger %d: %v", i, err)
		}
	}
	if got := f.enhancer.Calls(); got != 1 {
		t.Errorf("enhancer calls: got %d, want 1 (double capture)", got)
	}
	if got := f.session.State().Mode; got != ModeLive {
		t.Errorf("Mode: got %q, want live (capture then resume)", got)
	}
	if f.opener.LiveTracks() != 1 {
		t.Errorf("live tracks: got %d, want 1", f.opener.LiveTracks())
	}
}

func TestSession_SelectDeviceClearsResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.session.Trigger(ctx); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	waitFor(t, "extraction result", func() bool {
		return f.session.State().Result != nil
	})

	if err := f.session.SelectDevice(ctx, "front"); err != nil {
		t.Fatalf("SelectDevice: %v", err)
	}

	snap := f.session.State()
	if snap.Mode != ModeLive {
		t.Errorf("Mode: got %q, want live", snap.Mode)
	}
	if snap.Result != nil {
		t.Error("Result should be cleared on device change")
	}
	if snap.DeviceID != "front" {
		t.Errorf("DeviceID: got %q, want front", snap.DeviceID)
	}
	if f.opener.LiveTracks() != 1 {
		t.Errorf("live tracks: got %d, want 1", f.opener.LiveTracks())
	}
}

func TestSession_FlipRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	start := f.session.State().DeviceID

	if err := f.session.Flip(ctx); err != nil {
		t.Fatalf("Flip: %v", err)
	}
	if got := f.session.State().DeviceID; got != "front" {
		t.Errorf("after first flip: got %q, want front", got)
	}

	if err := f.session.Flip(ctx); err != nil {
		t.Fatalf("Flip: %v", err)
	}
	if got := f.session.State().DeviceID; got != start {
		t.Errorf("flip round-trip: started on %q, ended on %q", start, got)
	}
	if f.opener.LiveTracks() != 1 {
		t.Errorf("live tracks after flips: got %d, want 1", f.opener.LiveTracks())
	}
}

func TestSession_ExtractionFailureIsRecoverable(t *testing.T) {
	f := newFixture(t)
	f.extractor.Err = errors.New("endpoint unreachable")
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.session.Trigger(ctx); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	waitFor(t, "error surfaced", func() bool {
		return f.session.State().LastError != ""
	})

	snap := f.session.State()
	if snap.Mode != ModeFrozen {
		t.Errorf("Mode: got %q, want frozen (retryable state)", snap.Mode)
	}
	if f.readings.Count() != 0 {
		t.Errorf("readings persisted: got %d, want 0", f.readings.Count())
	}

	// The machine is not stuck: resume still works.
	if err := f.session.Trigger(ctx); err != nil {
		t.Fatalf("Trigger (resume): %v", err)
	}
	if got := f.session.State().Mode; got != ModeLive {
		t.Errorf("Mode after resume: got %q, want live", got)
	}
}

// blockingExtractor holds every call until released, so tests can
// interleave a resume with an in-flight extraction.
type blockingExtractor struct {
	release chan struct{}
	result  extract.Result
}

func (b *blockingExtractor) Extract(ctx context.Context, jpeg []byte) (extract.Result, string, error) {
	<-b.release
	return b.result, "", nil
}

func TestSession_StaleExtractionDiscarded(t *testing.T) {
	opener := &stream.MockOpener{Frame: testFrame()}
	catalog := testCatalog()
	reading := "99999"
	blocking := &blockingExtractor{
		release: make(chan struct{}),
		result:  extract.Result{Reading: &reading, Confidence: extract.ConfidenceHigh},
	}
	readings := &store.MockStore{}

	session := NewSession(Config{
		Catalog:   catalog,
		Streams:   stream.NewManager(catalog, opener),
		Enhancer:  &MockEnhancer{Output: enhance.Enhanced{Width: 512, Height: 384, Data: []byte("jpeg")}},
		Extractor: blocking,
		Store:     readings,
	})
	t.Cleanup(func() { session.Close() })
	ctx := context.Background()

	if err := session.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := session.Trigger(ctx); err != nil {
		t.Fatalf("Trigger (capture): %v", err)
	}
	// Resume before the extraction completes.
	if err := session.Trigger(ctx); err != nil {
		t.Fatalf("Trigger (resume): %v", err)
	}

	close(blocking.release)

	// The stale result must not surface or persist.
	time.Sleep(50 * time.Millisecond)
	if got := session.State().Result; got != nil {
		t.Errorf("stale result surfaced: %+v", got)
	}
	if readings.Count() != 0 {
		t.Errorf("stale reading persisted: got %d, want 0", readings.Count())
	}
}

func TestSession_PersistFailureDoesNotBlockResult(t *testing.T) {
	f := newFixture(t)
	f.readings.Err = errors.New("disk full")
	ctx := context.Background()

	if err := f.session.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.session.Trigger(ctx); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	waitFor(t, "extraction result despite store failure", func() bool {
		return f.session.State().Result != nil
	})
}
