package overlay

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/example/snapshade/internal/display"
	"github.com/example/snapshade/internal/pipeline"
	"github.com/example/snapshade/internal/wincat"
)

type fakeBackend struct {
	mu       sync.Mutex
	descs    []display.Descriptor
	onChange func()
}

func (f *fakeBackend) Descriptors() ([]display.Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]display.Descriptor, len(f.descs))
	copy(out, f.descs)
	return out, nil
}

func (f *fakeBackend) Watch(onChange func()) (func(), error) {
	f.mu.Lock()
	f.onChange = onChange
	f.mu.Unlock()
	return func() {}, nil
}

func (f *fakeBackend) change(descs []display.Descriptor) {
	f.mu.Lock()
	f.descs = descs
	fn := f.onChange
	f.mu.Unlock()
	fn()
}

type fakeService struct {
	mu           sync.Mutex
	displays     []display.CaptureDisplay
	displayCalls int
	windowCalls  int
}

func (f *fakeService) Displays() ([]display.CaptureDisplay, error) {
	return f.displays, nil
}

func (f *fakeService) CaptureDisplay(d display.CaptureDisplay, _ pipeline.CaptureOptions) (*image.RGBA, error) {
	f.mu.Lock()
	f.displayCalls++
	f.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, d.Bounds.Dx(), d.Bounds.Dy())), nil
}

func (f *fakeService) CaptureWindow(uint32) (*image.RGBA, error) {
	f.mu.Lock()
	f.windowCalls++
	f.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

func (f *fakeService) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
}

func (f *fakeService) captureCalls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.displayCalls, f.windowCalls
}

type fakeSource struct {
	windows []wincat.Candidate
}

func (f *fakeSource) ListWindows() ([]wincat.Candidate, error) {
	return f.windows, nil
}

type fakeSurface struct {
	mu      sync.Mutex
	disp    display.Descriptor
	post    func(Result)
	hidden  bool
	windows []wincat.Candidate
}

func (f *fakeSurface) Hide() {
	f.mu.Lock()
	f.hidden = true
	f.mu.Unlock()
}

func (f *fakeSurface) SetWindows(windows []wincat.Candidate) {
	f.mu.Lock()
	f.windows = windows
	f.mu.Unlock()
}

func (f *fakeSurface) isHidden() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hidden
}

func (f *fakeSurface) candidateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

type fakeFactory struct {
	created chan *fakeSurface
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{created: make(chan *fakeSurface, 16)}
}

func (f *fakeFactory) make(d display.Descriptor, _ Mode, post func(Result)) (Surface, error) {
	s := &fakeSurface{disp: d, post: post}
	f.created <- s
	return s, nil
}

func (f *fakeFactory) wait(t *testing.T, n int) []*fakeSurface {
	t.Helper()
	out := make([]*fakeSurface, 0, n)
	for len(out) < n {
		select {
		case s := <-f.created:
			out = append(out, s)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d surfaces, got %d", n, len(out))
		}
	}
	return out
}

type sinkCall struct {
	kind   string
	region image.Rectangle
	err    error
}

type fakeSink struct {
	calls chan sinkCall
}

func newFakeSink() *fakeSink {
	return &fakeSink{calls: make(chan sinkCall, 16)}
}

func (f *fakeSink) Captured(_ *image.RGBA, region image.Rectangle) {
	f.calls <- sinkCall{kind: "captured", region: region}
}

func (f *fakeSink) Cancelled() {
	f.calls <- sinkCall{kind: "cancelled"}
}

func (f *fakeSink) PermissionDenied(err error) {
	f.calls <- sinkCall{kind: "permission", err: err}
}

func (f *fakeSink) wait(t *testing.T) sinkCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sink call")
		return sinkCall{}
	}
}

func twoDisplays() []display.Descriptor {
	return []display.Descriptor{
		{ID: "DP-1", Frame: image.Rect(0, 0, 1920, 1080), Scale: 1, Primary: true},
		{ID: "DP-2", Frame: image.Rect(1920, 0, 3840, 1080), Scale: 1},
	}
}

func startCoordinator(t *testing.T, backend *fakeBackend, service *fakeService, source wincat.Source, factory SurfaceFactory, sink Sink, opts ...pipeline.Option) *Coordinator {
	t.Helper()
	reg, err := display.NewRegistry(backend)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(reg.Close)

	c := NewCoordinator(reg, wincat.New(source), pipeline.New(reg, service, opts...), factory, sink)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)
	return c
}

func init() {
	// Captures in tests run against fakes; there is no compositor to wait for.
	settleDelay = 0
}

func TestFirstCompletionWins(t *testing.T) {
	backend := &fakeBackend{descs: twoDisplays()}
	service := &fakeService{
		displays: []display.CaptureDisplay{
			{Index: 0, Bounds: image.Rect(0, 0, 1920, 1080)},
			{Index: 1, Bounds: image.Rect(1920, 0, 3840, 1080)},
		},
	}
	factory := newFakeFactory()
	sink := newFakeSink()
	c := startCoordinator(t, backend, service, &fakeSource{}, factory.make, sink)

	c.Start(ModeArea)
	surfaces := factory.wait(t, 2)

	region := image.Rect(100, 100, 400, 300)
	surfaces[0].post(Result{Kind: KindRegion, Region: region})
	// The second surface races in after the winner; it must be ignored.
	surfaces[1].post(Result{Kind: KindRegion, Region: image.Rect(2000, 0, 2500, 500)})

	call := sink.wait(t)
	if call.kind != "captured" || call.region != region {
		t.Fatalf("sink got %+v, want captured %v", call, region)
	}
	select {
	case extra := <-sink.calls:
		t.Fatalf("unexpected second sink call %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
	if dc, _ := service.captureCalls(); dc != 1 {
		t.Fatalf("display captures = %d, want 1", dc)
	}
	for i, s := range surfaces {
		if !s.isHidden() {
			t.Fatalf("surface %d not hidden after completion", i)
		}
	}
}

func TestCancelledSessionReachesSinkWithoutCapture(t *testing.T) {
	backend := &fakeBackend{descs: twoDisplays()}
	service := &fakeService{}
	factory := newFakeFactory()
	sink := newFakeSink()
	c := startCoordinator(t, backend, service, &fakeSource{}, factory.make, sink)

	c.Start(ModeArea)
	surfaces := factory.wait(t, 2)
	surfaces[1].post(Result{Kind: KindCancelled})

	if call := sink.wait(t); call.kind != "cancelled" {
		t.Fatalf("sink got %+v, want cancelled", call)
	}
	if dc, wc := service.captureCalls(); dc != 0 || wc != 0 {
		t.Fatalf("cancel must not capture, got %d/%d calls", dc, wc)
	}
}

func TestConfigChangeRebuildsSurfacesMidSession(t *testing.T) {
	backend := &fakeBackend{descs: twoDisplays()}
	service := &fakeService{}
	factory := newFakeFactory()
	sink := newFakeSink()
	c := startCoordinator(t, backend, service, &fakeSource{}, factory.make, sink)

	c.Start(ModeArea)
	old := factory.wait(t, 2)

	// A third display appears mid-session.
	three := append(twoDisplays(), display.Descriptor{
		ID: "DP-3", Frame: image.Rect(3840, 0, 5760, 1080), Scale: 1,
	})
	backend.change(three)

	fresh := factory.wait(t, 3)
	for i, s := range old {
		if !s.isHidden() {
			t.Fatalf("old surface %d not hidden on rebuild", i)
		}
	}

	// A late result from the torn-down session is ignored.
	old[0].post(Result{Kind: KindRegion, Region: image.Rect(0, 0, 100, 100)})
	select {
	case call := <-sink.calls:
		t.Fatalf("stale session result reached the sink: %+v", call)
	case <-time.After(100 * time.Millisecond):
	}

	// The rebuilt session still completes normally.
	fresh[2].post(Result{Kind: KindCancelled})
	if call := sink.wait(t); call.kind != "cancelled" {
		t.Fatalf("sink got %+v, want cancelled", call)
	}
}

func TestWindowModeDistributesCandidates(t *testing.T) {
	backend := &fakeBackend{descs: twoDisplays()}
	service := &fakeService{}
	source := &fakeSource{windows: []wincat.Candidate{
		{ID: 1, Title: "editor", Frame: image.Rect(100, 100, 900, 800), Layer: 2},
		{ID: 2, Title: "terminal", Frame: image.Rect(2000, 100, 2900, 800), Layer: 1},
	}}
	factory := newFakeFactory()
	sink := newFakeSink()
	c := startCoordinator(t, backend, service, source, factory.make, sink)

	c.Start(ModeWindow)
	surfaces := factory.wait(t, 2)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if surfaces[0].candidateCount() == 2 && surfaces[1].candidateCount() == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("candidates never reached surfaces: %d/%d",
				surfaces[0].candidateCount(), surfaces[1].candidateCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWindowCaptureRoutedToPipeline(t *testing.T) {
	backend := &fakeBackend{descs: twoDisplays()}
	service := &fakeService{}
	factory := newFakeFactory()
	sink := newFakeSink()
	c := startCoordinator(t, backend, service, &fakeSource{}, factory.make, sink)

	c.Start(ModeWindow)
	surfaces := factory.wait(t, 2)
	win := wincat.Candidate{ID: 7, Frame: image.Rect(100, 100, 700, 500)}
	surfaces[0].post(Result{Kind: KindWindow, Window: win})

	call := sink.wait(t)
	if call.kind != "captured" || call.region != win.Frame {
		t.Fatalf("sink got %+v, want captured %v", call, win.Frame)
	}
	if _, wc := service.captureCalls(); wc != 1 {
		t.Fatalf("window captures = %d, want 1", wc)
	}
}

func TestPermissionDenialReachesSink(t *testing.T) {
	backend := &fakeBackend{descs: twoDisplays()}
	service := &fakeService{}
	factory := newFakeFactory()
	sink := newFakeSink()
	c := startCoordinator(t, backend, service, &fakeSource{}, factory.make, sink,
		pipeline.WithPermissionCheck(func() bool { return false }))

	c.Start(ModeArea)
	surfaces := factory.wait(t, 2)
	surfaces[0].post(Result{Kind: KindRegion, Region: image.Rect(100, 100, 400, 300)})

	call := sink.wait(t)
	if call.kind != "permission" || !errors.Is(call.err, pipeline.ErrPermissionDenied) {
		t.Fatalf("sink got %+v, want permission denial", call)
	}
	if dc, _ := service.captureCalls(); dc != 0 {
		t.Fatalf("denied capture must not reach the service, got %d calls", dc)
	}
}
