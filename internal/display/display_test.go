package display

import (
	"errors"
	"image"
	"testing"
)

type fakeBackend struct {
	descs    []Descriptor
	descsErr error
	onChange func()
}

func (f *fakeBackend) Descriptors() ([]Descriptor, error) {
	if f.descsErr != nil {
		return nil, f.descsErr
	}
	out := make([]Descriptor, len(f.descs))
	copy(out, f.descs)
	return out, nil
}

func (f *fakeBackend) Watch(onChange func()) (func(), error) {
	f.onChange = onChange
	return func() {}, nil
}

func twoDisplays() []Descriptor {
	return []Descriptor{
		{ID: "DP-1", Frame: image.Rect(0, 0, 1920, 1080), Scale: 2, Primary: true},
		{ID: "DP-2", Frame: image.Rect(1920, 0, 3840, 1080), Scale: 2},
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	for _, d := range twoDisplays() {
		points := []image.Point{
			d.Frame.Min,
			{X: d.Frame.Min.X + d.Frame.Dx()/2, Y: d.Frame.Min.Y + d.Frame.Dy()/2},
			{X: d.Frame.Max.X - 1, Y: d.Frame.Max.Y - 1},
		}
		for _, p := range points {
			got := d.ToGlobal(d.ToLocal(p))
			if got != p {
				t.Errorf("%s: round trip of %v produced %v", d.ID, p, got)
			}
		}
	}
}

func TestSnapshotDisjointness(t *testing.T) {
	descs := twoDisplays()
	for i, a := range descs {
		for j, b := range descs {
			if i == j {
				continue
			}
			inter := a.Frame.Intersect(b.Frame)
			if inter.Dx() > 0 && inter.Dy() > 0 {
				t.Fatalf("frames %v and %v overlap in %v", a.Frame, b.Frame, inter)
			}
		}
	}
}

func TestAtAndForRect(t *testing.T) {
	descs := twoDisplays()

	d, ok := At(descs, image.Pt(2000, 500))
	if !ok || d.ID != "DP-2" {
		t.Fatalf("At(2000,500) = %v, %v; want DP-2", d.ID, ok)
	}
	if _, ok := At(descs, image.Pt(4000, 500)); ok {
		t.Fatalf("expected no display at an off-desktop point")
	}

	d, ok = ForRect(descs, image.Rect(2100, 100, 2400, 300))
	if !ok || d.ID != "DP-2" {
		t.Fatalf("ForRect on second display = %v, %v; want DP-2", d.ID, ok)
	}
}

func TestPrimaryFallsBackToFirst(t *testing.T) {
	descs := []Descriptor{
		{ID: "a", Frame: image.Rect(0, 0, 10, 10)},
		{ID: "b", Frame: image.Rect(10, 0, 20, 10)},
	}
	d, ok := Primary(descs)
	if !ok || d.ID != "a" {
		t.Fatalf("Primary without a flagged display = %v, %v; want first", d.ID, ok)
	}
}

func TestRegistryRefreshReplacesSnapshot(t *testing.T) {
	backend := &fakeBackend{descs: twoDisplays()}
	reg, err := NewRegistry(backend)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(reg.Close)

	if got := len(reg.Current()); got != 2 {
		t.Fatalf("expected 2 displays, got %d", got)
	}

	backend.descs = backend.descs[:1]
	backend.onChange()
	if got := len(reg.Current()); got != 1 {
		t.Fatalf("expected 1 display after change, got %d", got)
	}
}

func TestRegistryChangeNotifiesSubscribers(t *testing.T) {
	backend := &fakeBackend{descs: twoDisplays()}
	reg, err := NewRegistry(backend)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(reg.Close)

	calls := 0
	reg.OnChange(func() { calls++ })
	backend.onChange()
	backend.onChange()
	if calls != 2 {
		t.Fatalf("expected 2 change notifications, got %d", calls)
	}
}

func TestRegistryKeepsSnapshotOnFailedRefresh(t *testing.T) {
	backend := &fakeBackend{descs: twoDisplays()}
	reg, err := NewRegistry(backend)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(reg.Close)

	backend.descsErr = errors.New("enumeration failed")
	backend.onChange()
	if got := len(reg.Current()); got != 2 {
		t.Fatalf("expected stale snapshot to survive failed refresh, got %d displays", got)
	}
}

func TestPixelSizeUsesScaleFactor(t *testing.T) {
	d := Descriptor{Frame: image.Rect(0, 0, 1920, 1080), Scale: 2}
	if got := d.PixelSize(); got != image.Pt(3840, 2160) {
		t.Fatalf("PixelSize = %v, want (3840,2160)", got)
	}
}
