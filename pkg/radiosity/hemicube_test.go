package radiosity

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-radiosity/pkg/geometry"
	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

func vecApproxEqual(a, b mgl64.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-12)
}

func TestHemicubeCameras(t *testing.T) {
	m := newTwoSquareModel(t)
	floor := m.Shooters[0]
	cams, err := HemicubeCameras(floor, m.Radius)
	if err != nil {
		t.Fatalf("HemicubeCameras failed: %v", err)
	}

	wantNear := math.Sqrt2 * 0.5 / 2
	wantFar := 2 * m.Radius
	eye := mgl64.Vec3{0.5, 0.5, 0}

	tests := []struct {
		face      int
		direction mgl64.Vec3
		up        mgl64.Vec3
		bottom    float64
	}{
		{0, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0}, -wantNear},
		{1, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0, 0, 1}, 0},
		{2, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 0, 1}, 0},
		{3, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}, 0},
		{4, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}, 0},
	}

	for _, tt := range tests {
		cam := cams[tt.face]
		if !vecApproxEqual(cam.Eye, eye) {
			t.Errorf("face %d: eye %v, want %v", tt.face, cam.Eye, eye)
		}
		if !vecApproxEqual(cam.Forward(), tt.direction) {
			t.Errorf("face %d: forward %v, want %v", tt.face, cam.Forward(), tt.direction)
		}
		if !vecApproxEqual(cam.Up, tt.up) {
			t.Errorf("face %d: up %v, want %v", tt.face, cam.Up, tt.up)
		}
		f := cam.Frustum
		if math.Abs(f.Near-wantNear) > 1e-12 || math.Abs(f.Far-wantFar) > 1e-12 {
			t.Errorf("face %d: near/far %g/%g, want %g/%g", tt.face, f.Near, f.Far, wantNear, wantFar)
		}
		if math.Abs(f.Bottom-tt.bottom) > 1e-12 || math.Abs(f.Top-wantNear) > 1e-12 {
			t.Errorf("face %d: bottom/top %g/%g, want %g/%g", tt.face, f.Bottom, f.Top, tt.bottom, wantNear)
		}
		if math.Abs(f.Left+wantNear) > 1e-12 || math.Abs(f.Right-wantNear) > 1e-12 {
			t.Errorf("face %d: left/right %g/%g", tt.face, f.Left, f.Right)
		}
	}
}

func TestHemicubeCamerasDegenerateShooter(t *testing.T) {
	p := mgl64.Vec3{1, 2, 3}
	shooter := &scene.ShooterQuad{
		Quad:     geometry.NewQuad(p, p, p, p),
		Centroid: p,
	}
	if _, err := HemicubeCameras(shooter, 10); !errors.Is(err, ErrDegenerateShooter) {
		t.Errorf("expected ErrDegenerateShooter, got %v", err)
	}
}

func newTestSampler(t *testing.T, m *scene.Model, rast renderer.Rasterizer, width int) *Sampler {
	t.Helper()
	tables, err := NewDeltaFormFactors(width)
	if err != nil {
		t.Fatalf("NewDeltaFormFactors failed: %v", err)
	}
	set, err := renderer.NewQuadSet(m.GathererQuads())
	if err != nil {
		t.Fatalf("NewQuadSet failed: %v", err)
	}
	s, err := NewSampler(rast, set, tables, m.Radius, nil)
	if err != nil {
		t.Fatalf("NewSampler failed: %v", err)
	}
	return s
}

func TestSamplerRendersFacesInOrder(t *testing.T) {
	m := newTwoSquareModel(t)
	rast := newFakeRasterizer(16, 6)
	s := newTestSampler(t, m, rast, 16)

	faces, err := s.Sample(m.Shooters[1])
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if len(faces) != NumFaces || len(rast.viewports) != NumFaces {
		t.Fatalf("got %d faces and %d renders, want %d", len(faces), len(rast.viewports), NumFaces)
	}

	cams, _ := HemicubeCameras(m.Shooters[1], m.Radius)
	wantNames := []string{"top", "side1", "side2", "side3", "side4"}
	for i, face := range faces {
		if face.Name != wantNames[i] || face.Index != i {
			t.Errorf("face %d: name %q index %d", i, face.Name, face.Index)
		}
		wantHeight := 16
		wantKind := TopFace
		if i > 0 {
			wantHeight = 8
			wantKind = SideFace
		}
		if face.Kind != wantKind || face.Width != 16 || face.Height != wantHeight {
			t.Errorf("face %d: kind %s size %dx%d", i, face.Kind, face.Width, face.Height)
		}
		if rast.viewports[i] != image.Rect(0, 0, 16, wantHeight) {
			t.Errorf("face %d: viewport %v", i, rast.viewports[i])
		}
		if rast.cameras[i] != cams[i] {
			t.Errorf("face %d: camera mismatch", i)
		}
		if len(face.Table) != face.Width*face.Height || len(face.Pixels) != 3*face.Width*face.Height {
			t.Errorf("face %d: table %d entries, %d bytes", i, len(face.Table), len(face.Pixels))
		}
		if got := renderer.PixelID(face.Pixels, 0); got != 6 {
			t.Errorf("face %d: first pixel id %d, want 6", i, got)
		}
	}
}

func TestSamplerReusesBuffers(t *testing.T) {
	m := newTwoSquareModel(t)
	s := newTestSampler(t, m, newFakeRasterizer(16, 1), 16)

	first, err := s.Sample(m.Shooters[0])
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	ptr := &first[2].Pixels[0]
	second, err := s.Sample(m.Shooters[1])
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if &second[2].Pixels[0] != ptr {
		t.Error("face buffers were reallocated between samples")
	}
}

func TestNewSamplerErrors(t *testing.T) {
	m := newTwoSquareModel(t)

	rgb565 := newFakeRasterizer(16, 0)
	rgb565.bits = [3]int{5, 6, 5}

	tests := []struct {
		name    string
		rast    *fakeRasterizer
		wantErr error
	}{
		{"16-bit colour", rgb565, ErrPixelFormat},
		{"wrong size", newFakeRasterizer(32, 0), ErrSurfaceSize},
		{"not square", &fakeRasterizer{width: 16, height: 8, bits: [3]int{8, 8, 8}}, ErrSurfaceSize},
	}

	tables, _ := NewDeltaFormFactors(16)
	set, _ := renderer.NewQuadSet(m.GathererQuads())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSampler(tt.rast, set, tables, m.Radius, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAtlasFaces(t *testing.T) {
	m := newTwoSquareModel(t)
	s := newTestSampler(t, m, newFakeRasterizer(16, 2), 16)
	faces, err := s.Sample(m.Shooters[0])
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	atlas := AtlasFaces(faces)
	if len(atlas) != NumFaces {
		t.Fatalf("got %d atlas faces", len(atlas))
	}
	if atlas[1].Width != 16 || atlas[1].Height != 8 || len(atlas[1].Pixels) != 16*8*3 {
		t.Errorf("unexpected side atlas face %dx%d", atlas[1].Width, atlas[1].Height)
	}
}
