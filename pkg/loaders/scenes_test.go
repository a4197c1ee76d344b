package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

func TestOpenScene(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "room.in"), []byte(testModel), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	coarse := scene.SubdivisionConfig{ShooterSize: 300, GathererSize: 150}

	tests := []struct {
		name     string
		ref      string
		config   scene.SubdivisionConfig
		wantName string
		wantErr  error
	}{
		{"built-in", "cornell-empty", coarse, "cornell-empty", nil},
		{"model id", "model:room", scene.SubdivisionConfig{}, "room", nil},
		{"model path", filepath.Join(dir, "room.in"), scene.SubdivisionConfig{}, "room", nil},
		{"unknown built-in", "teapot", coarse, "", scene.ErrUnknownScene},
		{"missing model", "model:attic", coarse, "", scene.ErrUnknownScene},
		{"escaping model id", "model:../room", coarse, "", scene.ErrUnknownScene},
		{"empty", "", coarse, "", scene.ErrUnknownScene},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := OpenScene(tt.ref, dir, tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenScene(%q) failed: %v", tt.ref, err)
			}
			if m.Name != tt.wantName {
				t.Errorf("model name %q, want %q", m.Name, tt.wantName)
			}
		})
	}
}
