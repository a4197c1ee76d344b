package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// OpenScene resolves a scene reference and builds its model. The reference
// is a built-in scene ID, a "model:<name>" ID found in scenesDir, or a path
// to a model file. A non-zero subdivision overrides the scene's own.
func OpenScene(ref, scenesDir string, subdivision scene.SubdivisionConfig) (*scene.Model, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty scene name", scene.ErrUnknownScene)
	}

	if name, ok := strings.CutPrefix(ref, scene.TypeModel+":"); ok {
		path, err := findModelFile(scenesDir, name)
		if err != nil {
			return nil, err
		}
		return LoadModel(path, subdivision)
	}

	if scene.IsModelFile(ref) {
		return LoadModel(ref, subdivision)
	}

	return scene.NewBuiltinScene(ref, subdivision)
}

// findModelFile returns the first file named name plus a model suffix
func findModelFile(dir, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", fmt.Errorf("%w: invalid model name %q", scene.ErrUnknownScene, name)
	}
	for _, ext := range scene.ModelExtensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no model file %q in %s", scene.ErrUnknownScene, name, dir)
}
