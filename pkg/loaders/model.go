package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/geometry"
	"github.com/df07/go-progressive-radiosity/pkg/material"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// ErrSyntax is wrapped by every parse error of a model file
var ErrSyntax = errors.New("loaders: model syntax error")

// SourceQuad is an input polygon referring to a surface by name
type SourceQuad struct {
	Quad    geometry.Quad
	Surface string
	Line    int
}

// ModelSource is the content of a model file before subdivision.
//
// The text format is line oriented, with # starting a comment:
//
//	subdivide <shooterSize> <gathererSize>
//	surface <name> <r> <g> <b> <er> <eg> <eb>
//	quad <surface> <x0> <y0> <z0> ... <x3> <y3> <z3>
//	view <eye xyz> <lookAt xyz> <up xyz> <vfov>
//
// Surfaces give reflectivity then emission and must be declared before
// the quads that use them. Quad vertices are counter-clockwise seen from
// the front.
type ModelSource struct {
	Subdivision scene.SubdivisionConfig
	Surfaces    []*material.Surface
	Quads       []SourceQuad
	View        *scene.ViewConfig
}

// ParseModelSource reads a model file without building it
func ParseModelSource(r io.Reader) (*ModelSource, error) {
	src := &ModelSource{}
	surfaces := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		args := fields[1:]
		switch fields[0] {
		case "subdivide":
			v, err := parseFloats(args, 2)
			if err != nil {
				return nil, syntaxError(lineNum, "subdivide: %v", err)
			}
			src.Subdivision = scene.SubdivisionConfig{ShooterSize: v[0], GathererSize: v[1]}
			if err := src.Subdivision.Validate(); err != nil {
				return nil, syntaxError(lineNum, "%v", err)
			}

		case "surface":
			if len(args) != 7 {
				return nil, syntaxError(lineNum, "surface: expected name and 6 numbers, got %d fields", len(args))
			}
			name := args[0]
			if surfaces[name] {
				return nil, syntaxError(lineNum, "surface %q redefined", name)
			}
			v, err := parseFloats(args[1:], 6)
			if err != nil {
				return nil, syntaxError(lineNum, "surface %q: %v", name, err)
			}
			s := material.NewSurface(name, core.NewRGB(v[0], v[1], v[2]), core.NewRGB(v[3], v[4], v[5]))
			if err := s.Validate(); err != nil {
				return nil, syntaxError(lineNum, "%v", err)
			}
			surfaces[name] = true
			src.Surfaces = append(src.Surfaces, s)

		case "quad":
			if len(args) != 13 {
				return nil, syntaxError(lineNum, "quad: expected surface and 12 numbers, got %d fields", len(args))
			}
			if !surfaces[args[0]] {
				return nil, syntaxError(lineNum, "quad: unknown surface %q", args[0])
			}
			v, err := parseFloats(args[1:], 12)
			if err != nil {
				return nil, syntaxError(lineNum, "quad: %v", err)
			}
			q := geometry.NewQuad(
				mgl64.Vec3{v[0], v[1], v[2]},
				mgl64.Vec3{v[3], v[4], v[5]},
				mgl64.Vec3{v[6], v[7], v[8]},
				mgl64.Vec3{v[9], v[10], v[11]},
			)
			if q.IsDegenerate() {
				return nil, syntaxError(lineNum, "quad has zero area")
			}
			src.Quads = append(src.Quads, SourceQuad{Quad: q, Surface: args[0], Line: lineNum})

		case "view":
			v, err := parseFloats(args, 10)
			if err != nil {
				return nil, syntaxError(lineNum, "view: %v", err)
			}
			src.View = &scene.ViewConfig{
				Eye:    mgl64.Vec3{v[0], v[1], v[2]},
				LookAt: mgl64.Vec3{v[3], v[4], v[5]},
				Up:     mgl64.Vec3{v[6], v[7], v[8]},
				VFov:   v[9],
			}

		default:
			return nil, syntaxError(lineNum, "unknown directive %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading model: %w", err)
	}
	if len(src.Quads) == 0 {
		return nil, scene.ErrEmptyModel
	}
	return src, nil
}

// Build subdivides the source into a model. A non-zero override replaces
// the file's subdivide directive.
func (src *ModelSource) Build(name string, override scene.SubdivisionConfig) (*scene.Model, error) {
	b := scene.NewBuilder(name, override.Or(src.Subdivision))
	for _, s := range src.Surfaces {
		if err := b.AddSurface(s); err != nil {
			return nil, err
		}
	}
	for _, q := range src.Quads {
		s, ok := b.Surface(q.Surface)
		if !ok {
			return nil, fmt.Errorf("%w: line %d: unknown surface %q", ErrSyntax, q.Line, q.Surface)
		}
		if err := b.AddQuad(q.Quad, s); err != nil {
			return nil, fmt.Errorf("line %d: %w", q.Line, err)
		}
	}
	if src.View != nil {
		b.SetView(*src.View)
	}
	return b.Build()
}

// ParseModel reads and builds a model
func ParseModel(r io.Reader, name string, override scene.SubdivisionConfig) (*scene.Model, error) {
	src, err := ParseModelSource(r)
	if err != nil {
		return nil, err
	}
	return src.Build(name, override)
}

// LoadModel loads a model file, decompressing .gz and .zst files. The model
// is named after the file.
func LoadModel(path string, override scene.SubdivisionConfig) (*scene.Model, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	m, err := ParseModel(r, ModelName(path), override)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ModelName strips the directory and any model or compression suffix
func ModelName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst", ".in", ".out"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(fields))
	}
	values := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		values[i] = v
	}
	return values, nil
}

func syntaxError(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}
