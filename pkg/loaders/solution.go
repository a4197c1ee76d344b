package loaders

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-radiosity/pkg/core"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// SolutionQuad is one gatherer of a solved model
type SolutionQuad struct {
	VertexIndex [4]int
	Radiosity   core.RGB
}

// Solution is the content of an .out file: the gatherer lattice with
// per-vertex and per-patch radiosity
type Solution struct {
	Vertices []scene.Vertex
	Quads    []SolutionQuad
}

// WriteSolution writes the gatherers of a solved model:
//
//	vertices <n>
//	<x> <y> <z> <r> <g> <b>      (n lines)
//	quads <m>
//	<i0> <i1> <i2> <i3> <r> <g> <b>      (m lines)
//
// Vertex radiosities must already be computed.
func WriteSolution(w io.Writer, m *scene.Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# Radiosity solution: %s\n", m.Name)
	fmt.Fprintf(bw, "vertices %d\n", len(m.Vertices))
	for _, v := range m.Vertices {
		writeFloats(bw, v.Position[0], v.Position[1], v.Position[2])
		bw.WriteByte(' ')
		writeFloats(bw, v.Radiosity[0], v.Radiosity[1], v.Radiosity[2])
		bw.WriteByte('\n')
	}

	fmt.Fprintf(bw, "quads %d\n", len(m.Gatherers))
	for _, g := range m.Gatherers {
		fmt.Fprintf(bw, "%d %d %d %d ", g.VertexIndex[0], g.VertexIndex[1], g.VertexIndex[2], g.VertexIndex[3])
		writeFloats(bw, g.Radiosity[0], g.Radiosity[1], g.Radiosity[2])
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write solution: %w", err)
	}
	return nil
}

// SaveSolution writes a solution file, compressing by file suffix
func SaveSolution(path string, m *scene.Model) (err error) {
	w, err := CreateWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteSolution(w, m)
}

// ReadSolution parses a file written by WriteSolution
func ReadSolution(r io.Reader) (*Solution, error) {
	sol := &Solution{}
	scanner := bufio.NewScanner(r)
	lineNum := 0

	// next returns the fields of the next non-comment line
	next := func() ([]string, bool) {
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			if i := strings.IndexByte(line, '#'); i >= 0 {
				line = line[:i]
			}
			if fields := strings.Fields(line); len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}
	count := func(keyword string) (int, error) {
		fields, ok := next()
		if !ok || len(fields) != 2 || fields[0] != keyword {
			return 0, syntaxError(lineNum, "expected %q count", keyword)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return 0, syntaxError(lineNum, "invalid %s count %q", keyword, fields[1])
		}
		return n, nil
	}

	nv, err := count("vertices")
	if err != nil {
		return nil, err
	}
	sol.Vertices = make([]scene.Vertex, nv)
	for i := range sol.Vertices {
		fields, ok := next()
		if !ok {
			return nil, syntaxError(lineNum, "expected %d vertices, got %d", nv, i)
		}
		v, err := parseFloats(fields, 6)
		if err != nil {
			return nil, syntaxError(lineNum, "vertex %d: %v", i, err)
		}
		sol.Vertices[i] = scene.Vertex{
			Position:  mgl64.Vec3{v[0], v[1], v[2]},
			Radiosity: core.NewRGB(v[3], v[4], v[5]),
		}
	}

	nq, err := count("quads")
	if err != nil {
		return nil, err
	}
	sol.Quads = make([]SolutionQuad, nq)
	for i := range sol.Quads {
		fields, ok := next()
		if !ok || len(fields) != 7 {
			return nil, syntaxError(lineNum, "quad %d: expected 4 indices and 3 numbers", i)
		}
		var q SolutionQuad
		for k := 0; k < 4; k++ {
			idx, err := strconv.Atoi(fields[k])
			if err != nil || idx < 0 || idx >= nv {
				return nil, syntaxError(lineNum, "quad %d: invalid vertex index %q", i, fields[k])
			}
			q.VertexIndex[k] = idx
		}
		c, err := parseFloats(fields[4:], 3)
		if err != nil {
			return nil, syntaxError(lineNum, "quad %d: %v", i, err)
		}
		q.Radiosity = core.NewRGB(c[0], c[1], c[2])
		sol.Quads[i] = q
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading solution: %w", err)
	}
	return sol, nil
}

// LoadSolution reads a solution file, decompressing by file suffix
func LoadSolution(path string) (*Solution, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadSolution(r)
}

func writeFloats(w *bufio.Writer, values ...float64) {
	for i, v := range values {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
}
