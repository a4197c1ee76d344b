package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/df07/go-progressive-radiosity/pkg/renderer"
	"github.com/df07/go-progressive-radiosity/pkg/scene"
)

// PLY formats supported by the writer and reader
const (
	PLYASCII              = "ascii"
	PLYBinaryLittleEndian = "binary_little_endian"
)

// PLY errors
var (
	ErrPLYFormat   = errors.New("loaders: unsupported PLY data")
	ErrPLYMismatch = errors.New("loaders: PLY mesh does not match the model")
)

// PLYOptions controls how a solution is exported
type PLYOptions struct {
	Format   string  // PLYASCII or PLYBinaryLittleEndian
	Exposure float64 // Radiosity scale before tone mapping; 0 picks one from the model
	Gamma    float64 // Display gamma; 0 writes linear values
}

// DefaultPLYOptions writes binary little-endian with automatic exposure
func DefaultPLYOptions() PLYOptions {
	return PLYOptions{Format: PLYBinaryLittleEndian, Gamma: 2.2}
}

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string
	Version     string
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
	HasColors   bool
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the polygons read back from a PLY file
type PLYData struct {
	Positions [][3]float32
	Colors    [][3]uint8 // Empty if the file has no vertex colours
	Faces     [][]int
}

// WritePLY writes the gatherer lattice of a solved model as a quad mesh
// with tone-mapped vertex radiosity as vertex colour
func WritePLY(w io.Writer, m *scene.Model, opts PLYOptions) error {
	if opts.Format != PLYASCII && opts.Format != PLYBinaryLittleEndian {
		return fmt.Errorf("%w: format %q", ErrPLYFormat, opts.Format)
	}
	exposure := opts.Exposure
	if exposure <= 0 {
		exposure = renderer.AutoExposure(m)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat %s 1.0\n", opts.Format)
	fmt.Fprintf(bw, "comment radiosity solution %s\n", m.Name)
	fmt.Fprintf(bw, "element vertex %d\n", len(m.Vertices))
	bw.WriteString("property float x\nproperty float y\nproperty float z\n")
	bw.WriteString("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	fmt.Fprintf(bw, "element face %d\n", len(m.Gatherers))
	bw.WriteString("property list uchar int vertex_indices\nend_header\n")

	if opts.Format == PLYASCII {
		for _, v := range m.Vertices {
			c := v.Radiosity.ToneMap(exposure, opts.Gamma)
			fmt.Fprintf(bw, "%g %g %g %d %d %d\n",
				float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2]), c[0], c[1], c[2])
		}
		for _, g := range m.Gatherers {
			vi := g.VertexIndex
			fmt.Fprintf(bw, "4 %d %d %d %d\n", vi[0], vi[1], vi[2], vi[3])
		}
	} else {
		var vertex [15]byte
		for _, v := range m.Vertices {
			for k := 0; k < 3; k++ {
				binary.LittleEndian.PutUint32(vertex[4*k:], math.Float32bits(float32(v.Position[k])))
			}
			c := v.Radiosity.ToneMap(exposure, opts.Gamma)
			copy(vertex[12:], c[:])
			bw.Write(vertex[:])
		}
		var face [17]byte
		face[0] = 4
		for _, g := range m.Gatherers {
			for k, vi := range g.VertexIndex {
				binary.LittleEndian.PutUint32(face[1+4*k:], uint32(int32(vi)))
			}
			bw.Write(face[:])
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write PLY: %w", err)
	}
	return nil
}

// SavePLY writes a PLY file, compressing by file suffix
func SavePLY(path string, m *scene.Model, opts PLYOptions) (err error) {
	w, err := CreateWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	return WritePLY(w, m, opts)
}

// ReadPLY reads vertex positions, optional uchar vertex colours and
// polygon faces from an ASCII or binary little-endian PLY stream
func ReadPLY(r io.Reader) (*PLYData, error) {
	br := bufio.NewReader(r)
	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	switch header.Format {
	case PLYASCII:
		return readPLYASCII(br, header)
	case PLYBinaryLittleEndian:
		return readPLYBinary(br, header)
	default:
		return nil, fmt.Errorf("%w: format %q", ErrPLYFormat, header.Format)
	}
}

// LoadPLY reads a PLY file, decompressing by file suffix
func LoadPLY(path string) (*PLYData, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadPLY(r)
}

// VerifyPLY reads back a PLY file and checks that its vertices and faces
// are those of m
func VerifyPLY(path string, m *scene.Model) (*PLYData, error) {
	data, err := LoadPLY(path)
	if err != nil {
		return nil, err
	}
	if len(data.Positions) != len(m.Vertices) || len(data.Faces) != len(m.Gatherers) {
		return data, fmt.Errorf("%w: %d vertices and %d faces, want %d and %d", ErrPLYMismatch,
			len(data.Positions), len(data.Faces), len(m.Vertices), len(m.Gatherers))
	}
	for i, g := range m.Gatherers {
		face := data.Faces[i]
		if len(face) != len(g.VertexIndex) {
			return data, fmt.Errorf("%w: face %d has %d vertices", ErrPLYMismatch, i, len(face))
		}
		for k, vi := range g.VertexIndex {
			if face[k] != vi {
				return data, fmt.Errorf("%w: face %d is %v, want %v", ErrPLYMismatch, i, face, g.VertexIndex)
			}
		}
	}
	return data, nil
}

// parsePLYHeader consumes the header up to and including end_header
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var currentElement string

	for first := true; ; first = false {
		raw, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("error reading header: %w", err)
		}
		line := strings.TrimSpace(raw)
		if first {
			if line != "ply" {
				return nil, fmt.Errorf("%w: missing ply magic", ErrPLYFormat)
			}
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
				switch prop.Name {
				case "red", "green", "blue":
					header.HasColors = true
				}
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}
	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{Name: parts[3], IsList: true, ListType: parts[1], DataType: parts[2]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

// getTypeSize returns the size in bytes of a PLY scalar type
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// decodeScalar reads one little-endian scalar as float64
func decodeScalar(data []byte, dataType string) float64 {
	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))
	case "double", "float64":
		return math.Float64frombits(binary.LittleEndian.Uint64(data))
	case "int", "int32":
		return float64(int32(binary.LittleEndian.Uint32(data)))
	case "uint", "uint32":
		return float64(binary.LittleEndian.Uint32(data))
	case "short", "int16":
		return float64(int16(binary.LittleEndian.Uint16(data)))
	case "ushort", "uint16":
		return float64(binary.LittleEndian.Uint16(data))
	case "char", "int8":
		return float64(int8(data[0]))
	default:
		return float64(data[0])
	}
}

// vertexSetter stores a decoded vertex property into data
func vertexSetter(name string) func(data *PLYData, i int, v float64) {
	switch name {
	case "x", "y", "z":
		k := int(name[0] - 'x')
		return func(data *PLYData, i int, v float64) { data.Positions[i][k] = float32(v) }
	case "red", "green", "blue":
		k := 0
		switch name {
		case "green":
			k = 1
		case "blue":
			k = 2
		}
		return func(data *PLYData, i int, v float64) { data.Colors[i][k] = uint8(v) }
	default:
		return nil
	}
}

func newPLYData(header *PLYHeader) *PLYData {
	data := &PLYData{
		Positions: make([][3]float32, header.VertexCount),
		Faces:     make([][]int, 0, header.FaceCount),
	}
	if header.HasColors {
		data.Colors = make([][3]uint8, header.VertexCount)
	}
	return data
}

func readPLYBinary(r *bufio.Reader, header *PLYHeader) (*PLYData, error) {
	data := newPLYData(header)

	vertexSize := 0
	for _, prop := range header.VertexProps {
		size := getTypeSize(prop.Type)
		if prop.IsList || size == 0 {
			return nil, fmt.Errorf("%w: vertex property %q", ErrPLYFormat, prop.Name)
		}
		vertexSize += size
	}

	buf := make([]byte, vertexSize)
	for i := 0; i < header.VertexCount; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read vertex %d: %w", i, err)
		}
		offset := 0
		for _, prop := range header.VertexProps {
			if set := vertexSetter(prop.Name); set != nil {
				set(data, i, decodeScalar(buf[offset:], prop.Type))
			}
			offset += getTypeSize(prop.Type)
		}
	}

	var scalar [8]byte
	readScalar := func(dataType string) (float64, error) {
		size := getTypeSize(dataType)
		if size == 0 {
			return 0, fmt.Errorf("%w: type %q", ErrPLYFormat, dataType)
		}
		if _, err := io.ReadFull(r, scalar[:size]); err != nil {
			return 0, err
		}
		return decodeScalar(scalar[:size], dataType), nil
	}

	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if !prop.IsList {
				if _, err := readScalar(prop.Type); err != nil {
					return nil, fmt.Errorf("failed to read face %d: %w", i, err)
				}
				continue
			}
			count, err := readScalar(prop.ListType)
			if err != nil {
				return nil, fmt.Errorf("failed to read face %d: %w", i, err)
			}
			indices := make([]int, int(count))
			for k := range indices {
				v, err := readScalar(prop.DataType)
				if err != nil {
					return nil, fmt.Errorf("failed to read face %d: %w", i, err)
				}
				indices[k] = int(v)
			}
			if prop.Name == "vertex_indices" || prop.Name == "vertex_index" {
				data.Faces = append(data.Faces, indices)
			}
		}
	}
	return data, nil
}

func readPLYASCII(r *bufio.Reader, header *PLYHeader) (*PLYData, error) {
	data := newPLYData(header)
	scanner := bufio.NewScanner(r)

	nextFields := func() ([]string, error) {
		for scanner.Scan() {
			if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
				return fields, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}

	for i := 0; i < header.VertexCount; i++ {
		fields, err := nextFields()
		if err != nil {
			return nil, fmt.Errorf("failed to read vertex %d: %w", i, err)
		}
		if len(fields) < len(header.VertexProps) {
			return nil, fmt.Errorf("%w: vertex %d has %d values", ErrPLYFormat, i, len(fields))
		}
		for k, prop := range header.VertexProps {
			set := vertexSetter(prop.Name)
			if set == nil {
				continue
			}
			v, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: vertex %d: %v", ErrPLYFormat, i, err)
			}
			set(data, i, v)
		}
	}

	for i := 0; i < header.FaceCount; i++ {
		fields, err := nextFields()
		if err != nil {
			return nil, fmt.Errorf("failed to read face %d: %w", i, err)
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil || count < 0 || len(fields) < 1+count {
			return nil, fmt.Errorf("%w: face %d", ErrPLYFormat, i)
		}
		indices := make([]int, count)
		for k := range indices {
			if indices[k], err = strconv.Atoi(fields[1+k]); err != nil {
				return nil, fmt.Errorf("%w: face %d: %v", ErrPLYFormat, i, err)
			}
		}
		data.Faces = append(data.Faces, indices)
	}
	return data, nil
}
