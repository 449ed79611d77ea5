package preview

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
)

var errTruncatedSTL = errors.New("stl: truncated")

// parseSTL accepts both encodings. A file is binary when its size matches
// the triangle count in the header, since binary headers may also start
// with "solid".
func parseSTL(data []byte) (*Scene, error) {
	if len(data) >= stlHeaderSize+4 {
		count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(len(data)) == stlHeaderSize+4+uint64(count)*stlTriangleSize {
			return parseBinarySTL(data, count)
		}
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		return parseASCIISTL(bytes.NewReader(data))
	}
	if len(data) < stlHeaderSize+4 {
		return nil, errTruncatedSTL
	}
	return nil, fmt.Errorf("stl: size does not match triangle count")
}

func parseBinarySTL(data []byte, count uint32) (*Scene, error) {
	mesh := &Mesh{
		Name:     strings.TrimRight(string(data[:stlHeaderSize]), "\x00 "),
		Vertices: make([]Vec3, 0, int(count)*3),
		Faces:    make([]int, 0, int(count)*3),
	}

	off := stlHeaderSize + 4
	for i := uint32(0); i < count; i++ {
		if off+stlTriangleSize > len(data) {
			return nil, errTruncatedSTL
		}
		// Skip the facet normal; vertices follow at byte 12.
		p := off + 12
		for v := 0; v < 3; v++ {
			mesh.Faces = append(mesh.Faces, len(mesh.Vertices))
			mesh.Vertices = append(mesh.Vertices, Vec3{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[p:]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[p+4:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[p+8:]))),
			})
			p += 12
		}
		off += stlTriangleSize
	}
	return &Scene{Meshes: []*Mesh{mesh}}, nil
}

// parseASCIISTL reads one mesh per "solid" block.
func parseASCIISTL(r io.Reader) (*Scene, error) {
	var (
		scene   Scene
		current *Mesh
		facet   []Vec3
	)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			current = &Mesh{Name: strings.Join(fields[1:], " ")}
			scene.Meshes = append(scene.Meshes, current)
		case "outer":
			facet = facet[:0]
		case "vertex":
			if current == nil {
				return nil, fmt.Errorf("stl line %d: vertex outside solid", line)
			}
			v, err := parseVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("stl line %d: %w", line, err)
			}
			facet = append(facet, v)
		case "endloop":
			if len(facet) != 3 {
				return nil, fmt.Errorf("stl line %d: facet has %d vertices", line, len(facet))
			}
			for _, v := range facet {
				current.Faces = append(current.Faces, len(current.Vertices))
				current.Vertices = append(current.Vertices, v)
			}
		case "endsolid":
			current = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}
	return &scene, nil
}
