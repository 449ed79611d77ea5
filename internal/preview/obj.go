package preview

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseOBJ reads Wavefront OBJ geometry. Each "o" or "g" statement starts
// a new mesh; vertex indices are global to the file as the format defines.
// Polygons are fanned into triangles. Materials, normals and texture
// coordinates are skipped.
func parseOBJ(r io.Reader) (*Scene, error) {
	var (
		scene   Scene
		global  []Vec3
		current *Mesh
		remap   map[int]int
	)
	startMesh := func(name string) {
		current = &Mesh{Name: name}
		remap = make(map[int]int)
		scene.Meshes = append(scene.Meshes, current)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			global = append(global, v)
		case "o", "g":
			name := strings.Join(fields[1:], " ")
			if current != nil && len(current.Faces) == 0 {
				current.Name = name
				continue
			}
			startMesh(name)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs at least 3 vertices", line)
			}
			if current == nil {
				startMesh("")
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				gi, err := vertexRef(ref, len(global))
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				li, seen := remap[gi]
				if !seen {
					li = len(current.Vertices)
					current.Vertices = append(current.Vertices, global[gi])
					remap[gi] = li
				}
				idx = append(idx, li)
			}
			for i := 1; i+1 < len(idx); i++ {
				current.Faces = append(current.Faces, idx[0], idx[i], idx[i+1])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	meshes := scene.Meshes[:0]
	for _, m := range scene.Meshes {
		if len(m.Faces) > 0 {
			meshes = append(meshes, m)
		}
	}
	scene.Meshes = meshes
	return &scene, nil
}

// vertexRef resolves "7", "7/1", "7//3" or negative relative indices to a
// zero-based index.
func vertexRef(ref string, count int) (int, error) {
	head, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("bad vertex reference %q", ref)
	}
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	}
	return 0, fmt.Errorf("vertex reference %d out of range", n)
}

func parseVec(fields []string) (Vec3, error) {
	if len(fields) < 3 {
		return Vec3{}, fmt.Errorf("expected 3 coordinates, got %d", len(fields))
	}
	var out [3]float64
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return Vec3{}, fmt.Errorf("bad coordinate %q", fields[i])
		}
		out[i] = f
	}
	return Vec3{out[0], out[1], out[2]}, nil
}
