package preview

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const maxNodeDepth = 64

// parseGLTF reads binary GLB or glTF JSON with embedded buffers; external
// buffer files cannot be resolved from a single download. Nodes of the
// default scene place meshes by translation. Rotation and scale are not
// applied, and only triangle-list primitives are kept.
func parseGLTF(data []byte) (*Scene, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("gltf: %w", err)
	}

	scene := &Scene{}
	var walk func(idx int, offset Vec3, depth int) error
	walk = func(idx int, offset Vec3, depth int) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("gltf: node %d out of range", idx)
		}
		if depth > maxNodeDepth {
			return fmt.Errorf("gltf: node hierarchy deeper than %d", maxNodeDepth)
		}
		node := doc.Nodes[idx]
		t := node.Translation
		pos := offset.Add(Vec3{float64(t[0]), float64(t[1]), float64(t[2])})

		if node.Mesh != nil {
			meshes, err := gltfMeshes(doc, *node.Mesh)
			if err != nil {
				return err
			}
			for _, m := range meshes {
				m.Position = pos
				scene.Meshes = append(scene.Meshes, m)
			}
		}
		for _, child := range node.Children {
			if err := walk(child, pos, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range sceneRoots(doc) {
		if err := walk(root, Vec3{}, 0); err != nil {
			return nil, err
		}
	}

	// Files without a scene graph still carry meshes.
	if len(scene.Meshes) == 0 {
		for i := range doc.Meshes {
			meshes, err := gltfMeshes(doc, i)
			if err != nil {
				return nil, err
			}
			scene.Meshes = append(scene.Meshes, meshes...)
		}
	}
	return scene, nil
}

func sceneRoots(doc *gltf.Document) []int {
	switch {
	case doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes):
		return doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		return doc.Scenes[0].Nodes
	}
	return nil
}

// gltfMeshes turns each triangle primitive of mesh idx into one Mesh.
func gltfMeshes(doc *gltf.Document, idx int) ([]*Mesh, error) {
	if idx < 0 || idx >= len(doc.Meshes) {
		return nil, fmt.Errorf("gltf: mesh %d out of range", idx)
	}
	src := doc.Meshes[idx]

	var out []*Mesh
	for i, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		acc, err := accessor(doc, posIdx)
		if err != nil {
			return nil, err
		}
		positions, err := modeler.ReadPosition(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("gltf: mesh %d positions: %w", idx, err)
		}

		vertices := make([]Vec3, len(positions))
		for j, p := range positions {
			vertices[j] = Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
		}

		var faces []int
		if prim.Indices != nil {
			acc, err := accessor(doc, *prim.Indices)
			if err != nil {
				return nil, err
			}
			indices, err := modeler.ReadIndices(doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("gltf: mesh %d indices: %w", idx, err)
			}
			faces = make([]int, len(indices))
			for j, v := range indices {
				if int(v) >= len(vertices) {
					return nil, fmt.Errorf("gltf: mesh %d index %d out of range", idx, v)
				}
				faces[j] = int(v)
			}
		} else {
			faces = make([]int, len(vertices))
			for j := range faces {
				faces[j] = j
			}
		}
		faces = faces[:len(faces)/3*3]
		if len(faces) == 0 {
			continue
		}

		name := src.Name
		if name == "" {
			name = fmt.Sprintf("mesh%d", idx)
		}
		if len(src.Primitives) > 1 {
			name = fmt.Sprintf("%s.%d", name, i)
		}
		out = append(out, &Mesh{Name: name, Vertices: vertices, Faces: faces})
	}
	return out, nil
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("gltf: accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}
