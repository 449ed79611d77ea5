package preview

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cubeOBJ = `# unit cube offset on x
o cube
v 10 0 0
v 12 0 0
v 12 2 0
v 10 2 0
v 10 0 2
v 12 0 2
v 12 2 2
v 10 2 2
f 1 2 3 4
f 5/1 6/2 7/3 8/4
f 1//1 2//1 6//1 5//1
`

func TestParseOBJ(t *testing.T) {
	scene, err := Parse("cube.obj", []byte(cubeOBJ))
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)

	m := scene.Meshes[0]
	assert.Equal(t, "cube", m.Name)
	assert.Len(t, m.Vertices, 8)
	assert.Equal(t, 6, m.Triangles(), "quads are fanned into two triangles")

	box, ok := scene.Bounds()
	require.True(t, ok)
	assert.Equal(t, Vec3{10, 0, 0}, box.Min)
	assert.Equal(t, Vec3{12, 2, 2}, box.Max)
}

func TestParseOBJ_GroupsAndNegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
g first
f -3 -2 -1
v 5 5 5
v 6 5 5
v 5 6 5
g second
f 4 5 6
g empty
`
	scene, err := Parse("parts.OBJ", []byte(src))
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 2)
	assert.Equal(t, "first", scene.Meshes[0].Name)
	assert.Equal(t, "second", scene.Meshes[1].Name)
	assert.Equal(t, []Vec3{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}}, scene.Meshes[1].Vertices)
}

func TestParseOBJ_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"bad coordinate": "v 1 x 3\n",
		"short face":     "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"out of range":   "v 0 0 0\nf 1 2 3\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("broken.obj", []byte(src))
			assert.Error(t, err)
		})
	}
}

const triangleSTL = `solid tri
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 4 0 0
      vertex 0 2 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 0 2 0
      vertex 0 0 1
    endloop
  endfacet
endsolid tri
`

func TestParseSTL_ASCII(t *testing.T) {
	scene, err := Parse("tri.stl", []byte(triangleSTL))
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)
	assert.Equal(t, "tri", scene.Meshes[0].Name)
	assert.Equal(t, 2, scene.Meshes[0].Triangles())

	box, _ := scene.Bounds()
	assert.Equal(t, Vec3{4, 2, 1}, box.Size())
}

func binarySTL(header string, tris [][3]Vec3) []byte {
	var buf bytes.Buffer
	h := make([]byte, stlHeaderSize)
	copy(h, header)
	buf.Write(h)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, tri := range tris {
		_ = binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1})
		for _, v := range tri {
			_ = binary.Write(&buf, binary.LittleEndian, [3]float32{float32(v.X), float32(v.Y), float32(v.Z)})
		}
		_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestParseSTL_Binary(t *testing.T) {
	// Binary files may still start with "solid".
	data := binarySTL("solid exported by cad", [][3]Vec3{
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, 0}, {0, 1, 0}, {0, 0, 3}},
	})

	scene, err := Parse("part.stl", data)
	require.NoError(t, err)
	require.Len(t, scene.Meshes, 1)
	assert.Equal(t, 2, scene.Meshes[0].Triangles())
	assert.Equal(t, "solid exported by cad", scene.Meshes[0].Name)

	box, _ := scene.Bounds()
	assert.Equal(t, Vec3{1, 1, 3}, box.Size())
}

func TestParseSTL_Truncated(t *testing.T) {
	data := binarySTL("part", [][3]Vec3{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}})
	_, err := Parse("part.stl", data[:len(data)-10])
	assert.Error(t, err)
}

// triangleGLTF encodes one indexed triangle placed by a child node at x=5.
func triangleGLTF(t *testing.T, asGLB bool) []byte {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	}}
	parent := &gltf.Node{Name: "root", Children: []int{1}}
	parent.Translation[0] = 3
	child := &gltf.Node{Name: "part", Mesh: gltf.Index(0)}
	child.Translation[0] = 2
	doc.Nodes = []*gltf.Node{parent, child}
	doc.Scenes[0].Nodes = []int{0}

	if !asGLB {
		doc.Buffers[0].EmbeddedResource()
	}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = asGLB
	require.NoError(t, enc.Encode(doc))
	return buf.Bytes()
}

func TestParseGLTF(t *testing.T) {
	for name, tc := range map[string]struct {
		file  string
		asGLB bool
	}{
		"glb":  {"tri.glb", true},
		"gltf": {"tri.gltf", false},
	} {
		t.Run(name, func(t *testing.T) {
			scene, err := Parse(tc.file, triangleGLTF(t, tc.asGLB))
			require.NoError(t, err)
			require.Len(t, scene.Meshes, 1)

			m := scene.Meshes[0]
			assert.Equal(t, "tri", m.Name)
			assert.Equal(t, 1, m.Triangles())
			assert.Equal(t, Vec3{5, 0, 0}, m.Position, "node translations accumulate")

			box, ok := scene.Bounds()
			require.True(t, ok)
			assert.Equal(t, Vec3{5, 0, 0}, box.Min)
			assert.Equal(t, Vec3{7, 1, 0}, box.Max)
		})
	}
}

func TestParseGLTF_Invalid(t *testing.T) {
	_, err := Parse("broken.glb", []byte("glTF\x02\x00\x00\x00garbage"))
	require.Error(t, err)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse("scene.fbx", []byte("Kaydara FBX Binary"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParse_RejectsOtherContent(t *testing.T) {
	_, err := Parse("model.obj", []byte("\x89PNG\r\n\x1a\n0000"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image/png")
}

func TestSceneCenterAndFrame(t *testing.T) {
	scene := &Scene{Meshes: []*Mesh{
		{Vertices: []Vec3{{0, 0, 0}, {4, 2, 2}}},
		{Vertices: []Vec3{{0, 0, 0}, {1, 1, 1}}, Position: Vec3{6, 0, 0}},
		{Name: "empty"},
	}}

	box, ok := scene.Center()
	require.True(t, ok)
	assert.Equal(t, Vec3{7, 2, 2}, box.Size())

	centred, _ := scene.Bounds()
	assert.InDelta(t, 0, centred.Center().X, 1e-9)
	assert.InDelta(t, 0, centred.Center().Y, 1e-9)
	assert.InDelta(t, 0, centred.Center().Z, 1e-9)

	cam := Frame(box)
	assert.Equal(t, 14.0, cam.Radius)
	assert.InDelta(t, math.Pi/4, cam.Alpha, 1e-12)
	assert.InDelta(t, math.Pi/3, cam.Beta, 1e-12)
	assert.Equal(t, Vec3{}, cam.Target)
}

func TestSceneBounds_Empty(t *testing.T) {
	_, ok := (&Scene{Meshes: []*Mesh{{Name: "nothing"}}}).Bounds()
	assert.False(t, ok)
}
