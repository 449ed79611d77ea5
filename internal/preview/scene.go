package preview

import "math"

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

func minVec(a, b Vec3) Vec3 {
	return Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
}

func maxVec(a, b Vec3) Vec3 {
	return Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
}

// Mesh is triangle geometry. Vertices are local; Position places the mesh
// in the scene.
type Mesh struct {
	Name     string
	Vertices []Vec3
	// Faces index into Vertices, three per triangle.
	Faces    []int
	Position Vec3
}

// Bounds is the world-space box of the mesh.
func (m *Mesh) Bounds() (Box, bool) {
	if len(m.Vertices) == 0 {
		return Box{}, false
	}
	b := Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		b.Min = minVec(b.Min, v)
		b.Max = maxVec(b.Max, v)
	}
	b.Min = b.Min.Add(m.Position)
	b.Max = b.Max.Add(m.Position)
	return b, true
}

func (m *Mesh) Triangles() int {
	return len(m.Faces) / 3
}

type Scene struct {
	Meshes []*Mesh
}

type Box struct {
	Min, Max Vec3
}

func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

func (b Box) MaxDimension() float64 {
	s := b.Size()
	return math.Max(s.X, math.Max(s.Y, s.Z))
}

// Bounds is the union of every mesh box. Meshes without vertices are
// ignored; ok is false when nothing has geometry.
func (s *Scene) Bounds() (box Box, ok bool) {
	for _, m := range s.Meshes {
		mb, has := m.Bounds()
		if !has {
			continue
		}
		if !ok {
			box, ok = mb, true
			continue
		}
		box.Min = minVec(box.Min, mb.Min)
		box.Max = maxVec(box.Max, mb.Max)
	}
	return box, ok
}

// Center moves every mesh so the scene box is centred on the origin and
// returns the box it had before the move.
func (s *Scene) Center() (Box, bool) {
	box, ok := s.Bounds()
	if !ok {
		return Box{}, false
	}
	c := box.Center()
	for _, m := range s.Meshes {
		m.Position = m.Position.Sub(c)
	}
	return box, true
}

// Camera is an orbit camera around Target.
type Camera struct {
	Alpha  float64
	Beta   float64
	Radius float64
	Target Vec3

	MinZ        float64
	LowerRadius float64
	UpperRadius float64
}

// DefaultCamera is the pose used before a model is framed.
func DefaultCamera() Camera {
	return Camera{
		Alpha:       math.Pi / 2,
		Beta:        math.Pi / 2.5,
		Radius:      3,
		MinZ:        0.1,
		LowerRadius: 0.5,
		UpperRadius: 20,
	}
}

// Frame points the camera at the origin from a distance of twice the
// largest dimension of box.
func Frame(box Box) Camera {
	cam := DefaultCamera()
	cam.Target = Vec3{}
	cam.Radius = box.MaxDimension() * 2
	cam.Alpha = math.Pi / 4
	cam.Beta = math.Pi / 3
	return cam
}
