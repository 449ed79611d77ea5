package preview

import (
	"fmt"
	"io"
	"math"
	"sync"
)

// TextSurface prints a summary of the framed scene instead of drawing it.
type TextSurface struct {
	w io.Writer

	mu       sync.Mutex
	handlers map[int]func(int, int)
	next     int
	disposed bool
}

func NewTextSurface(w io.Writer) *TextSurface {
	return &TextSurface{w: w, handlers: make(map[int]func(int, int))}
}

// TextSurfaceFactory makes a fresh TextSurface per load.
func TextSurfaceFactory(w io.Writer) SurfaceFactory {
	return func() (Surface, error) { return NewTextSurface(w), nil }
}

func (s *TextSurface) Show(scene *Scene, cam Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return fmt.Errorf("surface disposed")
	}

	triangles := 0
	for _, m := range scene.Meshes {
		triangles += m.Triangles()
	}
	box, _ := scene.Bounds()
	size := box.Size()

	fmt.Fprintf(s.w, "meshes:    %d\n", len(scene.Meshes))
	fmt.Fprintf(s.w, "triangles: %d\n", triangles)
	fmt.Fprintf(s.w, "size:      %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	fmt.Fprintf(s.w, "camera:    radius %.3f, alpha %.1f°, beta %.1f°\n",
		cam.Radius, cam.Alpha*180/math.Pi, cam.Beta*180/math.Pi)
	return nil
}

func (s *TextSurface) OnResize(fn func(width, height int)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.handlers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}
}

// Resize forwards a size change to the registered handlers.
func (s *TextSurface) Resize(width, height int) {
	s.mu.Lock()
	handlers := make([]func(int, int), 0, len(s.handlers))
	for _, fn := range s.handlers {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(width, height)
	}
}

func (s *TextSurface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}
