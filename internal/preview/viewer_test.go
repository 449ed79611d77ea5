package preview

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokuthong/ShelfLife-DAM/internal/apitest"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

type fakeSurface struct {
	mu        sync.Mutex
	shown     int
	camera    Camera
	disposed  bool
	listeners int
	resize    func(int, int)
}

func (s *fakeSurface) Show(_ *Scene, cam Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown++
	s.camera = cam
	return nil
}

func (s *fakeSurface) OnResize(fn func(int, int)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners++
	s.resize = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners--
	}
}

func (s *fakeSurface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}

type surfaces struct {
	mu  sync.Mutex
	all []*fakeSurface
}

func (f *surfaces) factory() (Surface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &fakeSurface{}
	f.all = append(f.all, s)
	return s, nil
}

func (f *surfaces) get(i int) *fakeSurface {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.all[i]
}

func newViewer(t *testing.T, f *surfaces) *Viewer {
	t.Helper()
	v, err := NewViewer(Options{NewSurface: f.factory, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

func TestViewer_LoadFromAssetURL(t *testing.T) {
	srv := apitest.NewServer(t)
	owner := srv.AddUser("alice", "password123", models.UserRoleEditor)
	asset := srv.AddAsset(owner, models.Asset{Title: "Cube", File: "cube.obj"}, []byte(cubeOBJ))

	f := &surfaces{}
	v := newViewer(t, f)

	require.NoError(t, v.Load(context.Background(), asset.FileURL, asset.File))

	s := v.State()
	assert.Equal(t, StatusReady, s.Status)
	assert.Empty(t, s.Error)
	assert.Equal(t, 1, s.Meshes)
	assert.Equal(t, 4.0, s.Camera.Radius)

	surface := f.get(0)
	assert.Equal(t, 1, surface.shown)
	assert.Equal(t, s.Camera, surface.camera)

	surface.resize(800, 600)
	assert.Equal(t, 800, v.State().Width)
}

func TestViewer_LoadFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	f := &surfaces{}
	v := newViewer(t, f)

	err := v.Load(context.Background(), ts.URL+"/missing.stl", "missing.stl")
	require.Error(t, err)

	s := v.State()
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "Failed to load 3D model: download: 404 Not Found", s.Error)
}

func TestViewer_SwitchCancelsStaleLoad(t *testing.T) {
	slowStarted := make(chan struct{})
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow.obj" {
			close(slowStarted)
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		_, _ = w.Write([]byte(cubeOBJ))
	}))
	defer ts.Close()
	defer close(release)

	f := &surfaces{}
	v := newViewer(t, f)

	slowErr := make(chan error, 1)
	go func() {
		slowErr <- v.Load(context.Background(), ts.URL+"/slow.obj", "slow.obj")
	}()
	<-slowStarted

	require.NoError(t, v.Load(context.Background(), ts.URL+"/fast.obj", "fast.obj"))

	select {
	case err := <-slowErr:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("stale load did not return")
	}

	s := v.State()
	assert.Equal(t, StatusReady, s.Status)
	assert.Equal(t, "fast.obj", s.FileName)

	first := f.get(0)
	assert.True(t, first.disposed)
	assert.Zero(t, first.listeners)
	assert.Zero(t, first.shown)
}

func TestViewer_CloseReleasesSurface(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(triangleSTL))
	}))
	defer ts.Close()

	f := &surfaces{}
	v := newViewer(t, f)
	require.NoError(t, v.Load(context.Background(), ts.URL+"/tri.stl", "tri.stl"))

	v.Close()

	surface := f.get(0)
	assert.True(t, surface.disposed)
	assert.Zero(t, surface.listeners)
	assert.Equal(t, StatusIdle, v.State().Status)
}

func TestViewer_TooLarge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(cubeOBJ))
	}))
	defer ts.Close()

	f := &surfaces{}
	v, err := NewViewer(Options{NewSurface: f.factory, MaxBytes: 16, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer v.Close()

	err = v.Load(context.Background(), ts.URL+"/cube.obj", "cube.obj")
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, StatusFailed, v.State().Status)
}

func TestTextSurface(t *testing.T) {
	var out bytes.Buffer
	scene, err := Parse("cube.obj", []byte(cubeOBJ))
	require.NoError(t, err)
	box, _ := scene.Center()

	s := NewTextSurface(&out)
	require.NoError(t, s.Show(scene, Frame(box)))
	assert.Contains(t, out.String(), "triangles: 6")
	assert.Contains(t, out.String(), "radius 4.000, alpha 45.0°, beta 60.0°")

	s.Dispose()
	assert.Error(t, s.Show(scene, Frame(box)))
}
