// Package preview loads 3D assets for display. It downloads the model,
// parses it into meshes, centres the scene and frames an orbit camera, then
// hands the result to a rendering Surface.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokuthong/ShelfLife-DAM/internal/config"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultMaxBytes = 256 << 20
)

var ErrTooLarge = errors.New("model exceeds size limit")

// Surface is where a scene is drawn. Each load gets a fresh one, disposed
// when the viewer moves on.
type Surface interface {
	Show(scene *Scene, camera Camera) error
	// OnResize registers fn for size changes and returns its unregister func.
	OnResize(fn func(width, height int)) (unregister func())
	Dispose()
}

type SurfaceFactory func() (Surface, error)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

type State struct {
	Status   Status
	AssetURL string
	FileName string
	Error    string
	Camera   Camera
	Bounds   Box
	Meshes   int
	Width    int
	Height   int
}

type Options struct {
	NewSurface SurfaceFactory
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64
	Logger     zerolog.Logger
	// OnChange sees every state transition. It runs with the viewer locked
	// and must not call back into it.
	OnChange func(State)
}

func OptionsFromConfig(cfg config.PreviewConfig, factory SurfaceFactory, logger zerolog.Logger) Options {
	return Options{
		NewSurface: factory,
		Timeout:    cfg.Timeout,
		MaxBytes:   cfg.MaxBytes,
		Logger:     logger,
	}
}

type Viewer struct {
	newSurface SurfaceFactory
	http       *http.Client
	maxBytes   int64
	log        zerolog.Logger
	onChange   func(State)

	mu         sync.Mutex
	gen        uint64
	cancel     context.CancelFunc
	surface    Surface
	unregister func()
	state      State
}

func NewViewer(opts Options) (*Viewer, error) {
	if opts.NewSurface == nil {
		return nil, errors.New("preview: surface factory is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Viewer{
		newSurface: opts.NewSurface,
		http:       client,
		maxBytes:   opts.MaxBytes,
		log:        opts.Logger.With().Str("component", "preview").Logger(),
		onChange:   opts.OnChange,
		state:      State{Status: StatusIdle, Camera: DefaultCamera()},
	}, nil
}

func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Load replaces whatever the viewer shows with the model at assetURL. An
// earlier load still in flight is cancelled and its result dropped.
func (v *Viewer) Load(ctx context.Context, assetURL, fileName string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v.mu.Lock()
	v.gen++
	gen := v.gen
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = cancel
	v.teardownLocked()
	v.setLocked(State{Status: StatusLoading, AssetURL: assetURL, FileName: fileName, Camera: DefaultCamera()})
	v.mu.Unlock()

	surface, err := v.newSurface()
	if err != nil {
		v.fail(gen, "Failed to initialize 3D viewer", err)
		return fmt.Errorf("create surface: %w", err)
	}

	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		surface.Dispose()
		return context.Canceled
	}
	v.surface = surface
	v.unregister = surface.OnResize(func(w, h int) { v.resized(gen, w, h) })
	v.mu.Unlock()

	scene, box, err := v.fetchScene(ctx, assetURL, fileName)
	if err != nil {
		if ctx.Err() != nil && v.superseded(gen) {
			return ctx.Err()
		}
		v.fail(gen, "Failed to load 3D model: "+err.Error(), err)
		return err
	}
	camera := Frame(box)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return context.Canceled
	}
	if err := surface.Show(scene, camera); err != nil {
		v.failLocked("Failed to load 3D model: "+err.Error(), err)
		return err
	}
	next := v.state
	next.Status = StatusReady
	next.Camera = camera
	next.Bounds = box
	next.Meshes = len(scene.Meshes)
	v.setLocked(next)
	v.log.Debug().
		Str("file", fileName).
		Int("meshes", len(scene.Meshes)).
		Float64("radius", camera.Radius).
		Msg("model loaded")
	return nil
}

// fetchScene downloads and parses the model, then centres it. The box is
// measured before centring, so its size is what the camera frames.
func (v *Viewer) fetchScene(ctx context.Context, assetURL, fileName string) (*Scene, Box, error) {
	data, err := v.download(ctx, assetURL)
	if err != nil {
		return nil, Box{}, err
	}
	scene, err := Parse(fileName, data)
	if err != nil {
		return nil, Box{}, err
	}
	box, ok := scene.Center()
	if !ok {
		return nil, Box{}, errors.New("model has no geometry")
	}
	return scene, box, nil
}

func (v *Viewer) download(ctx context.Context, assetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, v.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if int64(len(data)) > v.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (v *Viewer) superseded(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return gen != v.gen
}

func (v *Viewer) resized(gen uint64, w, h int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return
	}
	next := v.state
	next.Width, next.Height = w, h
	v.setLocked(next)
}

func (v *Viewer) fail(gen uint64, message string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return
	}
	v.failLocked(message, err)
}

func (v *Viewer) failLocked(message string, err error) {
	v.log.Error().Err(err).Str("url", v.state.AssetURL).Msg("preview failed")
	next := v.state
	next.Status = StatusFailed
	next.Error = message
	v.setLocked(next)
}

func (v *Viewer) setLocked(s State) {
	v.state = s
	if v.onChange != nil {
		v.onChange(s)
	}
}

func (v *Viewer) teardownLocked() {
	if v.unregister != nil {
		v.unregister()
		v.unregister = nil
	}
	if v.surface != nil {
		v.surface.Dispose()
		v.surface = nil
	}
}

// Close cancels any load and releases the surface.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.teardownLocked()
	v.setLocked(State{Status: StatusIdle, Camera: DefaultCamera()})
}
