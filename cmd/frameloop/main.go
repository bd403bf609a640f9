// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"image"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/devblok/frameloop/core"
	"github.com/devblok/frameloop/gfx"
	"github.com/devblok/frameloop/gfx/vkr"
	"github.com/devblok/frameloop/render2d"
	"github.com/devblok/frameloop/utility/pcache"
	"github.com/devblok/frameloop/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/xlab/closer"
)

func init() {
	runtime.LockOSThread()
}

var (
	logLevel      = flag.String("loglevel", "info", "Log level (debug, info, warn, error)")
	width         = flag.Int("width", 0, "Window width, overrides the environment")
	height        = flag.Int("height", 0, "Window height, overrides the environment")
	vsync         = flag.Bool("vsync", false, "Force FIFO presentation")
	validation    = flag.Bool("validation", false, "Load Vulkan validation layers")
	pipelineCache = flag.String("pipeline-cache", "", "File the pipeline cache is kept in")
	cpuProfile    = flag.String("cpuprof", "", "Profile CPU usage to file")
)

func configure() (core.Configuration, error) {
	cfg, err := core.LoadConfiguration()
	if err != nil {
		return cfg, err
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	cfg.Renderer.VSync = cfg.Renderer.VSync || *vsync
	cfg.Renderer.Validation = cfg.Renderer.Validation || *validation
	if *pipelineCache != "" {
		cfg.Renderer.PipelineCache = *pipelineCache
	}
	cfg.Renderer.ClearColour = mgl32.Vec3{0, 0, 0}
	return cfg, nil
}

// demo draws a fixed set of rectangles every frame.
type demo struct {
	rs       *core.RenderSystem
	renderer *render2d.Renderer

	frames  int
	elapsed float32
}

type rectangle struct {
	bounds image.Rectangle
	colour mgl32.Vec3
}

var rectangles = []rectangle{
	{image.Rect(0, 0, 50, 50), mgl32.Vec3{1, 0.5, 0}},
	{image.Rect(100, 100, 150, 150), mgl32.Vec3{0, 1, 0}},
	{image.Rect(78, 150, 158, 300), mgl32.Vec3{0, 1, 1}},
	{image.Rect(900, 450, 1100, 650), mgl32.Vec3{0.5, 0, 1}},
}

func (d *demo) Initialise(rs *core.RenderSystem) error {
	d.rs = rs
	extent := rs.Extent()
	return d.renderer.SetResolution(extent.Width, extent.Height)
}

func (d *demo) OnResize(width, height int) {
	d.rs.OnResize(width, height)
}

func (d *demo) Update(step core.Timestep) {
	d.frames++
	d.elapsed += step.Seconds()
	if d.elapsed >= 1 {
		log.WithField("fps", float32(d.frames)/d.elapsed).Debug("frame rate")
		d.frames, d.elapsed = 0, 0
	}
}

func (d *demo) Draw(session *core.FrameSession) error {
	d.renderer.Begin()
	for _, r := range rectangles {
		d.renderer.DrawRectangle(r.bounds, r.colour)
	}
	return d.renderer.End(session)
}

func cacheDevice(props gfx.DeviceProperties) pcache.Device {
	return pcache.Device{
		VendorID:      props.VendorID,
		DeviceID:      props.DeviceID,
		DriverVersion: props.DriverVersion,
	}
}

func loadPipelineCache(dev *vkr.Device, path string, props gfx.DeviceProperties) (*vkr.PipelineCache, error) {
	var initial []byte
	if path != "" {
		data, err := pcache.Load(path, cacheDevice(props))
		switch {
		case err == nil:
			initial = data
		case os.IsNotExist(errors.Cause(err)):
		default:
			log.WithError(err).Warn("Discarding pipeline cache")
		}
	}
	return vkr.NewPipelineCache(dev, initial)
}

func storePipelineCache(cache *vkr.PipelineCache, path string, props gfx.DeviceProperties) {
	data, err := cache.Data()
	if err != nil {
		log.WithError(err).Warn("Reading pipeline cache")
		return
	}
	if err := pcache.Store(path, cacheDevice(props), data); err != nil {
		log.WithError(err).Warn("Storing pipeline cache")
		return
	}
	log.WithField("bytes", len(data)).Debug("pipeline cache stored")
}

// stopAndWait returns a cleanup that cancels the frame loop and blocks
// until done is closed.
func stopAndWait(cancel context.CancelFunc, done <-chan struct{}) func() {
	return func() {
		cancel()
		<-done
	}
}

// run owns every GPU object and releases them with defers, on the locked
// main thread, once the frame loop has returned.
func run(ctx context.Context) error {
	cfg, err := configure()
	if err != nil {
		return errors.Wrap(err, "configuration")
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return errors.Wrap(err, "sdl.Init()")
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}
	defer sdl.VulkanUnloadLibrary()

	win, err := window.New(window.Configuration{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
	})
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		win.RequestClose()
	}()

	instance, err := vkr.NewInstance(vkr.InstanceConfiguration{
		ApplicationName: cfg.Window.Title,
		ProcAddr:        sdl.VulkanGetVkGetInstanceProcAddr(),
		Extensions:      win.InstanceExtensions(),
		Validation:      cfg.Renderer.Validation,
	})
	if err != nil {
		win.Destroy()
		return err
	}

	debugger, err := vkr.NewDebugger(instance)
	if err != nil {
		win.Destroy()
		instance.Release()
		return err
	}
	var debug gfx.Releasable
	if debugger != nil {
		debug = debugger
	}

	if err := win.CreateSurface(instance); err != nil {
		if debugger != nil {
			debugger.Release()
		}
		win.Destroy()
		instance.Release()
		return err
	}

	req := core.DefaultDeviceRequirements()
	req.Extensions = cfg.Renderer.DeviceExtensions
	engine, err := core.NewEngineContext(instance, win, debug, req)
	if err != nil {
		return err
	}
	defer engine.Destroy()

	props := engine.Device.Selection.Device.Properties()
	log.WithFields(log.Fields{
		"device": props.Name,
		"type":   props.Type,
	}).Info("device selected")

	rs, err := core.NewRenderSystem(engine, cfg.Renderer)
	if err != nil {
		return err
	}
	defer rs.Destroy()

	dev, ok := engine.Device.Device.(*vkr.Device)
	if !ok {
		return errors.Errorf("unexpected device implementation %T", engine.Device.Device)
	}

	cache, err := loadPipelineCache(dev, cfg.Renderer.PipelineCache, props)
	if err != nil {
		return err
	}
	defer cache.Release()
	if cfg.Renderer.PipelineCache != "" {
		defer storePipelineCache(cache, cfg.Renderer.PipelineCache, props)
	}

	renderer, err := render2d.NewRenderer(dev, engine.Device.Graphics, rs.RenderPass(), render2d.Options{
		Cache: cache,
	})
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	rs.SwapChain().OnRecreate(func(extent gfx.Extent2D) {
		if err := renderer.SetResolution(extent.Width, extent.Height); err != nil {
			log.WithError(err).Error("Updating projection")
		}
	})

	clock := core.NewTime(cfg.Time)
	defer clock.Stop()

	return core.Run(ctx, &demo{renderer: renderer}, rs, win, clock)
}

func main() {
	flag.Parse()
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.WithError(err).Fatal("Parsing log level")
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.WithError(err).Fatal("Creating CPU profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.WithError(err).Fatal("Starting CPU profile")
		}
		closer.Bind(pprof.StopCPUProfile)
	}

	// On a signal closer runs its cleanups from another goroutine and
	// exits. The first one stops the frame loop and waits until run has
	// released the GPU objects.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	closer.Bind(stopAndWait(cancel, done))

	err = run(ctx)
	close(done)
	if err != nil {
		closer.Fatalln("frameloop:", err)
	}
	closer.Close()
}
