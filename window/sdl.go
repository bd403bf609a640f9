// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window provides the SDL2 window frames are presented into.
package window

import (
	"sync/atomic"

	"github.com/devblok/frameloop/core"
	"github.com/devblok/frameloop/gfx"
	"github.com/devblok/frameloop/gfx/vkr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

// Configuration of a new window.
type Configuration struct {
	Title  string
	Width  int
	Height int
}

// waitTimeout bounds WaitEvents so close requests from other goroutines
// are seen while the window is minimized.
const waitTimeout = 100

// SDLWindow is a resizable SDL2 window with a vulkan surface.
// It must only be used from the thread that called sdl.Init,
// except for RequestClose.
type SDLWindow struct {
	window   *sdl.Window
	surface  *vkr.Surface
	drawable func() (int32, int32)

	observer    core.ResizeObserver
	minimized   bool
	shouldClose bool
	width       int
	height      int

	closeRequested atomic.Bool
}

// New creates a window. The surface is created separately with
// CreateSurface once the instance exists.
func New(cfg Configuration) (*SDLWindow, error) {
	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	w := &SDLWindow{
		window:   window,
		drawable: window.VulkanGetDrawableSize,
	}
	w.width, w.height = w.size()
	return w, nil
}

// InstanceExtensions lists the instance extensions presentation needs.
func (w *SDLWindow) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// CreateSurface creates the presentable surface on instance.
func (w *SDLWindow) CreateSurface(instance *vkr.Instance) error {
	handle, err := w.window.VulkanCreateSurface(instance.Inner())
	if err != nil {
		return errors.Wrap(err, "VulkanCreateSurface()")
	}
	w.surface = vkr.NewSurface(instance, handle)
	return nil
}

// Surface implements core.Window
func (w *SDLWindow) Surface() gfx.Surface {
	if w.surface == nil {
		return nil
	}
	return w.surface
}

func (w *SDLWindow) size() (int, int) {
	width, height := w.drawable()
	return int(width), int(height)
}

// FramebufferSize implements core.Window
func (w *SDLWindow) FramebufferSize() (int, int) {
	if w.minimized {
		return 0, 0
	}
	return w.size()
}

// SetResizeObserver implements core.Window
func (w *SDLWindow) SetResizeObserver(observer core.ResizeObserver) {
	w.observer = observer
}

// ShouldClose implements core.Window
func (w *SDLWindow) ShouldClose() bool {
	return w.shouldClose || w.closeRequested.Load()
}

// RequestClose makes ShouldClose report true. It is safe to call from any
// goroutine.
func (w *SDLWindow) RequestClose() {
	w.closeRequested.Store(true)
}

// PollEvents implements core.Window
func (w *SDLWindow) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
}

// WaitEvents implements core.Window
func (w *SDLWindow) WaitEvents() {
	if event := sdl.WaitEventTimeout(waitTimeout); event != nil {
		w.handle(event)
	}
	w.PollEvents()
}

func (w *SDLWindow) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.shouldClose = true
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
			w.shouldClose = true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_MINIMIZED:
			w.minimized = true
			w.notify()
		case sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_MAXIMIZED:
			w.minimized = false
			w.notify()
		case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESIZED:
			w.notify()
		case sdl.WINDOWEVENT_CLOSE:
			w.shouldClose = true
		}
	}
}

// notify tells the observer about a changed framebuffer size. Repeated
// events for the same size are folded.
func (w *SDLWindow) notify() {
	width, height := w.FramebufferSize()
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	log.WithFields(log.Fields{
		"width":  width,
		"height": height,
	}).Debug("Window resized")
	if w.observer != nil {
		w.observer.OnResize(width, height)
	}
}

// Destroy implements core.Window
func (w *SDLWindow) Destroy() {
	if w.surface != nil {
		w.surface.Release()
		w.surface = nil
	}
	if w.window != nil {
		if err := w.window.Destroy(); err != nil {
			log.WithError(err).Warn("Destroying window")
		}
		w.window = nil
	}
}
