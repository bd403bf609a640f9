// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core drives the frame lifecycle: device negotiation, the
// presentable surface and its in-flight frame ring, and the begin/end
// frame protocol that applications draw through.
package core

import (
	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
)

// MaxFramesInFlight is the number of frames the GPU may work on at once.
const MaxFramesInFlight = 3

// package errors
var (
	ErrFrameInProgress   = errors.New("frame already in progress")
	ErrNoFrameInProgress = errors.New("no frame in progress")
	ErrSwapChainReleased = errors.New("swapchain used after release")
	ErrWindowClosed      = errors.New("window closed while waiting for a drawable size")
)

// Window describes the window the engine presents into.
type Window interface {
	// Surface returns the presentable surface created for the window.
	Surface() gfx.Surface

	// FramebufferSize returns the drawable size in pixels,
	// zero in either dimension while minimized.
	FramebufferSize() (width, height int)

	// WaitEvents blocks until at least one platform event arrived
	// and processes it.
	WaitEvents()

	// PollEvents processes pending platform events without blocking.
	PollEvents()

	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool

	// SetResizeObserver registers the observer notified on every
	// framebuffer size change.
	SetResizeObserver(observer ResizeObserver)

	// Destroy releases the surface and the window.
	Destroy()
}

// ResizeObserver is notified when the window framebuffer changes size.
type ResizeObserver interface {
	OnResize(width, height int)
}

// ResizeObserverFunc adapts a function to ResizeObserver.
type ResizeObserverFunc func(width, height int)

// OnResize calls f.
func (f ResizeObserverFunc) OnResize(width, height int) {
	f(width, height)
}
