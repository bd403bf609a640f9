// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	"github.com/devblok/frameloop/gfx"
	qt "github.com/frankban/quicktest"
)

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)

	preferred := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: gfx.ColorSpaceSrgbNonlinear}
	other := gfx.SurfaceFormat{Format: gfx.FormatR8G8B8A8Unorm, ColorSpace: gfx.ColorSpaceSrgbNonlinear}

	c.Assert(ChooseSurfaceFormat([]gfx.SurfaceFormat{other, preferred}), qt.Equals, preferred)
	c.Assert(ChooseSurfaceFormat([]gfx.SurfaceFormat{other}), qt.Equals, other)
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)

	all := []gfx.PresentMode{gfx.PresentModeImmediate, gfx.PresentModeFifo, gfx.PresentModeMailbox}
	c.Assert(ChoosePresentMode(all, false), qt.Equals, gfx.PresentModeMailbox)
	c.Assert(ChoosePresentMode(all, true), qt.Equals, gfx.PresentModeFifo)
	c.Assert(ChoosePresentMode([]gfx.PresentMode{gfx.PresentModeImmediate}, false), qt.Equals, gfx.PresentModeFifo)
}

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)

	caps := gfx.SurfaceCapabilities{
		CurrentExtent:  gfx.Extent2D{Width: 1024, Height: 768},
		MinImageExtent: gfx.Extent2D{Width: 16, Height: 16},
		MaxImageExtent: gfx.Extent2D{Width: 640, Height: 480},
	}
	c.Assert(ChooseExtent(caps, 800, 600), qt.Equals, gfx.Extent2D{Width: 1024, Height: 768})

	caps.CurrentExtent = gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}
	c.Assert(ChooseExtent(caps, 800, 600), qt.Equals, gfx.Extent2D{Width: 640, Height: 480})
	c.Assert(ChooseExtent(caps, 8, 300), qt.Equals, gfx.Extent2D{Width: 16, Height: 300})
}

func TestImageCount(t *testing.T) {
	c := qt.New(t)

	c.Assert(ImageCount(gfx.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 3}), qt.Equals, uint32(3))
	c.Assert(ImageCount(gfx.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}), qt.Equals, uint32(3))
	c.Assert(ImageCount(gfx.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 0}), qt.Equals, uint32(4))
}

func TestSwapChainCreate(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()
	f := newFixture(c, gpu, newMockWindow(gpu, 800, 600))
	sc := f.rs.SwapChain()

	c.Assert(sc.ImageCount(), qt.Equals, 3)
	c.Assert(sc.ImageViews(), qt.HasLen, 3)
	c.Assert(sc.Framebuffers(), qt.HasLen, 3)
	c.Assert(sc.Format().Format, qt.Equals, gfx.FormatB8G8R8A8Srgb)
	c.Assert(sc.PresentMode(), qt.Equals, gfx.PresentModeMailbox)
	c.Assert(sc.Extent(), qt.Equals, gfx.Extent2D{Width: 800, Height: 600})
	c.Assert(sc.RenderPass().Descriptor().ColorFormat(), qt.Equals, gfx.FormatB8G8R8A8Srgb)
	c.Assert(sc.ring.Len(), qt.Equals, MaxFramesInFlight)

	c.Assert(gpu.swapchainInfos, qt.HasLen, 1)
	info := gpu.swapchainInfos[0]
	c.Assert(info.MinImageCount, qt.Equals, uint32(3))
	c.Assert(info.QueueFamilies, qt.HasLen, 0)
	c.Assert(info.Transform, qt.Equals, gfx.SurfaceTransformIdentity)
}

func TestSwapChainRecreateFollowsSurface(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()
	f := newFixture(c, gpu, newMockWindow(gpu, 800, 600))
	sc := f.rs.SwapChain()
	ring := sc.ring

	gpu.mu.Lock()
	gpu.formats = []gfx.SurfaceFormat{{Format: gfx.FormatR8G8B8A8Unorm, ColorSpace: gfx.ColorSpaceSrgbNonlinear}}
	gpu.caps.MinImageCount = 1
	gpu.mu.Unlock()

	var notified []gfx.Extent2D
	sc.OnRecreate(func(extent gfx.Extent2D) {
		notified = append(notified, extent)
	})

	f.window.width, f.window.height = 1024, 512
	c.Assert(sc.Recreate(), qt.IsNil)

	c.Assert(sc.ImageCount(), qt.Equals, 2)
	c.Assert(sc.ImageViews(), qt.HasLen, sc.ImageCount())
	c.Assert(sc.Framebuffers(), qt.HasLen, sc.ImageCount())
	c.Assert(sc.Format().Format, qt.Equals, gfx.FormatR8G8B8A8Unorm)
	c.Assert(sc.RenderPass().Descriptor().ColorFormat(), qt.Equals, gfx.FormatR8G8B8A8Unorm)
	c.Assert(notified, qt.DeepEquals, []gfx.Extent2D{{Width: 1024, Height: 512}})
	c.Assert(gpu.waitIdles, qt.Equals, 1)

	// The ring survives recreation, old surface objects do not.
	c.Assert(sc.ring, qt.Equals, ring)
	c.Assert(gpu.live["swapchain"], qt.Equals, 1)
	c.Assert(gpu.live["renderpass"], qt.Equals, 1)
	c.Assert(gpu.live["view"], qt.Equals, 2)
	c.Assert(gpu.live["framebuffer"], qt.Equals, 2)
	c.Assert(gpu.live["fence"], qt.Equals, MaxFramesInFlight)
}

func TestSwapChainRecreateWhileMinimized(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()
	gpu.caps.MaxImageExtent = gfx.Extent2D{Width: 640, Height: 480}
	window := newMockWindow(gpu, 320, 240)
	f := newFixture(c, gpu, window)
	sc := f.rs.SwapChain()

	window.width, window.height = 0, 0
	window.pending = [][2]int{{0, 0}, {800, 0}, {800, 600}}
	c.Assert(sc.Recreate(), qt.IsNil)

	c.Assert(window.waits, qt.Equals, 3)
	c.Assert(sc.Extent(), qt.Equals, gfx.Extent2D{Width: 640, Height: 480})
	c.Assert(gpu.swapchainInfos, qt.HasLen, 2)
	for _, info := range gpu.swapchainInfos {
		c.Assert(info.Extent.Width, qt.Not(qt.Equals), uint32(0))
		c.Assert(info.Extent.Height, qt.Not(qt.Equals), uint32(0))
	}
	for _, fb := range sc.Framebuffers() {
		c.Assert(fb.Extent(), qt.Equals, sc.Extent())
	}
}

func TestSwapChainSeparatePresentFamily(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()
	window := newMockWindow(gpu, 800, 600)

	device := newMockPhysicalDevice(gpu, "split")
	device.families = []gfx.QueueFamilyProperties{
		{Flags: gfx.QueueGraphics, Count: 1},
		{Flags: gfx.QueueTransfer, Count: 1},
	}
	device.present = map[uint32]bool{1: true}

	req := DefaultDeviceRequirements()
	sel, err := SelectDevice([]gfx.PhysicalDevice{device}, window.Surface(), req)
	c.Assert(err, qt.IsNil)
	logical, err := CreateLogicalDevice(sel, req)
	c.Assert(err, qt.IsNil)
	defer logical.Release()

	sc, err := NewSwapChain(logical, window, RendererConfiguration{VSync: true})
	c.Assert(err, qt.IsNil)
	defer sc.Destroy()

	c.Assert(gpu.swapchainInfos[0].QueueFamilies, qt.DeepEquals, []uint32{0, 1})
	c.Assert(sc.PresentMode(), qt.Equals, gfx.PresentModeFifo)
}
