// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ChooseSurfaceFormat prefers 8 bit BGRA sRGB and falls back to the
// first format offered.
func ChooseSurfaceFormat(formats []gfx.SurfaceFormat) gfx.SurfaceFormat {
	for _, f := range formats {
		if f.Format == gfx.FormatB8G8R8A8Srgb && f.ColorSpace == gfx.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox unless vsync is requested. FIFO is
// always available.
func ChoosePresentMode(modes []gfx.PresentMode, vsync bool) gfx.PresentMode {
	if vsync {
		return gfx.PresentModeFifo
	}
	for _, m := range modes {
		if m == gfx.PresentModeMailbox {
			return m
		}
	}
	return gfx.PresentModeFifo
}

// ChooseExtent uses the extent reported by the surface, or clamps the
// framebuffer size into the surface limits when the surface leaves it open.
func ChooseExtent(caps gfx.SurfaceCapabilities, width, height int) gfx.Extent2D {
	if caps.CurrentExtent.Width != gfx.UndefinedExtent {
		return caps.CurrentExtent
	}
	return gfx.Extent2D{
		Width:  clamp(uint32(width), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(height), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ImageCount asks for one image more than the minimum. A maximum of 0
// means the surface sets no limit.
func ImageCount(caps gfx.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SwapChain owns the presentable images of a window surface, their views and
// framebuffers, the render pass they are bound to and the in-flight ring.
// Everything but the ring is rebuilt when the surface goes stale.
type SwapChain struct {
	device *LogicalDevice
	window Window
	vsync  bool

	swapchain    gfx.Swapchain
	images       []gfx.Image
	views        []gfx.ImageView
	framebuffers []gfx.Framebuffer
	renderPass   gfx.RenderPass

	format      gfx.SurfaceFormat
	presentMode gfx.PresentMode
	extent      gfx.Extent2D

	ring           *InFlightRing
	imagesInFlight []gfx.Fence

	observers []func(gfx.Extent2D)
}

// NewSwapChain creates the swapchain of the window's surface.
func NewSwapChain(device *LogicalDevice, window Window, cfg RendererConfiguration) (*SwapChain, error) {
	s := &SwapChain{
		device: device,
		window: window,
		vsync:  cfg.VSync,
	}
	if err := s.Create(); err != nil {
		return nil, err
	}
	return s, nil
}

// Create builds the surface resources and the in-flight ring.
func (s *SwapChain) Create() error {
	if err := s.createSurfaceResources(); err != nil {
		s.destroySurfaceResources()
		return err
	}
	ring, err := NewInFlightRing(s.device, MaxFramesInFlight)
	if err != nil {
		s.destroySurfaceResources()
		return errors.Wrap(err, "create in-flight ring")
	}
	s.ring = ring
	return nil
}

func (s *SwapChain) createSurfaceResources() error {
	sel := s.device.Selection
	surface := s.window.Surface()

	caps, err := sel.Device.SurfaceCapabilities(surface)
	if err != nil {
		return errors.Wrap(err, "surface capabilities")
	}
	formats, err := sel.Device.SurfaceFormats(surface)
	if err != nil {
		return errors.Wrap(err, "surface formats")
	}
	modes, err := sel.Device.PresentModes(surface)
	if err != nil {
		return errors.Wrap(err, "present modes")
	}
	if len(formats) == 0 {
		return errors.New("surface reports no formats")
	}

	width, height := s.window.FramebufferSize()
	s.format = ChooseSurfaceFormat(formats)
	s.presentMode = ChoosePresentMode(modes, s.vsync)
	s.extent = ChooseExtent(caps, width, height)

	info := gfx.SwapchainCreateInfo{
		Surface:       surface,
		MinImageCount: ImageCount(caps),
		Format:        s.format,
		Extent:        s.extent,
		PresentMode:   s.presentMode,
		Transform:     caps.CurrentTransform,
	}
	if !sel.Families.Shared() {
		info.QueueFamilies = []uint32{sel.Families.Graphics, sel.Families.Present}
	}
	if s.swapchain, err = s.device.CreateSwapchain(info); err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	if s.images, err = s.swapchain.Images(); err != nil {
		return errors.Wrap(err, "swapchain images")
	}

	if s.renderPass, err = s.device.CreateRenderPass(SimplePass(s.format.Format)); err != nil {
		return errors.Wrap(err, "create render pass")
	}

	s.views = make([]gfx.ImageView, 0, len(s.images))
	s.framebuffers = make([]gfx.Framebuffer, 0, len(s.images))
	for i, image := range s.images {
		view, err := s.device.CreateImageView(image, s.format.Format)
		if err != nil {
			return errors.Wrapf(err, "create image view %d", i)
		}
		s.views = append(s.views, view)

		fb, err := s.device.CreateFramebuffer(s.renderPass, []gfx.ImageView{view}, s.extent)
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		s.framebuffers = append(s.framebuffers, fb)
	}
	s.imagesInFlight = make([]gfx.Fence, len(s.images))

	log.WithFields(log.Fields{
		"images":      len(s.images),
		"format":      s.format.Format,
		"presentMode": s.presentMode.String(),
		"width":       s.extent.Width,
		"height":      s.extent.Height,
	}).Info("swapchain created")
	return nil
}

func (s *SwapChain) destroySurfaceResources() {
	if s.renderPass != nil {
		s.renderPass.Release()
		s.renderPass = nil
	}
	for _, fb := range s.framebuffers {
		fb.Release()
	}
	s.framebuffers = nil
	for _, view := range s.views {
		view.Release()
	}
	s.views = nil
	if s.swapchain != nil {
		s.swapchain.Release()
		s.swapchain = nil
	}
	s.images = nil
	s.imagesInFlight = nil
}

// Recreate rebuilds everything that depends on the surface size. While the
// window is minimized it blocks on platform events, then drains the device
// before destroying anything. ErrWindowClosed is returned when the window is
// closed before it has a drawable size again.
func (s *SwapChain) Recreate() error {
	width, height := s.window.FramebufferSize()
	for width == 0 || height == 0 {
		if s.window.ShouldClose() {
			return ErrWindowClosed
		}
		s.window.WaitEvents()
		width, height = s.window.FramebufferSize()
	}

	if err := s.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "device wait idle")
	}

	s.destroySurfaceResources()
	if err := s.createSurfaceResources(); err != nil {
		s.destroySurfaceResources()
		return errors.Wrap(err, "recreate swapchain")
	}

	for _, fn := range s.observers {
		fn(s.extent)
	}
	return nil
}

// OnRecreate registers fn to be called with the new extent after every
// recreation.
func (s *SwapChain) OnRecreate(fn func(gfx.Extent2D)) {
	s.observers = append(s.observers, fn)
}

// AcquireNextImage waits until the current slot is free and acquires the
// next presentable image. A stale result means the image must not be used.
func (s *SwapChain) AcquireNextImage() (uint32, gfx.Result, error) {
	slot, err := s.slot()
	if err != nil {
		return 0, gfx.ResultOk, err
	}
	if err := slot.inFlight.Wait(gfx.NoTimeout); err != nil {
		return 0, gfx.ResultOk, errors.Wrap(err, "wait in-flight fence")
	}

	idx, result, err := s.swapchain.AcquireNextImage(gfx.NoTimeout, slot.imageAvailable)
	if err != nil {
		return 0, result, errors.Wrap(err, "acquire next image")
	}
	if result == gfx.ResultStale {
		return idx, result, nil
	}

	// The image may still be in use by a frame from another slot.
	if fence := s.imagesInFlight[idx]; fence != nil && fence != slot.inFlight {
		if err := fence.Wait(gfx.NoTimeout); err != nil {
			return 0, result, errors.Wrap(err, "wait image fence")
		}
	}
	s.imagesInFlight[idx] = slot.inFlight
	return idx, result, nil
}

// SubmitAndPresent submits cmd for the image and queues it for
// presentation. The ring moves to the next slot whatever the outcome.
func (s *SwapChain) SubmitAndPresent(cmd gfx.CommandBuffer, imageIndex uint32) (gfx.Result, error) {
	slot, err := s.slot()
	if err != nil {
		return gfx.ResultOk, err
	}
	defer s.ring.Advance()

	if err := slot.inFlight.Reset(); err != nil {
		return gfx.ResultOk, errors.Wrap(err, "reset in-flight fence")
	}

	submit := gfx.SubmitInfo{
		CommandBuffers:   []gfx.CommandBuffer{cmd},
		WaitSemaphores:   []gfx.Semaphore{slot.imageAvailable},
		WaitStages:       []gfx.PipelineStageFlags{gfx.PipelineStageColorAttachmentOutput},
		SignalSemaphores: []gfx.Semaphore{slot.renderComplete},
	}
	if err := s.device.Graphics.Submit(submit, slot.inFlight); err != nil {
		return gfx.ResultOk, errors.Wrap(err, "queue submit")
	}

	result, err := s.device.Present.Present(gfx.PresentInfo{
		Swapchain:      s.swapchain,
		ImageIndex:     imageIndex,
		WaitSemaphores: []gfx.Semaphore{slot.renderComplete},
	})
	if err != nil {
		return result, errors.Wrap(err, "queue present")
	}
	return result, nil
}

// Extent returns the size of the presentable images.
func (s *SwapChain) Extent() gfx.Extent2D {
	return s.extent
}

// Format returns the chosen surface format.
func (s *SwapChain) Format() gfx.SurfaceFormat {
	return s.format
}

// PresentMode returns the chosen present mode.
func (s *SwapChain) PresentMode() gfx.PresentMode {
	return s.presentMode
}

// RenderPass returns the render pass of the current surface. It changes on
// every recreation.
func (s *SwapChain) RenderPass() gfx.RenderPass {
	return s.renderPass
}

// ImageCount returns the number of presentable images.
func (s *SwapChain) ImageCount() int {
	return len(s.images)
}

// ImageViews returns one view per image.
func (s *SwapChain) ImageViews() []gfx.ImageView {
	return s.views
}

// Framebuffers returns one framebuffer per image.
func (s *SwapChain) Framebuffers() []gfx.Framebuffer {
	return s.framebuffers
}

// CurrentFrame returns the ring slot the next frame uses.
func (s *SwapChain) CurrentFrame() int {
	if s.ring == nil {
		return 0
	}
	return s.ring.Current()
}

func (s *SwapChain) slot() (*frameSlot, error) {
	if s.ring == nil {
		return nil, ErrSwapChainReleased
	}
	if slot := s.ring.slot(); slot != nil {
		return slot, nil
	}
	return nil, ErrSwapChainReleased
}

// Destroy releases the surface resources and the ring. The device must be idle.
func (s *SwapChain) Destroy() {
	s.destroySurfaceResources()
	if s.ring != nil {
		s.ring.Release()
		s.ring = nil
	}
}
