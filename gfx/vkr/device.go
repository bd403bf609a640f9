// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Device is a vulkan logical device.
type Device struct {
	device   vk.Device
	physical *PhysicalDevice
}

// Physical returns the physical device the device was created on.
func (d *Device) Physical() *PhysicalDevice {
	return d.physical
}

// Inner returns the vk.Device handle.
func (d *Device) Inner() interface{} {
	return d.device
}

// Queue implements interface
func (d *Device) Queue(family, index uint32) gfx.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(d.device, family, index, &queue)
	return &Queue{queue: queue, family: family}
}

// WaitIdle implements interface
func (d *Device) WaitIdle() error {
	if err := NewError(vk.DeviceWaitIdle(d.device)); err != nil {
		return errors.Wrap(err, "vk.DeviceWaitIdle()")
	}
	return nil
}

// CreateCommandPool implements interface
func (d *Device) CreateCommandPool(family uint32) (gfx.CommandPool, error) {
	return d.newCommandPool(family, vk.CommandPoolCreateResetCommandBufferBit)
}

func (d *Device) newCommandPool(family uint32, flags vk.CommandPoolCreateFlagBits) (*CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(flags),
		QueueFamilyIndex: family,
	}
	var pool vk.CommandPool
	if err := NewError(vk.CreateCommandPool(d.device, &cpci, nil, &pool)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateCommandPool()")
	}
	return &CommandPool{device: d.device, pool: pool}, nil
}

// CreateSwapchain implements interface
func (d *Device) CreateSwapchain(info gfx.SwapchainCreateInfo) (gfx.Swapchain, error) {
	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surfaceHandle(info.Surface),
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format.Format),
		ImageColorSpace:  vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      fromExtent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(info.Transform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
	}
	if len(info.QueueFamilies) > 1 {
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = uint32(len(info.QueueFamilies))
		scci.PQueueFamilyIndices = info.QueueFamilies
	}

	var swapchain vk.Swapchain
	if err := NewError(vk.CreateSwapchain(d.device, &scci, nil, &swapchain)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateSwapchain()")
	}
	return &Swapchain{device: d.device, swapchain: swapchain}, nil
}

// CreateImageView implements interface
func (d *Device) CreateImageView(image gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	return d.newImageView(image.Inner().(vk.Image), vk.Format(format))
}

func (d *Device) newImageView(image vk.Image, format vk.Format) (*ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if err := NewError(vk.CreateImageView(d.device, &ivci, nil, &view)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateImageView()")
	}
	return &ImageView{device: d.device, view: view}, nil
}

// CreateRenderPass implements interface
func (d *Device) CreateRenderPass(desc gfx.RenderPassDescriptor) (gfx.RenderPass, error) {
	rpci := renderPassCreateInfo(desc)
	var pass vk.RenderPass
	if err := NewError(vk.CreateRenderPass(d.device, &rpci, nil, &pass)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateRenderPass()")
	}
	return &RenderPass{device: d.device, pass: pass, desc: desc}, nil
}

// CreateFramebuffer implements interface
func (d *Device) CreateFramebuffer(pass gfx.RenderPass, attachments []gfx.ImageView, extent gfx.Extent2D) (gfx.Framebuffer, error) {
	views := make([]vk.ImageView, 0, len(attachments))
	for _, a := range attachments {
		views = append(views, a.(*ImageView).view)
	}
	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass.Inner().(vk.RenderPass),
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}
	var framebuffer vk.Framebuffer
	if err := NewError(vk.CreateFramebuffer(d.device, &fci, nil, &framebuffer)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateFramebuffer()")
	}
	return &Framebuffer{device: d.device, framebuffer: framebuffer, extent: extent}, nil
}

// CreateSemaphore implements interface
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := NewError(vk.CreateSemaphore(d.device, &sci, nil, &semaphore)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateSemaphore()")
	}
	return &Semaphore{device: d.device, semaphore: semaphore}, nil
}

// CreateFence implements interface
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := NewError(vk.CreateFence(d.device, &fci, nil, &fence)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateFence()")
	}
	return &Fence{device: d.device, fence: fence}, nil
}

// Release implements interface
func (d *Device) Release() {
	vk.DestroyDevice(d.device, nil)
}

// Queue is a device queue.
type Queue struct {
	queue  vk.Queue
	family uint32
}

// Family returns the queue family index.
func (q *Queue) Family() uint32 {
	return q.family
}

// Submit implements interface
func (q *Queue) Submit(info gfx.SubmitInfo, fence gfx.Fence) error {
	buffers := make([]vk.CommandBuffer, 0, len(info.CommandBuffers))
	for _, b := range info.CommandBuffers {
		buffers = append(buffers, b.Inner().(vk.CommandBuffer))
	}
	stages := make([]vk.PipelineStageFlags, 0, len(info.WaitStages))
	for _, s := range info.WaitStages {
		stages = append(stages, vk.PipelineStageFlags(s))
	}
	wait := semaphores(info.WaitSemaphores)
	signal := semaphores(info.SignalSemaphores)

	submit := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(wait)),
		PWaitSemaphores:      wait,
		PWaitDstStageMask:    stages,
		CommandBufferCount:   uint32(len(buffers)),
		PCommandBuffers:      buffers,
		SignalSemaphoreCount: uint32(len(signal)),
		PSignalSemaphores:    signal,
	}}

	vkFence := vk.NullFence
	if fence != nil {
		vkFence = fence.(*Fence).fence
	}
	if err := NewError(vk.QueueSubmit(q.queue, 1, submit, vkFence)); err != nil {
		return errors.Wrap(err, "vk.QueueSubmit()")
	}
	return nil
}

// Present implements interface
func (q *Queue) Present(info gfx.PresentInfo) (gfx.Result, error) {
	wait := semaphores(info.WaitSemaphores)
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(wait)),
		PWaitSemaphores:    wait,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{info.Swapchain.(*Swapchain).swapchain},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	result, err := presentResult(vk.QueuePresent(q.queue, &presentInfo))
	if err != nil {
		return result, errors.Wrap(err, "vk.QueuePresent()")
	}
	return result, nil
}

// WaitIdle implements interface
func (q *Queue) WaitIdle() error {
	if err := NewError(vk.QueueWaitIdle(q.queue)); err != nil {
		return errors.Wrap(err, "vk.QueueWaitIdle()")
	}
	return nil
}

// presentResult splits acquire and present results into the values the
// frame loop recovers from and true failures.
func presentResult(ret vk.Result) (gfx.Result, error) {
	switch ret {
	case vk.Success:
		return gfx.ResultOk, nil
	case vk.Suboptimal:
		return gfx.ResultSuboptimal, nil
	case vk.ErrorOutOfDate:
		return gfx.ResultStale, nil
	}
	if err := NewError(ret); err != nil {
		return gfx.ResultOk, err
	}
	return gfx.ResultOk, errors.Errorf("unexpected result %d", ret)
}

func semaphores(list []gfx.Semaphore) []vk.Semaphore {
	handles := make([]vk.Semaphore, 0, len(list))
	for _, s := range list {
		handles = append(handles, s.(*Semaphore).semaphore)
	}
	return handles
}

// Swapchain is a vulkan swapchain.
type Swapchain struct {
	device    vk.Device
	swapchain vk.Swapchain
}

// Images implements interface
func (s *Swapchain) Images() ([]gfx.Image, error) {
	var count uint32
	if err := NewError(vk.GetSwapchainImages(s.device, s.swapchain, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.GetSwapchainImages()")
	}
	handles := make([]vk.Image, count)
	if err := NewError(vk.GetSwapchainImages(s.device, s.swapchain, &count, handles)); err != nil {
		return nil, errors.Wrap(err, "vk.GetSwapchainImages()")
	}
	images := make([]gfx.Image, 0, count)
	for _, h := range handles {
		images = append(images, swapchainImage{h})
	}
	return images, nil
}

// AcquireNextImage implements interface
func (s *Swapchain) AcquireNextImage(timeout uint64, signal gfx.Semaphore) (uint32, gfx.Result, error) {
	var idx uint32
	ret := vk.AcquireNextImage(s.device, s.swapchain, timeout, signal.(*Semaphore).semaphore, vk.NullFence, &idx)
	result, err := presentResult(ret)
	if err != nil {
		return 0, result, errors.Wrap(err, "vk.AcquireNextImage()")
	}
	return idx, result, nil
}

// Release implements interface
func (s *Swapchain) Release() {
	vk.DestroySwapchain(s.device, s.swapchain, nil)
}

type swapchainImage struct {
	image vk.Image
}

func (i swapchainImage) Inner() interface{} {
	return i.image
}

// ImageView is a vulkan image view.
type ImageView struct {
	device vk.Device
	view   vk.ImageView
}

// Release implements interface
func (v *ImageView) Release() {
	vk.DestroyImageView(v.device, v.view, nil)
}

// Framebuffer is a vulkan framebuffer.
type Framebuffer struct {
	device      vk.Device
	framebuffer vk.Framebuffer
	extent      gfx.Extent2D
}

// Extent implements interface
func (f *Framebuffer) Extent() gfx.Extent2D {
	return f.extent
}

// Release implements interface
func (f *Framebuffer) Release() {
	vk.DestroyFramebuffer(f.device, f.framebuffer, nil)
}

// Semaphore is a vulkan semaphore.
type Semaphore struct {
	device    vk.Device
	semaphore vk.Semaphore
}

// Release implements interface
func (s *Semaphore) Release() {
	vk.DestroySemaphore(s.device, s.semaphore, nil)
}

// Fence is a vulkan fence.
type Fence struct {
	device vk.Device
	fence  vk.Fence
}

// Wait implements interface
func (f *Fence) Wait(timeout uint64) error {
	if err := NewError(vk.WaitForFences(f.device, 1, []vk.Fence{f.fence}, vk.True, timeout)); err != nil {
		return errors.Wrap(err, "vk.WaitForFences()")
	}
	return nil
}

// Reset implements interface
func (f *Fence) Reset() error {
	if err := NewError(vk.ResetFences(f.device, 1, []vk.Fence{f.fence})); err != nil {
		return errors.Wrap(err, "vk.ResetFences()")
	}
	return nil
}

// Release implements interface
func (f *Fence) Release() {
	vk.DestroyFence(f.device, f.fence, nil)
}
