// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that renderers must implement.
//
// The interfaces mirror the explicit graphics API closely enough that the
// Vulkan backend (package vkr) is a thin translation, while the frame
// lifecycle in package core can be driven by any implementation.
package gfx

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Instance is a graphics API instance.
type Instance interface {
	Releasable

	// AvailableDevices returns the physical devices in the order
	// reported by the driver.
	AvailableDevices() ([]PhysicalDevice, error)

	// Inner returns the inner handle of the underlying API.
	Inner() interface{}
}

// Surface is a window surface images can be presented to.
type Surface interface {
	Releasable

	// Inner returns the inner handle of the underlying API.
	Inner() interface{}
}

// PhysicalDevice is a GPU as reported by the instance.
type PhysicalDevice interface {
	Properties() DeviceProperties
	QueueFamilies() []QueueFamilyProperties
	SurfaceSupport(family uint32, surface Surface) (bool, error)
	Extensions() ([]string, error)
	Features() Features
	SurfaceCapabilities(surface Surface) (SurfaceCapabilities, error)
	SurfaceFormats(surface Surface) ([]SurfaceFormat, error)
	PresentModes(surface Surface) ([]PresentMode, error)

	// CreateDevice creates the logical device. Queues are
	// retrieved from it with Device.Queue.
	CreateDevice(info DeviceCreateInfo) (Device, error)
}

// Device is a logical device, the factory for every other object.
type Device interface {
	Releasable

	Queue(family, index uint32) Queue
	WaitIdle() error

	CreateCommandPool(family uint32) (CommandPool, error)
	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	CreateImageView(image Image, format Format) (ImageView, error)
	CreateRenderPass(desc RenderPassDescriptor) (RenderPass, error)
	CreateFramebuffer(pass RenderPass, attachments []ImageView, extent Extent2D) (Framebuffer, error)
	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)
}

// Queue accepts command buffer submissions and presentation requests.
type Queue interface {
	Submit(info SubmitInfo, fence Fence) error

	// Present returns ResultStale or ResultSuboptimal as values,
	// any other failure as an error.
	Present(info PresentInfo) (Result, error)

	WaitIdle() error
}

// Swapchain is the chain of presentable images owned by the
// presentation engine.
type Swapchain interface {
	Releasable

	// Images returns the presentable images. They are owned by the
	// swapchain and are never released individually.
	Images() ([]Image, error)

	// AcquireNextImage returns the index of the next presentable image
	// and signals the semaphore once it may be rendered to.
	AcquireNextImage(timeout uint64, signal Semaphore) (uint32, Result, error)
}

// Image is an image handle.
type Image interface {
	Inner() interface{}
}

// ImageView is a view on an image.
type ImageView interface {
	Releasable
}

// Framebuffer binds image views to a render pass.
type Framebuffer interface {
	Releasable
	Extent() Extent2D
}

// RenderPass is a created render pass.
type RenderPass interface {
	Releasable

	// Descriptor returns the description it was created from.
	Descriptor() RenderPassDescriptor
	Inner() interface{}
}

// Semaphore orders work on the GPU.
type Semaphore interface {
	Releasable
}

// Fence lets the CPU wait on GPU work.
type Fence interface {
	Releasable
	Wait(timeout uint64) error
	Reset() error
}

// CommandPool allocates command buffers for one queue family.
type CommandPool interface {
	Releasable
	Allocate(count int) ([]CommandBuffer, error)
	Free(buffers []CommandBuffer)
}

// CommandBuffer records commands for submission.
type CommandBuffer interface {
	Begin() error
	End() error
	Reset() error

	BeginRenderPass(pass RenderPass, framebuffer Framebuffer, area Rect2D, clear ClearColor)
	EndRenderPass()
	SetViewport(viewport Viewport)
	SetScissor(scissor Rect2D)

	// Inner returns the inner handle of the underlying API, for
	// collaborators recording their own commands.
	Inner() interface{}
}

// SubmitInfo describes one batch submitted to a queue.
type SubmitInfo struct {
	CommandBuffers   []CommandBuffer
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	SignalSemaphores []Semaphore
}

// PresentInfo describes one presentation request.
type PresentInfo struct {
	Swapchain      Swapchain
	ImageIndex     uint32
	WaitSemaphores []Semaphore
}

// QueueCreateInfo requests queues from one family.
type QueueCreateInfo struct {
	Family     uint32
	Priorities []float32
}

// DeviceCreateInfo describes a logical device.
type DeviceCreateInfo struct {
	Queues     []QueueCreateInfo
	Extensions []string
	Layers     []string
	Features   Features
}

// SwapchainCreateInfo describes a swapchain. When QueueFamilies holds two
// distinct families images are shared concurrently between them.
type SwapchainCreateInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent2D
	PresentMode   PresentMode
	Transform     SurfaceTransform
	QueueFamilies []uint32
}
