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

// CommandPool is a vulkan command pool.
type CommandPool struct {
	device vk.Device
	pool   vk.CommandPool
}

// Allocate implements interface
func (p *CommandPool) Allocate(count int) ([]gfx.CommandBuffer, error) {
	handles, err := p.allocate(count)
	if err != nil {
		return nil, err
	}
	buffers := make([]gfx.CommandBuffer, 0, count)
	for _, h := range handles {
		buffers = append(buffers, &CommandBuffer{buffer: h})
	}
	return buffers, nil
}

func (p *CommandPool) allocate(count int) ([]vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}
	handles := make([]vk.CommandBuffer, count)
	if err := NewError(vk.AllocateCommandBuffers(p.device, &cbai, handles)); err != nil {
		return nil, errors.Wrap(err, "vk.AllocateCommandBuffers()")
	}
	return handles, nil
}

// Free implements interface
func (p *CommandPool) Free(buffers []gfx.CommandBuffer) {
	handles := make([]vk.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		handles = append(handles, b.(*CommandBuffer).buffer)
	}
	vk.FreeCommandBuffers(p.device, p.pool, uint32(len(handles)), handles)
}

// Release implements interface
func (p *CommandPool) Release() {
	vk.DestroyCommandPool(p.device, p.pool, nil)
}

// CommandBuffer is a primary vulkan command buffer.
type CommandBuffer struct {
	buffer vk.CommandBuffer
}

// Begin implements interface
func (c *CommandBuffer) Begin() error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if err := NewError(vk.BeginCommandBuffer(c.buffer, &cbbi)); err != nil {
		return errors.Wrap(err, "vk.BeginCommandBuffer()")
	}
	return nil
}

// End implements interface
func (c *CommandBuffer) End() error {
	if err := NewError(vk.EndCommandBuffer(c.buffer)); err != nil {
		return errors.Wrap(err, "vk.EndCommandBuffer()")
	}
	return nil
}

// Reset implements interface
func (c *CommandBuffer) Reset() error {
	if err := NewError(vk.ResetCommandBuffer(c.buffer, 0)); err != nil {
		return errors.Wrap(err, "vk.ResetCommandBuffer()")
	}
	return nil
}

// BeginRenderPass implements interface
func (c *CommandBuffer) BeginRenderPass(pass gfx.RenderPass, framebuffer gfx.Framebuffer, area gfx.Rect2D, clear gfx.ClearColor) {
	rpbi := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      pass.Inner().(vk.RenderPass),
		Framebuffer:     framebuffer.(*Framebuffer).framebuffer,
		RenderArea:      rect(area),
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(clear[:])},
	}
	vk.CmdBeginRenderPass(c.buffer, &rpbi, vk.SubpassContentsInline)
}

// EndRenderPass implements interface
func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.buffer)
}

// SetViewport implements interface
func (c *CommandBuffer) SetViewport(v gfx.Viewport) {
	vk.CmdSetViewport(c.buffer, 0, 1, []vk.Viewport{{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}})
}

// SetScissor implements interface
func (c *CommandBuffer) SetScissor(r gfx.Rect2D) {
	vk.CmdSetScissor(c.buffer, 0, 1, []vk.Rect2D{rect(r)})
}

// Inner implements interface
func (c *CommandBuffer) Inner() interface{} {
	return c.buffer
}

func rect(r gfx.Rect2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: fromExtent(r.Extent),
	}
}

// NewTransfer creates a transient pool for one-off uploads on queue.
func NewTransfer(device *Device, queue gfx.Queue) (*Transfer, error) {
	q := queue.(*Queue)
	pool, err := device.newCommandPool(q.family, vk.CommandPoolCreateTransientBit)
	if err != nil {
		return nil, err
	}
	return &Transfer{device: device, pool: pool, queue: q}, nil
}

// Transfer records and submits single use command buffers, waiting for
// the queue to finish each one.
type Transfer struct {
	device *Device
	pool   *CommandPool
	queue  *Queue
}

// Device returns the device the transfer records for.
func (t *Transfer) Device() *Device {
	return t.device
}

// Run records fn into a fresh command buffer, submits it and waits.
func (t *Transfer) Run(fn func(cmd vk.CommandBuffer)) error {
	handles, err := t.pool.allocate(1)
	if err != nil {
		return err
	}
	defer vk.FreeCommandBuffers(t.device.device, t.pool.pool, 1, handles)

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := NewError(vk.BeginCommandBuffer(handles[0], &cbbi)); err != nil {
		return errors.Wrap(err, "vk.BeginCommandBuffer()")
	}
	fn(handles[0])
	if err := NewError(vk.EndCommandBuffer(handles[0])); err != nil {
		return errors.Wrap(err, "vk.EndCommandBuffer()")
	}

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    handles,
	}}
	if err := NewError(vk.QueueSubmit(t.queue.queue, 1, submit, vk.NullFence)); err != nil {
		return errors.Wrap(err, "vk.QueueSubmit()")
	}
	return t.queue.WaitIdle()
}

// Release destroys the transient pool.
func (t *Transfer) Release() {
	t.pool.Release()
}
