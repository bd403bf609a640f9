// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/frameloop/gfx"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FrameSession is the state of the frame being recorded.
type FrameSession struct {
	// ImageIndex is the acquired presentable image.
	ImageIndex uint32

	// FrameIndex is the in-flight ring slot, in [0, MaxFramesInFlight).
	FrameIndex int

	CommandBuffer gfx.CommandBuffer
	Framebuffer   gfx.Framebuffer
	RenderPass    gfx.RenderPass
	Extent        gfx.Extent2D
}

// RenderSystem drives the begin/end frame protocol over a SwapChain.
// Only one frame may be open at a time.
type RenderSystem struct {
	device    *LogicalDevice
	swapChain *SwapChain

	commandBuffers []gfx.CommandBuffer
	clearColour    mgl32.Vec3

	session      FrameSession
	frameStarted bool
	resized      bool
}

// NewRenderSystem creates the swapchain for the context's window and one
// command buffer per presentable image.
func NewRenderSystem(ctx *EngineContext, cfg RendererConfiguration) (*RenderSystem, error) {
	swapChain, err := NewSwapChain(ctx.Device, ctx.Window, cfg)
	if err != nil {
		return nil, err
	}
	rs := &RenderSystem{
		device:      ctx.Device,
		swapChain:   swapChain,
		clearColour: cfg.ClearColour,
	}
	if err := rs.allocateCommandBuffers(); err != nil {
		swapChain.Destroy()
		return nil, err
	}
	return rs, nil
}

func (rs *RenderSystem) allocateCommandBuffers() error {
	if len(rs.commandBuffers) == rs.swapChain.ImageCount() {
		return nil
	}
	rs.freeCommandBuffers()
	buffers, err := rs.device.CommandPool.Allocate(rs.swapChain.ImageCount())
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}
	rs.commandBuffers = buffers
	return nil
}

func (rs *RenderSystem) freeCommandBuffers() {
	if len(rs.commandBuffers) > 0 {
		rs.device.CommandPool.Free(rs.commandBuffers)
		rs.commandBuffers = nil
	}
}

func (rs *RenderSystem) recreate() error {
	if err := rs.swapChain.Recreate(); err != nil {
		return err
	}
	// resizes seen while recreating are covered by the new surface
	rs.resized = false
	log.WithFields(log.Fields{
		"width":  rs.swapChain.Extent().Width,
		"height": rs.swapChain.Extent().Height,
	}).Debug("swapchain recreated")
	return rs.allocateCommandBuffers()
}

// BeginFrame acquires the next image and opens its command buffer for
// recording. A nil session without error means the surface was stale and
// has been recreated; the caller skips drawing this iteration.
func (rs *RenderSystem) BeginFrame() (*FrameSession, error) {
	if rs.frameStarted {
		return nil, ErrFrameInProgress
	}

	frame := rs.swapChain.CurrentFrame()
	idx, result, err := rs.swapChain.AcquireNextImage()
	if err != nil {
		return nil, err
	}
	if result == gfx.ResultStale {
		return nil, rs.recreate()
	}

	cmd := rs.commandBuffers[idx]
	if err := cmd.Reset(); err != nil {
		return nil, errors.Wrap(err, "reset command buffer")
	}
	if err := cmd.Begin(); err != nil {
		return nil, errors.Wrap(err, "begin command buffer")
	}

	rs.frameStarted = true
	rs.session = FrameSession{
		ImageIndex:    idx,
		FrameIndex:    frame,
		CommandBuffer: cmd,
		Framebuffer:   rs.swapChain.Framebuffers()[idx],
		RenderPass:    rs.swapChain.RenderPass(),
		Extent:        rs.swapChain.Extent(),
	}
	return &rs.session, nil
}

// EndFrame closes recording, submits and presents the frame. The surface is
// recreated when presentation reports it stale or suboptimal, or when a
// resize was observed.
func (rs *RenderSystem) EndFrame() error {
	if !rs.frameStarted {
		return ErrNoFrameInProgress
	}
	rs.frameStarted = false

	cmd := rs.session.CommandBuffer
	if err := cmd.End(); err != nil {
		return errors.Wrap(err, "end command buffer")
	}

	result, err := rs.swapChain.SubmitAndPresent(cmd, rs.session.ImageIndex)
	if err != nil {
		return err
	}
	if result != gfx.ResultOk || rs.resized {
		return rs.recreate()
	}
	return nil
}

// BeginRenderPass begins the swap render pass on the session's framebuffer
// and sets the dynamic viewport and scissor to the full extent.
func (rs *RenderSystem) BeginRenderPass(session *FrameSession) {
	area := gfx.Rect2D{Extent: session.Extent}
	c := rs.clearColour
	session.CommandBuffer.BeginRenderPass(session.RenderPass, session.Framebuffer, area, gfx.ClearColor{c[0], c[1], c[2], 1})
	session.CommandBuffer.SetViewport(gfx.Viewport{
		Width:    float32(session.Extent.Width),
		Height:   float32(session.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	session.CommandBuffer.SetScissor(area)
}

// EndRenderPass ends the swap render pass.
func (rs *RenderSystem) EndRenderPass(session *FrameSession) {
	session.CommandBuffer.EndRenderPass()
}

// OnResize marks the surface for recreation at the end of the current frame.
func (rs *RenderSystem) OnResize(width, height int) {
	rs.resized = true
}

// SetClearColour sets the colour the swap render pass clears to.
func (rs *RenderSystem) SetClearColour(colour mgl32.Vec3) {
	rs.clearColour = colour
}

// ClearColour returns the colour the swap render pass clears to.
func (rs *RenderSystem) ClearColour() mgl32.Vec3 {
	return rs.clearColour
}

// FrameIndex returns the ring slot of the open frame.
func (rs *RenderSystem) FrameIndex() int {
	return rs.session.FrameIndex
}

// ImageIndex returns the image acquired for the open frame.
func (rs *RenderSystem) ImageIndex() uint32 {
	return rs.session.ImageIndex
}

// IsFrameStarted reports whether a frame is open.
func (rs *RenderSystem) IsFrameStarted() bool {
	return rs.frameStarted
}

// SwapChain returns the presentable surface manager.
func (rs *RenderSystem) SwapChain() *SwapChain {
	return rs.swapChain
}

// RenderPass returns the current swap render pass. Re-fetch it after a resize.
func (rs *RenderSystem) RenderPass() gfx.RenderPass {
	return rs.swapChain.RenderPass()
}

// Extent returns the current presentable image size.
func (rs *RenderSystem) Extent() gfx.Extent2D {
	return rs.swapChain.Extent()
}

// WaitIdle blocks until the device finished all submitted work.
func (rs *RenderSystem) WaitIdle() error {
	return rs.device.WaitIdle()
}

// Destroy frees the command buffers and the swapchain. The device must be idle.
func (rs *RenderSystem) Destroy() {
	rs.freeCommandBuffers()
	rs.swapChain.Destroy()
}
