// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package render2d draws coloured quads through a single batched pipeline.
package render2d

import (
	"image"
	"unsafe"

	"github.com/devblok/frameloop/core"
	"github.com/devblok/frameloop/gfx"
	"github.com/devblok/frameloop/gfx/vkr"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Descriptor bindings of set 0.
const (
	ProjectionBinding = 0
	TextureBinding    = 1
)

const projectionSize = uint(unsafe.Sizeof(mgl32.Mat4{}))

// Options configure a Renderer.
type Options struct {
	// Shaders defaults to the embedded quad shaders.
	Shaders []vkr.ShaderSource

	// Cache is used for pipeline creation when set.
	Cache *vkr.PipelineCache

	// Texture is sampled by every quad, a white pixel when nil.
	Texture image.Image

	// MaxQuads defaults to MaxQuads.
	MaxQuads int
}

type frameResources struct {
	projection *vkr.Buffer
	vertices   *vkr.Buffer
	set        *vkr.DescriptorSet
}

func (f *frameResources) release() {
	for _, b := range []*vkr.Buffer{f.projection, f.vertices} {
		if b != nil {
			b.Release()
		}
	}
}

// Renderer batches quads and records them into the current frame.
type Renderer struct {
	device    *vkr.Device
	allocator *vkr.MemoryAllocator
	cache     *vkr.PipelineCache
	shaders   []vkr.ShaderSource

	texture   *vkr.Texture
	indices   *vkr.Buffer
	setLayout *vkr.DescriptorSetLayout
	pool      *vkr.DescriptorPool
	layout    *vkr.PipelineLayout
	pipeline  *vkr.Pipeline
	format    gfx.Format

	frames [core.MaxFramesInFlight]frameResources
	batch  *Batch
}

// NewRenderer creates the pipeline for pass and the per-frame resources.
// Uploads go through queue.
func NewRenderer(device *vkr.Device, queue gfx.Queue, pass gfx.RenderPass, opts Options) (_ *Renderer, err error) {
	r := &Renderer{
		device:    device,
		allocator: vkr.NewMemoryAllocator(device),
		cache:     opts.Cache,
		shaders:   opts.Shaders,
		batch:     NewBatch(opts.MaxQuads),
	}
	defer func() {
		if err != nil {
			r.Destroy()
		}
	}()

	if r.shaders == nil {
		if r.shaders, err = LoadShaders(&Shaders); err != nil {
			return nil, err
		}
	}

	pixels := WhiteTexture()
	if opts.Texture != nil {
		pixels = ToRGBA(opts.Texture)
	}
	transfer, err := vkr.NewTransfer(device, queue)
	if err != nil {
		return nil, errors.Wrap(err, "create transfer")
	}
	r.texture, err = vkr.NewTexture(transfer, r.allocator, pixels)
	if err == nil {
		r.indices, err = vkr.NewDeviceLocalBuffer(transfer, r.allocator,
			IndexBytes(QuadIndices(r.batch.Cap())), vk.BufferUsageIndexBufferBit)
		if err != nil {
			err = errors.Wrap(err, "upload indices")
		}
	} else {
		err = errors.Wrap(err, "upload texture")
	}
	transfer.Release()
	if err != nil {
		return nil, err
	}

	var layoutBuilder vkr.DescriptorSetLayoutBuilder
	r.setLayout, err = layoutBuilder.
		AddBinding(ProjectionBinding, vk.DescriptorTypeUniformBuffer, vk.ShaderStageVertexBit).
		AddBinding(TextureBinding, vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFragmentBit).
		Build(device)
	if err != nil {
		return nil, err
	}

	var poolBuilder vkr.DescriptorPoolBuilder
	r.pool, err = poolBuilder.
		AddPoolSize(vk.DescriptorTypeUniformBuffer, core.MaxFramesInFlight).
		AddPoolSize(vk.DescriptorTypeCombinedImageSampler, core.MaxFramesInFlight).
		SetMaxSets(core.MaxFramesInFlight).
		Build(device)
	if err != nil {
		return nil, err
	}

	for i := range r.frames {
		if err := r.createFrame(&r.frames[i]); err != nil {
			return nil, errors.Wrapf(err, "frame %d resources", i)
		}
	}

	if r.layout, err = vkr.NewPipelineLayout(device, r.setLayout); err != nil {
		return nil, err
	}
	if err := r.createPipeline(pass); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) createFrame(f *frameResources) error {
	var err error
	if f.projection, err = vkr.NewBuffer(r.device, r.allocator, projectionSize, vk.BufferUsageUniformBufferBit, vkr.HostVisible); err != nil {
		return err
	}
	if f.vertices, err = vkr.NewBuffer(r.device, r.allocator, uint(MaxVertices*VertexSize), vk.BufferUsageVertexBufferBit, vkr.HostVisible); err != nil {
		return err
	}
	if f.set, err = r.pool.Allocate(r.setLayout); err != nil {
		return err
	}
	return f.set.Writer().
		WriteBuffer(ProjectionBinding, f.projection).
		WriteTexture(TextureBinding, r.texture).
		Flush()
}

func (r *Renderer) createPipeline(pass gfx.RenderPass) error {
	var v Vertex
	cfg := vkr.DefaultPipelineConfig()
	cfg.Shaders = r.shaders
	cfg.VertexBindings = []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    VertexSize,
		InputRate: vk.VertexInputRateVertex,
	}}
	cfg.VertexAttribute = []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(v.Colour))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(v.UV))},
	}

	pipeline, err := vkr.NewPipeline(r.device, r.cache, pass, r.layout, cfg)
	if err != nil {
		return err
	}
	if r.pipeline != nil {
		r.pipeline.Release()
	}
	r.pipeline = pipeline
	r.format = pass.Descriptor().ColorFormat()
	return nil
}

// Begin starts a new batch.
func (r *Renderer) Begin() {
	r.batch.Reset()
}

// DrawRectangle queues a rectangle in pixel coordinates, origin top left.
// Quads past the batch limit are dropped with a warning.
func (r *Renderer) DrawRectangle(rect image.Rectangle, colour mgl32.Vec3) {
	if err := r.batch.Rectangle(rect, colour); err != nil {
		log.WithField("quads", r.batch.Len()).Warn(err)
	}
}

// End uploads the batch vertices into the session's frame slot and records
// a single draw indexed by the shared quad index buffer.
func (r *Renderer) End(session *core.FrameSession) error {
	if session.FrameIndex < 0 || session.FrameIndex >= len(r.frames) {
		return errors.Errorf("frame index %d out of range", session.FrameIndex)
	}
	if r.batch.Len() == 0 {
		return nil
	}

	// A new render pass with the same format is compatible with the pipeline.
	if format := session.RenderPass.Descriptor().ColorFormat(); format != r.format {
		log.WithFields(log.Fields{
			"from": r.format,
			"to":   format,
		}).Debug("Rebuilding quad pipeline")
		if err := r.createPipeline(session.RenderPass); err != nil {
			return errors.Wrap(err, "rebuild pipeline")
		}
	}

	frame := &r.frames[session.FrameIndex]
	if err := frame.vertices.SetData(r.batch.VertexBytes()); err != nil {
		return errors.Wrap(err, "upload vertices")
	}

	cmd := session.CommandBuffer.Inner().(vk.CommandBuffer)
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, r.pipeline.Get())
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, r.layout.Get(), 0, 1,
		[]vk.DescriptorSet{frame.set.Get()}, 0, nil)
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{frame.vertices.Get()}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmd, r.indices.Get(), 0, vk.IndexTypeUint16)
	vk.CmdDrawIndexed(cmd, uint32(r.batch.IndexCount()), 1, 0, 0, 0)
	return nil
}

// SetResolution points the projection of every frame slot at a w by h
// pixel space with y growing downwards.
func (r *Renderer) SetResolution(w, h uint32) error {
	projection := Projection(w, h)
	data := unsafe.Slice((*byte)(unsafe.Pointer(&projection[0])), projectionSize)
	for i := range r.frames {
		if err := r.frames[i].projection.SetData(data); err != nil {
			return errors.Wrapf(err, "frame %d projection", i)
		}
	}
	return nil
}

// Projection is the orthographic projection of a w by h pixel space.
func Projection(w, h uint32) mgl32.Mat4 {
	return mgl32.Ortho(0, float32(w), 0, float32(h), -1, 1)
}

// Destroy releases every resource. The device must be idle.
func (r *Renderer) Destroy() {
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	if r.layout != nil {
		r.layout.Release()
		r.layout = nil
	}
	for i := range r.frames {
		r.frames[i].release()
		r.frames[i] = frameResources{}
	}
	if r.pool != nil {
		r.pool.Release()
		r.pool = nil
	}
	if r.setLayout != nil {
		r.setLayout.Release()
		r.setLayout = nil
	}
	if r.indices != nil {
		r.indices.Release()
		r.indices = nil
	}
	if r.texture != nil {
		r.texture.Release()
		r.texture = nil
	}
}
