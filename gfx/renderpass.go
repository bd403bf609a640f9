// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// ImageLayout is the layout of image memory.
type ImageLayout int32

// Image layouts.
const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutGeneral                ImageLayout = 1
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutShaderReadOnlyOptimal  ImageLayout = 5
	ImageLayoutTransferDstOptimal     ImageLayout = 7
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

// LoadOp is what happens to attachment contents when a render pass begins.
type LoadOp int32

// Load operations.
const (
	LoadOpLoad     LoadOp = 0
	LoadOpClear    LoadOp = 1
	LoadOpDontCare LoadOp = 2
)

// StoreOp is what happens to attachment contents when a render pass ends.
type StoreOp int32

// Store operations.
const (
	StoreOpStore    StoreOp = 0
	StoreOpDontCare StoreOp = 1
)

// PipelineStageFlags select pipeline stages.
type PipelineStageFlags uint32

// Pipeline stages.
const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x1
	PipelineStageFragmentShader        PipelineStageFlags = 0x80
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x400
	PipelineStageTransfer              PipelineStageFlags = 0x1000
)

// AccessFlags select memory access types.
type AccessFlags uint32

// Access types.
const (
	AccessShaderRead           AccessFlags = 0x20
	AccessColorAttachmentWrite AccessFlags = 0x100
	AccessTransferWrite        AccessFlags = 0x1000
)

// SubpassExternal refers to operations outside the render pass.
const SubpassExternal = ^uint32(0)

// AttachmentDescription describes one render pass attachment.
type AttachmentDescription struct {
	Format         Format
	Samples        uint32
	LoadOp         LoadOp
	StoreOp        StoreOp
	StencilLoadOp  LoadOp
	StencilStoreOp StoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

// AttachmentReference points a subpass at an attachment.
type AttachmentReference struct {
	Attachment uint32
	Layout     ImageLayout
}

// SubpassDescription describes one graphics subpass.
type SubpassDescription struct {
	ColorAttachments []AttachmentReference
}

// SubpassDependency orders two subpasses.
type SubpassDependency struct {
	SrcSubpass    uint32
	DstSubpass    uint32
	SrcStageMask  PipelineStageFlags
	DstStageMask  PipelineStageFlags
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

// RenderPassDescriptor is everything needed to create a render pass.
type RenderPassDescriptor struct {
	Attachments  []AttachmentDescription
	Subpasses    []SubpassDescription
	Dependencies []SubpassDependency
}

// ColorFormat returns the format of the first attachment.
func (d RenderPassDescriptor) ColorFormat() Format {
	if len(d.Attachments) == 0 {
		return FormatUndefined
	}
	return d.Attachments[0].Format
}
