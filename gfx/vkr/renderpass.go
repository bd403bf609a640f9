// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/frameloop/gfx"
	vk "github.com/vulkan-go/vulkan"
)

// RenderPass is a vulkan render pass.
type RenderPass struct {
	device vk.Device
	pass   vk.RenderPass
	desc   gfx.RenderPassDescriptor
}

// Descriptor implements interface
func (r *RenderPass) Descriptor() gfx.RenderPassDescriptor {
	return r.desc
}

// Inner implements interface
func (r *RenderPass) Inner() interface{} {
	return r.pass
}

// Release implements interface
func (r *RenderPass) Release() {
	vk.DestroyRenderPass(r.device, r.pass, nil)
}

func renderPassCreateInfo(desc gfx.RenderPassDescriptor) vk.RenderPassCreateInfo {
	attachments := make([]vk.AttachmentDescription, 0, len(desc.Attachments))
	for _, a := range desc.Attachments {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vk.Format(a.Format),
			Samples:        vk.SampleCountFlagBits(a.Samples),
			LoadOp:         vk.AttachmentLoadOp(a.LoadOp),
			StoreOp:        vk.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  vk.AttachmentLoadOp(a.StencilLoadOp),
			StencilStoreOp: vk.AttachmentStoreOp(a.StencilStoreOp),
			InitialLayout:  vk.ImageLayout(a.InitialLayout),
			FinalLayout:    vk.ImageLayout(a.FinalLayout),
		})
	}

	subpasses := make([]vk.SubpassDescription, 0, len(desc.Subpasses))
	for _, s := range desc.Subpasses {
		refs := make([]vk.AttachmentReference, 0, len(s.ColorAttachments))
		for _, r := range s.ColorAttachments {
			refs = append(refs, vk.AttachmentReference{
				Attachment: r.Attachment,
				Layout:     vk.ImageLayout(r.Layout),
			})
		}
		subpasses = append(subpasses, vk.SubpassDescription{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(refs)),
			PColorAttachments:    refs,
		})
	}

	dependencies := make([]vk.SubpassDependency, 0, len(desc.Dependencies))
	for _, d := range desc.Dependencies {
		dependencies = append(dependencies, vk.SubpassDependency{
			SrcSubpass:    d.SrcSubpass,
			DstSubpass:    d.DstSubpass,
			SrcStageMask:  vk.PipelineStageFlags(d.SrcStageMask),
			DstStageMask:  vk.PipelineStageFlags(d.DstStageMask),
			SrcAccessMask: vk.AccessFlags(d.SrcAccessMask),
			DstAccessMask: vk.AccessFlags(d.DstAccessMask),
		})
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}
}
