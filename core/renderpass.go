// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "github.com/devblok/frameloop/gfx"

// SimplePass describes the render pass presentation needs: a single color
// attachment cleared on load and left ready for presentation, one subpass
// writing it, and a dependency that keeps the write behind the previous
// use of the image.
func SimplePass(format gfx.Format) gfx.RenderPassDescriptor {
	return gfx.RenderPassDescriptor{
		Attachments: []gfx.AttachmentDescription{{
			Format:         format,
			Samples:        1,
			LoadOp:         gfx.LoadOpClear,
			StoreOp:        gfx.StoreOpStore,
			StencilLoadOp:  gfx.LoadOpDontCare,
			StencilStoreOp: gfx.StoreOpDontCare,
			InitialLayout:  gfx.ImageLayoutUndefined,
			FinalLayout:    gfx.ImageLayoutPresentSrc,
		}},
		Subpasses: []gfx.SubpassDescription{{
			ColorAttachments: []gfx.AttachmentReference{{
				Attachment: 0,
				Layout:     gfx.ImageLayoutColorAttachmentOptimal,
			}},
		}},
		Dependencies: []gfx.SubpassDependency{{
			SrcSubpass:    gfx.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  gfx.PipelineStageColorAttachmentOutput,
			DstStageMask:  gfx.PipelineStageColorAttachmentOutput,
			SrcAccessMask: 0,
			DstAccessMask: gfx.AccessColorAttachmentWrite,
		}},
	}
}
