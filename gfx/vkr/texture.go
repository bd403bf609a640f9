// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"image"

	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// TextureFormat is the format every texture is uploaded in.
const TextureFormat = vk.FormatR8g8b8a8Srgb

// layoutTransition holds the barrier masks for moving an image between layouts.
type layoutTransition struct {
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
}

// transitionFor returns the barrier masks for an upload layout change.
func transitionFor(from, to vk.ImageLayout) (layoutTransition, error) {
	switch {
	case from == vk.ImageLayoutUndefined && to == vk.ImageLayoutTransferDstOptimal:
		return layoutTransition{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil
	case from == vk.ImageLayoutTransferDstOptimal && to == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutTransition{
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	}
	return layoutTransition{}, errors.Wrapf(gfx.ErrUnsupportedLayoutTransition, "%d to %d", from, to)
}

func transitionImageLayout(cmd vk.CommandBuffer, img vk.Image, t layoutTransition, from, to vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           from,
		NewLayout:           to,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
		SrcAccessMask: t.srcAccess,
		DstAccessMask: t.dstAccess,
	}
	vk.CmdPipelineBarrier(cmd, t.srcStage, t.dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// NewTexture uploads pixels into a sampled, device local image.
func NewTexture(t *Transfer, ma *MemoryAllocator, pixels *image.RGBA) (*Texture, error) {
	dev := t.device
	bounds := pixels.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())
	if width == 0 || height == 0 {
		return nil, errors.New("texture has an empty extent")
	}

	toTransfer, err := transitionFor(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	if err != nil {
		return nil, err
	}
	toShader, err := transitionFor(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		return nil, err
	}

	data := pixels.Pix
	if pixels.Stride != int(width)*4 {
		data = make([]byte, 0, width*height*4)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := pixels.PixOffset(bounds.Min.X, y)
			data = append(data, pixels.Pix[off:off+int(width)*4]...)
		}
	}
	staging, err := NewBuffer(dev, ma, uint(len(data)), vk.BufferUsageTransferSrcBit, HostVisible)
	if err != nil {
		return nil, errors.Wrap(err, "staging buffer")
	}
	defer staging.Release()
	if err := staging.SetData(data); err != nil {
		return nil, err
	}

	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        TextureFormat,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}
	var img vk.Image
	if err := NewError(vk.CreateImage(dev.device, &ici, nil, &img)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateImage()")
	}
	tex := &Texture{device: dev.device, image: img, width: width, height: height}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev.device, img, &req)
	req.Deref()
	if tex.memory, err = ma.Malloc(req, DeviceLocal); err != nil {
		vk.DestroyImage(dev.device, img, nil)
		return nil, err
	}
	if err := NewError(vk.BindImageMemory(dev.device, img, tex.memory.Get(), 0)); err != nil {
		tex.Release()
		return nil, errors.Wrap(err, "vk.BindImageMemory()")
	}

	err = t.Run(func(cmd vk.CommandBuffer) {
		transitionImageLayout(cmd, img, toTransfer, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		vk.CmdCopyBufferToImage(cmd, staging.Get(), img, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LayerCount: 1,
			},
			ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
		}})
		transitionImageLayout(cmd, img, toShader, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		tex.Release()
		return nil, err
	}

	if tex.view, err = dev.newImageView(img, TextureFormat); err != nil {
		tex.Release()
		return nil, err
	}

	props := dev.physical.Properties()
	sci := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           props.MaxSamplerAnisotropy,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}
	if props.MaxSamplerAnisotropy < 1 {
		sci.AnisotropyEnable = vk.False
		sci.MaxAnisotropy = 1
	}
	var sampler vk.Sampler
	if err := NewError(vk.CreateSampler(dev.device, &sci, nil, &sampler)); err != nil {
		tex.Release()
		return nil, errors.Wrap(err, "vk.CreateSampler()")
	}
	tex.sampler = &sampler
	return tex, nil
}

// Texture is a sampled image with its view and sampler.
type Texture struct {
	device  vk.Device
	image   vk.Image
	memory  Memory
	view    *ImageView
	sampler *vk.Sampler

	width, height uint32
}

// Size returns the texture dimensions in pixels.
func (t *Texture) Size() (uint32, uint32) {
	return t.width, t.height
}

// ImageInfo describes the texture for a combined image sampler write.
func (t *Texture) ImageInfo() vk.DescriptorImageInfo {
	return vk.DescriptorImageInfo{
		Sampler:     *t.sampler,
		ImageView:   t.view.view,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
}

// Release destroys everything the texture owns.
func (t *Texture) Release() {
	if t.sampler != nil {
		vk.DestroySampler(t.device, *t.sampler, nil)
	}
	if t.view != nil {
		t.view.Release()
	}
	vk.DestroyImage(t.device, t.image, nil)
	if t.memory.memory != vk.NullDeviceMemory {
		t.memory.Release()
	}
}
