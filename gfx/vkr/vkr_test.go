// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"testing"

	"github.com/devblok/frameloop/core"
	"github.com/devblok/frameloop/gfx"
	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestNewError(t *testing.T) {
	c := qt.New(t)
	c.Assert(NewError(vk.Success), qt.IsNil)
	c.Assert(NewError(vk.Suboptimal), qt.IsNil)
	c.Assert(IsError(vk.Suboptimal), qt.IsFalse)

	err := NewError(vk.ErrorOutOfDeviceMemory)
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(IsError(vk.ErrorOutOfDeviceMemory), qt.IsTrue)
	c.Assert(err.(*Error).Result, qt.Equals, vk.ErrorOutOfDeviceMemory)
	c.Assert(err.(*Error).Caller, qt.Matches, `.*TestNewError`)
}

func TestPresentResult(t *testing.T) {
	tests := []struct {
		ret    vk.Result
		result gfx.Result
		err    bool
	}{
		{vk.Success, gfx.ResultOk, false},
		{vk.Suboptimal, gfx.ResultSuboptimal, false},
		{vk.ErrorOutOfDate, gfx.ResultStale, false},
		{vk.ErrorDeviceLost, gfx.ResultOk, true},
		{vk.Timeout, gfx.ResultOk, true},
	}
	for _, test := range tests {
		c := qt.New(t)
		result, err := presentResult(test.ret)
		c.Assert(result, qt.Equals, test.result)
		c.Assert(err != nil, qt.Equals, test.err, qt.Commentf("result %d", test.ret))
	}
}

func TestSliceUint32(t *testing.T) {
	c := qt.New(t)
	c.Assert(SliceUint32([]byte{1, 2}), qt.IsNil)

	words := SliceUint32([]byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0, 0xff})
	c.Assert(words, qt.HasLen, 2)
	c.Assert(words[0], qt.Equals, uint32(0x07230203))
	c.Assert(words[1], qt.Equals, uint32(0x00010000))
}

func TestSafeStrings(t *testing.T) {
	c := qt.New(t)
	c.Assert(safeStrings([]string{"a", "b\x00"}), qt.DeepEquals, []string{"a\x00", "b\x00"})
}

func TestFindMemoryType(t *testing.T) {
	c := qt.New(t)
	types := []vk.MemoryPropertyFlags{
		vk.MemoryPropertyFlags(DeviceLocal),
		vk.MemoryPropertyFlags(HostVisible),
		vk.MemoryPropertyFlags(DeviceLocal | HostVisible),
	}

	idx, err := findMemoryType(types, 0x7, vk.MemoryPropertyFlags(HostVisible))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(1))

	// the filter excludes type 1
	idx, err = findMemoryType(types, 0x5, vk.MemoryPropertyFlags(HostVisible))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(2))

	_, err = findMemoryType(types, 0x1, vk.MemoryPropertyFlags(HostVisible))
	c.Assert(errors.Cause(err), qt.Equals, gfx.ErrNoSuitableMemoryType)

	_, err = findMemoryType(nil, 0xffffffff, 0)
	c.Assert(errors.Cause(err), qt.Equals, gfx.ErrNoSuitableMemoryType)
}

func TestTransitionFor(t *testing.T) {
	c := qt.New(t)

	upload, err := transitionFor(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	c.Assert(err, qt.IsNil)
	c.Assert(upload.srcAccess, qt.Equals, vk.AccessFlags(0))
	c.Assert(upload.dstAccess, qt.Equals, vk.AccessFlags(vk.AccessTransferWriteBit))
	c.Assert(upload.srcStage, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit))
	c.Assert(upload.dstStage, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageTransferBit))

	sample, err := transitionFor(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	c.Assert(err, qt.IsNil)
	c.Assert(sample.srcAccess, qt.Equals, vk.AccessFlags(vk.AccessTransferWriteBit))
	c.Assert(sample.dstAccess, qt.Equals, vk.AccessFlags(vk.AccessShaderReadBit))
	c.Assert(sample.dstStage, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))

	_, err = transitionFor(vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal)
	c.Assert(errors.Cause(err), qt.Equals, gfx.ErrUnsupportedLayoutTransition)
}

func TestRenderPassCreateInfo(t *testing.T) {
	c := qt.New(t)
	info := renderPassCreateInfo(core.SimplePass(gfx.FormatB8G8R8A8Srgb))

	c.Assert(info.AttachmentCount, qt.Equals, uint32(1))
	a := info.PAttachments[0]
	c.Assert(a.Format, qt.Equals, vk.FormatB8g8r8a8Srgb)
	c.Assert(a.LoadOp, qt.Equals, vk.AttachmentLoadOpClear)
	c.Assert(a.StoreOp, qt.Equals, vk.AttachmentStoreOpStore)
	c.Assert(a.InitialLayout, qt.Equals, vk.ImageLayoutUndefined)
	c.Assert(a.FinalLayout, qt.Equals, vk.ImageLayoutPresentSrc)

	c.Assert(info.SubpassCount, qt.Equals, uint32(1))
	c.Assert(info.PSubpasses[0].PColorAttachments, qt.DeepEquals, []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}})

	c.Assert(info.DependencyCount, qt.Equals, uint32(1))
	d := info.PDependencies[0]
	c.Assert(d.SrcSubpass, qt.Equals, uint32(vk.SubpassExternal))
	c.Assert(d.DstSubpass, qt.Equals, uint32(0))
	c.Assert(d.DstAccessMask, qt.Equals, vk.AccessFlags(vk.AccessColorAttachmentWriteBit))
	c.Assert(d.DstStageMask, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit))
}

func TestDescriptorSetLayoutBuilder(t *testing.T) {
	c := qt.New(t)
	var b DescriptorSetLayoutBuilder
	b.AddBinding(0, vk.DescriptorTypeUniformBuffer, vk.ShaderStageVertexBit).
		AddBinding(1, vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFragmentBit)

	bindings := b.Bindings()
	c.Assert(bindings, qt.HasLen, 2)
	c.Assert(bindings[1].DescriptorType, qt.Equals, vk.DescriptorTypeCombinedImageSampler)
	c.Assert(bindings[1].StageFlags, qt.Equals, vk.ShaderStageFlags(vk.ShaderStageFragmentBit))
	c.Assert(func() {
		b.AddBinding(1, vk.DescriptorTypeUniformBuffer, vk.ShaderStageVertexBit)
	}, qt.PanicMatches, "descriptor binding 1 added twice")
}

func TestDescriptorWriterChecksLayout(t *testing.T) {
	c := qt.New(t)
	set := &DescriptorSet{layout: &DescriptorSetLayout{
		bindings: map[uint32]vk.DescriptorType{0: vk.DescriptorTypeUniformBuffer},
	}}

	err := set.Writer().WriteTexture(0, &Texture{}).Flush()
	c.Assert(err, qt.ErrorMatches, "binding 0 holds descriptor type .*")

	err = set.Writer().WriteBuffer(3, &Buffer{}).Flush()
	c.Assert(err, qt.ErrorMatches, "layout has no binding 3")
}

func TestDescriptorPoolNeedsSets(t *testing.T) {
	c := qt.New(t)
	var b DescriptorPoolBuilder
	_, err := b.AddPoolSize(vk.DescriptorTypeUniformBuffer, 3).Build(nil)
	c.Assert(err, qt.ErrorMatches, "descriptor pool needs at least one set")
}

func TestDefaultPipelineConfig(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultPipelineConfig()
	c.Assert(cfg.InputAssembly.Topology, qt.Equals, vk.PrimitiveTopologyTriangleList)
	c.Assert(cfg.Rasterization.CullMode, qt.Equals, vk.CullModeFlags(vk.CullModeNone))
	c.Assert(cfg.Rasterization.FrontFace, qt.Equals, vk.FrontFaceClockwise)
	c.Assert(cfg.Multisample.RasterizationSamples, qt.Equals, vk.SampleCount1Bit)
	c.Assert(cfg.ColorBlend.BlendEnable, qt.Equals, vk.Bool32(vk.True))
	c.Assert(cfg.DynamicStates, qt.DeepEquals, []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor})
}

func TestCreateShaderModuleRejectsGarbage(t *testing.T) {
	c := qt.New(t)
	_, err := createShaderModule(nil, []byte{1, 2, 3})
	c.Assert(err, qt.ErrorMatches, "shader code of 3 bytes is not SPIR-V")
}
