// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ShaderSource is a compiled SPIR-V module for one stage.
type ShaderSource struct {
	Stage vk.ShaderStageFlagBits
	Code  []byte
}

// PipelineConfig holds the fixed function state of a graphics pipeline.
type PipelineConfig struct {
	Shaders         []ShaderSource
	VertexBindings  []vk.VertexInputBindingDescription
	VertexAttribute []vk.VertexInputAttributeDescription

	InputAssembly vk.PipelineInputAssemblyStateCreateInfo
	Rasterization vk.PipelineRasterizationStateCreateInfo
	Multisample   vk.PipelineMultisampleStateCreateInfo
	ColorBlend    vk.PipelineColorBlendAttachmentState
	DynamicStates []vk.DynamicState
}

// DefaultPipelineConfig returns state for alpha blended, unculled triangle
// lists with a dynamic viewport and scissor.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		InputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		Rasterization: vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeNone),
			FrontFace:   vk.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		Multisample: vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		ColorBlend: vk.PipelineColorBlendAttachmentState{
			BlendEnable:         vk.True,
			SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
			DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
			ColorBlendOp:        vk.BlendOpAdd,
			SrcAlphaBlendFactor: vk.BlendFactorOne,
			DstAlphaBlendFactor: vk.BlendFactorZero,
			AlphaBlendOp:        vk.BlendOpAdd,
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
		},
		DynamicStates: []vk.DynamicState{
			vk.DynamicStateViewport,
			vk.DynamicStateScissor,
		},
	}
}

// NewPipelineLayout creates a layout over the given descriptor set layouts.
func NewPipelineLayout(dev *Device, sets ...*DescriptorSetLayout) (*PipelineLayout, error) {
	layouts := make([]vk.DescriptorSetLayout, 0, len(sets))
	for _, s := range sets {
		layouts = append(layouts, s.layout)
	}
	plci := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(layouts)),
		PSetLayouts:    layouts,
	}
	var layout vk.PipelineLayout
	if err := NewError(vk.CreatePipelineLayout(dev.device, &plci, nil, &layout)); err != nil {
		return nil, errors.Wrap(err, "vk.CreatePipelineLayout()")
	}
	return &PipelineLayout{device: dev.device, layout: layout}, nil
}

// PipelineLayout is a vulkan pipeline layout.
type PipelineLayout struct {
	device vk.Device
	layout vk.PipelineLayout
}

// Get returns the vulkan handle.
func (l *PipelineLayout) Get() vk.PipelineLayout {
	return l.layout
}

// Release destroys the layout.
func (l *PipelineLayout) Release() {
	vk.DestroyPipelineLayout(l.device, l.layout, nil)
}

func createShaderModule(dev vk.Device, code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return vk.NullShaderModule, errors.Errorf("shader code of %d bytes is not SPIR-V", len(code))
	}
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    SliceUint32(code),
	}
	var module vk.ShaderModule
	if err := NewError(vk.CreateShaderModule(dev, &smci, nil, &module)); err != nil {
		return vk.NullShaderModule, errors.Wrap(err, "vk.CreateShaderModule()")
	}
	return module, nil
}

// NewPipeline builds a graphics pipeline for pass. Shader modules only live
// for the duration of the call.
func NewPipeline(dev *Device, cache *PipelineCache, pass gfx.RenderPass, layout *PipelineLayout, cfg PipelineConfig) (*Pipeline, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(cfg.Shaders))
	modules := make([]vk.ShaderModule, 0, len(cfg.Shaders))
	defer func() {
		for _, m := range modules {
			vk.DestroyShaderModule(dev.device, m, nil)
		}
	}()
	for _, s := range cfg.Shaders {
		module, err := createShaderModule(dev.device, s.Code)
		if err != nil {
			return nil, errors.Wrapf(err, "stage %d", s.Stage)
		}
		modules = append(modules, module)
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  s.Stage,
			Module: module,
			PName:  "main\x00",
		})
	}

	inputAssembly := cfg.InputAssembly
	rasterization := cfg.Rasterization
	multisample := cfg.Multisample
	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(cfg.VertexBindings)),
			PVertexBindingDescriptions:      cfg.VertexBindings,
			VertexAttributeDescriptionCount: uint32(len(cfg.VertexAttribute)),
			PVertexAttributeDescriptions:    cfg.VertexAttribute,
		},
		PInputAssemblyState: &inputAssembly,
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &rasterization,
		PMultisampleState:   &multisample,
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{cfg.ColorBlend},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(cfg.DynamicStates)),
			PDynamicStates:    cfg.DynamicStates,
		},
		Layout:     layout.layout,
		RenderPass: pass.Inner().(vk.RenderPass),
	}}

	var handle vk.PipelineCache
	if cache != nil {
		handle = cache.cache
	}
	pipelines := make([]vk.Pipeline, len(gpci))
	if err := NewError(vk.CreateGraphicsPipelines(dev.device, handle, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateGraphicsPipelines()")
	}
	return &Pipeline{device: dev.device, pipeline: pipelines[0]}, nil
}

// Pipeline is a graphics pipeline.
type Pipeline struct {
	device   vk.Device
	pipeline vk.Pipeline
}

// Get returns the vulkan handle.
func (p *Pipeline) Get() vk.Pipeline {
	return p.pipeline
}

// Release destroys the pipeline.
func (p *Pipeline) Release() {
	vk.DestroyPipeline(p.device, p.pipeline, nil)
}

// NewPipelineCache creates a pipeline cache seeded with initial, which may be
// empty. Drivers ignore seed data from a different device.
func NewPipelineCache(dev *Device, initial []byte) (*PipelineCache, error) {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	if len(initial) > 0 {
		pcci.InitialDataSize = uint(len(initial))
		pcci.PInitialData = unsafe.Pointer(&initial[0])
	}
	var cache vk.PipelineCache
	if err := NewError(vk.CreatePipelineCache(dev.device, &pcci, nil, &cache)); err != nil {
		return nil, errors.Wrap(err, "vk.CreatePipelineCache()")
	}
	return &PipelineCache{device: dev.device, cache: cache}, nil
}

// PipelineCache is a vulkan pipeline cache.
type PipelineCache struct {
	device vk.Device
	cache  vk.PipelineCache
}

// Data returns the serialized cache contents.
func (c *PipelineCache) Data() ([]byte, error) {
	var size uint
	if err := NewError(vk.GetPipelineCacheData(c.device, c.cache, &size, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPipelineCacheData(size)")
	}
	if size == 0 {
		return nil, nil
	}
	data := make([]byte, size)
	if err := NewError(vk.GetPipelineCacheData(c.device, c.cache, &size, unsafe.Pointer(&data[0]))); err != nil {
		return nil, errors.Wrap(err, "vk.GetPipelineCacheData()")
	}
	return data[:size], nil
}

// Release destroys the cache.
func (c *PipelineCache) Release() {
	vk.DestroyPipelineCache(c.device, c.cache, nil)
}
