// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSetLayoutBuilder collects bindings for a descriptor set layout.
type DescriptorSetLayoutBuilder struct {
	bindings []vk.DescriptorSetLayoutBinding
}

// AddBinding adds a single descriptor binding visible to stages.
func (b *DescriptorSetLayoutBuilder) AddBinding(binding uint32, kind vk.DescriptorType, stages vk.ShaderStageFlagBits) *DescriptorSetLayoutBuilder {
	for _, existing := range b.bindings {
		if existing.Binding == binding {
			panic(errors.Errorf("descriptor binding %d added twice", binding))
		}
	}
	b.bindings = append(b.bindings, vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  kind,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(stages),
	})
	return b
}

// Bindings returns the bindings added so far.
func (b *DescriptorSetLayoutBuilder) Bindings() []vk.DescriptorSetLayoutBinding {
	return b.bindings
}

// Build creates the layout on dev.
func (b *DescriptorSetLayoutBuilder) Build(dev *Device) (*DescriptorSetLayout, error) {
	dslci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(b.bindings)),
		PBindings:    b.bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := NewError(vk.CreateDescriptorSetLayout(dev.device, &dslci, nil, &layout)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateDescriptorSetLayout()")
	}
	bindings := make(map[uint32]vk.DescriptorType, len(b.bindings))
	for _, binding := range b.bindings {
		bindings[binding.Binding] = binding.DescriptorType
	}
	return &DescriptorSetLayout{device: dev.device, layout: layout, bindings: bindings}, nil
}

// DescriptorSetLayout is a created descriptor set layout.
type DescriptorSetLayout struct {
	device   vk.Device
	layout   vk.DescriptorSetLayout
	bindings map[uint32]vk.DescriptorType
}

// Get returns the vulkan handle.
func (l *DescriptorSetLayout) Get() vk.DescriptorSetLayout {
	return l.layout
}

// Release destroys the layout.
func (l *DescriptorSetLayout) Release() {
	vk.DestroyDescriptorSetLayout(l.device, l.layout, nil)
}

// DescriptorPoolBuilder sizes a descriptor pool.
type DescriptorPoolBuilder struct {
	sizes   []vk.DescriptorPoolSize
	maxSets uint32
}

// AddPoolSize reserves count descriptors of kind.
func (b *DescriptorPoolBuilder) AddPoolSize(kind vk.DescriptorType, count uint32) *DescriptorPoolBuilder {
	b.sizes = append(b.sizes, vk.DescriptorPoolSize{
		Type:            kind,
		DescriptorCount: count,
	})
	return b
}

// SetMaxSets limits how many sets the pool can hand out.
func (b *DescriptorPoolBuilder) SetMaxSets(count uint32) *DescriptorPoolBuilder {
	b.maxSets = count
	return b
}

// Build creates the pool on dev.
func (b *DescriptorPoolBuilder) Build(dev *Device) (*DescriptorPool, error) {
	if b.maxSets == 0 {
		return nil, errors.New("descriptor pool needs at least one set")
	}
	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       b.maxSets,
		PoolSizeCount: uint32(len(b.sizes)),
		PPoolSizes:    b.sizes,
	}
	var pool vk.DescriptorPool
	if err := NewError(vk.CreateDescriptorPool(dev.device, &dpci, nil, &pool)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateDescriptorPool()")
	}
	return &DescriptorPool{device: dev.device, pool: pool}, nil
}

// DescriptorPool hands out descriptor sets.
type DescriptorPool struct {
	device vk.Device
	pool   vk.DescriptorPool
}

// Allocate returns a new set with the given layout.
func (p *DescriptorPool) Allocate(layout *DescriptorSetLayout) (*DescriptorSet, error) {
	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.layout},
	}
	var set vk.DescriptorSet
	if err := NewError(vk.AllocateDescriptorSets(p.device, &dsai, &set)); err != nil {
		return nil, errors.Wrap(err, "vk.AllocateDescriptorSets()")
	}
	return &DescriptorSet{device: p.device, set: set, layout: layout}, nil
}

// Release destroys the pool and every set allocated from it.
func (p *DescriptorPool) Release() {
	vk.DestroyDescriptorPool(p.device, p.pool, nil)
}

// DescriptorSet is a set allocated from a DescriptorPool.
type DescriptorSet struct {
	device vk.Device
	set    vk.DescriptorSet
	layout *DescriptorSetLayout
}

// Get returns the vulkan handle.
func (s *DescriptorSet) Get() vk.DescriptorSet {
	return s.set
}

// Writer starts a batch of updates to the set.
func (s *DescriptorSet) Writer() *DescriptorWriter {
	return &DescriptorWriter{set: s}
}

// DescriptorWriter batches descriptor writes against a layout.
type DescriptorWriter struct {
	set    *DescriptorSet
	writes []vk.WriteDescriptorSet
	err    error
}

func (w *DescriptorWriter) check(binding uint32, kind vk.DescriptorType) bool {
	if w.err != nil {
		return false
	}
	want, ok := w.set.layout.bindings[binding]
	if !ok {
		w.err = errors.Errorf("layout has no binding %d", binding)
		return false
	}
	if want != kind {
		w.err = errors.Errorf("binding %d holds descriptor type %d, not %d", binding, want, kind)
		return false
	}
	return true
}

// WriteBuffer points a uniform buffer binding at the whole of buffer.
func (w *DescriptorWriter) WriteBuffer(binding uint32, buffer *Buffer) *DescriptorWriter {
	if !w.check(binding, vk.DescriptorTypeUniformBuffer) {
		return w
	}
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          w.set.set,
		DstBinding:      binding,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer.Get(),
			Range:  vk.DeviceSize(buffer.Size()),
		}},
	})
	return w
}

// WriteTexture points a combined image sampler binding at texture.
func (w *DescriptorWriter) WriteTexture(binding uint32, texture *Texture) *DescriptorWriter {
	if !w.check(binding, vk.DescriptorTypeCombinedImageSampler) {
		return w
	}
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          w.set.set,
		DstBinding:      binding,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		PImageInfo:      []vk.DescriptorImageInfo{texture.ImageInfo()},
	})
	return w
}

// Flush applies the batched writes.
func (w *DescriptorWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	if len(w.writes) > 0 {
		vk.UpdateDescriptorSets(w.set.device, uint32(len(w.writes)), w.writes, 0, nil)
	}
	w.writes = nil
	return nil
}
