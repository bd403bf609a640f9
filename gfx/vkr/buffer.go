// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Memory properties buffers are commonly allocated with.
const (
	HostVisible = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	DeviceLocal = vk.MemoryPropertyDeviceLocalBit
)

// NewBuffer creates, configures, allocates and binds a new buffer.
func NewBuffer(dev *Device, ma *MemoryAllocator, size uint, usage vk.BufferUsageFlagBits, prop vk.MemoryPropertyFlagBits) (*Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := NewError(vk.CreateBuffer(dev.device, &createInfo, nil, &buffer)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateBuffer()")
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev.device, buffer, &req)
	req.Deref()

	memory, err := ma.Malloc(req, prop)
	if err != nil {
		vk.DestroyBuffer(dev.device, buffer, nil)
		return nil, err
	}
	if err := NewError(vk.BindBufferMemory(dev.device, buffer, memory.Get(), 0)); err != nil {
		vk.DestroyBuffer(dev.device, buffer, nil)
		memory.Release()
		return nil, errors.Wrap(err, "vk.BindBufferMemory()")
	}

	return &Buffer{
		device: dev.device,
		buffer: buffer,
		size:   size,
		memory: memory,
	}, nil
}

// NewDeviceLocalBuffer creates a device local buffer holding data, copied
// through a host visible staging buffer.
func NewDeviceLocalBuffer(t *Transfer, ma *MemoryAllocator, data []byte, usage vk.BufferUsageFlagBits) (*Buffer, error) {
	size := uint(len(data))
	staging, err := NewBuffer(t.device, ma, size, vk.BufferUsageTransferSrcBit, HostVisible)
	if err != nil {
		return nil, errors.Wrap(err, "staging buffer")
	}
	defer staging.Release()
	if err := staging.SetData(data); err != nil {
		return nil, err
	}

	buffer, err := NewBuffer(t.device, ma, size, usage|vk.BufferUsageTransferDstBit, DeviceLocal)
	if err != nil {
		return nil, err
	}
	if err := CopyBuffer(t, staging, buffer, size); err != nil {
		buffer.Release()
		return nil, err
	}
	return buffer, nil
}

// CopyBuffer copies size bytes from src to dst and waits for completion.
func CopyBuffer(t *Transfer, src, dst *Buffer, size uint) error {
	return t.Run(func(cmd vk.CommandBuffer) {
		vk.CmdCopyBuffer(cmd, src.buffer, dst.buffer, 1, []vk.BufferCopy{{
			Size: vk.DeviceSize(size),
		}})
	})
}

// Buffer implements a generic vulkan buffer.
type Buffer struct {
	device vk.Device
	buffer vk.Buffer
	size   uint

	memory Memory
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint {
	return b.size
}

// Mem returns the Memory that the buffer is based on.
func (b *Buffer) Mem() *Memory {
	return &b.memory
}

// Get returns the vulkan Buffer handle.
func (b *Buffer) Get() vk.Buffer {
	return b.buffer
}

// SetData copies data to the start of a host visible buffer. The memory
// stays mapped until the buffer is released.
func (b *Buffer) SetData(data []byte) error {
	if uint(len(data)) > b.size {
		return errors.Errorf("%d bytes do not fit a buffer of %d", len(data), b.size)
	}
	if len(data) == 0 {
		return nil
	}
	ptr, err := b.memory.Map()
	if err != nil {
		return err
	}
	vk.Memcopy(ptr, data)
	return nil
}

// Release destroys the buffer and memory asociated with it.
func (b *Buffer) Release() {
	vk.DestroyBuffer(b.device, b.buffer, nil)
	b.memory.Release()
}
