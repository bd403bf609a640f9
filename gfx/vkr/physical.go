// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func newPhysicalDevice(handle vk.PhysicalDevice) *PhysicalDevice {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(handle, &props)
	props.Deref()
	props.Limits.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(handle, &features)
	features.Deref()

	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(handle, &memProperties)
	memProperties.Deref()

	return &PhysicalDevice{
		handle:        handle,
		props:         props,
		features:      features,
		memProperties: memProperties,
	}
}

// PhysicalDevice is a GPU reported by the instance.
type PhysicalDevice struct {
	handle        vk.PhysicalDevice
	props         vk.PhysicalDeviceProperties
	features      vk.PhysicalDeviceFeatures
	memProperties vk.PhysicalDeviceMemoryProperties
}

// Properties implements interface
func (p *PhysicalDevice) Properties() gfx.DeviceProperties {
	return gfx.DeviceProperties{
		Name:                 vk.ToString(p.props.DeviceName[:]),
		VendorID:             p.props.VendorID,
		DeviceID:             p.props.DeviceID,
		DriverVersion:        p.props.DriverVersion,
		Type:                 gfx.DeviceType(p.props.DeviceType),
		MaxSamplerAnisotropy: p.props.Limits.MaxSamplerAnisotropy,
	}
}

// QueueFamilies implements interface
func (p *PhysicalDevice) QueueFamilies() []gfx.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.handle, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.handle, &count, props)

	families := make([]gfx.QueueFamilyProperties, 0, count)
	for _, f := range props {
		f.Deref()
		families = append(families, gfx.QueueFamilyProperties{
			Flags: gfx.QueueFlags(f.QueueFlags),
			Count: f.QueueCount,
		})
	}
	return families
}

// SurfaceSupport implements interface
func (p *PhysicalDevice) SurfaceSupport(family uint32, surface gfx.Surface) (bool, error) {
	var supported vk.Bool32
	if err := NewError(vk.GetPhysicalDeviceSurfaceSupport(p.handle, family, surfaceHandle(surface), &supported)); err != nil {
		return false, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceSupport()")
	}
	return supported.B(), nil
}

// Extensions implements interface
func (p *PhysicalDevice) Extensions() ([]string, error) {
	var count uint32
	if err := NewError(vk.EnumerateDeviceExtensionProperties(p.handle, "", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceExtensionProperties()")
	}
	props := make([]vk.ExtensionProperties, count)
	if err := NewError(vk.EnumerateDeviceExtensionProperties(p.handle, "", &count, props)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceExtensionProperties()")
	}
	names := make([]string, 0, count)
	for _, ext := range props {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// Layers lists the device layers.
func (p *PhysicalDevice) Layers() ([]string, error) {
	var count uint32
	if err := NewError(vk.EnumerateDeviceLayerProperties(p.handle, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceLayerProperties()")
	}
	props := make([]vk.LayerProperties, count)
	if err := NewError(vk.EnumerateDeviceLayerProperties(p.handle, &count, props)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceLayerProperties()")
	}
	names := make([]string, 0, count)
	for _, layer := range props {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// Features implements interface
func (p *PhysicalDevice) Features() gfx.Features {
	return gfx.Features{
		SamplerAnisotropy: p.features.SamplerAnisotropy.B(),
	}
}

// SurfaceCapabilities implements interface
func (p *PhysicalDevice) SurfaceCapabilities(surface gfx.Surface) (gfx.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := NewError(vk.GetPhysicalDeviceSurfaceCapabilities(p.handle, surfaceHandle(surface), &caps)); err != nil {
		return gfx.SurfaceCapabilities{}, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	return gfx.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    toExtent(caps.CurrentExtent),
		MinImageExtent:   toExtent(caps.MinImageExtent),
		MaxImageExtent:   toExtent(caps.MaxImageExtent),
		CurrentTransform: gfx.SurfaceTransform(caps.CurrentTransform),
	}, nil
}

// SurfaceFormats implements interface
func (p *PhysicalDevice) SurfaceFormats(surface gfx.Surface) ([]gfx.SurfaceFormat, error) {
	var count uint32
	if err := NewError(vk.GetPhysicalDeviceSurfaceFormats(p.handle, surfaceHandle(surface), &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := NewError(vk.GetPhysicalDeviceSurfaceFormats(p.handle, surfaceHandle(surface), &count, formats)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	result := make([]gfx.SurfaceFormat, 0, count)
	for _, f := range formats {
		f.Deref()
		result = append(result, gfx.SurfaceFormat{
			Format:     gfx.Format(f.Format),
			ColorSpace: gfx.ColorSpace(f.ColorSpace),
		})
	}
	return result, nil
}

// PresentModes implements interface
func (p *PhysicalDevice) PresentModes(surface gfx.Surface) ([]gfx.PresentMode, error) {
	var count uint32
	if err := NewError(vk.GetPhysicalDeviceSurfacePresentModes(p.handle, surfaceHandle(surface), &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	modes := make([]vk.PresentMode, count)
	if err := NewError(vk.GetPhysicalDeviceSurfacePresentModes(p.handle, surfaceHandle(surface), &count, modes)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	result := make([]gfx.PresentMode, 0, count)
	for _, m := range modes {
		result = append(result, gfx.PresentMode(m))
	}
	return result, nil
}

// CreateDevice implements interface
func (p *PhysicalDevice) CreateDevice(info gfx.DeviceCreateInfo) (gfx.Device, error) {
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(info.Queues))
	for _, q := range info.Queues {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.Family,
			QueueCount:       uint32(len(q.Priorities)),
			PQueuePriorities: q.Priorities,
		})
	}

	features := []vk.PhysicalDeviceFeatures{{
		SamplerAnisotropy: vkBool(info.Features.SamplerAnisotropy),
	}}
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
		PEnabledFeatures:        features,
	}

	var device vk.Device
	if err := NewError(vk.CreateDevice(p.handle, &dci, nil, &device)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateDevice()")
	}
	return &Device{
		device:   device,
		physical: p,
	}, nil
}

// Inner returns the vk.PhysicalDevice handle.
func (p *PhysicalDevice) Inner() interface{} {
	return p.handle
}

// MemorySize returns the sum of all memory heaps in bytes.
func (p *PhysicalDevice) MemorySize() uint64 {
	var total uint64
	for i := uint32(0); i < p.memProperties.MemoryHeapCount; i++ {
		p.memProperties.MemoryHeaps[i].Deref()
		total += uint64(p.memProperties.MemoryHeaps[i].Size)
	}
	return total
}

func toExtent(e vk.Extent2D) gfx.Extent2D {
	return gfx.Extent2D{Width: e.Width, Height: e.Height}
}

func fromExtent(e gfx.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}
