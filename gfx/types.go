// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "math"

// Enumerations carry the numeric values of their Vulkan counterparts.

// Format is a pixel format.
type Format int32

// Formats in use by the engine.
const (
	FormatUndefined       Format = 0
	FormatR8G8B8A8Unorm   Format = 37
	FormatR8G8B8A8Srgb    Format = 43
	FormatB8G8R8A8Unorm   Format = 44
	FormatB8G8R8A8Srgb    Format = 50
	FormatR32G32Sfloat    Format = 103
	FormatR32G32B32Sfloat Format = 106
)

// ColorSpace is a presentation color space.
type ColorSpace int32

// ColorSpaceSrgbNonlinear is the standard sRGB color space.
const ColorSpaceSrgbNonlinear ColorSpace = 0

// SurfaceFormat pairs a format with a color space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode is a presentation mode.
type PresentMode int32

// Present modes.
const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

// SurfaceTransform is a surface pre-transform.
type SurfaceTransform uint32

// SurfaceTransformIdentity applies no transform.
const SurfaceTransformIdentity SurfaceTransform = 0x1

// QueueFlags describe queue family capabilities.
type QueueFlags uint32

// Queue capability bits.
const (
	QueueGraphics QueueFlags = 0x1
	QueueCompute  QueueFlags = 0x2
	QueueTransfer QueueFlags = 0x4
)

// QueueFamilyProperties describes one queue family.
type QueueFamilyProperties struct {
	Flags QueueFlags
	Count uint32
}

// DeviceType classifies physical devices.
type DeviceType int32

// Device types.
const (
	DeviceTypeOther         DeviceType = 0
	DeviceTypeIntegratedGpu DeviceType = 1
	DeviceTypeDiscreteGpu   DeviceType = 2
	DeviceTypeVirtualGpu    DeviceType = 3
	DeviceTypeCPU           DeviceType = 4
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegratedGpu:
		return "integrated"
	case DeviceTypeDiscreteGpu:
		return "discrete"
	case DeviceTypeVirtualGpu:
		return "virtual"
	case DeviceTypeCPU:
		return "cpu"
	}
	return "other"
}

// DeviceProperties are the identifying properties of a physical device.
type DeviceProperties struct {
	Name          string
	VendorID      uint32
	DeviceID      uint32
	DriverVersion uint32
	Type          DeviceType

	MaxSamplerAnisotropy float32
}

// Features is the subset of device features the engine cares about.
type Features struct {
	SamplerAnisotropy bool
}

// Satisfies reports whether every feature required by req is present.
func (f Features) Satisfies(req Features) bool {
	return !req.SamplerAnisotropy || f.SamplerAnisotropy
}

// UndefinedExtent marks a current extent the surface leaves to the swapchain.
const UndefinedExtent = math.MaxUint32

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Offset2D is a position in pixels.
type Offset2D struct {
	X int32
	Y int32
}

// Rect2D is an area in pixels.
type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

// Viewport maps normalized coordinates to the framebuffer.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// ClearColor is an RGBA clear value.
type ClearColor [4]float32

// SurfaceCapabilities are the limits a surface places on a swapchain.
type SurfaceCapabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform SurfaceTransform
}

// Result is the outcome of acquiring or presenting an image.
type Result int

// Presentation results. Stale and Suboptimal are expected
// during resizes and are not errors.
const (
	ResultOk Result = iota
	ResultStale
	ResultSuboptimal
)

func (r Result) String() string {
	switch r {
	case ResultOk:
		return "ok"
	case ResultStale:
		return "stale"
	case ResultSuboptimal:
		return "suboptimal"
	}
	return "unknown"
}

// NoTimeout waits forever.
const NoTimeout = math.MaxUint64
