// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Layer and extension names used for validation.
const (
	ValidationLayer      = "VK_LAYER_KHRONOS_validation"
	DebugReportExtension = "VK_EXT_debug_report"
)

// InstanceConfiguration describes the instance to create.
type InstanceConfiguration struct {
	ApplicationName string

	// ProcAddr is vkGetInstanceProcAddr as provided by the windowing
	// library. The system loader is used when nil.
	ProcAddr unsafe.Pointer

	// Extensions are the instance extensions the window surface needs.
	Extensions []string

	// Validation enables the validation layer and the debug report
	// extension when the layer is installed.
	Validation bool
}

// NewInstance loads vulkan and creates an instance.
func NewInstance(cfg InstanceConfiguration) (*Instance, error) {
	if cfg.ProcAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(cfg.ProcAddr)
	}
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}

	extensions := cfg.Extensions
	var layers []string
	validation := false
	if cfg.Validation {
		available, err := InstanceLayers()
		if err != nil {
			return nil, err
		}
		if containsString(available, ValidationLayer) {
			layers = append(layers, ValidationLayer)
			extensions = append(extensions, DebugReportExtension)
			validation = true
		} else {
			log.WithField("layer", ValidationLayer).Warn("validation requested but layer is not installed")
		}
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PApplicationName:   safeString(cfg.ApplicationName),
		PEngineName:        "frameloop\x00",
	}
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	var instance vk.Instance
	if err := NewError(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateInstance()")
	}
	vk.InitInstance(instance)

	log.WithFields(log.Fields{
		"extensions": extensions,
		"layers":     layers,
	}).Debug("vulkan instance created")

	return &Instance{
		instance:   instance,
		layers:     layers,
		validation: validation,
	}, nil
}

// InstanceLayers lists the installed instance layers.
func InstanceLayers() ([]string, error) {
	var count uint32
	if err := NewError(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceLayerProperties()")
	}
	props := make([]vk.LayerProperties, count)
	if err := NewError(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceLayerProperties()")
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Instance describes a Vulkan API Instance
type Instance struct {
	instance   vk.Instance
	layers     []string
	validation bool
}

// Validation reports whether validation layers are enabled.
func (i *Instance) Validation() bool {
	return i.validation
}

// Layers returns the enabled instance layers. Devices enable the same ones.
func (i *Instance) Layers() []string {
	return i.layers
}

// AvailableDevices implements interface
func (i *Instance) AvailableDevices() ([]gfx.PhysicalDevice, error) {
	var count uint32
	if err := NewError(vk.EnumeratePhysicalDevices(i.instance, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices()")
	}
	handles := make([]vk.PhysicalDevice, count)
	if err := NewError(vk.EnumeratePhysicalDevices(i.instance, &count, handles)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices()")
	}
	devices := make([]gfx.PhysicalDevice, 0, count)
	for _, h := range handles {
		devices = append(devices, newPhysicalDevice(h))
	}
	return devices, nil
}

// Inner implements interface
func (i *Instance) Inner() interface{} {
	return i.instance
}

// Release implements interface
func (i *Instance) Release() {
	vk.DestroyInstance(i.instance, nil)
}

// NewSurface wraps a surface created by the windowing library.
func NewSurface(instance *Instance, handle unsafe.Pointer) *Surface {
	return &Surface{
		instance: instance.instance,
		surface:  vk.SurfaceFromPointer(uintptr(handle)),
	}
}

// Surface is a vulkan window surface.
type Surface struct {
	instance vk.Instance
	surface  vk.Surface
}

// Inner implements interface
func (s *Surface) Inner() interface{} {
	return s.surface
}

// Release implements interface
func (s *Surface) Release() {
	vk.DestroySurface(s.instance, s.surface, nil)
}

func surfaceHandle(s gfx.Surface) vk.Surface {
	return s.Inner().(vk.Surface)
}
