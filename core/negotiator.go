// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strings"

	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DeviceRequirements lists what a physical device must offer to be used.
type DeviceRequirements struct {
	Extensions []string
	Layers     []string
	Features   gfx.Features
}

// DefaultDeviceRequirements asks for presentation and anisotropic sampling.
func DefaultDeviceRequirements() DeviceRequirements {
	return DeviceRequirements{
		Extensions: []string{"VK_KHR_swapchain"},
		Features:   gfx.Features{SamplerAnisotropy: true},
	}
}

// QueueFamilyIndices locates the queue families used for rendering
// and presentation. Both may be the same family.
type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32

	hasGraphics bool
	hasPresent  bool
}

// Complete reports whether both families were found.
func (q QueueFamilyIndices) Complete() bool {
	return q.hasGraphics && q.hasPresent
}

// Shared reports whether graphics and presentation use the same family.
func (q QueueFamilyIndices) Shared() bool {
	return q.Graphics == q.Present
}

// FindQueueFamilies picks the first graphics capable family and the first
// family able to present to surface.
func FindQueueFamilies(device gfx.PhysicalDevice, surface gfx.Surface) (QueueFamilyIndices, error) {
	var indices QueueFamilyIndices
	for i, family := range device.QueueFamilies() {
		idx := uint32(i)
		if !indices.hasGraphics && family.Count > 0 && family.Flags&gfx.QueueGraphics != 0 {
			indices.Graphics, indices.hasGraphics = idx, true
		}
		if !indices.hasPresent {
			supported, err := device.SurfaceSupport(idx, surface)
			if err != nil {
				return indices, errors.Wrapf(err, "surface support of family %d", idx)
			}
			if supported {
				indices.Present, indices.hasPresent = idx, true
			}
		}
		if indices.Complete() {
			break
		}
	}
	return indices, nil
}

// Selection is a physical device that passed every suitability check,
// along with what was learnt about it while checking.
type Selection struct {
	Device       gfx.PhysicalDevice
	Families     QueueFamilyIndices
	Formats      []gfx.SurfaceFormat
	PresentModes []gfx.PresentMode
	Capabilities gfx.SurfaceCapabilities
}

// SelectDevice returns the first device, in enumeration order, that passes
// the suitability checks for surface.
func SelectDevice(devices []gfx.PhysicalDevice, surface gfx.Surface, req DeviceRequirements) (Selection, error) {
	reasons := make([]string, 0, len(devices))
	for _, device := range devices {
		name := device.Properties().Name
		sel, err := checkDevice(device, surface, req)
		if err != nil {
			log.WithFields(log.Fields{
				"device": name,
				"reason": err.Error(),
			}).Debug("physical device rejected")
			reasons = append(reasons, name+": "+err.Error())
			continue
		}

		log.WithFields(log.Fields{
			"device":   name,
			"graphics": sel.Families.Graphics,
			"present":  sel.Families.Present,
		}).Info("physical device selected")
		return sel, nil
	}
	if len(reasons) == 0 {
		return Selection{}, errors.Wrap(gfx.ErrNoSuitableDevice, "no devices enumerated")
	}
	return Selection{}, errors.Wrap(gfx.ErrNoSuitableDevice, strings.Join(reasons, "; "))
}

// checkDevice runs the checks in order and stops at the first failure.
func checkDevice(device gfx.PhysicalDevice, surface gfx.Surface, req DeviceRequirements) (Selection, error) {
	sel := Selection{Device: device}

	families, err := FindQueueFamilies(device, surface)
	if err != nil {
		return sel, err
	}
	if !families.Complete() {
		return sel, errors.New("missing graphics or present queue family")
	}
	sel.Families = families

	available, err := device.Extensions()
	if err != nil {
		return sel, errors.Wrap(err, "extensions")
	}
	if missing := missingExtensions(available, req.Extensions); len(missing) > 0 {
		return sel, errors.Errorf("missing extensions %s", strings.Join(missing, ", "))
	}

	if sel.Formats, err = device.SurfaceFormats(surface); err != nil {
		return sel, errors.Wrap(err, "surface formats")
	}
	if sel.PresentModes, err = device.PresentModes(surface); err != nil {
		return sel, errors.Wrap(err, "present modes")
	}
	if len(sel.Formats) == 0 || len(sel.PresentModes) == 0 {
		return sel, errors.New("no surface formats or present modes")
	}

	if !device.Features().Satisfies(req.Features) {
		return sel, errors.New("required features not supported")
	}

	if sel.Capabilities, err = device.SurfaceCapabilities(surface); err != nil {
		return sel, errors.Wrap(err, "surface capabilities")
	}
	return sel, nil
}

func missingExtensions(available, required []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, ext := range available {
		have[strings.TrimRight(ext, "\x00")] = struct{}{}
	}
	var missing []string
	for _, ext := range required {
		if _, ok := have[strings.TrimRight(ext, "\x00")]; !ok {
			missing = append(missing, ext)
		}
	}
	return missing
}

// LogicalDevice is the created device together with its queues and the
// command pool of the graphics family.
type LogicalDevice struct {
	gfx.Device

	Selection   Selection
	Graphics    gfx.Queue
	Present     gfx.Queue
	CommandPool gfx.CommandPool
}

// CreateLogicalDevice creates the device for a selection. A second queue is
// only requested when presentation uses a different family.
func CreateLogicalDevice(sel Selection, req DeviceRequirements) (*LogicalDevice, error) {
	queues := []gfx.QueueCreateInfo{{
		Family:     sel.Families.Graphics,
		Priorities: []float32{1},
	}}
	if !sel.Families.Shared() {
		queues = append(queues, gfx.QueueCreateInfo{
			Family:     sel.Families.Present,
			Priorities: []float32{1},
		})
	}

	device, err := sel.Device.CreateDevice(gfx.DeviceCreateInfo{
		Queues:     queues,
		Extensions: req.Extensions,
		Layers:     req.Layers,
		Features:   req.Features,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}

	pool, err := device.CreateCommandPool(sel.Families.Graphics)
	if err != nil {
		device.Release()
		return nil, errors.Wrap(err, "create command pool")
	}

	return &LogicalDevice{
		Device:      device,
		Selection:   sel,
		Graphics:    device.Queue(sel.Families.Graphics, 0),
		Present:     device.Queue(sel.Families.Present, 0),
		CommandPool: pool,
	}, nil
}

// Release destroys the command pool and the device.
func (d *LogicalDevice) Release() {
	if d.CommandPool != nil {
		d.CommandPool.Release()
		d.CommandPool = nil
	}
	if d.Device != nil {
		d.Device.Release()
		d.Device = nil
	}
}
