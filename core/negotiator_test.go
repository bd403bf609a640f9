// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	"github.com/devblok/frameloop/gfx"
	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
)

func TestSelectDeviceOrder(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()
	surface := gpu.newHandle("surface")

	noPresent := newMockPhysicalDevice(gpu, "nopresent")
	noPresent.present = map[uint32]bool{}

	noSwapchain := newMockPhysicalDevice(gpu, "noswapchain")
	noSwapchain.extensions = []string{"VK_KHR_maintenance1\x00"}

	noFormats := newMockPhysicalDevice(gpu, "noformats")
	noFormats.noFormats = true

	noAniso := newMockPhysicalDevice(gpu, "noaniso")
	noAniso.features = gfx.Features{}

	good := newMockPhysicalDevice(gpu, "good")
	never := newMockPhysicalDevice(gpu, "never")

	devices := []gfx.PhysicalDevice{noPresent, noSwapchain, noFormats, noAniso, good, never}
	sel, err := SelectDevice(devices, surface, DefaultDeviceRequirements())
	c.Assert(err, qt.IsNil)
	c.Assert(sel.Device, qt.Equals, gfx.PhysicalDevice(good))
	c.Assert(sel.Families.Shared(), qt.IsTrue)
	c.Assert(sel.Formats, qt.HasLen, 2)
	c.Assert(sel.Capabilities.MinImageCount, qt.Equals, uint32(2))

	// Each rejected device stops at its first failing check.
	c.Assert(gpu.callCount("nopresent.Extensions"), qt.Equals, 0)
	c.Assert(gpu.callCount("noswapchain.Extensions"), qt.Equals, 1)
	c.Assert(gpu.callCount("noswapchain.SurfaceFormats"), qt.Equals, 0)
	c.Assert(gpu.callCount("noformats.SurfaceFormats"), qt.Equals, 1)
	c.Assert(gpu.callCount("noformats.Features"), qt.Equals, 0)
	c.Assert(gpu.callCount("noaniso.Features"), qt.Equals, 1)
	c.Assert(gpu.callCount("never.QueueFamilies"), qt.Equals, 0)
	c.Assert(gpu.callCount("never.Properties"), qt.Equals, 0)
}

func TestSelectDeviceNoneSuitable(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()
	surface := gpu.newHandle("surface")

	compute := newMockPhysicalDevice(gpu, "compute")
	compute.families = []gfx.QueueFamilyProperties{{Flags: gfx.QueueCompute, Count: 4}}

	_, err := SelectDevice([]gfx.PhysicalDevice{compute}, surface, DefaultDeviceRequirements())
	c.Assert(errors.Cause(err), qt.Equals, gfx.ErrNoSuitableDevice)
	c.Assert(err, qt.ErrorMatches, `compute: missing graphics or present queue family: .*`)

	_, err = SelectDevice(nil, surface, DefaultDeviceRequirements())
	c.Assert(errors.Cause(err), qt.Equals, gfx.ErrNoSuitableDevice)
}

func TestFindQueueFamilies(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()
	surface := gpu.newHandle("surface")

	device := newMockPhysicalDevice(gpu, "split")
	device.families = []gfx.QueueFamilyProperties{
		{Flags: gfx.QueueTransfer, Count: 1},
		{Flags: gfx.QueueGraphics, Count: 0},
		{Flags: gfx.QueueGraphics | gfx.QueueCompute, Count: 16},
		{Flags: gfx.QueueTransfer, Count: 2},
	}
	device.present = map[uint32]bool{3: true}

	families, err := FindQueueFamilies(device, surface)
	c.Assert(err, qt.IsNil)
	c.Assert(families.Complete(), qt.IsTrue)
	c.Assert(families.Graphics, qt.Equals, uint32(2))
	c.Assert(families.Present, qt.Equals, uint32(3))
	c.Assert(families.Shared(), qt.IsFalse)
}

func TestCreateLogicalDeviceQueues(t *testing.T) {
	tests := []struct {
		name    string
		present map[uint32]bool
		queues  int
	}{
		{name: "shared", present: map[uint32]bool{0: true, 1: true}, queues: 1},
		{name: "separate", present: map[uint32]bool{1: true}, queues: 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			gpu := newMockGPU()
			surface := gpu.newHandle("surface")

			device := newMockPhysicalDevice(gpu, test.name)
			device.families = []gfx.QueueFamilyProperties{
				{Flags: gfx.QueueGraphics, Count: 1},
				{Flags: gfx.QueueTransfer, Count: 1},
			}
			device.present = test.present

			req := DefaultDeviceRequirements()
			sel, err := SelectDevice([]gfx.PhysicalDevice{device}, surface, req)
			c.Assert(err, qt.IsNil)

			logical, err := CreateLogicalDevice(sel, req)
			c.Assert(err, qt.IsNil)
			c.Assert(device.createInfo.Queues, qt.HasLen, test.queues)
			c.Assert(device.createInfo.Queues[0].Family, qt.Equals, uint32(0))
			c.Assert(device.createInfo.Extensions, qt.DeepEquals, req.Extensions)
			c.Assert(device.createInfo.Features.SamplerAnisotropy, qt.IsTrue)
			c.Assert(logical.Graphics.(*mockQueue).family, qt.Equals, sel.Families.Graphics)
			c.Assert(logical.Present.(*mockQueue).family, qt.Equals, sel.Families.Present)

			logical.Release()
			surface.Release()
			c.Assert(gpu.liveCount(), qt.Equals, 0)
		})
	}
}
