// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"encoding/json"
	"testing"

	"github.com/devblok/frameloop/gfx"
	qt "github.com/frankban/quicktest"
)

type layeredDevice struct {
	*mockPhysicalDevice
}

func (layeredDevice) Layers() ([]string, error) { return []string{"VK_LAYER_test"}, nil }
func (layeredDevice) MemorySize() uint64        { return 1 << 30 }

func TestDescribeDevices(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()
	plain := newMockPhysicalDevice(gpu, "plain")
	plain.families = []gfx.QueueFamilyProperties{
		{Flags: gfx.QueueGraphics | gfx.QueueCompute, Count: 1},
		{Flags: 0, Count: 1},
	}
	layered := layeredDevice{newMockPhysicalDevice(gpu, "layered")}

	infos := DescribeDevices([]gfx.PhysicalDevice{plain, layered})
	c.Assert(infos, qt.HasLen, 2)

	c.Assert(infos[0].Name, qt.Equals, "plain")
	c.Assert(infos[0].Type, qt.Equals, "discrete")
	c.Assert(infos[0].Extensions, qt.DeepEquals, []string{"VK_KHR_swapchain"})
	c.Assert(infos[0].QueueFamilies, qt.DeepEquals, []string{"graphics|compute", "none"})
	c.Assert(infos[0].Layers, qt.IsNil)
	c.Assert(infos[0].Memory, qt.Equals, uint64(0))
	c.Assert(infos[0].Anisotropy, qt.IsTrue)

	c.Assert(infos[1].Layers, qt.DeepEquals, []string{"VK_LAYER_test"})
	c.Assert(infos[1].Memory, qt.Equals, uint64(1<<30))

	data, err := json.Marshal(infos[1])
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Contains, `"memory":1073741824`)
	c.Assert(string(data), qt.Not(qt.Contains), `"invalid"`)
}
