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

type releaseRecorder struct {
	name string
	log  *[]string
}

func (r releaseRecorder) Release() {
	*r.log = append(*r.log, r.name)
}

type recordingInstance struct {
	releaseRecorder
	devices []gfx.PhysicalDevice
}

func (i recordingInstance) AvailableDevices() ([]gfx.PhysicalDevice, error) {
	return i.devices, nil
}

func (i recordingInstance) Inner() interface{} { return nil }

type recordingDevice struct {
	*mockDevice
	releaseRecorder
}

func (d recordingDevice) Release() { d.releaseRecorder.Release() }

type recordingPool struct {
	*mockCommandPool
	releaseRecorder
}

func (p recordingPool) Release() { p.releaseRecorder.Release() }

func TestEngineContextDestroyOrder(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()

	var log []string
	window := newMockWindow(gpu, 800, 600)
	window.log = &log

	ctx := &EngineContext{
		Instance: recordingInstance{releaseRecorder: releaseRecorder{"instance", &log}},
		Window:   window,
		Debugger: releaseRecorder{"debugger", &log},
		Device: &LogicalDevice{
			Device:      recordingDevice{releaseRecorder: releaseRecorder{"device", &log}},
			CommandPool: recordingPool{releaseRecorder: releaseRecorder{"pool", &log}},
		},
	}

	ctx.Destroy()
	c.Assert(log, qt.DeepEquals, []string{"debugger", "window", "pool", "device", "instance"})
	c.Assert(window.destroyed, qt.IsTrue)

	ctx.Destroy()
	c.Assert(log, qt.HasLen, 5)
}

func TestEngineContextWithoutDevice(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()

	var log []string
	window := newMockWindow(gpu, 800, 600)
	window.log = &log

	instance := recordingInstance{releaseRecorder: releaseRecorder{"instance", &log}}
	ctx, err := NewEngineContext(instance, window, releaseRecorder{"debugger", &log}, DefaultDeviceRequirements())
	c.Assert(ctx, qt.IsNil)
	c.Assert(errors.Cause(err), qt.Equals, gfx.ErrNoSuitableDevice)
	c.Assert(log, qt.DeepEquals, []string{"debugger", "window", "instance"})
	c.Assert(gpu.liveCount(), qt.Equals, 0)
}

func TestEngineContextCreatesDevice(t *testing.T) {
	c := qt.New(t)
	gpu := newMockGPU()
	window := newMockWindow(gpu, 800, 600)
	instance := &mockInstance{
		mockHandle: gpu.newHandle("instance"),
		devices:    []gfx.PhysicalDevice{newMockPhysicalDevice(gpu, "gpu0")},
	}

	ctx, err := NewEngineContext(instance, window, nil, DefaultDeviceRequirements())
	c.Assert(err, qt.IsNil)
	c.Assert(ctx.Device, qt.Not(qt.IsNil))
	c.Assert(ctx.Device.Selection.Device.Properties().Name, qt.Equals, "gpu0")
	c.Assert(gpu.live["device"], qt.Equals, 1)
	c.Assert(gpu.live["pool"], qt.Equals, 1)

	ctx.Destroy()
	c.Assert(gpu.liveCount(), qt.Equals, 0)
}
