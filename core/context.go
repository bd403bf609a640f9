// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
)

// EngineContext holds the objects every component is built from. It is
// created once per run and passed to constructors explicitly.
type EngineContext struct {
	Instance gfx.Instance
	Window   Window
	Debugger gfx.Releasable
	Device   *LogicalDevice
}

// NewEngineContext selects a device able to present to the window and
// creates it. The context owns instance, window and debugger from here on,
// and releases them if it fails. debugger may be nil.
func NewEngineContext(instance gfx.Instance, window Window, debugger gfx.Releasable, req DeviceRequirements) (*EngineContext, error) {
	ctx := &EngineContext{
		Instance: instance,
		Window:   window,
		Debugger: debugger,
	}

	devices, err := instance.AvailableDevices()
	if err != nil {
		ctx.Destroy()
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	sel, err := SelectDevice(devices, window.Surface(), req)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	if ctx.Device, err = CreateLogicalDevice(sel, req); err != nil {
		ctx.Destroy()
		return nil, err
	}
	return ctx, nil
}

// Destroy tears down in order debugger, window, device, instance.
// It is safe to call more than once.
func (c *EngineContext) Destroy() {
	if c.Debugger != nil {
		c.Debugger.Release()
		c.Debugger = nil
	}
	if c.Window != nil {
		c.Window.Destroy()
		c.Window = nil
	}
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Instance != nil {
		c.Instance.Release()
		c.Instance = nil
	}
}
