// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strings"

	"github.com/devblok/frameloop/gfx"
)

// DeviceInfo is a serializable summary of a physical device.
type DeviceInfo struct {
	Name          string   `json:"name"`
	ID            uint32   `json:"id"`
	VendorID      uint32   `json:"vendorId"`
	DriverVersion uint32   `json:"driverVersion"`
	Type          string   `json:"type"`
	Invalid       bool     `json:"invalid,omitempty"`
	Extensions    []string `json:"extensions"`
	Layers        []string `json:"layers,omitempty"`
	Memory        uint64   `json:"memory,omitempty"`
	QueueFamilies []string `json:"queueFamilies"`
	Anisotropy    bool     `json:"samplerAnisotropy"`
}

// DescribeDevices summarizes every device. A device whose extensions can not
// be listed is marked invalid rather than dropped.
func DescribeDevices(devices []gfx.PhysicalDevice) []DeviceInfo {
	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		props := d.Properties()
		info := DeviceInfo{
			Name:          props.Name,
			ID:            props.DeviceID,
			VendorID:      props.VendorID,
			DriverVersion: props.DriverVersion,
			Type:          props.Type.String(),
			Anisotropy:    d.Features().SamplerAnisotropy,
		}

		exts, err := d.Extensions()
		if err != nil {
			info.Invalid = true
		}
		for _, e := range exts {
			info.Extensions = append(info.Extensions, strings.TrimRight(e, "\x00"))
		}

		if l, ok := d.(interface{ Layers() ([]string, error) }); ok {
			layers, err := l.Layers()
			if err != nil {
				info.Invalid = true
			}
			info.Layers = layers
		}
		if m, ok := d.(interface{ MemorySize() uint64 }); ok {
			info.Memory = m.MemorySize()
		}

		for _, f := range d.QueueFamilies() {
			info.QueueFamilies = append(info.QueueFamilies, queueFlagsString(f.Flags))
		}
		infos = append(infos, info)
	}
	return infos
}

func queueFlagsString(flags gfx.QueueFlags) string {
	var parts []string
	if flags&gfx.QueueGraphics != 0 {
		parts = append(parts, "graphics")
	}
	if flags&gfx.QueueCompute != 0 {
		parts = append(parts, "compute")
	}
	if flags&gfx.QueueTransfer != 0 {
		parts = append(parts, "transfer")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
