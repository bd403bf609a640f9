// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Debugger forwards validation layer reports to the logger.
type Debugger struct {
	instance vk.Instance
	callback vk.DebugReportCallback
}

// NewDebugger installs the debug report callback. It returns nil without
// error when the instance was created without validation.
func NewDebugger(instance *Instance) (*Debugger, error) {
	if !instance.Validation() {
		return nil, nil
	}
	createInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit |
			vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit |
			vk.DebugReportInformationBit),
		PfnCallback: debugReport,
	}
	var callback vk.DebugReportCallback
	if err := NewError(vk.CreateDebugReportCallback(instance.instance, &createInfo, nil, &callback)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateDebugReportCallback()")
	}
	return &Debugger{
		instance: instance.instance,
		callback: callback,
	}, nil
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, layerPrefix string,
	message string, userData unsafe.Pointer) vk.Bool32 {

	entry := log.WithFields(log.Fields{
		"layer": layerPrefix,
		"code":  messageCode,
	})
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		entry.Error(message)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		entry.Warn(message)
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		entry.Info(message)
	default:
		entry.Debug(message)
	}
	return vk.False
}

// Release removes the callback. Safe on a nil Debugger.
func (d *Debugger) Release() {
	if d == nil {
		return
	}
	vk.DestroyDebugReportCallback(d.instance, d.callback, nil)
}
