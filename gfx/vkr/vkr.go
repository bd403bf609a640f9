// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the vulkan renderer.
//
// Every type here satisfies an interface of package gfx. Handles of the
// underlying API are reachable through Inner for collaborators that record
// their own commands.
package vkr

import (
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Error is a failed vulkan call.
type Error struct {
	Result vk.Result
	Caller string
}

func (e *Error) Error() string {
	return fmt.Sprintf("vulkan error %d in %s", e.Result, e.Caller)
}

// NewError returns nil for success and non error results,
// an *Error carrying the result and the calling function otherwise.
func NewError(ret vk.Result) error {
	if ret >= vk.Success {
		return nil
	}
	caller := "unknown"
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}
	return &Error{Result: ret, Caller: caller}
}

// IsError reports whether ret is a failure.
func IsError(ret vk.Result) bool {
	return ret < vk.Success
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
