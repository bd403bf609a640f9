// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "github.com/pkg/errors"

// package errors
var (
	ErrNoSuitableDevice            = errors.New("no suitable physical device found")
	ErrNoSuitableMemoryType        = errors.New("no suitable memory type found")
	ErrUnsupportedLayoutTransition = errors.New("unsupported image layout transition")
)
