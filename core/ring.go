// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/frameloop/gfx"
	"github.com/pkg/errors"
)

type frameSlot struct {
	imageAvailable gfx.Semaphore
	renderComplete gfx.Semaphore
	inFlight       gfx.Fence
}

func (s *frameSlot) release() {
	if s.imageAvailable != nil {
		s.imageAvailable.Release()
	}
	if s.renderComplete != nil {
		s.renderComplete.Release()
	}
	if s.inFlight != nil {
		s.inFlight.Release()
	}
}

// InFlightRing holds the synchronization objects of every frame that may be
// in flight. The fence of a slot is waited on before the slot is reused.
type InFlightRing struct {
	slots   []frameSlot
	current int
}

// NewInFlightRing creates size slots. Fences start signaled so the
// first use of each slot does not wait.
func NewInFlightRing(device gfx.Device, size int) (*InFlightRing, error) {
	if size < 1 {
		return nil, errors.Errorf("in-flight ring size %d", size)
	}
	ring := &InFlightRing{slots: make([]frameSlot, size)}
	for i := range ring.slots {
		slot := &ring.slots[i]
		var err error
		if slot.imageAvailable, err = device.CreateSemaphore(); err != nil {
			ring.Release()
			return nil, errors.Wrapf(err, "image available semaphore %d", i)
		}
		if slot.renderComplete, err = device.CreateSemaphore(); err != nil {
			ring.Release()
			return nil, errors.Wrapf(err, "render complete semaphore %d", i)
		}
		if slot.inFlight, err = device.CreateFence(true); err != nil {
			ring.Release()
			return nil, errors.Wrapf(err, "in-flight fence %d", i)
		}
	}
	return ring, nil
}

// Len returns the number of slots.
func (r *InFlightRing) Len() int {
	return len(r.slots)
}

// Current returns the slot the next frame uses.
func (r *InFlightRing) Current() int {
	return r.current
}

// Advance moves on to the next slot. It does nothing on a released ring.
func (r *InFlightRing) Advance() {
	if len(r.slots) == 0 {
		return
	}
	r.current = (r.current + 1) % len(r.slots)
}

// slot returns the current slot, nil once the ring is released.
func (r *InFlightRing) slot() *frameSlot {
	if len(r.slots) == 0 {
		return nil
	}
	return &r.slots[r.current]
}

// Release destroys every synchronization object of the ring.
func (r *InFlightRing) Release() {
	for i := range r.slots {
		r.slots[i].release()
	}
	r.slots = nil
	r.current = 0
}
