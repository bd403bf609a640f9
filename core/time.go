// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/loov/hrtime"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	t := &Time{
		fps:  cfg.FramesPerSecond,
		last: hrtime.Now(),
	}
	if cfg.FramesPerSecond > 0 {
		t.fpsTicker = time.NewTicker(time.Second / time.Duration(cfg.FramesPerSecond))
	}
	return t
}

// Time contains the frame clock and the optional frame cap ticker
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	last time.Duration
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker, nil when uncapped
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// Step returns the time passed since the previous call.
func (t *Time) Step() Timestep {
	now := hrtime.Now()
	step := Timestep(now - t.last)
	t.last = now
	return step
}

// Stop stops the tickers.
func (t *Time) Stop() {
	if t.fpsTicker != nil {
		t.fpsTicker.Stop()
	}
}

// Timestep is the duration of one frame.
type Timestep time.Duration

// Seconds returns the step in seconds.
func (s Timestep) Seconds() float32 {
	return float32(time.Duration(s).Seconds())
}

// Milliseconds returns the step in milliseconds.
func (s Timestep) Milliseconds() float32 {
	return float32(time.Duration(s)) / float32(time.Millisecond)
}
