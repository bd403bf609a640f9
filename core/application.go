// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Application is what the run loop drives once per frame.
type Application interface {
	// Initialise is called once before the first frame.
	Initialise(rs *RenderSystem) error

	// Update advances the application by the time passed since the
	// previous frame.
	Update(step Timestep)

	// Draw records the frame inside the swap render pass.
	Draw(session *FrameSession) error
}

// Run drives app until the window is closed or ctx is done. An application
// that implements ResizeObserver receives the window's resize events and is
// expected to forward them to rs, otherwise rs receives them directly.
// The device is drained before Run returns.
func Run(ctx context.Context, app Application, rs *RenderSystem, window Window, clock *Time) (err error) {
	if observer, ok := app.(ResizeObserver); ok {
		window.SetResizeObserver(observer)
	} else {
		window.SetResizeObserver(rs)
	}

	if err := app.Initialise(rs); err != nil {
		return errors.Wrap(err, "initialise application")
	}

	defer func() {
		if werr := rs.WaitIdle(); werr != nil && err == nil {
			err = errors.Wrap(werr, "device wait idle")
		}
	}()

	var frames uint64
	for !window.ShouldClose() {
		select {
		case <-ctx.Done():
			log.WithField("frames", frames).Info("run loop cancelled")
			return nil
		default:
		}

		window.PollEvents()
		if ticker := clock.FpsTicker(); ticker != nil {
			<-ticker.C
		}
		app.Update(clock.Step())

		session, err := rs.BeginFrame()
		if errors.Cause(err) == ErrWindowClosed {
			break
		}
		if err != nil {
			return errors.Wrap(err, "begin frame")
		}
		if session == nil {
			continue
		}

		rs.BeginRenderPass(session)
		if err := app.Draw(session); err != nil {
			return errors.Wrap(err, "draw")
		}
		rs.EndRenderPass(session)

		err = rs.EndFrame()
		frames++
		if errors.Cause(err) == ErrWindowClosed {
			break
		}
		if err != nil {
			return errors.Wrap(err, "end frame")
		}
	}
	log.WithField("frames", frames).Info("window closed")
	return nil
}
