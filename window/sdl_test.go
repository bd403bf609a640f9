// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"sync"
	"testing"

	"github.com/devblok/frameloop/core"
	qt "github.com/frankban/quicktest"
	"github.com/veandco/go-sdl2/sdl"
)

func newTestWindow(width, height *int32) (*SDLWindow, *[][2]int) {
	var sizes [][2]int
	w := &SDLWindow{
		drawable: func() (int32, int32) { return *width, *height },
	}
	w.width, w.height = w.size()
	w.SetResizeObserver(core.ResizeObserverFunc(func(width, height int) {
		sizes = append(sizes, [2]int{width, height})
	}))
	return w, &sizes
}

func windowEvent(event uint8) *sdl.WindowEvent {
	return &sdl.WindowEvent{Type: uint32(sdl.WINDOWEVENT), Event: event}
}

func TestResizeNotifiesOnce(t *testing.T) {
	c := qt.New(t)
	width, height := int32(800), int32(600)
	w, sizes := newTestWindow(&width, &height)

	width, height = 1024, 768
	w.handle(windowEvent(uint8(sdl.WINDOWEVENT_RESIZED)))
	w.handle(windowEvent(uint8(sdl.WINDOWEVENT_SIZE_CHANGED)))

	c.Assert(*sizes, qt.DeepEquals, [][2]int{{1024, 768}})
	fw, fh := w.FramebufferSize()
	c.Assert([]int{fw, fh}, qt.DeepEquals, []int{1024, 768})
}

func TestMinimizeReportsZeroSize(t *testing.T) {
	c := qt.New(t)
	width, height := int32(800), int32(600)
	w, sizes := newTestWindow(&width, &height)

	w.handle(windowEvent(uint8(sdl.WINDOWEVENT_MINIMIZED)))
	fw, fh := w.FramebufferSize()
	c.Assert([]int{fw, fh}, qt.DeepEquals, []int{0, 0})

	w.handle(windowEvent(uint8(sdl.WINDOWEVENT_RESTORED)))
	fw, fh = w.FramebufferSize()
	c.Assert([]int{fw, fh}, qt.DeepEquals, []int{800, 600})
	c.Assert(*sizes, qt.DeepEquals, [][2]int{{0, 0}, {800, 600}})
}

func TestCloseEvents(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		close bool
	}{
		{"quit", &sdl.QuitEvent{Type: uint32(sdl.QUIT)}, true},
		{"escape", &sdl.KeyboardEvent{Type: uint32(sdl.KEYDOWN), Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}, true},
		{"escape released", &sdl.KeyboardEvent{Type: uint32(sdl.KEYUP), Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}, false},
		{"other key", &sdl.KeyboardEvent{Type: uint32(sdl.KEYDOWN), Keysym: sdl.Keysym{Sym: sdl.K_SPACE}}, false},
		{"window close", windowEvent(uint8(sdl.WINDOWEVENT_CLOSE)), true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			width, height := int32(1), int32(1)
			w, _ := newTestWindow(&width, &height)
			w.handle(test.event)
			c.Assert(w.ShouldClose(), qt.Equals, test.close)
		})
	}
}

func TestDestroyWithoutWindow(t *testing.T) {
	c := qt.New(t)
	w := &SDLWindow{}
	w.Destroy()
	c.Assert(w.Surface(), qt.IsNil)
}

func TestRequestClose(t *testing.T) {
	c := qt.New(t)
	width, height := int32(1), int32(1)
	w, _ := newTestWindow(&width, &height)
	c.Assert(w.ShouldClose(), qt.IsFalse)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.RequestClose()
	}()
	wg.Wait()
	c.Assert(w.ShouldClose(), qt.IsTrue)
}
