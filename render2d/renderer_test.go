// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render2d

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"
)

func TestProjectionIsYDown(t *testing.T) {
	c := qt.New(t)
	p := Projection(800, 600)

	topLeft := p.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	bottomRight := p.Mul4x1(mgl32.Vec4{800, 600, 0, 1})
	centre := p.Mul4x1(mgl32.Vec4{400, 300, 0, 1})

	// clip space y grows downwards
	c.Assert(topLeft.ApproxEqual(mgl32.Vec4{-1, -1, 0, 1}), qt.IsTrue, qt.Commentf("%v", topLeft))
	c.Assert(bottomRight.ApproxEqual(mgl32.Vec4{1, 1, 0, 1}), qt.IsTrue, qt.Commentf("%v", bottomRight))
	c.Assert(centre.ApproxEqual(mgl32.Vec4{0, 0, 0, 1}), qt.IsTrue, qt.Commentf("%v", centre))
	c.Assert(projectionSize, qt.Equals, uint(64))
}
