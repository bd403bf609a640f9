// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render2d

import (
	"image"
	"image/color"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWhiteTexture(t *testing.T) {
	c := qt.New(t)
	img := WhiteTexture()
	c.Assert(img.Bounds(), qt.Equals, image.Rect(0, 0, 1, 1))
	c.Assert(img.Pix, qt.DeepEquals, []byte{0xff, 0xff, 0xff, 0xff})
}

func TestToRGBAConvertsAndRebases(t *testing.T) {
	c := qt.New(t)
	src := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	src.SetNRGBA(10, 10, color.NRGBA{R: 0xff, A: 0xff})
	src.SetNRGBA(11, 10, color.NRGBA{B: 0xff, A: 0xff})

	dst := ToRGBA(src)
	c.Assert(dst.Bounds(), qt.Equals, image.Rect(0, 0, 2, 1))
	c.Assert(dst.Pix, qt.DeepEquals, []byte{0xff, 0, 0, 0xff, 0, 0, 0xff, 0xff})
}

func TestToRGBAKeepsPackedImages(t *testing.T) {
	c := qt.New(t)
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	c.Assert(ToRGBA(src), qt.Equals, src)
}

func TestToRGBAScalesLargeImages(t *testing.T) {
	c := qt.New(t)
	src := image.NewGray(image.Rect(0, 0, MaxTextureSize*2, 8))
	dst := ToRGBA(src)
	c.Assert(dst.Bounds(), qt.Equals, image.Rect(0, 0, MaxTextureSize, 4))
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, limit int
		ww, wh      int
	}{
		{10, 10, 16, 10, 10},
		{32, 16, 16, 16, 8},
		{16, 64, 16, 4, 16},
		{1000, 1, 10, 10, 1},
	}
	for _, test := range tests {
		c := qt.New(t)
		w, h := fitSize(test.w, test.h, test.limit)
		c.Assert([]int{w, h}, qt.DeepEquals, []int{test.ww, test.wh})
	}
}
