// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render2d

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// MaxTextureSize bounds either dimension of an uploaded texture.
const MaxTextureSize = 4096

// WhiteTexture returns the 1x1 opaque white image sampled when a quad
// carries only a colour.
func WhiteTexture() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	return img
}

// ToRGBA converts img into tightly packed RGBA pixels anchored at the
// origin, scaling it down to fit MaxTextureSize when needed.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	w, h := fitSize(bounds.Dx(), bounds.Dy(), MaxTextureSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	if w == bounds.Dx() && h == bounds.Dy() {
		if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == w*4 && bounds.Min == (image.Point{}) {
			return rgba
		}
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// fitSize scales w and h proportionally so neither exceeds limit.
func fitSize(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
