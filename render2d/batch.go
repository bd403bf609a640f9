// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render2d

import (
	"image"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Batch limits.
const (
	MaxQuads    = 10000
	MaxVertices = MaxQuads * 4
	MaxIndices  = MaxQuads * 6
)

// ErrBatchFull is returned when a quad does not fit the batch.
var ErrBatchFull = errors.New("quad batch is full")

// Vertex is the vertex layout the quad shaders consume.
type Vertex struct {
	Position mgl32.Vec3
	Colour   mgl32.Vec3
	UV       mgl32.Vec2
}

// VertexSize is the stride of Vertex in bytes.
const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

var quadIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// QuadIndices returns the index pattern of quads consecutive quads. Every
// batch draws a prefix of it, so it is uploaded once.
func QuadIndices(quads int) []uint16 {
	indices := make([]uint16, 0, quads*len(quadIndices))
	for q := 0; q < quads; q++ {
		base := uint16(q * 4)
		for _, i := range quadIndices {
			indices = append(indices, base+i)
		}
	}
	return indices
}

// IndexBytes views indices as raw bytes for upload.
func IndexBytes(indices []uint16) []byte {
	if len(indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*2)
}

// Batch accumulates quads for a single indexed draw over QuadIndices.
type Batch struct {
	vertices []Vertex
	maxQuads int
}

// NewBatch returns a batch holding up to maxQuads quads. Values outside
// (0, MaxQuads] are clamped to MaxQuads as indices are 16 bit.
func NewBatch(maxQuads int) *Batch {
	if maxQuads <= 0 || maxQuads > MaxQuads {
		maxQuads = MaxQuads
	}
	return &Batch{
		vertices: make([]Vertex, 0, maxQuads*4),
		maxQuads: maxQuads,
	}
}

// Reset empties the batch, keeping its storage.
func (b *Batch) Reset() {
	b.vertices = b.vertices[:0]
}

// Len returns the number of quads in the batch.
func (b *Batch) Len() int {
	return len(b.vertices) / 4
}

// Cap returns the number of quads the batch holds.
func (b *Batch) Cap() int {
	return b.maxQuads
}

// IndexCount is the number of QuadIndices entries the batch draws.
func (b *Batch) IndexCount() int {
	return b.Len() * len(quadIndices)
}

// Rectangle adds an axis aligned quad covering r, wound top left, top right,
// bottom right, bottom left.
func (b *Batch) Rectangle(r image.Rectangle, colour mgl32.Vec3) error {
	if b.Len() >= b.maxQuads {
		return ErrBatchFull
	}
	left, top := float32(r.Min.X), float32(r.Min.Y)
	right, bottom := float32(r.Max.X), float32(r.Max.Y)
	b.vertices = append(b.vertices,
		Vertex{Position: mgl32.Vec3{left, top, 0}, Colour: colour, UV: mgl32.Vec2{0, 0}},
		Vertex{Position: mgl32.Vec3{right, top, 0}, Colour: colour, UV: mgl32.Vec2{1, 0}},
		Vertex{Position: mgl32.Vec3{right, bottom, 0}, Colour: colour, UV: mgl32.Vec2{1, 1}},
		Vertex{Position: mgl32.Vec3{left, bottom, 0}, Colour: colour, UV: mgl32.Vec2{0, 1}},
	)
	return nil
}

// Vertices returns the vertices added since the last Reset.
func (b *Batch) Vertices() []Vertex {
	return b.vertices
}

// VertexBytes views the vertices as raw bytes for upload.
func (b *Batch) VertexBytes() []byte {
	if len(b.vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.vertices[0])), len(b.vertices)*int(VertexSize))
}
