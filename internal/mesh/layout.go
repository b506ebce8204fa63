package mesh

import (
	"encoding/binary"
	"math"
)

// Packed record layout shared with renderers. The field order follows the
// engine's D3D vertex declaration: blend weights and bone indices come before
// the position, not after it.
const (
	VertexStride = 64

	OffsetWeights  = 0
	OffsetBones    = 12
	OffsetPosition = 16
	OffsetNormal   = 28
	OffsetTexCoord = 40
	OffsetTangent  = 48
)

// VertexBytes packs the vertices into little-endian VertexStride-byte records.
func (g *Geometry) VertexBytes() []byte {
	buf := make([]byte, len(g.Vertices)*VertexStride)
	for i, v := range g.Vertices {
		rec := buf[i*VertexStride : (i+1)*VertexStride]
		putFloats(rec[OffsetWeights:], v.Weights[:]...)
		copy(rec[OffsetBones:], v.Bones[:])
		putFloats(rec[OffsetPosition:], v.Position[:]...)
		putFloats(rec[OffsetNormal:], v.Normal[:]...)
		putFloats(rec[OffsetTexCoord:], v.TexCoord[:]...)
		putFloats(rec[OffsetTangent:], v.Tangent[:]...)
	}
	return buf
}

// IndexBytes packs the index buffer as little-endian uint16.
func (g *Geometry) IndexBytes() []byte {
	buf := make([]byte, 0, len(g.Indices)*2)
	for _, idx := range g.Indices {
		buf = binary.LittleEndian.AppendUint16(buf, idx)
	}
	return buf
}

// AttributeBytes packs the per-triangle subset ids as little-endian uint32.
func (g *Geometry) AttributeBytes() []byte {
	buf := make([]byte, 0, len(g.Attributes)*4)
	for _, a := range g.Attributes {
		buf = binary.LittleEndian.AppendUint32(buf, a)
	}
	return buf
}

func putFloats(b []byte, values ...float32) {
	for i, f := range values {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
}
