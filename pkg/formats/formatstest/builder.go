// Package formatstest builds synthetic model, texture and material files for tests.
package formatstest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// File identifiers and versions written by the builders.
const (
	StudioID          = 0x54534449 // "IDST"
	StudioVersion     = 48
	VertexFileID      = 0x56534449 // "IDSV"
	VertexFileVersion = 4
	StripVersion      = 7
)

// StripGroup is one strip group of a mesh: vertex descriptors referencing
// mesh-local vertices and a triangle list local to OrigIDs.
type StripGroup struct {
	OrigIDs []uint16
	Indices []uint16
}

// Mesh describes a studio mesh and its strip-file counterpart.
type Mesh struct {
	Material     int32
	VertexOffset int32
	NumVertices  int32
	StripGroups  []StripGroup
}

// Vertex is a raw vertex record.
type Vertex struct {
	Weights  [3]float32
	Bones    [3]uint8
	NumBones uint8
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Fixup is a vertex-file copy run.
type Fixup struct {
	LOD    int32
	Source int32
	Count  int32
}

// Model describes the three companion files of a model.
type Model struct {
	Checksum     int32
	Textures     []string
	CDTextures   []string
	SkinFamilies [][]int16
	Meshes       []Mesh
	LODs         int // strip-file LODs, each repeating Meshes; zero means one
	Vertices     []Vertex
	Tangents     [][4]float32 // defaults to one tangent per vertex
	Fixups       []Fixup
}

// writer lays out records at explicit offsets.
type writer struct {
	b []byte
}

func (w *writer) alloc(n int) int {
	off := len(w.b)
	w.b = append(w.b, make([]byte, n)...)
	return off
}

func (w *writer) i32(off int, v int32) {
	binary.LittleEndian.PutUint32(w.b[off:], uint32(v))
}

func (w *writer) u16(off int, v uint16) {
	binary.LittleEndian.PutUint16(w.b[off:], v)
}

func (w *writer) f32(off int, v float32) {
	binary.LittleEndian.PutUint32(w.b[off:], math.Float32bits(v))
}

func (w *writer) cstring(s string) int {
	off := w.alloc(len(s) + 1)
	copy(w.b[off:], s)
	return off
}

// MDL returns the studio file.
func (m Model) MDL() []byte {
	w := &writer{}
	hdr := w.alloc(240)
	w.i32(hdr+0, StudioID)
	w.i32(hdr+4, StudioVersion)
	w.i32(hdr+8, m.Checksum)
	copy(w.b[hdr+12:hdr+76], "test.mdl")

	texOff := w.alloc(64 * len(m.Textures))
	w.i32(hdr+204, int32(len(m.Textures)))
	w.i32(hdr+208, int32(texOff))

	cdOff := w.alloc(4 * len(m.CDTextures))
	w.i32(hdr+212, int32(len(m.CDTextures)))
	w.i32(hdr+216, int32(cdOff))

	if len(m.SkinFamilies) > 0 {
		refs := len(m.SkinFamilies[0])
		skinOff := w.alloc(2 * refs * len(m.SkinFamilies))
		w.i32(hdr+220, int32(refs))
		w.i32(hdr+224, int32(len(m.SkinFamilies)))
		w.i32(hdr+228, int32(skinOff))
		for f, fam := range m.SkinFamilies {
			for r, tex := range fam {
				w.u16(skinOff+(f*refs+r)*2, uint16(tex))
			}
		}
	}

	bpOff := w.alloc(16)
	w.i32(hdr+232, 1)
	w.i32(hdr+236, int32(bpOff))

	modelOff := w.alloc(148)
	w.i32(bpOff+4, 1)
	w.i32(bpOff+8, 1)
	w.i32(bpOff+12, int32(modelOff-bpOff))

	copy(w.b[modelOff:modelOff+64], "model0")
	meshOff := w.alloc(116 * len(m.Meshes))
	w.i32(modelOff+72, int32(len(m.Meshes)))
	w.i32(modelOff+76, int32(meshOff-modelOff))
	w.i32(modelOff+80, int32(len(m.Vertices)))

	for i, mesh := range m.Meshes {
		rec := meshOff + i*116
		w.i32(rec+0, mesh.Material)
		w.i32(rec+4, int32(modelOff-rec))
		w.i32(rec+8, mesh.NumVertices)
		w.i32(rec+12, mesh.VertexOffset)
		w.i32(rec+32, int32(i))
	}

	for i, name := range m.Textures {
		rec := texOff + i*64
		w.i32(rec, int32(w.cstring(name)-rec))
	}
	for i, dir := range m.CDTextures {
		w.i32(cdOff+i*4, int32(w.cstring(dir)))
	}
	w.i32(bpOff, int32(w.cstring("body")-bpOff))

	w.i32(hdr+76, int32(len(w.b)))
	return w.b
}

// VTX returns the strip file.
func (m Model) VTX() []byte {
	lods := max(m.LODs, 1)
	w := &writer{}
	hdr := w.alloc(36)
	w.i32(hdr+0, StripVersion)
	w.i32(hdr+4, 24)
	w.u16(hdr+8, 53)
	w.u16(hdr+10, 9)
	w.i32(hdr+12, 3)
	w.i32(hdr+16, m.Checksum)
	w.i32(hdr+20, int32(lods))
	w.i32(hdr+28, 1)

	bpOff := w.alloc(8)
	w.i32(hdr+32, int32(bpOff))
	modelOff := w.alloc(8)
	w.i32(bpOff, 1)
	w.i32(bpOff+4, int32(modelOff-bpOff))

	lodOff := w.alloc(12 * lods)
	w.i32(modelOff, int32(lods))
	w.i32(modelOff+4, int32(lodOff-modelOff))

	for l := range lods {
		lodRec := lodOff + l*12
		meshOff := w.alloc(9 * len(m.Meshes))
		w.i32(lodRec, int32(len(m.Meshes)))
		w.i32(lodRec+4, int32(meshOff-lodRec))
		w.f32(lodRec+8, float32(l)*10)

		for i, mesh := range m.Meshes {
			meshRec := meshOff + i*9
			groupOff := w.alloc(25 * len(mesh.StripGroups))
			w.i32(meshRec, int32(len(mesh.StripGroups)))
			w.i32(meshRec+4, int32(groupOff-meshRec))

			for j, g := range mesh.StripGroups {
				rec := groupOff + j*25
				vertOff := w.alloc(9 * len(g.OrigIDs))
				for k, id := range g.OrigIDs {
					v := vertOff + k*9
					w.b[v+3] = 1
					w.u16(v+4, id)
				}
				indexOff := w.alloc(2 * len(g.Indices))
				for k, idx := range g.Indices {
					w.u16(indexOff+k*2, idx)
				}
				stripOff := w.alloc(27)
				w.i32(stripOff, int32(len(g.Indices)))
				w.i32(stripOff+8, int32(len(g.OrigIDs)))
				w.b[stripOff+18] = 1

				w.i32(rec+0, int32(len(g.OrigIDs)))
				w.i32(rec+4, int32(vertOff-rec))
				w.i32(rec+8, int32(len(g.Indices)))
				w.i32(rec+12, int32(indexOff-rec))
				w.i32(rec+16, 1)
				w.i32(rec+20, int32(stripOff-rec))
			}
		}
	}
	return w.b
}

// VVD returns the vertex file.
func (m Model) VVD() []byte {
	w := &writer{}
	hdr := w.alloc(64)
	w.i32(hdr+0, VertexFileID)
	w.i32(hdr+4, VertexFileVersion)
	w.i32(hdr+8, m.Checksum)
	w.i32(hdr+12, 1)
	for i := range 8 {
		w.i32(hdr+16+i*4, int32(len(m.Vertices)))
	}

	fixOff := w.alloc(12 * len(m.Fixups))
	w.i32(hdr+48, int32(len(m.Fixups)))
	w.i32(hdr+52, int32(fixOff))
	for i, fx := range m.Fixups {
		rec := fixOff + i*12
		w.i32(rec, fx.LOD)
		w.i32(rec+4, fx.Source)
		w.i32(rec+8, fx.Count)
	}

	vertOff := w.alloc(48 * len(m.Vertices))
	w.i32(hdr+56, int32(vertOff))
	for i, v := range m.Vertices {
		rec := vertOff + i*48
		for k := range 3 {
			w.f32(rec+k*4, v.Weights[k])
			w.b[rec+12+k] = v.Bones[k]
			w.f32(rec+16+k*4, v.Position[k])
			w.f32(rec+28+k*4, v.Normal[k])
		}
		w.b[rec+15] = v.NumBones
		w.f32(rec+40, v.TexCoord[0])
		w.f32(rec+44, v.TexCoord[1])
	}

	tanOff := w.alloc(16 * len(m.Vertices))
	w.i32(hdr+60, int32(tanOff))
	for i := range m.Vertices {
		t := [4]float32{1, 0, 0, 1}
		if i < len(m.Tangents) {
			t = m.Tangents[i]
		}
		for k := range 4 {
			w.f32(tanOff+i*16+k*4, t[k])
		}
	}
	return w.b
}

// Files returns the studio, strip and vertex files.
func (m Model) Files() (mdl, vtx, vvd []byte) {
	return m.MDL(), m.VTX(), m.VVD()
}

// VTF describes a texture container. Payload holds every mip of every frame,
// smallest level first.
type VTF struct {
	Minor        uint32 // 7.x minor version; 2 when zero
	Width        uint16
	Height       uint16
	Flags        uint32
	Frames       uint16
	Format       int32
	MipCount     uint8
	LowResFormat int32
	LowResWidth  uint8
	LowResHeight uint8
	Thumbnail    []byte
	Payload      []byte
}

// Bytes returns the texture container. Minor versions 3 and later get a
// resource list pointing at the thumbnail and the payload.
func (t VTF) Bytes() []byte {
	minor := t.Minor
	if minor == 0 {
		minor = 2
	}
	headerSize := uint32(80)
	if minor >= 3 {
		headerSize += 2 * 8
	}

	var buf bytes.Buffer
	buf.WriteString("VTF\x00")
	binary.Write(&buf, binary.LittleEndian, [2]uint32{7, minor})
	binary.Write(&buf, binary.LittleEndian, headerSize)
	binary.Write(&buf, binary.LittleEndian, t.Width)
	binary.Write(&buf, binary.LittleEndian, t.Height)
	binary.Write(&buf, binary.LittleEndian, t.Flags)
	binary.Write(&buf, binary.LittleEndian, t.Frames)
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // first frame
	buf.Write(make([]byte, 4))
	binary.Write(&buf, binary.LittleEndian, [3]float32{0.5, 0.5, 0.5})
	buf.Write(make([]byte, 4))
	binary.Write(&buf, binary.LittleEndian, float32(1)) // bump scale
	binary.Write(&buf, binary.LittleEndian, t.Format)
	buf.WriteByte(t.MipCount)
	binary.Write(&buf, binary.LittleEndian, t.LowResFormat)
	buf.WriteByte(t.LowResWidth)
	buf.WriteByte(t.LowResHeight)
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // depth
	buf.Write(make([]byte, 3))
	if minor >= 3 {
		binary.Write(&buf, binary.LittleEndian, uint32(2))
		buf.Write(make([]byte, 8))
		thumbOff := headerSize
		dataOff := headerSize + uint32(len(t.Thumbnail))
		binary.Write(&buf, binary.LittleEndian, [2]uint32{0x01, thumbOff})
		binary.Write(&buf, binary.LittleEndian, [2]uint32{0x30, dataOff})
	} else {
		buf.Write(make([]byte, int(headerSize)-buf.Len()))
	}
	buf.Write(t.Thumbnail)
	buf.Write(t.Payload)
	return buf.Bytes()
}

// UTF16LE encodes s as UTF-16LE with a byte order mark.
func UTF16LE(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, r := range s {
		out = binary.LittleEndian.AppendUint16(out, uint16(r))
	}
	return out
}
