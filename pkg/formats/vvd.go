package formats

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex file identification.
const (
	VertexFileID      = 'I' | 'D'<<8 | 'S'<<16 | 'V'<<24 // "IDSV"
	VertexFileVersion = 4

	MaxLODs = 8

	vvdHeaderSize     = 64
	vvdFixupSize      = 12
	StudioVertexSize  = 48
	TangentSize       = 16
	vvdNumFixupsField = 48
)

// BoneWeights holds up to three bone influences of a vertex.
type BoneWeights struct {
	Weights  [3]float32
	Bones    [3]uint8
	NumBones uint8
}

// StudioVertex is one raw vertex record of the vertex file.
type StudioVertex struct {
	BoneWeights BoneWeights
	Position    mgl32.Vec3
	Normal      mgl32.Vec3
	TexCoord    mgl32.Vec2
}

// Fixup is one copy run of the fixup table.
type Fixup struct {
	LOD            int32
	SourceVertexID int32
	NumVertexes    int32
}

// VVD is a vertex file. Vertex and tangent records are read on demand from the
// underlying buffer.
type VVD struct {
	ID               int32
	Version          int32
	Checksum         int32
	NumLODs          int32
	NumLODVertexes   [MaxLODs]int32
	Fixups           []Fixup
	FixupTableStart  int32
	VertexDataStart  int32
	TangentDataStart int32

	data []byte
}

// ParseVVD parses a vertex file from raw bytes.
func ParseVVD(data []byte) (*VVD, error) {
	v := view{file: FileVertex, data: data}
	hdr, err := v.record(0, vvdHeaderSize, "header")
	if err != nil {
		return nil, formatError(FileVertex, "header", ErrTruncated)
	}

	vvd := &VVD{
		ID:               i32(hdr, 0),
		Version:          i32(hdr, 4),
		Checksum:         i32(hdr, 8),
		NumLODs:          i32(hdr, 12),
		FixupTableStart:  i32(hdr, 52),
		VertexDataStart:  i32(hdr, 56),
		TangentDataStart: i32(hdr, 60),
		data:             data,
	}
	if vvd.ID != VertexFileID {
		return nil, formatError(FileVertex, "id", fmt.Errorf("got %#x, want %#x", uint32(vvd.ID), uint32(VertexFileID)))
	}
	if vvd.Version != VertexFileVersion {
		return nil, formatError(FileVertex, "version", fmt.Errorf("got %d, want %d", vvd.Version, VertexFileVersion))
	}
	for i := range vvd.NumLODVertexes {
		vvd.NumLODVertexes[i] = i32(hdr, 16+i*4)
	}

	numFixups := int(i32(hdr, vvdNumFixupsField))
	tbl, err := v.table(int(vvd.FixupTableStart), numFixups, vvdFixupSize, "fixup table")
	if err != nil {
		return nil, err
	}
	vvd.Fixups = make([]Fixup, numFixups)
	for i := range vvd.Fixups {
		rec := tbl[i*vvdFixupSize:]
		vvd.Fixups[i] = Fixup{LOD: i32(rec, 0), SourceVertexID: i32(rec, 4), NumVertexes: i32(rec, 8)}
	}

	if _, err := v.table(int(vvd.VertexDataStart), vvd.NumVertices(), StudioVertexSize, "vertex data"); err != nil {
		return nil, err
	}
	if _, err := v.table(int(vvd.TangentDataStart), vvd.NumVertices(), TangentSize, "tangent data"); err != nil {
		return nil, err
	}

	return vvd, nil
}

// NumVertices returns the vertex count of the root LOD.
func (f *VVD) NumVertices() int {
	return int(f.NumLODVertexes[0])
}

// Bytes returns the underlying file buffer.
func (f *VVD) Bytes() []byte {
	return f.data
}

// Vertex returns raw vertex i.
func (f *VVD) Vertex(i int) (StudioVertex, error) {
	if i < 0 || i >= f.NumVertices() {
		return StudioVertex{}, rangeError(FileVertex, "vertex", fmt.Errorf("index %d outside %d vertices", i, f.NumVertices()))
	}
	v := view{file: FileVertex, data: f.data}
	rec, err := v.record(int(f.VertexDataStart)+i*StudioVertexSize, StudioVertexSize, "vertex")
	if err != nil {
		return StudioVertex{}, err
	}
	return StudioVertex{
		BoneWeights: BoneWeights{
			Weights:  [3]float32{f32(rec, 0), f32(rec, 4), f32(rec, 8)},
			Bones:    [3]uint8{rec[12], rec[13], rec[14]},
			NumBones: rec[15],
		},
		Position: mgl32.Vec3{f32(rec, 16), f32(rec, 20), f32(rec, 24)},
		Normal:   mgl32.Vec3{f32(rec, 28), f32(rec, 32), f32(rec, 36)},
		TexCoord: mgl32.Vec2{f32(rec, 40), f32(rec, 44)},
	}, nil
}

// Tangent returns tangent i (xyz plus handedness sign in w).
func (f *VVD) Tangent(i int) (mgl32.Vec4, error) {
	if i < 0 || i >= f.NumVertices() {
		return mgl32.Vec4{}, rangeError(FileVertex, "tangent", fmt.Errorf("index %d outside %d tangents", i, f.NumVertices()))
	}
	v := view{file: FileVertex, data: f.data}
	rec, err := v.record(int(f.TangentDataStart)+i*TangentSize, TangentSize, "tangent")
	if err != nil {
		return mgl32.Vec4{}, err
	}
	return mgl32.Vec4{f32(rec, 0), f32(rec, 4), f32(rec, 8), f32(rec, 12)}, nil
}

// ResolveFixups applies the fixup table for rootLOD and returns a new vertex file
// whose vertex and tangent regions are in mesh order. The result occupies a fresh
// buffer of the same byte length; the receiver is left untouched. A file without
// fixups is returned as is.
func (f *VVD) ResolveFixups(rootLOD int) (*VVD, error) {
	if len(f.Fixups) == 0 {
		return f, nil
	}
	if rootLOD < 0 || rootLOD >= MaxLODs {
		return nil, rangeError(FileVertex, "root LOD", fmt.Errorf("%d outside [0,%d)", rootLOD, MaxLODs))
	}

	// Validate every run before touching memory.
	total := f.NumVertices()
	dest := 0
	for i, fx := range f.Fixups {
		if int(fx.LOD) < rootLOD {
			continue
		}
		src, n := int(fx.SourceVertexID), int(fx.NumVertexes)
		if src < 0 || n < 0 || src > total-n {
			return nil, rangeError(FileVertex, fmt.Sprintf("fixup %d", i), fmt.Errorf("source run [%d:+%d] outside %d vertices", src, n, total))
		}
		if dest > total-n {
			return nil, rangeError(FileVertex, fmt.Sprintf("fixup %d", i), fmt.Errorf("destination run [%d:+%d] outside %d vertices", dest, n, total))
		}
		dest += n
	}

	out := make([]byte, len(f.data))
	copy(out, f.data)

	vs, ts := int(f.VertexDataStart), int(f.TangentDataStart)
	dest = 0
	for _, fx := range f.Fixups {
		if int(fx.LOD) < rootLOD {
			continue
		}
		src, n := int(fx.SourceVertexID), int(fx.NumVertexes)
		copy(out[vs+dest*StudioVertexSize:vs+(dest+n)*StudioVertexSize], f.data[vs+src*StudioVertexSize:vs+(src+n)*StudioVertexSize])
		copy(out[ts+dest*TangentSize:ts+(dest+n)*TangentSize], f.data[ts+src*TangentSize:ts+(src+n)*TangentSize])
		dest += n
	}
	binary.LittleEndian.PutUint32(out[vvdNumFixupsField:], 0)

	resolved := *f
	resolved.Fixups = nil
	resolved.data = out
	return &resolved, nil
}

// ParseVVDFile parses a vertex file from disk.
func ParseVVDFile(path string) (*VVD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(KindIO, FileVertex, path, err)
	}
	return ParseVVD(data)
}
