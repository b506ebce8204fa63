package formats

import (
	"fmt"
	"os"
)

// Strip file identification.
const (
	StripVersion = 7

	vtxHeaderSize     = 36
	vtxBodyPartSize   = 8
	vtxModelSize      = 8
	vtxLODSize        = 12
	vtxMeshSize       = 9
	vtxStripGroupSize = 25
	vtxStripSize      = 27
	StripVertexSize   = 9
	stripIndexSize    = 2
)

// StripVertex maps a strip-group vertex to a vertex of its studio mesh.
type StripVertex struct {
	BoneWeightIndex [3]uint8
	NumBones        uint8
	OrigMeshVertID  uint16
	BoneID          [3]int8
}

// Strip describes a run of the owning strip group's indices and vertices.
type Strip struct {
	NumIndices  int32
	IndexOffset int32
	NumVerts    int32
	VertOffset  int32
	NumBones    int16
	Flags       uint8
}

// StripGroup holds a vertex list and a triangle index list local to that list.
type StripGroup struct {
	Flags    uint8
	Vertices []StripVertex
	Indices  []uint16
	Strips   []Strip
}

// VTXMesh is the strip-file counterpart of a studio mesh.
type VTXMesh struct {
	Flags       uint8
	StripGroups []StripGroup
}

// VTXLOD is one level of detail of a model.
type VTXLOD struct {
	SwitchPoint float32
	Meshes      []VTXMesh
}

// VTXModel lists the LODs of a model.
type VTXModel struct {
	LODs []VTXLOD
}

// VTXBodyPart lists the models of a body part.
type VTXBodyPart struct {
	Models []VTXModel
}

// VTX is a parsed strip file.
type VTX struct {
	Version          int32
	VertCacheSize    int32
	MaxBonesPerStrip uint16
	MaxBonesPerTri   uint16
	MaxBonesPerVert  int32
	Checksum         int32
	NumLODs          int32
	BodyParts        []VTXBodyPart
}

// ParseVTX parses a strip file from raw bytes, walking the full
// body part / model / LOD / mesh / strip group hierarchy.
func ParseVTX(data []byte) (*VTX, error) {
	v := view{file: FileStrip, data: data}
	hdr, err := v.record(0, vtxHeaderSize, "header")
	if err != nil {
		return nil, formatError(FileStrip, "header", ErrTruncated)
	}

	x := &VTX{
		Version:          i32(hdr, 0),
		VertCacheSize:    i32(hdr, 4),
		MaxBonesPerStrip: u16(hdr, 8),
		MaxBonesPerTri:   u16(hdr, 10),
		MaxBonesPerVert:  i32(hdr, 12),
		Checksum:         i32(hdr, 16),
		NumLODs:          i32(hdr, 20),
	}
	if x.Version != StripVersion {
		return nil, formatError(FileStrip, "version", fmt.Errorf("got %d, want %d", x.Version, StripVersion))
	}

	count, off := int(i32(hdr, 28)), int(i32(hdr, 32))
	if _, err := v.table(off, count, vtxBodyPartSize, "body part table"); err != nil {
		return nil, err
	}
	x.BodyParts = make([]VTXBodyPart, count)
	for i := range x.BodyParts {
		base := off + i*vtxBodyPartSize
		models, err := parseStripModels(v, int(i32(data, base)), base+int(i32(data, base+4)))
		if err != nil {
			return nil, fmt.Errorf("body part %d: %w", i, err)
		}
		x.BodyParts[i].Models = models
	}

	return x, nil
}

func parseStripModels(v view, count, off int) ([]VTXModel, error) {
	if _, err := v.table(off, count, vtxModelSize, "model table"); err != nil {
		return nil, err
	}
	models := make([]VTXModel, count)
	for i := range models {
		base := off + i*vtxModelSize
		lods, err := parseStripLODs(v, int(i32(v.data, base)), base+int(i32(v.data, base+4)))
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", i, err)
		}
		models[i].LODs = lods
	}
	return models, nil
}

func parseStripLODs(v view, count, off int) ([]VTXLOD, error) {
	if _, err := v.table(off, count, vtxLODSize, "lod table"); err != nil {
		return nil, err
	}
	lods := make([]VTXLOD, count)
	for i := range lods {
		base := off + i*vtxLODSize
		meshes, err := parseStripMeshes(v, int(i32(v.data, base)), base+int(i32(v.data, base+4)))
		if err != nil {
			return nil, fmt.Errorf("lod %d: %w", i, err)
		}
		lods[i] = VTXLOD{SwitchPoint: f32(v.data, base+8), Meshes: meshes}
	}
	return lods, nil
}

func parseStripMeshes(v view, count, off int) ([]VTXMesh, error) {
	if _, err := v.table(off, count, vtxMeshSize, "mesh table"); err != nil {
		return nil, err
	}
	meshes := make([]VTXMesh, count)
	for i := range meshes {
		base := off + i*vtxMeshSize
		groups, err := parseStripGroups(v, int(i32(v.data, base)), base+int(i32(v.data, base+4)))
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		meshes[i] = VTXMesh{Flags: v.data[base+8], StripGroups: groups}
	}
	return meshes, nil
}

func parseStripGroups(v view, count, off int) ([]StripGroup, error) {
	if _, err := v.table(off, count, vtxStripGroupSize, "strip group table"); err != nil {
		return nil, err
	}
	groups := make([]StripGroup, count)
	for i := range groups {
		base := off + i*vtxStripGroupSize
		rec := v.data[base : base+vtxStripGroupSize]
		field := fmt.Sprintf("strip group %d", i)

		numVerts, vertOff := int(i32(rec, 0)), base+int(i32(rec, 4))
		verts, err := v.table(vertOff, numVerts, StripVertexSize, field+" vertices")
		if err != nil {
			return nil, err
		}
		numIndices, indexOff := int(i32(rec, 8)), base+int(i32(rec, 12))
		indices, err := v.table(indexOff, numIndices, stripIndexSize, field+" indices")
		if err != nil {
			return nil, err
		}
		numStrips, stripOff := int(i32(rec, 16)), base+int(i32(rec, 20))
		strips, err := v.table(stripOff, numStrips, vtxStripSize, field+" strips")
		if err != nil {
			return nil, err
		}

		g := StripGroup{
			Flags:    rec[24],
			Vertices: make([]StripVertex, numVerts),
			Indices:  make([]uint16, numIndices),
			Strips:   make([]Strip, numStrips),
		}
		for j := range g.Vertices {
			r := verts[j*StripVertexSize:]
			g.Vertices[j] = StripVertex{
				BoneWeightIndex: [3]uint8{r[0], r[1], r[2]},
				NumBones:        r[3],
				OrigMeshVertID:  u16(r, 4),
				BoneID:          [3]int8{int8(r[6]), int8(r[7]), int8(r[8])},
			}
		}
		for j := range g.Indices {
			g.Indices[j] = u16(indices, j*stripIndexSize)
		}
		for j := range g.Strips {
			r := strips[j*vtxStripSize:]
			g.Strips[j] = Strip{
				NumIndices:  i32(r, 0),
				IndexOffset: i32(r, 4),
				NumVerts:    i32(r, 8),
				VertOffset:  i32(r, 12),
				NumBones:    i16(r, 16),
				Flags:       r[18],
			}
		}
		groups[i] = g
	}
	return groups, nil
}

// LOD returns LOD lod of model 0 in body part 0.
func (x *VTX) LOD(lod int) (*VTXLOD, error) {
	if len(x.BodyParts) == 0 || len(x.BodyParts[0].Models) == 0 {
		return nil, rangeError(FileStrip, "body part 0 model 0", fmt.Errorf("missing"))
	}
	lods := x.BodyParts[0].Models[0].LODs
	if lod < 0 || lod >= len(lods) {
		return nil, rangeError(FileStrip, "lod", fmt.Errorf("index %d outside %d lods", lod, len(lods)))
	}
	return &lods[lod], nil
}

// ParseVTXFile parses a strip file from disk.
func ParseVTXFile(path string) (*VTX, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(KindIO, FileStrip, path, err)
	}
	return ParseVTX(data)
}
