package formats

import (
	"fmt"
	"os"
)

// Studio file identification.
const (
	StudioID      = 'I' | 'D'<<8 | 'S'<<16 | 'T'<<24 // "IDST"
	StudioVersion = 48

	studioHeaderSize   = 240
	studioTextureSize  = 64
	studioBodyPartSize = 16
	studioModelSize    = 148
	studioMeshSize     = 116
)

// MDLTexture is one entry of the studio texture-name table.
type MDLTexture struct {
	Name  string
	Flags int32
}

// MDLMesh carries the per-mesh vertex metadata the strip file refers to.
type MDLMesh struct {
	Material     int32 // skin reference
	NumVertices  int32
	VertexOffset int32 // first vertex of the mesh in the model's vertex range
	MeshID       int32
	Center       [3]float32
}

// MDLModel is a model inside a body part.
type MDLModel struct {
	Name           string
	Type           int32
	BoundingRadius float32
	NumVertices    int32
	VertexIndex    int32 // byte offset into the vertex file's vertex region
	TangentsIndex  int32
	Meshes         []MDLMesh
}

// MDLBodyPart groups alternative models.
type MDLBodyPart struct {
	Name   string
	Base   int32
	Models []MDLModel
}

// MDL is a parsed studio file header with its texture, skin and body-part tables.
type MDL struct {
	ID       int32
	Version  int32
	Checksum int32
	Name     string
	Length   int32

	Textures     []MDLTexture
	CDTextures   []string  // texture search directories
	SkinFamilies [][]int16 // [family][skinref] -> texture index
	BodyParts    []MDLBodyPart
}

// ParseMDL parses a studio file from raw bytes.
func ParseMDL(data []byte) (*MDL, error) {
	v := view{file: FileStudio, data: data}
	hdr, err := v.record(0, studioHeaderSize, "header")
	if err != nil {
		return nil, formatError(FileStudio, "header", ErrTruncated)
	}

	m := &MDL{
		ID:       i32(hdr, 0),
		Version:  i32(hdr, 4),
		Checksum: i32(hdr, 8),
		Name:     fixedString(hdr[12:76]),
		Length:   i32(hdr, 76),
	}
	if m.ID != StudioID {
		return nil, formatError(FileStudio, "id", fmt.Errorf("got %#x, want %#x", uint32(m.ID), uint32(StudioID)))
	}
	if m.Version != StudioVersion {
		return nil, formatError(FileStudio, "version", fmt.Errorf("got %d, want %d", m.Version, StudioVersion))
	}

	if m.Textures, err = parseStudioTextures(v, int(i32(hdr, 204)), int(i32(hdr, 208))); err != nil {
		return nil, err
	}
	if m.CDTextures, err = parseCDTextures(v, int(i32(hdr, 212)), int(i32(hdr, 216))); err != nil {
		return nil, err
	}
	if m.SkinFamilies, err = parseSkinFamilies(v, int(i32(hdr, 224)), int(i32(hdr, 220)), int(i32(hdr, 228))); err != nil {
		return nil, err
	}
	if m.BodyParts, err = parseStudioBodyParts(v, int(i32(hdr, 232)), int(i32(hdr, 236))); err != nil {
		return nil, err
	}

	return m, nil
}

func parseStudioTextures(v view, count, off int) ([]MDLTexture, error) {
	if _, err := v.table(off, count, studioTextureSize, "texture table"); err != nil {
		return nil, err
	}
	textures := make([]MDLTexture, count)
	for i := range textures {
		base := off + i*studioTextureSize
		rec := v.data[base : base+studioTextureSize]
		name, err := v.cstring(base+int(i32(rec, 0)), fmt.Sprintf("texture %d name", i))
		if err != nil {
			return nil, err
		}
		textures[i] = MDLTexture{Name: name, Flags: i32(rec, 4)}
	}
	return textures, nil
}

func parseCDTextures(v view, count, off int) ([]string, error) {
	tbl, err := v.table(off, count, 4, "cdtexture table")
	if err != nil {
		return nil, err
	}
	dirs := make([]string, count)
	for i := range dirs {
		if dirs[i], err = v.cstring(int(i32(tbl, i*4)), fmt.Sprintf("cdtexture %d", i)); err != nil {
			return nil, err
		}
	}
	return dirs, nil
}

func parseSkinFamilies(v view, families, refs, off int) ([][]int16, error) {
	if families <= 0 || refs <= 0 {
		return nil, nil
	}
	if _, err := v.table(off, families, refs*2, "skin table"); err != nil {
		return nil, err
	}
	skins := make([][]int16, families)
	for f := range skins {
		skins[f] = make([]int16, refs)
		for r := range skins[f] {
			skins[f][r] = i16(v.data, off+(f*refs+r)*2)
		}
	}
	return skins, nil
}

func parseStudioBodyParts(v view, count, off int) ([]MDLBodyPart, error) {
	if _, err := v.table(off, count, studioBodyPartSize, "body part table"); err != nil {
		return nil, err
	}
	parts := make([]MDLBodyPart, count)
	for i := range parts {
		base := off + i*studioBodyPartSize
		rec := v.data[base : base+studioBodyPartSize]
		name, err := v.cstring(base+int(i32(rec, 0)), fmt.Sprintf("body part %d name", i))
		if err != nil {
			return nil, err
		}
		models, err := parseStudioModels(v, int(i32(rec, 4)), base+int(i32(rec, 12)))
		if err != nil {
			return nil, fmt.Errorf("body part %d: %w", i, err)
		}
		parts[i] = MDLBodyPart{Name: name, Base: i32(rec, 8), Models: models}
	}
	return parts, nil
}

func parseStudioModels(v view, count, off int) ([]MDLModel, error) {
	if _, err := v.table(off, count, studioModelSize, "model table"); err != nil {
		return nil, err
	}
	models := make([]MDLModel, count)
	for i := range models {
		base := off + i*studioModelSize
		rec := v.data[base : base+studioModelSize]
		meshes, err := parseStudioMeshes(v, int(i32(rec, 72)), base+int(i32(rec, 76)))
		if err != nil {
			return nil, fmt.Errorf("model %d: %w", i, err)
		}
		models[i] = MDLModel{
			Name:           fixedString(rec[0:64]),
			Type:           i32(rec, 64),
			BoundingRadius: f32(rec, 68),
			NumVertices:    i32(rec, 80),
			VertexIndex:    i32(rec, 84),
			TangentsIndex:  i32(rec, 88),
			Meshes:         meshes,
		}
	}
	return models, nil
}

func parseStudioMeshes(v view, count, off int) ([]MDLMesh, error) {
	tbl, err := v.table(off, count, studioMeshSize, "mesh table")
	if err != nil {
		return nil, err
	}
	meshes := make([]MDLMesh, count)
	for i := range meshes {
		rec := tbl[i*studioMeshSize:]
		meshes[i] = MDLMesh{
			Material:     i32(rec, 0),
			NumVertices:  i32(rec, 8),
			VertexOffset: i32(rec, 12),
			MeshID:       i32(rec, 32),
			Center:       [3]float32{f32(rec, 36), f32(rec, 40), f32(rec, 44)},
		}
	}
	return meshes, nil
}

// SkinTexture maps a mesh skin reference to a texture index through a skin family.
// Without a skin table the reference is the texture index.
func (m *MDL) SkinTexture(family int, ref int32) int {
	if family < 0 || family >= len(m.SkinFamilies) {
		return int(ref)
	}
	refs := m.SkinFamilies[family]
	if ref < 0 || int(ref) >= len(refs) {
		return int(ref)
	}
	return int(refs[ref])
}

// ParseMDLFile parses a studio file from disk.
func ParseMDLFile(path string) (*MDL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(KindIO, FileStudio, path, err)
	}
	return ParseMDL(data)
}
