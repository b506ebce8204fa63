// Package mesh flattens decoded studio models into renderer-ready buffers and
// resolves their materials and textures.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kohachiro/MashFormMDL/pkg/formats"
)

// MaxVertices is the largest vertex count addressable by 16-bit indices.
const MaxVertices = 1 << 16

// Vertex is a flattened mesh vertex.
type Vertex struct {
	Weights  [3]float32
	Bones    [4]uint8 // three bone indices, then the bone count
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
	Tangent  mgl32.Vec4
}

// Subset is the run of triangles produced by one strip group.
type Subset struct {
	ID         int
	Mesh       int // studio mesh index
	StripGroup int
	Material   int // texture table index through skin family 0
	IndexStart int
	IndexCount int
}

// Bounds holds the axis-aligned bounding box of the vertices.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent on each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Geometry holds the flat vertex, index and attribute buffers of one LOD.
// Attributes carries one subset id per triangle.
type Geometry struct {
	Vertices   []Vertex
	Indices    []uint16
	Attributes []uint32
	Subsets    []Subset
	Bounds     Bounds
}

// NumTriangles returns the triangle count.
func (g *Geometry) NumTriangles() int {
	return len(g.Indices) / 3
}

// TextureID indexes Mesh.Textures.
type TextureID int

// NoTexture marks a material without a texture.
const NoTexture TextureID = -1

// Material is a resolved material script.
type Material struct {
	Name        string // $basetexture value
	Shader      formats.ShaderName
	Script      string // path of the .vmt
	TexturePath string // resolved .vtf path, empty without a base texture
	Properties  map[formats.ShaderProperty]string

	// Texture is shared by every material with the same TexturePath.
	// Only the material that loaded it owns it.
	Texture     TextureID
	OwnsTexture bool
}

// Texture is a decoded texture container loaded once per path.
type Texture struct {
	Path   string
	Image  *formats.VTF
	Owner  int           // index of the owning material
	Handle TextureHandle // uploader handle, zero when not uploaded
}

// Mesh is a fully assembled model.
type Mesh struct {
	Geometry

	Name      string
	Materials []Material
	Textures  []Texture
}

// Texture returns the texture of material i, if any.
func (m *Mesh) Texture(material int) (*Texture, bool) {
	if material < 0 || material >= len(m.Materials) {
		return nil, false
	}
	id := m.Materials[material].Texture
	if id == NoTexture {
		return nil, false
	}
	return &m.Textures[id], true
}
