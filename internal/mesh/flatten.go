package mesh

import (
	"fmt"

	"github.com/kohachiro/MashFormMDL/pkg/formats"
)

// Flatten merges LOD lod of body part 0, model 0 into flat buffers.
//
// Every strip group becomes one subset. Its vertex descriptors are appended in
// order, fetching raw vertex VertexOffset+OrigMeshVertID of the owning studio
// mesh, and its triangle list is rebased onto the first appended vertex. The
// vertex file must already be in mesh order (see formats.VVD.ResolveFixups).
func Flatten(mdl *formats.MDL, vtx *formats.VTX, vvd *formats.VVD, lod int) (*Geometry, error) {
	model, err := studioModel(mdl)
	if err != nil {
		return nil, err
	}
	stripLOD, err := vtx.LOD(lod)
	if err != nil {
		return nil, err
	}
	if len(stripLOD.Meshes) < len(model.Meshes) {
		return nil, formats.NewError(formats.KindRange, formats.FileStrip, "meshes",
			fmt.Errorf("lod %d has %d meshes, studio model has %d", lod, len(stripLOD.Meshes), len(model.Meshes)))
	}

	g := &Geometry{}
	base := 0
	subset := 0
	for k := range model.Meshes {
		studioMesh := &model.Meshes[k]
		material := mdl.SkinTexture(0, studioMesh.Material)

		for j := range stripLOD.Meshes[k].StripGroups {
			group := &stripLOD.Meshes[k].StripGroups[j]
			field := fmt.Sprintf("mesh %d strip group %d", k, j)

			if len(group.Indices)%3 != 0 {
				return nil, formats.NewError(formats.KindRange, formats.FileStrip, field,
					fmt.Errorf("%d indices is not a triangle list", len(group.Indices)))
			}
			if base+len(group.Vertices) > MaxVertices {
				return nil, formats.NewError(formats.KindRange, formats.FileStrip, field,
					fmt.Errorf("%d vertices exceed 16-bit indices", base+len(group.Vertices)))
			}

			for _, sv := range group.Vertices {
				v, err := flatVertex(vvd, studioMesh, sv)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", field, err)
				}
				g.Vertices = append(g.Vertices, v)
			}

			start := len(g.Indices)
			for t := 0; t < len(group.Indices); t += 3 {
				for _, idx := range group.Indices[t : t+3] {
					if int(idx) >= len(group.Vertices) {
						return nil, formats.NewError(formats.KindRange, formats.FileStrip, field,
							fmt.Errorf("index %d outside %d vertices", idx, len(group.Vertices)))
					}
					g.Indices = append(g.Indices, uint16(base+int(idx)))
				}
				g.Attributes = append(g.Attributes, uint32(subset))
			}

			g.Subsets = append(g.Subsets, Subset{
				ID:         subset,
				Mesh:       k,
				StripGroup: j,
				Material:   material,
				IndexStart: start,
				IndexCount: len(g.Indices) - start,
			})
			base = len(g.Vertices)
			subset++
		}
	}

	g.Bounds = computeBounds(g.Vertices)
	return g, nil
}

func studioModel(mdl *formats.MDL) (*formats.MDLModel, error) {
	if len(mdl.BodyParts) == 0 || len(mdl.BodyParts[0].Models) == 0 {
		return nil, formats.NewError(formats.KindRange, formats.FileStudio, "body part 0 model 0", fmt.Errorf("missing"))
	}
	return &mdl.BodyParts[0].Models[0], nil
}

// flatVertex builds the vertex for one strip-group descriptor. Tangents are
// indexed by the mesh-local vertex id.
func flatVertex(vvd *formats.VVD, studioMesh *formats.MDLMesh, sv formats.StripVertex) (Vertex, error) {
	raw, err := vvd.Vertex(int(studioMesh.VertexOffset) + int(sv.OrigMeshVertID))
	if err != nil {
		return Vertex{}, err
	}
	tangent, err := vvd.Tangent(int(sv.OrigMeshVertID))
	if err != nil {
		return Vertex{}, err
	}
	bw := raw.BoneWeights
	return Vertex{
		Weights:  bw.Weights,
		Bones:    [4]uint8{bw.Bones[0], bw.Bones[1], bw.Bones[2], bw.NumBones},
		Position: raw.Position,
		Normal:   raw.Normal,
		TexCoord: raw.TexCoord,
		Tangent:  tangent,
	}, nil
}

func computeBounds(vertices []Vertex) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		for axis := range 3 {
			b.Min[axis] = min(b.Min[axis], v.Position[axis])
			b.Max[axis] = max(b.Max[axis], v.Position[axis])
		}
	}
	return b
}
