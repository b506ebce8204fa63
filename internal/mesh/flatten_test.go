package mesh

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kohachiro/MashFormMDL/pkg/formats"
	"github.com/kohachiro/MashFormMDL/pkg/formats/formatstest"
)

// testModel returns a model with two meshes: the first holds two strip groups
// (a quad and a triangle), the second a single triangle with reversed winding.
func testModel() formatstest.Model {
	verts := make([]formatstest.Vertex, 10)
	for i := range verts {
		f := float32(i)
		verts[i] = formatstest.Vertex{
			Weights:  [3]float32{1, 0, 0},
			Bones:    [3]uint8{uint8(i), 0, 0},
			NumBones: 1,
			Position: [3]float32{f, f * 2, f * 3},
			Normal:   [3]float32{0, 0, 1},
			TexCoord: [2]float32{f / 10, 1 - f/10},
		}
	}
	tangents := make([][4]float32, len(verts))
	for i := range tangents {
		tangents[i] = [4]float32{float32(i), 0, 0, -1}
	}
	return formatstest.Model{
		Checksum:     0x1234abcd,
		Textures:     []string{"Body", "eyes"},
		CDTextures:   []string{"models\\props\\", "models/shared/"},
		SkinFamilies: [][]int16{{1, 0}, {0, 0}},
		Meshes: []formatstest.Mesh{
			{
				Material: 1, VertexOffset: 0, NumVertices: 7,
				StripGroups: []formatstest.StripGroup{
					{OrigIDs: []uint16{0, 1, 2, 3}, Indices: []uint16{0, 1, 2, 0, 2, 3}},
					{OrigIDs: []uint16{4, 5, 6}, Indices: []uint16{0, 1, 2}},
				},
			},
			{
				Material: 0, VertexOffset: 7, NumVertices: 3,
				StripGroups: []formatstest.StripGroup{
					{OrigIDs: []uint16{0, 1, 2}, Indices: []uint16{2, 1, 0}},
				},
			},
		},
		Vertices: verts,
		Tangents: tangents,
	}
}

func parseModel(t *testing.T, m formatstest.Model) (*formats.MDL, *formats.VTX, *formats.VVD) {
	t.Helper()
	mdlData, vtxData, vvdData := m.Files()

	mdl, err := formats.ParseMDL(mdlData)
	if err != nil {
		t.Fatalf("ParseMDL failed: %v", err)
	}
	vtx, err := formats.ParseVTX(vtxData)
	if err != nil {
		t.Fatalf("ParseVTX failed: %v", err)
	}
	vvd, err := formats.ParseVVD(vvdData)
	if err != nil {
		t.Fatalf("ParseVVD failed: %v", err)
	}
	return mdl, vtx, vvd
}

func flatten(t *testing.T, m formatstest.Model) (*Geometry, error) {
	t.Helper()
	mdl, vtx, vvd := parseModel(t, m)
	return Flatten(mdl, vtx, vvd, 0)
}

func TestFlatten_StripGroups(t *testing.T) {
	g, err := flatten(t, testModel())
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	if len(g.Vertices) != 10 {
		t.Fatalf("expected 10 vertices, got %d", len(g.Vertices))
	}

	wantIndices := []uint16{0, 1, 2, 0, 2, 3, 4, 5, 6, 9, 8, 7}
	if len(g.Indices) != len(wantIndices) {
		t.Fatalf("expected %d indices, got %d", len(wantIndices), len(g.Indices))
	}
	for i, want := range wantIndices {
		if g.Indices[i] != want {
			t.Errorf("index %d: expected %d, got %d", i, want, g.Indices[i])
		}
	}

	wantAttributes := []uint32{0, 0, 1, 2}
	if len(g.Attributes) != len(g.Indices)/3 {
		t.Fatalf("expected %d attributes, got %d", len(g.Indices)/3, len(g.Attributes))
	}
	for i, want := range wantAttributes {
		if g.Attributes[i] != want {
			t.Errorf("attribute %d: expected %d, got %d", i, want, g.Attributes[i])
		}
	}

	wantSubsets := []Subset{
		{ID: 0, Mesh: 0, StripGroup: 0, Material: 0, IndexStart: 0, IndexCount: 6},
		{ID: 1, Mesh: 0, StripGroup: 1, Material: 0, IndexStart: 6, IndexCount: 3},
		{ID: 2, Mesh: 1, StripGroup: 0, Material: 1, IndexStart: 9, IndexCount: 3},
	}
	if len(g.Subsets) != len(wantSubsets) {
		t.Fatalf("expected %d subsets, got %d", len(wantSubsets), len(g.Subsets))
	}
	for i, want := range wantSubsets {
		if g.Subsets[i] != want {
			t.Errorf("subset %d: expected %+v, got %+v", i, want, g.Subsets[i])
		}
	}
}

func TestFlatten_VertexAttributes(t *testing.T) {
	g, err := flatten(t, testModel())
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	tests := []struct {
		flat     int
		position mgl32.Vec3
		tangent  mgl32.Vec4
		bone     uint8
	}{
		{0, mgl32.Vec3{0, 0, 0}, mgl32.Vec4{0, 0, 0, -1}, 0},
		{5, mgl32.Vec3{5, 10, 15}, mgl32.Vec4{5, 0, 0, -1}, 5},
		// Second mesh: vertex offset 7, tangent by mesh-local id.
		{7, mgl32.Vec3{7, 14, 21}, mgl32.Vec4{0, 0, 0, -1}, 7},
		{9, mgl32.Vec3{9, 18, 27}, mgl32.Vec4{2, 0, 0, -1}, 9},
	}
	for _, tt := range tests {
		v := g.Vertices[tt.flat]
		if v.Position != tt.position {
			t.Errorf("vertex %d: expected position %v, got %v", tt.flat, tt.position, v.Position)
		}
		if v.Tangent != tt.tangent {
			t.Errorf("vertex %d: expected tangent %v, got %v", tt.flat, tt.tangent, v.Tangent)
		}
		if v.Bones != [4]uint8{tt.bone, 0, 0, 1} {
			t.Errorf("vertex %d: expected bones [%d 0 0 1], got %v", tt.flat, tt.bone, v.Bones)
		}
		if v.Weights != [3]float32{1, 0, 0} {
			t.Errorf("vertex %d: unexpected weights %v", tt.flat, v.Weights)
		}
	}

	if g.Bounds.Min != (mgl32.Vec3{0, 0, 0}) || g.Bounds.Max != (mgl32.Vec3{9, 18, 27}) {
		t.Errorf("unexpected bounds %+v", g.Bounds)
	}
	if c := g.Bounds.Center(); c != (mgl32.Vec3{4.5, 9, 13.5}) {
		t.Errorf("unexpected center %v", c)
	}
}

func TestFlatten_LOD(t *testing.T) {
	m := testModel()
	m.LODs = 2
	mdl, vtx, vvd := parseModel(t, m)

	if _, err := Flatten(mdl, vtx, vvd, 1); err != nil {
		t.Errorf("Flatten lod 1 failed: %v", err)
	}
	for _, lod := range []int{-1, 2} {
		_, err := Flatten(mdl, vtx, vvd, lod)
		if !errors.Is(err, formats.ErrRange) {
			t.Errorf("lod %d: expected ErrRange, got %v", lod, err)
		}
	}
}

func TestFlatten_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*formatstest.Model)
		file   formats.FileKind
	}{
		{
			name: "partial triangle",
			modify: func(m *formatstest.Model) {
				m.Meshes[0].StripGroups[1].Indices = []uint16{0, 1}
			},
			file: formats.FileStrip,
		},
		{
			name: "local index past group",
			modify: func(m *formatstest.Model) {
				m.Meshes[0].StripGroups[1].Indices = []uint16{0, 1, 3}
			},
			file: formats.FileStrip,
		},
		{
			name: "vertex id past vertex file",
			modify: func(m *formatstest.Model) {
				m.Meshes[1].StripGroups[0].OrigIDs = []uint16{0, 1, 3}
			},
			file: formats.FileVertex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel()
			tt.modify(&m)
			_, err := flatten(t, m)
			if !errors.Is(err, formats.ErrRange) {
				t.Fatalf("expected ErrRange, got %v", err)
			}
			var fe *formats.Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *formats.Error, got %T", err)
			}
			if fe.File != tt.file {
				t.Errorf("expected file %s, got %s", tt.file, fe.File)
			}
		})
	}
}

func TestFlatten_TooManyVertices(t *testing.T) {
	m := formatstest.Model{Checksum: 1, Textures: []string{"a"}}
	m.Vertices = make([]formatstest.Vertex, 1)
	ids := make([]uint16, MaxVertices/2+1)
	group := formatstest.StripGroup{OrigIDs: ids, Indices: []uint16{0, 0, 0}}
	m.Meshes = []formatstest.Mesh{{NumVertices: 1, StripGroups: []formatstest.StripGroup{group, group}}}

	_, err := flatten(t, m)
	if !errors.Is(err, formats.ErrRange) {
		t.Errorf("expected ErrRange, got %v", err)
	}
}
