package formats

import (
	"errors"
	"testing"
)

func TestParseVTX_ValidFile(t *testing.T) {
	m := testModel()
	m.LODs = 2
	x, err := ParseVTX(m.VTX())
	if err != nil {
		t.Fatalf("ParseVTX failed: %v", err)
	}

	if x.Version != StripVersion {
		t.Errorf("expected version %d, got %d", StripVersion, x.Version)
	}
	if x.Checksum != 0x1234abcd {
		t.Errorf("expected checksum 0x1234abcd, got %#x", x.Checksum)
	}
	if x.NumLODs != 2 {
		t.Errorf("expected 2 LODs, got %d", x.NumLODs)
	}

	lod, err := x.LOD(1)
	if err != nil {
		t.Fatalf("LOD(1) failed: %v", err)
	}
	if lod.SwitchPoint != 10 {
		t.Errorf("expected switch point 10, got %v", lod.SwitchPoint)
	}
	if len(lod.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(lod.Meshes))
	}

	groups := lod.Meshes[0].StripGroups
	if len(groups) != 2 {
		t.Fatalf("expected 2 strip groups, got %d", len(groups))
	}
	b := groups[1]
	if len(b.Vertices) != 3 || len(b.Indices) != 3 {
		t.Fatalf("expected 3 vertices and 3 indices, got %d and %d", len(b.Vertices), len(b.Indices))
	}
	for i, want := range []uint16{4, 5, 6} {
		if b.Vertices[i].OrigMeshVertID != want {
			t.Errorf("vertex %d: expected orig id %d, got %d", i, want, b.Vertices[i].OrigMeshVertID)
		}
	}
	if len(b.Strips) != 1 || b.Strips[0].NumIndices != 3 || b.Strips[0].NumVerts != 3 {
		t.Errorf("unexpected strips %+v", b.Strips)
	}

	a := groups[0]
	want := []uint16{0, 1, 2, 0, 2, 3}
	for i := range want {
		if a.Indices[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], a.Indices[i])
		}
	}
}

func TestVTX_LODOutOfRange(t *testing.T) {
	x, err := ParseVTX(testModel().VTX())
	if err != nil {
		t.Fatalf("ParseVTX failed: %v", err)
	}
	for _, lod := range []int{-1, 1, 8} {
		if _, err := x.LOD(lod); !errors.Is(err, ErrRange) {
			t.Errorf("LOD(%d): expected range error, got %v", lod, err)
		}
	}
}

func TestParseVTX_Invalid(t *testing.T) {
	valid := testModel().VTX()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"truncated", valid[:20], ErrTruncated},
		{"bad version", patch32(valid, 0, 6), ErrFormatMismatch},
		{"body part table outside file", patch32(valid, 32, int32(len(valid))), ErrRange},
		{"too many body parts", patch32(valid, 28, 1<<24), ErrRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseVTX(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
