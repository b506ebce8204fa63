package encoding

import (
	"encoding/binary"
	"testing"
)

func utf16(s string, bigEndian bool, bom bool) []byte {
	var out []byte
	order := binary.AppendByteOrder(binary.LittleEndian)
	if bigEndian {
		order = binary.BigEndian
	}
	if bom {
		out = order.AppendUint16(out, 0xFEFF)
	}
	for _, r := range s {
		out = order.AppendUint16(out, uint16(r))
	}
	return out
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"ascii", []byte(`"$alpha" 1`), `"$alpha" 1`},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "wood"...), "wood"},
		{"utf16le bom", utf16(`"UnlitGeneric"`, false, true), `"UnlitGeneric"`},
		{"utf16be bom", utf16(`"UnlitGeneric"`, true, true), `"UnlitGeneric"`},
		{"utf16le no bom", utf16(`$basetexture`, false, false), `$basetexture`},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.data)
			if err != nil {
				t.Fatalf("DecodeText failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`Materials\Models\Props\Crate.VTF`, "materials/models/props/crate.vtf"},
		{"/models//player.mdl", "models/player.mdl"},
		{"models/./a/../b.vmt", "models/b.vmt"},
		{"", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinPath(t *testing.T) {
	got := JoinPath("materials", `models\props\`, "Crate.vmt")
	if got != "materials/models/props/crate.vmt" {
		t.Errorf("unexpected path %q", got)
	}
}

func TestTrimNullString(t *testing.T) {
	if got := TrimNullString([]byte("abc\x00\x00")); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
}
