package texture

import (
	"testing"

	"github.com/kohachiro/MashFormMDL/internal/mesh"
	"github.com/kohachiro/MashFormMDL/pkg/formats"
)

var (
	_ mesh.TextureUploader = (*GLUploader)(nil)
	_ mesh.TextureReleaser = (*GLUploader)(nil)
)

func TestLookupFormat(t *testing.T) {
	tests := []struct {
		format     formats.ImageFormat
		internal   uint32
		compressed bool
	}{
		{formats.ImageFormatDXT1, 0x83F0, true},
		{formats.ImageFormatDXT1OneBitAlpha, 0x83F1, true},
		{formats.ImageFormatDXT3, 0x83F2, true},
		{formats.ImageFormatDXT5, 0x83F3, true},
		{formats.ImageFormatBGRA8888, 0x8058, false}, // GL_RGBA8
		{formats.ImageFormatBGR888, 0x8051, false},   // GL_RGB8
	}
	for _, tt := range tests {
		gf, err := lookupFormat(tt.format)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.format, err)
			continue
		}
		if gf.internal != tt.internal || gf.compressed != tt.compressed {
			t.Errorf("%s: expected internal %#x compressed %v, got %#x %v",
				tt.format, tt.internal, tt.compressed, gf.internal, gf.compressed)
		}
	}
}

func TestLookupFormat_Unsupported(t *testing.T) {
	for _, f := range []formats.ImageFormat{formats.ImageFormatP8, formats.ImageFormatUVWQ8888, formats.ImageFormatNone} {
		if _, err := lookupFormat(f); err == nil {
			t.Errorf("%s: expected error", f)
		}
	}
}

func TestLookupFormat_CompressedMatchesBlockFormats(t *testing.T) {
	for f, gf := range glFormats {
		if gf.compressed != f.IsCompressed() {
			t.Errorf("%s: GL compressed %v, container compressed %v", f, gf.compressed, f.IsCompressed())
		}
		if !gf.compressed && (gf.format == 0 || gf.xtype == 0) {
			t.Errorf("%s: missing pixel format or type", f)
		}
	}
}
