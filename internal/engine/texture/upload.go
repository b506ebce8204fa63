// Package texture uploads decoded texture containers to OpenGL.
package texture

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/kohachiro/MashFormMDL/internal/logger"
	"github.com/kohachiro/MashFormMDL/internal/mesh"
	"github.com/kohachiro/MashFormMDL/pkg/formats"
)

// EXT_texture_compression_s3tc enums, absent from the core profile bindings.
const (
	compressedRGBS3TCDXT1  = 0x83F0
	compressedRGBAS3TCDXT1 = 0x83F1
	compressedRGBAS3TCDXT3 = 0x83F2
	compressedRGBAS3TCDXT5 = 0x83F3
)

// glFormat describes how an image format is handed to OpenGL.
type glFormat struct {
	internal   uint32
	format     uint32 // pixel format, uncompressed only
	xtype      uint32 // pixel type, uncompressed only
	compressed bool
}

var glFormats = map[formats.ImageFormat]glFormat{
	formats.ImageFormatDXT1:            {internal: compressedRGBS3TCDXT1, compressed: true},
	formats.ImageFormatDXT1OneBitAlpha: {internal: compressedRGBAS3TCDXT1, compressed: true},
	formats.ImageFormatDXT3:            {internal: compressedRGBAS3TCDXT3, compressed: true},
	formats.ImageFormatDXT5:            {internal: compressedRGBAS3TCDXT5, compressed: true},

	formats.ImageFormatRGBA8888:      {internal: gl.RGBA8, format: gl.RGBA, xtype: gl.UNSIGNED_BYTE},
	formats.ImageFormatBGRA8888:      {internal: gl.RGBA8, format: gl.BGRA, xtype: gl.UNSIGNED_BYTE},
	formats.ImageFormatBGRX8888:      {internal: gl.RGB8, format: gl.BGRA, xtype: gl.UNSIGNED_BYTE},
	formats.ImageFormatRGB888:        {internal: gl.RGB8, format: gl.RGB, xtype: gl.UNSIGNED_BYTE},
	formats.ImageFormatBGR888:        {internal: gl.RGB8, format: gl.BGR, xtype: gl.UNSIGNED_BYTE},
	formats.ImageFormatRGB565:        {internal: gl.RGB8, format: gl.RGB, xtype: gl.UNSIGNED_SHORT_5_6_5},
	formats.ImageFormatBGR565:        {internal: gl.RGB8, format: gl.RGB, xtype: gl.UNSIGNED_SHORT_5_6_5_REV},
	formats.ImageFormatBGRA4444:      {internal: gl.RGBA4, format: gl.BGRA, xtype: gl.UNSIGNED_SHORT_4_4_4_4_REV},
	formats.ImageFormatBGRA5551:      {internal: gl.RGB5_A1, format: gl.BGRA, xtype: gl.UNSIGNED_SHORT_1_5_5_5_REV},
	formats.ImageFormatI8:            {internal: gl.R8, format: gl.RED, xtype: gl.UNSIGNED_BYTE},
	formats.ImageFormatIA88:          {internal: gl.RG8, format: gl.RG, xtype: gl.UNSIGNED_BYTE},
	formats.ImageFormatUV88:          {internal: gl.RG8, format: gl.RG, xtype: gl.UNSIGNED_BYTE},
	formats.ImageFormatRGBA16161616F: {internal: gl.RGBA16F, format: gl.RGBA, xtype: gl.HALF_FLOAT},
}

func lookupFormat(f formats.ImageFormat) (glFormat, error) {
	gf, ok := glFormats[f]
	if !ok {
		return glFormat{}, fmt.Errorf("image format %s has no GL upload path", f)
	}
	return gf, nil
}

// GLUploader uploads texture mips into OpenGL 2D textures. Handles are GL
// texture names, so they stay unique while the texture lives. It must be used
// on the goroutine that owns the GL context.
type GLUploader struct {
	textures map[mesh.TextureHandle]struct{}
	log      *zap.Logger
}

// NewGLUploader creates an uploader. A GL context must be current.
func NewGLUploader() *GLUploader {
	return &GLUploader{
		textures: make(map[mesh.TextureHandle]struct{}),
		log:      logger.Named("texture"),
	}
}

// CreateTexture allocates a 2D texture sized for the mip chain of tex.
func (u *GLUploader) CreateTexture(tex *formats.VTF) (mesh.TextureHandle, error) {
	if _, err := lookupFormat(tex.Format); err != nil {
		return 0, err
	}

	var name uint32
	gl.GenTextures(1, &name)
	if name == 0 {
		return 0, fmt.Errorf("glGenTextures returned no name (gl error 0x%x)", gl.GetError())
	}
	gl.BindTexture(gl.TEXTURE_2D, name)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, int32(tex.MipCount-1))
	minFilter := int32(gl.LINEAR)
	if tex.MipCount > 1 {
		minFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)

	h := mesh.TextureHandle(name)
	u.textures[h] = struct{}{}
	u.log.Debug("created texture",
		zap.Uint32("name", name),
		zap.Stringer("format", tex.Format),
		zap.Int("width", tex.Width),
		zap.Int("height", tex.Height))
	return h, nil
}

// UploadMip uploads mip level of the first frame of tex into texture h.
func (u *GLUploader) UploadMip(h mesh.TextureHandle, tex *formats.VTF, level int) error {
	if _, ok := u.textures[h]; !ok {
		return fmt.Errorf("texture %d was not created by this uploader", h)
	}
	gf, err := lookupFormat(tex.Format)
	if err != nil {
		return err
	}
	mip, err := tex.Level(level)
	if err != nil {
		return err
	}
	data := mip.Frames[0]

	gl.BindTexture(gl.TEXTURE_2D, uint32(h))
	if gf.compressed {
		gl.CompressedTexImage2D(gl.TEXTURE_2D, int32(level), gf.internal,
			int32(mip.Width), int32(mip.Height), 0, int32(len(data)), gl.Ptr(data))
	} else {
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
		gl.TexImage2D(gl.TEXTURE_2D, int32(level), int32(gf.internal),
			int32(mip.Width), int32(mip.Height), 0, gf.format, gf.xtype, gl.Ptr(data))
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("uploading mip %d (%dx%d %s): gl error 0x%x", level, mip.Width, mip.Height, tex.Format, code)
	}
	return nil
}

// Texture returns the GL texture name for h.
func (u *GLUploader) Texture(h mesh.TextureHandle) (uint32, bool) {
	_, ok := u.textures[h]
	return uint32(h), ok
}

// Release deletes texture h.
func (u *GLUploader) Release(h mesh.TextureHandle) {
	if _, ok := u.textures[h]; !ok {
		return
	}
	name := uint32(h)
	gl.DeleteTextures(1, &name)
	delete(u.textures, h)
}

// Close deletes every texture created by the uploader.
func (u *GLUploader) Close() {
	for h := range u.textures {
		u.Release(h)
	}
}
