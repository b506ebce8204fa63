package formats

import "fmt"

// ImageFormat is the pixel format of a texture container.
type ImageFormat int32

// Image formats.
const (
	ImageFormatNone ImageFormat = -1

	ImageFormatRGBA8888 ImageFormat = iota - 1
	ImageFormatABGR8888
	ImageFormatRGB888
	ImageFormatBGR888
	ImageFormatRGB565
	ImageFormatI8
	ImageFormatIA88
	ImageFormatP8
	ImageFormatA8
	ImageFormatRGB888Bluescreen
	ImageFormatBGR888Bluescreen
	ImageFormatARGB8888
	ImageFormatBGRA8888
	ImageFormatDXT1
	ImageFormatDXT3
	ImageFormatDXT5
	ImageFormatBGRX8888
	ImageFormatBGR565
	ImageFormatBGRX5551
	ImageFormatBGRA4444
	ImageFormatDXT1OneBitAlpha
	ImageFormatBGRA5551
	ImageFormatUV88
	ImageFormatUVWQ8888
	ImageFormatRGBA16161616F

	numImageFormats
)

// ImageFormatInfo describes the storage of one image format.
type ImageFormatInfo struct {
	Name                         string
	BytesPerPixel                int // zero for block-compressed formats
	RedBits, GreenBits, BlueBits int
	AlphaBits                    int
	Compressed                   bool
}

var imageFormats = [numImageFormats]ImageFormatInfo{
	ImageFormatRGBA8888:         {"RGBA8888", 4, 8, 8, 8, 8, false},
	ImageFormatABGR8888:         {"ABGR8888", 4, 8, 8, 8, 8, false},
	ImageFormatRGB888:           {"RGB888", 3, 8, 8, 8, 0, false},
	ImageFormatBGR888:           {"BGR888", 3, 8, 8, 8, 0, false},
	ImageFormatRGB565:           {"RGB565", 2, 5, 6, 5, 0, false},
	ImageFormatI8:               {"I8", 1, 0, 0, 0, 0, false},
	ImageFormatIA88:             {"IA88", 2, 0, 0, 0, 8, false},
	ImageFormatP8:               {"P8", 1, 0, 0, 0, 0, false},
	ImageFormatA8:               {"A8", 1, 0, 0, 0, 8, false},
	ImageFormatRGB888Bluescreen: {"RGB888_BLUESCREEN", 3, 8, 8, 8, 0, false},
	ImageFormatBGR888Bluescreen: {"BGR888_BLUESCREEN", 3, 8, 8, 8, 0, false},
	ImageFormatARGB8888:         {"ARGB8888", 4, 8, 8, 8, 8, false},
	ImageFormatBGRA8888:         {"BGRA8888", 4, 8, 8, 8, 8, false},
	ImageFormatDXT1:             {"DXT1", 0, 0, 0, 0, 0, true},
	ImageFormatDXT3:             {"DXT3", 0, 0, 0, 0, 8, true},
	ImageFormatDXT5:             {"DXT5", 0, 0, 0, 0, 8, true},
	ImageFormatBGRX8888:         {"BGRX8888", 4, 8, 8, 8, 0, false},
	ImageFormatBGR565:           {"BGR565", 2, 5, 6, 5, 0, false},
	ImageFormatBGRX5551:         {"BGRX5551", 2, 5, 5, 5, 0, false},
	ImageFormatBGRA4444:         {"BGRA4444", 2, 4, 4, 4, 4, false},
	ImageFormatDXT1OneBitAlpha:  {"DXT1_ONEBITALPHA", 0, 0, 0, 0, 1, true},
	ImageFormatBGRA5551:         {"BGRA5551", 2, 5, 5, 5, 1, false},
	ImageFormatUV88:             {"UV88", 2, 8, 8, 0, 0, false},
	ImageFormatUVWQ8888:         {"UVWQ8888", 4, 8, 8, 8, 8, false},
	ImageFormatRGBA16161616F:    {"RGBA16161616F", 8, 16, 16, 16, 16, false},
}

// Valid reports whether f is a known format.
func (f ImageFormat) Valid() bool {
	return f >= 0 && f < numImageFormats
}

// Info returns the storage description of f.
func (f ImageFormat) Info() (ImageFormatInfo, bool) {
	if !f.Valid() {
		return ImageFormatInfo{}, false
	}
	return imageFormats[f], true
}

func (f ImageFormat) String() string {
	if f == ImageFormatNone {
		return "NONE"
	}
	if !f.Valid() {
		return fmt.Sprintf("ImageFormat(%d)", int32(f))
	}
	return imageFormats[f].Name
}

// IsCompressed reports whether f is a block-compressed format.
func (f ImageFormat) IsCompressed() bool {
	return f.Valid() && imageFormats[f].Compressed
}

// blockSize returns the byte size of one 4x4 block, or zero for uncompressed formats.
func (f ImageFormat) blockSize() int {
	switch f {
	case ImageFormatDXT1, ImageFormatDXT1OneBitAlpha:
		return 8
	case ImageFormatDXT3, ImageFormatDXT5:
		return 16
	}
	return 0
}

// MemRequired returns the byte size of a single w x h image of format f.
// Block-compressed images are padded up to whole 4x4 blocks.
func (f ImageFormat) MemRequired(w, h int) int {
	if w <= 0 || h <= 0 || !f.Valid() {
		return 0
	}
	if bs := f.blockSize(); bs > 0 {
		bw, bh := max(w, 4), max(h, 4)
		return (bw * bh / 16) * bs
	}
	return w * h * imageFormats[f].BytesPerPixel
}

// MipChainSize returns the size of a full chain of mips levels starting at w x h.
func MipChainSize(w, h int, format ImageFormat, mips int) int {
	total := 0
	for level := range mips {
		total += format.MemRequired(mipDim(w, level), mipDim(h, level))
	}
	return total
}

func mipDim(n, level int) int {
	return max(1, n>>level)
}
