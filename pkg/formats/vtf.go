package formats

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// Texture container identification.
const (
	VTFSignature    = "VTF\x00"
	VTFMajorVersion = 7

	vtfMinHeaderSize   = 64
	vtfResourceEntry   = 8
	vtfResourceListOff = 80

	// ResourceHighRes tags the pixel payload in the 7.3+ resource list.
	ResourceHighRes = 0x30
	// ResourceLowRes tags the thumbnail in the 7.3+ resource list.
	ResourceLowRes = 0x01
)

// Texture flags that change the payload layout.
const (
	TextureFlagEnvMap uint32 = 0x00004000
)

// MipLevel is one mip level of every frame of a texture.
type MipLevel struct {
	Width  int
	Height int
	Frames [][]byte // frame-indexed pixel data in the container's format
}

// VTF is a parsed texture container.
type VTF struct {
	Version      [2]uint32
	HeaderSize   uint32
	Width        int
	Height       int
	Flags        uint32
	NumFrames    int
	FirstFrame   int
	Reflectivity mgl32.Vec3
	BumpScale    float32
	Format       ImageFormat
	MipCount     int
	LowResFormat ImageFormat
	LowResWidth  int
	LowResHeight int
	Depth        int

	Thumbnail []byte
	Mips      []MipLevel // indexed by level, 0 = largest
}

// ParseVTF parses a texture container. Mips are stored smallest first in the
// file; the returned levels are indexed largest first. Pixel bytes are not
// decompressed.
func ParseVTF(data []byte) (*VTF, error) {
	v := view{file: FileTexture, data: data}
	hdr, err := v.record(0, vtfMinHeaderSize, "header")
	if err != nil {
		return nil, formatError(FileTexture, "header", ErrTruncated)
	}
	if string(hdr[0:4]) != VTFSignature {
		return nil, formatError(FileTexture, "signature", fmt.Errorf("got %q", hdr[0:4]))
	}

	t := &VTF{
		Version:      [2]uint32{u32(hdr, 4), u32(hdr, 8)},
		HeaderSize:   u32(hdr, 12),
		Width:        int(u16(hdr, 16)),
		Height:       int(u16(hdr, 18)),
		Flags:        u32(hdr, 20),
		NumFrames:    int(u16(hdr, 24)),
		FirstFrame:   int(u16(hdr, 26)),
		Reflectivity: mgl32.Vec3{f32(hdr, 32), f32(hdr, 36), f32(hdr, 40)},
		BumpScale:    f32(hdr, 48),
		Format:       ImageFormat(i32(hdr, 52)),
		MipCount:     int(hdr[56]),
		LowResFormat: ImageFormat(i32(hdr, 57)),
		LowResWidth:  int(hdr[61]),
		LowResHeight: int(hdr[62]),
		Depth:        1,
	}
	if t.Version[0] != VTFMajorVersion {
		return nil, formatError(FileTexture, "version", fmt.Errorf("got %d.%d", t.Version[0], t.Version[1]))
	}
	if int(t.HeaderSize) < vtfMinHeaderSize || int(t.HeaderSize) > len(data) {
		return nil, formatError(FileTexture, "header size", fmt.Errorf("%d", t.HeaderSize))
	}
	if t.Version[1] >= 2 {
		depth, err := v.record(63, 2, "depth")
		if err != nil {
			return nil, err
		}
		if t.Depth = int(u16(depth, 0)); t.Depth == 0 {
			t.Depth = 1
		}
	}
	if !t.Format.Valid() {
		return nil, formatError(FileTexture, "format", fmt.Errorf("unknown image format %d", int32(t.Format)))
	}
	if t.Width == 0 || t.Height == 0 || t.MipCount == 0 {
		return nil, formatError(FileTexture, "dimensions", fmt.Errorf("%dx%d with %d mips", t.Width, t.Height, t.MipCount))
	}
	if t.NumFrames == 0 {
		t.NumFrames = 1
	}
	if t.Flags&TextureFlagEnvMap != 0 {
		return nil, formatError(FileTexture, "flags", fmt.Errorf("cube maps are not supported"))
	}
	if t.Depth > 1 {
		return nil, formatError(FileTexture, "depth", fmt.Errorf("volume textures are not supported"))
	}

	thumbSize := 0
	if t.LowResFormat.Valid() {
		thumbSize = t.LowResFormat.MemRequired(t.LowResWidth, t.LowResHeight)
	}

	thumbOff, dataOff := int(t.HeaderSize), int(t.HeaderSize)+thumbSize
	if t.Version[1] >= 3 {
		thumbOff, dataOff, err = vtfResources(v, t)
		if err != nil {
			return nil, err
		}
	}
	if thumbSize > 0 && thumbOff >= 0 {
		if t.Thumbnail, err = v.record(thumbOff, thumbSize, "thumbnail"); err != nil {
			return nil, err
		}
	}

	t.Mips = make([]MipLevel, t.MipCount)
	off := dataOff
	for i := range t.MipCount {
		level := t.MipCount - 1 - i
		w, h := mipDim(t.Width, level), mipDim(t.Height, level)
		size := t.Format.MemRequired(w, h)
		mip := MipLevel{Width: w, Height: h, Frames: make([][]byte, t.NumFrames)}
		for f := range mip.Frames {
			b, err := v.record(off, size, fmt.Sprintf("mip %d frame %d", level, f))
			if err != nil {
				return nil, err
			}
			mip.Frames[f] = b
			off += size
		}
		t.Mips[level] = mip
	}

	return t, nil
}

// vtfResources locates the thumbnail and pixel payload through the resource list.
// A missing thumbnail entry yields thumbOff -1.
func vtfResources(v view, t *VTF) (thumbOff, dataOff int, err error) {
	if int(t.HeaderSize) < vtfResourceListOff {
		return 0, 0, formatError(FileTexture, "header size", fmt.Errorf("%d too small for resource list", t.HeaderSize))
	}
	count := int(u32(v.data, 68))
	tbl, err := v.table(vtfResourceListOff, count, vtfResourceEntry, "resource list")
	if err != nil {
		return 0, 0, err
	}
	thumbOff, dataOff = -1, -1
	for i := range count {
		rec := tbl[i*vtfResourceEntry:]
		tag := uint32(rec[0]) | uint32(rec[1])<<8 | uint32(rec[2])<<16
		switch tag {
		case ResourceLowRes:
			thumbOff = int(u32(rec, 4))
		case ResourceHighRes:
			dataOff = int(u32(rec, 4))
		}
	}
	if dataOff < 0 {
		return 0, 0, formatError(FileTexture, "resource list", fmt.Errorf("no image data resource"))
	}
	return thumbOff, dataOff, nil
}

// Level returns mip level i, 0 being the largest.
func (t *VTF) Level(i int) (*MipLevel, error) {
	if i < 0 || i >= len(t.Mips) {
		return nil, rangeError(FileTexture, "mip level", fmt.Errorf("%d outside %d levels", i, len(t.Mips)))
	}
	return &t.Mips[i], nil
}

// PayloadSize returns the byte size of all mips of all frames.
func (t *VTF) PayloadSize() int {
	return MipChainSize(t.Width, t.Height, t.Format, t.MipCount) * t.NumFrames
}

// ParseVTFFile parses a texture container from disk.
func ParseVTFFile(path string) (*VTF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(KindIO, FileTexture, path, err)
	}
	return ParseVTF(data)
}
