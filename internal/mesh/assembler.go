package mesh

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kohachiro/MashFormMDL/internal/logger"
	"github.com/kohachiro/MashFormMDL/pkg/encoding"
	"github.com/kohachiro/MashFormMDL/pkg/formats"
)

// Default file layout.
const (
	DefaultStripSuffix   = ".dx90.vtx"
	DefaultMaterialsRoot = "materials"
)

// FileSource returns the raw bytes of a resolved file path. A missing file
// yields an error matching fs.ErrNotExist.
type FileSource interface {
	ReadFile(name string) ([]byte, error)
}

// TextureHandle names a texture created by a TextureUploader. Handles are
// allocated by the uploader and stay unique for its lifetime, across every mesh
// it serves. Zero is never a valid handle.
type TextureHandle uint32

// TextureUploader creates device textures and uploads their mip levels. Level
// indexes tex.Mips, 0 being the largest.
type TextureUploader interface {
	CreateTexture(tex *formats.VTF) (TextureHandle, error)
	UploadMip(h TextureHandle, tex *formats.VTF, level int) error
}

// TextureReleaser is implemented by uploaders that can drop an uploaded texture.
type TextureReleaser interface {
	Release(h TextureHandle)
}

// Options configures an Assembler.
type Options struct {
	LOD           int
	MaterialsRoot string          // defaults to DefaultMaterialsRoot
	StripSuffix   string          // defaults to DefaultStripSuffix
	Uploader      TextureUploader // nil skips uploads
}

// Files holds the three companion files of a model.
type Files struct {
	Name string
	MDL  []byte
	VTX  []byte
	VVD  []byte
}

// Assembler decodes models into meshes. An Assembler runs one decode at a time.
type Assembler struct {
	src  FileSource
	opts Options
	log  *zap.Logger
}

// NewAssembler creates an assembler reading through src.
func NewAssembler(src FileSource, opts Options) *Assembler {
	if opts.MaterialsRoot == "" {
		opts.MaterialsRoot = DefaultMaterialsRoot
	}
	if opts.StripSuffix == "" {
		opts.StripSuffix = DefaultStripSuffix
	}
	return &Assembler{
		src:  src,
		opts: opts,
		log:  logger.Named("mesh"),
	}
}

// ReadFiles reads the companion files of model name, with or without its
// .mdl extension.
func (a *Assembler) ReadFiles(name string) (Files, error) {
	base := strings.TrimSuffix(name, ".mdl")
	files := Files{Name: base}

	reads := []struct {
		kind formats.FileKind
		path string
		dst  *[]byte
	}{
		{formats.FileStudio, base + ".mdl", &files.MDL},
		{formats.FileStrip, base + a.opts.StripSuffix, &files.VTX},
		{formats.FileVertex, base + ".vvd", &files.VVD},
	}
	for _, r := range reads {
		data, err := a.src.ReadFile(r.path)
		if err != nil {
			return Files{}, formats.NewError(formats.KindIO, r.kind, r.path, err)
		}
		*r.dst = data
	}
	return files, nil
}

// Load reads and decodes model name.
func (a *Assembler) Load(name string) (*Mesh, error) {
	files, err := a.ReadFiles(name)
	if err != nil {
		return nil, err
	}
	return a.Decode(files)
}

// Decode validates, flattens and resolves the materials of a model. Either the
// complete mesh is returned or nothing; textures uploaded before a failure are
// released when the uploader supports it.
func (a *Assembler) Decode(files Files) (*Mesh, error) {
	start := time.Now()

	if err := formats.ValidateModelFiles(files.MDL, files.VTX, files.VVD); err != nil {
		return nil, err
	}

	mdl, err := formats.ParseMDL(files.MDL)
	if err != nil {
		return nil, err
	}
	vtx, err := formats.ParseVTX(files.VTX)
	if err != nil {
		return nil, err
	}
	vvd, err := formats.ParseVVD(files.VVD)
	if err != nil {
		return nil, err
	}
	if vvd, err = vvd.ResolveFixups(0); err != nil {
		return nil, err
	}
	a.log.Debug("parsed model files",
		zap.String("model", files.Name),
		zap.Int("textures", len(mdl.Textures)),
		zap.Int("fixups", len(vvd.Fixups)),
		zap.Duration("elapsed", time.Since(start)))

	geom, err := Flatten(mdl, vtx, vvd, a.opts.LOD)
	if err != nil {
		return nil, err
	}
	a.log.Debug("flattened geometry",
		zap.String("model", files.Name),
		zap.Int("lod", a.opts.LOD),
		zap.Int("vertices", len(geom.Vertices)),
		zap.Int("triangles", geom.NumTriangles()),
		zap.Duration("elapsed", time.Since(start)))

	materials, err := a.loadMaterials(mdl)
	if err != nil {
		return nil, err
	}

	textures, err := a.loadTextures(materials)
	if err != nil {
		return nil, err
	}

	m := &Mesh{
		Geometry:  *geom,
		Name:      files.Name,
		Materials: materials,
		Textures:  textures,
	}
	a.log.Info("decoded model",
		zap.String("model", files.Name),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("triangles", m.NumTriangles()),
		zap.Int("subsets", len(m.Subsets)),
		zap.Int("materials", len(m.Materials)),
		zap.Int("textures", len(m.Textures)),
		zap.Duration("elapsed", time.Since(start)))
	return m, nil
}

// loadMaterials resolves one material script per studio texture, trying each
// texture directory in order.
func (a *Assembler) loadMaterials(mdl *formats.MDL) ([]Material, error) {
	dirs := mdl.CDTextures
	if len(dirs) == 0 {
		dirs = []string{""}
	}

	materials := make([]Material, len(mdl.Textures))
	for i, tex := range mdl.Textures {
		var (
			script string
			data   []byte
			errs   []error
		)
		for _, dir := range dirs {
			path := encoding.JoinPath(a.opts.MaterialsRoot, dir, tex.Name+".vmt")
			b, err := a.src.ReadFile(path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			script, data = path, b
			break
		}
		if data == nil {
			return nil, formats.NewError(formats.KindParse, formats.FileMaterial, tex.Name, errors.Join(errs...))
		}

		vmt, err := formats.ParseVMT(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", script, err)
		}

		mat := Material{
			Name:       vmt.BaseTexture(),
			Shader:     vmt.Shader,
			Script:     script,
			Properties: vmt.Properties,
			Texture:    NoTexture,
		}
		if mat.Name != "" {
			mat.TexturePath = encoding.JoinPath(a.opts.MaterialsRoot, mat.Name+".vtf")
		}
		materials[i] = mat
	}
	return materials, nil
}

// loadTextures decodes and uploads each distinct texture path once. Materials
// sharing a path reference the first material's texture.
func (a *Assembler) loadTextures(materials []Material) (textures []Texture, err error) {
	byPath := make(map[string]TextureID)
	var uploaded []TextureHandle

	defer func() {
		if err != nil {
			a.release(uploaded)
		}
	}()

	for i := range materials {
		mat := &materials[i]
		if mat.TexturePath == "" {
			continue
		}
		if id, ok := byPath[mat.TexturePath]; ok {
			mat.Texture = id
			continue
		}

		data, err := a.src.ReadFile(mat.TexturePath)
		if err != nil {
			return nil, formats.NewError(formats.KindIO, formats.FileTexture, mat.TexturePath, err)
		}
		img, err := formats.ParseVTF(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mat.TexturePath, err)
		}

		id := TextureID(len(textures))
		textures = append(textures, Texture{Path: mat.TexturePath, Image: img, Owner: i})
		byPath[mat.TexturePath] = id
		mat.Texture = id
		mat.OwnsTexture = true

		if a.opts.Uploader == nil {
			continue
		}
		h, err := a.opts.Uploader.CreateTexture(img)
		if err != nil {
			return nil, fmt.Errorf("creating texture %s: %w", mat.TexturePath, err)
		}
		uploaded = append(uploaded, h)
		textures[id].Handle = h
		// Smallest level first, matching the container's storage order.
		for step := range img.MipCount {
			level := img.MipCount - 1 - step
			if err := a.opts.Uploader.UploadMip(h, img, level); err != nil {
				return nil, fmt.Errorf("uploading %s mip %d: %w", mat.TexturePath, level, err)
			}
		}
		a.log.Debug("uploaded texture",
			zap.String("path", mat.TexturePath),
			zap.Uint32("handle", uint32(h)),
			zap.Stringer("format", img.Format),
			zap.Int("width", img.Width),
			zap.Int("height", img.Height),
			zap.Int("mips", img.MipCount))
	}
	return textures, nil
}

func (a *Assembler) release(handles []TextureHandle) {
	r, ok := a.opts.Uploader.(TextureReleaser)
	if !ok {
		return
	}
	for _, h := range handles {
		r.Release(h)
	}
	a.log.Debug("released textures after failure", zap.Int("count", len(handles)))
}
