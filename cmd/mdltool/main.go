// mdltool is a CLI utility for inspecting Source engine models, materials and
// textures.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kohachiro/MashFormMDL/internal/assets"
	"github.com/kohachiro/MashFormMDL/internal/config"
	"github.com/kohachiro/MashFormMDL/internal/logger"
	"github.com/kohachiro/MashFormMDL/internal/mesh"
	"github.com/kohachiro/MashFormMDL/pkg/formats"
	"github.com/kohachiro/MashFormMDL/pkg/vpk"
)

type command struct {
	usage string
	run   func(t *tool, args []string) error
}

var commands = map[string]command{
	"info":      {"info <model>", cmdInfo},
	"materials": {"materials <model>", cmdMaterials},
	"vtf":       {"vtf <file.vtf>", cmdVTF},
	"vmt":       {"vmt <file.vmt>", cmdVMT},
	"dump":      {"dump <model>", cmdDump},
	"vpk":       {"vpk [-n N] <file_dir.vpk> [pattern]", cmdVPK},
}

// tool carries the loaded configuration and asset sources shared by commands.
type tool struct {
	cfg    *config.Config
	assets *assets.Manager
}

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	name := args[0]
	if name == "help" {
		printUsage()
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", name)
		printUsage()
		os.Exit(1)
	}

	manager, err := assets.NewFromConfig(cfg.Data)
	if err != nil {
		logger.Error("failed to open asset sources", zap.Error(err))
		os.Exit(1)
	}
	defer manager.Close()
	logger.Debug("asset sources", zap.Strings("sources", manager.Sources()))

	t := &tool{cfg: cfg, assets: manager}
	err = cmd.run(t, args[1:])
	if cache := manager.Cache(); cache != nil {
		hits, misses := cache.Stats()
		logger.Debug("asset cache", zap.Int("entries", cache.Len()), zap.Int("hits", hits), zap.Int("misses", misses))
	}
	if err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "Usage: mdltool %s\n", cmd.usage)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mdltool - Source engine model inspection utility

Usage:
  mdltool [flags] <command> [arguments]

Commands:
  info <model>                        Validate a model and show its geometry counts
  materials <model>                   Resolve materials and textures of a model
  vtf <file.vtf>                      Show a texture container header and mip chain
  vmt <file.vmt>                      Show a material script's shader and properties
  dump <model>                        Dump parsed model headers
  vpk [-n N] <file_dir.vpk> [pattern] List files in a VPK archive

Flags:
  -config <path>   Config file (default ./mdltool.yaml)
  -data <dirs>     Comma-separated asset directories
  -vpk <files>     Comma-separated VPK directory files
  -lod <n>         Level of detail to flatten
  -debug           Enable debug logging

Examples:
  mdltool -data hl2 info models/props_c17/oildrum001
  mdltool -vpk hl2/hl2_misc_dir.vpk materials models/props_c17/oildrum001
  mdltool vpk hl2/hl2_textures_dir.vpk "*.vtf"`)
}

type usageError struct{}

func (usageError) Error() string { return "usage" }

// readFile reads name from disk when it exists there, otherwise through the
// asset sources.
func (t *tool) readFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return data, err
	}
	return t.assets.ReadFile(name)
}

func (t *tool) assembler() *mesh.Assembler {
	return mesh.NewAssembler(t.assets, mesh.Options{
		LOD:           t.cfg.Model.LOD,
		MaterialsRoot: t.cfg.Data.MaterialsRoot,
		StripSuffix:   t.cfg.Model.StripSuffix,
	})
}

// parsed holds the decoded companion files of a model.
type parsed struct {
	mdl *formats.MDL
	vtx *formats.VTX
	vvd *formats.VVD
}

func (t *tool) parseModel(name string) (*parsed, error) {
	files, err := t.assembler().ReadFiles(name)
	if err != nil {
		return nil, err
	}
	if err := formats.ValidateModelFiles(files.MDL, files.VTX, files.VVD); err != nil {
		return nil, err
	}

	p := &parsed{}
	if p.mdl, err = formats.ParseMDL(files.MDL); err != nil {
		return nil, err
	}
	if p.vtx, err = formats.ParseVTX(files.VTX); err != nil {
		return nil, err
	}
	if p.vvd, err = formats.ParseVVD(files.VVD); err != nil {
		return nil, err
	}
	return p, nil
}

func cmdInfo(t *tool, args []string) error {
	if len(args) < 1 {
		return usageError{}
	}
	p, err := t.parseModel(args[0])
	if err != nil {
		return err
	}
	resolved, err := p.vvd.ResolveFixups(0)
	if err != nil {
		return err
	}
	geom, err := mesh.Flatten(p.mdl, p.vtx, resolved, t.cfg.Model.LOD)
	if err != nil {
		return err
	}

	fmt.Printf("Model:     %s\n", p.mdl.Name)
	fmt.Printf("Checksum:  %#08x\n", uint32(p.mdl.Checksum))
	fmt.Printf("Textures:  %d (%d search dirs, %d skin families)\n",
		len(p.mdl.Textures), len(p.mdl.CDTextures), len(p.mdl.SkinFamilies))
	fmt.Printf("BodyParts: %d\n", len(p.mdl.BodyParts))
	fmt.Printf("LODs:      %d\n", p.vtx.NumLODs)
	fmt.Printf("Vertices:  %d in file, %d fixups\n", p.vvd.NumVertices(), len(p.vvd.Fixups))
	fmt.Println()
	fmt.Printf("LOD %d:\n", t.cfg.Model.LOD)
	fmt.Printf("  Vertices:  %d\n", len(geom.Vertices))
	fmt.Printf("  Triangles: %d\n", geom.NumTriangles())
	fmt.Printf("  Subsets:   %d\n", len(geom.Subsets))
	fmt.Printf("  Bounds:    %v - %v\n", geom.Bounds.Min, geom.Bounds.Max)
	for _, s := range geom.Subsets {
		fmt.Printf("    subset %-3d mesh %-3d group %-3d texture %-3d %d triangles\n",
			s.ID, s.Mesh, s.StripGroup, s.Material, s.IndexCount/3)
	}
	return nil
}

func cmdMaterials(t *tool, args []string) error {
	if len(args) < 1 {
		return usageError{}
	}
	m, err := t.assembler().Load(args[0])
	if err != nil {
		return err
	}

	for i, mat := range m.Materials {
		fmt.Printf("[%d] %s (%s)\n", i, mat.Script, mat.Shader)
		if mat.Texture == mesh.NoTexture {
			fmt.Println("    texture: none")
			continue
		}
		tex := m.Textures[mat.Texture]
		owner := "owner"
		if !mat.OwnsTexture {
			owner = fmt.Sprintf("shared with [%d]", tex.Owner)
		}
		fmt.Printf("    texture: %s %dx%d %s, %d mips (%s)\n",
			tex.Path, tex.Image.Width, tex.Image.Height, tex.Image.Format, tex.Image.MipCount, owner)
	}
	return nil
}

func cmdVTF(t *tool, args []string) error {
	if len(args) < 1 {
		return usageError{}
	}
	data, err := t.readFile(args[0])
	if err != nil {
		return err
	}
	tex, err := formats.ParseVTF(data)
	if err != nil {
		return err
	}

	fmt.Printf("Version:   %d.%d\n", tex.Version[0], tex.Version[1])
	fmt.Printf("Size:      %dx%d\n", tex.Width, tex.Height)
	fmt.Printf("Format:    %s\n", tex.Format)
	if info, ok := tex.Format.Info(); ok {
		if info.Compressed {
			fmt.Printf("Storage:   block compressed, %d alpha bits\n", info.AlphaBits)
		} else {
			fmt.Printf("Storage:   %d bytes/pixel, RGBA bits %d/%d/%d/%d\n",
				info.BytesPerPixel, info.RedBits, info.GreenBits, info.BlueBits, info.AlphaBits)
		}
	}
	fmt.Printf("Flags:     %#08x\n", tex.Flags)
	fmt.Printf("Frames:    %d\n", tex.NumFrames)
	fmt.Printf("Thumbnail: %s %dx%d\n", tex.LowResFormat, tex.LowResWidth, tex.LowResHeight)
	fmt.Printf("Payload:   %d bytes\n", tex.PayloadSize())
	fmt.Println()
	for level, mip := range tex.Mips {
		fmt.Printf("  mip %-2d %5dx%-5d %8d bytes\n", level, mip.Width, mip.Height, len(mip.Frames[0]))
	}
	return nil
}

func cmdVMT(t *tool, args []string) error {
	if len(args) < 1 {
		return usageError{}
	}
	data, err := t.readFile(args[0])
	if err != nil {
		return formats.NewError(formats.KindParse, formats.FileMaterial, args[0], err)
	}
	vmt, err := formats.ParseVMT(data)
	if err != nil {
		return err
	}

	fmt.Printf("Shader: %s\n", vmt.Shader)
	props := make([]formats.ShaderProperty, 0, len(vmt.Properties))
	for p := range vmt.Properties {
		props = append(props, p)
	}
	sort.Slice(props, func(i, j int) bool { return props[i] < props[j] })
	for _, p := range props {
		fmt.Printf("  %-24s %s\n", p, vmt.Properties[p])
	}
	return nil
}

func cmdDump(t *tool, args []string) error {
	if len(args) < 1 {
		return usageError{}
	}
	p, err := t.parseModel(args[0])
	if err != nil {
		return err
	}
	dump(p.mdl)
	dump(p.vtx)
	dump(vvdHeader{
		ID:               p.vvd.ID,
		Version:          p.vvd.Version,
		Checksum:         p.vvd.Checksum,
		NumLODs:          p.vvd.NumLODs,
		NumLODVertexes:   p.vvd.NumLODVertexes,
		Fixups:           p.vvd.Fixups,
		VertexDataStart:  p.vvd.VertexDataStart,
		TangentDataStart: p.vvd.TangentDataStart,
	})
	return nil
}

func cmdVPK(t *tool, args []string) error {
	fset := flag.NewFlagSet("vpk", flag.ContinueOnError)
	limit := fset.Int("n", 0, "Limit output to N files (0 = all)")
	if err := fset.Parse(args); err != nil {
		return usageError{}
	}
	if fset.NArg() < 1 {
		return usageError{}
	}

	archive, err := vpk.Open(fset.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := ""
	if fset.NArg() > 1 {
		pattern = strings.ToLower(fset.Arg(1))
	}

	hdr := archive.Header()
	fmt.Fprintf(os.Stderr, "VPK v%d, %d files\n", hdr.Version, len(archive.List()))

	count := 0
	for _, name := range archive.List() {
		if pattern != "" {
			matched, _ := filepath.Match(pattern, filepath.Base(name))
			if !matched && !strings.Contains(name, pattern) {
				continue
			}
		}
		entry, _ := archive.Stat(name)
		fmt.Printf("%10d  %s\n", entry.Size(), name)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
	}
	return nil
}
