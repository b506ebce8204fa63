package formats

import "fmt"

// ValidateModelFiles checks the identity, version and checksum agreement of the
// three files of a model before any of them is parsed. The studio file is the
// authoritative checksum source.
func ValidateModelFiles(mdl, vtx, vvd []byte) error {
	if len(mdl) < 12 {
		return formatError(FileStudio, "header", ErrTruncated)
	}
	if id := i32(mdl, 0); id != StudioID {
		return formatError(FileStudio, "id", fmt.Errorf("got %#x, want %#x", uint32(id), uint32(StudioID)))
	}
	if ver := i32(mdl, 4); ver != StudioVersion {
		return formatError(FileStudio, "version", fmt.Errorf("got %d, want %d", ver, StudioVersion))
	}
	checksum := i32(mdl, 8)

	if len(vtx) < 20 {
		return formatError(FileStrip, "header", ErrTruncated)
	}
	if ver := i32(vtx, 0); ver != StripVersion {
		return formatError(FileStrip, "version", fmt.Errorf("got %d, want %d", ver, StripVersion))
	}
	if sum := i32(vtx, 16); sum != checksum {
		return NewError(KindChecksum, FileStrip, "checksum", fmt.Errorf("got %#x, studio has %#x", uint32(sum), uint32(checksum)))
	}

	if len(vvd) < 12 {
		return formatError(FileVertex, "header", ErrTruncated)
	}
	if id := i32(vvd, 0); id != VertexFileID {
		return formatError(FileVertex, "id", fmt.Errorf("got %#x, want %#x", uint32(id), uint32(VertexFileID)))
	}
	if ver := i32(vvd, 4); ver != VertexFileVersion {
		return formatError(FileVertex, "version", fmt.Errorf("got %d, want %d", ver, VertexFileVersion))
	}
	if sum := i32(vvd, 8); sum != checksum {
		return NewError(KindChecksum, FileVertex, "checksum", fmt.Errorf("got %#x, studio has %#x", uint32(sum), uint32(checksum)))
	}

	return nil
}
