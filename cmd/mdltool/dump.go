package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/kohachiro/MashFormMDL/pkg/formats"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

// vvdHeader is the header view of a vertex file, without its record buffer.
type vvdHeader struct {
	ID               int32
	Version          int32
	Checksum         int32
	NumLODs          int32
	NumLODVertexes   [formats.MaxLODs]int32
	Fixups           []formats.Fixup
	VertexDataStart  int32
	TangentDataStart int32
}

func dump(a ...interface{}) {
	fmt.Println(spewConfig.Sdump(a...))
}
