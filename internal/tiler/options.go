package tiler

import "strings"

type CreateType string

const (
	// Every brick of the finest level becomes a sibling under a single culled container, no LOD.
	CreateTypeFlat CreateType = "FLAT"

	// In memory tree of switch nodes. Each cell keeps its own coarse brick as the far alternative.
	CreateTypeLOD CreateType = "LOD"

	// Like LOD but the near alternative of every interior cell is written to an external file and loaded on demand.
	CreateTypePagedLOD CreateType = "PAGEDLOD"
)

func (e CreateType) String() string {
	switch e {
	case CreateTypeFlat, CreateTypeLOD, CreateTypePagedLOD:
		return string(e)
	}
	return ""
}

func ParseCreateType(value string) CreateType {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	switch normalizedValue {
	case "FLAT":
		return CreateTypeFlat
	case "LOD":
		return CreateTypeLOD
	case "PAGEDLOD", "PAGED_LOD", "PAGED-LOD":
		return CreateTypePagedLOD
	}
	return ""
}

type ITiler interface {
	RunTiler(opts *TilerOptions) error
}

// Contains the options needed for the tiling algorithm
type TilerOptions struct {
	Input            string   // Input point file/folder
	Srid             int      // EPSG code for SRID of input points
	TargetSrid       int      // EPSG code to reproject points to, 0 keeps the input reference system
	EightBitColors   bool     // if true assume that LAS uses 8bit color depth
	ZOffset          float64  // Z Offset in meters to apply to points during conversion
	FolderProcessing bool     // Enables the processing of all point files in folder
	Recursive        bool     // Recursive lookup of point files in subfolders
	Output           string   // Output scene file (build, merge) or archive folder (index)
	Compress         bool     // zstd compression of native scene files
	Settings         Settings // Brick and hierarchy settings

	Command string
}

func (opt *TilerOptions) Copy() *TilerOptions {
	newOpt := *opt
	return &newOpt
}
