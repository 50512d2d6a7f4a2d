package tools

import (
	"flag"
	"io"

	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/pkg/errors"
)

const (
	CommandBuild  = "build"
	CommandIndex  = "index"
	CommandMerge  = "merge"
	CommandVerify = "verify"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type TilerFlags struct {
	Input                     *string  `json:"input"`
	Srid                      *int     `json:"srid"`
	TargetSrid                *int     `json:"target_srid"`
	EightBitColors            *bool    `json:"eight_bit_colors"`
	ZOffset                   *float64 `json:"zoffset"`
	FolderProcessing          *bool    `json:"folder"`
	RecursiveFolderProcessing *bool    `json:"recursive"`
	Config                    *string  `json:"config"`
	Precision                 *string  `json:"precision"`
	Bits                      *int     `json:"bits"`
	PointSize                 *float64 `json:"point_size"`
	Transition                *float64 `json:"transition"`
	CreateType                *string  `json:"create_type"`
	NumPointsPerBlock         *int     `json:"num_points_per_block"`
	Compress                  *bool    `json:"compress"`

	explicit map[string]bool
}

type FlagsForCommand struct {
	TilerFlags
	Output       *string `json:"output"`
	Silent       *bool   `json:"silent"`
	LogTimestamp *bool   `json:"timestamp"`
	Help         *bool   `json:"help"`
	Version      *bool   `json:"version"`
}

// Flag set remembering which shorthand stands for which flag
type commandFlagSet struct {
	*flag.FlagSet
	aliases map[string]string
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "V", false, "Displays the version of brick_tiler.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

// Parses the flags of a subcommand. Usage and parse errors go to output.
func ParseFlagsForCommand(command string, args []string, output io.Writer) (FlagsForCommand, error) {
	flagCommand := &commandFlagSet{
		FlagSet: flag.NewFlagSet("command-"+command, flag.ContinueOnError),
		aliases: make(map[string]string),
	}
	flagCommand.SetOutput(output)

	inputUsage := "Specifies the input point file/folder."
	outputUsage := "Specifies the output scene file. Paged tiles are written to a folder named after it."
	switch command {
	case CommandIndex:
		outputUsage = "Specifies the output folder where to write the brick archives."
	case CommandMerge:
		inputUsage = "Specifies the folder holding the brick archives to merge."
	case CommandVerify:
		inputUsage = "Specifies the top level scene file to verify."
	}

	input := defineStringFlagCommand(flagCommand, "input", "i", "", inputUsage)
	out := defineStringFlagCommand(flagCommand, "output", "o", "", outputUsage)
	srid := defineIntFlagCommand(flagCommand, "srid", "e", 0, "EPSG srid code of input points, 0 keeps coordinates as they are.")
	targetSrid := defineIntFlagCommand(flagCommand, "target-srid", "", 0, "EPSG srid code to convert points to, 0 keeps the input reference system.")
	eightBit := defineBoolFlagCommand(flagCommand, "8bit", "b", false, "Assumes the input LAS has colors encoded in eight bit format. Default is false (LAS has 16 bit color depth)")
	zOffset := defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to points, in meters.")
	folderProcessing := defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all point files from input folder. Input must be a folder if specified")
	recursiveFolderProcessing := defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for all point files inside the subfolders")
	config := defineStringFlagCommand(flagCommand, "config", "c", "", "YAML or JSON settings file. Flags given on the command line override its values.")
	precision := defineStringFlagCommand(flagCommand, "precision", "p", "0.001", "Size of a quantization step in meters.")
	bits := defineIntFlagCommand(flagCommand, "bits", "", tiler.DefaultBits, "Quantization bits per axis, 8, 10 or 16.")
	pointSize := defineFloat64FlagCommand(flagCommand, "point-size", "", tiler.DefaultPointSize, "Point size multiplier applied to the brick precision.")
	transition := defineFloat64FlagCommand(flagCommand, "transition", "", tiler.DefaultTransition, "Screen ratio at which the finer children of a cell are displayed.")
	createType := defineStringFlagCommand(flagCommand, "create-type", "t", string(tiler.CreateTypePagedLOD), "Hierarchy to build, can be 'FLAT', 'LOD' or 'PAGEDLOD'.")
	numPointsPerBlock := defineIntFlagCommand(flagCommand, "points-per-block", "n", tiler.DefaultNumPointsPerBlock, "Number of points read per batch.")
	compress := defineBoolFlagCommand(flagCommand, "compress", "", false, "Compresses native scene files with zstd.")

	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")
	version := defineBoolFlagCommand(flagCommand, "version", "V", false, "Displays the version of brick_tiler.")

	if err := flagCommand.Parse(args); err != nil {
		return FlagsForCommand{}, err
	}

	explicit := make(map[string]bool)
	flagCommand.Visit(func(f *flag.Flag) {
		explicit[flagCommand.aliases[f.Name]] = true
	})

	return FlagsForCommand{
		TilerFlags: TilerFlags{
			Input:                     input,
			Srid:                      srid,
			TargetSrid:                targetSrid,
			EightBitColors:            eightBit,
			ZOffset:                   zOffset,
			FolderProcessing:          folderProcessing,
			RecursiveFolderProcessing: recursiveFolderProcessing,
			Config:                    config,
			Precision:                 precision,
			Bits:                      bits,
			PointSize:                 pointSize,
			Transition:                transition,
			CreateType:                createType,
			NumPointsPerBlock:         numPointsPerBlock,
			Compress:                  compress,
			explicit:                  explicit,
		},
		Output:       out,
		Silent:       silent,
		LogTimestamp: logTimestamp,
		Help:         help,
		Version:      version,
	}, nil
}

// Reports whether the flag, or its shorthand, was given on the command line
func (f TilerFlags) IsSet(name string) bool {
	return f.explicit[name]
}

// Brick settings from defaults, the settings file and the command line, in increasing priority
func (f TilerFlags) Settings() (tiler.Settings, error) {
	settings := tiler.DefaultSettings()
	settings.CreateType = tiler.ParseCreateType(*f.CreateType)

	if *f.Config != "" {
		if err := LoadSettingsFile(*f.Config, &settings); err != nil {
			return settings, err
		}
	}
	configured := func(name string) bool {
		return *f.Config == "" || f.IsSet(name)
	}

	if configured("precision") {
		precision, err := ParsePrecision(*f.Precision)
		if err != nil {
			return settings, err
		}
		settings.Precision = precision
	}
	if configured("bits") {
		if *f.Bits < 0 {
			return settings, errors.Errorf("bits must be one of 8, 10 or 16, got %d", *f.Bits)
		}
		settings.Bits = uint32(*f.Bits)
	}
	if configured("point-size") {
		settings.PointSize = *f.PointSize
	}
	if configured("transition") {
		settings.Transition = *f.Transition
	}
	if configured("points-per-block") {
		settings.NumPointsPerBlock = *f.NumPointsPerBlock
	}
	if configured("create-type") {
		settings.CreateType = tiler.ParseCreateType(*f.CreateType)
		if settings.CreateType == "" {
			return settings, errors.Errorf("create-type should be FLAT, LOD or PAGEDLOD, got %q", *f.CreateType)
		}
	}

	return settings, settings.Validate()
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func (f *commandFlagSet) alias(name string, shortHand string) bool {
	f.aliases[name] = name
	if shortHand != name && shortHand != "" {
		f.aliases[shortHand] = name
		return true
	}
	return false
}

func defineStringFlagCommand(flagCommand *commandFlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if flagCommand.alias(name, shortHand) {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *commandFlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if flagCommand.alias(name, shortHand) {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *commandFlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if flagCommand.alias(name, shortHand) {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *commandFlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if flagCommand.alias(name, shortHand) {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
