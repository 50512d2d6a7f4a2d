/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecopia-map/brick_tiler/internal/io"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/ecopia-map/brick_tiler/pkg"
	"github.com/ecopia-map/brick_tiler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/brick_tiler/tools"
	"github.com/golang/glog"
)

const VERSION = "1.0.0"

const logo = `
  _          _      _       _   _ _
 | |__  _ __(_) ___| | __  | |_(_) | ___ _ __
 | '_ \| '__| |/ __| |/ /  | __| | |/ _ \ '__|
 | |_) | |  | | (__|   <   | |_| | |  __/ |
 |_.__/|_|  |_|\___|_|\_\___\__|_|_|\___|_|
 A point cloud brick hierarchy builder  |_____|
 Copyright YYYY
`

func main() {
	defer glog.Flush()

	flagsGlobal := tools.ParseFlagsGlobal()
	glog.Infoln(tools.FmtJSONString(flagsGlobal))

	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 || *flagsGlobal.Help {
		showHelp()
		if len(args) == 0 && !*flagsGlobal.Help {
			glog.Fatal("Please specify a subcommand [build|index|merge|verify].")
		}
		return
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandBuild, tools.CommandIndex, tools.CommandMerge, tools.CommandVerify:
		mainCommand(cmd, args)
	default:
		glog.Fatalf("Unrecognized command [%q]. Command must be one of [build|index|merge|verify]", cmd)
	}
}

func mainCommand(cmd string, args []string) {
	// Retrieve command line args
	flags, err := tools.ParseFlagsForCommand(cmd, args, os.Stderr)
	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}
	glog.Infoln("flags", tools.FmtJSONString(flags))

	// Prints the command line flag description
	if *flags.Help {
		showHelp()
		return
	}

	if *flags.Version {
		printVersion()
		return
	}

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	settings, err := flags.Settings()
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}

	// Put args inside a TilerOptions struct
	opts := tiler.TilerOptions{
		Input:            *flags.Input,
		Srid:             *flags.Srid,
		TargetSrid:       *flags.TargetSrid,
		EightBitColors:   *flags.EightBitColors,
		ZOffset:          *flags.ZOffset,
		FolderProcessing: *flags.FolderProcessing || cmd == tools.CommandMerge,
		Recursive:        *flags.RecursiveFolderProcessing,
		Output:           *flags.Output,
		Compress:         *flags.Compress,
		Settings:         settings,
		Command:          cmd,
	}

	// Validate TilerOptions
	if msg, res := validateOptions(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	defer timeTrack(time.Now(), cmd)

	var runner tiler.ITiler
	fileFinder := tools.NewStandardFileFinder(io.IsSupportedInput)
	switch cmd {
	case tools.CommandBuild:
		runner = pkg.NewTiler(fileFinder, std_algorithm_manager.NewAlgorithmManager(&opts))
	case tools.CommandIndex:
		runner = pkg.NewTilerIndex(fileFinder, std_algorithm_manager.NewAlgorithmManager(&opts))
	case tools.CommandMerge:
		runner = pkg.NewTilerMerge(fileFinder, std_algorithm_manager.NewAlgorithmManager(&opts))
	case tools.CommandVerify:
		runner = pkg.NewTilerVerify()
	}

	if err := runner.RunTiler(&opts); err != nil {
		glog.Fatal("Error while tiling: ", err)
	}
	tools.LogOutput("Command " + cmd + " completed")
}

// Validates the input options provided to the command line tool checking that input and output files/folders
// are usable
func validateOptions(opts *tiler.TilerOptions) (string, bool) {
	info, err := os.Stat(opts.Input)
	if os.IsNotExist(err) {
		return "Input file/folder not found", false
	}
	if err != nil {
		return err.Error(), false
	}

	switch opts.Command {
	case tools.CommandVerify:
		if info.IsDir() {
			return "Input must be a scene file", false
		}
		return "", true
	case tools.CommandMerge:
		if !info.IsDir() {
			return "Input must be a folder of brick archives", false
		}
	default:
		if opts.FolderProcessing && !info.IsDir() {
			return "Input must be a folder when folder processing is enabled", false
		}
	}

	if opts.Output == "" {
		return "Output not specified", false
	}
	if opts.Command == tools.CommandIndex {
		if err := tools.CreateDirectoryIfDoesNotExist(opts.Output); err != nil {
			return "Output folder cannot be created: " + err.Error(), false
		}
	}

	return "", true
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("brick_tiler partitions point clouds into quantized bricks and writes them as FLAT, LOD or PAGEDLOD scene graphs")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: brick_tiler [build|index|merge|verify] [flags]")
	fmt.Println("  build   reads point files and writes a scene graph")
	fmt.Println("  index   reads each point file into a brick archive")
	fmt.Println("  merge   merges the brick archives of a folder and writes a scene graph")
	fmt.Println("  verify  checks a scene file and every paged file it references")
	fmt.Println("")
	fmt.Println("Run a command with -help to list its flags.")
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
