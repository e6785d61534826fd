// Command-line interface for decoding streamline files and packing NRRD volumes
// into texture atlases.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/janelia-flyem/ndtex/config"
	"github.com/janelia-flyem/ndtex/ndtex"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Path to TOML configuration file.
	configFile = flag.String("config", "", "")

	// Profile CPU usage using standard gotest system.
	cpuprofile = flag.String("cpuprofile", "", "")
)

const helpMessage = `
ndtex decodes streamline files and packs neuroimaging volumes into 2d texture atlases

Usage: ndtex [options] <command>

      -config     =string   TOML configuration file.
      -cpuprofile =string   Write CPU profile to this file.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	help
	tracks <file.tck|file.trk> ...  [maxtracks=N] [arrow=<output.arrow>]
	stats  <volume.nrrd>  [percentiles=1,50,99] [sample=N] [chunksize=N]
	atlas  <volume.nrrd> <output prefix> [<volume.nrrd> <output prefix> ...]
	       [maxsize=N] [maxcount=N] [chunksize=N]

Any command also accepts config=<file.toml> in place of the -config flag.
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *runVerbose {
		ndtex.Verbose = true
		ndtex.SetLogMode(ndtex.DebugMode)
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	command := ndtex.Command(flag.Args())
	if err := DoCommand(command); err != nil {
		ndtex.Shutdown()
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	ndtex.Shutdown()
}

// loadConfig returns the configuration named by a config=<file> argument, the
// -config flag, or the defaults.
func loadConfig(cmd ndtex.Command) (config.Config, error) {
	filename, found := cmd.Parameter(ndtex.KeyConfigFile)
	if !found {
		filename = *configFile
	}
	if filename == "" {
		return config.Default(), nil
	}
	c, err := config.Load(filename)
	if err != nil {
		return c, err
	}
	if err := c.Apply(); err != nil {
		return c, err
	}
	if *runVerbose {
		ndtex.Verbose = true
		ndtex.SetLogMode(ndtex.DebugMode)
	}
	return c, nil
}

// DoCommand serves as a switchboard for commands.
func DoCommand(cmd ndtex.Command) error {
	if len(cmd) == 0 {
		return fmt.Errorf("blank command: %w", ndtex.ErrArgument)
	}
	switch cmd.Name() {
	case "about":
		fmt.Fprintf(stdout, "ndtex %s\n", Version)
		return nil
	case "help":
		fmt.Fprint(stdout, helpMessage)
		return nil
	}

	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	switch cmd.Name() {
	case "tracks":
		return DoTracks(cmd, c)
	case "stats":
		return DoStats(cmd, c)
	case "atlas":
		return DoAtlas(cmd, c)
	default:
		return fmt.Errorf("unknown command %q, try 'ndtex help': %w", cmd.Name(), ndtex.ErrArgument)
	}
}
