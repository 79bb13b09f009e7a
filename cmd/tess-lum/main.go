// Command tess-lum estimates TESS-band luminosities for TIC targets from
// their Gaia DR2 colours and distances.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/tesslum/internal/config"
	"github.com/banshee-data/tesslum/internal/fsutil"
	"github.com/banshee-data/tesslum/internal/luminosity"
	"github.com/banshee-data/tesslum/internal/version"
)

// errUsage is returned for malformed command lines; the usage text has
// already been printed.
var errUsage = errors.New("usage error")

// app carries the process-level dependencies shared by every command.
type app struct {
	fs     fsutil.FileSystem
	stdout io.Writer
	stderr io.Writer
}

func main() {
	a := &app{fs: fsutil.OSFileSystem{}, stdout: os.Stdout, stderr: os.Stderr}

	err := a.run(os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	case errors.Is(err, luminosity.ErrNotFound):
		fmt.Fprintln(os.Stderr, luminosity.ErrNotFound)
		os.Exit(1)
	default:
		log.Fatalf("tess-lum: %v", err)
	}
}

// run dispatches to a subcommand. Without a recognised command name the
// arguments are treated as an estimate command line.
func (a *app) run(args []string) error {
	if len(args) == 0 {
		a.printUsage()
		return errUsage
	}

	switch args[0] {
	case "estimate":
		return a.estimate(args[1:])
	case "import":
		return a.importCrossMatch(args[1:])
	case "migrate":
		return a.migrate(args[1:])
	case "version":
		fmt.Fprintln(a.stdout, version.String())
		return nil
	case "help", "-h", "-help", "--help":
		a.printUsage()
		return nil
	default:
		return a.estimate(args)
	}
}

func (a *app) printUsage() {
	fmt.Fprint(a.stderr, `tess-lum - TESS luminosity from Gaia colours

Usage:
  tess-lum [estimate] [flags] TIC [TIC...]
  tess-lum import -db FILE [-crossmatch FILE] [-config FILE]
  tess-lum migrate -db FILE [up|version]
  tess-lum version

A single TIC without -list is looked up on its own and an unknown ID is an
error. Several TICs (or -list) print NaN for IDs missing from the
cross-match.

Estimate flags:
  -config FILE      JSON configuration (default tess-lum.json if present)
  -isochrones FILE  isochrone table (default isochrones.csv)
  -crossmatch FILE  Gaia cross-match table (default TESSgaia1to15.csv)
  -db FILE          read the cross-match from a SQLite database instead
  -list             treat a single TIC as a one-element list
  -csv FILE         write per-target details as CSV
  -units UNIT       CSV distance units: pc, ly, m, cm (default pc)
  -plot FILE        write a colour-magnitude diagram (png, svg, pdf)
  -html FILE        write an interactive luminosity chart
`)
}

// commonFlags registers the flags shared by estimate and import.
type commonFlags struct {
	configPath *string
	isochrones *string
	crossMatch *string
	db         *string
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", "", "JSON configuration file"),
		isochrones: fs.String("isochrones", "", "isochrone table path"),
		crossMatch: fs.String("crossmatch", "", "Gaia cross-match table path"),
		db:         fs.String("db", "", "SQLite cross-match database"),
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func (a *app) loadConfig(f *commonFlags) (*config.Config, error) {
	cfg := config.EmptyConfig()
	switch {
	case *f.configPath != "":
		c, err := config.LoadConfig(a.fs, *f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	case a.fs.Exists(config.DefaultConfigPath):
		c, err := config.LoadConfig(a.fs, config.DefaultConfigPath)
		if err != nil {
			return nil, err
		}
		log.Printf("using configuration %s", config.DefaultConfigPath)
		cfg = c
	}

	if *f.isochrones != "" {
		cfg.SetIsochronePath(*f.isochrones)
	}
	if *f.crossMatch != "" {
		cfg.SetCrossMatchPath(*f.crossMatch)
	}
	if *f.db != "" {
		cfg.SetCrossMatchDB(*f.db)
	}
	return cfg, nil
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}
