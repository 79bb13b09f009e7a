package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/banshee-data/tesslum/internal/catalog"
	"github.com/banshee-data/tesslum/internal/catalog/sqlite"
	"github.com/banshee-data/tesslum/internal/config"
	"github.com/banshee-data/tesslum/internal/luminosity"
	"github.com/banshee-data/tesslum/internal/report"
	"github.com/banshee-data/tesslum/internal/units"
)

func (a *app) estimate(args []string) error {
	fs := newFlagSet(a, "estimate")
	common := registerCommon(fs)
	list := fs.Bool("list", false, "treat a single TIC as a one-element list")
	csvOut := fs.String("csv", "", "write per-target details as CSV")
	plotOut := fs.String("plot", "", "write a colour-magnitude diagram")
	htmlOut := fs.String("html", "", "write an interactive luminosity chart")
	distUnits := fs.String("units", "", "CSV distance units: "+units.GetValidUnitsString())
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(a.stderr, "Error: at least one TIC is required")
		a.printUsage()
		return errUsage
	}
	ids, err := parseIDs(fs.Args())
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(common)
	if err != nil {
		return err
	}
	if *distUnits != "" {
		if !units.IsValid(*distUnits) {
			fmt.Fprintf(a.stderr, "Error: -units must be one of %s\n", units.GetValidUnitsString())
			return errUsage
		}
		cfg.SetDistanceUnits(*distUnits)
	}
	est, closeFn, err := a.newEstimator(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	scalar := len(ids) == 1 && !*list
	wantReports := *csvOut != "" || *plotOut != "" || *htmlOut != ""

	if scalar && !wantReports {
		v, err := est.EstimateOne(ids[0])
		if err != nil {
			return err
		}
		a.printResult(ids[0], v)
		return nil
	}

	ests, track, err := est.EstimateDetailed(ids)
	if err != nil {
		return err
	}
	if scalar && !ests[0].Matched {
		return fmt.Errorf("TIC %d: %w", ids[0], luminosity.ErrNotFound)
	}
	for _, e := range ests {
		a.printResult(e.TargetID, e.LogLuminosity)
	}

	if !wantReports {
		return nil
	}
	run := report.NewRun(ests, track)
	run.DistanceUnits = cfg.GetDistanceUnits()
	log.Printf("run %s: %s", run.ID, report.Summarise(ests))

	if *csvOut != "" {
		if err := a.writeCSV(*csvOut, run); err != nil {
			return err
		}
	}
	if *plotOut != "" {
		if err := report.SaveDiagram(a.fs, *plotOut, run); err != nil {
			return err
		}
	}
	if *htmlOut != "" {
		if err := a.writeHTML(*htmlOut, run); err != nil {
			return err
		}
	}
	return nil
}

// newEstimator wires the configured sources. The returned func releases the
// database handle, if one was opened.
func (a *app) newEstimator(cfg *config.Config) (*luminosity.Estimator, func(), error) {
	iso := catalog.NewCSVIsochrone(a.fs, cfg.GetIsochronePath())
	iso.Columns = cfg.GetIsochroneColumns()

	if cfg.UseDatabase() {
		store, err := sqlite.Open(cfg.GetCrossMatchDB())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cross-match database: %w", err)
		}
		return luminosity.New(iso, store), func() { store.Close() }, nil
	}

	xm := catalog.NewCSVCrossMatch(a.fs, cfg.GetCrossMatchPath())
	xm.Columns = cfg.GetCrossMatchColumns()
	return luminosity.New(iso, xm), func() {}, nil
}

func (a *app) printResult(id catalog.TargetID, logL float64) {
	if math.IsNaN(logL) {
		fmt.Fprintf(a.stdout, "%d\tNaN\n", id)
		return
	}
	fmt.Fprintf(a.stdout, "%d\t%s\n", id, strconv.FormatFloat(logL, 'f', 6, 64))
}

func (a *app) writeCSV(path string, run *report.Run) error {
	f, err := a.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.WriteCSV(f, run); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func (a *app) writeHTML(path string, run *report.Run) error {
	f, err := a.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.RenderHTML(f, run); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func parseIDs(args []string) ([]catalog.TargetID, error) {
	ids := make([]catalog.TargetID, 0, len(args))
	for _, arg := range args {
		id, ok := catalog.ParseTargetID(arg)
		if !ok {
			return nil, fmt.Errorf("invalid TIC %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseFlags maps flag parse failures onto errUsage; -h stays flag.ErrHelp.
func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", errUsage, err)
}
