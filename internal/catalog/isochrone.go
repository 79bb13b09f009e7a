package catalog

import (
	"fmt"
	"io"

	"github.com/banshee-data/tesslum/internal/fsutil"
)

// DefaultIsochronePath is the isochrone table read when no path is
// configured.
const DefaultIsochronePath = "isochrones.csv"

// IsochronePoint is one synthetic star on the reference isochrone.
type IsochronePoint struct {
	BPMag     float64 // Gaia BP
	RPMag     float64 // Gaia RP
	RefMag    float64 // Gaia G, absolute
	TargetMag float64 // TESS, absolute
}

// Color returns the BP-RP colour index.
func (p IsochronePoint) Color() float64 {
	return p.BPMag - p.RPMag
}

// Isochrone is the isochrone table in file order.
type Isochrone struct {
	Points []IsochronePoint
}

// IsochroneColumns names the isochrone table columns.
type IsochroneColumns struct {
	BP     string
	RP     string
	Ref    string
	Target string
}

// DefaultIsochroneColumns returns the column names written by the CMD
// isochrone service for the Gaia DR2 + TESS photometric systems.
func DefaultIsochroneColumns() IsochroneColumns {
	return IsochroneColumns{
		BP:     "G_BPbrmag",
		RP:     "G_RPmag",
		Ref:    "Gmag",
		Target: "TESSmag",
	}
}

// ReadIsochrone reads every row of an isochrone table.
func ReadIsochrone(r io.Reader, cols IsochroneColumns) (*Isochrone, error) {
	t, err := NewTableReader(r)
	if err != nil {
		return nil, err
	}
	idx, err := t.Columns(cols.BP, cols.RP, cols.Ref, cols.Target)
	if err != nil {
		return nil, err
	}

	iso := &Isochrone{}
	for {
		row, err := t.Next()
		if err == io.EOF {
			return iso, nil
		}
		if err != nil {
			return nil, err
		}
		iso.Points = append(iso.Points, IsochronePoint{
			BPMag:     ParseFloat(Cell(row, idx[0])),
			RPMag:     ParseFloat(Cell(row, idx[1])),
			RefMag:    ParseFloat(Cell(row, idx[2])),
			TargetMag: ParseFloat(Cell(row, idx[3])),
		})
	}
}

// CSVIsochrone loads the isochrone from a CSV file on every call.
type CSVIsochrone struct {
	FS      fsutil.FileSystem
	Path    string
	Columns IsochroneColumns
}

// NewCSVIsochrone returns a CSV isochrone source with the default columns.
func NewCSVIsochrone(fsys fsutil.FileSystem, path string) *CSVIsochrone {
	return &CSVIsochrone{FS: fsys, Path: path, Columns: DefaultIsochroneColumns()}
}

// LoadIsochrone reads the isochrone table.
func (s *CSVIsochrone) LoadIsochrone() (*Isochrone, error) {
	f, err := s.FS.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open isochrone table: %w", err)
	}
	defer f.Close()

	iso, err := ReadIsochrone(f, s.Columns)
	if err != nil {
		return nil, fmt.Errorf("isochrone table %s: %w", s.Path, err)
	}
	return iso, nil
}
