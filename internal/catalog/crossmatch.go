package catalog

import (
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/tesslum/internal/fsutil"
	"github.com/banshee-data/tesslum/internal/monitoring"
)

// DefaultCrossMatchPath is the cross-match table read when no path is
// configured.
const DefaultCrossMatchPath = "TESSgaia1to15.csv"

// TargetID is a TESS Input Catalog identifier.
type TargetID int64

// CrossMatchRecord holds the Gaia measurements for one target. Absent
// values are NaN.
type CrossMatchRecord struct {
	DistancePC float64 // r_est, parsecs
	BPMag      float64 // Gaia BP mean magnitude
	RPMag      float64 // Gaia RP mean magnitude
}

// Color returns the BP-RP colour index.
func (r CrossMatchRecord) Color() float64 {
	return r.BPMag - r.RPMag
}

// MissingRecord is the all-NaN record used for unmatched targets.
func MissingRecord() CrossMatchRecord {
	nan := math.NaN()
	return CrossMatchRecord{DistancePC: nan, BPMag: nan, RPMag: nan}
}

// CrossMatch is a keyed view of the cross-match table.
type CrossMatch struct {
	Records    map[TargetID]CrossMatchRecord
	Rows       int // data rows scanned
	Duplicates int // rows dropped because their ID was already present
	BadIDs     int // rows skipped because the ID did not parse
}

// NewCrossMatch returns an empty CrossMatch.
func NewCrossMatch() *CrossMatch {
	return &CrossMatch{Records: make(map[TargetID]CrossMatchRecord)}
}

// Add stores rec under id unless id is already present, in which case the
// first record is kept and the duplicate is counted. It reports whether rec
// was stored.
func (c *CrossMatch) Add(id TargetID, rec CrossMatchRecord) bool {
	if _, ok := c.Records[id]; ok {
		c.Duplicates++
		return false
	}
	c.Records[id] = rec
	return true
}

// Lookup returns the record for id.
func (c *CrossMatch) Lookup(id TargetID) (CrossMatchRecord, bool) {
	rec, ok := c.Records[id]
	return rec, ok
}

// CrossMatchColumns names the cross-match table columns.
type CrossMatchColumns struct {
	ID       string
	Distance string
	BP       string
	RP       string
}

// DefaultCrossMatchColumns returns the column names used by the TESS-Gaia
// DR2 cross-match release.
func DefaultCrossMatchColumns() CrossMatchColumns {
	return CrossMatchColumns{
		ID:       "ticid",
		Distance: "r_est",
		BP:       "phot_bp_mean_mag",
		RP:       "phot_rp_mean_mag",
	}
}

func (c CrossMatchColumns) names() []string {
	return []string{c.ID, c.Distance, c.BP, c.RP}
}

// ScanCrossMatch streams cross-match rows from t, calling fn for each row
// with a parseable ID. Rows with unparseable IDs are counted and skipped.
func ScanCrossMatch(t *TableReader, cols CrossMatchColumns, fn func(TargetID, CrossMatchRecord) error) (badIDs int, err error) {
	idx, err := t.Columns(cols.names()...)
	if err != nil {
		return 0, err
	}
	for {
		row, err := t.Next()
		if err == io.EOF {
			return badIDs, nil
		}
		if err != nil {
			return badIDs, err
		}
		id, ok := ParseTargetID(Cell(row, idx[0]))
		if !ok {
			badIDs++
			continue
		}
		rec := CrossMatchRecord{
			DistancePC: ParseFloat(Cell(row, idx[1])),
			BPMag:      ParseFloat(Cell(row, idx[2])),
			RPMag:      ParseFloat(Cell(row, idx[3])),
		}
		if err := fn(id, rec); err != nil {
			return badIDs, err
		}
	}
}

// CSVCrossMatch loads the cross-match table from a CSV file on every call.
type CSVCrossMatch struct {
	FS      fsutil.FileSystem
	Path    string
	Columns CrossMatchColumns
}

// NewCSVCrossMatch returns a CSV cross-match source with the default
// columns.
func NewCSVCrossMatch(fsys fsutil.FileSystem, path string) *CSVCrossMatch {
	return &CSVCrossMatch{FS: fsys, Path: path, Columns: DefaultCrossMatchColumns()}
}

// LoadCrossMatch reads the whole table. When ids is non-nil only rows for
// those IDs are retained; the scan still covers every row.
func (s *CSVCrossMatch) LoadCrossMatch(ids []TargetID) (*CrossMatch, error) {
	f, err := s.FS.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cross-match table: %w", err)
	}
	defer f.Close()

	t, err := NewTableReader(f)
	if err != nil {
		return nil, fmt.Errorf("cross-match table %s: %w", s.Path, err)
	}

	var want map[TargetID]struct{}
	if ids != nil {
		want = make(map[TargetID]struct{}, len(ids))
		for _, id := range ids {
			want[id] = struct{}{}
		}
	}

	xm := NewCrossMatch()
	bad, err := ScanCrossMatch(t, s.Columns, func(id TargetID, rec CrossMatchRecord) error {
		if want != nil {
			if _, ok := want[id]; !ok {
				return nil
			}
		}
		xm.Add(id, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cross-match table %s: %w", s.Path, err)
	}
	xm.Rows = t.Rows()
	xm.BadIDs = bad

	if xm.BadIDs > 0 {
		monitoring.Logf("cross-match %s: skipped %d rows with unparseable %s", s.Path, xm.BadIDs, s.Columns.ID)
	}
	if xm.Duplicates > 0 {
		monitoring.Logf("cross-match %s: %d duplicate %s rows ignored (first row kept)", s.Path, xm.Duplicates, s.Columns.ID)
	}
	return xm, nil
}
