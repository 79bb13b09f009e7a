package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/tesslum/internal/catalog"
	"github.com/banshee-data/tesslum/internal/fsutil"
	"github.com/banshee-data/tesslum/internal/units"
)

// DefaultConfigPath is the config file read by tess-lum when -config is not
// given and the file exists.
const DefaultConfigPath = "tess-lum.json"

// Config locates the input tables and names their columns. Physical
// parameters are not configurable; see package physics.
//
// Example:
//
//	{
//	  "isochrone_path": "data/isochrones.csv",
//	  "crossmatch_db": "data/crossmatch.db",
//	  "crossmatch_columns": {"distance": "r_med_geo"}
//	}
type Config struct {
	IsochronePath  *string `json:"isochrone_path,omitempty"`
	CrossMatchPath *string `json:"crossmatch_path,omitempty"`

	// CrossMatchDB selects the SQLite cross-match backend when set.
	CrossMatchDB *string `json:"crossmatch_db,omitempty"`

	IsochroneColumns  *IsochroneColumns  `json:"isochrone_columns,omitempty"`
	CrossMatchColumns *CrossMatchColumns `json:"crossmatch_columns,omitempty"`

	// DistanceUnits sets the distance column of CSV reports (pc, ly, m, cm).
	DistanceUnits *string `json:"distance_units,omitempty"`
}

// IsochroneColumns overrides isochrone column names. Empty fields keep the
// default.
type IsochroneColumns struct {
	BP     string `json:"bp,omitempty"`
	RP     string `json:"rp,omitempty"`
	Ref    string `json:"ref,omitempty"`
	Target string `json:"target,omitempty"`
}

// CrossMatchColumns overrides cross-match column names. Empty fields keep
// the default.
type CrossMatchColumns struct {
	ID       string `json:"id,omitempty"`
	Distance string `json:"distance,omitempty"`
	BP       string `json:"bp,omitempty"`
	RP       string `json:"rp,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }

// EmptyConfig returns a Config with all fields set to nil.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a JSON file on fsys.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the file keep their defaults.
func LoadConfig(fsys fsutil.FileSystem, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.IsochronePath != nil && *c.IsochronePath == "" {
		return fmt.Errorf("isochrone_path must not be empty when set")
	}
	if c.CrossMatchPath != nil && *c.CrossMatchPath == "" {
		return fmt.Errorf("crossmatch_path must not be empty when set")
	}
	if c.CrossMatchDB != nil && *c.CrossMatchDB == "" {
		return fmt.Errorf("crossmatch_db must not be empty when set")
	}
	if c.DistanceUnits != nil && !units.IsValid(*c.DistanceUnits) {
		return fmt.Errorf("distance_units must be one of %s, got %q", units.GetValidUnitsString(), *c.DistanceUnits)
	}

	iso := c.GetIsochroneColumns()
	if err := distinct("isochrone_columns", iso.BP, iso.RP, iso.Ref, iso.Target); err != nil {
		return err
	}
	xm := c.GetCrossMatchColumns()
	if err := distinct("crossmatch_columns", xm.ID, xm.Distance, xm.BP, xm.RP); err != nil {
		return err
	}
	return nil
}

func distinct(field string, names ...string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return fmt.Errorf("%s: column %q used twice", field, n)
		}
		seen[n] = true
	}
	return nil
}

// SetIsochronePath overrides the isochrone path, e.g. from a flag.
func (c *Config) SetIsochronePath(p string) { c.IsochronePath = ptrString(p) }

// SetCrossMatchPath overrides the cross-match CSV path.
func (c *Config) SetCrossMatchPath(p string) { c.CrossMatchPath = ptrString(p) }

// SetCrossMatchDB overrides the cross-match database path.
func (c *Config) SetCrossMatchDB(p string) { c.CrossMatchDB = ptrString(p) }

// SetDistanceUnits overrides the report distance units.
func (c *Config) SetDistanceUnits(u string) { c.DistanceUnits = ptrString(u) }

// GetIsochronePath returns the isochrone_path value or the default.
func (c *Config) GetIsochronePath() string {
	if c.IsochronePath == nil {
		return catalog.DefaultIsochronePath
	}
	return *c.IsochronePath
}

// GetCrossMatchPath returns the crossmatch_path value or the default.
func (c *Config) GetCrossMatchPath() string {
	if c.CrossMatchPath == nil {
		return catalog.DefaultCrossMatchPath
	}
	return *c.CrossMatchPath
}

// GetCrossMatchDB returns the crossmatch_db value, or "" for the CSV backend.
func (c *Config) GetCrossMatchDB() string {
	if c.CrossMatchDB == nil {
		return ""
	}
	return *c.CrossMatchDB
}

// GetDistanceUnits returns the distance_units value or parsecs.
func (c *Config) GetDistanceUnits() string {
	if c.DistanceUnits == nil {
		return units.PC
	}
	return *c.DistanceUnits
}

// UseDatabase reports whether cross-match lookups go to SQLite.
func (c *Config) UseDatabase() bool {
	return c.GetCrossMatchDB() != ""
}

// GetIsochroneColumns merges overrides onto the default column names.
func (c *Config) GetIsochroneColumns() catalog.IsochroneColumns {
	cols := catalog.DefaultIsochroneColumns()
	if o := c.IsochroneColumns; o != nil {
		cols.BP = orDefault(o.BP, cols.BP)
		cols.RP = orDefault(o.RP, cols.RP)
		cols.Ref = orDefault(o.Ref, cols.Ref)
		cols.Target = orDefault(o.Target, cols.Target)
	}
	return cols
}

// GetCrossMatchColumns merges overrides onto the default column names.
func (c *Config) GetCrossMatchColumns() catalog.CrossMatchColumns {
	cols := catalog.DefaultCrossMatchColumns()
	if o := c.CrossMatchColumns; o != nil {
		cols.ID = orDefault(o.ID, cols.ID)
		cols.Distance = orDefault(o.Distance, cols.Distance)
		cols.BP = orDefault(o.BP, cols.BP)
		cols.RP = orDefault(o.RP, cols.RP)
	}
	return cols
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
