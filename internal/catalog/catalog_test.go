package catalog

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tesslum/internal/fsutil"
	"github.com/banshee-data/tesslum/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

const crossMatchCSV = `# TESS-Gaia cross-match
ticid,source_id,r_est,phot_bp_mean_mag,phot_rp_mean_mag
100,9001,10.0,1.0,0.5
200,9002,250.5,11.2,10.1
300,9003,,9.0,8.0
100,9004,99.0,5.0,4.0
bogus,9005,1,1,1
`

func memFS(t *testing.T, files map[string]string) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	for name, body := range files {
		require.NoError(t, mfs.WriteFile(name, []byte(body), 0644))
	}
	return mfs
}

func TestCSVCrossMatch_LoadAll(t *testing.T) {
	src := NewCSVCrossMatch(memFS(t, map[string]string{"xm.csv": crossMatchCSV}), "xm.csv")

	xm, err := src.LoadCrossMatch(nil)
	require.NoError(t, err)

	assert.Equal(t, 5, xm.Rows)
	assert.Equal(t, 1, xm.Duplicates)
	assert.Equal(t, 1, xm.BadIDs)
	require.Len(t, xm.Records, 3)

	// first row for a duplicated ID wins
	rec, ok := xm.Lookup(100)
	require.True(t, ok)
	assert.Equal(t, CrossMatchRecord{DistancePC: 10, BPMag: 1, RPMag: 0.5}, rec)
	assert.InDelta(t, 0.5, rec.Color(), 1e-12)

	rec, ok = xm.Lookup(300)
	require.True(t, ok)
	assert.True(t, math.IsNaN(rec.DistancePC), "absent r_est should read as NaN")
	assert.Equal(t, 9.0, rec.BPMag)
}

func TestCSVCrossMatch_ShortRows(t *testing.T) {
	body := "ticid,r_est,phot_bp_mean_mag,phot_rp_mean_mag\n" +
		"1,10,1.0,0.5\n" +
		"6,10\n" +
		",20,1.0,0.5\n" +
		"7,30,2.0,1.0,extra\n"
	src := NewCSVCrossMatch(memFS(t, map[string]string{"xm.csv": body}), "xm.csv")

	xm, err := src.LoadCrossMatch(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, xm.Rows)
	assert.Equal(t, 1, xm.BadIDs, "an empty ID cell is a bad ID")
	require.Len(t, xm.Records, 3)

	rec, ok := xm.Lookup(6)
	require.True(t, ok)
	assert.Equal(t, 10.0, rec.DistancePC)
	assert.True(t, math.IsNaN(rec.BPMag))
	assert.True(t, math.IsNaN(rec.RPMag))

	rec, ok = xm.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, CrossMatchRecord{DistancePC: 30, BPMag: 2, RPMag: 1}, rec)
}

func TestCSVCrossMatch_LoadSubset(t *testing.T) {
	src := NewCSVCrossMatch(memFS(t, map[string]string{"xm.csv": crossMatchCSV}), "xm.csv")

	xm, err := src.LoadCrossMatch([]TargetID{200, 404})
	require.NoError(t, err)
	assert.Equal(t, 5, xm.Rows)
	require.Len(t, xm.Records, 1)
	_, ok := xm.Lookup(200)
	assert.True(t, ok)
	_, ok = xm.Lookup(404)
	assert.False(t, ok)
}

func TestCSVCrossMatch_CustomColumns(t *testing.T) {
	body := "tic,dist,bp,rp\n5,20,3,2\n"
	src := &CSVCrossMatch{
		FS:      memFS(t, map[string]string{"x.csv": body}),
		Path:    "x.csv",
		Columns: CrossMatchColumns{ID: "tic", Distance: "dist", BP: "bp", RP: "rp"},
	}
	xm, err := src.LoadCrossMatch(nil)
	require.NoError(t, err)
	assert.Equal(t, CrossMatchRecord{DistancePC: 20, BPMag: 3, RPMag: 2}, xm.Records[5])
}

func TestCSVCrossMatch_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		src := NewCSVCrossMatch(fsutil.NewMemoryFileSystem(), "nope.csv")
		_, err := src.LoadCrossMatch(nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})
	t.Run("missing column", func(t *testing.T) {
		src := NewCSVCrossMatch(memFS(t, map[string]string{"x.csv": "ticid,r_est\n1,2\n"}), "x.csv")
		_, err := src.LoadCrossMatch(nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingColumn))
	})
}

func TestMissingRecord(t *testing.T) {
	rec := MissingRecord()
	assert.True(t, math.IsNaN(rec.DistancePC))
	assert.True(t, math.IsNaN(rec.Color()))
}

const isochroneCSV = `# Padova isochrone, log(age)=9.0
Gmag,G_BPbrmag,G_RPmag,TESSmag
12.0,13.5,11.0,10.9
8.0,9.0,7.5,7.4
5.0,1.0,0.5,4.8
3.0,2.0,1.0,2.9
`

func TestCSVIsochrone_Load(t *testing.T) {
	src := NewCSVIsochrone(memFS(t, map[string]string{"iso.csv": isochroneCSV}), "iso.csv")

	iso, err := src.LoadIsochrone()
	require.NoError(t, err)

	want := []IsochronePoint{
		{BPMag: 13.5, RPMag: 11.0, RefMag: 12.0, TargetMag: 10.9},
		{BPMag: 9.0, RPMag: 7.5, RefMag: 8.0, TargetMag: 7.4},
		{BPMag: 1.0, RPMag: 0.5, RefMag: 5.0, TargetMag: 4.8},
		{BPMag: 2.0, RPMag: 1.0, RefMag: 3.0, TargetMag: 2.9},
	}
	if diff := cmp.Diff(want, iso.Points); diff != "" {
		t.Errorf("isochrone points mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVIsochrone_MissingColumn(t *testing.T) {
	src := NewCSVIsochrone(memFS(t, map[string]string{"iso.csv": "Gmag,G_RPmag\n1,2\n"}), "iso.csv")
	_, err := src.LoadIsochrone()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "G_BPbrmag")
}

func TestCSVIsochrone_ShortRow(t *testing.T) {
	body := "Gmag,G_BPbrmag,G_RPmag,TESSmag\n12.0,13.5,11.0,10.9\n8.0,9.0\n"
	iso, err := NewCSVIsochrone(memFS(t, map[string]string{"iso.csv": body}), "iso.csv").LoadIsochrone()
	require.NoError(t, err)
	require.Len(t, iso.Points, 2)
	assert.Equal(t, 8.0, iso.Points[1].RefMag)
	assert.Equal(t, 9.0, iso.Points[1].BPMag)
	assert.True(t, math.IsNaN(iso.Points[1].RPMag))
	assert.True(t, math.IsNaN(iso.Points[1].TargetMag))
}

func TestBuildTrack(t *testing.T) {
	iso, err := NewCSVIsochrone(memFS(t, map[string]string{"iso.csv": isochroneCSV}), "iso.csv").LoadIsochrone()
	require.NoError(t, err)

	tr, err := BuildTrack(iso)
	require.NoError(t, err)

	// The giant (Gmag 3.0) is cut, the rest are reversed into colour order.
	opt := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff([]float64{0.5, 1.5, 2.5}, tr.Colors, opt); diff != "" {
		t.Errorf("colors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{4.8, 7.4, 10.9}, tr.Mags, opt); diff != "" {
		t.Errorf("mags mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, tr.Unsorted)
	assert.Zero(t, tr.Collapsed)

	lo, hi := tr.ColorRange()
	assert.InDelta(t, 0.5, lo, 1e-12)
	assert.InDelta(t, 2.5, hi, 1e-12)
}

func TestBuildTrack_Filters(t *testing.T) {
	iso := &Isochrone{Points: []IsochronePoint{
		{BPMag: 1, RPMag: 1.2, RefMag: 9, TargetMag: 8},        // negative colour
		{BPMag: 6, RPMag: 1, RefMag: 15, TargetMag: 13},        // colour 5 too red
		{BPMag: 2, RPMag: 1, RefMag: 4, TargetMag: 3.9},        // G == 4 not fainter
		{BPMag: 2, RPMag: 1, RefMag: 6, TargetMag: math.NaN()}, // no TESS mag
	}}
	_, err := BuildTrack(iso)
	assert.True(t, errors.Is(err, ErrEmptyTrack))
}

func TestBuildTrack_NonMonotonic(t *testing.T) {
	// File order after reversal: 1.0, 0.8, 1.0, 2.0
	iso := &Isochrone{Points: []IsochronePoint{
		{BPMag: 3.0, RPMag: 1.0, RefMag: 9, TargetMag: 8.0},
		{BPMag: 2.0, RPMag: 1.0, RefMag: 6, TargetMag: 5.5},
		{BPMag: 1.8, RPMag: 1.0, RefMag: 5.5, TargetMag: 5.0},
		{BPMag: 2.0, RPMag: 1.0, RefMag: 6, TargetMag: 5.6},
	}}
	tr, err := BuildTrack(iso)
	require.NoError(t, err)

	assert.True(t, tr.Unsorted)
	assert.Equal(t, 1, tr.Collapsed)
	opt := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff([]float64{0.8, 1.0, 2.0}, tr.Colors, opt); diff != "" {
		t.Errorf("colors mismatch (-want +got):\n%s", diff)
	}
	// stable sort keeps the first 1.0 point met after reversal (TESS 5.6)
	if diff := cmp.Diff([]float64{5.0, 5.6, 8.0}, tr.Mags, opt); diff != "" {
		t.Errorf("mags mismatch (-want +got):\n%s", diff)
	}
}

func TestTrack_MagnitudeAt(t *testing.T) {
	tr, err := BuildTrack(&Isochrone{Points: []IsochronePoint{
		{BPMag: 3.0, RPMag: 1.0, RefMag: 9, TargetMag: 9.0}, // colour 2
		{BPMag: 2.0, RPMag: 1.0, RefMag: 6, TargetMag: 5.0}, // colour 1
	}})
	require.NoError(t, err)

	tests := []struct {
		name  string
		color float64
		want  float64
	}{
		{"at blue end", 1.0, 5.0},
		{"at red end", 2.0, 9.0},
		{"midpoint", 1.5, 7.0},
		{"quarter", 1.25, 6.0},
		{"bluer than track clamps", 0.2, 5.0},
		{"redder than track clamps", 3.9, 9.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tr.MagnitudeAt(tt.color), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(tr.MagnitudeAt(math.NaN())))
}

func TestTrack_SinglePoint(t *testing.T) {
	tr, err := BuildTrack(&Isochrone{Points: []IsochronePoint{
		{BPMag: 2.0, RPMag: 1.0, RefMag: 6, TargetMag: 5.0},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, 5.0, tr.MagnitudeAt(0.1))
	assert.Equal(t, 5.0, tr.MagnitudeAt(4.0))
	assert.True(t, math.IsNaN(tr.MagnitudeAt(math.NaN())))
}
