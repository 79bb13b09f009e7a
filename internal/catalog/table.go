// Package catalog reads the Gaia cross-match and isochrone tables and builds
// the main-sequence track used for colour-magnitude interpolation.
package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent from a
// table header.
var ErrMissingColumn = errors.New("missing column")

// maxLineBytes bounds a single physical line of an input table.
const maxLineBytes = 1 << 20

// TableReader streams rows of a comma-separated table with a header row.
// Rows may be shorter or longer than the header; use Cell for bounded access.
// A '#' starts a comment that runs to the end of the line; lines that are
// blank after comment removal are skipped.
type TableReader struct {
	r      *csv.Reader
	header []string
	index  map[string]int
	rows   int
}

// NewTableReader reads the header row from r.
func NewTableReader(r io.Reader) (*TableReader, error) {
	cr := csv.NewReader(&commentFilter{sc: newScanner(r)})
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("table has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &TableReader{
		r:      cr,
		header: make([]string, len(header)),
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		t.header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t, nil
}

// Header returns the trimmed column names.
func (t *TableReader) Header() []string {
	return t.header
}

// Columns resolves column names to field indexes. The first missing name
// produces an error wrapping ErrMissingColumn.
func (t *TableReader) Columns(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j, ok := t.index[name]
		if !ok {
			return nil, fmt.Errorf("%w %q (have %s)", ErrMissingColumn, name, strings.Join(t.header, ","))
		}
		idx[i] = j
	}
	return idx, nil
}

// Next returns the next data row, or io.EOF after the last one. The returned
// slice is reused by the following call.
func (t *TableReader) Next() ([]string, error) {
	rec, err := t.r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("row %d: %w", t.rows+1, err)
	}
	t.rows++
	return rec, nil
}

// Cell returns field i of row, or "" when the row is too short to have it.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Rows returns the number of data rows read so far.
func (t *TableReader) Rows() int {
	return t.rows
}

// ParseFloat reads a numeric cell. Empty or unparseable cells are NaN.
func ParseFloat(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseTargetID reads an integer identifier cell. Integral floats such as
// "2.5e7" or "12.0" are accepted; anything else reports false.
func ParseTargetID(cell string) (TargetID, bool) {
	cell = strings.TrimSpace(cell)
	if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return TargetID(v), true
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return TargetID(f), true
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return sc
}

// commentFilter yields the input line by line with comments and blank lines
// removed.
type commentFilter struct {
	sc  *bufio.Scanner
	buf []byte
}

func (c *commentFilter) Read(p []byte) (int, error) {
	for len(c.buf) == 0 {
		if !c.sc.Scan() {
			if err := c.sc.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		line := c.sc.Bytes()
		if i := bytes.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = bytes.TrimRight(line, " \t\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		c.buf = append(append(c.buf[:0], line...), '\n')
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}
