// Package monitoring holds the diagnostic logger shared by the catalog,
// estimator and report packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
// Library code logs through it so commands can redirect it and tests can
// mute it with SetLogger(nil).
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Capture redirects Logf into a slice of formatted-message records and
// returns the slice pointer together with a restore function.
func Capture() (*[]Record, func()) {
	original := Logf
	records := &[]Record{}
	Logf = func(format string, v ...interface{}) {
		*records = append(*records, Record{Format: format, Args: v})
	}
	return records, func() { Logf = original }
}

// Record is one captured Logf call.
type Record struct {
	Format string
	Args   []interface{}
}
