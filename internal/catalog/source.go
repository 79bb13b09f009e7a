package catalog

// IsochroneSource loads the reference isochrone.
type IsochroneSource interface {
	LoadIsochrone() (*Isochrone, error)
}

// CrossMatchSource loads cross-match records. Implementations must return
// at least the records for ids; they may return more. A nil ids asks for the
// whole table.
type CrossMatchSource interface {
	LoadCrossMatch(ids []TargetID) (*CrossMatch, error)
}
