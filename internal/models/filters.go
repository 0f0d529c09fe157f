package models

// ArchiveFilters narrows an archive browse query. Empty strings and false
// flags mean "no constraint".
type ArchiveFilters struct {
	City           string
	Country        string
	Function       string
	ConversionOnly bool
	Limit          int
	Offset         int
}

// GhostSiteFilters narrows a ghost site browse query
type GhostSiteFilters struct {
	City           string
	Country        string
	MinProbability *float64
	MinLotSize     *float64
	Limit          int
	Offset         int
}
