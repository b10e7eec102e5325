package catalog

// LoadStatus tracks the catalog fetch behind a listing.
type LoadStatus int

const (
	StatusLoading LoadStatus = iota
	StatusLoaded
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "loading"
	}
}

// ViewState is what a listing should render.
type ViewState string

const (
	ViewLoading      ViewState = "loading"
	ViewFailed       ViewState = "failed"
	ViewEmptyCatalog ViewState = "empty-catalog"
	ViewNoMatches    ViewState = "no-matches"
	ViewResults      ViewState = "results"
)

// Classify picks the view for a listing given the load status, the size of
// the whole catalog and the number of products left after filtering.
// "No matches" is only reported when the catalog itself is not empty.
func Classify(status LoadStatus, total, matched int) ViewState {
	switch {
	case status == StatusLoading:
		return ViewLoading
	case status == StatusFailed:
		return ViewFailed
	case total == 0:
		return ViewEmptyCatalog
	case matched == 0:
		return ViewNoMatches
	default:
		return ViewResults
	}
}
