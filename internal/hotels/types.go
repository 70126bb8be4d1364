package hotels

import "time"

// Mode selects the sort/filter policy of one hotel search. It is fixed when
// the user issues the search command and never changes afterwards.
type Mode string

const (
	// ModeLow returns the cheapest hotels, sorted by the API.
	ModeLow Mode = "low"
	// ModeHigh returns the most expensive hotels, sorted locally.
	ModeHigh Mode = "high"
	// ModeBestDeals returns hotels within a price range and distance cutoff.
	ModeBestDeals Mode = "bestdeals"
)

// City is one disambiguation candidate returned by the location lookup.
type City struct {
	ID   string
	Name string
}

// Candidate is the per-hotel summary returned by the list endpoint.
type Candidate struct {
	ID           string
	Name         string
	NightlyPrice float64
	DistanceKM   float64
}

// Details carries the extra information fetched per hotel.
type Details struct {
	Address string
	Images  []string
}

// AddressNotFound is the sentinel address used when the detail endpoint
// does not provide one.
const AddressNotFound = "not found"

// Query describes one hotel search. DistanceKM, LowPrice and HighPrice are
// only meaningful for ModeBestDeals.
type Query struct {
	RegionID   string
	Limit      int
	CheckIn    time.Time
	CheckOut   time.Time
	DistanceKM int
	LowPrice   int
	HighPrice  int
	Mode       Mode
}
