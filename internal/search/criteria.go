// Package search drives the multi-turn hotel search conversation: the state
// machine collecting criteria step by step and the orchestrator that turns
// completed criteria into rendered, persisted results.
package search

import (
	"time"

	"hotelscout/internal/hotels"
)

// Criteria accumulates the parameters of one in-progress hotel search.
// Fields fill monotonically, one conversation state at a time; Mode never
// changes once the search command is issued. DistanceKM, LowPrice and
// HighPrice are collected only for best-deal searches.
type Criteria struct {
	Mode        hotels.Mode `json:"mode"`
	CityName    string      `json:"city_name,omitempty"`
	CityID      string      `json:"city_id,omitempty"`
	HotelCount  int         `json:"hotel_count,omitempty"`
	CheckIn     time.Time   `json:"check_in,omitempty"`
	CheckOut    time.Time   `json:"check_out,omitempty"`
	WantsImages bool        `json:"wants_images,omitempty"`
	ImageCount  int         `json:"image_count,omitempty"`
	DistanceKM  int         `json:"distance_km,omitempty"`
	LowPrice    int         `json:"low_price,omitempty"`
	HighPrice   int         `json:"high_price,omitempty"`
}

// TotalNights is the length of the stay in nights. Both dates are stored at
// midnight UTC, so the division is exact.
func (cr Criteria) TotalNights() int {
	return int(cr.CheckOut.Sub(cr.CheckIn).Hours() / 24)
}
