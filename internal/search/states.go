package search

import (
	"hotelscout/core/telegram/state"
	"hotelscout/internal/hotels"
)

// Conversation states of one hotel search. The flow is linear with a single
// branch after the image steps: best-deal searches collect distance and a
// price range before finishing, the others finish immediately.
const (
	StateAwaitingCity          state.State = "awaiting_city"
	StateAwaitingCitySelection state.State = "awaiting_city_selection"
	StateAwaitingHotelCount    state.State = "awaiting_hotel_count"
	StateAwaitingCheckIn       state.State = "awaiting_check_in"
	StateAwaitingCheckOut      state.State = "awaiting_check_out"
	StateAwaitingImagesYN      state.State = "awaiting_images_yn"
	StateAwaitingImageCount    state.State = "awaiting_image_count"
	StateAwaitingDistance      state.State = "awaiting_distance"
	StateAwaitingLowPrice      state.State = "awaiting_low_price"
	StateAwaitingHighPrice     state.State = "awaiting_high_price"
)

// afterImages resolves the branch point: best deals continue with the
// distance question, everything else is complete.
func afterImages(mode hotels.Mode) (state.State, bool) {
	if mode == hotels.ModeBestDeals {
		return StateAwaitingDistance, false
	}
	return state.StateIdle, true
}
