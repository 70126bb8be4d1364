package hotels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		Host:    "hotels.example.com",
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		RPS:     100,
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	return c
}

func TestFindCitiesFiltersNonCityEntries(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, citySearchPath, r.URL.Path)
		assert.Equal(t, "london", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "hotels.example.com", r.Header.Get("X-RapidAPI-Host"))

		_, _ = w.Write([]byte(`{"sr":[
			{"type":"AIRPORT","gaiaId":"1","regionNames":{"shortName":"Heathrow"}},
			{"type":"CITY","gaiaId":"2114","regionNames":{"shortName":"London"}},
			{"type":"CITY","gaiaId":"9001","regionNames":{"shortName":"London, Ontario"}}
		]}`))
	})

	cities, err := c.FindCities(context.Background(), "london")
	require.NoError(t, err)
	assert.Equal(t, []City{
		{ID: "2114", Name: "London"},
		{ID: "9001", Name: "London, Ontario"},
	}, cities)
}

func TestFindCitiesNoMatches(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sr":[]}`))
	})

	cities, err := c.FindCities(context.Background(), "xyzzy")
	require.NoError(t, err)
	assert.Empty(t, cities)
}

func TestFindCitiesMalformedEntry(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sr":[{"type":"CITY","regionNames":{"shortName":"Nowhere"}}]}`))
	})

	_, err := c.FindCities(context.Background(), "nowhere")
	assert.Error(t, err)
}

func listFixture() string {
	return `{"data":{"propertySearch":{"properties":[
		{"id":"h1","name":"Plaza","price":{"lead":{"amount":100.004}},
		 "destinationInfo":{"distanceFromDestination":{"value":1.2}}},
		{"id":"h2","name":"Hostel","price":{"lead":{"amount":80}},
		 "destinationInfo":{"distanceFromDestination":{"value":2.4}}},
		{"id":"h3","name":"Grand","price":{"lead":{"amount":120}},
		 "destinationInfo":{"distanceFromDestination":{"value":0.3}}}
	]}}}`
}

func TestSearchHotelsLowDelegatesSortToAPI(t *testing.T) {
	var captured map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, hotelListPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(listFixture()))
	})

	q := Query{
		RegionID: "2114",
		Limit:    2,
		CheckIn:  time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Mode:     ModeLow,
	}
	cands, err := c.SearchHotels(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "PRICE_LOW_TO_HIGH", captured["sort"])
	assert.EqualValues(t, 2, captured["resultsSize"])
	checkIn := captured["checkInDate"].(map[string]any)
	assert.EqualValues(t, 10, checkIn["day"])
	assert.EqualValues(t, 9, checkIn["month"])

	// API order is preserved, prices rounded to cents.
	require.Len(t, cands, 3)
	assert.Equal(t, "h1", cands[0].ID)
	assert.Equal(t, 100.0, cands[0].NightlyPrice)
}

func TestSearchHotelsHighSortsAndTruncatesLocally(t *testing.T) {
	var captured map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(listFixture()))
	})

	cands, err := c.SearchHotels(context.Background(), Query{RegionID: "2114", Limit: 2, Mode: ModeHigh})
	require.NoError(t, err)

	_, hasSort := captured["sort"]
	assert.False(t, hasSort)
	assert.EqualValues(t, wideResultsSize, captured["resultsSize"])

	require.Len(t, cands, 2)
	assert.Equal(t, "h3", cands[0].ID)
	assert.Equal(t, "h1", cands[1].ID)
}

func TestSearchHotelsBestDealsSendsPriceFilter(t *testing.T) {
	var captured map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(listFixture()))
	})

	q := Query{RegionID: "2114", Limit: 5, Mode: ModeBestDeals, DistanceKM: 2, LowPrice: 50, HighPrice: 150}
	cands, err := c.SearchHotels(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "DISTANCE", captured["sort"])
	price := captured["filters"].(map[string]any)["price"].(map[string]any)
	assert.EqualValues(t, 50, price["min"])
	assert.EqualValues(t, 150, price["max"])

	// h2 sits at 2.4 km, past the cutoff.
	require.Len(t, cands, 2)
	assert.Equal(t, "h1", cands[0].ID)
	assert.Equal(t, "h3", cands[1].ID)
}

func TestSearchHotelsErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.SearchHotels(context.Background(), Query{RegionID: "1", Limit: 1, Mode: ModeLow})
	assert.ErrorContains(t, err, "unexpected status 429")
}

func TestGetDetails(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, hotelInfoPath, r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "h1", req["propertyId"])

		_, _ = w.Write([]byte(`{"data":{"propertyInfo":{
			"summary":{"location":{"address":{"addressLine":"1 Main St"}}},
			"propertyGallery":{"images":[
				{"image":{"url":"https://img/1.jpg"}},
				{"image":{"url":"https://img/2.jpg"}},
				{"image":{"url":"https://img/3.jpg"}}
			]}}}}`))
	})

	det, err := c.GetDetails(context.Background(), "h1", true, 2)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", det.Address)
	assert.Equal(t, []string{"https://img/1.jpg", "https://img/2.jpg"}, det.Images)
}

func TestGetDetailsMissingAddressAndNoImages(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"propertyInfo":{
			"propertyGallery":{"images":[{"image":{"url":"https://img/1.jpg"}}]}}}}`))
	})

	det, err := c.GetDetails(context.Background(), "h9", false, 5)
	require.NoError(t, err)
	assert.Equal(t, AddressNotFound, det.Address)
	assert.Nil(t, det.Images)
}
