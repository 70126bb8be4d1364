package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotelscout/internal/history"
	"hotelscout/internal/hotels"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	cands     []hotels.Candidate
	searchErr error
	details   map[string]hotels.Details
	detailErr map[string]error
	queries   []hotels.Query
}

func (f *fakeAPI) SearchHotels(_ context.Context, q hotels.Query) ([]hotels.Candidate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.cands, nil
}

func (f *fakeAPI) GetDetails(_ context.Context, hotelID string, _ bool, _ int) (hotels.Details, error) {
	if err := f.detailErr[hotelID]; err != nil {
		return hotels.Details{}, err
	}
	return f.details[hotelID], nil
}

type fakeHistory struct {
	mu   sync.Mutex
	recs []*history.Record
	err  error
}

func (f *fakeHistory) WriteSearchHistory(_ context.Context, rec *history.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, rec)
	return nil
}

func lowCriteria() Criteria {
	return Criteria{
		Mode:       hotels.ModeLow,
		CityName:   "London",
		CityID:     "2114",
		HotelCount: 3,
		CheckIn:    time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunKeepsCandidateOrderAndComputesTotals(t *testing.T) {
	api := &fakeAPI{
		cands: []hotels.Candidate{
			{ID: "a", Name: "A", NightlyPrice: 33.33, DistanceKM: 1},
			{ID: "b", Name: "B", NightlyPrice: 50, DistanceKM: 2},
			{ID: "c", Name: "C", NightlyPrice: 75.5, DistanceKM: 3},
		},
		details: map[string]hotels.Details{
			"a": {Address: "A St"},
			"b": {Address: "B St"},
			"c": {Address: "C St"},
		},
	}
	hist := &fakeHistory{}
	orch := NewOrchestrator(api, hist, 2)

	results, err := orch.Run(context.Background(), 42, lowCriteria())
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Original result order survives the concurrent detail fan-out.
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
	assert.Equal(t, "c", results[2].ID)

	// Three nights at 33.33 rounds to cents.
	assert.Equal(t, 99.99, results[0].TotalPrice)
	assert.Equal(t, 150.0, results[1].TotalPrice)
	assert.Equal(t, "A St", results[0].Address)

	require.Len(t, hist.recs, 1)
	rec := hist.recs[0]
	assert.Equal(t, int64(42), rec.UserID)
	assert.Equal(t, "low", rec.Command)
	assert.Len(t, rec.Hotels, 3)
	assert.Nil(t, rec.DistanceKM)
}

func TestRunDetailFailureDegradesOneHotel(t *testing.T) {
	api := &fakeAPI{
		cands: []hotels.Candidate{
			{ID: "ok", Name: "OK", NightlyPrice: 10},
			{ID: "broken", Name: "Broken", NightlyPrice: 20},
		},
		details:   map[string]hotels.Details{"ok": {Address: "1 Fine St", Images: []string{"u"}}},
		detailErr: map[string]error{"broken": errors.New("boom")},
	}
	hist := &fakeHistory{}
	orch := NewOrchestrator(api, hist, 1)

	results, err := orch.Run(context.Background(), 1, lowCriteria())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Incomplete)
	assert.True(t, results[1].Incomplete)
	assert.Equal(t, hotels.AddressNotFound, results[1].Address)
	assert.Empty(t, results[1].Images)

	// The degraded hotel is still persisted, sentinel address and all.
	require.Len(t, hist.recs, 1)
	assert.Equal(t, hotels.AddressNotFound, hist.recs[0].Hotels[1].Address)
}

func TestRunNoCandidates(t *testing.T) {
	api := &fakeAPI{}
	hist := &fakeHistory{}
	orch := NewOrchestrator(api, hist, 1)

	_, err := orch.Run(context.Background(), 1, lowCriteria())
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Empty(t, hist.recs)
}

func TestRunSearchFailureIsTransportError(t *testing.T) {
	api := &fakeAPI{searchErr: errors.New("connection reset")}
	hist := &fakeHistory{}
	orch := NewOrchestrator(api, hist, 1)

	_, err := orch.Run(context.Background(), 1, lowCriteria())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Empty(t, hist.recs)
}

func TestRunHistoryFailureDoesNotAffectResults(t *testing.T) {
	api := &fakeAPI{
		cands:   []hotels.Candidate{{ID: "a", NightlyPrice: 10}},
		details: map[string]hotels.Details{"a": {Address: "A St"}},
	}
	hist := &fakeHistory{err: errors.New("db down")}
	orch := NewOrchestrator(api, hist, 1)

	results, err := orch.Run(context.Background(), 1, lowCriteria())
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRunBestDealsPersistsRange(t *testing.T) {
	api := &fakeAPI{
		cands:   []hotels.Candidate{{ID: "a", NightlyPrice: 60, DistanceKM: 1}},
		details: map[string]hotels.Details{"a": {Address: "A St"}},
	}
	hist := &fakeHistory{}
	orch := NewOrchestrator(api, hist, 1)

	crit := lowCriteria()
	crit.Mode = hotels.ModeBestDeals
	crit.DistanceKM = 3
	crit.LowPrice = 50
	crit.HighPrice = 150

	_, err := orch.Run(context.Background(), 9, crit)
	require.NoError(t, err)

	require.Len(t, hist.recs, 1)
	rec := hist.recs[0]
	require.NotNil(t, rec.DistanceKM)
	assert.Equal(t, 3, *rec.DistanceKM)
	assert.Equal(t, 50, *rec.LowPrice)
	assert.Equal(t, 150, *rec.HighPrice)

	// Range parameters travel down to the search call.
	require.Len(t, api.queries, 1)
	assert.Equal(t, 50, api.queries[0].LowPrice)
	assert.Equal(t, hotels.ModeBestDeals, api.queries[0].Mode)
}
