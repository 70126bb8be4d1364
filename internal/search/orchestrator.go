package search

import (
	"context"
	"math"

	"hotelscout/core/logger"
	"hotelscout/internal/history"
	"hotelscout/internal/hotels"

	"golang.org/x/sync/errgroup"
	"log/slog"
)

// HotelAPI is the slice of the hotel client the orchestrator consumes.
type HotelAPI interface {
	SearchHotels(ctx context.Context, q hotels.Query) ([]hotels.Candidate, error)
	GetDetails(ctx context.Context, hotelID string, wantImages bool, imageLimit int) (hotels.Details, error)
}

// HistoryWriter persists one finished search.
type HistoryWriter interface {
	WriteSearchHistory(ctx context.Context, rec *history.Record) error
}

// Result is one hotel ready for rendering: the search candidate enriched
// with details and the total price over the stay. Incomplete marks hotels
// whose detail lookup failed; they carry the sentinel address and no images.
type Result struct {
	hotels.Candidate
	Address    string
	Images     []string
	TotalPrice float64
	Incomplete bool
}

const defaultDetailWorkers = 4

// Orchestrator turns completed criteria into ordered results: one search
// call, a bounded fan-out of per-hotel detail calls reassembled in the
// original order, then a history write.
type Orchestrator struct {
	api     HotelAPI
	history HistoryWriter
	workers int
}

// NewOrchestrator wires the orchestrator. workers bounds the concurrent
// detail lookups; values below 1 fall back to the default.
func NewOrchestrator(api HotelAPI, hist HistoryWriter, workers int) *Orchestrator {
	if workers < 1 {
		workers = defaultDetailWorkers
	}
	return &Orchestrator{api: api, history: hist, workers: workers}
}

// Run executes the search for crit. It returns ErrNoResults when nothing
// matched and a TransportError when the search call itself failed; in both
// cases nothing is persisted. A failed detail call degrades only the hotel
// it belongs to, and a failed history write is logged without touching the
// results already produced.
func (o *Orchestrator) Run(ctx context.Context, userID int64, crit Criteria) ([]Result, error) {
	q := hotels.Query{
		RegionID:   crit.CityID,
		Limit:      crit.HotelCount,
		CheckIn:    crit.CheckIn,
		CheckOut:   crit.CheckOut,
		DistanceKM: crit.DistanceKM,
		LowPrice:   crit.LowPrice,
		HighPrice:  crit.HighPrice,
		Mode:       crit.Mode,
	}

	cands, err := o.api.SearchHotels(ctx, q)
	if err != nil {
		return nil, &TransportError{Op: "hotel search", Err: err}
	}
	if len(cands) == 0 {
		return nil, ErrNoResults
	}

	nights := crit.TotalNights()
	results := make([]Result, len(cands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, cand := range cands {
		g.Go(func() error {
			res := Result{
				Candidate:  cand,
				TotalPrice: math.Round(cand.NightlyPrice*float64(nights)*100) / 100,
			}
			det, err := o.api.GetDetails(gctx, cand.ID, crit.WantsImages, crit.ImageCount)
			if err != nil {
				logger.Warn(ctx, "service.search", "detail.degraded",
					slog.String("hotel_id", cand.ID),
					slog.String("err", err.Error()),
				)
				res.Address = hotels.AddressNotFound
				res.Incomplete = true
			} else {
				res.Address = det.Address
				res.Images = det.Images
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	o.persist(ctx, userID, crit, results)
	return results, nil
}

// persist writes the finished search; failures are logged and swallowed so
// the user keeps the results already rendered.
func (o *Orchestrator) persist(ctx context.Context, userID int64, crit Criteria, results []Result) {
	rec := &history.Record{
		UserID:      userID,
		Command:     string(crit.Mode),
		City:        crit.CityName,
		CheckIn:     crit.CheckIn,
		CheckOut:    crit.CheckOut,
		HotelCount:  crit.HotelCount,
		WantsImages: crit.WantsImages,
		ImageCount:  crit.ImageCount,
	}
	if crit.Mode == hotels.ModeBestDeals {
		distance, low, high := crit.DistanceKM, crit.LowPrice, crit.HighPrice
		rec.DistanceKM = &distance
		rec.LowPrice = &low
		rec.HighPrice = &high
	}
	for _, res := range results {
		rec.Hotels = append(rec.Hotels, history.Hotel{
			ID:           res.ID,
			Name:         res.Name,
			Address:      res.Address,
			DistanceKM:   res.DistanceKM,
			NightlyPrice: res.NightlyPrice,
		})
	}

	if err := o.history.WriteSearchHistory(ctx, rec); err != nil {
		logger.Error(ctx, "service.search", "history.write_failed",
			slog.Int64("user", userID),
			slog.String("err", err.Error()),
		)
	}
}
