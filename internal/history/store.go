// Package history persists finished hotel searches and serves them back to
// the user with pagination and per-record deletion.
package history

import (
	"context"
	"fmt"
	"time"

	"hotelscout/core/logger"

	"github.com/jmoiron/sqlx"
	"log/slog"
)

// Hotel is one persisted hotel row, shared between search requests.
type Hotel struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Address      string  `db:"address"`
	DistanceKM   float64 `db:"distance_km"`
	NightlyPrice float64 `db:"nightly_price"`
}

// Record is one finished search together with the hotels it returned.
// DistanceKM, LowPrice and HighPrice are set only for best-deal searches.
type Record struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Command     string    `db:"command"`
	City        string    `db:"city"`
	CheckIn     time.Time `db:"check_in"`
	CheckOut    time.Time `db:"check_out"`
	HotelCount  int       `db:"hotel_count"`
	WantsImages bool      `db:"wants_images"`
	ImageCount  int       `db:"image_count"`
	DistanceKM  *int      `db:"distance_km"`
	LowPrice    *int      `db:"low_price"`
	HighPrice   *int      `db:"high_price"`
	CreatedAt   time.Time `db:"created_at"`

	Hotels []Hotel `db:"-"`
}

// Store reads and writes search history in postgres.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// WriteSearchHistory stores rec and its hotels in one transaction. Hotel rows
// are upserted so repeated searches refresh name, address and price. The
// record's ID and CreatedAt are filled in on success.
func (s *Store) WriteSearchHistory(ctx context.Context, rec *Record) error {
	if len(rec.Hotels) == 0 {
		return fmt.Errorf("history: record without hotels")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertRequest = `
		INSERT INTO search_requests
			(user_id, command, city, check_in, check_out,
			 hotel_count, wants_images, image_count,
			 distance_km, low_price, high_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	row := tx.QueryRowxContext(ctx, insertRequest,
		rec.UserID, rec.Command, rec.City, rec.CheckIn, rec.CheckOut,
		rec.HotelCount, rec.WantsImages, rec.ImageCount,
		rec.DistanceKM, rec.LowPrice, rec.HighPrice,
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return fmt.Errorf("history: insert request: %w", err)
	}

	const upsertHotel = `
		INSERT INTO hotels (id, name, address, distance_km, nightly_price)
		VALUES (:id, :name, :address, :distance_km, :nightly_price)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			distance_km = EXCLUDED.distance_km,
			nightly_price = EXCLUDED.nightly_price`

	const insertLink = `
		INSERT INTO request_hotels (request_id, hotel_id, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (request_id, hotel_id) DO NOTHING`

	for i, h := range rec.Hotels {
		if _, err := tx.NamedExecContext(ctx, upsertHotel, h); err != nil {
			return fmt.Errorf("history: upsert hotel %s: %w", h.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insertLink, rec.ID, h.ID, i); err != nil {
			return fmt.Errorf("history: link hotel %s: %w", h.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}

	logger.SVCHistory.Debug("history written",
		slog.String("event", "history.write"),
		slog.Int64("user", rec.UserID),
		slog.Int64("request_id", rec.ID),
		slog.Int("hotels", len(rec.Hotels)),
	)
	return nil
}

// ListUserHistory returns the user's records, newest first, with hotels in
// their original result order.
func (s *Store) ListUserHistory(ctx context.Context, userID int64) ([]Record, error) {
	const selectRequests = `
		SELECT id, user_id, command, city, check_in, check_out,
		       hotel_count, wants_images, image_count,
		       distance_km, low_price, high_price, created_at
		FROM search_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	var records []Record
	if err := s.db.SelectContext(ctx, &records, selectRequests, userID); err != nil {
		return nil, fmt.Errorf("history: list requests: %w", err)
	}

	const selectHotels = `
		SELECT h.id, h.name, h.address, h.distance_km, h.nightly_price
		FROM hotels h
		JOIN request_hotels rh ON rh.hotel_id = h.id
		WHERE rh.request_id = $1
		ORDER BY rh.position`

	for i := range records {
		if err := s.db.SelectContext(ctx, &records[i].Hotels, selectHotels, records[i].ID); err != nil {
			return nil, fmt.Errorf("history: list hotels for %d: %w", records[i].ID, err)
		}
	}
	return records, nil
}

// DeleteRecord removes one record owned by userID. Link rows go with it;
// hotel rows stay since other records may reference them. Deleting a record
// that is already gone is not an error.
func (s *Store) DeleteRecord(ctx context.Context, userID, recordID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_requests WHERE id = $1 AND user_id = $2`,
		recordID, userID,
	)
	if err != nil {
		return fmt.Errorf("history: delete record %d: %w", recordID, err)
	}

	affected, _ := res.RowsAffected()
	logger.SVCHistory.Debug("history record deleted",
		slog.String("event", "history.delete"),
		slog.Int64("user", userID),
		slog.Int64("request_id", recordID),
		slog.Int64("rows", affected),
	)
	return nil
}
