//go:build integration

package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotelscout/core/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to the database named by DATABASE_URL, applies the
// schema and wipes the history tables. Run with:
//
//	DATABASE_URL='postgres://...?sslmode=disable' go test -tags integration ./internal/history
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	require.NoError(t, logger.InitLogger(nil))

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_create_search_history.up.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	_, err = db.Exec(`TRUNCATE search_requests, request_hotels, hotels RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

func storedRecord(userID int64) *Record {
	distance, low, high := 3, 50, 150
	return &Record{
		UserID:      userID,
		Command:     "bestdeals",
		City:        "London",
		CheckIn:     time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
		HotelCount:  2,
		WantsImages: true,
		ImageCount:  3,
		DistanceKM:  &distance,
		LowPrice:    &low,
		HighPrice:   &high,
		Hotels: []Hotel{
			{ID: "h1", Name: "Grand", Address: "1 Main St", DistanceKM: 0.3, NightlyPrice: 120},
			{ID: "h2", Name: "Plaza", Address: "2 Side St", DistanceKM: 1.1, NightlyPrice: 95.5},
		},
	}
}

func TestStoreWriteListRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	first := storedRecord(42)
	require.NoError(t, store.WriteSearchHistory(ctx, first))
	assert.Positive(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	// A later plain search reuses h1 with a fresh price and reverses the order.
	second := &Record{
		UserID:     42,
		Command:    "low",
		City:       "Paris",
		CheckIn:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		HotelCount: 2,
		Hotels: []Hotel{
			{ID: "h2", Name: "Plaza", Address: "2 Side St", DistanceKM: 1.1, NightlyPrice: 95.5},
			{ID: "h1", Name: "Grand", Address: "1 Main St", DistanceKM: 0.3, NightlyPrice: 110},
		},
	}
	require.NoError(t, store.WriteSearchHistory(ctx, second))

	records, err := store.ListUserHistory(ctx, 42)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)

	got := records[1]
	assert.Equal(t, "bestdeals", got.Command)
	assert.Equal(t, "London", got.City)
	assert.Equal(t, "2026-09-10", got.CheckIn.Format("2006-01-02"))
	assert.Equal(t, "2026-09-13", got.CheckOut.Format("2006-01-02"))
	assert.Equal(t, 2, got.HotelCount)
	assert.True(t, got.WantsImages)
	assert.Equal(t, 3, got.ImageCount)
	require.NotNil(t, got.DistanceKM)
	assert.Equal(t, 3, *got.DistanceKM)
	require.NotNil(t, got.LowPrice)
	assert.Equal(t, 50, *got.LowPrice)
	require.NotNil(t, got.HighPrice)
	assert.Equal(t, 150, *got.HighPrice)
	assert.Nil(t, records[0].DistanceKM)

	// Hotels come back in their original result order per record.
	require.Len(t, got.Hotels, 2)
	assert.Equal(t, "h1", got.Hotels[0].ID)
	assert.Equal(t, "h2", got.Hotels[1].ID)
	require.Len(t, records[0].Hotels, 2)
	assert.Equal(t, "h2", records[0].Hotels[0].ID)
	assert.Equal(t, "h1", records[0].Hotels[1].ID)

	// The upsert refreshed the shared hotel row.
	assert.Equal(t, 110.0, got.Hotels[0].NightlyPrice)
	assert.Equal(t, "1 Main St", got.Hotels[0].Address)

	other, err := store.ListUserHistory(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStoreDeleteRecordRemovesLinkRows(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	rec := storedRecord(7)
	require.NoError(t, store.WriteSearchHistory(ctx, rec))

	// Another user's delete must not touch the record.
	require.NoError(t, store.DeleteRecord(ctx, 99, rec.ID))
	records, err := store.ListUserHistory(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, store.DeleteRecord(ctx, 7, rec.ID))

	records, err = store.ListUserHistory(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, records)

	var links int
	require.NoError(t, db.Get(&links, `SELECT count(*) FROM request_hotels WHERE request_id = $1`, rec.ID))
	assert.Zero(t, links)

	// Hotel rows survive for other records.
	var hotelRows int
	require.NoError(t, db.Get(&hotelRows, `SELECT count(*) FROM hotels`))
	assert.Equal(t, 2, hotelRows)

	// Deleting an already-gone record is not an error.
	require.NoError(t, store.DeleteRecord(ctx, 7, rec.ID))
}
