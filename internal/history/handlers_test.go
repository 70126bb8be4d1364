package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type stubStore struct {
	records []Record
	listErr error
	delErr  error
	deleted [][2]int64
}

func (s *stubStore) ListUserHistory(_ context.Context, userID int64) ([]Record, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Record
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *stubStore) DeleteRecord(_ context.Context, userID, recordID int64) error {
	if s.delErr != nil {
		return s.delErr
	}
	s.deleted = append(s.deleted, [2]int64{userID, recordID})
	return nil
}

// stubContext fakes the slice of tele.Context the history handlers touch.
// Calls outside that slice panic via the embedded nil interface.
type stubContext struct {
	tele.Context
	sender *tele.User
	chat   *tele.Chat
	cb     *tele.Callback
	store  map[string]interface{}
	sent   []string
	edited []string
}

func newStubContext(callbackData string) *stubContext {
	return &stubContext{
		sender: &tele.User{ID: 42},
		chat:   &tele.Chat{ID: 42},
		cb:     &tele.Callback{Data: callbackData},
		store:  map[string]interface{}{},
	}
}

func (s *stubContext) Sender() *tele.User       { return s.sender }
func (s *stubContext) Chat() *tele.Chat         { return s.chat }
func (s *stubContext) Callback() *tele.Callback { return s.cb }
func (s *stubContext) Update() tele.Update      { return tele.Update{} }
func (s *stubContext) Get(key string) interface{} {
	return s.store[key]
}
func (s *stubContext) Set(key string, val interface{}) {
	s.store[key] = val
}

func (s *stubContext) Send(what interface{}, _ ...interface{}) error {
	if text, ok := what.(string); ok {
		s.sent = append(s.sent, text)
	}
	return nil
}

func (s *stubContext) Edit(what interface{}, _ ...interface{}) error {
	if text, ok := what.(string); ok {
		s.edited = append(s.edited, text)
	}
	return nil
}

func sampleRecord(id int64) Record {
	distance, low, high := 2, 50, 150
	return Record{
		ID:          id,
		UserID:      42,
		Command:     "bestdeals",
		City:        "London",
		CheckIn:     time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		HotelCount:  2,
		WantsImages: true,
		ImageCount:  3,
		DistanceKM:  &distance,
		LowPrice:    &low,
		HighPrice:   &high,
		CreatedAt:   time.Date(2026, 8, 30, 14, 3, 0, 0, time.UTC),
		Hotels: []Hotel{
			{ID: "h1", Name: "Grand <Hotel>", Address: "1 Main St", DistanceKM: 0.3, NightlyPrice: 120},
		},
	}
}

func TestRenderPageEscapesAndFormats(t *testing.T) {
	text := renderPage([]Record{sampleRecord(7)}, 1, 3)

	assert.Contains(t, text, "page 1 of 3")
	assert.Contains(t, text, "/bestdeals in London")
	assert.Contains(t, text, "30.08.2026 14:03")
	assert.Contains(t, text, "Stay 10.09.2026 – 12.09.2026, hotels: 2, photos: 3")
	assert.Contains(t, text, "Within 2 km, $50–$150 per night")
	assert.Contains(t, text, "Grand &lt;Hotel&gt; — $120.00/night, 0.3 km")
	assert.NotContains(t, text, "<Hotel>")
}

func TestRenderPageDefaultsMissingRangeFields(t *testing.T) {
	rec := sampleRecord(4)
	rec.DistanceKM = nil

	text := renderPage([]Record{rec}, 1, 1)
	assert.Contains(t, text, "Within 0 km, $50–$150 per night")
}

func TestRenderPageOmitsRangeForPlainSearches(t *testing.T) {
	rec := sampleRecord(1)
	rec.Command = "low"
	rec.WantsImages = false
	rec.DistanceKM, rec.LowPrice, rec.HighPrice = nil, nil, nil

	text := renderPage([]Record{rec}, 1, 1)
	assert.NotContains(t, text, "Within")
	assert.NotContains(t, text, "photos:")
}

func TestPageMarkupNavigation(t *testing.T) {
	records := []Record{sampleRecord(1), sampleRecord(2)}

	// middle page gets both arrows plus one delete button per record
	markup := pageMarkup(records, 2, 3)
	require.Len(t, markup.InlineKeyboard, 3)
	nav := markup.InlineKeyboard[2]
	require.Len(t, nav, 2)
	assert.Equal(t, "«", nav[0].Text)
	assert.Equal(t, "1", nav[0].Data)
	assert.Equal(t, "»", nav[1].Text)
	assert.Equal(t, "3", nav[1].Data)

	// first of several pages loses the back arrow
	markup = pageMarkup(records, 1, 3)
	nav = markup.InlineKeyboard[2]
	require.Len(t, nav, 1)
	assert.Equal(t, "»", nav[0].Text)

	// a single page has no nav row at all
	markup = pageMarkup(records, 1, 1)
	assert.Len(t, markup.InlineKeyboard, 2)
}

func TestPageMarkupDeletePayloadCarriesPage(t *testing.T) {
	markup := pageMarkup([]Record{sampleRecord(9)}, 2, 2)
	del := markup.InlineKeyboard[0][0]
	assert.True(t, strings.HasPrefix(del.Text, "🗑"))
	assert.Equal(t, "9|2", del.Data)
}

func TestDeleteCallbackReportsDeleteFailure(t *testing.T) {
	st := &stubStore{delErr: errors.New("db down")}
	h := &Handlers{store: st}
	c := newStubContext(CallbackDelete + "|5|1")

	require.NoError(t, h.DeleteCallback(c))

	require.Len(t, c.sent, 1)
	assert.Equal(t, msgDeleteFailed, c.sent[0])
	assert.Empty(t, c.edited)
}

func TestDeleteCallbackRemovesAndRerenders(t *testing.T) {
	st := &stubStore{records: []Record{sampleRecord(1), sampleRecord(2)}}
	h := &Handlers{store: st}
	c := newStubContext(CallbackDelete + "|2|1")

	require.NoError(t, h.DeleteCallback(c))

	require.Len(t, st.deleted, 1)
	assert.Equal(t, [2]int64{42, 2}, st.deleted[0])

	// The page is edited in place after the delete.
	require.Len(t, c.edited, 1)
	assert.Contains(t, c.edited[0], "Search history")
	assert.Empty(t, c.sent)
}

func TestDeleteCallbackIgnoresMalformedPayload(t *testing.T) {
	st := &stubStore{}
	h := &Handlers{store: st}

	for _, data := range []string{CallbackDelete + "|", CallbackDelete + "|x|1", CallbackDelete + "|2|x", CallbackDelete + "|2"} {
		c := newStubContext(data)
		require.NoError(t, h.DeleteCallback(c))
		assert.Empty(t, st.deleted, "data %q", data)
		assert.Empty(t, c.sent, "data %q", data)
	}
}
