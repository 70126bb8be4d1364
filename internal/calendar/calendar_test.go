package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHandleDaySelection(t *testing.T) {
	p := New(date(2026, 9, 1), date(2027, 9, 1))

	sel, err := p.Handle("day|2026-09-14")
	require.NoError(t, err)
	assert.Equal(t, date(2026, 9, 14), sel.Date)
	assert.Nil(t, sel.Markup)
}

func TestHandleRejectsDayOutOfRange(t *testing.T) {
	p := New(date(2026, 9, 10), date(2026, 12, 31))

	_, err := p.Handle("day|2026-09-09")
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = p.Handle("day|2027-01-01")
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestHandleNavRedrawsKeyboard(t *testing.T) {
	p := New(date(2026, 9, 1), date(2027, 9, 1))

	sel, err := p.Handle("nav|2026-10")
	require.NoError(t, err)
	assert.True(t, sel.Date.IsZero())
	require.NotNil(t, sel.Markup)
	assert.NotEmpty(t, sel.Markup.InlineKeyboard)
}

func TestHandleMalformedPayload(t *testing.T) {
	p := New(date(2026, 9, 1), date(2027, 9, 1))

	for _, payload := range []string{"", "day", "day|notadate", "jump|2026-09-01"} {
		_, err := p.Handle(payload)
		assert.ErrorIs(t, err, ErrBadPayload, "payload %q", payload)
	}

	sel, err := p.Handle("noop")
	require.NoError(t, err)
	assert.True(t, sel.Date.IsZero())
	assert.Nil(t, sel.Markup)
}

func TestMarkupHidesDaysBeforeFloor(t *testing.T) {
	// September 2026 starts on a Tuesday; floor at the 10th.
	p := New(date(2026, 9, 10), date(2027, 9, 1))
	markup := p.Markup(date(2026, 9, 10))

	selectable := 0
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if strings.HasPrefix(btn.Data, "day|") {
				selectable++
			}
		}
	}
	// Days 10..30 remain selectable.
	assert.Equal(t, 21, selectable)
}

func TestMarkupClampsMonthToRange(t *testing.T) {
	p := New(date(2026, 9, 10), date(2026, 11, 30))

	// Asking for a month before the floor renders the floor month, which
	// has no back navigation.
	markup := p.Markup(date(2026, 5, 1))
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			assert.NotEqual(t, "«", btn.Text)
		}
	}
}
