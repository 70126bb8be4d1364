// Package calendar renders an inline month-grid date picker and parses its
// callbacks. Days before the picker's floor or after its ceiling are not
// selectable, so date validation happens before any text ever reaches the
// conversation.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelscout/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// CallbackUnique is the callback key all picker buttons carry.
const CallbackUnique = "cal"

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"

	actionDay  = "day"
	actionNav  = "nav"
	actionNoop = "noop"
)

// ErrBadPayload is returned for callbacks this package did not produce.
var ErrBadPayload = errors.New("calendar: malformed payload")

// Picker builds month keyboards constrained to [Min, Max].
type Picker struct {
	Min time.Time
	Max time.Time
}

// New returns a picker allowing dates from min up to and including max.
// Both bounds are truncated to whole days.
func New(min, max time.Time) Picker {
	return Picker{Min: day(min), Max: day(max)}
}

// Selection is the outcome of handling one picker callback.
type Selection struct {
	// Date is non-zero when the user picked a day.
	Date time.Time
	// Markup is non-nil when the keyboard should be redrawn (month nav).
	Markup *tele.ReplyMarkup
}

// Markup renders the month containing ref. Months outside the picker's
// range are clamped to the nearest allowed month.
func (p Picker) Markup(ref time.Time) *tele.ReplyMarkup {
	month := monthOf(ref)
	if month.Before(monthOf(p.Min)) {
		month = monthOf(p.Min)
	}
	if month.After(monthOf(p.Max)) {
		month = monthOf(p.Max)
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row

	rows = append(rows, markup.Row(
		markup.Data(month.Format("January 2006"), CallbackUnique, actionNoop),
	))

	week := make([]tele.Btn, 0, 7)
	for _, wd := range []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"} {
		week = append(week, markup.Data(wd, CallbackUnique, actionNoop))
	}
	rows = append(rows, markup.Row(week...))

	blank := markup.Data(" ", CallbackUnique, actionNoop)
	daysInMonth := month.AddDate(0, 1, -1).Day()

	row := make([]tele.Btn, 0, 7)
	for i := 0; i < mondayIndex(month.Weekday()); i++ {
		row = append(row, blank)
	}
	for d := 1; d <= daysInMonth; d++ {
		date := month.AddDate(0, 0, d-1)
		if date.Before(p.Min) || date.After(p.Max) {
			row = append(row, blank)
		} else {
			row = append(row, markup.Data(
				fmt.Sprintf("%d", d),
				CallbackUnique,
				actionDay+"|"+date.Format(dayLayout),
			))
		}
		if len(row) == 7 {
			rows = append(rows, markup.Row(row...))
			row = make([]tele.Btn, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, blank)
		}
		rows = append(rows, markup.Row(row...))
	}

	nav := make([]tele.Btn, 0, 2)
	if month.After(monthOf(p.Min)) {
		prev := month.AddDate(0, -1, 0)
		nav = append(nav, markup.Data("«", CallbackUnique, actionNav+"|"+prev.Format(monthLayout)))
	}
	if month.Before(monthOf(p.Max)) {
		next := month.AddDate(0, 1, 0)
		nav = append(nav, markup.Data("»", CallbackUnique, actionNav+"|"+next.Format(monthLayout)))
	}
	if len(nav) > 0 {
		rows = append(rows, markup.Row(nav...))
	}

	markup.InlineKeyboard = keyboard.ToInlineKeyboard(btnRows(rows))
	return markup
}

// Handle interprets a picker callback payload. A selected day outside the
// allowed range is reported as ErrBadPayload since the grid never offers
// such buttons.
func (p Picker) Handle(payload string) (Selection, error) {
	if payload == actionNoop {
		return Selection{}, nil
	}

	action, arg, ok := strings.Cut(payload, "|")
	if !ok {
		return Selection{}, ErrBadPayload
	}

	switch action {
	case actionDay:
		date, err := time.Parse(dayLayout, arg)
		if err != nil {
			return Selection{}, ErrBadPayload
		}
		if date.Before(p.Min) || date.After(p.Max) {
			return Selection{}, ErrBadPayload
		}
		return Selection{Date: date}, nil
	case actionNav:
		month, err := time.Parse(monthLayout, arg)
		if err != nil {
			return Selection{}, ErrBadPayload
		}
		return Selection{Markup: p.Markup(month)}, nil
	}
	return Selection{}, ErrBadPayload
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// mondayIndex maps a weekday to its column in a Monday-first grid.
func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func btnRows(rows []tele.Row) [][]tele.Btn {
	out := make([][]tele.Btn, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out
}
