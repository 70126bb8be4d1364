package history

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"hotelscout/core/logger"
	"hotelscout/core/telegram/callbacks"
	"hotelscout/core/telegram/format"
	tghelpers "hotelscout/core/telegram/helpers"
	"hotelscout/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

// Callback keys owned by this package.
const (
	CallbackPage   = "hist_page"
	CallbackDelete = "hist_del"
)

const pageSize = 3

const (
	msgEmpty        = "Your search history is empty."
	msgLoadFailed   = "Could not load your history, please try again later."
	msgDeleteFailed = "Could not delete that record, please try again later."
)

type recordStore interface {
	ListUserHistory(ctx context.Context, userID int64) ([]Record, error)
	DeleteRecord(ctx context.Context, userID, recordID int64) error
}

// Handlers exposes the /history command and its callbacks.
type Handlers struct {
	store recordStore
}

// NewHandlers builds history handlers on top of store.
func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

// Command renders the first page of the sender's history.
func (h *Handlers) Command(c tele.Context) error {
	return h.render(c, 1, false)
}

// PageCallback re-renders the history at the page carried in the payload.
func (h *Handlers) PageCallback(c tele.Context) error {
	page, err := callbacks.PayloadInt(c)
	if err != nil {
		return nil
	}
	return h.render(c, page, true)
}

// DeleteCallback removes one record and re-renders the current page. The
// payload is "recordID|page".
func (h *Handlers) DeleteCallback(c tele.Context) error {
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return nil
	}
	recordID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil
	}
	page, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}

	ctx := tghelpers.BuildContext(c)
	if err := h.store.DeleteRecord(ctx, c.Sender().ID, recordID); err != nil {
		logger.Error(ctx, "service.history", "delete.failed",
			slog.Int64("request_id", recordID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, msgDeleteFailed)
	}
	return h.render(c, page, true)
}

func (h *Handlers) render(c tele.Context, page int, edit bool) error {
	ctx := tghelpers.BuildContext(c)

	records, err := h.store.ListUserHistory(ctx, c.Sender().ID)
	if err != nil {
		logger.Error(ctx, "service.history", "list.failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, msgLoadFailed)
	}
	if len(records) == 0 {
		if edit {
			return c.Edit(msgEmpty)
		}
		return tghelpers.SendText(c, msgEmpty)
	}

	pages := (len(records) + pageSize - 1) / pageSize
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	shown := records[start:end]

	text := renderPage(shown, page, pages)
	markup := pageMarkup(shown, page, pages)
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}

	if edit {
		return c.Edit(text, opts)
	}
	return tghelpers.SendText(c, text, opts)
}

// renderPage builds the HTML body for one history page.
func renderPage(records []Record, page, pages int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Search history</b> (page %d of %d)\n", page, pages)

	for _, rec := range records {
		fmt.Fprintf(&b, "\n<b>#%d</b> %s — /%s in %s\n",
			rec.ID,
			rec.CreatedAt.Format("02.01.2006 15:04"),
			html.EscapeString(rec.Command),
			html.EscapeString(rec.City),
		)
		fmt.Fprintf(&b, "Stay %s – %s, hotels: %d",
			rec.CheckIn.Format("02.01.2006"),
			rec.CheckOut.Format("02.01.2006"),
			rec.HotelCount,
		)
		if rec.WantsImages {
			fmt.Fprintf(&b, ", photos: %d", rec.ImageCount)
		}
		b.WriteString("\n")
		if rec.DistanceKM != nil || rec.LowPrice != nil || rec.HighPrice != nil {
			fmt.Fprintf(&b, "Within %d km, $%d–$%d per night\n",
				format.DerefInt(rec.DistanceKM, 0),
				format.DerefInt(rec.LowPrice, 0),
				format.DerefInt(rec.HighPrice, 0))
		}
		for _, hotel := range rec.Hotels {
			fmt.Fprintf(&b, "• %s — $%.2f/night, %.1f km\n",
				html.EscapeString(hotel.Name), hotel.NightlyPrice, hotel.DistanceKM)
		}
	}
	return b.String()
}

// pageMarkup builds delete buttons for the shown records plus a nav row.
func pageMarkup(records []Record, page, pages int) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn

	for _, rec := range records {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   fmt.Sprintf("🗑 Delete #%d", rec.ID),
			Unique: CallbackDelete,
			Data:   fmt.Sprintf("%d|%d", rec.ID, page),
		}})
	}

	if pages > 1 {
		var nav []keyboard.InlineBtn
		if page > 1 {
			nav = append(nav, keyboard.InlineBtn{
				Text:   "«",
				Unique: CallbackPage,
				Data:   strconv.Itoa(page - 1),
			})
		}
		if page < pages {
			nav = append(nav, keyboard.InlineBtn{
				Text:   "»",
				Unique: CallbackPage,
				Data:   strconv.Itoa(page + 1),
			})
		}
		rows = append(rows, nav)
	}

	return keyboard.InlineButtonsRows(rows...)
}
