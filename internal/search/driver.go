package search

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"hotelscout/core/logger"
	"hotelscout/core/telegram/callbacks"
	tghelpers "hotelscout/core/telegram/helpers"
	"hotelscout/core/telegram/keyboard"
	"hotelscout/core/telegram/state"
	"hotelscout/internal/calendar"
	"hotelscout/internal/hotels"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

// CallbackCity is the callback key of the city disambiguation buttons.
const CallbackCity = "city"

// maxCalendarAhead bounds how far into the future a stay may be booked.
const maxCalendarAhead = 365 * 24 * time.Hour

const (
	msgAskCity       = "Which city should I look in?"
	msgBadCity       = "City names use letters only, three or more. Try again."
	msgLookupFailed  = "The city lookup is unavailable right now, please try again."
	msgPickCity      = "Which of these did you mean?"
	msgUseButtons    = "Please use the buttons above."
	msgAskHotelCount = "How many hotels should I show (1–%d)?"
	msgAskCheckIn    = "Pick the check-in date:"
	msgAskCheckOut   = "Pick the check-out date:"
	msgAskImages     = "Should I attach hotel photos?"
	msgAskImageCount = "How many photos per hotel (1–%d)?"
	msgAnswerYesNo   = "Please answer Yes or No."
	msgAskDistance   = "How far from the centre may a hotel be, in whole kilometres?"
	msgAskLowPrice   = "What is the minimum price per night, in dollars?"
	msgAskHighPrice  = "What is the maximum price per night, in dollars?"
	msgSearching     = "Searching…"
	msgNoResults     = "No hotels matched your search. Adjust the criteria and try again."
	msgSearchFailed  = "The hotel service is unavailable right now, please try again later."
)

// CityFinder is the slice of the hotel client used for disambiguation.
type CityFinder interface {
	FindCities(ctx context.Context, name string) ([]hotels.City, error)
}

// Driver runs the search conversation. It resolves the conversation's
// current state, dispatches the inbound event through an explicit
// state-to-handler table and advances the session. It satisfies the message
// router's Dialogue interface.
type Driver struct {
	sessions  state.Manager[Criteria]
	cities    CityFinder
	orch      *Orchestrator
	maxHotels int
	maxImages int
	now       func() time.Time

	table map[state.State]tele.HandlerFunc
}

// NewDriver wires the conversation driver.
func NewDriver(sessions state.Manager[Criteria], cities CityFinder, orch *Orchestrator, maxHotels, maxImages int) *Driver {
	d := &Driver{
		sessions:  sessions,
		cities:    cities,
		orch:      orch,
		maxHotels: maxHotels,
		maxImages: maxImages,
		now:       time.Now,
	}
	d.table = map[state.State]tele.HandlerFunc{
		StateAwaitingCity:          d.handleCity,
		StateAwaitingCitySelection: d.handleButtonsExpected,
		StateAwaitingHotelCount:    d.handleHotelCount,
		StateAwaitingCheckIn:       d.handleButtonsExpected,
		StateAwaitingCheckOut:      d.handleButtonsExpected,
		StateAwaitingImagesYN:      d.handleImagesYN,
		StateAwaitingImageCount:    d.handleImageCount,
		StateAwaitingDistance:      d.handleDistance,
		StateAwaitingLowPrice:      d.handleLowPrice,
		StateAwaitingHighPrice:     d.handleHighPrice,
	}
	return d
}

// InProgress reports whether the sender has an active search in this chat.
func (d *Driver) InProgress(c tele.Context) bool {
	return d.sessions.InProgress(state.ConversationOf(c))
}

// Dispatch routes an inbound text message to the handler of the
// conversation's current state.
func (d *Driver) Dispatch(c tele.Context) error {
	conv := state.ConversationOf(c)
	st := d.sessions.StateOf(conv)
	handler, ok := d.table[st]
	if !ok {
		return nil
	}
	logger.Debug(tghelpers.BuildContext(c), "service.search", "dialogue.step",
		slog.String("state", string(st)),
	)
	return handler(c)
}

// StartSearch returns the command handler that opens a new conversation for
// mode. Issuing a search command mid-conversation restarts from scratch.
func (d *Driver) StartSearch(mode hotels.Mode) tele.HandlerFunc {
	return func(c tele.Context) error {
		conv := state.ConversationOf(c)
		if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
			s.State = StateAwaitingCity
			s.Data = &Criteria{Mode: mode}
		}); err != nil {
			return err
		}
		return tghelpers.SendText(c, msgAskCity)
	}
}

func (d *Driver) handleCity(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if !ValidCityName(text) {
		return tghelpers.SendText(c, msgBadCity)
	}

	ctx := tghelpers.BuildContext(c)
	cities, err := d.cities.FindCities(ctx, text)
	if err != nil {
		logger.Warn(ctx, "service.search", "city.lookup_failed",
			slog.String("city", text),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, msgLookupFailed)
	}
	if len(cities) == 0 {
		return tghelpers.SendText(c, fmt.Sprintf("I could not find %q. Try another spelling.", text))
	}

	buttons := make([]keyboard.InlineBtn, 0, len(cities))
	for _, city := range cities {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   city.Name,
			Unique: CallbackCity,
			Data:   city.ID + "|" + city.Name,
		})
	}
	if err := d.sessions.SetState(state.ConversationOf(c), StateAwaitingCitySelection); err != nil {
		return err
	}
	return tghelpers.SendText(c, msgPickCity, &tele.SendOptions{
		ReplyMarkup: keyboard.InlineButtons(buttons),
	})
}

// HandleCitySelected consumes a city disambiguation button press. The
// payload is "cityID|cityName".
func (d *Driver) HandleCitySelected(c tele.Context) error {
	conv := state.ConversationOf(c)
	if d.sessions.StateOf(conv) != StateAwaitingCitySelection {
		return nil
	}
	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) < 2 {
		return nil
	}
	cityID := parts[0]
	cityName := strings.Join(parts[1:], "|")

	if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
		ensureData(s)
		s.Data.CityID = cityID
		s.Data.CityName = cityName
		s.State = StateAwaitingHotelCount
	}); err != nil {
		return err
	}

	_ = c.Edit(fmt.Sprintf("City: %s", cityName))
	return tghelpers.SendText(c, fmt.Sprintf(msgAskHotelCount, d.maxHotels))
}

func (d *Driver) handleHotelCount(c tele.Context) error {
	n, err := ParseHotelCount(c.Text(), d.maxHotels)
	if err != nil {
		return d.reject(c, err)
	}
	conv := state.ConversationOf(c)
	if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
		ensureData(s)
		s.Data.HotelCount = n
		s.State = StateAwaitingCheckIn
	}); err != nil {
		return err
	}
	picker := d.checkInPicker()
	return tghelpers.SendText(c, msgAskCheckIn, &tele.SendOptions{
		ReplyMarkup: picker.Markup(d.today()),
	})
}

// HandleCalendar consumes date-picker button presses for both date states.
// The picker grid already excludes dates before today (check-in) or before
// check-in plus one night (check-out), so only ordering bookkeeping remains.
func (d *Driver) HandleCalendar(c tele.Context) error {
	conv := state.ConversationOf(c)
	sess, err := d.sessions.Snapshot(conv)
	if err != nil {
		return err
	}
	payload := callbacks.CallbackPayload(c)

	switch sess.State {
	case StateAwaitingCheckIn:
		picker := d.checkInPicker()
		sel, err := picker.Handle(payload)
		if err != nil {
			return nil
		}
		if sel.Markup != nil {
			return c.Edit(msgAskCheckIn, sel.Markup)
		}
		if sel.Date.IsZero() {
			return nil
		}
		checkIn := sel.Date
		if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
			ensureData(s)
			s.Data.CheckIn = checkIn
			s.State = StateAwaitingCheckOut
		}); err != nil {
			return err
		}
		out := d.checkOutPicker(checkIn)
		return c.Edit(msgAskCheckOut, out.Markup(checkIn.AddDate(0, 0, 1)))

	case StateAwaitingCheckOut:
		if sess.Data == nil || sess.Data.CheckIn.IsZero() {
			return nil
		}
		picker := d.checkOutPicker(sess.Data.CheckIn)
		sel, err := picker.Handle(payload)
		if err != nil {
			return nil
		}
		if sel.Markup != nil {
			return c.Edit(msgAskCheckOut, sel.Markup)
		}
		if sel.Date.IsZero() {
			return nil
		}
		checkOut := sel.Date
		if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
			ensureData(s)
			s.Data.CheckOut = checkOut
			s.State = StateAwaitingImagesYN
		}); err != nil {
			return err
		}
		nights := int(checkOut.Sub(sess.Data.CheckIn).Hours() / 24)
		_ = c.Edit(fmt.Sprintf("Stay: %s – %s, %d night(s).",
			sess.Data.CheckIn.Format("02.01.2006"),
			checkOut.Format("02.01.2006"),
			nights,
		))
		return tghelpers.SendText(c, msgAskImages, &tele.SendOptions{
			ReplyMarkup: keyboard.ReplyButtons([]string{"Yes", "No"}),
		})
	}
	return nil
}

func (d *Driver) handleImagesYN(c tele.Context) error {
	conv := state.ConversationOf(c)
	switch strings.ToLower(strings.TrimSpace(c.Text())) {
	case "yes":
		if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
			ensureData(s)
			s.Data.WantsImages = true
			s.State = StateAwaitingImageCount
		}); err != nil {
			return err
		}
		return tghelpers.SendText(c, fmt.Sprintf(msgAskImageCount, d.maxImages), &tele.SendOptions{
			ReplyMarkup: keyboard.RemoveKeyboard(),
		})
	case "no":
		var mode hotels.Mode
		if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
			ensureData(s)
			s.Data.WantsImages = false
			s.Data.ImageCount = 0
			mode = s.Data.Mode
		}); err != nil {
			return err
		}
		return d.advanceAfterImages(c, conv, mode)
	}
	return tghelpers.SendText(c, msgAnswerYesNo)
}

func (d *Driver) handleImageCount(c tele.Context) error {
	n, err := ParseImageCount(c.Text(), d.maxImages)
	if err != nil {
		return d.reject(c, err)
	}
	conv := state.ConversationOf(c)
	var mode hotels.Mode
	if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
		ensureData(s)
		s.Data.ImageCount = n
		mode = s.Data.Mode
	}); err != nil {
		return err
	}
	return d.advanceAfterImages(c, conv, mode)
}

func (d *Driver) handleDistance(c tele.Context) error {
	n, err := ParseDistance(c.Text())
	if err != nil {
		return d.reject(c, err)
	}
	conv := state.ConversationOf(c)
	if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
		ensureData(s)
		s.Data.DistanceKM = n
		s.State = StateAwaitingLowPrice
	}); err != nil {
		return err
	}
	return tghelpers.SendText(c, msgAskLowPrice)
}

func (d *Driver) handleLowPrice(c tele.Context) error {
	n, err := ParseLowPrice(c.Text())
	if err != nil {
		return d.reject(c, err)
	}
	conv := state.ConversationOf(c)
	if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
		ensureData(s)
		s.Data.LowPrice = n
		s.State = StateAwaitingHighPrice
	}); err != nil {
		return err
	}
	return tghelpers.SendText(c, msgAskHighPrice)
}

func (d *Driver) handleHighPrice(c tele.Context) error {
	conv := state.ConversationOf(c)
	sess, err := d.sessions.Snapshot(conv)
	if err != nil {
		return err
	}
	low := 0
	if sess.Data != nil {
		low = sess.Data.LowPrice
	}
	n, err := ParseHighPrice(c.Text(), low)
	if err != nil {
		return d.reject(c, err)
	}
	if err := d.sessions.Update(conv, func(s *state.Session[Criteria]) {
		ensureData(s)
		s.Data.HighPrice = n
	}); err != nil {
		return err
	}
	return d.finish(c, conv)
}

func (d *Driver) handleButtonsExpected(c tele.Context) error {
	return tghelpers.SendText(c, msgUseButtons)
}

// advanceAfterImages resolves the branch point after the photo steps:
// best deals continue with the distance question, the rest go straight to
// orchestration.
func (d *Driver) advanceAfterImages(c tele.Context, conv state.Conversation, mode hotels.Mode) error {
	next, done := afterImages(mode)
	if done {
		return d.finish(c, conv)
	}
	if err := d.sessions.SetState(conv, next); err != nil {
		return err
	}
	return tghelpers.SendText(c, msgAskDistance, &tele.SendOptions{
		ReplyMarkup: keyboard.RemoveKeyboard(),
	})
}

// finish runs the orchestration and renders the outcome. The conversation
// is cleared whether the search succeeds or not.
func (d *Driver) finish(c tele.Context, conv state.Conversation) error {
	defer func() {
		if err := d.sessions.Clear(conv); err != nil {
			logger.Warn(tghelpers.BuildContext(c), "service.search", "session.clear_failed",
				slog.String("err", err.Error()),
			)
		}
	}()

	sess, err := d.sessions.Snapshot(conv)
	if err != nil {
		return err
	}
	if sess.Data == nil {
		return nil
	}
	crit := *sess.Data

	_ = tghelpers.SendText(c, msgSearching, &tele.SendOptions{
		ReplyMarkup: keyboard.RemoveKeyboard(),
	})

	ctx := tghelpers.BuildContext(c)
	results, err := d.orch.Run(ctx, c.Sender().ID, crit)
	if err != nil {
		var terr *TransportError
		switch {
		case errors.Is(err, ErrNoResults):
			return tghelpers.SendText(c, msgNoResults)
		case errors.As(err, &terr):
			logger.Error(ctx, "service.search", "orchestration.failed",
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, msgSearchFailed)
		}
		return err
	}
	return d.renderResults(c, crit, results)
}

func (d *Driver) renderResults(c tele.Context, crit Criteria, results []Result) error {
	nights := crit.TotalNights()
	for _, res := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "🏨 <b>%s</b>\n", html.EscapeString(res.Name))
		fmt.Fprintf(&b, "Address: %s\n", html.EscapeString(res.Address))
		fmt.Fprintf(&b, "Price: $%.2f/night, $%.2f for %d night(s)\n", res.NightlyPrice, res.TotalPrice, nights)
		fmt.Fprintf(&b, "Distance from centre: %.1f km", res.DistanceKM)
		if res.Incomplete {
			b.WriteString("\n⚠️ Some details are unavailable for this hotel.")
		}
		if err := tghelpers.SendText(c, b.String(), &tele.SendOptions{ParseMode: tele.ModeHTML}); err != nil {
			return err
		}
		if len(res.Images) == 0 {
			continue
		}
		album := make(tele.Album, 0, len(res.Images))
		for _, u := range res.Images {
			album = append(album, &tele.Photo{File: tele.FromURL(u)})
		}
		if err := c.SendAlbum(album); err != nil {
			logger.Warn(tghelpers.BuildContext(c), "service.search", "album.send_failed",
				slog.String("hotel_id", res.ID),
				slog.String("err", err.Error()),
			)
		}
	}
	return nil
}

func (d *Driver) reject(c tele.Context, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return tghelpers.SendText(c, verr.Message)
	}
	return err
}

func (d *Driver) today() time.Time {
	now := d.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (d *Driver) checkInPicker() calendar.Picker {
	today := d.today()
	return calendar.New(today, today.Add(maxCalendarAhead))
}

func (d *Driver) checkOutPicker(checkIn time.Time) calendar.Picker {
	return calendar.New(checkIn.AddDate(0, 0, 1), d.today().Add(maxCalendarAhead).AddDate(0, 0, 1))
}

func ensureData(s *state.Session[Criteria]) {
	if s.Data == nil {
		s.Data = &Criteria{}
	}
}
