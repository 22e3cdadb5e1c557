package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/olzhasov/ticketbot/internal/allocation"
	"github.com/olzhasov/ticketbot/internal/model"
	"github.com/olzhasov/ticketbot/internal/repository"
)

// PublicHandler serves the buyer-facing endpoints used by the Telegram
// mini-app: event browsing, price quotes and the buyer's own
// reservation list.  No authentication is required; buyers are
// identified by the Telegram id the mini-app passes along.
type PublicHandler struct {
	EventRepo       *repository.EventRepo
	UserRepo        *repository.UserRepo
	ReservationRepo *repository.ReservationRepo
}

// NewPublicHandler constructs a new PublicHandler and panics if any
// dependency is nil.
func NewPublicHandler(eventRepo *repository.EventRepo, userRepo *repository.UserRepo, reservationRepo *repository.ReservationRepo) *PublicHandler {
	if eventRepo == nil || userRepo == nil || reservationRepo == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{EventRepo: eventRepo, UserRepo: userRepo, ReservationRepo: reservationRepo}
}

// tierView is the wire shape of one price tier.
type tierView struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	BoyPrice  float64 `json:"boy_price"`
	GirlPrice float64 `json:"girl_price"`
	Remaining int     `json:"remaining"`
	Active    bool    `json:"active"`
}

// eventView is the wire shape of an event with its tier ladder.
type eventView struct {
	ID            uint64     `json:"id"`
	Title         string     `json:"title"`
	EventDatetime string     `json:"event_datetime"`
	Location      string     `json:"location"`
	Caption       string     `json:"caption"`
	Status        string     `json:"status"`
	Remaining     int        `json:"remaining"`
	Tiers         []tierView `json:"tiers"`
}

func eventToView(e *model.Event) eventView {
	view := eventView{
		ID:            e.ID,
		Title:         e.Title,
		EventDatetime: e.EventDatetime,
		Location:      e.Location,
		Caption:       e.Caption,
		Status:        e.Status,
		Remaining:     e.TotalRemaining(),
	}
	active, hasActive := e.ActiveTier()
	for _, t := range e.Tiers() {
		view.Tiers = append(view.Tiers, tierView{
			Key:       string(t.Key),
			Label:     t.Key.Label(),
			BoyPrice:  t.BoyPrice,
			GirlPrice: t.GirlPrice,
			Remaining: t.Remaining,
			Active:    hasActive && t.Key == active.Key,
		})
	}
	return view
}

// ListEvents handles GET /v1/events.  It returns every open event with
// its tier ladder and which tier buyers currently purchase from.
func (h *PublicHandler) ListEvents(c echo.Context) error {
	events, err := h.EventRepo.ListOpen(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	views := make([]eventView, 0, len(events))
	for i := range events {
		views = append(views, eventToView(&events[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": views})
}

// GetEvent handles GET /v1/events/:id.
func (h *PublicHandler) GetEvent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	event, err := h.EventRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, eventToView(event))
}

// QuoteTickets handles POST /v1/events/:id/quote.  It prices a
// boys/girls split against the current tier counters without reserving
// anything: the response shows exactly what a booking made right now
// would cost, including spill across tiers.
func (h *PublicHandler) QuoteTickets(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Boys  int `json:"boys"`
		Girls int `json:"girls"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	event, err := h.EventRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	plan, err := allocation.Quote(event, body.Boys, body.Girls)
	if err != nil {
		return respondErr(c, err)
	}
	usage := make([]echo.Map, 0, len(plan.Usage))
	for _, u := range plan.Usage {
		usage = append(usage, echo.Map{
			"tier":     string(u.Tier),
			"label":    u.Tier.Label(),
			"boys":     u.Boys,
			"girls":    u.Girls,
			"count":    u.Count,
			"subtotal": u.Subtotal,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"quantity":    plan.Quantity,
		"boys":        plan.Boys,
		"girls":       plan.Girls,
		"total_price": plan.TotalPrice,
		"tier":        string(plan.PrimaryTier),
		"usage":       usage,
	})
}

// RegisterUser handles POST /v1/users.  The mini-app calls it once per
// session to upsert the buyer's profile.
func (h *PublicHandler) RegisterUser(c echo.Context) error {
	var body struct {
		TgID    int64  `json:"tg_id"`
		Name    string `json:"name"`
		Surname string `json:"surname"`
		Phone   string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil || body.TgID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tg_id is required"})
	}
	if err := h.UserRepo.Upsert(c.Request().Context(), body.TgID, body.Name, body.Surname, body.Phone); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// GetUser handles GET /v1/users/:tg_id: the buyer's stored profile.
func (h *PublicHandler) GetUser(c echo.Context) error {
	tgID, err := parseID(c, "tg_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	user, err := h.UserRepo.GetByTgID(c.Request().Context(), int64(tgID))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tg_id":   user.TgID,
		"name":    user.Name,
		"surname": user.Surname,
		"phone":   user.Phone,
		"blocked": user.Blocked,
	})
}

// MyReservations handles GET /v1/users/:tg_id/reservations: the buyer's
// tickets across all events, newest first, with attendees attached.
func (h *PublicHandler) MyReservations(c echo.Context) error {
	tgID, err := parseID(c, "tg_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	user, err := h.UserRepo.GetByTgID(ctx, int64(tgID))
	if err != nil {
		return respondErr(c, err)
	}
	reservations, err := h.ReservationRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]echo.Map, 0, len(reservations))
	for i := range reservations {
		res := &reservations[i]
		attendees, err := h.ReservationRepo.ListAttendees(ctx, res.ID)
		if err != nil {
			return respondErr(c, err)
		}
		names := make([]echo.Map, 0, len(attendees))
		for _, a := range attendees {
			names = append(names, echo.Map{
				"id":     a.ID,
				"name":   a.FullName(),
				"gender": string(a.Gender),
				"tier":   string(a.Tier),
			})
		}
		out = append(out, echo.Map{
			"id":          res.ID,
			"code":        res.Code,
			"event_id":    res.EventID,
			"tier":        string(res.PrimaryTier),
			"quantity":    res.Quantity,
			"boys":        res.Boys,
			"girls":       res.Girls,
			"total_price": res.TotalPrice,
			"status":      model.NormalizeStatus(res.Status),
			"created_at":  res.CreatedAt,
			"attendees":   names,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}
