package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/olzhasov/ticketbot/internal/middleware"
	"github.com/olzhasov/ticketbot/internal/model"
	"github.com/olzhasov/ticketbot/internal/repository"
)

// AdminGuestHandler serves guest-level mutations on existing
// reservations: adding, removing and renaming attendees, walk-in sales
// and the door list.
type AdminGuestHandler struct {
	GuestRepo  *repository.GuestRepo
	ReportRepo *repository.ReportRepo
}

// NewAdminGuestHandler constructs a new AdminGuestHandler and panics if
// any dependency is nil.
func NewAdminGuestHandler(guestRepo *repository.GuestRepo, reportRepo *repository.ReportRepo) *AdminGuestHandler {
	if guestRepo == nil || reportRepo == nil {
		panic("nil repository passed to NewAdminGuestHandler")
	}
	return &AdminGuestHandler{GuestRepo: guestRepo, ReportRepo: reportRepo}
}

// reservationJSON renders the post-mutation reservation state shared by
// the guest endpoints.
func reservationJSON(c echo.Context, res *model.Reservation) error {
	return c.JSON(http.StatusOK, echo.Map{
		"id":          res.ID,
		"code":        res.Code,
		"quantity":    res.Quantity,
		"boys":        res.Boys,
		"girls":       res.Girls,
		"total_price": res.TotalPrice,
		"status":      model.NormalizeStatus(res.Status),
	})
}

// AddGuest handles POST /v1/admin/reservations/:code/guests.  The new
// guest takes a seat from the event's current active tier at today's
// price.
func (h *AdminGuestHandler) AddGuest(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid code"})
	}
	var body struct {
		Name   string `json:"name"`
		Gender string `json:"gender"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.GuestRepo.AddGuest(c.Request().Context(), code, body.Name, body.Gender)
	if err != nil {
		return respondErr(c, err)
	}
	return reservationJSON(c, res)
}

// AddGuestByEvent handles POST /v1/admin/events/:id/guests: a walk-in
// sale at the door, booked under the reviewing admin.
func (h *AdminGuestHandler) AddGuestByEvent(c echo.Context) error {
	eventID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Name    string `json:"name"`
		Surname string `json:"surname"`
		Gender  string `json:"gender"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.GuestRepo.AddGuestByEvent(c.Request().Context(),
		middleware.AdminTgID(c), eventID, body.Name, body.Surname, body.Gender)
	if err != nil {
		return respondErr(c, err)
	}
	return reservationJSON(c, res)
}

// RemoveGuest handles DELETE /v1/admin/guests/:id.  Removing the last
// guest cancels the whole reservation.
func (h *AdminGuestHandler) RemoveGuest(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.GuestRepo.RemoveGuest(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return reservationJSON(c, res)
}

// RemoveGuestByName handles DELETE /v1/admin/events/:id/guests: look
// the guest up by retyped name across the event's active reservations.
func (h *AdminGuestHandler) RemoveGuestByName(c echo.Context) error {
	eventID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Name    string `json:"name"`
		Surname string `json:"surname"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.GuestRepo.RemoveGuestByName(c.Request().Context(), eventID, body.Name, body.Surname)
	if err != nil {
		return respondErr(c, err)
	}
	return reservationJSON(c, res)
}

// RenameGuest handles PATCH /v1/admin/guests/:id.
func (h *AdminGuestHandler) RenameGuest(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.GuestRepo.RenameGuest(c.Request().Context(), id, body.Name); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// ListGuests handles GET /v1/admin/guests?event_id=&sort=&q=&limit=:
// the door list across events.
func (h *AdminGuestHandler) ListGuests(c echo.Context) error {
	var eventID uint64
	if raw := c.QueryParam("event_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_id"})
		}
		eventID = id
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, err := h.ReportRepo.ListGuests(c.Request().Context(), eventID,
		c.QueryParam("sort"), c.QueryParam("q"), limit)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"guests": rows})
}

// NamePairs handles GET /v1/admin/events/:id/name-pairs: distinct
// normalized guest names for door-list matching.
func (h *AdminGuestHandler) NamePairs(c echo.Context) error {
	eventID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	pairs, err := h.ReportRepo.GuestNamePairs(c.Request().Context(), eventID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"names": pairs})
}
