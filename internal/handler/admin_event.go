package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/olzhasov/ticketbot/internal/model"
	"github.com/olzhasov/ticketbot/internal/repository"
)

// AdminEventHandler serves event administration: creating events,
// editing the tier matrix and other fields, cascading deletion, and the
// user block list.
type AdminEventHandler struct {
	EventRepo *repository.EventRepo
	UserRepo  *repository.UserRepo
}

// NewAdminEventHandler constructs a new AdminEventHandler and panics if
// any dependency is nil.
func NewAdminEventHandler(eventRepo *repository.EventRepo, userRepo *repository.UserRepo) *AdminEventHandler {
	if eventRepo == nil || userRepo == nil {
		panic("nil repository passed to NewAdminEventHandler")
	}
	return &AdminEventHandler{EventRepo: eventRepo, UserRepo: userRepo}
}

// CreateEvent handles POST /v1/admin/events.
func (h *AdminEventHandler) CreateEvent(c echo.Context) error {
	var body struct {
		Title          string  `json:"title"`
		EventDatetime  string  `json:"event_datetime"`
		Location       string  `json:"location"`
		Caption        string  `json:"caption"`
		PhotoFileID    string  `json:"photo_file_id"`
		EarlyBoyPrice  float64 `json:"early_boy_price"`
		EarlyGirlPrice float64 `json:"early_girl_price"`
		EarlyQty       int     `json:"early_qty"`
		Tier1BoyPrice  float64 `json:"tier1_boy_price"`
		Tier1GirlPrice float64 `json:"tier1_girl_price"`
		Tier1Qty       int     `json:"tier1_qty"`
		Tier2BoyPrice  float64 `json:"tier2_boy_price"`
		Tier2GirlPrice float64 `json:"tier2_girl_price"`
		Tier2Qty       int     `json:"tier2_qty"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	event := &model.Event{
		Title:          strings.TrimSpace(body.Title),
		EventDatetime:  strings.TrimSpace(body.EventDatetime),
		Location:       strings.TrimSpace(body.Location),
		Caption:        body.Caption,
		PhotoFileID:    body.PhotoFileID,
		EarlyBoyPrice:  body.EarlyBoyPrice,
		EarlyGirlPrice: body.EarlyGirlPrice,
		EarlyQty:       body.EarlyQty,
		Tier1BoyPrice:  body.Tier1BoyPrice,
		Tier1GirlPrice: body.Tier1GirlPrice,
		Tier1Qty:       body.Tier1Qty,
		Tier2BoyPrice:  body.Tier2BoyPrice,
		Tier2GirlPrice: body.Tier2GirlPrice,
		Tier2Qty:       body.Tier2Qty,
	}
	id, err := h.EventRepo.Create(c.Request().Context(), event)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// UpdateEvent handles PATCH /v1/admin/events/:id.  The body is a flat
// map of field name to raw string value; the repository validates every
// value before anything is written, so a typo in one field rejects the
// whole edit.
func (h *AdminEventHandler) UpdateEvent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var updates map[string]string
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	event, err := h.EventRepo.SetFields(c.Request().Context(), id, updates)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, eventToView(event))
}

// DeleteEvent handles DELETE /v1/admin/events/:id.  The delete cascades
// to reservations and attendees and reports how many rows went with it.
func (h *AdminEventHandler) DeleteEvent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	counts, err := h.EventRepo.DeleteCascade(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"deleted_reservations": counts.Reservations,
		"deleted_attendees":    counts.Attendees,
	})
}

// BlockUser handles POST /v1/admin/users/:tg_id/block and .../unblock.
// Blocked users cannot create new reservations; existing ones are
// untouched.
func (h *AdminEventHandler) BlockUser(blocked bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		tgID, err := parseID(c, "tg_id")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		var body struct {
			Reason string `json:"reason"`
		}
		_ = c.Bind(&body)
		var reason *string
		if r := strings.TrimSpace(body.Reason); r != "" && blocked {
			reason = &r
		}
		if err := h.UserRepo.SetBlocked(c.Request().Context(), int64(tgID), blocked, reason); err != nil {
			return respondErr(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

// ListBlocked handles GET /v1/admin/users/blocked.
func (h *AdminEventHandler) ListBlocked(c echo.Context) error {
	users, err := h.UserRepo.ListBlocked(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		entry := echo.Map{
			"tg_id":   u.TgID,
			"name":    u.Name,
			"surname": u.Surname,
		}
		if u.BlockedReason != nil {
			entry["reason"] = *u.BlockedReason
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}
