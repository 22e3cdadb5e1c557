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

// AdminReservationHandler serves the review queue: approving and
// rejecting payment proofs, door check-in, search and sales
// statistics.  All routes sit behind JWTAuth + RequireRole("admin").
type AdminReservationHandler struct {
	UserRepo        *repository.UserRepo
	EventRepo       *repository.EventRepo
	ReservationRepo *repository.ReservationRepo
	ReportRepo      *repository.ReportRepo
	QueueEnabled    bool
}

// NewAdminReservationHandler constructs a new AdminReservationHandler
// and panics if any dependency is nil.
func NewAdminReservationHandler(userRepo *repository.UserRepo, eventRepo *repository.EventRepo, reservationRepo *repository.ReservationRepo, reportRepo *repository.ReportRepo, queueEnabled bool) *AdminReservationHandler {
	if userRepo == nil || eventRepo == nil || reservationRepo == nil || reportRepo == nil {
		panic("nil repository passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{
		UserRepo:        userRepo,
		EventRepo:       eventRepo,
		ReservationRepo: reservationRepo,
		ReportRepo:      reportRepo,
		QueueEnabled:    queueEnabled,
	}
}

// Approve handles POST /v1/admin/reservations/:id/approve.  Approving a
// reservation that was already reviewed is a recognized no-op, reported
// with applied=false rather than an error, so double-clicks and
// concurrent admins stay harmless.
func (h *AdminReservationHandler) Approve(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	result, err := h.ReservationRepo.Approve(c.Request().Context(), id, middleware.AdminTgID(c))
	if err != nil {
		return respondErr(c, err)
	}
	if result.Applied && h.QueueEnabled {
		publishReviewEvent(h.EventRepo, h.UserRepo, result.Reservation)
	}
	return transitionJSON(c, result)
}

// Reject handles POST /v1/admin/reservations/:id/reject.  The optional
// note is stored and forwarded to the buyer.
func (h *AdminReservationHandler) Reject(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	result, err := h.ReservationRepo.Reject(c.Request().Context(), id, middleware.AdminTgID(c), strings.TrimSpace(body.Note))
	if err != nil {
		return respondErr(c, err)
	}
	if result.Applied && h.QueueEnabled {
		publishReviewEvent(h.EventRepo, h.UserRepo, result.Reservation)
	}
	return transitionJSON(c, result)
}

// MarkEntered handles POST /v1/admin/reservations/:id/entered, the door
// check-in.
func (h *AdminReservationHandler) MarkEntered(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	result, err := h.ReservationRepo.MarkEntered(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return transitionJSON(c, result)
}

// Pending handles GET /v1/admin/reservations/pending: the review queue,
// oldest first.
func (h *AdminReservationHandler) Pending(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, err := h.ReportRepo.ListPendingReservations(c.Request().Context(), limit)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rows})
}

// Search handles GET /v1/admin/reservations?q=&sort=&limit=.  The query
// matches codes, event titles and buyer names.
func (h *AdminReservationHandler) Search(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, err := h.ReportRepo.SearchReservations(c.Request().Context(),
		c.QueryParam("q"), c.QueryParam("sort"), limit)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rows})
}

// Active handles GET /v1/admin/reservations/active: pending and
// approved reservations only.
func (h *AdminReservationHandler) Active(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, err := h.ReportRepo.ListActiveReservations(c.Request().Context(),
		c.QueryParam("q"), limit)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rows})
}

// Stats handles GET /v1/admin/stats?sort=: per-event ticket and revenue
// aggregates.
func (h *AdminReservationHandler) Stats(c echo.Context) error {
	rows, err := h.ReportRepo.EventStats(c.Request().Context(), c.QueryParam("sort"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": rows})
}

// transitionJSON renders a TransitionResult in the shared shape used by
// every state-machine endpoint.
func transitionJSON(c echo.Context, result repository.TransitionResult) error {
	return c.JSON(http.StatusOK, echo.Map{
		"applied": result.Applied,
		"message": result.Message,
		"status":  model.NormalizeStatus(result.Reservation.Status),
		"id":      result.Reservation.ID,
		"code":    result.Reservation.Code,
	})
}
