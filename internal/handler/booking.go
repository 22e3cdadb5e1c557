package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/olzhasov/ticketbot/internal/model"
	"github.com/olzhasov/ticketbot/internal/queue"
	"github.com/olzhasov/ticketbot/internal/repository"
	queue_publisher "github.com/olzhasov/ticketbot/internal/service"
)

// BookingHandler serves reservation creation and buyer-side
// cancellation.  The heavy lifting (quote, hold, attendee rows) happens
// atomically inside the repository; the handler validates the request
// shape and translates outcomes.
type BookingHandler struct {
	UserRepo        *repository.UserRepo
	EventRepo       *repository.EventRepo
	ReservationRepo *repository.ReservationRepo
	QueueEnabled    bool
}

// NewBookingHandler constructs a new BookingHandler and panics if any
// dependency is nil.
func NewBookingHandler(userRepo *repository.UserRepo, eventRepo *repository.EventRepo, reservationRepo *repository.ReservationRepo, queueEnabled bool) *BookingHandler {
	if userRepo == nil || eventRepo == nil || reservationRepo == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{UserRepo: userRepo, EventRepo: eventRepo, ReservationRepo: reservationRepo, QueueEnabled: queueEnabled}
}

// CreateReservation handles POST /v1/reservations.  The body carries
// the buyer's Telegram id, the event, the boys/girls split, one
// attendee name per ticket and the payment-proof reference.  On
// success the reservation is pending review with its hold applied.
func (h *BookingHandler) CreateReservation(c echo.Context) error {
	var body struct {
		TgID          int64    `json:"tg_id"`
		EventID       uint64   `json:"event_id"`
		Boys          int      `json:"boys"`
		Girls         int      `json:"girls"`
		Attendees     []string `json:"attendees"`
		PaymentFileID string   `json:"payment_file_id"`
		PaymentKind   string   `json:"payment_kind"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TgID == 0 || body.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tg_id and event_id are required"})
	}
	names := make([]string, 0, len(body.Attendees))
	for _, n := range body.Attendees {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) != body.Boys+body.Girls {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "one attendee name per ticket is required"})
	}

	ctx := c.Request().Context()
	blocked, err := h.UserRepo.IsBlocked(ctx, body.TgID)
	if err != nil {
		return respondErr(c, err)
	}
	if blocked {
		return respondErr(c, model.ErrUserBlocked)
	}
	user, err := h.UserRepo.GetByTgID(ctx, body.TgID)
	if err != nil {
		return respondErr(c, err)
	}

	res, err := h.ReservationRepo.CreatePending(ctx, user.ID, body.EventID,
		body.Boys, body.Girls, names, body.PaymentFileID, body.PaymentKind)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          res.ID,
		"code":        res.Code,
		"tier":        string(res.PrimaryTier),
		"quantity":    res.Quantity,
		"total_price": res.TotalPrice,
		"status":      res.Status,
	})
}

// CancelReservation handles POST /v1/reservations/:code/cancel.  Only
// the owning buyer may cancel; the hold is released exactly once and a
// review event is published so the admins see the slot free up.
func (h *BookingHandler) CancelReservation(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid code"})
	}
	var body struct {
		TgID int64 `json:"tg_id"`
	}
	if err := c.Bind(&body); err != nil || body.TgID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tg_id is required"})
	}

	ctx := c.Request().Context()
	user, err := h.UserRepo.GetByTgID(ctx, body.TgID)
	if err != nil {
		return respondErr(c, err)
	}
	result, err := h.ReservationRepo.CancelForUser(ctx, user.ID, code)
	if err != nil {
		return respondErr(c, err)
	}
	if result.Applied && h.QueueEnabled {
		publishReviewEvent(h.EventRepo, h.UserRepo, result.Reservation)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"applied": result.Applied,
		"message": result.Message,
		"status":  model.NormalizeStatus(result.Reservation.Status),
	})
}

// publishReviewEvent enriches a reservation with event and buyer data
// and publishes it on the review queue in the background.  Failures are
// logged by the publisher and otherwise ignored: notification is best
// effort, the state change has already committed.
func publishReviewEvent(events *repository.EventRepo, users *repository.UserRepo, res *model.Reservation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ev := queue.ReservationReviewedEvent{
			ReservationID: res.ID,
			Code:          res.Code,
			UserID:        res.UserID,
			EventID:       res.EventID,
			Status:        model.NormalizeStatus(res.Status),
			Quantity:      res.Quantity,
			TotalPrice:    res.TotalPrice,
			AdminNote:     res.AdminNote,
			ReviewedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if event, err := events.GetByID(ctx, res.EventID); err == nil {
			ev.EventTitle = event.Title
		}
		if user, err := users.GetByID(ctx, res.UserID); err == nil {
			ev.BuyerTgID = user.TgID
		}
		_ = queue_publisher.PublishReservationReviewed(ctx, ev)
	}()
}
