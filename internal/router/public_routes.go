package router

import (
	"github.com/labstack/echo/v4"

	"github.com/olzhasov/ticketbot/internal/handler"
)

// RegisterPublic registers the buyer-facing endpoints used by the
// Telegram mini-app.  These routes carry no JWT: buyers are identified
// by the Telegram id the mini-app passes along, and the rate limiter
// and cache middleware installed globally in main cover them.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, b *handler.BookingHandler) {
	// Event browsing and pure price quotes.
	e.GET("/v1/events", p.ListEvents)
	e.GET("/v1/events/:id", p.GetEvent)
	e.POST("/v1/events/:id/quote", p.QuoteTickets)

	// Buyer profile and ticket history.
	e.POST("/v1/users", p.RegisterUser)
	e.GET("/v1/users/:tg_id", p.GetUser)
	e.GET("/v1/users/:tg_id/reservations", p.MyReservations)

	// Booking: creation applies the hold atomically, cancellation
	// releases it exactly once.
	e.POST("/v1/reservations", b.CreateReservation)
	e.POST("/v1/reservations/:code/cancel", b.CancelReservation)
}
