package router

import (
	"github.com/labstack/echo/v4"

	"github.com/olzhasov/ticketbot/internal/handler"
)

// RegisterAdmin registers the review, guest-management, event and
// export endpoints under /v1/admin.  All routes require a valid JWT
// with the admin role.
func RegisterAdmin(
	e *echo.Echo,
	jwtSecret string,
	res *handler.AdminReservationHandler,
	guests *handler.AdminGuestHandler,
	events *handler.AdminEventHandler,
	export *handler.ExportHandler,
) {
	g := adminGroup(e, jwtSecret)

	// Review queue and decisions.
	g.GET("/reservations/pending", res.Pending)
	g.GET("/reservations/active", res.Active)
	g.GET("/reservations", res.Search)
	g.POST("/reservations/:id/approve", res.Approve)
	g.POST("/reservations/:id/reject", res.Reject)
	g.POST("/reservations/:id/entered", res.MarkEntered)
	g.GET("/stats", res.Stats)

	// Guest-level mutations on existing reservations.
	g.POST("/reservations/:code/guests", guests.AddGuest)
	g.DELETE("/guests/:id", guests.RemoveGuest)
	g.PATCH("/guests/:id", guests.RenameGuest)
	g.GET("/guests", guests.ListGuests)

	// Per-event guest operations: walk-in sale, removal by retyped
	// name, and the normalized name list for door matching.
	g.POST("/events/:id/guests", guests.AddGuestByEvent)
	g.DELETE("/events/:id/guests", guests.RemoveGuestByName)
	g.GET("/events/:id/name-pairs", guests.NamePairs)

	// Event administration.
	g.POST("/events", events.CreateEvent)
	g.PATCH("/events/:id", events.UpdateEvent)
	g.DELETE("/events/:id", events.DeleteEvent)

	// User block list.
	g.POST("/users/:tg_id/block", events.BlockUser(true))
	g.POST("/users/:tg_id/unblock", events.BlockUser(false))
	g.GET("/users/blocked", events.ListBlocked)

	// Spreadsheet export of the door list.
	g.GET("/export/guests", export.GuestsCSV)
}
