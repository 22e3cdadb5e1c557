package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/olzhasov/ticketbot/internal/repository"
)

// ExportHandler streams the guest list as CSV for spreadsheet import.
type ExportHandler struct {
	ReportRepo *repository.ReportRepo
}

// NewExportHandler constructs a new ExportHandler and panics if the
// dependency is nil.
func NewExportHandler(reportRepo *repository.ReportRepo) *ExportHandler {
	if reportRepo == nil {
		panic("nil repository passed to NewExportHandler")
	}
	return &ExportHandler{ReportRepo: reportRepo}
}

// GuestsCSV handles GET /v1/admin/export/guests?event_id=.  It writes
// one row per active attendee, the same data the door list shows, as a
// downloadable CSV attachment.
func (h *ExportHandler) GuestsCSV(c echo.Context) error {
	var eventID uint64
	if raw := c.QueryParam("event_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_id"})
		}
		eventID = id
	}
	rows, err := h.ReportRepo.ListGuests(c.Request().Context(), eventID, "event", "", 0)
	if err != nil {
		return respondErr(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="guests.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write([]string{
		"event", "name", "surname", "gender", "tier", "status",
		"reservation_code", "buyer", "buyer_phone", "total_price",
	}); err != nil {
		return err
	}
	for _, g := range rows {
		record := []string{
			g.EventTitle, g.Name, g.Surname, g.Gender, g.Tier, g.Status,
			g.ReservationCode, g.BuyerName, g.BuyerPhone,
			fmt.Sprintf("%.2f", g.TotalPrice),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
