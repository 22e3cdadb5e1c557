package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olzhasov/ticketbot/internal/queue"
)

func TestReviewMessage(t *testing.T) {
	base := queue.ReservationReviewedEvent{
		Code:       "R117123456742",
		EventTitle: "Summer Party",
		Quantity:   3,
		TotalPrice: 7600,
	}

	approved := base
	approved.Status = "approved"
	msg := ReviewMessage(approved)
	assert.Contains(t, msg, "confirmed")
	assert.Contains(t, msg, "R117123456742")
	assert.Contains(t, msg, "3 ticket(s)")

	rejected := base
	rejected.Status = "declined" // legacy spelling maps to rejected
	rejected.AdminNote = "payment screenshot unreadable"
	msg = ReviewMessage(rejected)
	assert.Contains(t, msg, "declined")
	assert.Contains(t, msg, "Reason: payment screenshot unreadable")

	cancelled := base
	cancelled.Status = "canceled"
	assert.Contains(t, ReviewMessage(cancelled), "cancelled")
}
