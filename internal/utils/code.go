package utils

import (
	"fmt"
	"time"
)

// NewReservationCode builds the human-readable reservation code shown
// to buyers and typed back by admins: R + event id + unix timestamp +
// buyer id.  The timestamp component makes collisions for the same
// buyer and event practically impossible; the database still enforces
// uniqueness on the column.
func NewReservationCode(eventID, userID uint64) string {
	return fmt.Sprintf("R%d%d%d", eventID, time.Now().Unix(), userID)
}
