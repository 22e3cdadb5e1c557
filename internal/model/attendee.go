package model

import (
	"strings"
	"time"
)

// Gender of an individual attendee.  Tickets are gender-priced, so the
// gender recorded on the attendee row decides the unit price and is
// validated at every boundary that accepts external input.
type Gender string

const (
	GenderBoy     Gender = "boy"
	GenderGirl    Gender = "girl"
	GenderUnknown Gender = "unknown"
)

// ParseGender validates an externally supplied gender tag.  Legacy rows
// migrated from before gender support carry "unknown".
func ParseGender(raw string) (Gender, bool) {
	switch normalizeTag(raw) {
	case "boy", "male", "m":
		return GenderBoy, true
	case "girl", "female", "f":
		return GenderGirl, true
	case "unknown", "":
		return GenderUnknown, true
	}
	return "", false
}

// Attendee is one named guest inside a reservation.  The attendee's own
// tier tag, not the reservation's display tier, decides which counter
// is credited back when the attendee is removed: allocation may have
// spilled this guest into a later tier than the reservation's first
// one.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  Name, Surname – split display name.
//  Gender        – boy/girl/unknown, drives the unit price.
//  Tier          – tier this guest was allocated to.
//  Status        – mirrors the reservation status for door lists.
//  CreatedAt     – insertion timestamp; remove-by-name prefers the most
//                  recently added match.
type Attendee struct {
	ID            uint64    // attendees.id
	ReservationID uint64    // attendees.reservation_id
	Name          string    // attendees.name
	Surname       string    // attendees.surname
	Gender        Gender    // attendees.gender
	Tier          TierKey   // attendees.ticket_tier
	Status        string    // attendees.status
	CreatedAt     time.Time // attendees.created_at
}

// FullName joins the split name for display.
func (a *Attendee) FullName() string {
	return strings.TrimSpace(a.Name + " " + a.Surname)
}

// SplitFullName splits a free-form full name into first name and
// surname: the first token becomes the name, the remaining tokens
// joined become the surname (possibly empty).  Used for renames and
// for normalizing legacy combined-name rows.
func SplitFullName(full string) (name, surname string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
