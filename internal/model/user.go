package model

// User represents a row in the `users` table.  Users are identified by
// their Telegram id; the profile fields come from the bot's onboarding
// conversation.  A blocked user may browse but cannot reserve.
//
// Fields:
//  ID            – primary key identifier.
//  TgID          – Telegram user id, unique.
//  Name, Surname – profile name.
//  Phone         – contact phone collected during onboarding.
//  Blocked       – block gate checked before reservation creation.
//  BlockedReason – optional note shown to admins.
type User struct {
	ID            uint64  // users.id
	TgID          int64   // users.tg_id
	Name          string  // users.name
	Surname       string  // users.surname
	Phone         string  // users.phone
	Blocked       bool    // users.blocked
	BlockedReason *string // users.blocked_reason (nullable)
}
