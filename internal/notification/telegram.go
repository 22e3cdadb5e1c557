// Package notification delivers review decisions to buyers over
// Telegram.  It sits behind the queue consumer so a broker outage or a
// Telegram outage never blocks the admin review flow.
package notification

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/olzhasov/ticketbot/internal/model"
	"github.com/olzhasov/ticketbot/internal/queue"
)

// TelegramNotifier sends buyer-facing messages through the Bot API.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier authenticates against the Bot API with the given
// token.
func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

// NotifyReviewed tells the buyer what happened to their reservation.
func (n *TelegramNotifier) NotifyReviewed(ev queue.ReservationReviewedEvent) error {
	if ev.BuyerTgID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(ev.BuyerTgID, ReviewMessage(ev))
	_, err := n.bot.Send(msg)
	return err
}

// ReviewMessage renders the buyer-facing text for a review decision.
// Split out so tests can check the wording without a live bot.
func ReviewMessage(ev queue.ReservationReviewedEvent) string {
	switch model.NormalizeStatus(ev.Status) {
	case model.StatusApproved:
		return fmt.Sprintf(
			"Your reservation %s for %q is confirmed!\n%d ticket(s), total %.0f.\nShow this code at the entrance.",
			ev.Code, ev.EventTitle, ev.Quantity, ev.TotalPrice)
	case model.StatusRejected:
		text := fmt.Sprintf("Your reservation %s for %q was declined and the tickets were returned to sale.", ev.Code, ev.EventTitle)
		if ev.AdminNote != "" {
			text += "\nReason: " + ev.AdminNote
		}
		return text
	case model.StatusCancelled:
		return fmt.Sprintf("Your reservation %s for %q has been cancelled.", ev.Code, ev.EventTitle)
	}
	return fmt.Sprintf("Your reservation %s for %q is now %s.", ev.Code, ev.EventTitle, ev.Status)
}
