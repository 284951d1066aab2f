package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	scheduling "github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
)

const (
	msgGreeting        = "Hello! I'm your meeting scheduling assistant. How can I help?"
	msgGoodbye         = "Goodbye!"
	msgDidNotCatch     = "Sorry, I didn't catch that. Could you please repeat?"
	msgTurnError       = "Sorry, I encountered an error. Let's try again."
	msgRepeat          = "Could you repeat that?"
	msgAskDuration     = "Okay! How long should the meeting be in minutes?"
	msgDurationRetry   = "Sorry, I didn't catch the duration. How long should the meeting be?"
	msgNoSlots         = "Sorry, I couldn't find available slots. Would you like to try another day or time?"
	msgSelectionRetry  = "Sorry, I didn't catch your choice. Please say the time like '2:00 PM' or 'first option'."
	msgConfirmRetry    = "Please say 'yes' to confirm or 'no' to cancel."
	msgStartOver       = "Okay, let's start over."
	summaryListLimit   = 3
	offeredSlotsSpoken = 2
)

func msgDurationSet(minutes int) string {
	return fmt.Sprintf("Got it. I'm checking for %d-minute slots. Do you have a preferred day or time?", minutes)
}

func msgDurationTooLong(max int) string {
	return fmt.Sprintf("That's longer than I can fit in a day. Please pick a length up to %d minutes.", max)
}

func msgDurationSuggested(minutes int) string {
	return fmt.Sprintf("Okay! Should the meeting be %d minutes? Say yes or give another length.", minutes)
}

func msgOffer(slots []scheduling.Slot) string {
	labels := make([]string, 0, offeredSlotsSpoken)
	for i := 0; i < len(slots) && i < offeredSlotsSpoken; i++ {
		labels = append(labels, slots[i].Label())
	}
	return fmt.Sprintf("Great. I have %s available on %s. Which one works for you?",
		strings.Join(labels, ", "), slots[0].Start.Format("Monday"))
}

func msgConfirm(slot scheduling.Slot) string {
	return fmt.Sprintf("Got it. Should I schedule the meeting for %s at %s?",
		slot.Start.Format("Monday"), slot.Label())
}

func msgNotOffered(hour, minute int) string {
	clock := time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC).Format("03:04 PM")
	return fmt.Sprintf("Sorry, %s isn't one of the open times. Please pick one of the offered slots.", clock)
}

func msgBooked(ref fmt.Stringer) string {
	return "Meeting scheduled! You can view it at: " + ref.String()
}

func msgBookingFailed(err error) string {
	return "Failed to schedule meeting: " + UserMessage(err) + "."
}

func msgSearchFailed(err error) string {
	return "Sorry, I couldn't check your calendar: " + UserMessage(err) + ". Please try again."
}

// msgNoSlotsWithAlternatives appends secondary recommendations to the apology.
func msgNoSlotsWithAlternatives(alternatives []queries.Alternative) string {
	if len(alternatives) == 0 {
		return msgNoSlots
	}
	options := make([]string, 0, len(alternatives))
	for _, alt := range alternatives {
		labels := make([]string, len(alt.Slots))
		for i, slot := range alt.Slots {
			labels[i] = slot.Label()
		}
		when := alt.Date.Format("Monday") + " " + alt.TimeRange.String()
		if alt.NextDay {
			when = alt.Date.Format("Monday")
		}
		options = append(options, fmt.Sprintf("%s at %s", when, strings.Join(labels, " or ")))
	}
	return msgNoSlots + " Other options: " + strings.Join(options, "; ") + "."
}

// msgEventsOn answers a date query with the first few titles.
func msgEventsOn(phrase string, summaries []string) string {
	if len(summaries) == 0 {
		return fmt.Sprintf("No events on %s", phrase)
	}
	shown := summaries
	if len(shown) > summaryListLimit {
		shown = shown[:summaryListLimit]
	}
	text := fmt.Sprintf("On %s: %s", phrase, strings.Join(shown, ", "))
	if extra := len(summaries) - len(shown); extra > 0 {
		text += fmt.Sprintf(" and %d more", extra)
	}
	return text
}
