package platform

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Markers are the reaction emojis that count as a check-in. Either one
// qualifies; they are treated as a single affordance.
var Markers = []string{"🧘‍♂️", "🧘‍♀️"}

// IsMarker reports whether the emoji is one of the check-in markers.
func IsMarker(emoji string) bool {
	for _, m := range Markers {
		if m == emoji {
			return true
		}
	}
	return false
}

// Message is the handle returned by a successful send.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	SentAt    time.Time `json:"sent_at"`
}

// ReactionEvent is an inbound reaction notification from the gateway.
// Removed=true means the user no longer has any qualifying reaction left on
// the message; the gateway collapses partial retractions before reporting.
type ReactionEvent struct {
	ID            uuid.UUID `json:"id"`
	UserID        int64     `json:"user_id"`
	ChannelID     string    `json:"channel_id"`
	MessageID     string    `json:"message_id"`
	Marker        string    `json:"marker"`
	Removed       bool      `json:"removed"`
	MessageSentAt time.Time `json:"message_sent_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Messenger is the outbound side of the chat platform collaborator.
type Messenger interface {
	Send(ctx context.Context, channelID, text string) (Message, error)
	AddReaction(ctx context.Context, msg Message, marker string) error
	RemoveReaction(ctx context.Context, channelID, messageID, marker string, userID int64) error
}
