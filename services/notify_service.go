package services

import (
	"context"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
	pubnub "github.com/pubnub/go/v7"

	"club-system/utils"
)

// Notifier persists notification records and fans them out on the
// removed member's channel. Everything here is best effort: a failed
// write or publish is logged and dropped, never propagated back into the
// roster mutation that triggered it.
type Notifier struct {
	app     core.App
	pubnub  *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewNotifier(app core.App, pn *pubnub.PubNub) *Notifier {
	return &Notifier{
		app:     app,
		pubnub:  pn,
		breaker: utils.NewCircuitBreaker("pubnub-notify"),
	}
}

// ParticipantRemoved emits the removal notification in the background.
func (n *Notifier) ParticipantRemoved(ctx context.Context, eventID, studentID, eventTitle string) {
	go n.deliverRemoval(context.WithoutCancel(ctx), eventID, studentID, eventTitle)
}

func (n *Notifier) deliverRemoval(ctx context.Context, eventID, studentID, eventTitle string) {
	message := fmt.Sprintf("You have been removed from the %s roster. Contact the organizers if you have any questions.", eventTitle)

	collection, err := n.app.FindCollectionByNameOrId("notifications")
	if err != nil {
		log.Printf("notify: find notifications collection: %v", err)
	} else {
		rec := core.NewRecord(collection)
		rec.Set("type", "participant_removed")
		rec.Set("event_id", eventID)
		rec.Set("event_title", eventTitle)
		rec.Set("student_id", studentID)
		rec.Set("message", message)
		rec.Set("read", false)
		if err := n.app.Save(rec); err != nil {
			log.Printf("notify: save removal notification: %v", err)
		}
	}

	if n.pubnub == nil {
		return
	}
	channel := fmt.Sprintf("member-%s", studentID)
	_, err = n.breaker.Execute(ctx, func() (any, error) {
		_, pnStatus, err := n.pubnub.Publish().
			Channel(channel).
			Message(map[string]any{
				"type":        "participant_removed",
				"event_id":    eventID,
				"event_title": eventTitle,
				"student_id":  studentID,
				"message":     message,
			}).
			Execute()
		if err != nil {
			return nil, err
		}
		if pnStatus.Error != nil {
			return nil, fmt.Errorf("pubnub publish status %d", pnStatus.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		log.Printf("notify: publish to %s: %v", channel, err)
	}
}
