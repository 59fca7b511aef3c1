// Package events carries collection changes to the owner's open dashboards.
// Events are keyed by owner id; delivery is at-least-once per connection
// and consumers re-read the full state on (re)connect.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Type names a change event.
type Type string

const (
	CollectionCreated Type = "collection.created"
	CollectionUpdated Type = "collection.updated"
	CollectionDeleted Type = "collection.deleted"

	// Snapshot carries the full collection list; it is only sent directly
	// to a connection and never published.
	Snapshot Type = "snapshot"
)

// Event is a change to one owner's collections.
type Event struct {
	Type         Type            `json:"type"`
	OwnerID      string          `json:"ownerId"`
	CollectionID string          `json:"collectionId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	At           time.Time       `json:"at"`
}

// New builds an event with payload encoded as JSON.
func New(t Type, ownerID, collectionID string, payload interface{}) (Event, error) {
	e := Event{Type: t, OwnerID: ownerID, CollectionID: collectionID, At: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s payload: %w", t, err)
		}
		e.Payload = raw
	}
	return e, nil
}

// Publisher publishes events to the owner's subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Broker fans events out to subscribers of the same owner.
type Broker interface {
	Publisher
	// Subscribe returns a channel of the owner's events. The channel is
	// closed after cancel is called or ctx is done.
	Subscribe(ctx context.Context, ownerID string) (<-chan Event, func(), error)
	Close() error
}
