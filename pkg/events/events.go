// Package events broadcasts "data changed" notifications so open dashboards
// can refresh.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	ProjectCreated = "project.created"
	ProjectUpdated = "project.updated"
	ProjectDeleted = "project.deleted"
	LotCreated     = "lot.created"
	LotUpdated     = "lot.updated"
	LotDeleted     = "lot.deleted"
	MarketUpdated  = "market.updated"
)

// Event is one mutation notice.
type Event struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"projectId,omitempty"`
	LotID     string    `json:"lotId,omitempty"`
	At        time.Time `json:"at"`
}

// Bus fans events out to every live subscriber. Each subscriber receives an
// event at most once; slow subscribers may miss events.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel that is closed after cancel is called or
	// ctx ends.
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
	Close() error
}

const subscriberBuffer = 16
