package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event is the wire shape carried on the channel: a producer name, a
// human-readable event name, and a JSON payload holding at minimum the
// document id plus whatever the next stage needs.
type Event struct {
	Source     string          `json:"source"`
	DetailType string          `json:"detailType"`
	Detail     json.RawMessage `json:"detail"`
}

// NewEvent marshals detail into an Event.
func NewEvent(source, detailType string, detail any) (Event, error) {
	data, err := json.Marshal(detail)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event detail: %w", err)
	}
	return Event{Source: source, DetailType: detailType, Detail: data}, nil
}

// Handler consumes one delivered event. Returning an error signals the
// channel that delivery failed; the channel may redeliver. Handlers must
// therefore be idempotent.
type Handler func(ctx context.Context, evt Event) error

// Bus is an asynchronous at-least-once fan-out channel keyed by
// (source, detailType). Subscriptions form an explicit routing table built
// once at startup; there is no pattern matching beyond the exact pair.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(source, detailType string, h Handler)
}

// routeKey identifies one routing-table entry.
func routeKey(source, detailType string) string {
	return source + "/" + detailType
}
