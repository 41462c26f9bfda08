package providers

import (
	"context"
	"fmt"

	"github.com/healthreach/careaccess-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.RequestEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.RequestEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelRequestUpdates is the channel for all request updates
	EventChannelRequestUpdates = "requests:updates"

	// EventChannelRequestPrefix is the prefix for request-specific channels
	EventChannelRequestPrefix = "request:"

	// EventChannelRegionalPrefix is the prefix for regional channels
	EventChannelRegionalPrefix = "region:"
)

// GetRequestChannel returns the channel name for a specific request
func GetRequestChannel(requestID string) string {
	return EventChannelRequestPrefix + requestID
}

// GetRegionalChannel returns the channel name for the region around a point
func GetRegionalChannel(location entities.Location) string {
	// Round to 2 decimal places for reasonable grouping
	return fmt.Sprintf("%s%.2f:%.2f", EventChannelRegionalPrefix, location.Latitude, location.Longitude)
}
