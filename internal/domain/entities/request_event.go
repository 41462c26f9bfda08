package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// RequestEventType represents the type of request lifecycle event
type RequestEventType string

const (
	RequestEventTypeCreated   RequestEventType = "request_created"
	RequestEventTypeMatched   RequestEventType = "request_matched"
	RequestEventTypeFulfilled RequestEventType = "request_fulfilled"
	RequestEventTypeCancelled RequestEventType = "request_cancelled"
)

// RequestEvent represents a real-time update event for a service request
type RequestEvent struct {
	ID         string           `json:"id"`
	RequestID  string           `json:"request_id"`
	EventType  RequestEventType `json:"event_type"`
	Timestamp  time.Time        `json:"timestamp"`
	Location   Location         `json:"location"`
	ProviderID string           `json:"provider_id,omitempty"`
	MatchScore *float64         `json:"match_score,omitempty"`
}

// NewRequestEvent creates a new request event
func NewRequestEvent(requestID string, eventType RequestEventType, location Location) *RequestEvent {
	return &RequestEvent{
		ID:        generateEventID(),
		RequestID: requestID,
		EventType: eventType,
		Timestamp: time.Now(),
		Location:  location,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
