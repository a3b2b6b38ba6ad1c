package amqp

import (
	"encoding/json"
	"time"
)

// SyncRequestMessage asks the worker to drain one user's pending queue.
// It carries only the user id; the worker reads the queue itself, so a
// stale or duplicated message is harmless.
type SyncRequestMessage struct {
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncRequestMessage creates a sync request for the given user.
func NewSyncRequestMessage(userID string) *SyncRequestMessage {
	return &SyncRequestMessage{
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncRequestMessageFromJSON creates a message from JSON bytes.
func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
