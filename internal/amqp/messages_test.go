package amqp

import (
	"testing"
	"time"
)

func TestNewSyncRequestMessage(t *testing.T) {
	msg := NewSyncRequestMessage("u1")

	if msg.UserID != "u1" {
		t.Errorf("UserID = %v, want u1", msg.UserID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestSyncRequestMessage_JSON(t *testing.T) {
	msg := &SyncRequestMessage{
		UserID:    "u1",
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := SyncRequestMessageFromJSON(body)
	if err != nil {
		t.Fatalf("SyncRequestMessageFromJSON() error = %v", err)
	}
	if parsed.UserID != msg.UserID || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
}

func TestSyncRequestMessage_InvalidJSON(t *testing.T) {
	if _, err := SyncRequestMessageFromJSON([]byte(`{"userId": 42`)); err == nil {
		t.Error("SyncRequestMessageFromJSON() should fail with invalid JSON")
	}
}
