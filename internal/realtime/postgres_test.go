package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// memorySpill stands in for the spill table
type memorySpill struct {
	rows map[string][]byte
}

func (m *memorySpill) spill(payload []byte) (string, error) {
	ref := fmt.Sprintf("ref-%d", len(m.rows)+1)
	m.rows[ref] = payload
	return ref, nil
}

func (m *memorySpill) load(ref string) ([]byte, error) {
	raw, ok := m.rows[ref]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return raw, nil
}

func TestNotificationRoundTrip(t *testing.T) {
	// 4000 multi-byte runes, the longest chat message allowed
	longMessage := strings.Repeat("🙏", 4000)

	tests := []struct {
		name      string
		content   string
		wantSpill bool
	}{
		{name: "small event inline", content: "See you Sunday", wantSpill: false},
		{name: "long message spilled", content: longMessage, wantSpill: true},
		{name: "escaped characters spilled", content: strings.Repeat("<\"\\>", 1000), wantSpill: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memorySpill{rows: make(map[string][]byte)}
			event, err := NewEvent("message", map[string]string{"content": tt.content})
			if err != nil {
				t.Fatalf("NewEvent() error = %v", err)
			}

			payload, err := encodeNotification("conversation:c1", event, store.spill)
			if err != nil {
				t.Fatalf("encodeNotification() error = %v", err)
			}
			if len(payload) > maxPayload {
				t.Fatalf("payload is %d bytes, over the %d byte limit", len(payload), maxPayload)
			}
			if spilled := len(store.rows) == 1; spilled != tt.wantSpill {
				t.Fatalf("spilled = %v, want %v", spilled, tt.wantSpill)
			}

			env, err := decodeNotification(payload, store.load)
			if err != nil {
				t.Fatalf("decodeNotification() error = %v", err)
			}
			if env.Topic != "conversation:c1" || env.Event.Type != "message" {
				t.Errorf("decoded envelope = %s %s", env.Topic, env.Event.Type)
			}
			var data map[string]string
			if err := json.Unmarshal(env.Event.Data, &data); err != nil {
				t.Fatalf("event data: %v", err)
			}
			if data["content"] != tt.content {
				t.Errorf("content changed in transit: %d bytes, want %d", len(data["content"]), len(tt.content))
			}
		})
	}
}

func TestDecodeNotificationErrors(t *testing.T) {
	store := &memorySpill{rows: make(map[string][]byte)}

	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed json", payload: "{"},
		{name: "missing event", payload: `{"topic":"user:1"}`},
		{name: "missing topic", payload: `{"event":{"type":"notification","data":{}}}`},
		{name: "unknown spill reference", payload: `{"ref":"gone"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeNotification(tt.payload, store.load); err == nil {
				t.Errorf("decodeNotification(%s) should fail", tt.payload)
			}
		})
	}
}

func TestEncodeNotificationSpillFailure(t *testing.T) {
	event, err := NewEvent("message", strings.Repeat("x", maxPayload))
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	failing := func([]byte) (string, error) { return "", errors.New("connection refused") }
	if _, err := encodeNotification("conversation:c1", event, failing); err == nil {
		t.Error("encodeNotification() should report a failed spill")
	}
}
