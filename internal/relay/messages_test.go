package relay

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	verb, rest, err := decodeFrame([]byte(`["EVENT","sub-1",{"id":"abc"}]`))
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if verb != verbEvent || len(rest) != 2 {
		t.Fatalf("verb=%q rest=%d", verb, len(rest))
	}
	var subID string
	if err := json.Unmarshal(rest[0], &subID); err != nil || subID != "sub-1" {
		t.Fatalf("subID=%q err=%v", subID, err)
	}
}

func TestDecodeFrame_Malformed(t *testing.T) {
	for _, data := range []string{`{}`, `[]`, `[42]`, `not json`} {
		if _, _, err := decodeFrame([]byte(data)); !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("%s: err = %v, want ErrMalformedFrame", data, err)
		}
	}
}

func TestReqFrame_Shape(t *testing.T) {
	frame, err := reqFrame("sub-1", Filter{
		Kinds:  []int{KindCallSignal},
		Hubs:   []string{"hub-a"},
		Topics: []string{"calls"},
		Since:  1700000000,
	})
	if err != nil {
		t.Fatalf("reqFrame: %v", err)
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(frame, &parts); err != nil || len(parts) != 3 {
		t.Fatalf("frame not a 3-element array: %s", frame)
	}
	var filter map[string]any
	if err := json.Unmarshal(parts[2], &filter); err != nil {
		t.Fatalf("filter: %v", err)
	}
	for _, key := range []string{"kinds", "#h", "#t", "since"} {
		if _, ok := filter[key]; !ok {
			t.Fatalf("filter missing %q: %s", key, parts[2])
		}
	}
}
