package relay

import (
	"encoding/json"
	"errors"
)

// Wire verbs, first element of every JSON array frame.
const (
	verbAuth   = "AUTH"
	verbEvent  = "EVENT"
	verbOK     = "OK"
	verbEOSE   = "EOSE"
	verbClosed = "CLOSED"
	verbNotice = "NOTICE"
	verbReq    = "REQ"
	verbClose  = "CLOSE"
)

// ErrMalformedFrame marks frames that are not a JSON array led by a verb.
var ErrMalformedFrame = errors.New("relay: malformed frame")

// Filter selects events for a subscription.
type Filter struct {
	Kinds  []int    `json:"kinds,omitempty"`
	Hubs   []string `json:"#h,omitempty"`
	Topics []string `json:"#t,omitempty"`
	Since  int64    `json:"since,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// decodeFrame splits a frame into its verb and remaining elements.
func decodeFrame(data []byte) (string, []json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil || len(parts) == 0 {
		return "", nil, ErrMalformedFrame
	}
	var verb string
	if err := json.Unmarshal(parts[0], &verb); err != nil {
		return "", nil, ErrMalformedFrame
	}
	return verb, parts[1:], nil
}

func encodeFrame(parts ...any) ([]byte, error) {
	return json.Marshal(parts)
}

func reqFrame(subID string, f Filter) ([]byte, error) {
	return encodeFrame(verbReq, subID, f)
}

func closeFrame(subID string) ([]byte, error) {
	return encodeFrame(verbClose, subID)
}

func eventFrame(ev *Event) ([]byte, error) {
	return encodeFrame(verbEvent, ev)
}

func authFrame(ev *Event) ([]byte, error) {
	return encodeFrame(verbAuth, ev)
}
