package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEventType is returned when an application event carries a type
// string this build does not recognize.
var ErrUnknownEventType = errors.New("domain: unknown application event type")

// AppEvent is the decrypted application event carried inside a relay event's
// content field. It is a closed set: routing switches over the concrete types
// below instead of raw type strings.
type AppEvent interface {
	appEvent()
}

// CallRing announces an inbound call waiting to be answered.
type CallRing struct {
	CallID      string `json:"callId"`
	Line        string `json:"line"`
	CallerLabel string `json:"callerLabel,omitempty"`
	StartedAt   int64  `json:"startedAt"`
}

// CallUpdate reports a state change on an active or finished call.
type CallUpdate struct {
	CallID    string `json:"callId"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Voicemail announces a recorded voicemail, stored as an encrypted object.
type Voicemail struct {
	CallID   string `json:"callId"`
	ObjectID string `json:"objectId"`
	Duration int    `json:"durationSeconds"`
}

// MessageNew announces a new message in a text conversation.
type MessageNew struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	ObjectID       string `json:"objectId"`
}

// ConversationAssigned reports a conversation handed to a volunteer.
type ConversationAssigned struct {
	ConversationID  string `json:"conversationId"`
	VolunteerPubkey string `json:"volunteerPubkey"`
}

// ShiftUpdate reports a change to the shift schedule.
type ShiftUpdate struct {
	ShiftID         string `json:"shiftId"`
	VolunteerPubkey string `json:"volunteerPubkey"`
	Action          string `json:"action"`
	StartsAt        int64  `json:"startsAt"`
	EndsAt          int64  `json:"endsAt"`
}

// PresenceSummary lists the volunteers currently online.
type PresenceSummary struct {
	Online    []string `json:"online"`
	UpdatedAt int64    `json:"updatedAt"`
}

func (CallRing) appEvent()             {}
func (CallUpdate) appEvent()           {}
func (Voicemail) appEvent()            {}
func (MessageNew) appEvent()           {}
func (ConversationAssigned) appEvent() {}
func (ShiftUpdate) appEvent()          {}
func (PresenceSummary) appEvent()      {}

const (
	typeCallRing             = "call-ring"
	typeCallUpdate           = "call-update"
	typeVoicemail            = "voicemail"
	typeMessageNew           = "new-message"
	typeConversationAssigned = "assignment"
	typeShiftUpdate          = "shift-update"
	typePresenceSummary      = "presence"
)

// DecodeAppEvent parses a decrypted application event envelope
// {"type": ..., ...fields}.
func DecodeAppEvent(data []byte) (AppEvent, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	var ev AppEvent
	switch head.Type {
	case typeCallRing:
		ev = &CallRing{}
	case typeCallUpdate:
		ev = &CallUpdate{}
	case typeVoicemail:
		ev = &Voicemail{}
	case typeMessageNew:
		ev = &MessageNew{}
	case typeConversationAssigned:
		ev = &ConversationAssigned{}
	case typeShiftUpdate:
		ev = &ShiftUpdate{}
	case typePresenceSummary:
		ev = &PresenceSummary{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, head.Type)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, err
	}
	return deref(ev), nil
}

// EncodeAppEvent serializes an application event with its type discriminant.
func EncodeAppEvent(ev AppEvent) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = appEventType(ev)
	return json.Marshal(fields)
}

func appEventType(ev AppEvent) string {
	switch ev.(type) {
	case CallRing, *CallRing:
		return typeCallRing
	case CallUpdate, *CallUpdate:
		return typeCallUpdate
	case Voicemail, *Voicemail:
		return typeVoicemail
	case MessageNew, *MessageNew:
		return typeMessageNew
	case ConversationAssigned, *ConversationAssigned:
		return typeConversationAssigned
	case ShiftUpdate, *ShiftUpdate:
		return typeShiftUpdate
	case PresenceSummary, *PresenceSummary:
		return typePresenceSummary
	default:
		return ""
	}
}

// deref returns the value form so callers can type-switch on value types.
func deref(ev AppEvent) AppEvent {
	switch v := ev.(type) {
	case *CallRing:
		return *v
	case *CallUpdate:
		return *v
	case *Voicemail:
		return *v
	case *MessageNew:
		return *v
	case *ConversationAssigned:
		return *v
	case *ShiftUpdate:
		return *v
	case *PresenceSummary:
		return *v
	default:
		return ev
	}
}
