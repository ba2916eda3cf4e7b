// Package webhook normalizes the heterogeneous payloads OpenMic delivers to
// the pre-call and post-call endpoints. The platform has shipped both a nested
// session shape and a legacy flat shape; both land on one internal form.
// Normalization is permissive: a field that doesn't parse gets a safe
// placeholder instead of failing the webhook.
package webhook

import (
	"encoding/json"
	"strings"

	"github.com/code-100-precent/IntakeDesk/internal/models"
	"github.com/spf13/cast"
)

// CallInfo is the nested call block of the pre-call shape.
type CallInfo struct {
	Direction  string `json:"direction,omitempty"`
	FromNumber string `json:"from_number,omitempty"`
	ToNumber   string `json:"to_number,omitempty"`
	Attempt    int    `json:"attempt,omitempty"`
	BotID      string `json:"bot_id,omitempty"`
}

// PreCall is the normalized pre-call payload.
type PreCall struct {
	BotUID   string
	CallID   string
	Metadata map[string]any
	Event    string
	Call     *CallInfo
}

// NormalizePreCall accepts either the nested {event, call:{bot_id,...}} shape
// or the legacy flat {botUid|bot_uid, callId|call_id} shape. An unresolvable
// bot id becomes "unknown". Only unparseable JSON is an error.
func NormalizePreCall(body []byte) (PreCall, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return PreCall{}, err
	}

	var call *CallInfo
	if nested, ok := raw["call"].(map[string]any); ok {
		call = &CallInfo{
			Direction:  cast.ToString(nested["direction"]),
			FromNumber: cast.ToString(nested["from_number"]),
			ToNumber:   cast.ToString(nested["to_number"]),
			Attempt:    cast.ToInt(nested["attempt"]),
			BotID:      cast.ToString(nested["bot_id"]),
		}
	}

	botUID := ""
	if call != nil {
		botUID = call.BotID
	}
	if botUID == "" {
		botUID = firstString(raw, "botUid", "bot_uid")
	}
	if botUID == "" {
		botUID = "unknown"
	}

	metadata, _ := raw["metadata"].(map[string]any)
	if metadata == nil {
		metadata = map[string]any{}
	}

	return PreCall{
		BotUID:   botUID,
		CallID:   firstString(raw, "callId", "call_id"),
		Metadata: metadata,
		Event:    cast.ToString(raw["event"]),
		Call:     call,
	}, nil
}

// PostCall is the normalized post-call payload.
type PostCall struct {
	BotUID     string
	CallID     string
	Transcript string
	Metadata   models.CallMetadata
}

// NormalizePostCall accepts the session shape (sessionId, phone numbers,
// transcript as string or array of turns, summary, isSuccessful, timestamps)
// or the legacy flat shape. Every call-level field is folded into the metadata
// bag alongside any caller-supplied metadata object; the transcript is
// flattened to a single string.
func NormalizePostCall(body []byte) (PostCall, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return PostCall{}, err
	}

	botUID := firstString(raw, "botUid", "bot_uid")
	if botUID == "" {
		botUID = "unknown"
	}
	callID := firstString(raw, "sessionId", "callId", "call_id")
	if callID == "" {
		callID = "unknown"
	}

	// Caller-supplied metadata first: recognized keys land on typed fields,
	// everything else survives in Extra.
	var meta models.CallMetadata
	if supplied, ok := raw["metadata"].(map[string]any); ok && len(supplied) > 0 {
		if encoded, err := json.Marshal(supplied); err == nil {
			_ = json.Unmarshal(encoded, &meta)
		}
	}

	// Call-level fields win over whatever the caller put in metadata.
	meta.Type = overlay(meta.Type, raw, "type")
	meta.SessionID = overlay(meta.SessionID, raw, "sessionId")
	meta.ToPhoneNumber = overlay(meta.ToPhoneNumber, raw, "toPhoneNumber")
	meta.FromPhoneNumber = overlay(meta.FromPhoneNumber, raw, "fromPhoneNumber")
	meta.CallType = overlay(meta.CallType, raw, "callType")
	meta.DisconnectionReason = overlay(meta.DisconnectionReason, raw, "disconnectionReason")
	meta.Direction = overlay(meta.Direction, raw, "direction")
	meta.CreatedAt = overlay(meta.CreatedAt, raw, "createdAt")
	meta.EndedAt = overlay(meta.EndedAt, raw, "endedAt")
	meta.Summary = overlay(meta.Summary, raw, "summary")
	if v, present := raw["isSuccessful"]; present {
		ok := cast.ToBool(v)
		meta.IsSuccessful = &ok
	}

	return PostCall{
		BotUID:     botUID,
		CallID:     callID,
		Transcript: flattenTranscript(raw["transcript"]),
		Metadata:   meta,
	}, nil
}

// flattenTranscript joins an array-of-turns transcript into one newline-joined
// string. An array turn is joined with ": " (speaker: text), an object turn is
// JSON-encoded, a missing transcript becomes a placeholder.
func flattenTranscript(value any) string {
	switch v := value.(type) {
	case []any:
		lines := make([]string, 0, len(v))
		for _, turn := range v {
			switch t := turn.(type) {
			case []any:
				parts := make([]string, 0, len(t))
				for _, p := range t {
					parts = append(parts, cast.ToString(p))
				}
				lines = append(lines, strings.Join(parts, ": "))
			case string:
				lines = append(lines, t)
			default:
				encoded, err := json.Marshal(t)
				if err != nil {
					lines = append(lines, cast.ToString(t))
					continue
				}
				lines = append(lines, string(encoded))
			}
		}
		return strings.Join(lines, "\n")
	case string:
		if v == "" {
			return "No transcript available"
		}
		return v
	default:
		return "No transcript available"
	}
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := cast.ToString(raw[key]); value != "" {
			return value
		}
	}
	return ""
}

func overlay(current string, raw map[string]any, key string) string {
	if value := cast.ToString(raw[key]); value != "" {
		return value
	}
	return current
}
