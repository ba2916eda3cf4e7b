package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePreCallNestedShape(t *testing.T) {
	body := []byte(`{
		"event": "call_started",
		"call": {
			"direction": "inbound",
			"from_number": "+15550001111",
			"to_number": "+15550002222",
			"attempt": 1,
			"bot_id": "om_bot_9"
		},
		"callId": "call-1",
		"metadata": {"name": "Jane"}
	}`)

	got, err := NormalizePreCall(body)
	require.NoError(t, err)
	assert.Equal(t, "om_bot_9", got.BotUID)
	assert.Equal(t, "call-1", got.CallID)
	assert.Equal(t, "call_started", got.Event)
	require.NotNil(t, got.Call)
	assert.Equal(t, "inbound", got.Call.Direction)
	assert.Equal(t, "Jane", got.Metadata["name"])
}

func TestNormalizePreCallLegacyFlatShape(t *testing.T) {
	got, err := NormalizePreCall([]byte(`{"bot_uid":"legacy-7","call_id":"c-9"}`))
	require.NoError(t, err)
	assert.Equal(t, "legacy-7", got.BotUID)
	assert.Equal(t, "c-9", got.CallID)
	assert.Nil(t, got.Call)
	assert.NotNil(t, got.Metadata)
}

func TestNormalizePreCallUnresolvableBotBecomesUnknown(t *testing.T) {
	got, err := NormalizePreCall([]byte(`{"callId":"c-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "unknown", got.BotUID)
}

func TestNormalizePreCallRejectsUnparseableJSON(t *testing.T) {
	_, err := NormalizePreCall([]byte(`{not json`))
	assert.Error(t, err)
}

func TestNormalizePostCallSessionShape(t *testing.T) {
	body := []byte(`{
		"botUid": "om_bot_3",
		"sessionId": "sess-5",
		"toPhoneNumber": "+15550002222",
		"fromPhoneNumber": "+15550001111",
		"callType": "phonecall",
		"direction": "inbound",
		"summary": "booked an appointment",
		"isSuccessful": true,
		"createdAt": "2026-08-30T10:00:00Z",
		"endedAt": "2026-08-30T10:05:00Z",
		"transcript": [["assistant", "Hello"], ["user", "Hi"]]
	}`)

	got, err := NormalizePostCall(body)
	require.NoError(t, err)
	assert.Equal(t, "om_bot_3", got.BotUID)
	assert.Equal(t, "sess-5", got.CallID)
	assert.Equal(t, "assistant: Hello\nuser: Hi", got.Transcript)
	assert.Equal(t, "sess-5", got.Metadata.SessionID)
	assert.Equal(t, "booked an appointment", got.Metadata.Summary)
	require.NotNil(t, got.Metadata.IsSuccessful)
	assert.True(t, *got.Metadata.IsSuccessful)
	assert.Equal(t, "inbound", got.Metadata.Direction)
}

func TestNormalizePostCallCallLevelFieldsWinOverMetadata(t *testing.T) {
	body := []byte(`{
		"botUid": "b",
		"callId": "c",
		"summary": "call-level wins",
		"metadata": {"summary": "caller-supplied", "custom_tag": "kept"}
	}`)

	got, err := NormalizePostCall(body)
	require.NoError(t, err)
	assert.Equal(t, "call-level wins", got.Metadata.Summary)
	assert.Equal(t, "kept", got.Metadata.Extra["custom_tag"])
}

func TestNormalizePostCallFallbacks(t *testing.T) {
	got, err := NormalizePostCall([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "unknown", got.BotUID)
	assert.Equal(t, "unknown", got.CallID)
	assert.Equal(t, "No transcript available", got.Transcript)
}

func TestFlattenTranscriptShapes(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"string kept", "plain text", "plain text"},
		{"empty string", "", "No transcript available"},
		{"missing", nil, "No transcript available"},
		{"string turns", []any{"a", "b"}, "a\nb"},
		{"pair turns", []any{[]any{"user", "hi"}, []any{"bot", "yo"}}, "user: hi\nbot: yo"},
		{"object turn", []any{map[string]any{"speaker": "user"}}, `{"speaker":"user"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, flattenTranscript(tc.in))
		})
	}
}
