package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallMetadataUnknownKeysLandInExtra(t *testing.T) {
	raw := []byte(`{"callId":"c1","summary":"fine","agent_mood":"chipper","retries":2}`)

	var meta CallMetadata
	require.NoError(t, json.Unmarshal(raw, &meta))

	assert.Equal(t, "c1", meta.CallID)
	assert.Equal(t, "fine", meta.Summary)
	require.NotNil(t, meta.Extra)
	assert.Equal(t, "chipper", meta.Extra["agent_mood"])
	assert.EqualValues(t, 2, meta.Extra["retries"])
}

func TestCallMetadataMarshalMergesExtra(t *testing.T) {
	meta := CallMetadata{
		CallID: "c2",
		Extra:  map[string]any{"vendor_tag": "x", "callId": "should-not-win"},
	}

	encoded, err := json.Marshal(meta)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	// Typed fields win on key collisions
	assert.Equal(t, "c2", decoded["callId"])
	assert.Equal(t, "x", decoded["vendor_tag"])
}

func TestCallMetadataSurvivesDatabaseRoundTrip(t *testing.T) {
	db := setupTestDB(t, &Bot{}, &CallLog{})

	bot := Bot{Name: "RT", UID: "uid-rt"}
	require.NoError(t, db.Create(&bot).Error)

	yes := true
	meta := CallMetadata{
		CallID:           "call-77",
		Summary:          "caller confirmed appointment",
		IsSuccessful:     &yes,
		Duration:         95,
		Cost:             0.12,
		WebhookProcessed: true,
		FunctionCalls: []FunctionCallRecord{
			{Name: "fetch_patient_details", Arguments: map[string]any{"id": "123"}},
		},
		PreCallData: map[string]any{"patientId": "123"},
		Extra:       map[string]any{"carrier": "acme-telecom"},
	}

	created, err := CreateCallLog(db, bot.ID, "transcript text", meta)
	require.NoError(t, err)

	var loaded CallLog
	require.NoError(t, db.First(&loaded, "id = ?", created.ID).Error)

	assert.Equal(t, "call-77", loaded.Metadata.CallID)
	assert.Equal(t, 95, loaded.Metadata.Duration)
	require.NotNil(t, loaded.Metadata.IsSuccessful)
	assert.True(t, *loaded.Metadata.IsSuccessful)
	require.Len(t, loaded.Metadata.FunctionCalls, 1)
	assert.Equal(t, "fetch_patient_details", loaded.Metadata.FunctionCalls[0].Name)
	assert.Equal(t, "123", loaded.Metadata.PreCallData["patientId"])
	assert.Equal(t, "acme-telecom", loaded.Metadata.Extra["carrier"])
}

func TestCallMetadataScanEmptyValue(t *testing.T) {
	var meta CallMetadata
	require.NoError(t, meta.Scan(nil))
	assert.Empty(t, meta.CallID)

	require.NoError(t, meta.Scan([]byte{}))
	assert.Empty(t, meta.CallID)

	assert.Error(t, meta.Scan(42))
}

func TestListCallLogsFiltersAndPreloads(t *testing.T) {
	db := setupTestDB(t, &Bot{}, &CallLog{})

	a := Bot{Name: "A", UID: "uid-list-a"}
	require.NoError(t, db.Create(&a).Error)
	b := Bot{Name: "B", UID: "uid-list-b"}
	require.NoError(t, db.Create(&b).Error)

	for i := 0; i < 2; i++ {
		_, err := CreateCallLog(db, a.ID, "a-call", CallMetadata{})
		require.NoError(t, err)
	}
	_, err := CreateCallLog(db, b.ID, "b-call", CallMetadata{})
	require.NoError(t, err)

	logs, err := ListCallLogs(db, LocalCallLogFilter{BotID: a.ID})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, log := range logs {
		require.NotNil(t, log.Bot)
		assert.Equal(t, "A", log.Bot.Name)
	}

	total, err := CountCallLogs(db, LocalCallLogFilter{BotID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	limited, err := ListCallLogs(db, LocalCallLogFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
