package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FunctionCallRecord is one tool invocation made by the bot during a call.
type FunctionCallRecord struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// CallMetadata is the schemaless bag attached to a call log, modeled as the
// known optional sub-records plus an Extra escape hatch for keys this service
// has never seen. Unrecognized keys survive a round trip through the database.
type CallMetadata struct {
	CallID              string `json:"callId,omitempty"`
	SessionID           string `json:"sessionId,omitempty"`
	Type                string `json:"type,omitempty"`
	ToPhoneNumber       string `json:"toPhoneNumber,omitempty"`
	FromPhoneNumber     string `json:"fromPhoneNumber,omitempty"`
	CallType            string `json:"callType,omitempty"`
	Direction           string `json:"direction,omitempty"`
	DisconnectionReason string `json:"disconnectionReason,omitempty"`
	CreatedAt           string `json:"createdAt,omitempty"`
	EndedAt             string `json:"endedAt,omitempty"`
	Summary             string `json:"summary,omitempty"`
	IsSuccessful        *bool  `json:"isSuccessful,omitempty"`

	Duration  int     `json:"duration,omitempty"`
	Cost      float64 `json:"cost,omitempty"`
	Sentiment string  `json:"sentiment,omitempty"`
	Domain    string  `json:"domain,omitempty"`

	WebhookProcessed bool   `json:"webhookProcessed,omitempty"`
	ProcessedAt      string `json:"processedAt,omitempty"`

	FunctionCalls []FunctionCallRecord `json:"functionCalls,omitempty"`
	PreCallData   map[string]any       `json:"preCallData,omitempty"`

	Extra map[string]any `json:"-"`
}

// knownMetadataKeys mirrors the json tags above so unmarshalling can split
// recognized fields from the escape hatch.
var knownMetadataKeys = []string{
	"callId", "sessionId", "type", "toPhoneNumber", "fromPhoneNumber",
	"callType", "direction", "disconnectionReason", "createdAt", "endedAt",
	"summary", "isSuccessful", "duration", "cost", "sentiment", "domain",
	"webhookProcessed", "processedAt", "functionCalls", "preCallData",
}

type callMetadataAlias CallMetadata

func (m CallMetadata) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(callMetadataAlias(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return base, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range m.Extra {
		if _, taken := merged[key]; !taken {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

func (m *CallMetadata) UnmarshalJSON(data []byte) error {
	var alias callMetadataAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range knownMetadataKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}
	*m = CallMetadata(alias)
	return nil
}

// Value implements driver.Valuer.
func (m CallMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *CallMetadata) Scan(value any) error {
	if value == nil {
		*m = CallMetadata{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to convert value to []byte")
	}
	if len(bytes) == 0 {
		*m = CallMetadata{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// CallLog is one recorded call. Created by the post-call webhook (or the
// test-data endpoint), never updated, and deleted only when its bot goes away.
type CallLog struct {
	ID         string       `json:"id" gorm:"primaryKey;size:36"`
	BotID      string       `json:"botId" gorm:"size:36;index"`
	Bot        *Bot         `json:"bot,omitempty" gorm:"foreignKey:BotID"`
	Transcript string       `json:"transcript" gorm:"type:text"`
	Metadata   CallMetadata `json:"metadata" gorm:"type:json"`
	CreatedAt  time.Time    `json:"createdAt" gorm:"autoCreateTime;index"`
}

func (CallLog) TableName() string {
	return "call_logs"
}

func (l *CallLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// CreateCallLog persists one call log row.
func CreateCallLog(db *gorm.DB, botID, transcript string, metadata CallMetadata) (*CallLog, error) {
	log := CallLog{
		BotID:      botID,
		Transcript: transcript,
		Metadata:   metadata,
	}
	if err := db.Create(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// LocalCallLogFilter narrows local call log queries.
type LocalCallLogFilter struct {
	BotID  string
	Limit  int
	Offset int
}

// ListCallLogs returns local call logs newest-first with their bots preloaded.
func ListCallLogs(db *gorm.DB, filter LocalCallLogFilter) ([]CallLog, error) {
	query := db.Preload("Bot").Order("created_at desc")
	if filter.BotID != "" {
		query = query.Where("bot_id = ?", filter.BotID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var logs []CallLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// CountCallLogs counts local call logs matching the filter.
func CountCallLogs(db *gorm.DB, filter LocalCallLogFilter) (int64, error) {
	query := db.Model(&CallLog{})
	if filter.BotID != "" {
		query = query.Where("bot_id = ?", filter.BotID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
