package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Intake domains. Anything undeterminable defaults to medical.
const (
	DomainMedical      = "medical"
	DomainLegal        = "legal"
	DomainReceptionist = "receptionist"
)

// ValidDomain reports whether d is one of the known intake domains.
func ValidDomain(d string) bool {
	return d == DomainMedical || d == DomainLegal || d == DomainReceptionist
}

// Bot is an intake bot persona. UID is the identifier shared with OpenMic and
// the reconciliation key during sync: caller-supplied, platform-returned, or
// synthesized as "{domain}_{epoch-millis}" when platform creation fails.
type Bot struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UID       string    `json:"uid" gorm:"uniqueIndex;size:200"`
	Name      string    `json:"name" gorm:"size:200"`
	Domain    string    `json:"domain" gorm:"size:20;index;default:'medical'"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	CallLogCount int64 `json:"callLogCount" gorm:"-"`
}

func (Bot) TableName() string {
	return "bots"
}

func (b *Bot) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Domain == "" {
		b.Domain = DomainMedical
	}
	return nil
}

// GetBotByID loads a bot and its call log count.
func GetBotByID(db *gorm.DB, id string) (*Bot, error) {
	var bot Bot
	if err := db.Where("id = ?", id).First(&bot).Error; err != nil {
		return nil, err
	}
	db.Model(&CallLog{}).Where("bot_id = ?", bot.ID).Count(&bot.CallLogCount)
	return &bot, nil
}

// GetBotByUID loads a bot by its OpenMic identifier.
func GetBotByUID(db *gorm.DB, uid string) (*Bot, error) {
	var bot Bot
	if err := db.Where("uid = ?", uid).First(&bot).Error; err != nil {
		return nil, err
	}
	return &bot, nil
}

// FirstBotByDomain returns any bot of the given domain, used as the webhook
// fallback when a UID cannot be resolved.
func FirstBotByDomain(db *gorm.DB, domain string) (*Bot, error) {
	var bot Bot
	if err := db.Where("domain = ?", domain).First(&bot).Error; err != nil {
		return nil, err
	}
	return &bot, nil
}

// MostRecentlyUpdatedBot returns the bot touched last, used when a post-call
// webhook arrives with an unknown UID.
func MostRecentlyUpdatedBot(db *gorm.DB) (*Bot, error) {
	var bot Bot
	if err := db.Order("updated_at desc").First(&bot).Error; err != nil {
		return nil, err
	}
	return &bot, nil
}

// FirstBot returns any bot at all, the last fallback in the webhook chain.
func FirstBot(db *gorm.DB) (*Bot, error) {
	var bot Bot
	if err := db.First(&bot).Error; err != nil {
		return nil, err
	}
	return &bot, nil
}

// ListBots returns all bots newest-first with their call log counts.
func ListBots(db *gorm.DB) ([]Bot, error) {
	var bots []Bot
	if err := db.Order("created_at desc").Find(&bots).Error; err != nil {
		return nil, err
	}
	for i := range bots {
		db.Model(&CallLog{}).Where("bot_id = ?", bots[i].ID).Count(&bots[i].CallLogCount)
	}
	return bots, nil
}

// UpsertBotByUID creates or updates the bot with the given UID. Concurrent
// upserts on one UID are last-writer-wins; no locking is taken.
func UpsertBotByUID(db *gorm.DB, uid, name, domain string) (*Bot, bool, error) {
	var existing Bot
	err := db.Where("uid = ?", uid).First(&existing).Error
	switch {
	case err == nil:
		existing.Name = name
		existing.Domain = domain
		existing.UpdatedAt = time.Now()
		if err := db.Save(&existing).Error; err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		bot := Bot{UID: uid, Name: name, Domain: domain}
		if err := db.Create(&bot).Error; err != nil {
			return nil, false, err
		}
		return &bot, true, nil
	default:
		return nil, false, err
	}
}

// UpdateBot applies the non-empty fields and returns the refreshed record.
func UpdateBot(db *gorm.DB, id string, name, domain, uid string) (*Bot, error) {
	updates := map[string]any{}
	if name != "" {
		updates["name"] = name
	}
	if domain != "" {
		updates["domain"] = domain
	}
	if uid != "" {
		updates["uid"] = uid
	}
	if len(updates) > 0 {
		if err := db.Model(&Bot{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return GetBotByID(db, id)
}

// DeleteBot removes a bot and cascades to its call logs. A call log has no
// lifecycle of its own.
func DeleteBot(db *gorm.DB, id string) error {
	if err := db.Where("bot_id = ?", id).Delete(&CallLog{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&Bot{}).Error
}

// SchemaCheck is the result of probing whether the bots relation is queryable,
// used to tell "not migrated yet" apart from "unreachable".
type SchemaCheck struct {
	Exists bool
	Error  string
}

// CheckSchema probes the bots table with a cheap query.
func CheckSchema(db *gorm.DB) SchemaCheck {
	var bots []Bot
	if err := db.Limit(1).Find(&bots).Error; err != nil {
		return SchemaCheck{Exists: false, Error: err.Error()}
	}
	return SchemaCheck{Exists: true}
}
