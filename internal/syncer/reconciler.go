// Package syncer pulls OpenMic's bot records into the local store. Sync is
// one-directional and best-effort: each remote record is processed in turn,
// and a bad record is counted and skipped rather than aborting the run.
package syncer

import (
	"fmt"
	"strings"

	"github.com/code-100-precent/IntakeDesk/internal/models"
	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// idFields is the priority order for finding an external bot id in a remote
// record. A record carrying none of these is skipped.
var idFields = []string{"id", "uid", "agent_id", "botId", "agentId", "_id"}

// nameFields is the priority order for a display name.
var nameFields = []string{"name", "title", "agent_name", "displayName"}

// Domain keyword sets, checked in priority order: legal beats receptionist
// beats medical, so text matching both "legal" and "medical" classifies legal.
var domainKeywords = []struct {
	domain   string
	keywords []string
}{
	{models.DomainLegal, []string{"legal", "lawyer", "attorney", "law"}},
	{models.DomainReceptionist, []string{"reception", "receptionist", "front desk", "secretary"}},
	{models.DomainMedical, []string{"medical", "doctor", "patient", "health", "clinic", "hospital"}},
}

// Result accumulates the per-record counters of one sync run.
type Result struct {
	TotalFetched int      `json:"totalFetched"`
	Created      int      `json:"created"`
	Updated      int      `json:"updated"`
	Skipped      int      `json:"skipped"`
	Errors       []string `json:"errors,omitempty"`
}

// Reconcile upserts each remote record into the local store, keyed by the
// extracted external id. Records are processed sequentially; one upsert
// completes before the next record is touched.
func Reconcile(db *gorm.DB, remoteBots []map[string]any) Result {
	result := Result{TotalFetched: len(remoteBots)}

	for _, remote := range remoteBots {
		uid := extractString(remote, idFields)
		if uid == "" {
			logger.Warn("sync skipping bot with no recognizable id",
				zap.Any("fields", fieldNames(remote)))
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Bot missing UID: %v", remote))
			continue
		}

		name := extractString(remote, nameFields)
		if name == "" {
			name = fmt.Sprintf("OpenMic Bot %s", uid)
		}

		domain := ClassifyDomain(name + " " + extractString(remote, []string{"prompt", "system_prompt", "instructions"}))

		_, created, err := models.UpsertBotByUID(db, uid, name, domain)
		if err != nil {
			logger.Error("sync upsert failed", zap.String("uid", uid), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("Error processing bot %s: %v", uid, err))
			continue
		}
		if created {
			result.Created++
			logger.Info("sync created bot", zap.String("name", name), zap.String("uid", uid), zap.String("domain", domain))
		} else {
			result.Updated++
			logger.Info("sync updated bot", zap.String("name", name), zap.String("uid", uid), zap.String("domain", domain))
		}
	}

	return result
}

// ClassifyDomain classifies free text into an intake domain by keyword
// membership. Deterministic and order-sensitive; defaults to medical.
func ClassifyDomain(text string) string {
	lowered := strings.ToLower(text)
	for _, set := range domainKeywords {
		for _, keyword := range set.keywords {
			if strings.Contains(lowered, keyword) {
				return set.domain
			}
		}
	}
	return models.DomainMedical
}

// extractString returns the first non-empty value among the candidate keys.
func extractString(record map[string]any, keys []string) string {
	for _, key := range keys {
		if raw, present := record[key]; present {
			if value := cast.ToString(raw); value != "" {
				return value
			}
		}
	}
	return ""
}

func fieldNames(record map[string]any) []string {
	names := make([]string, 0, len(record))
	for key := range record {
		names = append(names, key)
	}
	return names
}
