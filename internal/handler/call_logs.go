package handlers

import (
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/code-100-precent/IntakeDesk/internal/models"
	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"github.com/code-100-precent/IntakeDesk/pkg/openmic"
	"github.com/code-100-precent/IntakeDesk/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// customerIDPattern decides whether a search term doubles as a platform
// customer id (hex-and-dashes, the shape OpenMic issues).
var customerIDPattern = regexp.MustCompile(`^[a-f0-9-]+$`)

// remoteCallLog is an OpenMic call record reshaped for the dashboard, with a
// matched local bot and display-ready fields.
type remoteCallLog struct {
	ID                 string              `json:"id"`
	BotID              string              `json:"botId,omitempty"`
	BotUID             string              `json:"botUid,omitempty"`
	Bot                gin.H               `json:"bot"`
	CallerNumber       string              `json:"callerNumber"`
	Status             string              `json:"status"`
	Duration           int                 `json:"duration"`
	FormattedDuration  string              `json:"formattedDuration"`
	Cost               float64             `json:"cost"`
	FormattedCost      string              `json:"formattedCost"`
	RecordingURL       string              `json:"recordingUrl,omitempty"`
	Transcript         string              `json:"transcript"`
	Metadata           map[string]any      `json:"metadata"`
	CreatedAt          string              `json:"createdAt"`
	FormattedCreatedAt string              `json:"formattedCreatedAt"`
	EndedAt            string              `json:"endedAt,omitempty"`
	FormattedEndedAt   string              `json:"formattedEndedAt"`
	Direction          string              `json:"direction"`
	Source             string              `json:"source"`

	searchText string
}

// ListCallLogs serves the dashboard's call history. source=openmic (the
// default) reads from the platform, source=local reads the webhook-captured
// rows, source=both merges the two with platform records first and duplicates
// (same call id) dropped.
func (h *Handlers) ListCallLogs(c *gin.Context) {
	schema := models.CheckSchema(h.db)
	if !schema.Exists {
		response.Fail(c, http.StatusServiceUnavailable, msgSchemaMissing)
		return
	}

	botID := c.Query("botId")
	limit := cast.ToInt(c.Query("limit"))
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	page := cast.ToInt(c.Query("page"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")
	status := c.Query("status")
	search := c.Query("search")
	source := c.DefaultQuery("source", "openmic")

	filters := gin.H{
		"botId":       botID,
		"startDate":   startDate,
		"endDate":     endDate,
		"status":      status,
		"searchQuery": search,
	}

	allBots, err := models.ListBots(h.db)
	if err != nil {
		logger.Error("loading bots for call log listing failed", zap.Error(err))
		failForError(c, err, http.StatusInternalServerError, "Failed to fetch call logs")
		return
	}
	botsByUID := make(map[string]*models.Bot, len(allBots))
	botsByID := make(map[string]*models.Bot, len(allBots))
	for i := range allBots {
		botsByUID[allBots[i].UID] = &allBots[i]
		botsByID[allBots[i].ID] = &allBots[i]
	}

	var remoteLogs []remoteCallLog

	if source == "openmic" || source == "both" {
		filter := openmic.CallLogFilter{
			Limit:      limit,
			Offset:     offset,
			StartDate:  startDate,
			EndDate:    endDate,
			CallStatus: status,
		}
		if filter.CallStatus == "" {
			filter.CallStatus = "ended"
		}
		if botID != "" {
			if bot, ok := botsByID[botID]; ok {
				filter.BotID = bot.UID
			}
		}
		if search != "" && customerIDPattern.MatchString(search) {
			filter.CustomerID = search
		}

		result := h.openmic.FetchCallLogs(c.Request.Context(), filter)
		if result.Success {
			total := cast.ToInt(result.Pagination["total"])
			if total == 0 {
				total = len(result.Data)
			}

			remoteLogs = make([]remoteCallLog, 0, len(result.Data))
			for _, record := range result.Data {
				remoteLogs = append(remoteLogs, shapeRemoteCallLog(record, allBots, botsByUID))
			}
			if search != "" {
				needle := strings.ToLower(search)
				filtered := remoteLogs[:0]
				for _, log := range remoteLogs {
					if strings.Contains(log.searchText, needle) {
						filtered = append(filtered, log)
					}
				}
				remoteLogs = filtered
			}

			if source == "openmic" {
				response.Success(c, gin.H{
					"data":       remoteLogs,
					"pagination": paginationBlock(total, page, limit),
					"filters":    filters,
				})
				return
			}
		} else {
			logger.Warn("openmic call log fetch unavailable", zap.String("error", result.Error))
		}
	}

	var localLogs []models.CallLog
	var localTotal int64
	if source == "local" || source == "both" {
		localFilter := models.LocalCallLogFilter{BotID: botID, Limit: limit, Offset: offset}
		localLogs, err = models.ListCallLogs(h.db, localFilter)
		if err != nil {
			logger.Error("listing local call logs failed", zap.Error(err))
			failForError(c, err, http.StatusInternalServerError, "Failed to fetch call logs")
			return
		}
		localTotal, err = models.CountCallLogs(h.db, models.LocalCallLogFilter{BotID: botID})
		if err != nil {
			failForError(c, err, http.StatusInternalServerError, "Failed to fetch call logs")
			return
		}
	}

	data := make([]any, 0, len(remoteLogs)+len(localLogs))
	total := int(localTotal)
	if source == "both" {
		seen := make(map[string]bool)
		for _, log := range remoteLogs {
			key := callLogKey(log.Metadata, log.ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			data = append(data, log)
		}
		for _, log := range localLogs {
			key := log.Metadata.CallID
			if key == "" {
				key = log.Metadata.SessionID
			}
			if key == "" {
				key = log.ID
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			data = append(data, log)
		}
		total = len(data)
	} else {
		for _, log := range localLogs {
			data = append(data, log)
		}
	}

	response.Success(c, gin.H{
		"data":       data,
		"pagination": paginationBlock(total, page, limit),
		"filters":    filters,
	})
}

// shapeRemoteCallLog reshapes one raw platform record: resolves the local bot
// (by uid, then by the record's domain, then any bot at all), formats duration
// and cost for display, and builds the lowercase haystack used by the search
// filter.
func shapeRemoteCallLog(record map[string]any, allBots []models.Bot, botsByUID map[string]*models.Bot) remoteCallLog {
	botUID := cast.ToString(record["agent_id"])
	if botUID == "" {
		botUID = cast.ToString(record["bot_id"])
	}

	var bot *models.Bot
	if botUID != "" {
		bot = botsByUID[botUID]
		if bot == nil {
			if fromRecord := cast.ToString(record["bot_id"]); fromRecord != "" {
				bot = botsByUID[fromRecord]
			}
		}
	}
	if bot == nil && len(allBots) > 0 {
		if domain := cast.ToString(record["domain"]); domain != "" {
			for i := range allBots {
				if allBots[i].Domain == domain {
					bot = &allBots[i]
					break
				}
			}
		}
		if bot == nil {
			bot = &allBots[0]
		}
	}

	botBlock := gin.H{"id": "", "name": "Unknown Bot", "domain": "unknown"}
	botID := ""
	if bot != nil {
		botBlock = gin.H{"id": bot.ID, "name": bot.Name, "domain": bot.Domain}
		botID = bot.ID
	}

	status := strings.ToLower(cast.ToString(record["status"]))
	if status == "" {
		status = "unknown"
	}
	duration := cast.ToInt(record["duration_seconds"])
	cost := cast.ToFloat64(record["cost"])
	direction := cast.ToString(record["direction"])
	if direction == "" {
		if cast.ToString(record["to_number"]) != "" {
			direction = "inbound"
		} else {
			direction = "outbound"
		}
	}

	caller := cast.ToString(record["from_number"])
	if caller == "" {
		caller = cast.ToString(record["caller_number"])
	}
	if caller == "" {
		caller = "Unknown"
	}

	createdAt := cast.ToString(record["created_at"])
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	metadata, _ := record["metadata"].(map[string]any)
	if metadata == nil {
		metadata = map[string]any{}
	}

	formattedCost := "N/A"
	if cost > 0 {
		formattedCost = fmt.Sprintf("$%.2f", cost)
	}

	id := cast.ToString(record["call_id"])
	if id == "" {
		id = cast.ToString(record["id"])
	}

	botName := ""
	if bot != nil {
		botName = bot.Name
	}
	searchText := strings.ToLower(strings.Join([]string{
		botName,
		cast.ToString(record["from_number"]),
		cast.ToString(record["to_number"]),
		cast.ToString(record["transcript"]),
		cast.ToString(record["status"]),
	}, " "))

	return remoteCallLog{
		ID:                 id,
		BotID:              botID,
		BotUID:             botUID,
		Bot:                botBlock,
		CallerNumber:       caller,
		Status:             status,
		Duration:           duration,
		FormattedDuration:  formatDuration(duration),
		Cost:               cost,
		FormattedCost:      formattedCost,
		RecordingURL:       cast.ToString(record["recording_url"]),
		Transcript:         cast.ToString(record["transcript"]),
		Metadata:           metadata,
		CreatedAt:          createdAt,
		FormattedCreatedAt: formatCallDate(createdAt),
		EndedAt:            cast.ToString(record["ended_at"]),
		FormattedEndedAt:   formatCallDate(cast.ToString(record["ended_at"])),
		Direction:          direction,
		Source:             "openmic",
		searchText:         searchText,
	}
}

func callLogKey(metadata map[string]any, fallback string) string {
	if key := cast.ToString(metadata["call_id"]); key != "" {
		return key
	}
	if key := cast.ToString(metadata["sessionId"]); key != "" {
		return key
	}
	return fallback
}

func paginationBlock(total, page, limit int) gin.H {
	return gin.H{
		"total":     total,
		"page":      page,
		"pageSize":  limit,
		"pageCount": int(math.Ceil(float64(total) / float64(limit))),
	}
}

// formatDuration renders seconds as "3m 42s", dropping the zero component.
func formatDuration(seconds int) string {
	minutes := seconds / 60
	remaining := seconds % 60
	if minutes == 0 {
		return fmt.Sprintf("%ds", remaining)
	}
	if remaining == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, remaining)
}

// formatCallDate renders an RFC 3339 timestamp for the dashboard; anything
// unparseable comes back empty.
func formatCallDate(value string) string {
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return ""
	}
	return parsed.Format("Jan 2, 2006, 03:04 PM")
}
