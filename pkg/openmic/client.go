package openmic

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.openmic.ai/v1"

// createEndpoints is the ordered list of resource paths tried when creating a
// bot. The OpenMic API has shipped under several names; the first 2xx wins.
var createEndpoints = []string{"agents", "agent", "bots", "bot", "create-agent", "create-bot"}

// listEndpoints is the ordered list of resource paths tried when listing bots.
var listEndpoints = []string{"bots", "agents", "agent", "bot"}

// botIDFields is the priority order for extracting a platform-assigned bot id
// from a dynamically shaped response.
var botIDFields = []string{"id", "agent_id", "uid", "bot_id", "agentId"}

// Client talks to the OpenMic voice-agent platform. Every operation is
// best-effort: failures are reported in the result, never escalated.
type Client struct {
	apiKey    string
	baseURL   string
	serverURL string
	http      *resty.Client
}

// NewClient builds a client. apiKey may be empty, in which case every call
// reports "API key not configured". serverURL is this deployment's public base
// URL, embedded in function manifests so OpenMic can call back during a call.
func NewClient(apiKey, baseURL, serverURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:    apiKey,
		baseURL:   baseURL,
		serverURL: serverURL,
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CreateBotInput is the payload for CreateBot.
type CreateBotInput struct {
	Name   string
	Domain string
	Prompt string
	Voice  string
}

// CreateBotResult reports the outcome of a create attempt. When Success is
// false and BotID is non-empty, the id was synthesized locally and the caller
// should still create its local record with it.
type CreateBotResult struct {
	Success bool
	BotID   string
	Error   string
}

// CreateBot registers a bot with OpenMic, trying each candidate endpoint in
// order until one answers 2xx. Total failure falls back to a locally generated
// "{domain}_{epoch-millis}" id so the dashboard keeps working without the
// platform.
func (c *Client) CreateBot(ctx context.Context, in CreateBotInput) CreateBotResult {
	if c.apiKey == "" {
		logger.Warn("openmic api key not configured")
		return CreateBotResult{Success: false, Error: "API key not configured"}
	}

	prompt := in.Prompt
	if prompt == "" {
		prompt = DomainPrompt(in.Domain, in.Name)
	}
	voice := in.Voice
	if voice == "" {
		voice = "alloy"
	}

	body := map[string]any{
		"name":      in.Name,
		"prompt":    prompt,
		"voice":     voice,
		"language":  "en",
		"functions": DomainFunctions(in.Domain, c.serverURL),
	}

	for _, endpoint := range createEndpoints {
		url := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(c.apiKey).
			SetBody(body).
			Post(url)
		if err != nil {
			logger.Debug("openmic create attempt failed", zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}
		if resp.IsSuccess() {
			var result map[string]any
			if err := json.Unmarshal(resp.Body(), &result); err != nil {
				result = map[string]any{}
			}
			botID := extractField(result, botIDFields)
			logger.Info("openmic bot created",
				zap.String("endpoint", endpoint),
				zap.String("botId", botID),
			)
			return CreateBotResult{Success: true, BotID: botID}
		}
		if resp.StatusCode() != http.StatusNotFound {
			logger.Debug("openmic create rejected",
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.StatusCode()),
				zap.String("body", string(resp.Body())),
			)
		}
	}

	// Every endpoint failed. Synthesize an id so the local record can exist;
	// the operator completes the pairing from the OpenMic dashboard.
	generated := fmt.Sprintf("%s_%d", in.Domain, time.Now().UnixMilli())
	logger.Warn("openmic create exhausted all endpoints, falling back to manual creation",
		zap.String("generatedUid", generated))
	return CreateBotResult{
		Success: false,
		BotID:   generated,
		Error:   "API endpoints not available - manual creation required",
	}
}

// UpdateBotInput carries the fields PATCHed to OpenMic. Empty fields are omitted.
type UpdateBotInput struct {
	Name   string `json:"name,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	Voice  string `json:"voice,omitempty"`
}

// OpResult is the outcome of a best-effort update or delete.
type OpResult struct {
	Success bool
	Error   string
}

// UpdateBot issues a single PATCH. Failures are reported, never retried.
func (c *Client) UpdateBot(ctx context.Context, botID string, in UpdateBotInput) OpResult {
	if c.apiKey == "" {
		logger.Warn("openmic api key not configured for update")
		return OpResult{Success: false, Error: "API key not configured"}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(in).
		Patch(fmt.Sprintf("%s/bots/%s", c.baseURL, botID))
	if err != nil {
		logger.Error("openmic update failed", zap.String("botId", botID), zap.Error(err))
		return OpResult{Success: false, Error: "Failed to update bot in OpenMic"}
	}
	if !resp.IsSuccess() {
		logger.Error("openmic update rejected",
			zap.String("botId", botID),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", string(resp.Body())),
		)
		return OpResult{Success: false, Error: fmt.Sprintf("OpenMic API error: %d", resp.StatusCode())}
	}
	return OpResult{Success: true}
}

// DeleteBot issues a single DELETE. Same best-effort policy as UpdateBot.
func (c *Client) DeleteBot(ctx context.Context, botID string) OpResult {
	if c.apiKey == "" {
		logger.Warn("openmic api key not configured for delete")
		return OpResult{Success: false, Error: "API key not configured"}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		Delete(fmt.Sprintf("%s/bots/%s", c.baseURL, botID))
	if err != nil {
		logger.Error("openmic delete failed", zap.String("botId", botID), zap.Error(err))
		return OpResult{Success: false, Error: "Failed to delete bot from OpenMic"}
	}
	if !resp.IsSuccess() {
		logger.Error("openmic delete rejected",
			zap.String("botId", botID),
			zap.Int("status", resp.StatusCode()),
		)
		return OpResult{Success: false, Error: fmt.Sprintf("OpenMic API error: %d", resp.StatusCode())}
	}
	return OpResult{Success: true}
}

// FetchBotsResult carries the raw remote bot records.
type FetchBotsResult struct {
	Success bool
	Data    []map[string]any
	Error   string
}

// FetchBots lists bots from OpenMic, trying each candidate path in order. A
// 401 short-circuits with an unauthorized error; any other failure moves on to
// the next candidate. Exhausting every candidate reports success with an empty
// list — the caller cannot tell that apart from a genuinely empty account.
func (c *Client) FetchBots(ctx context.Context) FetchBotsResult {
	if c.apiKey == "" {
		logger.Warn("openmic api key not configured for fetching bots")
		return FetchBotsResult{Success: false, Error: "API key not configured"}
	}

	for _, endpoint := range listEndpoints {
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(c.apiKey).
			Get(fmt.Sprintf("%s/%s", c.baseURL, endpoint))
		if err != nil {
			logger.Debug("openmic list attempt failed", zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			logger.Error("openmic rejected the api key")
			return FetchBotsResult{Success: false, Error: "unauthorized - check OPENMIC_API_KEY"}
		}
		if !resp.IsSuccess() {
			continue
		}

		bots, ok := decodeBotList(resp.Body())
		if !ok {
			continue
		}
		logger.Info("openmic bots fetched",
			zap.String("endpoint", endpoint),
			zap.Int("total", len(bots)),
		)
		return FetchBotsResult{Success: true, Data: bots}
	}

	return FetchBotsResult{Success: true, Data: []map[string]any{}}
}

// decodeBotList accepts the response shapes OpenMic has been seen to produce:
// a bare array, {data:[...]}, {agents:[...]}, {bots:[...]}, or a bare object
// treated as a single-element list.
func decodeBotList(body []byte) ([]map[string]any, bool) {
	var asList []map[string]any
	if err := json.Unmarshal(body, &asList); err == nil {
		return asList, true
	}

	var asObject map[string]any
	if err := json.Unmarshal(body, &asObject); err != nil {
		return nil, false
	}
	for _, key := range []string{"data", "agents", "bots"} {
		if raw, present := asObject[key]; present {
			if items, ok := raw.([]any); ok {
				bots := make([]map[string]any, 0, len(items))
				for _, item := range items {
					if m, ok := item.(map[string]any); ok {
						bots = append(bots, m)
					}
				}
				return bots, true
			}
		}
	}
	return []map[string]any{asObject}, true
}

// CallLogFilter narrows the /calls query.
type CallLogFilter struct {
	BotID      string
	Limit      int
	Offset     int
	StartDate  string
	EndDate    string
	CustomerID string
	FromNumber string
	ToNumber   string
	CallStatus string
	CallType   string
}

// FetchCallLogsResult carries the platform's calls array plus its pagination
// block verbatim.
type FetchCallLogsResult struct {
	Success    bool
	Data       []map[string]any
	Pagination map[string]any
	Error      string
}

// FetchCallLogs queries the fixed /calls endpoint. The limit is clamped to the
// API maximum of 100 and the offset floored at 0 before being sent upstream.
func (c *Client) FetchCallLogs(ctx context.Context, filter CallLogFilter) FetchCallLogsResult {
	if c.apiKey == "" {
		logger.Warn("openmic api key not configured for fetching call logs")
		return FetchCallLogsResult{Success: false, Error: "API key not configured"}
	}

	req := c.http.R().SetContext(ctx).SetAuthToken(c.apiKey)
	if filter.BotID != "" {
		req.SetQueryParam("bot_id", filter.BotID)
	}
	if filter.Limit > 0 {
		limit := filter.Limit
		if limit > 100 {
			limit = 100
		}
		req.SetQueryParam("limit", cast.ToString(limit))
	}
	if filter.Offset != 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		req.SetQueryParam("offset", cast.ToString(offset))
	}
	if filter.CustomerID != "" {
		req.SetQueryParam("customer_id", filter.CustomerID)
	}
	if filter.FromNumber != "" {
		req.SetQueryParam("from_number", filter.FromNumber)
	}
	if filter.ToNumber != "" {
		req.SetQueryParam("to_number", filter.ToNumber)
	}
	if filter.CallStatus != "" {
		req.SetQueryParam("call_status", filter.CallStatus)
	}
	if filter.CallType != "" {
		req.SetQueryParam("call_type", filter.CallType)
	}
	if filter.StartDate != "" {
		req.SetQueryParam("from_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		req.SetQueryParam("to_date", filter.EndDate)
	}

	resp, err := req.Get(fmt.Sprintf("%s/calls", c.baseURL))
	if err != nil {
		logger.Error("openmic call log fetch failed", zap.Error(err))
		return FetchCallLogsResult{Success: false, Error: fmt.Sprintf("Failed to fetch call logs from OpenMic: %v", err)}
	}
	if !resp.IsSuccess() {
		logger.Error("openmic call log fetch rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", string(resp.Body())),
		)
		return FetchCallLogsResult{
			Success: false,
			Error:   fmt.Sprintf("OpenMic API error: %d - %s", resp.StatusCode(), string(resp.Body())),
		}
	}

	var result struct {
		Calls      []map[string]any `json:"calls"`
		Pagination map[string]any   `json:"pagination"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return FetchCallLogsResult{Success: true, Data: []map[string]any{}}
	}
	if result.Calls == nil {
		result.Calls = []map[string]any{}
	}
	return FetchCallLogsResult{Success: true, Data: result.Calls, Pagination: result.Pagination}
}

// VerifyWebhookSignature checks an HMAC-SHA256 signature ("sha256=<hex>") over
// the raw payload, keyed by the API key. It returns false on any missing input
// or internal error, never an error.
func (c *Client) VerifyWebhookSignature(payload []byte, signature string) bool {
	if signature == "" || c.apiKey == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.apiKey))
	if _, err := mac.Write(payload); err != nil {
		return false
	}
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// extractField returns the first non-empty string value among the candidate
// keys, in priority order.
func extractField(record map[string]any, keys []string) string {
	for _, key := range keys {
		if raw, present := record[key]; present {
			if value := cast.ToString(raw); value != "" {
				return value
			}
		}
	}
	return ""
}
