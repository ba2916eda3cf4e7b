package openmic

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(apiKey, baseURL string) *Client {
	return NewClient(apiKey, baseURL, "https://dashboard.example.com")
}

func TestCreateBotWithoutAPIKey(t *testing.T) {
	client := newTestClient("", "")
	result := client.CreateBot(context.Background(), CreateBotInput{Name: "Bot", Domain: "medical"})
	assert.False(t, result.Success)
	assert.Equal(t, "API key not configured", result.Error)
	assert.Empty(t, result.BotID)
}

func TestCreateBotTriesEndpointsInOrder(t *testing.T) {
	var attempts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts = append(attempts, r.URL.Path)
		if r.URL.Path == "/bots" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"agent_id":"om_abc123"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient("test-key", server.URL)
	result := client.CreateBot(context.Background(), CreateBotInput{Name: "Bot", Domain: "legal"})

	require.True(t, result.Success)
	assert.Equal(t, "om_abc123", result.BotID)
	// agents and agent answered 404 before bots succeeded; later candidates untried
	assert.Equal(t, []string{"/agents", "/agent", "/bots"}, attempts)
}

func TestCreateBotIDFieldPriority(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"uid":"lower","id":"winner"}`))
	}))
	defer server.Close()

	client := newTestClient("test-key", server.URL)
	result := client.CreateBot(context.Background(), CreateBotInput{Name: "Bot", Domain: "medical"})
	require.True(t, result.Success)
	assert.Equal(t, "winner", result.BotID)
}

func TestCreateBotFallsBackToGeneratedUID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient("test-key", server.URL)
	result := client.CreateBot(context.Background(), CreateBotInput{Name: "Bot", Domain: "receptionist"})

	assert.False(t, result.Success)
	assert.Equal(t, "API endpoints not available - manual creation required", result.Error)
	assert.Regexp(t, regexp.MustCompile(`^receptionist_\d+$`), result.BotID)
}

func TestFetchBotsBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"a"},{"id":"b"}]`))
	}))
	defer server.Close()

	client := newTestClient("test-key", server.URL)
	result := client.FetchBots(context.Background())
	require.True(t, result.Success)
	require.Len(t, result.Data, 2)
	assert.Equal(t, "a", result.Data[0]["id"])
}

func TestFetchBotsWrappedShapes(t *testing.T) {
	for _, key := range []string{"data", "agents", "bots"} {
		t.Run(key, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body := map[string]any{key: []map[string]any{{"id": "x"}}}
				json.NewEncoder(w).Encode(body)
			}))
			defer server.Close()

			client := newTestClient("test-key", server.URL)
			result := client.FetchBots(context.Background())
			require.True(t, result.Success)
			require.Len(t, result.Data, 1)
			assert.Equal(t, "x", result.Data[0]["id"])
		})
	}
}

func TestFetchBotsBareObjectBecomesSingleElement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"only","name":"Solo"}`))
	}))
	defer server.Close()

	client := newTestClient("test-key", server.URL)
	result := client.FetchBots(context.Background())
	require.True(t, result.Success)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "only", result.Data[0]["id"])
}

func TestFetchBotsUnauthorizedShortCircuits(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient("bad-key", server.URL)
	result := client.FetchBots(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, "unauthorized - check OPENMIC_API_KEY", result.Error)
	assert.Equal(t, 1, calls)
}

func TestFetchBotsExhaustionReportsEmptySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient("test-key", server.URL)
	result := client.FetchBots(context.Background())
	assert.True(t, result.Success)
	assert.Empty(t, result.Data)
	assert.Empty(t, result.Error)
}

func TestFetchCallLogsClampsLimitAndOffset(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"calls":[],"pagination":{"total":0}}`))
	}))
	defer server.Close()

	client := newTestClient("test-key", server.URL)
	result := client.FetchCallLogs(context.Background(), CallLogFilter{Limit: 500, Offset: -3})
	require.True(t, result.Success)
	assert.Contains(t, query, "limit=100")
	assert.Contains(t, query, "offset=0")
}

func TestFetchCallLogsPassesFilters(t *testing.T) {
	var got url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"calls":[{"call_id":"c1"}],"pagination":{"total":1}}`))
	}))
	defer server.Close()

	client := newTestClient("test-key", server.URL)
	result := client.FetchCallLogs(context.Background(), CallLogFilter{
		BotID:      "bot-1",
		CallStatus: "ended",
		FromNumber: "+15550001111",
	})
	require.True(t, result.Success)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "bot-1", got.Get("bot_id"))
	assert.Equal(t, "ended", got.Get("call_status"))
	assert.Equal(t, "+15550001111", got.Get("from_number"))
	assert.Equal(t, 1, int(result.Pagination["total"].(float64)))
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := newTestClient("secret-key", "")
	payload := []byte(`{"callId":"abc"}`)

	mac := hmac.New(sha256.New, []byte("secret-key"))
	mac.Write(payload)
	valid := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyWebhookSignature(payload, valid))
	assert.False(t, client.VerifyWebhookSignature(payload, "sha256=deadbeef"))
	assert.False(t, client.VerifyWebhookSignature(payload, ""))

	unkeyed := newTestClient("", "")
	assert.False(t, unkeyed.VerifyWebhookSignature(payload, valid))
}

func TestDomainPromptFallsBackToMedical(t *testing.T) {
	assert.Equal(t, DomainPrompt("medical", "A"), DomainPrompt("unknown-domain", "A"))
	assert.Contains(t, DomainPrompt("legal", "Counsel"), "Counsel")
}
