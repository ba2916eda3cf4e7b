package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/code-100-precent/IntakeDesk/internal/models"
	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"github.com/code-100-precent/IntakeDesk/pkg/openmic"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// In-call function callbacks. OpenMic invokes these mid-conversation when the
// bot decides to look something up; the voice pipeline stalls on a non-2xx, so
// every path answers 200 with a speakable result string, falling back to a
// canned record when the request is unreadable.

// extractRecordID digs the record id out of whichever envelope OpenMic used
// for the invocation: top-level under several names, or nested under
// arguments/parameters.
func extractRecordID(body []byte, aliases []string, fallback string) string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return fallback
	}
	for _, key := range aliases {
		if value := cast.ToString(raw[key]); value != "" {
			return value
		}
	}
	for _, envelope := range []string{"arguments", "parameters"} {
		if nested, ok := raw[envelope].(map[string]any); ok {
			if value := cast.ToString(nested["id"]); value != "" {
				return value
			}
		}
	}
	return fallback
}

func functionResult(c *gin.Context, result string, data map[string]any) {
	c.JSON(200, gin.H{
		"success": true,
		"result":  result,
		"data":    data,
	})
}

func joinOr(value any, fallback string) string {
	items := cast.ToStringSlice(value)
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// FetchPatientDetails serves the medical bot's in-call lookup.
func (h *Handlers) FetchPatientDetails(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		body = nil
	}
	id := extractRecordID(body, []string{"id", "patient_id", "patientId"}, "123")
	logger.Info("fetch_patient_details invoked", zap.String("id", id))

	details := openmic.GenerateFetchDetails(id, models.DomainMedical)
	result := fmt.Sprintf("Found patient %s (ID: %s). Medical history: %s. Current medications: %s. Notes: %s",
		cast.ToString(details["name"]),
		cast.ToString(details["id"]),
		joinOr(details["allergies"], "No known allergies"),
		joinOr(details["medications"], "None"),
		cast.ToString(details["notes"]),
	)
	functionResult(c, result, details)
}

// FetchCaseDetails serves the legal bot's in-call lookup.
func (h *Handlers) FetchCaseDetails(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		body = nil
	}
	id := extractRecordID(body, []string{"id", "case_id", "caseId"}, "456")
	logger.Info("fetch_case_details invoked", zap.String("id", id))

	details := openmic.GenerateFetchDetails(id, models.DomainLegal)
	result := fmt.Sprintf("Found case for %s (Case ID: %s). Case type: %s. Status: %s. Notes: %s",
		cast.ToString(details["name"]),
		cast.ToString(details["id"]),
		joinOr(details["cases"], "General legal matter"),
		cast.ToString(details["status"]),
		cast.ToString(details["notes"]),
	)
	functionResult(c, result, details)
}

// FetchVisitorDetails serves the receptionist bot's in-call lookup.
func (h *Handlers) FetchVisitorDetails(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		body = nil
	}
	id := extractRecordID(body, []string{"id", "visitor_id", "visitorId"}, "789")
	logger.Info("fetch_visitor_details invoked", zap.String("id", id))

	details := openmic.GenerateFetchDetails(id, models.DomainReceptionist)
	result := fmt.Sprintf("Found visitor %s (Visitor ID: %s). Appointments: %s. Status: %s. Notes: %s",
		cast.ToString(details["name"]),
		cast.ToString(details["id"]),
		joinOr(details["appointments"], "No scheduled appointments"),
		cast.ToString(details["status"]),
		cast.ToString(details["notes"]),
	)
	functionResult(c, result, details)
}
