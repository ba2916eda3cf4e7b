package openmic

import (
	"time"

	"github.com/spf13/cast"
)

// GeneratePreCallData produces the demo record handed to OpenMic before a call
// connects. A real deployment would look this up in a clinical, legal or
// visitor system; these are placeholders wired the same way.
func GeneratePreCallData(domain string, metadata map[string]any) map[string]any {
	pick := func(key, fallback string) string {
		if metadata != nil {
			if value := cast.ToString(metadata[key]); value != "" {
				return value
			}
		}
		return fallback
	}

	switch domain {
	case "medical":
		age := 35
		if metadata != nil {
			if v := cast.ToInt(metadata["age"]); v > 0 {
				age = v
			}
		}
		return map[string]any{
			"patientId": pick("patientId", "123"),
			"name":      pick("name", "John Smith"),
			"age":       age,
			"lastVisit": pick("lastVisit", time.Now().Format("2006-01-02")),
			"summary":   pick("summary", "Regular checkup"),
		}
	case "legal":
		return map[string]any{
			"clientId": pick("clientId", "456"),
			"name":     pick("name", "Mary Johnson"),
			"caseType": pick("caseType", "Contract case"),
			"priority": pick("priority", "Medium"),
		}
	case "receptionist":
		return map[string]any{
			"visitorId":   pick("visitorId", "789"),
			"name":        pick("name", "Tom Wilson"),
			"appointment": pick("appointment", "Walk-in"),
			"purpose":     pick("purpose", "Meeting"),
		}
	default:
		return map[string]any{}
	}
}

// GenerateFetchDetails produces the demo record returned from the per-domain
// function callbacks.
func GenerateFetchDetails(id, domain string) map[string]any {
	switch domain {
	case "medical":
		return map[string]any{
			"id":          id,
			"name":        "John Smith",
			"allergies":   []string{"None"},
			"medications": []string{"Aspirin"},
			"notes":       "Regular checkup needed",
		}
	case "legal":
		return map[string]any{
			"id":     id,
			"name":   "Mary Johnson",
			"cases":  []string{"Contract case"},
			"status": "Active",
			"notes":  "Meeting scheduled",
		}
	case "receptionist":
		return map[string]any{
			"id":           id,
			"name":         "Tom Wilson",
			"appointments": []string{"Today 2 PM"},
			"status":       "Confirmed",
			"notes":        "First visit",
		}
	default:
		return map[string]any{"id": id}
	}
}
