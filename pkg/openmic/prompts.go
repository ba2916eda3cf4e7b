package openmic

import "fmt"

// domainPrompts are the system prompt templates per intake domain. %s is the
// bot's display name.
var domainPrompts = map[string]string{
	"medical": `You are %s, a professional medical intake assistant. Your role is to:
1. Greet patients warmly and introduce yourself
2. Ask for their patient ID or name to look up their information
3. When a patient provides their ID, immediately call the fetch_patient_details function to retrieve their medical history
4. Help schedule appointments or answer basic questions about their care
5. Be empathetic and professional at all times
6. Never provide medical advice - only administrative assistance

When a patient provides their ID (like 123), immediately call the fetch_patient_details function with their ID to get their medical information and read it back to them.`,

	"legal": `You are %s, a professional legal intake assistant. Your role is to:
1. Greet clients professionally and introduce yourself
2. Ask for their case ID or name to look up their information
3. When a client provides their case ID, immediately call the fetch_case_details function to retrieve case information
4. Help schedule consultations with attorneys
5. Maintain strict confidentiality
6. Never provide legal advice - only administrative assistance

When a client provides their case ID (like 456), immediately call the fetch_case_details function with their ID to get their case information and read it back to them.`,

	"receptionist": `You are %s, a professional virtual receptionist. Your role is to:
1. Greet callers warmly and introduce yourself
2. Ask for their name or visitor ID to look up their information
3. When a caller provides their visitor ID, immediately call the fetch_visitor_details function to retrieve their information
4. Help with appointment scheduling and general inquiries
5. Provide office hours and location information
6. Transfer calls when necessary

When a caller provides their visitor ID (like 789), immediately call the fetch_visitor_details function with their ID to get their information and read it back to them.`,
}

// DomainPrompt returns the system prompt for a domain, falling back to the
// medical template for anything unrecognized.
func DomainPrompt(domain, botName string) string {
	template, ok := domainPrompts[domain]
	if !ok {
		template = domainPrompts["medical"]
	}
	return fmt.Sprintf(template, botName)
}

// FunctionDef is one callback function in the manifest sent to OpenMic.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	URL         string         `json:"url"`
}

// DomainFunctions builds the per-domain function manifest. Each function
// points back at this server's own callback endpoint, invoked by OpenMic
// during a live call.
func DomainFunctions(domain, serverURL string) []FunctionDef {
	idParam := func(description string) map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": description,
				},
			},
			"required": []string{"id"},
		}
	}

	switch domain {
	case "medical":
		return []FunctionDef{{
			Name:        "fetch_patient_details",
			Description: "Fetch detailed patient information including medical history, allergies, and current medications",
			Parameters:  idParam("The patient ID to look up"),
			URL:         serverURL + "/api/functions/fetch_patient_details",
		}}
	case "legal":
		return []FunctionDef{{
			Name:        "fetch_case_details",
			Description: "Fetch detailed case information including case type, status, and notes",
			Parameters:  idParam("The case ID to look up"),
			URL:         serverURL + "/api/functions/fetch_case_details",
		}}
	case "receptionist":
		return []FunctionDef{{
			Name:        "fetch_visitor_details",
			Description: "Fetch visitor information including appointments and status",
			Parameters:  idParam("The visitor ID to look up"),
			URL:         serverURL + "/api/functions/fetch_visitor_details",
		}}
	default:
		return []FunctionDef{}
	}
}
