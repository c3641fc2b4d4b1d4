package session

import "github.com/worldskandi/call-companion-ai/internal/actions"

// Tool is one function the language model may call.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func object(required []string, props map[string]any) map[string]any {
	return map[string]any{"type": "object", "properties": props, "required": required}
}

// Tools is the fixed catalog registered with the runtime for every call.
func Tools() []Tool {
	date := str("Datum, z. B. 2026-03-02 oder \"morgen\"")
	tm := str("Uhrzeit, z. B. 14:00")
	return []Tool{
		{
			Name:        string(actions.SendEmail),
			Description: "Sendet eine E-Mail an den Gesprächspartner.",
			Parameters: object([]string{"subject", "body"}, map[string]any{
				"to":      str("Empfängeradresse; leer lassen für die bekannte Adresse des Kontakts"),
				"subject": str("Betreff"),
				"body":    str("Inhalt der E-Mail"),
			}),
		},
		{
			Name:        string(actions.SendMeetingLinkEmail),
			Description: "Schickt einen Meeting-Link für einen vereinbarten Termin per E-Mail.",
			Parameters: object([]string{"date", "time"}, map[string]any{
				"email": str("E-Mail-Adresse; leer lassen für die bekannte Adresse des Kontakts"),
				"date":  date,
				"time":  tm,
			}),
		},
		{
			Name:        string(actions.SendMeetingLinkSMS),
			Description: "Schickt einen Meeting-Link für einen vereinbarten Termin per SMS.",
			Parameters: object([]string{"date", "time"}, map[string]any{
				"phone_number": str("Telefonnummer; leer lassen für die bekannte Nummer des Kontakts"),
				"date":         date,
				"time":         tm,
			}),
		},
		{
			Name:        string(actions.ScheduleCallback),
			Description: "Plant einen Rückruf.",
			Parameters: object([]string{"date", "time"}, map[string]any{
				"date":  date,
				"time":  tm,
				"notes": str("Optionale Notiz zum Rückruf"),
			}),
		},
		{
			Name:        string(actions.UpdateLeadStatus),
			Description: "Aktualisiert den Status des Kontakts.",
			Parameters: object([]string{"status"}, map[string]any{
				"status": map[string]any{"type": "string", "enum": actions.LeadStatuses},
				"notes":  str("Optionale Begründung"),
			}),
		},
		{
			Name:        string(actions.AddNote),
			Description: "Hält eine Notiz zum Gespräch fest.",
			Parameters: object([]string{"note"}, map[string]any{
				"note": str("Die Notiz"),
			}),
		},
		{
			Name:        string(actions.SaveEmail),
			Description: "Speichert die bestätigte E-Mail-Adresse des Kontakts.",
			Parameters: object([]string{"email"}, map[string]any{
				"email": str("Die buchstabierte und bestätigte Adresse"),
			}),
		},
		{
			Name:        string(actions.EndCall),
			Description: "Beendet das Gespräch nach einer kurzen Verabschiedung.",
			Parameters: object([]string{}, map[string]any{
				"outcome": str("Ergebnis, z. B. interested, not_interested, callback"),
			}),
		},
	}
}
