package actions

import (
	"errors"
	"strings"
)

// Kind names one remote side effect. The string value doubles as the tool name.
type Kind string

const (
	SendEmail            Kind = "send_email"
	SendMeetingLinkEmail Kind = "send_meeting_link_email"
	SendMeetingLinkSMS   Kind = "send_meeting_link_sms"
	ScheduleCallback     Kind = "schedule_callback"
	UpdateLeadStatus     Kind = "update_lead_status"
	AddNote              Kind = "add_note"
	SaveEmail            Kind = "save_email"
	EndCall              Kind = "end_call"
)

// Remote function paths under the configured base URL.
const (
	pathAgentActions     = "agent-actions"
	pathEndCall          = "end-call"
	pathMeetingLinkEmail = "send-meeting-link-email"
	pathMeetingLinkSMS   = "send-meeting-link-sms"
)

// FailureSentence is spoken whenever a side effect did not go through.
const FailureSentence = "Das hat leider gerade nicht geklappt. Ich sorge dafür, dass sich jemand bei Ihnen meldet."

// LeadStatuses offered to the model for update_lead_status. The backend maps
// anything else to "called", so the bridge forwards unknown values as is.
var LeadStatuses = []string{"interested", "not_interested", "callback", "qualified", "appointment_scheduled", "no_answer"}

var errMissingField = errors.New("actions: missing required field")

type endpoint struct {
	path     string
	validate func(Request) error
	body     func(Request) any
	success  func(Request) string
}

var catalog = map[Kind]endpoint{
	SendEmail: {
		path:     pathAgentActions,
		validate: require(func(r Request) []string { return []string{r.To, r.Subject, r.Body} }),
		body: func(r Request) any {
			return envelope{Action: string(SendEmail), Data: emailData{
				correlation: correlationOf(r), To: r.To, Subject: r.Subject, Body: r.Body,
			}}
		},
		success: func(r Request) string {
			return "Ich habe die E-Mail an " + r.To + " verschickt."
		},
	},
	SendMeetingLinkEmail: {
		path:     pathMeetingLinkEmail,
		validate: require(func(r Request) []string { return []string{r.Email, r.Date, r.Time} }),
		body: func(r Request) any {
			return meetingLinkEmail{
				Email: r.Email, LeadName: r.LeadName, MeetingDate: r.Date, MeetingTime: r.Time,
				CallLogID: r.IDs.CallLogID, CompanyName: r.CompanyName,
			}
		},
		success: func(r Request) string {
			return "Ich habe Ihnen den Meeting-Link für den " + r.Date + " um " + r.Time + " an " + r.Email + " geschickt."
		},
	},
	SendMeetingLinkSMS: {
		path:     pathMeetingLinkSMS,
		validate: require(func(r Request) []string { return []string{r.PhoneNumber, r.Date, r.Time} }),
		body: func(r Request) any {
			return meetingLinkSMS{
				PhoneNumber: r.PhoneNumber, LeadName: r.LeadName, MeetingDate: r.Date, MeetingTime: r.Time,
				CallLogID: r.IDs.CallLogID, CompanyName: r.CompanyName,
			}
		},
		success: func(r Request) string {
			return "Ich habe Ihnen den Meeting-Link für den " + r.Date + " um " + r.Time + " per SMS an " + r.PhoneNumber + " geschickt."
		},
	},
	ScheduleCallback: {
		path:     pathAgentActions,
		validate: require(func(r Request) []string { return []string{r.IDs.LeadID, r.Date, r.Time} }),
		body: func(r Request) any {
			return envelope{Action: string(ScheduleCallback), Data: callbackData{
				correlation: correlationOf(r), Date: r.Date, Time: r.Time, Notes: r.Notes,
			}}
		},
		success: func(r Request) string {
			return "Ich habe den Rückruf für den " + r.Date + " um " + r.Time + " eingetragen."
		},
	},
	UpdateLeadStatus: {
		path:     pathAgentActions,
		validate: require(func(r Request) []string { return []string{r.IDs.LeadID, r.Status} }),
		body: func(r Request) any {
			return envelope{Action: string(UpdateLeadStatus), Data: statusData{
				correlation: correlationOf(r), Status: r.Status, Notes: r.Notes,
			}}
		},
		success: func(Request) string { return "Ich habe den Status aktualisiert." },
	},
	AddNote: {
		path:     pathAgentActions,
		validate: require(func(r Request) []string { return []string{r.Note} }),
		body: func(r Request) any {
			return envelope{Action: string(AddNote), Data: noteData{correlation: correlationOf(r), Note: r.Note}}
		},
		success: func(Request) string { return "Ich habe mir das notiert." },
	},
	SaveEmail: {
		path:     pathAgentActions,
		validate: require(func(r Request) []string { return []string{r.IDs.LeadID, r.Email} }),
		body: func(r Request) any {
			return envelope{Action: string(SaveEmail), Data: saveEmailData{correlation: correlationOf(r), Email: r.Email}}
		},
		success: func(r Request) string {
			return "Ich habe die E-Mail-Adresse " + r.Email + " gespeichert."
		},
	},
	EndCall: {
		path:     pathEndCall,
		validate: require(func(r Request) []string { return []string{r.IDs.CallLogID} }),
		body: func(r Request) any {
			return endCallBody{
				CallLogID:       r.IDs.CallLogID,
				LeadID:          r.IDs.LeadID,
				CampaignID:      r.IDs.CampaignID,
				Transcript:      r.Transcript,
				GenerateSummary: r.GenerateSummary,
				DurationSeconds: r.DurationSeconds,
				Outcome:         r.Outcome,
				Usage:           r.Usage,
			}
		},
		success: func(Request) string { return "Das Gespräch wurde gespeichert." },
	},
}

// Known reports whether k is in the catalog.
func Known(k Kind) bool {
	_, ok := catalog[k]
	return ok
}

func require(fields func(Request) []string) func(Request) error {
	return func(r Request) error {
		for _, f := range fields(r) {
			if strings.TrimSpace(f) == "" {
				return errMissingField
			}
		}
		return nil
	}
}
