package actions

// agent-actions wraps every payload in {"action", "data"}.
type envelope struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

type correlation struct {
	LeadID    string `json:"lead_id"`
	CallLogID string `json:"call_log_id"`
}

func correlationOf(r Request) correlation {
	return correlation{LeadID: r.IDs.LeadID, CallLogID: r.IDs.CallLogID}
}

type emailData struct {
	correlation
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type callbackData struct {
	correlation
	Date  string `json:"date"`
	Time  string `json:"time"`
	Notes string `json:"notes"`
}

type statusData struct {
	correlation
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type noteData struct {
	correlation
	Note string `json:"note"`
}

type saveEmailData struct {
	correlation
	Email string `json:"email"`
}

type meetingLinkEmail struct {
	Email       string `json:"email"`
	LeadName    string `json:"lead_name"`
	MeetingDate string `json:"meeting_date"`
	MeetingTime string `json:"meeting_time"`
	CallLogID   string `json:"call_log_id"`
	CompanyName string `json:"company_name"`
}

type meetingLinkSMS struct {
	PhoneNumber string `json:"phone_number"`
	LeadName    string `json:"lead_name"`
	MeetingDate string `json:"meeting_date"`
	MeetingTime string `json:"meeting_time"`
	CallLogID   string `json:"call_log_id"`
	CompanyName string `json:"company_name"`
}

type endCallBody struct {
	CallLogID       string `json:"call_log_id"`
	LeadID          string `json:"lead_id"`
	CampaignID      string `json:"campaign_id"`
	Transcript      string `json:"transcript"`
	GenerateSummary bool   `json:"generate_summary"`
	DurationSeconds int    `json:"duration_seconds"`
	Outcome         string `json:"outcome"`
	Usage           *Usage `json:"usage,omitempty"`
}

// reply is the shape every remote function answers with. A missing success
// field (error-only replies) decodes as false.
type reply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
