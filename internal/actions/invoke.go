package actions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/worldskandi/call-companion-ai/pkg/logger"
)

// CallContext is what the bridge knows about the call independent of tool arguments.
type CallContext struct {
	IDs         IDs
	LeadName    string
	LeadEmail   string
	LeadPhone   string
	CompanyName string
}

// toolArgs is the union of arguments the language model may pass to any tool.
type toolArgs struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
	Note        string `json:"note"`
}

var ErrNotATool = errors.New("actions: not invokable as a tool")

// Invoke dispatches a tool call by name. Unknown names and undecodable
// arguments yield the failure sentence like any other failed action.
// end_call is not accepted here; it belongs to the call lifecycle.
func (b *Bridge) Invoke(ctx context.Context, tool string, args json.RawMessage, cc CallContext) Result {
	kind := Kind(strings.TrimSpace(tool))
	switch {
	case !Known(kind):
		return b.reject(ctx, Request{Kind: kind, IDs: cc.IDs}, failed(ErrUnknownKind))
	case kind == EndCall:
		return b.reject(ctx, Request{Kind: kind, IDs: cc.IDs}, failed(ErrNotATool))
	}

	var a toolArgs
	if len(strings.TrimSpace(string(args))) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return b.reject(ctx, Request{Kind: kind, IDs: cc.IDs}, failed(err))
		}
	}
	return b.Do(ctx, requestFromTool(kind, a, cc))
}

func (b *Bridge) reject(ctx context.Context, req Request, res Result) Result {
	logger.From(ctx).Warn("tool call rejected", "tool", string(req.Kind), "err", res.Err)
	if b.recorder != nil {
		b.recorder.RecordAction(ctx, req, res)
	}
	return res
}

// requestFromTool fills gaps in the model's arguments from what the call already knows.
func requestFromTool(kind Kind, a toolArgs, cc CallContext) Request {
	to := a.To
	if to == "" && kind == SendEmail {
		to = cc.LeadEmail
	}
	email := a.Email
	if email == "" && kind == SendMeetingLinkEmail {
		email = cc.LeadEmail
	}
	phone := a.PhoneNumber
	if phone == "" && kind == SendMeetingLinkSMS {
		phone = cc.LeadPhone
	}
	return Request{
		Kind:        kind,
		IDs:         cc.IDs,
		LeadName:    cc.LeadName,
		CompanyName: cc.CompanyName,
		To:          to,
		Subject:     a.Subject,
		Body:        a.Body,
		Email:       email,
		PhoneNumber: phone,
		Date:        a.Date,
		Time:        a.Time,
		Status:      a.Status,
		Notes:       a.Notes,
		Note:        a.Note,
	}
}
