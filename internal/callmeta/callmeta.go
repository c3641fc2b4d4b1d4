// Package callmeta resolves the per-call parameters handed to a job by the host.
//
// Two JSON sources may be present: job-scoped metadata and room-scoped metadata.
// Job metadata wins when it decodes to a non-empty object; otherwise room metadata
// is used; otherwise the result is empty. Malformed input never produces an error.
package callmeta

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Source string

const (
	SourceJob  Source = "job"
	SourceRoom Source = "room"
	SourceNone Source = "none"
)

// AiPersonaSettings is the optional persona blob carried in ai_prompt.
type AiPersonaSettings struct {
	Name         string
	Greeting     string
	Personality  string
	CompanyName  string
	CustomPrompt string
	Voice        string
	LLMProvider  string
}

// CallMetadata is resolved once per call and treated as immutable afterwards.
type CallMetadata struct {
	PhoneNumber string

	LeadID      string
	LeadName    string
	LeadCompany string
	LeadEmail   string
	LeadPhone   string
	LeadNotes   string

	CampaignID         string
	CampaignName       string
	ProductDescription string
	CallGoal           string
	TargetGroup        string

	CallLogID string
	UserID    string

	Persona AiPersonaSettings
	Source  Source
}

// Outbound reports whether the call must be dialed out. It depends only on the phone number.
func (m CallMetadata) Outbound() bool {
	return strings.TrimSpace(m.PhoneNumber) != ""
}

type fields map[string]json.RawMessage

func Resolve(jobMetadata, roomMetadata string) CallMetadata {
	src := SourceNone
	f := parseObject(jobMetadata)
	if len(f) > 0 {
		src = SourceJob
	} else if f = parseObject(roomMetadata); len(f) > 0 {
		src = SourceRoom
	}

	m := CallMetadata{
		PhoneNumber:        f.str("phone_number"),
		LeadID:             f.str("lead_id"),
		LeadName:           f.str("lead_name"),
		LeadCompany:        f.str("lead_company"),
		LeadEmail:          f.str("lead_email"),
		LeadPhone:          f.str("lead_phone"),
		LeadNotes:          f.str("lead_notes"),
		CampaignID:         f.str("campaign_id"),
		CampaignName:       f.str("campaign_name"),
		ProductDescription: f.str("product_description"),
		CallGoal:           f.str("call_goal"),
		TargetGroup:        f.str("target_group"),
		CallLogID:          f.str("call_log_id"),
		UserID:             f.str("user_id"),
		Source:             src,
	}
	m.Persona = parsePersona(f["ai_prompt"])
	return m
}

// parseObject returns nil for empty input, invalid JSON or any non-object value.
func parseObject(raw string) fields {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var f fields
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil
	}
	return f
}

// str renders scalars as text; null, objects and arrays become "".
func (f fields) str(key string) string {
	raw := bytes.TrimSpace(f[key])
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		// numbers and booleans keep their literal spelling
		return string(raw)
	}
}

// parsePersona accepts an object, a string holding an object, or free text.
// Free text (or anything that fails to decode) becomes the custom prompt verbatim.
func parsePersona(raw json.RawMessage) AiPersonaSettings {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return AiPersonaSettings{}
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return AiPersonaSettings{}
		}
		if obj := parseObject(s); obj != nil {
			return personaFrom(obj)
		}
		return AiPersonaSettings{CustomPrompt: s}
	}

	var obj fields
	if err := json.Unmarshal(raw, &obj); err != nil {
		return AiPersonaSettings{CustomPrompt: string(raw)}
	}
	return personaFrom(obj)
}

// personaFrom reads top-level persona keys, then lets a nested aiSettings
// object override them field by field.
func personaFrom(obj fields) AiPersonaSettings {
	p := personaKeys(obj)

	nested := obj.nested("aiSettings")
	if nested == nil {
		return p
	}
	n := personaKeys(nested)
	override(&p.Name, n.Name)
	override(&p.Greeting, n.Greeting)
	override(&p.Personality, n.Personality)
	override(&p.CompanyName, n.CompanyName)
	override(&p.CustomPrompt, n.CustomPrompt)
	override(&p.Voice, n.Voice)
	override(&p.LLMProvider, n.LLMProvider)
	return p
}

func personaKeys(f fields) AiPersonaSettings {
	return AiPersonaSettings{
		Name:         f.str("aiName"),
		Greeting:     f.str("aiGreeting"),
		Personality:  f.str("aiPersonality"),
		CompanyName:  f.str("companyName"),
		CustomPrompt: f.str("customPrompt"),
		Voice:        f.str("aiVoice"),
		LLMProvider:  f.str("llmProvider"),
	}
}

// nested decodes key as an object, also when it arrives as a JSON-encoded string.
func (f fields) nested(key string) fields {
	raw := bytes.TrimSpace(f[key])
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		return parseObject(f.str(key))
	}
	var out fields
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func override(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}
