// Package persona renders the instruction text handed to the language model.
//
// Build is pure: identical inputs give byte-identical output, and every section
// is always emitted with a literal fallback in place of a missing value.
package persona

import (
	"strings"

	"github.com/worldskandi/call-companion-ai/internal/callmeta"
)

// Fallbacks for absent fields. The product speaks German.
const (
	DefaultName        = "Alex"
	DefaultCompany     = "unserem Unternehmen"
	DefaultPersonality = "Freundlich, professionell und lösungsorientiert. Du hörst aktiv zu und gehst auf Fragen und Einwände ein."
	DefaultGoal        = "Interesse wecken und bei Interesse einen Folgetermin vereinbaren."
	DefaultProduct     = "Keine Produktbeschreibung hinterlegt."
	Unknown            = "Unbekannt"
	None               = "Keine"
	NotSpecified       = "Nicht angegeben"
)

const speechRules = `## Sprechweise
- Antworte kurz und natürlich, höchstens zwei bis drei Sätze am Stück.
- Sprich ausschließlich Deutsch.
- Sei freundlich und respektiere die Zeit deines Gesprächspartners, sei niemals aufdringlich.
- Wenn jemand kein Interesse hat, bedanke dich höflich und beende das Gespräch.
- Lass dir E-Mail-Adressen buchstabieren und wiederhole sie zur Bestätigung, bevor du sie verwendest.
- Nutze die verfügbaren Werkzeuge für E-Mails, Termine, Rückrufe, Status und Notizen und teile das Ergebnis mit.
- Beende das Gespräch mit dem Werkzeug end_call, sobald alles geklärt ist.`

// Lead holds what is known about the person on the line.
type Lead struct {
	Name    string
	Company string
	Email   string
	Notes   string
}

// Purpose describes why the call happens.
type Purpose struct {
	CampaignName       string
	ProductDescription string
	CallGoal           string
	TargetGroup        string
}

type Input struct {
	Persona callmeta.AiPersonaSettings
	Lead    Lead
	Purpose Purpose
}

func FromMetadata(m callmeta.CallMetadata) Input {
	return Input{
		Persona: m.Persona,
		Lead: Lead{
			Name:    m.LeadName,
			Company: m.LeadCompany,
			Email:   m.LeadEmail,
			Notes:   m.LeadNotes,
		},
		Purpose: Purpose{
			CampaignName:       m.CampaignName,
			ProductDescription: m.ProductDescription,
			CallGoal:           m.CallGoal,
			TargetGroup:        m.TargetGroup,
		},
	}
}

// Build renders the full instruction text. Section order is fixed; the custom
// prompt is appended last and never replaces the structured sections.
func Build(in Input) string {
	name := or(in.Persona.Name, DefaultName)
	company := or(in.Persona.CompanyName, DefaultCompany)

	var b strings.Builder
	b.WriteString("Du bist " + name + ", ein KI-Telefonassistent von " + company + ".\n\n")

	b.WriteString(speechRules)
	b.WriteString("\n\n")

	b.WriteString("## Persönlichkeit\n")
	b.WriteString(or(in.Persona.Personality, DefaultPersonality))
	b.WriteString("\n\n")

	b.WriteString("## Begrüßung\n")
	b.WriteString("Beginne das Gespräch sinngemäß mit: \"" + Greeting(in) + "\"\n\n")

	b.WriteString("## Gesprächspartner\n")
	b.WriteString("- Name: " + or(in.Lead.Name, Unknown) + "\n")
	b.WriteString("- Firma: " + or(in.Lead.Company, Unknown) + "\n")
	b.WriteString("- E-Mail: " + or(in.Lead.Email, Unknown) + "\n")
	b.WriteString("- Notizen: " + or(in.Lead.Notes, None) + "\n\n")

	b.WriteString("## Produkt und Ziel\n")
	b.WriteString("- Kampagne: " + or(in.Purpose.CampaignName, None) + "\n")
	b.WriteString("- Produkt: " + or(in.Purpose.ProductDescription, DefaultProduct) + "\n")
	b.WriteString("- Gesprächsziel: " + or(in.Purpose.CallGoal, DefaultGoal) + "\n")
	b.WriteString("- Zielgruppe: " + or(in.Purpose.TargetGroup, NotSpecified) + "\n\n")

	b.WriteString("## Zusätzliche Anweisungen\n")
	if strings.TrimSpace(in.Persona.CustomPrompt) != "" {
		b.WriteString(in.Persona.CustomPrompt)
	} else {
		b.WriteString(None)
	}
	return b.String()
}

// Greeting is the configured opening line, or one built from name and company.
func Greeting(in Input) string {
	if g := strings.TrimSpace(in.Persona.Greeting); g != "" {
		return g
	}
	name := or(in.Persona.Name, DefaultName)
	if c := strings.TrimSpace(in.Persona.CompanyName); c != "" {
		return "Hallo! Hier ist " + name + " von " + c + ". Haben Sie kurz Zeit für ein Gespräch?"
	}
	return "Hallo! Hier ist " + name + ". Haben Sie kurz Zeit für ein Gespräch?"
}

// GreetingInstructions is the one-shot directive issued when an inbound call connects.
func GreetingInstructions(in Input) string {
	var b strings.Builder
	b.WriteString("Begrüße den Anrufer freundlich und stelle dich kurz vor.")
	lead := strings.TrimSpace(in.Lead.Name)
	company := strings.TrimSpace(in.Lead.Company)
	switch {
	case lead != "" && company != "":
		b.WriteString(" Sprich " + lead + " von " + company + " mit Namen an.")
	case lead != "":
		b.WriteString(" Sprich " + lead + " mit Namen an.")
	case company != "":
		b.WriteString(" Der Anrufer gehört zu " + company + ".")
	}
	b.WriteString(" Orientiere dich an: \"" + Greeting(in) + "\"")
	return b.String()
}

// FarewellInstructions is the directive spoken right before an explicit hang-up.
func FarewellInstructions(in Input) string {
	lead := strings.TrimSpace(in.Lead.Name)
	if lead == "" {
		return "Verabschiede dich kurz und freundlich und bedanke dich für das Gespräch."
	}
	return "Verabschiede dich kurz und freundlich von " + lead + " und bedanke dich für das Gespräch."
}

func or(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
