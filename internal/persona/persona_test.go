package persona

import (
	"strings"
	"testing"

	"github.com/worldskandi/call-companion-ai/internal/callmeta"
)

const goldenEmpty = `Du bist Alex, ein KI-Telefonassistent von unserem Unternehmen.

## Sprechweise
- Antworte kurz und natürlich, höchstens zwei bis drei Sätze am Stück.
- Sprich ausschließlich Deutsch.
- Sei freundlich und respektiere die Zeit deines Gesprächspartners, sei niemals aufdringlich.
- Wenn jemand kein Interesse hat, bedanke dich höflich und beende das Gespräch.
- Lass dir E-Mail-Adressen buchstabieren und wiederhole sie zur Bestätigung, bevor du sie verwendest.
- Nutze die verfügbaren Werkzeuge für E-Mails, Termine, Rückrufe, Status und Notizen und teile das Ergebnis mit.
- Beende das Gespräch mit dem Werkzeug end_call, sobald alles geklärt ist.

## Persönlichkeit
Freundlich, professionell und lösungsorientiert. Du hörst aktiv zu und gehst auf Fragen und Einwände ein.

## Begrüßung
Beginne das Gespräch sinngemäß mit: "Hallo! Hier ist Alex. Haben Sie kurz Zeit für ein Gespräch?"

## Gesprächspartner
- Name: Unbekannt
- Firma: Unbekannt
- E-Mail: Unbekannt
- Notizen: Keine

## Produkt und Ziel
- Kampagne: Keine
- Produkt: Keine Produktbeschreibung hinterlegt.
- Gesprächsziel: Interesse wecken und bei Interesse einen Folgetermin vereinbaren.
- Zielgruppe: Nicht angegeben

## Zusätzliche Anweisungen
Keine`

func TestBuild_GoldenEmpty(t *testing.T) {
	got := Build(Input{})
	if got != goldenEmpty {
		t.Fatalf("golden mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, goldenEmpty)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	in := FromMetadata(callmeta.Resolve(`{
		"lead_name":"Anna","lead_company":"Acme","lead_notes":"Rückruf erwünscht",
		"campaign_name":"Herbst","product_description":"CRM","call_goal":"Demo",
		"ai_prompt":{"aiName":"Lisa","companyName":"Vertrieb GmbH","customPrompt":"Siezen."}}`, ""))
	a, b := Build(in), Build(in)
	if a != b {
		t.Fatalf("expected byte-identical output")
	}
}

func TestBuild_SectionsAndValues(t *testing.T) {
	in := Input{
		Persona: callmeta.AiPersonaSettings{
			Name:         "Lisa",
			CompanyName:  "Vertrieb GmbH",
			Personality:  "Ruhig.",
			Greeting:     "Guten Tag!",
			CustomPrompt: "  Siezen.\n",
		},
		Lead:    Lead{Name: "Anna", Company: "Acme", Email: "anna@acme.de"},
		Purpose: Purpose{CampaignName: "Herbst", ProductDescription: "CRM", CallGoal: "Demo", TargetGroup: "KMU"},
	}
	got := Build(in)

	wantInOrder := []string{
		"Du bist Lisa, ein KI-Telefonassistent von Vertrieb GmbH.",
		"## Sprechweise",
		"## Persönlichkeit\nRuhig.",
		"## Begrüßung\nBeginne das Gespräch sinngemäß mit: \"Guten Tag!\"",
		"- Name: Anna\n- Firma: Acme\n- E-Mail: anna@acme.de\n- Notizen: Keine",
		"- Kampagne: Herbst\n- Produkt: CRM\n- Gesprächsziel: Demo\n- Zielgruppe: KMU",
		"## Zusätzliche Anweisungen\n  Siezen.\n",
	}
	pos := 0
	for _, w := range wantInOrder {
		i := strings.Index(got[pos:], w)
		if i < 0 {
			t.Fatalf("expected %q after offset %d in:\n%s", w, pos, got)
		}
		pos += i + len(w)
	}
}

func TestBuild_CustomPromptAppendsNeverReplaces(t *testing.T) {
	got := Build(Input{Persona: callmeta.AiPersonaSettings{CustomPrompt: "Du bist ein Pirat."}})
	if !strings.Contains(got, "## Gesprächspartner") || !strings.HasSuffix(got, "Du bist ein Pirat.") {
		t.Fatalf("expected structured sections plus trailing custom prompt, got:\n%s", got)
	}
}

func TestGreeting_Fallbacks(t *testing.T) {
	if g := Greeting(Input{Persona: callmeta.AiPersonaSettings{Name: "Lisa", CompanyName: "Acme"}}); g != "Hallo! Hier ist Lisa von Acme. Haben Sie kurz Zeit für ein Gespräch?" {
		t.Fatalf("unexpected greeting %q", g)
	}
	if g := Greeting(Input{Persona: callmeta.AiPersonaSettings{Greeting: " Moin! "}}); g != "Moin!" {
		t.Fatalf("unexpected greeting %q", g)
	}
}

func TestGreetingInstructions_ReferencesLead(t *testing.T) {
	in := FromMetadata(callmeta.Resolve(`{"phone_number":null,"lead_name":"Anna","lead_company":"Acme"}`, ""))
	got := GreetingInstructions(in)
	if !strings.Contains(got, "Anna") || !strings.Contains(got, "Acme") {
		t.Fatalf("expected lead and company in greeting, got %q", got)
	}
}

func TestFarewellInstructions(t *testing.T) {
	if got := FarewellInstructions(Input{Lead: Lead{Name: "Anna"}}); !strings.Contains(got, "Anna") {
		t.Fatalf("expected lead name in farewell, got %q", got)
	}
	if got := FarewellInstructions(Input{}); got == "" {
		t.Fatalf("expected generic farewell")
	}
}
