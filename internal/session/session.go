// Package session picks the hosted providers for one call from the persona settings.
// Unknown voice or provider names fall back to defaults silently.
package session

import (
	"strings"

	"github.com/worldskandi/call-companion-ai/internal/callmeta"
)

type TTS struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Language  string `json:"language"`
	VoiceName string `json:"voice_name"`
	VoiceID   string `json:"voice_id"`
}

type STT struct {
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Language string   `json:"language"`
	Keywords []string `json:"keywords"`
}

type LLM struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// Options is everything the voice runtime needs besides instructions and tools.
type Options struct {
	TTS TTS `json:"tts"`
	STT STT `json:"stt"`
	LLM LLM `json:"llm"`
}

const (
	DefaultVoice       = "viktoria"
	DefaultLLMProvider = "openai"

	ttsProvider = "cartesia"
	ttsModel    = "sonic-2"
	sttProvider = "deepgram"
	sttModel    = "nova-3"
	language    = "de"
	temperature = 0.8
)

var voices = map[string]string{
	"viktoria":  "b9de4a89-2257-424b-94c2-db18ba68c81a",
	"alina":     "38aabb6a-f52b-4fb0-a3d1-988518f4dc06",
	"sebastian": "b7187e84-fe22-4344-ba4a-bc013fcb533e",
	"thomas":    "384b625b-da5d-49e8-a76d-a2855d4f31eb",
}

var llms = map[string]LLM{
	"openai":      {Provider: "openai", Model: "gpt-4o"},
	"openai-mini": {Provider: "openai", Model: "gpt-4o-mini"},
	"gemini":      {Provider: "google", Model: "gemini-2.0-flash"},
	"grok":        {Provider: "xai", Model: "grok-3"},
	"xai":         {Provider: "xai", Model: "grok-3"},
	"xai-mini":    {Provider: "xai", Model: "grok-3-mini"},
}

// keywords boost recognition of spelled-out email addresses. Always sent as is.
var keywords = []string{
	"Anton", "Berta", "Cäsar", "Dora", "Emil", "Friedrich", "Gustav", "Heinrich", "Ida",
	"Julius", "Kaufmann", "Ludwig", "Martha", "Nordpol", "Otto", "Paula", "Quelle",
	"Richard", "Samuel", "Theodor", "Ulrich", "Viktor", "Wilhelm", "Xanthippe",
	"Ypsilon", "Zacharias",
	"at", "ät", "Klammeraffe", "Punkt", "Bindestrich", "Unterstrich",
	"gmail", "gmx", "web.de", "t-online", "outlook", "hotmail", "yahoo",
}

// Configure never fails; every lookup has a default.
func Configure(p callmeta.AiPersonaSettings) Options {
	voiceName, voiceID := Voice(p.Voice)
	llm := Model(p.LLMProvider)
	llm.Temperature = temperature

	return Options{
		TTS: TTS{
			Provider:  ttsProvider,
			Model:     ttsModel,
			Language:  language,
			VoiceName: voiceName,
			VoiceID:   voiceID,
		},
		STT: STT{
			Provider: sttProvider,
			Model:    sttModel,
			Language: language,
			Keywords: Keywords(),
		},
		LLM: llm,
	}
}

// Voice resolves a voice name case-insensitively, returning the name actually used and its id.
func Voice(name string) (string, string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := voices[key]; ok {
		return key, id
	}
	return DefaultVoice, voices[DefaultVoice]
}

// Model resolves a provider name case-insensitively.
func Model(provider string) LLM {
	key := strings.ToLower(strings.TrimSpace(provider))
	if m, ok := llms[key]; ok {
		return m
	}
	return llms[DefaultLLMProvider]
}

// Keywords returns a copy of the recognition boost list.
func Keywords() []string {
	out := make([]string, len(keywords))
	copy(out, keywords)
	return out
}
