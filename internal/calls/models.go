package calls

import (
	"errors"
	"strings"
	"time"

	"github.com/worldskandi/call-companion-ai/internal/actions"
)

// State of one call. Ended is terminal.
type State string

const (
	StateIdle      State = "idle"
	StateConnected State = "connected"
	StateEnded     State = "ended"
)

// Outcomes reported to end-call persistence.
const (
	OutcomeCompleted       = "completed"
	OutcomeParticipantLeft = "participant_left"
	OutcomeDialFailed      = "dial_failed"
	OutcomeSessionFailed   = "session_failed"
)

var (
	ErrCallEnded      = errors.New("calls: call has ended")
	ErrNotConnected   = errors.New("calls: call is not connected")
	ErrAlreadyStarted = errors.New("calls: call already started")
	ErrDialFailed     = errors.New("calls: dial-out failed")
)

// Entry is one utterance in the transcript.
type Entry struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// TranscriptLog only grows. Entries are never edited after append.
type TranscriptLog struct {
	entries []Entry
}

func (l *TranscriptLog) Append(speaker, text string, at time.Time) {
	l.entries = append(l.entries, Entry{Speaker: speaker, Text: text, At: at})
}

func (l TranscriptLog) Len() int { return len(l.entries) }

func (l TranscriptLog) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Render is the "Speaker: text" form stored by the backend, one utterance per line.
func (l TranscriptLog) Render() string {
	var b strings.Builder
	for i, e := range l.entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Speaker)
		b.WriteString(": ")
		b.WriteString(e.Text)
	}
	return b.String()
}

// UsageStats accumulates while the assistant speaks.
type UsageStats struct {
	Characters  int
	TTSProvider string
	VoiceID     string
	LLMProvider string
	LLMModel    string
	STTModel    string
}

func (u UsageStats) Snapshot() *actions.Usage {
	return &actions.Usage{
		Characters:  u.Characters,
		TTSProvider: u.TTSProvider,
		VoiceID:     u.VoiceID,
		LLMProvider: u.LLMProvider,
		LLMModel:    u.LLMModel,
		STTModel:    u.STTModel,
	}
}

// Labels name the two speakers in the transcript.
type Labels struct {
	Lead      string
	Assistant string
}
