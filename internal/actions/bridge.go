// Package actions turns conversation side effects into single POSTs against the
// backend's functions and maps each outcome to a sentence the assistant can speak.
package actions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/worldskandi/call-companion-ai/pkg/logger"
	"github.com/worldskandi/call-companion-ai/pkg/utils"
)

// IDs correlate a request with the backend's lead, call log and campaign records.
type IDs struct {
	LeadID     string
	CallLogID  string
	CampaignID string
}

// Usage is the synthesis and provider summary attached to end-of-call persistence.
type Usage struct {
	Characters  int    `json:"characters"`
	TTSProvider string `json:"tts_provider"`
	VoiceID     string `json:"voice_id"`
	LLMProvider string `json:"llm_provider"`
	LLMModel    string `json:"llm_model"`
	STTModel    string `json:"stt_model"`
}

// Request carries the fields any kind may need; each kind reads only its own.
type Request struct {
	Kind Kind
	IDs  IDs

	LeadName    string
	CompanyName string

	To      string
	Subject string
	Body    string

	Email       string
	PhoneNumber string
	Date        string
	Time        string

	Status string
	Notes  string
	Note   string

	Transcript      string
	GenerateSummary bool
	DurationSeconds int
	Outcome         string
	Usage           *Usage
}

// Result is what the conversation sees. Err is kept for logs and audit only.
type Result struct {
	OK       bool
	Sentence string
	Err      error
}

// Recorder observes every outcome (audit trail). Implementations must not block.
type Recorder interface {
	RecordAction(ctx context.Context, req Request, res Result)
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// HTTPClient overrides the default client; Timeout still applies when it has none.
	HTTPClient *http.Client
	Recorder   Recorder
}

type Bridge struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	recorder Recorder
}

func NewBridge(opts Options) *Bridge {
	client := &http.Client{}
	if opts.HTTPClient != nil {
		cp := *opts.HTTPClient
		client = &cp
	}
	if client.Timeout == 0 {
		client.Timeout = opts.Timeout
	}
	if client.Timeout <= 0 {
		client.Timeout = 30 * time.Second
	}
	return &Bridge{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		client:   client,
		recorder: opts.Recorder,
	}
}

var (
	ErrUnknownKind   = errors.New("actions: unknown kind")
	ErrRemoteFailure = errors.New("actions: remote reported failure")
)

// Do performs exactly one attempt. It never returns a transport error to the
// caller; failures come back as FailureSentence with Err set.
func (b *Bridge) Do(ctx context.Context, req Request) Result {
	res := b.do(ctx, req)
	if !res.OK {
		logger.From(ctx).Warn("action failed", "action", string(req.Kind), "err", res.Err)
	}
	if b.recorder != nil {
		b.recorder.RecordAction(ctx, req, res)
	}
	return res
}

func (b *Bridge) do(ctx context.Context, req Request) Result {
	s, ok := catalog[req.Kind]
	if !ok {
		return failed(ErrUnknownKind)
	}
	if err := s.validate(req); err != nil {
		return failed(err)
	}

	var out reply
	if err := utils.PostJSON(ctx, b.client, b.baseURL+"/"+s.path, b.apiKey, s.body(req), &out); err != nil {
		return failed(err)
	}
	if !out.Success {
		if out.Error != "" {
			return failed(errors.Join(ErrRemoteFailure, errors.New(out.Error)))
		}
		return failed(ErrRemoteFailure)
	}
	return Result{OK: true, Sentence: s.success(req)}
}

func failed(err error) Result {
	return Result{Sentence: FailureSentence, Err: err}
}
