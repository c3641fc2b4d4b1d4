// Package calls runs the lifecycle of one voice call: Idle, then Connected, then Ended.
//
// Callbacks from the voice runtime arrive as separate HTTP requests, so Call
// serializes them with a mutex. The lock is never held across remote calls.
package calls

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/worldskandi/call-companion-ai/internal/actions"
	"github.com/worldskandi/call-companion-ai/internal/callmeta"
	"github.com/worldskandi/call-companion-ai/internal/persona"
	"github.com/worldskandi/call-companion-ai/internal/runtime"
	"github.com/worldskandi/call-companion-ai/internal/session"
	"github.com/worldskandi/call-companion-ai/internal/telephony"
	"github.com/worldskandi/call-companion-ai/pkg/logger"
)

type Runtime interface {
	StartSession(ctx context.Context, req runtime.StartRequest) error
	GenerateReply(ctx context.Context, room, instructions string) error
	Close(ctx context.Context, room string) error
}

type Telephony interface {
	Dial(ctx context.Context, req telephony.DialRequest) (telephony.DialResult, error)
	Terminate(ctx context.Context, room string) error
}

type Bridge interface {
	Do(ctx context.Context, req actions.Request) actions.Result
	Invoke(ctx context.Context, tool string, args json.RawMessage, cc actions.CallContext) actions.Result
}

// Setup is everything resolved before the call starts.
type Setup struct {
	Room         string
	Metadata     callmeta.CallMetadata
	Prompt       persona.Input
	Instructions string
	Session      session.Options
	Tools        []session.Tool
}

// Summary is handed to OnEnded once the call reaches Ended.
type Summary struct {
	Room            string
	Outcome         string
	DurationSeconds int
	Utterances      int
	Persisted       bool
	Persist         actions.Result
}

type Deps struct {
	Runtime   Runtime
	Telephony Telephony
	Bridge    Bridge

	// OnEnded runs exactly once, after persistence (if any) finished.
	OnEnded func(ctx context.Context, s Summary)

	Clock func() time.Time
}

const detachedPersistTimeout = 45 * time.Second

type Call struct {
	setup  Setup
	deps   Deps
	labels Labels

	mu         sync.Mutex
	state      State
	busy       bool // a Start or EndCall is in flight
	leftDuring string // identity that left while Start was in flight
	transcript TranscriptLog
	usage      UsageStats
	startedAt  time.Time

	detached sync.WaitGroup
}

func New(setup Setup, deps Deps) *Call {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Call{
		setup: setup,
		deps:  deps,
		labels: Labels{
			Lead:      labelOr(setup.Metadata.LeadName, "Kunde"),
			Assistant: labelOr(setup.Metadata.Persona.Name, persona.DefaultName),
		},
		state: StateIdle,
		usage: UsageStats{
			TTSProvider: setup.Session.TTS.Provider,
			VoiceID:     setup.Session.TTS.VoiceID,
			LLMProvider: setup.Session.LLM.Provider,
			LLMModel:    setup.Session.LLM.Model,
			STTModel:    setup.Session.STT.Model,
		},
	}
}

func (c *Call) Room() string { return c.setup.Room }

func (c *Call) Outbound() bool { return c.setup.Metadata.Outbound() }

func (c *Call) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Call) Transcript() TranscriptLog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TranscriptLog{entries: c.transcript.Entries()}
}

func (c *Call) Usage() UsageStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// Start dials out first when the call is outbound, then starts the assistant
// session. Inbound calls get exactly one greeting. A dial failure ends the call
// without starting a session; the caller owns room teardown.
func (c *Call) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle || c.busy {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.busy = true
	c.mu.Unlock()

	log := logger.From(ctx)
	md := c.setup.Metadata

	if md.Outbound() {
		res, err := c.deps.Telephony.Dial(ctx, telephony.DialRequest{
			Room:            c.setup.Room,
			PhoneNumber:     md.PhoneNumber,
			ParticipantName: md.LeadName,
		})
		if err != nil {
			c.finish(ctx, Summary{Room: c.setup.Room, Outcome: OutcomeDialFailed})
			return fmt.Errorf("%w: %v", ErrDialFailed, err)
		}
		log.Info("outbound call answered", "participant", res.ParticipantIdentity)
	}

	err := c.deps.Runtime.StartSession(ctx, runtime.StartRequest{
		Room:         c.setup.Room,
		Instructions: c.setup.Instructions,
		Options:      c.setup.Session,
		Tools:        c.setup.Tools,
		Outbound:     md.Outbound(),
	})
	if err != nil {
		c.finish(ctx, Summary{Room: c.setup.Room, Outcome: OutcomeSessionFailed})
		return err
	}

	c.mu.Lock()
	c.state = StateConnected
	c.busy = false
	c.startedAt = c.deps.Clock()
	left := c.leftDuring
	c.mu.Unlock()

	if left != "" {
		c.leave(ctx, left)
		return nil
	}

	if !md.Outbound() {
		if err := c.deps.Runtime.GenerateReply(ctx, c.setup.Room, persona.GreetingInstructions(c.setup.Prompt)); err != nil {
			log.Warn("greeting failed", "err", err)
		}
	}
	return nil
}

// OnUserTranscript records a finalized utterance of the lead. Interim results are ignored.
func (c *Call) OnUserTranscript(text string, final bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.acceptingLocked(); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if !final || text == "" {
		return nil
	}
	c.transcript.Append(c.labels.Lead, text, c.deps.Clock())
	return nil
}

// OnAgentSpeech records a committed assistant utterance and counts its characters.
func (c *Call) OnAgentSpeech(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.acceptingLocked(); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	c.transcript.Append(c.labels.Assistant, text, c.deps.Clock())
	c.usage.Characters += utf8.RuneCountInString(text)
	return nil
}

// InvokeTool runs one tool call from the conversation. end_call ends the call;
// everything else goes through the Action Bridge.
func (c *Call) InvokeTool(ctx context.Context, tool string, args json.RawMessage) (actions.Result, error) {
	c.mu.Lock()
	err := c.acceptingLocked()
	c.mu.Unlock()
	if err != nil {
		return actions.Result{}, err
	}
	if actions.Kind(strings.TrimSpace(tool)) == actions.EndCall {
		var a struct {
			Outcome string `json:"outcome"`
		}
		if len(args) > 0 {
			_ = json.Unmarshal(args, &a)
		}
		return c.EndCall(ctx, a.Outcome)
	}
	return c.deps.Bridge.Invoke(ctx, tool, args, c.callContext()), nil
}

// EndCall says goodbye, persists transcript and usage once, then tears the transport down.
func (c *Call) EndCall(ctx context.Context, outcome string) (actions.Result, error) {
	c.mu.Lock()
	if err := c.acceptingLocked(); err != nil {
		c.mu.Unlock()
		return actions.Result{}, err
	}
	if c.busy {
		c.mu.Unlock()
		return actions.Result{}, ErrCallEnded
	}
	c.busy = true
	c.mu.Unlock()

	log := logger.From(ctx)
	if err := c.deps.Runtime.GenerateReply(ctx, c.setup.Room, persona.FarewellInstructions(c.setup.Prompt)); err != nil {
		log.Warn("farewell failed", "err", err)
	}

	if strings.TrimSpace(outcome) == "" {
		outcome = OutcomeCompleted
	}
	req, sum, ok := c.end(outcome)
	if !ok {
		return actions.Result{}, ErrCallEnded
	}

	res := c.deps.Bridge.Do(ctx, req)
	sum.Persisted, sum.Persist = true, res

	if err := c.deps.Runtime.Close(ctx, c.setup.Room); err != nil {
		log.Warn("runtime close failed", "err", err)
	}
	if err := c.deps.Telephony.Terminate(ctx, c.setup.Room); err != nil {
		log.Warn("room teardown failed", "err", err)
	}
	c.finish(ctx, sum)
	return res, nil
}

// OnParticipantLeft persists in the background without a farewell. The
// returned error only reports state; persistence failures are logged.
// A departure during Start is held until the session is up.
func (c *Call) OnParticipantLeft(ctx context.Context, identity string) error {
	if identity == "" {
		identity = "unknown"
	}
	c.mu.Lock()
	switch {
	case c.state == StateEnded:
		c.mu.Unlock()
		return ErrCallEnded
	case c.state == StateIdle && c.busy:
		if c.leftDuring == "" {
			c.leftDuring = identity
		}
		c.mu.Unlock()
		return nil
	case c.state == StateIdle:
		c.mu.Unlock()
		return ErrNotConnected
	case c.busy:
		// EndCall owns the outcome.
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if !c.leave(ctx, identity) {
		return ErrCallEnded
	}
	return nil
}

// leave ends a connected call as participant_left and persists detached.
func (c *Call) leave(ctx context.Context, identity string) bool {
	req, sum, ok := c.end(OutcomeParticipantLeft)
	if !ok {
		return false
	}

	logger.From(ctx).Info("participant left", "participant", identity)
	detached := context.WithoutCancel(ctx)
	c.detached.Add(1)
	go func() {
		defer c.detached.Done()
		pctx, cancel := context.WithTimeout(detached, detachedPersistTimeout)
		defer cancel()
		sum.Persisted, sum.Persist = true, c.deps.Bridge.Do(pctx, req)
		c.finish(pctx, sum)
	}()
	return true
}

// Wait blocks until background persistence has finished.
func (c *Call) Wait() { c.detached.Wait() }

// end moves Connected to Ended and snapshots what must be persisted.
// It reports false when another path got there first.
func (c *Call) end(outcome string) (actions.Request, Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected {
		return actions.Request{}, Summary{}, false
	}
	c.state = StateEnded

	dur := int(c.deps.Clock().Sub(c.startedAt).Seconds())
	if dur < 0 {
		dur = 0
	}
	transcript := c.transcript.Render()
	req := actions.Request{
		Kind:            actions.EndCall,
		IDs:             c.ids(),
		Transcript:      transcript,
		GenerateSummary: transcript != "",
		DurationSeconds: dur,
		Outcome:         outcome,
		Usage:           c.usage.Snapshot(),
	}
	sum := Summary{
		Room:            c.setup.Room,
		Outcome:         outcome,
		DurationSeconds: dur,
		Utterances:      c.transcript.Len(),
	}
	return req, sum, true
}

func (c *Call) finish(ctx context.Context, s Summary) {
	c.mu.Lock()
	c.state = StateEnded
	c.busy = false
	c.mu.Unlock()
	if c.deps.OnEnded != nil {
		c.deps.OnEnded(ctx, s)
	}
}

func (c *Call) acceptingLocked() error {
	switch c.state {
	case StateEnded:
		return ErrCallEnded
	case StateIdle:
		return ErrNotConnected
	}
	return nil
}

func (c *Call) ids() actions.IDs {
	md := c.setup.Metadata
	return actions.IDs{LeadID: md.LeadID, CallLogID: md.CallLogID, CampaignID: md.CampaignID}
}

func (c *Call) callContext() actions.CallContext {
	md := c.setup.Metadata
	return actions.CallContext{
		IDs:         c.ids(),
		LeadName:    md.LeadName,
		LeadEmail:   md.LeadEmail,
		LeadPhone:   firstNonEmpty(md.LeadPhone, md.PhoneNumber),
		CompanyName: firstNonEmpty(md.Persona.CompanyName, md.LeadCompany),
	}
}

func labelOr(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
