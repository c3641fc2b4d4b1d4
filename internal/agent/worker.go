// Package agent is the job entrypoint: one dispatched job becomes one running call.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/worldskandi/call-companion-ai/internal/audit"
	"github.com/worldskandi/call-companion-ai/internal/callmeta"
	"github.com/worldskandi/call-companion-ai/internal/calls"
	"github.com/worldskandi/call-companion-ai/internal/capacity"
	"github.com/worldskandi/call-companion-ai/internal/persona"
	"github.com/worldskandi/call-companion-ai/internal/session"
	"github.com/worldskandi/call-companion-ai/pkg/logger"
)

// Job is one dispatch from the voice runtime. Metadata fields are raw JSON strings, possibly empty.
type Job struct {
	ID           string `json:"id"`
	Room         string `json:"room"`
	JobMetadata  string `json:"job_metadata"`
	RoomMetadata string `json:"room_metadata"`
}

var (
	ErrInvalidJob       = errors.New("agent: job room is required")
	ErrDuplicateJob     = errors.New("agent: job already claimed")
	ErrRoomBusy         = errors.New("agent: room already has a running call")
	ErrOutboundCapacity = errors.New("agent: outbound concurrency limit reached")
	ErrDialFailed       = calls.ErrDialFailed
)

type Deps struct {
	Store     capacity.Store
	Runtime   calls.Runtime
	Telephony calls.Telephony
	Bridge    calls.Bridge
	Audit     *audit.Service
	Registry  *Registry

	ClaimTTL time.Duration
	Clock    func() time.Time
}

type Worker struct {
	deps Deps
}

const releaseTimeout = 5 * time.Second

func NewWorker(d Deps) *Worker {
	if d.Registry == nil {
		d.Registry = NewRegistry()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.ClaimTTL <= 0 {
		d.ClaimTTL = 2 * time.Hour
	}
	return &Worker{deps: d}
}

func (w *Worker) Registry() *Registry { return w.deps.Registry }

// Handle claims the job, resolves metadata once, and starts the call.
// It returns once the call is connected, or with the reason it never was.
func (w *Worker) Handle(ctx context.Context, job Job) (*Active, error) {
	room := strings.TrimSpace(job.Room)
	if room == "" {
		return nil, ErrInvalidJob
	}

	if job.ID != "" && w.deps.Store != nil {
		ok, err := w.deps.Store.ClaimJob(ctx, job.ID, w.deps.ClaimTTL)
		if err != nil {
			return nil, fmt.Errorf("agent: claim job: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateJob
		}
	}

	md := callmeta.Resolve(job.JobMetadata, job.RoomMetadata)
	in := persona.FromMetadata(md)
	outbound := md.Outbound()

	active := &Active{
		attrs: logger.CallAttrs{Room: room, CallLogID: md.CallLogID, LeadID: md.LeadID, Outbound: outbound},
		ref:   audit.CallRef{Room: room, CallLogID: md.CallLogID, LeadID: md.LeadID, CampaignID: md.CampaignID},
	}
	ctx = active.Context(ctx)
	log := logger.From(ctx)
	log.Info("job received", "job_id", job.ID, "metadata_source", md.Source)

	if outbound && w.deps.Store != nil {
		ok, err := w.deps.Store.AcquireOutbound(ctx)
		if err != nil {
			return nil, fmt.Errorf("agent: acquire outbound slot: %w", err)
		}
		if !ok {
			return nil, ErrOutboundCapacity
		}
	}

	active.Call = calls.New(calls.Setup{
		Room:         room,
		Metadata:     md,
		Prompt:       in,
		Instructions: persona.Build(in),
		Session:      session.Configure(md.Persona),
		Tools:        session.Tools(),
	}, calls.Deps{
		Runtime:   w.deps.Runtime,
		Telephony: w.deps.Telephony,
		Bridge:    w.deps.Bridge,
		OnEnded:   w.onEnded(active),
		Clock:     w.deps.Clock,
	})

	if !w.deps.Registry.Add(room, active) {
		w.releaseSlot(ctx, outbound)
		return nil, ErrRoomBusy
	}
	w.record(ctx, func(s *audit.Service) error { return s.LogCallStarted(ctx, active.ref, outbound) })

	if err := active.Call.Start(ctx); err != nil {
		log.Error("call start failed", "err", err)
		if tErr := w.deps.Telephony.Terminate(context.WithoutCancel(ctx), room); tErr != nil {
			log.Warn("room teardown failed", "err", tErr)
		}
		if errors.Is(err, calls.ErrDialFailed) {
			w.record(ctx, func(s *audit.Service) error { return s.LogDialFailed(ctx, active.ref, err.Error()) })
		}
		return nil, err
	}
	return active, nil
}

// onEnded unregisters the call, frees its outbound slot and records the outcome.
func (w *Worker) onEnded(a *Active) func(context.Context, calls.Summary) {
	return func(ctx context.Context, s calls.Summary) {
		w.deps.Registry.Remove(s.Room, a)
		w.releaseSlot(ctx, a.attrs.Outbound)

		log := logger.From(ctx)
		log.Info("call ended", "outcome", s.Outcome, "duration_seconds", s.DurationSeconds, "utterances", s.Utterances)

		if s.Outcome == calls.OutcomeDialFailed {
			return
		}
		meta, err := json.Marshal(map[string]any{
			"duration_seconds": s.DurationSeconds,
			"utterances":       s.Utterances,
			"persisted":        s.Persisted,
			"persist_ok":       s.Persist.OK,
		})
		if err != nil {
			log.Warn("audit metadata encode failed", "err", err)
		}
		w.record(ctx, func(svc *audit.Service) error {
			return svc.LogCallEnded(ctx, a.ref, s.Outcome, string(meta))
		})
	}
}

func (w *Worker) releaseSlot(ctx context.Context, outbound bool) {
	if !outbound || w.deps.Store == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := w.deps.Store.ReleaseOutbound(rctx); err != nil {
		logger.From(ctx).Warn("outbound slot release failed", "err", err)
	}
}

// record is best-effort; failures are logged and never fail the call.
func (w *Worker) record(ctx context.Context, fn func(*audit.Service) error) {
	if w.deps.Audit == nil {
		return
	}
	if err := fn(w.deps.Audit); err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
}
