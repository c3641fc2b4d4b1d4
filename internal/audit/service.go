package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. Append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records call and action outcomes. Callers treat it as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Room == "" || e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) LogCallStarted(ctx context.Context, ref CallRef, outbound bool) error {
	msg := "inbound call started"
	if outbound {
		msg = "outbound call started"
	}
	return s.Append(ctx, refEvent(ref, EventTypeCallStarted, msg))
}

func (s *Service) LogCallEnded(ctx context.Context, ref CallRef, outcome, metadata string) error {
	e := refEvent(ref, EventTypeCallEnded, outcome)
	e.Metadata = metadata
	return s.Append(ctx, e)
}

func (s *Service) LogDialFailed(ctx context.Context, ref CallRef, reason string) error {
	return s.Append(ctx, refEvent(ref, EventTypeDialFailed, reason))
}

// LogAction records one Action Bridge outcome.
func (s *Service) LogAction(ctx context.Context, ref CallRef, action string, ok bool, detail string) error {
	t := EventTypeActionSucceeded
	if !ok {
		t = EventTypeActionFailed
	}
	e := refEvent(ref, t, detail)
	e.Action = action
	return s.Append(ctx, e)
}

func refEvent(ref CallRef, t EventType, msg string) Event {
	return Event{
		Type:       t,
		Room:       ref.Room,
		CallLogID:  ref.CallLogID,
		LeadID:     ref.LeadID,
		CampaignID: ref.CampaignID,
		Message:    msg,
	}
}
