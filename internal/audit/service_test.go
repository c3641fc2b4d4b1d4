package audit

import (
	"context"
	"testing"
	"time"
)

func TestService_AppendRequiresRoomAndType(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{Type: EventTypeCallStarted}); err == nil {
		t.Fatalf("expected error without room")
	}
	if err := svc.Append(context.Background(), Event{Room: "r"}); err == nil {
		t.Fatalf("expected error without type")
	}
}

func TestService_StampsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	if err := svc.LogCallStarted(context.Background(), CallRef{Room: "call-1", LeadID: "l1"}, true); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].ID == "" || !evs[0].CreatedAt.Equal(fixed) {
		t.Fatalf("expected id and clock time, got %+v", evs[0])
	}
	if evs[0].Message != "outbound call started" || evs[0].LeadID != "l1" {
		t.Fatalf("unexpected event %+v", evs[0])
	}
}

func TestService_LogActionTypes(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ref := CallRef{Room: "call-1"}

	_ = svc.LogAction(context.Background(), ref, "send_email", true, "")
	_ = svc.LogAction(context.Background(), ref, "add_note", false, "http status 500")

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].Type != EventTypeActionSucceeded || evs[0].Action != "send_email" {
		t.Fatalf("unexpected first event %+v", evs[0])
	}
	if evs[1].Type != EventTypeActionFailed || evs[1].Message != "http status 500" {
		t.Fatalf("unexpected second event %+v", evs[1])
	}
}

func TestRefFrom(t *testing.T) {
	if _, ok := RefFrom(context.Background()); ok {
		t.Fatalf("expected no ref")
	}
	ctx := WithRef(context.Background(), CallRef{Room: "call-1", CallLogID: "cl"})
	ref, ok := RefFrom(ctx)
	if !ok || ref.CallLogID != "cl" {
		t.Fatalf("unexpected ref %+v ok=%v", ref, ok)
	}
}

func TestMemoryRepo_ForRoom(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_ = svc.LogCallStarted(ctx, CallRef{Room: "call-1"}, false)
	_ = svc.LogCallStarted(ctx, CallRef{Room: "call-2"}, true)
	_ = svc.LogCallEnded(ctx, CallRef{Room: "call-1"}, "completed", "")

	evs := repo.ForRoom("call-1")
	if len(evs) != 2 || evs[0].Type != EventTypeCallStarted || evs[1].Type != EventTypeCallEnded {
		t.Fatalf("unexpected call-1 events %+v", evs)
	}
	if len(repo.ForRoom("call-3")) != 0 {
		t.Fatalf("expected no events for unknown room")
	}
	if len(repo.Events()) != 3 {
		t.Fatalf("expected 3 events total")
	}
}
