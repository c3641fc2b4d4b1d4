package telephony

import (
	"context"
	"errors"
	"testing"

	"github.com/livekit/protocol/livekit"
)

type fakeSIP struct {
	got *livekit.CreateSIPParticipantRequest
	err error
}

func (f *fakeSIP) CreateSIPParticipant(_ context.Context, req *livekit.CreateSIPParticipantRequest) (*livekit.SIPParticipantInfo, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &livekit.SIPParticipantInfo{ParticipantIdentity: req.ParticipantIdentity, SipCallId: "SCL_1"}, nil
}

type fakeRooms struct {
	deleted []string
	err     error
}

func (f *fakeRooms) DeleteRoom(_ context.Context, req *livekit.DeleteRoomRequest) (*livekit.DeleteRoomResponse, error) {
	f.deleted = append(f.deleted, req.Room)
	return &livekit.DeleteRoomResponse{}, f.err
}

func TestLiveKit_DialBuildsRequest(t *testing.T) {
	sip := &fakeSIP{}
	p := &LiveKit{trunkID: "ST_trunk", sip: sip, rooms: &fakeRooms{}}

	res, err := p.Dial(context.Background(), DialRequest{Room: "call-1", PhoneNumber: " +491701234567 "})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if sip.got.SipTrunkId != "ST_trunk" || sip.got.SipCallTo != "+491701234567" || sip.got.RoomName != "call-1" {
		t.Fatalf("unexpected request %+v", sip.got)
	}
	if !sip.got.WaitUntilAnswered {
		t.Fatalf("expected wait-until-answered")
	}
	if res.ParticipantIdentity != "sip_+491701234567" || res.ProviderCallID != "SCL_1" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLiveKit_DialErrors(t *testing.T) {
	p := &LiveKit{trunkID: "ST", sip: &fakeSIP{err: errors.New("486 busy")}, rooms: &fakeRooms{}}
	if _, err := p.Dial(context.Background(), DialRequest{Room: "r", PhoneNumber: "+49"}); err == nil {
		t.Fatalf("expected dial error")
	}
	if _, err := p.Dial(context.Background(), DialRequest{Room: "r"}); !errors.Is(err, ErrInvalidDial) {
		t.Fatalf("expected ErrInvalidDial, got %v", err)
	}
}

func TestLiveKit_Terminate(t *testing.T) {
	rooms := &fakeRooms{}
	p := &LiveKit{rooms: rooms}
	if err := p.Terminate(context.Background(), "call-1"); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if len(rooms.deleted) != 1 || rooms.deleted[0] != "call-1" {
		t.Fatalf("unexpected deletes %v", rooms.deleted)
	}
	if err := p.Terminate(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty room")
	}
}
