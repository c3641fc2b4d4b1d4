package telephony

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

type sipAPI interface {
	CreateSIPParticipant(ctx context.Context, req *livekit.CreateSIPParticipantRequest) (*livekit.SIPParticipantInfo, error)
}

type roomAPI interface {
	DeleteRoom(ctx context.Context, req *livekit.DeleteRoomRequest) (*livekit.DeleteRoomResponse, error)
}

// LiveKit dials through a LiveKit SIP outbound trunk and tears calls down by deleting the room.
type LiveKit struct {
	trunkID string
	sip     sipAPI
	rooms   roomAPI
}

type LiveKitConfig struct {
	URL             string
	APIKey          string
	APISecret       string
	OutboundTrunkID string
}

func NewLiveKit(cfg LiveKitConfig) *LiveKit {
	return &LiveKit{
		trunkID: cfg.OutboundTrunkID,
		sip:     lksdk.NewSIPClient(cfg.URL, cfg.APIKey, cfg.APISecret),
		rooms:   lksdk.NewRoomServiceClient(cfg.URL, cfg.APIKey, cfg.APISecret),
	}
}

var ErrInvalidDial = errors.New("telephony: room and phone number are required")

func (p *LiveKit) Name() string { return "livekit" }

// Dial blocks until the callee answers. One attempt, no retry.
func (p *LiveKit) Dial(ctx context.Context, req DialRequest) (DialResult, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if req.Room == "" || phone == "" {
		return DialResult{}, ErrInvalidDial
	}
	identity := req.ParticipantIdentity
	if identity == "" {
		identity = "sip_" + phone
	}
	name := req.ParticipantName
	if name == "" {
		name = phone
	}

	info, err := p.sip.CreateSIPParticipant(ctx, &livekit.CreateSIPParticipantRequest{
		SipTrunkId:          p.trunkID,
		SipCallTo:           phone,
		RoomName:            req.Room,
		ParticipantIdentity: identity,
		ParticipantName:     name,
		WaitUntilAnswered:   true,
	})
	if err != nil {
		return DialResult{}, fmt.Errorf("telephony: create sip participant: %w", err)
	}

	res := DialResult{ParticipantIdentity: identity}
	if info != nil {
		res.ParticipantIdentity = info.GetParticipantIdentity()
		res.ProviderCallID = info.GetSipCallId()
	}
	return res, nil
}

func (p *LiveKit) Terminate(ctx context.Context, room string) error {
	if room == "" {
		return errors.New("telephony: room is required")
	}
	if _, err := p.rooms.DeleteRoom(ctx, &livekit.DeleteRoomRequest{Room: room}); err != nil {
		return fmt.Errorf("telephony: delete room %s: %w", room, err)
	}
	return nil
}
