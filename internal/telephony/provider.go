package telephony

import "context"

// Provider is the telephony boundary used by the call lifecycle.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Request types stay provider-agnostic.
type Provider interface {
	Name() string

	// Dial places one outbound call into a room and returns once it is answered.
	Dial(ctx context.Context, req DialRequest) (DialResult, error)

	// Terminate tears down the room and every participant in it.
	Terminate(ctx context.Context, room string) error
}

type DialRequest struct {
	Room string `json:"room"`

	// PhoneNumber is the destination in E.164.
	PhoneNumber string `json:"phone_number"`

	// ParticipantIdentity defaults to "sip_" + PhoneNumber.
	ParticipantIdentity string `json:"participant_identity,omitempty"`
	ParticipantName     string `json:"participant_name,omitempty"`
}

type DialResult struct {
	ParticipantIdentity string `json:"participant_identity"`
	ProviderCallID      string `json:"provider_call_id,omitempty"`
}
