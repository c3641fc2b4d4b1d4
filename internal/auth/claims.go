package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Subject names the calling process (dispatcher or runtime worker).
// Room, when set, limits a token to the callbacks of one call.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
	Room string `json:"room,omitempty"`
}
