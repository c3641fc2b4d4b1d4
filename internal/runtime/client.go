// Package runtime drives the host voice runtime through its control API.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/worldskandi/call-companion-ai/internal/session"
	"github.com/worldskandi/call-companion-ai/pkg/utils"
)

// StartRequest asks the runtime to join a room and run one assistant session.
type StartRequest struct {
	Room         string          `json:"room"`
	Instructions string          `json:"instructions"`
	Options      session.Options `json:"options"`
	Tools        []session.Tool  `json:"tools"`

	// Outbound sessions wait for the dialed party to speak first.
	Outbound bool `json:"outbound"`
}

type replyRequest struct {
	Instructions string `json:"instructions"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

const defaultTimeout = 30 * time.Second

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

func (c *Client) StartSession(ctx context.Context, req StartRequest) error {
	if err := utils.PostJSON(ctx, c.http, c.baseURL+"/v1/sessions", c.apiKey, req, nil); err != nil {
		return fmt.Errorf("runtime: start session %s: %w", req.Room, err)
	}
	return nil
}

// GenerateReply makes the assistant speak once, steered by instructions.
func (c *Client) GenerateReply(ctx context.Context, room, instructions string) error {
	if err := utils.PostJSON(ctx, c.http, c.sessionURL(room, "reply"), c.apiKey, replyRequest{Instructions: instructions}, nil); err != nil {
		return fmt.Errorf("runtime: generate reply %s: %w", room, err)
	}
	return nil
}

func (c *Client) Close(ctx context.Context, room string) error {
	if err := utils.PostJSON(ctx, c.http, c.sessionURL(room, "close"), c.apiKey, struct{}{}, nil); err != nil {
		return fmt.Errorf("runtime: close %s: %w", room, err)
	}
	return nil
}

func (c *Client) sessionURL(room, op string) string {
	return c.baseURL + "/v1/sessions/" + url.PathEscape(room) + "/" + op
}
