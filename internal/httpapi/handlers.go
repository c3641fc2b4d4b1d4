package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worldskandi/call-companion-ai/internal/agent"
	"github.com/worldskandi/call-companion-ai/internal/calls"
	"github.com/worldskandi/call-companion-ai/internal/rbac"
	"github.com/worldskandi/call-companion-ai/pkg/logger"
)

type Dispatcher interface {
	Handle(ctx context.Context, job agent.Job) (*agent.Active, error)
}

type CallLookup interface {
	Get(room string) (*agent.Active, bool)
}

// TokenIssuer mints the room-scoped token the runtime presents on callbacks.
type TokenIssuer interface {
	Issue(now time.Time, subject, role, room string) (string, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Jobs   Dispatcher
	Calls  CallLookup
	Tokens TokenIssuer

	// Ready reports whether backing stores are reachable. Optional.
	Ready func(ctx context.Context) error
}

func (h Handlers) Health(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready(c.Request.Context()); err != nil {
			logger.FromGin(c).Warn("readiness check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Jobs ---

// DispatchJob starts a call and answers once it is connected. Outbound jobs
// therefore block until the callee picks up or the dial fails.
func (h Handlers) DispatchJob(c *gin.Context) {
	if h.Jobs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dispatcher not configured"})
		return
	}
	var job agent.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	a, err := h.Jobs.Handle(c.Request.Context(), job)
	if err != nil {
		status := jobErrorStatus(err)
		if status >= 500 {
			_ = c.Error(err)
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{
		"room":     a.Call.Room(),
		"outbound": a.Call.Outbound(),
		"state":    a.Call.State(),
	}
	if h.Tokens != nil {
		subject := job.ID
		if subject == "" {
			subject = a.Call.Room()
		}
		tok, err := h.Tokens.Issue(time.Now(), subject, rbac.RoleRuntime, a.Call.Room())
		if err != nil {
			// The call is running; the runtime can still use a fleet token.
			_ = c.Error(err)
		} else {
			resp["callback_token"] = tok
		}
	}
	c.JSON(http.StatusCreated, resp)
}

func jobErrorStatus(err error) int {
	switch {
	case errors.Is(err, agent.ErrInvalidJob):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrDuplicateJob), errors.Is(err, agent.ErrRoomBusy):
		return http.StatusConflict
	case errors.Is(err, agent.ErrOutboundCapacity):
		return http.StatusServiceUnavailable
	case errors.Is(err, agent.ErrDialFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// --- Call callbacks ---

type transcriptRequest struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

type speechRequest struct {
	Text string `json:"text"`
}

type participantLeftRequest struct {
	Identity string `json:"identity"`
}

func (h Handlers) UserTranscript(c *gin.Context) {
	a, ok := h.active(c)
	if !ok {
		return
	}
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := a.Call.OnUserTranscript(req.Text, req.Final); err != nil {
		abortCallError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) AgentSpeech(c *gin.Context) {
	a, ok := h.active(c)
	if !ok {
		return
	}
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := a.Call.OnAgentSpeech(req.Text); err != nil {
		abortCallError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ParticipantLeft(c *gin.Context) {
	a, ok := h.active(c)
	if !ok {
		return
	}
	var req participantLeftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := a.Call.OnParticipantLeft(a.Context(c.Request.Context()), req.Identity); err != nil {
		abortCallError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// InvokeTool passes the raw argument object to the call. The response is what
// the assistant should say; a failed action is still a 200.
func (h Handlers) InvokeTool(c *gin.Context) {
	a, ok := h.active(c)
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	var args json.RawMessage
	if len(raw) > 0 {
		if !json.Valid(raw) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		args = raw
	}

	res, err := a.Call.InvokeTool(a.Context(c.Request.Context()), c.Param("tool"), args)
	if err != nil {
		abortCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": res.OK, "sentence": res.Sentence})
}

func (h Handlers) active(c *gin.Context) (*agent.Active, bool) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call registry not configured"})
		return nil, false
	}
	room := c.Param("room")
	a, ok := h.Calls.Get(room)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no running call for room"})
		return nil, false
	}
	return a, true
}

func abortCallError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calls.ErrCallEnded):
		c.AbortWithStatusJSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, calls.ErrNotConnected):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
