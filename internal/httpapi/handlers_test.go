package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worldskandi/call-companion-ai/internal/actions"
	"github.com/worldskandi/call-companion-ai/internal/agent"
	"github.com/worldskandi/call-companion-ai/internal/auth"
	"github.com/worldskandi/call-companion-ai/internal/capacity"
	"github.com/worldskandi/call-companion-ai/internal/config"
	"github.com/worldskandi/call-companion-ai/internal/rbac"
	"github.com/worldskandi/call-companion-ai/internal/runtime"
	"github.com/worldskandi/call-companion-ai/internal/telephony"
)

type stubRuntime struct{}

func (stubRuntime) StartSession(context.Context, runtime.StartRequest) error { return nil }
func (stubRuntime) GenerateReply(context.Context, string, string) error { return nil }
func (stubRuntime) Close(context.Context, string) error { return nil }

type stubTelephony struct{ dialErr error }

func (s stubTelephony) Dial(context.Context, telephony.DialRequest) (telephony.DialResult, error) {
	return telephony.DialResult{}, s.dialErr
}
func (stubTelephony) Terminate(context.Context, string) error { return nil }

type stubBridge struct {
	lastTool string
	lastArgs json.RawMessage
}

func (b *stubBridge) Do(context.Context, actions.Request) actions.Result {
	return actions.Result{OK: true, Sentence: "gespeichert"}
}

func (b *stubBridge) Invoke(_ context.Context, tool string, args json.RawMessage, _ actions.CallContext) actions.Result {
	b.lastTool, b.lastArgs = tool, args
	return actions.Result{OK: false, Sentence: actions.FailureSentence}
}

func newRouter(tel stubTelephony, bridge *stubBridge) (*gin.Engine, *agent.Worker) {
	gin.SetMode(gin.TestMode)
	w := agent.NewWorker(agent.Deps{
		Store:     capacity.NewMemoryStore(1),
		Runtime:   stubRuntime{},
		Telephony: tel,
		Bridge:    bridge,
	})
	h := Handlers{Jobs: w, Calls: w.Registry()}

	r := gin.New()
	r.GET("/healthz", h.Health)
	r.POST("/v1/jobs", h.DispatchJob)
	rooms := r.Group("/v1/calls/:room")
	rooms.POST("/transcripts", h.UserTranscript)
	rooms.POST("/speech", h.AgentSpeech)
	rooms.POST("/participant-left", h.ParticipantLeft)
	rooms.POST("/tools/:tool", h.InvokeTool)
	return r, w
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestDispatchJob_StatusMapping(t *testing.T) {
	r, _ := newRouter(stubTelephony{}, &stubBridge{})

	if w := post(r, "/v1/jobs", `{"id":"j1","room":"call-1"}`); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := post(r, "/v1/jobs", `{"id":"j1","room":"call-9"}`); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate job, got %d", w.Code)
	}
	if w := post(r, "/v1/jobs", `{"id":"j2"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without room, got %d", w.Code)
	}
	if w := post(r, "/v1/jobs", `not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", w.Code)
	}
}

func TestDispatchJob_DialFailureIsBadGateway(t *testing.T) {
	r, w := newRouter(stubTelephony{dialErr: errors.New("486 busy")}, &stubBridge{})
	body := `{"id":"j1","room":"call-1","job_metadata":"{\"phone_number\":\"+4917012\"}"}`
	if rec := post(r, "/v1/jobs", body); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	if w.Registry().Len() != 0 {
		t.Fatalf("failed dial must not leave a registered call")
	}
}

func TestCallbacks(t *testing.T) {
	bridge := &stubBridge{}
	r, w := newRouter(stubTelephony{}, bridge)
	if rec := post(r, "/v1/jobs", `{"room":"call-1","room_metadata":"{\"lead_name\":\"Anna\"}"}`); rec.Code != http.StatusCreated {
		t.Fatalf("dispatch: %d", rec.Code)
	}

	if rec := post(r, "/v1/calls/call-1/transcripts", `{"text":"Hallo","final":true}`); rec.Code != http.StatusNoContent {
		t.Fatalf("transcript: %d", rec.Code)
	}
	if rec := post(r, "/v1/calls/call-1/speech", `{"text":"Guten Tag"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("speech: %d", rec.Code)
	}
	a, _ := w.Registry().Get("call-1")
	if got := a.Call.Transcript().Render(); got != "Anna: Hallo\nAlex: Guten Tag" {
		t.Fatalf("unexpected transcript %q", got)
	}

	rec := post(r, "/v1/calls/call-1/tools/add_note", `{"note":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("tool: %d", rec.Code)
	}
	var out struct {
		Success  bool   `json:"success"`
		Sentence string `json:"sentence"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Success || out.Sentence != actions.FailureSentence || bridge.lastTool != "add_note" {
		t.Fatalf("unexpected tool response %+v (tool %q)", out, bridge.lastTool)
	}

	if rec := post(r, "/v1/calls/call-2/speech", `{"text":"x"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown room, got %d", rec.Code)
	}

	if rec := post(r, "/v1/calls/call-1/tools/end_call", `{"outcome":"interested"}`); rec.Code != http.StatusOK {
		t.Fatalf("end_call: %d", rec.Code)
	}
	if rec := post(r, "/v1/calls/call-1/transcripts", `{"text":"zu spät","final":true}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after end, got %d", rec.Code)
	}
}

func TestInvokeTool_RejectsInvalidJSON(t *testing.T) {
	r, _ := newRouter(stubTelephony{}, &stubBridge{})
	post(r, "/v1/jobs", `{"room":"call-1"}`)
	if rec := post(r, "/v1/calls/call-1/tools/add_note", `{broken`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ok", Handlers{}.Health)
	r.GET("/down", Handlers{Ready: func(context.Context) error { return errors.New("pg down") }}.Health)

	for path, want := range map[string]int{"/ok": 200, "/down": 503} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, w.Code)
		}
	}
}

func TestDispatchJob_ReturnsRoomScopedCallbackToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	w := agent.NewWorker(agent.Deps{
		Store:     capacity.NewMemoryStore(1),
		Runtime:   stubRuntime{},
		Telephony: stubTelephony{},
		Bridge:    &stubBridge{},
	})
	h := Handlers{Jobs: w, Calls: w.Registry(), Tokens: m}

	r := gin.New()
	r.POST("/v1/jobs", h.DispatchJob)
	rooms := r.Group("/v1/calls/:room", auth.RequireToken(m), rbac.RequireAnyRole(rbac.RoleRuntime), rbac.RequireRoom("room"))
	rooms.POST("/speech", h.AgentSpeech)

	rec := post(r, "/v1/jobs", `{"id":"j1","room":"call-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("dispatch: %d", rec.Code)
	}
	var out struct {
		CallbackToken string `json:"callback_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.CallbackToken == "" {
		t.Fatalf("expected callback token, got %s (err %v)", rec.Body.String(), err)
	}
	claims, err := m.Verify(out.CallbackToken, time.Now())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "j1" || claims.Role != rbac.RoleRuntime || claims.Room != "call-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if w.Registry().Len() != 1 {
		t.Fatalf("expected running call")
	}
	if _, err := w.Handle(context.Background(), agent.Job{Room: "call-2"}); err != nil {
		t.Fatalf("second call: %v", err)
	}

	call := func(room string) int {
		rw := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/calls/"+room+"/speech", bytes.NewBufferString(`{"text":"Hallo"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+out.CallbackToken)
		r.ServeHTTP(rw, req)
		return rw.Code
	}
	if code := call("call-1"); code != http.StatusNoContent {
		t.Fatalf("expected own room accepted, got %d", code)
	}
	if code := call("call-2"); code != http.StatusForbidden {
		t.Fatalf("expected foreign room rejected, got %d", code)
	}
}
