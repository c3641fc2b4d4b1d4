package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestWithCall_AddsCallAttrs(t *testing.T) {
	var buf bytes.Buffer
	ctx := With(context.Background(), NewWithWriter("local", &buf))

	ctx, _ = WithCall(ctx, CallAttrs{Room: "call-1", CallLogID: "log-1", LeadID: "lead-1", Outbound: true})
	From(ctx).Info("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line["room"] != "call-1" || line["call_log_id"] != "log-1" || line["outbound"] != true {
		t.Fatalf("missing call attrs: %v", line)
	}
}

func TestFrom_FallsBackToDefault(t *testing.T) {
	if From(context.Background()) == nil {
		t.Fatalf("expected default logger")
	}
}

func TestMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewWithWriter("dev", &buf)))
	r.GET("/x", func(c *gin.Context) {
		From(c.Request.Context()).Info("inside")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "rid-42" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
	if strings.Count(buf.String(), `"request_id":"rid-42"`) != 2 {
		t.Fatalf("expected both log lines tagged, got %s", buf.String())
	}
}

func TestMiddleware_TagsRoomAndLevelsByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewWithWriter("dev", &buf)))
	r.POST("/v1/calls/:room/participant-left", func(c *gin.Context) {
		if FromGin(c) == nil {
			t.Errorf("expected gin logger")
		}
		c.Status(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/calls/call-7/participant-left", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if line["room"] != "call-7" || line["route"] != "/v1/calls/:room/participant-left" {
		t.Fatalf("missing room or route: %v", line)
	}
	if line["level"] != "WARN" {
		t.Fatalf("expected WARN for 409, got %v", line["level"])
	}
}
