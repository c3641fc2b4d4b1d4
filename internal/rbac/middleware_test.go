package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/worldskandi/call-companion-ai/internal/auth"
)

func identity(role, room string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "sub", role, room)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func serve(r *gin.Engine, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
	return w.Code
}

func TestRequireAnyRole_OperatorBypasses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/x", identity(RoleOperator, ""), RequireAnyRole(RoleDispatcher), func(c *gin.Context) {
		c.Status(200)
	})
	if code := serve(r, "/x"); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_WrongRoleForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/x", identity(RoleRuntime, ""), RequireAnyRole(RoleDispatcher), func(c *gin.Context) {
		c.Status(200)
	})
	if code := serve(r, "/x"); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_MissingIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/x", RequireAnyRole(RoleRuntime), func(c *gin.Context) {
		c.Status(200)
	})
	if code := serve(r, "/x"); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRequireRoom(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	ok := func(c *gin.Context) { c.Status(200) }
	r.POST("/scoped/:room", identity(RoleRuntime, "call-1"), RequireRoom("room"), ok)
	r.POST("/fleet/:room", identity(RoleRuntime, ""), RequireRoom("room"), ok)

	if code := serve(r, "/scoped/call-1"); code != 200 {
		t.Fatalf("expected 200 for matching room, got %d", code)
	}
	if code := serve(r, "/scoped/call-2"); code != 403 {
		t.Fatalf("expected 403 for foreign room, got %d", code)
	}
	if code := serve(r, "/fleet/call-2"); code != 200 {
		t.Fatalf("expected 200 for unscoped token, got %d", code)
	}
}
