package main

import (
	"github.com/gin-gonic/gin"

	"github.com/worldskandi/call-companion-ai/internal/httpapi"
	"github.com/worldskandi/call-companion-ai/internal/rbac"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.POST("/jobs", rbac.RequireAnyRole(rbac.RoleDispatcher, rbac.RoleRuntime), h.DispatchJob)

		// Session callbacks from the voice runtime. Room-scoped tokens only reach their own room.
		calls := v1.Group("/calls/:room")
		calls.Use(rbac.RequireAnyRole(rbac.RoleRuntime))
		calls.Use(rbac.RequireRoom("room"))
		{
			calls.POST("/transcripts", h.UserTranscript)
			calls.POST("/speech", h.AgentSpeech)
			calls.POST("/participant-left", h.ParticipantLeft)
			calls.POST("/tools/:tool", h.InvokeTool)
		}
	}
}
