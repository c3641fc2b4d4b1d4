package agent

import (
	"context"

	"github.com/worldskandi/call-companion-ai/internal/actions"
	"github.com/worldskandi/call-companion-ai/internal/audit"
	"github.com/worldskandi/call-companion-ai/pkg/logger"
)

// AuditRecorder bridges the Action Bridge's recorder hook to audit.Service.
// Outcomes without a call ref in ctx are not recorded.
type AuditRecorder struct {
	Audit *audit.Service
}

func (a AuditRecorder) RecordAction(ctx context.Context, req actions.Request, res actions.Result) {
	if a.Audit == nil {
		return
	}
	ref, ok := audit.RefFrom(ctx)
	if !ok {
		return
	}
	detail := res.Sentence
	if res.Err != nil {
		detail = res.Err.Error()
	}
	if err := a.Audit.LogAction(ctx, ref, string(req.Kind), res.OK, detail); err != nil {
		logger.From(ctx).Warn("audit action failed", "action", req.Kind, "err", err)
	}
}
