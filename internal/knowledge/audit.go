package knowledge

import (
	"context"

	"github.com/arcflow/substrate/internal/tool"
)

// AuditAdapter satisfies tool.AuditSink, translating the engine's
// CallRecord shape into the persisted form Store.Record writes (C2
// consuming C3's call stream, spec.md §3).
type AuditAdapter struct {
	Store *Store
}

func NewAuditAdapter(store *Store) *AuditAdapter {
	return &AuditAdapter{Store: store}
}

func (a *AuditAdapter) Record(ctx context.Context, rec tool.CallRecord) {
	a.Store.Record(ctx, CallRecord{
		ToolName:       rec.ToolName,
		CallerType:     rec.CallerType,
		CallerID:       rec.CallerID,
		ConversationID: rec.ConversationID,
		WorkflowID:     rec.WorkflowID,
		RunID:          rec.RunID,
		Params:         rec.Params,
		Success:        rec.Success,
		Output:         rec.Output,
		Error:          rec.Error,
		ErrorKind:      rec.ErrorKind,
		DurationMS:     rec.DurationMS,
		TraceID:        rec.TraceID,
	})
}
