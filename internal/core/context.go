package core

import "context"

type ctxKey int

const (
	loggerKey ctxKey = iota
	runIDKey
)

// WithRunID tags ctx with the refresh run it belongs to. Empty ids are ignored.
func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil || runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the refresh run id, or "" outside a run.
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	runID, _ := ctx.Value(runIDKey).(string)
	return runID
}
