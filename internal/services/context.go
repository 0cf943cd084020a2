package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	entryNameKey contextKey = "entry_name"
)

// WithRunID attaches the run identifier to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithEntryName attaches the source-catalog entry name being processed.
func WithEntryName(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, entryNameKey, name)
}

// EntryNameFromContext extracts the entry name if present.
func EntryNameFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	name, ok := ctx.Value(entryNameKey).(string)
	return name, ok && name != ""
}
