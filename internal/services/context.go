package services

import "context"

type contextKey string

const (
	batchIDKey   contextKey = "batch_id"
	taskIndexKey contextKey = "task_index"
	stageKey     contextKey = "stage"
)

// WithBatchID annotates context with the batch correlation identifier.
func WithBatchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromContext extracts the batch identifier if present.
func BatchIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(batchIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTaskIndex annotates context with the check task's position in its batch.
func WithTaskIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, taskIndexKey, index)
}

// TaskIndexFromContext extracts the task index if present.
func TaskIndexFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(taskIndexKey).(int)
	return v, ok
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
