package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const operationIDKey ctxKey = "operation_id"

// ContextWithOperationID stores the provided operation ID in the context.
// The caller layer tags each request/operation so every engine log line
// emitted on its behalf can be correlated.
func ContextWithOperationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, operationIDKey, id)
}

// OperationIDFromContext extracts the operation ID from context if present.
func OperationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(operationIDKey).(string); ok {
		return v
	}
	return ""
}

// FromContext returns a logger from the context, or the base logger if not present.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		l := Base()
		return &l
	}
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		b := Base()
		return &b
	}
	return l
}

// WithComponentFromContext returns a logger annotated with the component
// name and enriched with the operation ID from ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	builder := FromContext(ctx).With().Str(FieldComponent, component)
	if id := OperationIDFromContext(ctx); id != "" {
		builder = builder.Str("operation_id", id)
	}
	return builder.Logger()
}
