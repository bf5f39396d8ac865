package log

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextWithOperationID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
		want string
	}{
		{
			name: "nil context",
			ctx:  nil,
			id:   "op-123",
			want: "op-123",
		},
		{
			name: "background context",
			ctx:  context.Background(),
			id:   "op-456",
			want: "op-456",
		},
		{
			name: "empty operation ID",
			ctx:  context.Background(),
			id:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithOperationID(tt.ctx, tt.id)
			got := OperationIDFromContext(ctx)
			if got != tt.want {
				t.Errorf("OperationIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOperationIDFromContextEmpty(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{
			name: "nil context",
			ctx:  nil,
			want: "",
		},
		{
			name: "context without operation ID",
			ctx:  context.Background(),
			want: "",
		},
		{
			name: "context with wrong type",
			ctx:  context.WithValue(context.Background(), operationIDKey, 123),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OperationIDFromContext(tt.ctx)
			if got != tt.want {
				t.Errorf("OperationIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithComponentFromContext(t *testing.T) {
	logger := WithComponentFromContext(context.Background(), "detector")
	if logger.GetLevel() > zerolog.PanicLevel {
		t.Error("Expected valid logger from WithComponentFromContext")
	}

	ctx := ContextWithOperationID(context.Background(), "op-789")
	logger = WithComponentFromContext(ctx, "detector")
	if logger.GetLevel() > zerolog.PanicLevel {
		t.Error("Expected valid logger from WithComponentFromContext with operation ID")
	}
}

func TestBase(t *testing.T) {
	baseLogger := Base()
	if baseLogger.GetLevel() > zerolog.PanicLevel {
		t.Error("Expected valid base logger with reasonable log level")
	}
}
