package logger

import (
	"context"

	"go.uber.org/zap"
)

type requestIDKey struct{}

type fieldsKey struct{}

// WithRequestID stores the request id so every logger taken from ctx
// carries it as request_id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// With returns ctx extended with fields that FromCtx and Op attach to
// every line logged under it.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	prev, _ := ctx.Value(fieldsKey{}).([]zap.Field)
	merged := make([]zap.Field, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// FromCtx returns the process logger scoped to ctx.
func FromCtx(ctx context.Context) *zap.Logger {
	return Op(ctx, "", "")
}

// Op returns the ctx logger tagged with the layer and method that
// repository and service lines carry. Empty names are omitted.
func Op(ctx context.Context, layer, method string, fields ...zap.Field) *zap.Logger {
	scoped, _ := ctx.Value(fieldsKey{}).([]zap.Field)

	all := make([]zap.Field, 0, len(scoped)+len(fields)+3)
	if id := RequestIDFrom(ctx); id != "" {
		all = append(all, zap.String("request_id", id))
	}
	all = append(all, scoped...)
	if layer != "" {
		all = append(all, zap.String("layer", layer))
	}
	if method != "" {
		all = append(all, zap.String("method", method))
	}
	all = append(all, fields...)

	if len(all) == 0 {
		return L()
	}
	return L().With(all...)
}
