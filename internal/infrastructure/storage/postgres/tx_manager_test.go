package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"

	appctx "rimshield/internal/core/context"
)

func attrMap(attrs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value.AsString()
	}
	return m
}

func TestSpanAttributes(t *testing.T) {
	opts := DefaultTxOptions()

	attrs := attrMap(spanAttributes(context.Background(), opts))
	assert.Equal(t, string(pgx.ReadCommitted), attrs["tx.isolation"])
	assert.Equal(t, string(pgx.ReadWrite), attrs["tx.access_mode"])
	assert.NotContains(t, attrs, "request.id")
}

func TestSpanAttributes_RequestID(t *testing.T) {
	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{
		TraceID:   "trace-1",
		RequestID: "req-1",
	})

	attrs := attrMap(spanAttributes(ctx, DefaultTxOptions()))
	assert.Equal(t, "req-1", attrs["request.id"])
}
