package tracing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

func TestSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("none installs nothing", func(t *testing.T) {
		shutdown, err := tracing.Setup(ctx, tracing.Config{ServiceName: "clover-test", Exporter: "none"})
		require.NoError(t, err)
		assert.NoError(t, shutdown(ctx))
	})

	t.Run("unknown exporter", func(t *testing.T) {
		_, err := tracing.Setup(ctx, tracing.Config{ServiceName: "clover-test", Exporter: "jaeger"})
		assert.ErrorContains(t, err, "unsupported trace exporter")
	})

	t.Run("console needs a logger", func(t *testing.T) {
		_, err := tracing.Setup(ctx, tracing.Config{ServiceName: "clover-test", Exporter: "console"})
		assert.Error(t, err)
	})

	t.Run("console", func(t *testing.T) {
		shutdown, err := tracing.Setup(ctx, tracing.Config{ServiceName: "clover-test", Exporter: "console", Logger: logging.Nop()})
		require.NoError(t, err)
		t.Cleanup(func() { tracing.SetTracer(nil) })

		spanCtx, span := tracing.StartSpan(ctx, "test.operation", tracing.AgentID("a-1"), tracing.AgentCount(3))
		assert.Len(t, tracing.GetTraceID(spanCtx), 32)
		assert.Empty(t, tracing.GetTraceID(ctx))

		failure := errors.New("boom")
		assert.Equal(t, failure, tracing.Fail(span, failure))
		assert.NoError(t, tracing.Fail(span, nil))
		span.End()

		assert.NoError(t, shutdown(ctx))
	})
}
