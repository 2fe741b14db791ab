package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetOperatorID(ctx))

	ctx = SetRequestID(ctx, "req-1")
	ctx = SetOperatorID(ctx, "rh-kinshasa")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "rh-kinshasa", GetOperatorID(ctx))

	// values of another type under the same key are ignored
	ctx = context.WithValue(ctx, RequestIDKey, 42)
	assert.Empty(t, GetRequestID(ctx))
}
