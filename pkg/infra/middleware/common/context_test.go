package common

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDContext(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))

	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", GetRequestID(ctx))
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestGenerateULIDIsMonotonic(t *testing.T) {
	prev := GenerateULID()
	for i := 0; i < 100; i++ {
		next := GenerateULID()
		_, err := ulid.ParseStrict(next)
		require.NoError(t, err)
		assert.Greater(t, next, prev)
		prev = next
	}
}
