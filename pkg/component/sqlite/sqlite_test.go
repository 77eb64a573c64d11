package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "memory", path: ":memory:"},
		{name: "file", path: filepath.Join(t.TempDir(), "catalog.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			opts.Path = tt.path
			opts.LogLevel = "silent"
			require.Empty(t, opts.Validate())

			client, err := New(context.Background(), opts)
			require.NoError(t, err)
			defer func() { _ = client.Close() }()

			assert.Equal(t, "sqlite", client.Name())
			assert.NoError(t, client.Ping(context.Background()))
		})
	}
}

func TestValidate(t *testing.T) {
	opts := &Options{}
	opts.LogLevel = "loud"
	assert.Len(t, opts.Validate(), 2)
}
