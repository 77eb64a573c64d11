package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/loan-advisor/pkg/infra/pool"
)

type fakeClient struct {
	name    string
	pingErr error
	closed  *[]string
}

func (f *fakeClient) Name() string               { return f.name }
func (f *fakeClient) Ping(context.Context) error { return f.pingErr }
func (f *fakeClient) Close() error               { *f.closed = append(*f.closed, f.name); return nil }

func TestManagerRegister(t *testing.T) {
	var closed []string
	m := NewManager()

	require.NoError(t, m.Register("postgres", &fakeClient{name: "postgres", closed: &closed}))
	assert.Error(t, m.Register("postgres", &fakeClient{name: "postgres", closed: &closed}))
	assert.Error(t, m.Register("", &fakeClient{closed: &closed}))
	assert.Error(t, m.Register("redis", nil))

	_, err := m.Get("mongodb")
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.Equal(t, []string{"postgres"}, m.List())
}

func TestManagerHealthCheckAll(t *testing.T) {
	p, err := pool.NewPool("health-test", pool.DefaultPoolConfig())
	require.NoError(t, err)
	defer func() { _ = p.Release(0) }()

	var closed []string
	m := NewManager(WithPool(p))
	require.NoError(t, m.Register("redis", &fakeClient{name: "redis", pingErr: errors.New("connection refused"), closed: &closed}))
	require.NoError(t, m.Register("postgres", &fakeClient{name: "postgres", closed: &closed}))

	statuses := m.HealthCheckAll(context.Background())
	require.Len(t, statuses, 2)
	assert.Equal(t, "postgres", statuses[0].Name)
	assert.True(t, statuses[0].Healthy)
	assert.Equal(t, "redis", statuses[1].Name)
	assert.False(t, statuses[1].Healthy)
	assert.EqualError(t, statuses[1].Error, "connection refused")

	assert.NoError(t, m.Checker("postgres")(context.Background()))
	assert.Error(t, m.Checker("redis")(context.Background()))
	assert.ErrorIs(t, m.Checker("mysql")(context.Background()), ErrClientNotFound)
}

func TestManagerCloseAllReverseOrder(t *testing.T) {
	var closed []string
	m := NewManager()
	require.NoError(t, m.Register("postgres", &fakeClient{name: "postgres", closed: &closed}))
	require.NoError(t, m.Register("redis", &fakeClient{name: "redis", closed: &closed}))

	require.NoError(t, m.CloseAll())
	assert.Equal(t, []string{"redis", "postgres"}, closed)
	assert.Empty(t, m.List())
}

func TestParseGormLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    gormlogger.LogLevel
		wantErr bool
	}{
		{in: "", want: gormlogger.Silent},
		{in: "WARN", want: gormlogger.Warn},
		{in: "info", want: gormlogger.Info},
		{in: "debug", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseGormLogLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestOpenGormSQLite(t *testing.T) {
	opts := NewSQLPoolOptions()
	opts.LogLevel = "silent"
	db, err := OpenGorm(context.Background(), "sqlite", sqlite.Open("file::memory:"), opts)
	require.NoError(t, err)

	c := NewGormClient("sqlite", db)
	assert.Equal(t, "sqlite", c.Name())
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}
