package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/loan-advisor/pkg/app/cliflag"
)

type testOptions struct {
	Addr   string `mapstructure:"addr"`
	Model  string `mapstructure:"model"`
	APIKey string `mapstructure:"api-key"`

	validateErr error
	completed   bool
}

func (o *testOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("test")
	fs.StringVar(&o.Addr, "addr", o.Addr, "listen address")
	fs.StringVar(&o.Model, "model", o.Model, "model name")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error { return o.validateErr }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "app.yaml", "addr: \":9000\"\nmodel: file-model\napi-key: ${LOAN_TEST_KEY}\n")
	envFile := writeFile(t, dir, ".env", "LOAN_TEST_KEY=from-dotenv\n")
	t.Cleanup(func() { _ = os.Unsetenv("LOAN_TEST_KEY") })

	opts := &testOptions{Addr: ":8080", Model: "default"}
	ran := false
	a := NewApp(
		WithName("loan-test"),
		WithOptions(opts),
		WithNoVersion(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{"--config", cfg, "--env-file", envFile, "--model", "flag-model"})

	require.NoError(t, a.Command().Execute())
	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, ":9000", opts.Addr)
	assert.Equal(t, "flag-model", opts.Model)
	assert.Equal(t, "from-dotenv", opts.APIKey)
}

func TestValidateErrorStopsRun(t *testing.T) {
	opts := &testOptions{validateErr: errors.New("http.addr cannot be empty")}
	ran := false
	a := NewApp(
		WithName("loan-test"),
		WithOptions(opts),
		WithNoVersion(),
		WithSilence(),
		WithNoConfig(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{})

	err := a.Command().Execute()
	require.Error(t, err)
	assert.False(t, ran)
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "LOAN_ADVISOR", EnvPrefix("loan-advisor"))
}
