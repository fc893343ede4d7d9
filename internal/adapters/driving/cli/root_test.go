package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/storage/memory"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driving"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/services"
)

// stubWiring records how it was called.
type stubWiring struct {
	configDir string
	opts      WireOptions
	built     int
	closed    int
	err       error
	checkErr  error
	checked   int
}

func (w *stubWiring) Settings(configDir string) (driving.SettingsService, error) {
	w.configDir = configDir
	return services.NewSettingsService(memory.NewConfigStore(),
		services.WithEnvLookup(func(string) (string, bool) { return "", false })), nil
}

func (w *stubWiring) Services(_ context.Context, _ *domain.AppSettings, opts WireOptions) (*Services, error) {
	w.built++
	w.opts = opts
	if w.err != nil {
		return nil, w.err
	}
	return &Services{
		Ledger: memory.NewLedger(),
		Close: func() error {
			w.closed++
			return nil
		},
	}, nil
}

func (w *stubWiring) Check(context.Context, *domain.AppSettings) error {
	w.checked++
	return w.checkErr
}

func withWiring(t *testing.T, w Wiring) {
	t.Helper()
	oldWiring, oldSettings := wiring, settingsService
	SetWiring(w)
	settingsService = nil
	t.Cleanup(func() {
		wiring, settingsService = oldWiring, oldSettings
		useServices(&Services{})
		configDir, dataDir = "", ""
		resetFlags()
	})
}

func TestSetup_BuildsServicesOnlyWhenNeeded(t *testing.T) {
	w := &stubWiring{}
	withWiring(t, w)

	_, err := execute(t, "--config-dir", "/tmp/cfg", "version")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cfg", w.configDir)
	assert.Zero(t, w.built)

	out, err := execute(t, "--data-dir", "/tmp/data", "ledger", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No videos ingested yet.")
	assert.Equal(t, 1, w.built)
	assert.Equal(t, "/tmp/data", w.opts.DataDir)
	assert.NotNil(t, w.opts.Progress)
	assert.Equal(t, 1, w.closed)
}

func TestSetup_WiringError(t *testing.T) {
	w := &stubWiring{err: domain.NewConfigurationError("embedding.api_key", "required for openai")}
	withWiring(t, w)

	_, err := execute(t, "ledger", "list")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestExecute_PrintsConfigurationHint(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"catalog"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, buf.String(), "Hint: run 'trading-nlp settings check'")
}

func TestLoadEnvFile(t *testing.T) {
	const key = "TRADING_NLP_TEST_ENV_FILE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0600))

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv(key))

	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, loadEnvFile(""))
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	const key = "TRADING_NLP_TEST_ENV_KEEP"
	t.Setenv(key, "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0600))

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv(key))
}

func TestTeardown_ClosesOnce(t *testing.T) {
	closed := 0
	closeServices = func() error {
		closed++
		return errors.New("close failed")
	}

	assert.Error(t, teardown(nil, nil))
	assert.NoError(t, teardown(nil, nil))
	assert.Equal(t, 1, closed)
}
