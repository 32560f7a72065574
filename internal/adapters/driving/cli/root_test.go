package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
)

// withBootstrap clears the injected services and installs open and build.
func withBootstrap(t *testing.T, open SettingsOpener, build ServicesBuilder) {
	t.Helper()
	_, cleanup := setupTestServices()
	prevOpen, prevBuild := openSettings, buildServices
	ingestService, retrievalService, answerService = nil, nil, nil
	settingsService, schedulerService = nil, nil
	SetBootstrap(open, build)
	t.Cleanup(func() {
		openSettings, buildServices = prevOpen, prevBuild
		closeServices = nil
		cleanup()
	})
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "athena", rootCmd.Use)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "verbose", "json"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestExecute_BuildsServicesOnFirstUse(t *testing.T) {
	settings := &mockSettingsService{settings: domain.DefaultSettings()}
	ingest := &mockIngestService{}
	closed := false

	var openedWith string
	withBootstrap(t,
		func(path string) (driving.SettingsService, error) {
			openedWith = path
			return settings, nil
		},
		func(_ context.Context, s driving.SettingsService) (*Services, error) {
			assert.Same(t, settings, s)
			return &Services{
				Ingest: ingest,
				Close: func() error {
					closed = true
					return nil
				},
			}, nil
		},
	)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status", "--config", "/etc/athena.toml"})

	err := Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/etc/athena.toml", openedWith)
	assert.Contains(t, buf.String(), "No documents tracked")
	assert.True(t, closed)
	configPath = ""
}

func TestExecute_ConfigCommandSkipsServiceWiring(t *testing.T) {
	withBootstrap(t,
		func(string) (driving.SettingsService, error) {
			return &mockSettingsService{settings: domain.DefaultSettings()}, nil
		},
		func(context.Context, driving.SettingsService) (*Services, error) {
			return nil, errors.New("embedding provider unreachable")
		},
	)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"config", "keys"})

	err := Execute(context.Background())

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "retrieval.k")
}

func TestExecute_BuildErrorIsReturned(t *testing.T) {
	withBootstrap(t,
		func(string) (driving.SettingsService, error) {
			return &mockSettingsService{settings: domain.DefaultSettings()}, nil
		},
		func(context.Context, driving.SettingsService) (*Services, error) {
			return nil, errors.New("embedding provider unreachable")
		},
	)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})

	err := Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding provider unreachable")
}

func TestExecute_SettingsErrorIsReturned(t *testing.T) {
	withBootstrap(t,
		func(string) (driving.SettingsService, error) {
			return nil, domain.ErrInvalidOverlap
		},
		nil,
	)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"config", "show"})

	err := Execute(context.Background())

	assert.ErrorIs(t, err, domain.ErrInvalidOverlap)
}

func TestExecute_VersionNeedsNoServices(t *testing.T) {
	withBootstrap(t, nil, nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})

	err := Execute(context.Background())

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "athena version")
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("")
	assert.Equal(t, original, version)

	SetVersion("v1.2.3")
	assert.Equal(t, "v1.2.3", version)
}
