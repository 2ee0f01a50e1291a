package di_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skygraph/statsbridge/internal/di"
)

// validConfig is a minimal valid configuration for testing. Cache stays
// disabled so no store connections are attempted.
const validConfig = `
server:
  listen: ":8787"
logging:
  level: info
  format: json
upstream:
  base_url: http://localhost:8000
cache:
  mode: disabled
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statsbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func shutdownContainer(t *testing.T, container *di.Container) {
	t.Helper()
	if err := container.Shutdown(); err != nil {
		t.Logf("container shutdown: %v", err)
	}
}

func TestNewContainer(t *testing.T) {
	container, err := di.NewContainer(createTempConfigFile(t, validConfig))
	require.NoError(t, err)
	require.NotNil(t, container)
	t.Cleanup(func() { shutdownContainer(t, container) })

	assert.NotNil(t, container.Injector())
}

func TestContainerResolvesServices(t *testing.T) {
	container, err := di.NewContainer(createTempConfigFile(t, validConfig))
	require.NoError(t, err)
	t.Cleanup(func() { shutdownContainer(t, container) })

	cfgSvc, err := di.Invoke[*di.ConfigService](container)
	require.NoError(t, err)
	assert.Equal(t, ":8787", cfgSvc.Config.Server.GetListen())

	enrSvc, err := di.Invoke[*di.EnricherService](container)
	require.NoError(t, err)
	require.NotNil(t, enrSvc.Enricher)
	assert.False(t, enrSvc.Enricher.Stats().Enabled, "cache mode disabled")

	srvSvc, err := di.Invoke[*di.ServerService](container)
	require.NoError(t, err)
	assert.Equal(t, ":8787", srvSvc.Server.Addr())
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	// Missing upstream.base_url must fail service construction.
	path := createTempConfigFile(t, "cache:\n  mode: disabled\n")

	container, err := di.NewContainer(path)
	require.NoError(t, err, "container construction is lazy")
	t.Cleanup(func() { shutdownContainer(t, container) })

	_, err = di.Invoke[*di.ConfigService](container)
	assert.Error(t, err)
}

func TestContainerRejectsMissingConfigFile(t *testing.T) {
	container, err := di.NewContainer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	t.Cleanup(func() { shutdownContainer(t, container) })

	_, err = di.Invoke[*di.ConfigService](container)
	assert.Error(t, err)
}

func TestContainerShutdownIsClean(t *testing.T) {
	container, err := di.NewContainer(createTempConfigFile(t, validConfig))
	require.NoError(t, err)

	// Construct the full graph, then tear it down.
	_, err = di.Invoke[*di.ServerService](container)
	require.NoError(t, err)

	assert.NoError(t, container.Shutdown())
}
