package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrous-labs/imgcrate-cli/internal/logger"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "imgcrate", rootCmd.Use)
}

func TestRootCmd_HasVerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestRootCmd_VerboseEnablesDebugLogging(t *testing.T) {
	defer func() {
		verbose = false
		logger.SetVerbose(false)
	}()

	_, err := execute(t, "--verbose", "version")

	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestConfigure_WiresServices(t *testing.T) {
	h := &stubHarvester{}
	cleanup := setupTestServices(h)
	defer cleanup()

	assert.NotNil(t, harvester)
	assert.NotNil(t, configStore)
}
