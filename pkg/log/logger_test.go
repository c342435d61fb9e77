package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/fanctrl-agent/pkg/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)
	ctx := log.IntoContext(context.Background(), logger)
	assert.Same(t, logger, log.FromContext(ctx))
}

func TestFromContext_Default(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, log.FromContext(context.Background()))
}

func TestNew_Verbose(t *testing.T) {
	t.Parallel()

	logger, err := log.New("test", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = log.New("test", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}
