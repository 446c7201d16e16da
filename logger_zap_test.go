package simcore_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/desim/simcore"
)

func TestNewZapLoggerFromDoesNotPanic(t *testing.T) {
	core, _ := zap.NewDevelopment()
	logger := simcore.NewZapLoggerFrom(core)
	require.NotNil(t, logger)
	require.NotPanics(t, func() {
		logger.Info("hello", "k", "v")
		logger.Warn("hello", "k", "v")
		logger.Error("hello", "k", "v")
		logger.Debug("hello", "k", "v")
	})
}

func TestSimulationAcceptsCustomLogger(t *testing.T) {
	core, _ := zap.NewDevelopment()
	logger := simcore.NewZapLoggerFrom(core)
	sim := simcore.NewSimulation(1, simcore.WithLogger(logger))
	require.Equal(t, 0.0, sim.Time())
}
