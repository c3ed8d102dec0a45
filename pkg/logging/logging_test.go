package logging

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("should build a logger that carries fields and errors", func(t *testing.T) {
		logger, err := New("debug", true)
		require.NoError(t, err)
		require.NotNil(t, logger)

		logger.WithFields(map[string]any{"run_id": "run-1"}).Info("normalization started")
		logger.WithError(errors.New("store lookup failed")).Error("normalization failed")
	})

	t.Run("should fall back to info on an unknown level", func(t *testing.T) {
		logger, err := New("verbose", false)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})
}
