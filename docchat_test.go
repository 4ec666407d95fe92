package docchat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docchat/vectorindex"
)

func TestNewApp(t *testing.T) {
	t.Run("create new app", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "docchat_data")
		app, err := New(tmpDir, WithIndex(vectorindex.NewMemory()))
		require.NoError(t, err)
		require.NotNil(t, app)
		defer app.Close()

		assert.NotNil(t, app.Store())
		assert.NotNil(t, app.Index())
		assert.NotNil(t, app.Provider())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0o644))

		app, err := New(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, app)
	})
}

func TestApp_FactoryMethods(t *testing.T) {
	app, err := New(t.TempDir(), WithIndex(vectorindex.NewMemory()))
	require.NoError(t, err)
	defer app.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := app.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create chat engine", func(t *testing.T) {
		engine, err := app.NewEngine()
		require.NoError(t, err)
		require.NotNil(t, engine)
	})
}
