package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "Info"} {
			set := flag.NewFlagSet("test", 0)
			set.String("log-level", level, "")
			c := cli.NewContext(nil, set, nil)
			assert.NoError(t, setupLogger(c), "level %q", level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		set := flag.NewFlagSet("test", 0)
		set.String("log-level", "verbose", "")
		c := cli.NewContext(nil, set, nil)
		err := setupLogger(c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verbose")
	})
}

func TestIngestCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "docchat",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "conversation", Required: true},
					&cli.StringFlag{Name: "file", Required: true},
				},
			},
		},
	}

	t.Run("conversation is required", func(t *testing.T) {
		err := app.Run([]string{"docchat", "ingest", "--file", "/tmp/a.txt"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "conversation")
	})

	t.Run("file is required", func(t *testing.T) {
		err := app.Run([]string{"docchat", "ingest", "--conversation", "c1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file")
	})
}
