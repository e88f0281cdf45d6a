package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testContext(t *testing.T, args map[string]string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for name, value := range args {
		set.String(name, value, "")
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLoggerValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "Info"} {
		ctx := testContext(t, map[string]string{"log-level": level})
		require.NoError(t, ctx.Set("log-level", level))
		assert.NoError(t, setupLogger(ctx), "level %s should be accepted", level)
	}
}

func TestSetupLoggerInvalidLevel(t *testing.T) {
	ctx := testContext(t, map[string]string{"log-level": ""})
	require.NoError(t, ctx.Set("log-level", "verbose"))
	err := setupLogger(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestIngestSlackRequiresScope(t *testing.T) {
	ctx := testContext(t, map[string]string{"channel": "", "export": "", "token": ""})
	err := ingestSlackCommand(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--channel or --export")
}

func TestIngestSlackChannelRequiresToken(t *testing.T) {
	ctx := testContext(t, map[string]string{"channel": "", "export": "", "token": ""})
	require.NoError(t, ctx.Set("channel", "C123"))
	err := ingestSlackCommand(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestIngestConfluenceRequiresScope(t *testing.T) {
	ctx := testContext(t, map[string]string{"space": "", "page": "", "url": "", "user": "", "token": ""})
	err := ingestConfluenceCommand(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--space or --page")
}
