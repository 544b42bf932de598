package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PDFQUERY_CONFIG", "PDFQUERY_SERVICE_URL", "PDFQUERY_LISTEN_ADDR",
		"PDFQUERY_HTTP_TIMEOUT", "PDFQUERY_SESSION_TTL", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func runApp(t *testing.T, logger *logrus.Logger, input string, args ...string) (string, error) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	var out bytes.Buffer
	app := newApp(logger)
	app.Reader = strings.NewReader(input)
	app.Writer = &out
	app.ErrWriter = &out

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := app.Run(ctx, append([]string{"pdfquery"}, args...))
	return out.String(), err
}

func TestShellCommand(t *testing.T) {
	clearEnv(t)

	out, err := runApp(t, quietLogger(), "status\nquery too early\nquit\n", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "state: not_uploaded")
	assert.Contains(t, out, "! Please upload a file before submitting a query.")
}

func TestShellLogLevel(t *testing.T) {
	clearEnv(t)

	logger := quietLogger()
	_, err := runApp(t, logger, "quit\n", "shell")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger = quietLogger()
	_, err = runApp(t, logger, "quit\n", "--log-level", "debug", "shell")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestFlagsAreValidated(t *testing.T) {
	clearEnv(t)

	_, err := runApp(t, quietLogger(), "", "--service-url", "ftp://localhost", "shell")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = runApp(t, quietLogger(), "", "--session-ttl", "0s", "web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ttl must be positive")
}

func TestUnknownCommand(t *testing.T) {
	clearEnv(t)

	_, err := runApp(t, quietLogger(), "", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "serve"`)
}

func TestHelpListsCommands(t *testing.T) {
	out, err := runApp(t, quietLogger(), "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "shell")
	assert.Contains(t, out, "--service-url")
}
