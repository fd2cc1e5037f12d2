package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func quietEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TRACING_ENABLED", "false")
	t.Setenv("SIM_LATENCY", "0s")
	t.Setenv("SIM_NETWORK_ERROR_RATE", "0")
	t.Setenv("SIM_AUTH_ERROR_RATE", "0")
	t.Setenv("SIM_SERVER_ERROR_RATE", "0")
	t.Setenv("SIM_GENERAL_ERROR_RATE", "0")
	t.Setenv("SIM_USERS", "u-1=Alice")
}

func TestCommand_Subcommands(t *testing.T) {
	cmd := newCommand()
	names := make([]string, 0, len(cmd.Commands))
	for _, c := range cmd.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"serve", "update-username", "fetch-profile"}, names)
}

func TestCommand_FetchProfile(t *testing.T) {
	quietEnv(t)

	err := newCommand().Run(context.Background(), []string{"userdetails", "fetch-profile", "--user-id", "u-1"})
	require.NoError(t, err)
}

func TestCommand_UpdateUsername(t *testing.T) {
	quietEnv(t)

	err := newCommand().Run(context.Background(), []string{"userdetails", "update-username", "--user-id", "u-1", "--username", "alicia"})
	require.NoError(t, err)

	err = newCommand().Run(context.Background(), []string{"userdetails", "update-username", "--user-id", "ghost", "--username", "x"})
	assert.ErrorContains(t, err, "FAILURE")
}

func TestCommand_NetworkError(t *testing.T) {
	quietEnv(t)
	t.Setenv("SIM_NETWORK_ERROR_RATE", "1")

	err := newCommand().Run(context.Background(), []string{"userdetails", "fetch-profile", "--user-id", "u-1"})
	assert.ErrorContains(t, err, "NETWORK_ERROR")
}

func TestCommand_TracingEnabled(t *testing.T) {
	quietEnv(t)
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	err := newCommand().Run(context.Background(), []string{"userdetails", "fetch-profile", "--user-id", "u-1"})
	require.NoError(t, err)

	err = newCommand().Run(context.Background(), []string{"userdetails", "update-username", "--user-id", "u-1", "--username", "alicia"})
	require.NoError(t, err)
}
