package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/userdetails/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "userdetails", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, 25*time.Millisecond, cfg.SimLatency)
	assert.Equal(t, map[string]string{"u-1": "Alice Liddell", "u-2": "Bob Stone"}, cfg.SimUsers)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SIM_AUTH_ERROR_RATE", "0.5")
	t.Setenv("SIM_USERS", "a=Ann")
	t.Setenv("TRACING_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.InDelta(t, 0.5, cfg.SimAuthErrorRate, 1e-9)
	assert.Equal(t, map[string]string{"a": "Ann"}, cfg.SimUsers)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoad_RejectsBadRates(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SIM_SERVER_ERROR_RATE", "1.5")

	_, err := config.Load()
	assert.ErrorContains(t, err, "SIM_SERVER_ERROR_RATE")
}

func TestValidate_RatesSum(t *testing.T) {
	cfg := &config.Config{SimNetworkErrorRate: 0.6, SimAuthErrorRate: 0.6}
	assert.ErrorContains(t, cfg.Validate(), "above 1")

	cfg = &config.Config{SimNetworkErrorRate: 0.5, SimAuthErrorRate: 0.5}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RatesSumToOne(t *testing.T) {
	cases := map[string]*config.Config{
		"0.1/0.2/0.4/0.3": {SimNetworkErrorRate: 0.1, SimAuthErrorRate: 0.2, SimServerErrorRate: 0.4, SimGeneralErrorRate: 0.3},
		"0.7/0.1/0.1/0.1": {SimNetworkErrorRate: 0.7, SimAuthErrorRate: 0.1, SimServerErrorRate: 0.1, SimGeneralErrorRate: 0.1},
		"0.3/0.3/0.3/0.1": {SimNetworkErrorRate: 0.3, SimAuthErrorRate: 0.3, SimServerErrorRate: 0.3, SimGeneralErrorRate: 0.1},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			for range 200 {
				require.NoError(t, cfg.Validate())
			}
		})
	}

	over := &config.Config{SimNetworkErrorRate: 0.7, SimAuthErrorRate: 0.1, SimServerErrorRate: 0.1, SimGeneralErrorRate: 0.1001}
	for range 200 {
		require.ErrorContains(t, over.Validate(), "above 1")
	}
}

func TestSeedUsers(t *testing.T) {
	cfg := &config.Config{
		SimUsers:        map[string]string{"u-2": "Bob", "u-1": "Alice"},
		SimImageBaseURL: "https://img.test",
	}
	users, err := cfg.SeedUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u-1", users[0].ID())
	assert.Equal(t, "Alice", users[0].Name())
	assert.Equal(t, "https://img.test/u-1.png", users[0].ImageURL())

	cfg.SimUsers = map[string]string{"": "nobody"}
	_, err = cfg.SeedUsers()
	assert.Error(t, err)
}
