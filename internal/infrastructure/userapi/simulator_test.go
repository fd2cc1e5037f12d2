package userapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/userapi"
)

func seeded(t *testing.T, rates userapi.Rates) *userapi.Simulator {
	t.Helper()
	u, err := domain.New("u-1", "alice", "https://img.example/u-1.png")
	require.NoError(t, err)
	return userapi.NewSimulator(userapi.Options{Rates: rates, Seed: 7, Users: []domain.User{u}})
}

func TestSimulator_GetUserProfile(t *testing.T) {
	sim := seeded(t, userapi.Rates{})

	resp, err := sim.GetUserProfile(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Equal(t, "u-1", resp.UserID)
	assert.Equal(t, "alice", resp.FullName)
	assert.Equal(t, "https://img.example/u-1.png", resp.ImageURL)

	resp, err = sim.GetUserProfile(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusGeneralError, resp.Status)
}

func TestSimulator_UpdateUsername(t *testing.T) {
	sim := seeded(t, userapi.Rates{})
	ctx := context.Background()

	resp, err := sim.UpdateUsername(ctx, "u-1", "alicia")
	require.NoError(t, err)
	assert.Equal(t, domain.UpdateUsernameResponse{Status: domain.StatusSuccess, UserID: "u-1", Username: "alicia"}, resp)

	profile, err := sim.GetUserProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alicia", profile.FullName)
	assert.Equal(t, "https://img.example/u-1.png", profile.ImageURL)

	resp, err = sim.UpdateUsername(ctx, "missing", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusGeneralError, resp.Status)
}

func TestSimulator_FailureModes(t *testing.T) {
	cases := []struct {
		name   string
		rates  userapi.Rates
		status domain.EndpointStatus
	}{
		{name: "auth", rates: userapi.Rates{Auth: 1}, status: domain.StatusAuthError},
		{name: "server", rates: userapi.Rates{Server: 1}, status: domain.StatusServerError},
		{name: "general", rates: userapi.Rates{General: 1}, status: domain.StatusGeneralError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := seeded(t, tc.rates).GetUserProfile(context.Background(), "u-1")
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.Status)
		})
	}

	_, err := seeded(t, userapi.Rates{Network: 1}).UpdateUsername(context.Background(), "u-1", "x")
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestSimulator_CancelledContextIsNetworkError(t *testing.T) {
	sim := userapi.NewSimulator(userapi.Options{Latency: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sim.GetUserProfile(ctx, "u-1")
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
