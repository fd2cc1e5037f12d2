package userapi

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	appuser "github.com/Zhima-Mochi/userdetails/internal/application/user"
	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
)

// Rates are the probabilities, each in [0,1], that a call fails in the given way.
type Rates struct {
	Network float64
	Auth    float64
	Server  float64
	General float64
}

type Options struct {
	Rates   Rates
	Latency time.Duration
	// Seed drives the failure rolls; zero seeds from the clock.
	Seed  int64
	Users []domain.User
}

// Simulator stands in for the remote user API. It keeps a directory of users and fails
// calls at the configured rates.
type Simulator struct {
	mu      sync.Mutex
	random  *rand.Rand
	rates   Rates
	latency time.Duration
	users   map[string]domain.User
}

var (
	_ appuser.UpdateUsernameEndpoint = (*Simulator)(nil)
	_ appuser.UserProfileEndpoint    = (*Simulator)(nil)
)

func NewSimulator(opts Options) *Simulator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	users := make(map[string]domain.User, len(opts.Users))
	for _, u := range opts.Users {
		if !u.IsZero() {
			users[u.ID()] = u
		}
	}
	return &Simulator{
		random:  rand.New(rand.NewSource(seed)),
		rates:   opts.Rates,
		latency: opts.Latency,
		users:   users,
	}
}

func (s *Simulator) UpdateUsername(ctx context.Context, userID, username string) (domain.UpdateUsernameResponse, error) {
	status, err := s.call(ctx)
	if err != nil {
		return domain.UpdateUsernameResponse{}, err
	}
	if status != domain.StatusSuccess {
		return domain.UpdateUsernameResponse{Status: status}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[userID]
	if !ok || username == "" {
		return domain.UpdateUsernameResponse{Status: domain.StatusGeneralError}, nil
	}
	updated, err := domain.New(current.ID(), username, current.ImageURL())
	if err != nil {
		return domain.UpdateUsernameResponse{Status: domain.StatusGeneralError}, nil
	}
	s.users[userID] = updated

	return domain.UpdateUsernameResponse{
		Status:   domain.StatusSuccess,
		UserID:   updated.ID(),
		Username: updated.Name(),
	}, nil
}

func (s *Simulator) GetUserProfile(ctx context.Context, userID string) (domain.ProfileResponse, error) {
	status, err := s.call(ctx)
	if err != nil {
		return domain.ProfileResponse{}, err
	}
	if status != domain.StatusSuccess {
		return domain.ProfileResponse{Status: status}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return domain.ProfileResponse{Status: domain.StatusGeneralError}, nil
	}
	return domain.ProfileResponse{
		Status:   domain.StatusSuccess,
		UserID:   u.ID(),
		FullName: u.Name(),
		ImageURL: u.ImageURL(),
	}, nil
}

// call waits out the latency and rolls the failure mode of one request.
func (s *Simulator) call(ctx context.Context) (domain.EndpointStatus, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return 0, fmt.Errorf("%w: %w", domain.ErrNetwork, ctx.Err())
		}
	} else if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}

	s.mu.Lock()
	roll := s.random.Float64()
	s.mu.Unlock()

	r := s.rates
	switch {
	case roll < r.Network:
		return 0, fmt.Errorf("%w: connection reset by simulated peer", domain.ErrNetwork)
	case roll < r.Network+r.Auth:
		return domain.StatusAuthError, nil
	case roll < r.Network+r.Auth+r.Server:
		return domain.StatusServerError, nil
	case roll < r.Network+r.Auth+r.Server+r.General:
		return domain.StatusGeneralError, nil
	}
	return domain.StatusSuccess, nil
}
