package user

import (
	"context"

	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
)

// UpdateUsernameEndpoint is the outbound port for the remote "update username" call.
// A non-nil error means the call did not reach the API; statuses reported by the API are
// carried in the response.
type UpdateUsernameEndpoint interface {
	UpdateUsername(ctx context.Context, userID, username string) (domain.UpdateUsernameResponse, error)
}

// UserProfileEndpoint is the outbound port for the remote "get user profile" call.
type UserProfileEndpoint interface {
	GetUserProfile(ctx context.Context, userID string) (domain.ProfileResponse, error)
}
