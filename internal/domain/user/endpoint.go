package user

import "errors"

// ErrNetwork signals that the remote user API could not be reached. It is distinct from
// any status the API itself reports.
var ErrNetwork = errors.New("user: network error")

// EndpointStatus is the status reported by the remote user API.
type EndpointStatus int

const (
	StatusSuccess EndpointStatus = iota
	StatusGeneralError
	StatusAuthError
	StatusServerError
)

func (s EndpointStatus) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusGeneralError:
		return "GENERAL_ERROR"
	case StatusAuthError:
		return "AUTH_ERROR"
	case StatusServerError:
		return "SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// UpdateUsernameResponse is returned by the update-username endpoint.
// UserID and Username are only meaningful when Status is StatusSuccess.
type UpdateUsernameResponse struct {
	Status   EndpointStatus
	UserID   string
	Username string
}

// ProfileResponse is returned by the user-profile endpoint.
type ProfileResponse struct {
	Status   EndpointStatus
	UserID   string
	FullName string
	ImageURL string
}
