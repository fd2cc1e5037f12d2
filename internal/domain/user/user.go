package user

import (
	"errors"
)

var (
	ErrInvalidID = errors.New("user: id is required")
	ErrNotFound  = errors.New("user: not found")
)

// User is an immutable snapshot of a remote user record. Copies are independent.
type User struct {
	id       string
	name     string
	imageURL string
}

func New(id, name, imageURL string) (User, error) {
	if id == "" {
		return User{}, ErrInvalidID
	}
	return User{
		id:       id,
		name:     name,
		imageURL: imageURL,
	}, nil
}

func (u User) ID() string       { return u.id }
func (u User) Name() string     { return u.name }
func (u User) ImageURL() string { return u.imageURL }

// IsZero reports whether u was never constructed through New.
func (u User) IsZero() bool { return u.id == "" }
