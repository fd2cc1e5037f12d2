package application

import "context"

// UseCase is a single application operation. Its outcome, failures included, is reported
// through R; callers never need to inspect an error to learn what happened.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) R
}
