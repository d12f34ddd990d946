package contextstore

import "context"

// Backend stores the full turn sequence for a user as one value.
type Backend interface {
	Get(ctx context.Context, userID string) ([]Turn, error)
	Set(ctx context.Context, userID string, turns []Turn) error
	Delete(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
}
