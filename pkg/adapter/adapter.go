// Package adapter holds the TCP plumbing shared by network front ends: the
// accept loop, the connection cap and two-phase shutdown.
package adapter

import "context"

// Adapter is a network front end. Serve blocks for the lifetime of the
// listener; Stop may be called from another goroutine at any time.
type Adapter interface {
	// Serve returns nil after a clean shutdown, or an error when binding
	// fails or sessions had to be cut off at the shutdown deadline.
	Serve(ctx context.Context) error

	// Stop is idempotent.
	Stop(ctx context.Context) error

	Protocol() string
	Port() int
}
