// Package ctxutil provides context helpers shared by waypoint's commands
// and packages.
package ctxutil

import "context"

// Canceled returns ctx.Err(): nil while ctx is live, context.Canceled or
// context.DeadlineExceeded once it is done. Commands call it on entry so
// an interrupted invocation does not start touching documents.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
