package shared

import (
	"context"
	"log/slog"
)

// Compensate runs action and, if it fails or panics, runs undo before
// returning. undo gets a context that survives cancellation of ctx so a
// client disconnect cannot skip it.
func Compensate(ctx context.Context, action func(ctx context.Context) error, undo func(ctx context.Context) error) (err error) {
	defer func() {
		r := recover()
		if err == nil && r == nil {
			return
		}
		if undoErr := undo(context.WithoutCancel(ctx)); undoErr != nil {
			slog.Error("compensating action failed", "error", undoErr.Error())
		}
		if r != nil {
			panic(r)
		}
	}()
	return action(ctx)
}
