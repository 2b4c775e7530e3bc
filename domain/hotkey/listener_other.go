//go:build !windows

package hotkey

import (
	"context"
	"log/slog"
)

// Listen has no global keyboard hook outside Windows.
func Listen(ctx context.Context, d *Dispatcher, logger *slog.Logger) error {
	return ErrListenerUnavailable
}
