package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushTelemetry runs before process exit: it writes the metrics textfile when
// textfilePath is set, then syncs the logger. Both steps are attempted even if
// the first fails.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, textfilePath string) error {
	var errs []error
	if textfilePath != "" {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("flush metrics: %w", err))
		} else if err := WriteTextfile(textfilePath); err != nil {
			errs = append(errs, err)
		}
	}
	if logger != nil {
		if err := logger.Sync(); err != nil && !isIgnorableSyncError(err) {
			errs = append(errs, fmt.Errorf("flush logs: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Syncing a terminal or pipe returns EINVAL/ENOTTY; there is nothing to flush.
func isIgnorableSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
