package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs node start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, step Step, next Handler) error {
		logger.Debug("node started",
			slog.String("capability", step.Capability),
			slog.String("run_id", step.RunID),
			slog.Int("node", step.Index),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("node failed",
				slog.String("capability", step.Capability),
				slog.String("run_id", step.RunID),
				slog.Int("node", step.Index),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("node completed",
				slog.String("capability", step.Capability),
				slog.String("run_id", step.RunID),
				slog.Int("node", step.Index),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
