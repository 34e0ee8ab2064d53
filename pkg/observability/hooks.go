package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ngena/pkg/domain"
)

// Join returns hooks that call every non-nil callback of each set, in order.
func Join(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnDispatch = chain(out.OnDispatch, h.OnDispatch)
		out.OnSend = chain(out.OnSend, h.OnSend)
		out.OnBack = chain(out.OnBack, h.OnBack)
	}
	return out
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks returns hooks that log every event at debug level, and failed sends at
// warn level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			logger.DebugContext(ctx, "dispatch",
				"cycle_id", e.CycleID,
				"user_id", e.UserID,
				"state", e.State,
				"next_state", e.NextState,
				"outcome", e.Outcome,
				"duration", e.Duration,
			)
		},
		OnSend: func(ctx context.Context, e *domain.SendEvent) {
			level := slog.LevelDebug
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "send",
				"user_id", e.UserID,
				"response_type", e.ResponseType,
				"status", e.StatusCode,
				"duration", e.Duration,
			)
		},
		OnBack: func(ctx context.Context, e *domain.BackEvent) {
			logger.DebugContext(ctx, "back",
				"user_id", e.UserID,
				"offset", e.Offset,
				"restored", e.Restored,
				"underflow", e.Underflow,
			)
		},
	}
}
