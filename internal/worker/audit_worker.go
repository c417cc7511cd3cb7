package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/events"
	"github.com/spec-kit/freeler-client/internal/observability"
)

// StartAuditWorker registers handlers that log every client event and count it.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) {
	if dispatcher == nil {
		return
	}
	logger = observability.OrNop(logger).Named("audit")

	dispatcher.SubscribeAll(func(_ context.Context, evt events.Event) error {
		metrics.Inc("event", string(evt.Type))
		fields := []zap.Field{
			zap.String("event_id", evt.ID),
			zap.String("event", string(evt.Type)),
			zap.Time("at", evt.Timestamp),
		}
		switch p := evt.Payload.(type) {
		case events.SessionPayload:
			fields = append(fields,
				zap.String("state", p.State),
				zap.String("session_type", string(p.SessionType)),
				zap.String("user_id", string(p.UserID)),
				zap.String("role", string(p.Role)),
			)
			if p.Err != "" {
				fields = append(fields, zap.String("error", p.Err))
			}
		case events.LookupPayload:
			fields = append(fields, zap.String("key", p.Key), zap.String("status", p.Status))
		}
		if evt.Type == events.EventSessionLoginFail {
			logger.Warn("client event", fields...)
			return nil
		}
		logger.Info("client event", fields...)
		return nil
	})
}
