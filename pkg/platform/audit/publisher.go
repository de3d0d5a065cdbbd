package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher is the sink interface domain services emit through. Sinks must
// tolerate partial events; only Action is mandatory.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// LogPublisher writes audit events to structured logs. It is the default
// sink and the fallback when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger, now: time.Now}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	event = normalize(event, p.now)
	p.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("category", string(event.Category)),
		slog.Time("ts", event.Timestamp),
		slog.String("tenant_id", event.TenantID.String()),
		slog.String("action", event.Action),
		slog.String("subject", event.Subject),
		slog.String("reason", event.Reason),
		slog.String("request_id", event.RequestID),
		slog.String("actor_id", event.ActorID),
		slog.String("scope", event.Scope),
	)
	return nil
}

// normalize fills the fields every sink relies on.
func normalize(event Event, now func() time.Time) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	return event
}

// Fanout emits to every sink, returning the first error after all sinks ran.
type Fanout []Publisher

func (f Fanout) Emit(ctx context.Context, event Event) error {
	var first error
	for _, p := range f {
		if err := p.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
