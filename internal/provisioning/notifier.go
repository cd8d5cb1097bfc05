package provisioning

import (
	"context"

	"go.uber.org/zap"
)

// Event types emitted after a successfully committed operation.
const (
	EventUserCreated    = "user.created"
	EventUserUpdated    = "user.updated"
	EventUserDeleted    = "user.deleted"
	EventUserBlocked    = "user.blocked"
	EventUserUnblocked  = "user.unblocked"
	EventDeployFinished = "deployment.finished"
)

// Event is an outbound notification about a committed change.
type Event struct {
	Type      string
	TenantID  string
	Username  string
	ServiceID string
	Status    string
}

// Notifier is the outbound notification port. The orchestrator calls it
// after commit only; a failing notifier never rolls anything back.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// LogNotifier is the default sink: events go to the log and nowhere else.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("events")}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) {
	n.logger.Info("event",
		zap.String("type", e.Type),
		zap.String("tenant_id", e.TenantID),
		zap.String("username", e.Username),
		zap.String("service_id", e.ServiceID),
		zap.String("status", e.Status))
}
