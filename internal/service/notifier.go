package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kikundi/sacco-engine/internal/domain"
	"github.com/kikundi/sacco-engine/internal/repository"
	customError "github.com/kikundi/sacco-engine/pkg/errors"
)

// Notifier persists in-app notifications. Delivery is fire-and-forget: a
// failed notification is logged and never fails the operation that raised it.
type Notifier struct {
	store repository.Store
	log   zerolog.Logger
}

func NewNotifier(store repository.Store, log zerolog.Logger) *Notifier {
	return &Notifier{store: store, log: log}
}

// NotifyUser records a notification for one member.
func (n *Notifier) NotifyUser(ctx context.Context, userID int64, message string) {
	if err := n.store.Repos().Notifications.Insert(ctx, userID, message); err != nil {
		n.log.Error().Err(err).Int64("user_id", userID).Msg("failed to persist notification")
	}
}

// NotifyAdmins fans a notification out to every admin.
func (n *Notifier) NotifyAdmins(ctx context.Context, message string) {
	ids, err := n.store.Repos().Members.ListIDsByRole(ctx, domain.RoleAdmin)
	if err != nil {
		n.log.Error().Err(err).Msg("failed to list admins for notification")
		return
	}
	for _, id := range ids {
		n.NotifyUser(ctx, id, message)
	}
}

// NotifyAll fans a notification out to every active member.
func (n *Notifier) NotifyAll(ctx context.Context, message string) {
	ids, err := n.store.Repos().Members.ListAllIDs(ctx)
	if err != nil {
		n.log.Error().Err(err).Msg("failed to list members for notification")
		return
	}
	for _, id := range ids {
		n.NotifyUser(ctx, id, message)
	}
}

// ListForUser returns a member's recent notifications.
func (n *Notifier) ListForUser(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error) {
	items, err := n.store.Repos().Notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return items, nil
}
