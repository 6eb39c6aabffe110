package services

import (
	"context"
	"errors"
	"fmt"

	"social-go/internal/logging"
	"social-go/internal/models"
	"social-go/internal/storage"
)

// ReconcileReport summarises one reconcile pass.
type ReconcileReport struct {
	Resolved int
	Failed   int
	Skipped  int
}

// Reconciler replays open repair entries by rebuilding the view each one
// names from the source-of-truth documents.
type Reconciler struct {
	journal       storage.RepairJournal
	friends       FriendService
	notifications NotificationService
	engagement    EngagementService
}

func NewReconciler(journal storage.RepairJournal, friends FriendService, notifications NotificationService, engagement EngagementService) *Reconciler {
	return &Reconciler{journal: journal, friends: friends, notifications: notifications, engagement: engagement}
}

var errManualRepair = errors.New("entry needs manual repair")

// Run processes up to limit open entries (0 means all). Rebuilds are
// idempotent, so entries that name the same subject are safe to replay.
func (r *Reconciler) Run(ctx context.Context, limit int) (ReconcileReport, error) {
	var report ReconcileReport
	entries, err := r.journal.ListOpen(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("list open repair entries: %w", err)
	}
	log := logging.WithComponent("reconcile")

	for _, e := range entries {
		entryLog := log.With().Uint("entry_id", e.ID).Str("view", string(e.View)).Str("subject_id", e.SubjectID).Logger()
		err := r.rebuild(ctx, e)
		switch {
		case errors.Is(err, errManualRepair):
			report.Skipped++
			entryLog.Warn().Str("step", e.Step).Msg("skipping entry that cannot be rebuilt automatically")
			continue
		case err != nil:
			report.Failed++
			entryLog.Error().Err(err).Msg("rebuild failed, entry left open")
			continue
		}
		if err := r.journal.Resolve(ctx, e.ID, "rebuilt "+string(e.View)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			report.Failed++
			entryLog.Error().Err(err).Msg("rebuilt but could not resolve entry")
			continue
		}
		report.Resolved++
		entryLog.Info().Msg("entry resolved")
	}
	return report, nil
}

func (r *Reconciler) rebuild(ctx context.Context, e *models.RepairEntry) error {
	if e.View != models.ViewReactable && e.SubjectKind != "User" {
		// A lost friend request restore leaves nothing to rebuild from.
		return errManualRepair
	}
	switch e.View {
	case models.ViewUserFriends:
		return r.friends.RebuildFriendIDs(ctx, e.SubjectID)
	case models.ViewUserFriendRequests:
		return r.friends.RebuildFriendRequestIDs(ctx, e.SubjectID)
	case models.ViewUserNotifications:
		return r.notifications.RebuildNotificationIDs(ctx, e.SubjectID)
	case models.ViewUserReactions:
		return r.engagement.RebuildUserReactionIDs(ctx, e.SubjectID)
	case models.ViewReactable:
		kind, err := models.ParseSourceType(e.SubjectKind)
		if err != nil {
			return errManualRepair
		}
		return r.engagement.RebuildReactionState(ctx, TargetRef{Kind: kind, ID: e.SubjectID})
	}
	return errManualRepair
}
