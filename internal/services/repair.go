package services

import (
	"context"

	"social-go/internal/logging"
	"social-go/internal/models"
	"social-go/internal/storage"
)

// repairer reports a failed follow-up write of a multi-document operation.
// The operation itself has already succeeded; the entry tells the
// reconcile tool which view to rebuild.
type repairer struct {
	journal storage.RepairJournal
}

func (r repairer) record(ctx context.Context, op string, view models.RepairView, kind, subjectID, step string, err error) {
	logging.Ctx(ctx).Error().Err(err).
		Str("operation", op).
		Str("view", string(view)).
		Str("subject_kind", kind).
		Str("subject_id", subjectID).
		Str("step", step).
		Msg("partial failure, view left inconsistent until reconciled")

	if r.journal == nil {
		return
	}
	entry := &models.RepairEntry{
		Operation:   op,
		View:        view,
		SubjectKind: kind,
		SubjectID:   subjectID,
		Step:        step,
		Error:       err.Error(),
	}
	if jerr := r.journal.Record(ctx, entry); jerr != nil {
		logging.Ctx(ctx).Error().Err(jerr).Str("operation", op).Str("subject_id", subjectID).
			Msg("failed to record repair entry")
	}
}
