package services

import (
	"context"
	"errors"

	"github.com/samber/lo"

	"social-go/internal/apperr"
	"social-go/internal/logging"
	"social-go/internal/metrics"
	"social-go/internal/models"
	"social-go/internal/storage"
)

// TargetRef names a reactable by kind and id.
type TargetRef struct {
	Kind models.SourceType
	ID   string
}

// TargetResolver finds the repository and document behind a TargetRef.
type TargetResolver interface {
	Resolve(ctx context.Context, ref TargetRef) (storage.ReactableRepository, models.Reactable, error)
}

type storeResolver struct {
	store *storage.Store
}

// NewTargetResolver resolves targets against the reactable repositories of store.
func NewTargetResolver(store *storage.Store) TargetResolver {
	return &storeResolver{store: store}
}

func (r *storeResolver) Resolve(ctx context.Context, ref TargetRef) (storage.ReactableRepository, models.Reactable, error) {
	repo, err := r.store.Reactable(ref.Kind)
	if err != nil {
		return nil, nil, ErrTargetNotFound
	}
	target, err := repo.Get(ctx, ref.ID)
	if err != nil {
		return nil, nil, lookupErr("resolve reaction target", err, ErrTargetNotFound)
	}
	return repo, target, nil
}

// EngagementService keeps Reaction documents, reactable counters and each
// user's reactionIds in step.
type EngagementService interface {
	UpsertReaction(ctx context.Context, actorID string, target TargetRef, reactionType models.ReactionType) (string, error)
	RemoveReaction(ctx context.Context, actorID string, target TargetRef) error
	ListReactions(ctx context.Context, target TargetRef, typeFilter models.ReactionType, page storage.Page) (*ReactionPage, error)
	RebuildReactionState(ctx context.Context, target TargetRef) error
	RebuildUserReactionIDs(ctx context.Context, userID string) error
}

type engagementService struct {
	users     storage.UserRepository
	reactions storage.ReactionRepository
	targets   TargetResolver
	repair    repairer
}

func NewEngagementService(store *storage.Store, targets TargetResolver) EngagementService {
	return &engagementService{
		users:     store.Users,
		reactions: store.Reactions,
		targets:   targets,
		repair:    repairer{journal: store.Journal},
	}
}

// UpsertReaction gives actorID exactly one reaction of reactionType on target
// and returns its id. Re-sending the current type changes nothing.
func (s *engagementService) UpsertReaction(ctx context.Context, actorID string, target TargetRef, reactionType models.ReactionType) (string, error) {
	rt, err := models.ParseReactionType(string(reactionType))
	if err != nil {
		return "", ErrInvalidReactionType
	}
	repo, _, err := s.targets.Resolve(ctx, target)
	if err != nil {
		return "", err
	}
	log := logging.Ctx(ctx).With().Str("target_kind", string(target.Kind)).Str("target_id", target.ID).Logger()

	// A concurrent first reaction by the same user loses on the unique
	// (userId, sourceId) index; the loser re-reads and goes around once more.
	for attempt := 0; attempt < 2; attempt++ {
		op := "add"
		existing, err := s.reactions.FindByUserAndSource(ctx, actorID, target.ID)
		switch {
		case err == nil:
			if existing.Type == rt {
				metrics.ReactionsTotal.WithLabelValues("noop", string(rt)).Inc()
				return existing.ID, nil
			}
			s.detach(ctx, repo, existing, "replace_reaction")
			op = "replace"
		case !errors.Is(err, storage.ErrNotFound):
			return "", apperr.Internal("find existing reaction", err)
		}

		reaction := models.NewReaction(actorID, target.Kind, target.ID, rt)
		if err := s.reactions.Create(ctx, reaction); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				log.Debug().Int("attempt", attempt).Msg("concurrent reaction create, retrying")
				continue
			}
			return "", apperr.Internal("create reaction", err)
		}

		if err := repo.AddReaction(ctx, target.ID, rt, reaction.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Target vanished between resolve and update.
				if derr := s.reactions.Delete(ctx, reaction.ID); derr != nil && !errors.Is(derr, storage.ErrNotFound) {
					log.Error().Err(derr).Str("reaction_id", reaction.ID).Msg("failed to drop reaction on missing target")
				}
				return "", ErrTargetNotFound
			}
			s.repair.record(ctx, "upsert_reaction", models.ViewReactable, string(target.Kind), target.ID, "reactable.add", err)
		}
		if err := s.users.AddToList(ctx, actorID, models.UserReactions, reaction.ID); err != nil {
			s.repair.record(ctx, "upsert_reaction", models.ViewUserReactions, "User", actorID, "user.reactionIds.add", err)
		}

		metrics.ReactionsTotal.WithLabelValues(op, string(rt)).Inc()
		log.Debug().Str("reaction_id", reaction.ID).Str("op", op).Str("type", string(rt)).Msg("reaction stored")
		return reaction.ID, nil
	}
	return "", apperr.Conflict("reaction changed concurrently, try again")
}

// RemoveReaction drops actorID's reaction on target.
func (s *engagementService) RemoveReaction(ctx context.Context, actorID string, target TargetRef) error {
	repo, _, err := s.targets.Resolve(ctx, target)
	if err != nil {
		return err
	}
	existing, err := s.reactions.FindByUserAndSource(ctx, actorID, target.ID)
	if err != nil {
		return lookupErr("find reaction", err, ErrReactionNotFound)
	}
	if !s.detach(ctx, repo, existing, "remove_reaction") {
		return ErrReactionNotFound
	}
	metrics.ReactionsTotal.WithLabelValues("remove", string(existing.Type)).Inc()
	return nil
}

// detach deletes reaction and unhooks it from its reactable and its author.
// The document delete is the claim: when it reports not found another caller
// already removed the reaction and detach returns false.
func (s *engagementService) detach(ctx context.Context, repo storage.ReactableRepository, reaction *models.Reaction, op string) bool {
	if err := s.reactions.Delete(ctx, reaction.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false
		}
		s.repair.record(ctx, op, models.ViewReactable, string(reaction.SourceType), reaction.SourceID, "reaction.delete", err)
	}
	if err := repo.RemoveReaction(ctx, reaction.SourceID, reaction.Type, reaction.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.repair.record(ctx, op, models.ViewReactable, string(reaction.SourceType), reaction.SourceID, "reactable.remove", err)
	}
	if err := s.users.RemoveFromList(ctx, reaction.UserID, models.UserReactions, reaction.ID); err != nil {
		s.repair.record(ctx, op, models.ViewUserReactions, "User", reaction.UserID, "user.reactionIds.remove", err)
	}
	return true
}

func (s *engagementService) ListReactions(ctx context.Context, target TargetRef, typeFilter models.ReactionType, page storage.Page) (*ReactionPage, error) {
	if typeFilter != "" {
		rt, err := models.ParseReactionType(string(typeFilter))
		if err != nil {
			return nil, ErrInvalidReactionType
		}
		typeFilter = rt
	}
	if _, _, err := s.targets.Resolve(ctx, target); err != nil {
		return nil, err
	}

	reactions, err := s.reactions.ListBySource(ctx, target.ID, typeFilter, fetchWindow(page))
	if err != nil {
		return nil, apperr.Internal("list reactions", err)
	}
	reactions, hasMore := trimPage(reactions, page.Limit)

	users, err := basicInfoIndex(ctx, s.users, lo.Map(reactions, func(r *models.Reaction, _ int) string { return r.UserID }))
	if err != nil {
		return nil, err
	}
	out := lo.Map(reactions, func(r *models.Reaction, _ int) *models.ReactionWithUser {
		return &models.ReactionWithUser{Reaction: *r, User: users[r.UserID]}
	})
	return &ReactionPage{Reactions: out, HasMore: hasMore}, nil
}

// RebuildReactionState recomputes a reactable's counters from the Reaction documents.
func (s *engagementService) RebuildReactionState(ctx context.Context, target TargetRef) error {
	repo, _, err := s.targets.Resolve(ctx, target)
	if err != nil {
		return err
	}
	reactions, err := s.reactions.ListAllBySource(ctx, target.Kind, target.ID)
	if err != nil {
		return apperr.Internal("list reactions for rebuild", err)
	}
	if err := repo.ReplaceState(ctx, target.ID, models.RebuildReactionState(reactions)); err != nil {
		return apperr.Internal("replace reaction state", err)
	}
	logging.Ctx(ctx).Info().Str("target_kind", string(target.Kind)).Str("target_id", target.ID).
		Int("reactions", len(reactions)).Msg("reaction state rebuilt")
	return nil
}

func (s *engagementService) RebuildUserReactionIDs(ctx context.Context, userID string) error {
	reactions, err := s.reactions.ListByUser(ctx, userID)
	if err != nil {
		return apperr.Internal("list user reactions", err)
	}
	ids := lo.Map(reactions, func(r *models.Reaction, _ int) string { return r.ID })
	if err := s.users.SetList(ctx, userID, models.UserReactions, ids); err != nil {
		return lookupErr("set user reactionIds", err, ErrUserNotFound)
	}
	return nil
}
