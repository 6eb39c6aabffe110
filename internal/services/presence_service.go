package services

import (
	"context"
	"time"

	"github.com/samber/lo"

	"social-go/internal/apperr"
	"social-go/internal/logging"
	"social-go/internal/metrics"
	"social-go/internal/models"
	"social-go/internal/presence"
	"social-go/internal/realtime"
	"social-go/internal/storage"
)

// RoomJoiner subscribes a live connection to a room.
type RoomJoiner interface {
	JoinRoom(connID, room string) error
}

// PresenceService tracks live connections per user. A user is online while
// at least one connection exists anywhere in the cluster; only the zero
// crossings are announced, and only to friends that are online themselves.
type PresenceService interface {
	Connect(ctx context.Context, userID, connID string) error
	Disconnect(ctx context.Context, userID, connID string) error
	OnlineFriendIDs(ctx context.Context, userID string) ([]string, error)
}

type presenceService struct {
	userRepo   storage.UserRepository
	friendRepo storage.FriendRepository
	set        presence.Set
	rooms      RoomJoiner
	emitter    realtime.Emitter
}

func NewPresenceService(store *storage.Store, set presence.Set, rooms RoomJoiner, emitter realtime.Emitter) PresenceService {
	return &presenceService{
		userRepo:   store.Users,
		friendRepo: store.Friends,
		set:        set,
		rooms:      rooms,
		emitter:    emitter,
	}
}

// Connect joins connID to the user's own room and counts it. The first
// connection marks the user online.
func (s *presenceService) Connect(ctx context.Context, userID, connID string) error {
	if err := s.rooms.JoinRoom(connID, userID); err != nil {
		return apperr.Internal("join user room", err)
	}
	before, err := s.set.Add(ctx, userID, connID)
	if err != nil {
		return apperr.Internal("add connection to presence set", err)
	}
	if before == 0 {
		s.transition(ctx, userID, StatusOnline)
	}
	return nil
}

// Disconnect forgets connID. The last connection marks the user offline;
// an id that was never counted changes nothing.
func (s *presenceService) Disconnect(ctx context.Context, userID, connID string) error {
	removed, after, err := s.set.Remove(ctx, userID, connID)
	if err != nil {
		return apperr.Internal("remove connection from presence set", err)
	}
	if removed && after == 0 {
		s.transition(ctx, userID, StatusOffline)
	}
	return nil
}

func (s *presenceService) transition(ctx context.Context, userID string, status OnlineStatus) {
	log := logging.Ctx(ctx).With().Str("user_id", userID).Str("status", string(status)).Logger()

	var lastSeen *time.Time
	if status == StatusOffline {
		now := models.Now()
		lastSeen = &now
	}
	if err := s.userRepo.SetLastSeenAt(ctx, userID, lastSeen); err != nil {
		log.Error().Err(err).Msg("failed to persist lastSeenAt")
	}
	metrics.PresenceTransitionsTotal.WithLabelValues(string(status)).Inc()

	friendIDs, err := s.OnlineFriendIDs(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve online friends")
		return
	}
	payload := &OnlineStatusPayload{UserID: userID, Status: status, LastSeenAt: lastSeen}
	for _, friendID := range friendIDs {
		if err := s.emitter.EmitToRoom(ctx, friendID, realtime.EventUserOnlineStatus, payload); err != nil {
			metrics.RealtimeEmitFailuresTotal.WithLabelValues(realtime.EventUserOnlineStatus).Inc()
			log.Warn().Err(err).Str("friend_id", friendID).Msg("failed to push presence change")
		}
	}
	log.Debug().Int("notified", len(friendIDs)).Msg("presence transition")
}

// OnlineFriendIDs returns the user ids of userID's friends that currently
// hold at least one connection.
func (s *presenceService) OnlineFriendIDs(ctx context.Context, userID string) ([]string, error) {
	friends, err := s.friendRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list friends", err)
	}
	online := make([]string, 0, len(friends))
	for _, id := range lo.Uniq(lo.Map(friends, func(f *models.Friend, _ int) string { return f.Other(userID) })) {
		n, err := s.set.Count(ctx, id)
		if err != nil {
			return nil, apperr.Internal("count friend connections", err)
		}
		if n > 0 {
			online = append(online, id)
		}
	}
	return online, nil
}
