package services

import (
	"context"
	"errors"

	"github.com/samber/lo"

	"social-go/internal/apperr"
	"social-go/internal/events"
	"social-go/internal/logging"
	"social-go/internal/metrics"
	"social-go/internal/models"
	"social-go/internal/storage"
)

// FriendService drives the friend request state machine for an ordered
// pair of users: none, requested, friends.
type FriendService interface {
	CreateFriendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error)
	CancelFriendRequest(ctx context.Context, actorID, requestID string) error
	AcceptFriendRequest(ctx context.Context, actorID, requestID string) (*models.Friend, error)
	RejectFriendRequest(ctx context.Context, actorID, requestID string) error
	Unfriend(ctx context.Context, actorID, friendID string) error

	ListReceivedRequests(ctx context.Context, userID string) ([]*models.FriendRequestSummary, error)
	ListSentRequests(ctx context.Context, userID string) ([]*models.FriendRequestSummary, error)
	GetFriendsList(ctx context.Context, userID string) ([]*FriendView, error)
	// ListUserFriends pages userID's friends as viewerID sees them.
	ListUserFriends(ctx context.Context, viewerID, userID string, page storage.Page) (*FriendPage, error)
	AreFriends(ctx context.Context, userID1, userID2 string) (bool, error)

	RebuildFriendIDs(ctx context.Context, userID string) error
	RebuildFriendRequestIDs(ctx context.Context, userID string) error
}

type friendService struct {
	userRepo    storage.UserRepository
	requestRepo storage.FriendRequestRepository
	friendRepo  storage.FriendRepository
	bus         events.Bus
	repair      repairer
}

func NewFriendService(store *storage.Store, bus events.Bus) FriendService {
	return &friendService{
		userRepo:    store.Users,
		requestRepo: store.FriendRequests,
		friendRepo:  store.Friends,
		bus:         bus,
		repair:      repairer{journal: store.Journal},
	}
}

func (s *friendService) CreateFriendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfFriendRequest
	}
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		return nil, lookupErr("get friend request receiver", err, ErrUserNotFound)
	}
	friends, err := areFriends(ctx, s.friendRepo, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}
	if _, err := s.requestRepo.FindPending(ctx, senderID, receiverID); err == nil {
		return nil, ErrFriendRequestExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal("find pending friend request", err)
	}

	req := models.NewFriendRequest(senderID, receiverID)
	if err := s.requestRepo.Create(ctx, req); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrFriendRequestExists
		}
		return nil, apperr.Internal("create friend request", err)
	}

	const op = "create_friend_request"
	s.addToList(ctx, op, senderID, models.UserSentFriendRequests, req.ID)
	s.addToList(ctx, op, receiverID, models.UserReceivedFriendRequests, req.ID)

	metrics.FriendTransitionsTotal.WithLabelValues("requested").Inc()
	logging.Ctx(ctx).Info().Str("request_id", req.ID).Str("sender_id", senderID).Str("receiver_id", receiverID).
		Msg("friend request created")
	s.bus.Publish(ctx, events.NewFriendRequestEvent(events.FriendRequestCreated, req))
	return req, nil
}

// CancelFriendRequest withdraws a pending request. Only its sender may do so.
func (s *friendService) CancelFriendRequest(ctx context.Context, actorID, requestID string) error {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.SenderID != actorID {
		return ErrNotFriendRequestSender
	}
	friends, err := areFriends(ctx, s.friendRepo, req.SenderID, req.ReceiverID)
	if err != nil {
		return err
	}
	if friends {
		return ErrAlreadyFriends
	}
	if err := s.dropRequest(ctx, "cancel_friend_request", req); err != nil {
		return err
	}
	metrics.FriendTransitionsTotal.WithLabelValues("cancelled").Inc()
	s.bus.Publish(ctx, events.NewFriendRequestEvent(events.FriendRequestCancelled, req))
	return nil
}

// AcceptFriendRequest turns a pending request into a Friend record. Deleting
// the request is the claim, so a concurrent cancel or reject and this call
// cannot both succeed.
func (s *friendService) AcceptFriendRequest(ctx context.Context, actorID, requestID string) (*models.Friend, error) {
	const op = "accept_friend_request"
	log := logging.Ctx(ctx)

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != actorID {
		return nil, ErrNotFriendRequestTarget
	}
	friends, err := areFriends(ctx, s.friendRepo, req.SenderID, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	if err := s.requestRepo.Delete(ctx, req.ID); err != nil {
		return nil, lookupErr("claim friend request", err, ErrFriendRequestNotFound)
	}

	friend := models.NewFriend(req.SenderID, req.ReceiverID)
	if err := s.friendRepo.Create(ctx, friend); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// The reciprocal request was accepted first; this one is consumed
			// and closed like a cancelled one.
			s.pullRequestIDs(ctx, op, req)
			s.bus.Publish(ctx, events.NewFriendRequestEvent(events.FriendRequestCancelled, req))
			return nil, ErrAlreadyFriends
		}
		if rerr := s.requestRepo.Create(ctx, req); rerr != nil {
			s.repair.record(ctx, op, models.ViewUserFriendRequests, "FriendRequest", req.ID, "friend_request.restore", rerr)
		}
		return nil, apperr.Internal("create friend", err)
	}

	s.addToList(ctx, op, req.SenderID, models.UserFriends, friend.ID)
	s.addToList(ctx, op, req.ReceiverID, models.UserFriends, friend.ID)
	s.pullRequestIDs(ctx, op, req)

	if reciprocal, err := s.requestRepo.FindPending(ctx, req.ReceiverID, req.SenderID); err == nil {
		if err := s.dropRequest(ctx, op, reciprocal); err == nil {
			s.bus.Publish(ctx, events.NewFriendRequestEvent(events.FriendRequestCancelled, reciprocal))
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Error().Err(err).Str("request_id", req.ID).Msg("failed to look up reciprocal friend request")
	}

	metrics.FriendTransitionsTotal.WithLabelValues("accepted").Inc()
	log.Info().Str("request_id", req.ID).Str("friend_id", friend.ID).Msg("friend request accepted")

	ev := events.NewFriendRequestEvent(events.FriendRequestAccepted, req)
	ev.FriendRequest.FriendID = friend.ID
	s.bus.Publish(ctx, ev)
	return friend, nil
}

func (s *friendService) RejectFriendRequest(ctx context.Context, actorID, requestID string) error {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ReceiverID != actorID {
		return ErrNotFriendRequestTarget
	}
	if err := s.dropRequest(ctx, "reject_friend_request", req); err != nil {
		return err
	}
	metrics.FriendTransitionsTotal.WithLabelValues("rejected").Inc()
	s.bus.Publish(ctx, events.NewFriendRequestEvent(events.FriendRequestRejected, req))
	return nil
}

// Unfriend removes the friendship identified by friendID.
func (s *friendService) Unfriend(ctx context.Context, actorID, friendID string) error {
	const op = "unfriend"
	friend, err := s.friendRepo.GetByID(ctx, friendID)
	if err != nil {
		return lookupErr("get friend", err, ErrFriendNotFound)
	}
	if !friend.HasMember(actorID) {
		return ErrNotFriendParty
	}
	if err := s.friendRepo.Delete(ctx, friend.ID); err != nil {
		return lookupErr("delete friend", err, ErrFriendNotFound)
	}
	for _, userID := range friend.UserIDs {
		if err := s.userRepo.RemoveFromList(ctx, userID, models.UserFriends, friend.ID); err != nil {
			s.repair.record(ctx, op, models.ViewUserFriends, "User", userID, "user.friendIds.remove", err)
		}
	}
	metrics.FriendTransitionsTotal.WithLabelValues("unfriended").Inc()
	logging.Ctx(ctx).Info().Str("friend_id", friend.ID).Str("actor_id", actorID).Msg("friendship removed")
	return nil
}

func (s *friendService) ListReceivedRequests(ctx context.Context, userID string) ([]*models.FriendRequestSummary, error) {
	reqs, err := s.requestRepo.ListReceived(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list received friend requests", err)
	}
	return s.summarize(ctx, reqs)
}

func (s *friendService) ListSentRequests(ctx context.Context, userID string) ([]*models.FriendRequestSummary, error) {
	reqs, err := s.requestRepo.ListSent(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list sent friend requests", err)
	}
	return s.summarize(ctx, reqs)
}

// GetFriendsList returns userID's friends with their public profiles.
func (s *friendService) GetFriendsList(ctx context.Context, userID string) ([]*FriendView, error) {
	friends, err := s.friendRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list friends", err)
	}
	users, err := basicInfoIndex(ctx, s.userRepo, lo.Map(friends, func(f *models.Friend, _ int) string { return f.Other(userID) }))
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(friends, func(f *models.Friend, _ int) (*FriendView, bool) {
		info, ok := users[f.Other(userID)]
		return &FriendView{FriendID: f.ID, User: info, IsFriend: true, CreatedAt: f.CreatedAt}, ok
	}), nil
}

func (s *friendService) ListUserFriends(ctx context.Context, viewerID, userID string, page storage.Page) (*FriendPage, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, lookupErr("get user", err, ErrUserNotFound)
	}
	friends, err := s.friendRepo.PageByUser(ctx, userID, fetchWindow(page))
	if err != nil {
		return nil, apperr.Internal("page friends", err)
	}
	friends, hasMore := trimPage(friends, page.Limit)

	others := lo.Map(friends, func(f *models.Friend, _ int) string { return f.Other(userID) })
	users, err := basicInfoIndex(ctx, s.userRepo, others)
	if err != nil {
		return nil, err
	}
	mine, err := s.friendRepo.ListByUser(ctx, viewerID)
	if err != nil {
		return nil, apperr.Internal("list viewer friends", err)
	}
	viewerFriends := lo.SliceToMap(mine, func(f *models.Friend) (string, struct{}) { return f.Other(viewerID), struct{}{} })

	views := lo.FilterMap(friends, func(f *models.Friend, _ int) (*FriendView, bool) {
		other := f.Other(userID)
		info, ok := users[other]
		_, isFriend := viewerFriends[other]
		return &FriendView{FriendID: f.ID, User: info, IsFriend: isFriend, CreatedAt: f.CreatedAt}, ok
	})
	return &FriendPage{Friends: views, HasMore: hasMore}, nil
}

func (s *friendService) AreFriends(ctx context.Context, userID1, userID2 string) (bool, error) {
	return areFriends(ctx, s.friendRepo, userID1, userID2)
}

// RebuildFriendIDs re-derives userID's friendIds from the Friend records.
func (s *friendService) RebuildFriendIDs(ctx context.Context, userID string) error {
	friends, err := s.friendRepo.ListByUser(ctx, userID)
	if err != nil {
		return apperr.Internal("list friends for rebuild", err)
	}
	ids := lo.Map(friends, func(f *models.Friend, _ int) string { return f.ID })
	if err := s.userRepo.SetList(ctx, userID, models.UserFriends, ids); err != nil {
		return lookupErr("set friendIds", err, ErrUserNotFound)
	}
	logging.Ctx(ctx).Info().Str("user_id", userID).Int("friends", len(ids)).Msg("friendIds rebuilt")
	return nil
}

func (s *friendService) RebuildFriendRequestIDs(ctx context.Context, userID string) error {
	sent, err := s.requestRepo.ListSent(ctx, userID)
	if err != nil {
		return apperr.Internal("list sent requests for rebuild", err)
	}
	received, err := s.requestRepo.ListReceived(ctx, userID)
	if err != nil {
		return apperr.Internal("list received requests for rebuild", err)
	}
	ids := func(reqs []*models.FriendRequest) []string {
		return lo.Map(reqs, func(r *models.FriendRequest, _ int) string { return r.ID })
	}
	if err := s.userRepo.SetList(ctx, userID, models.UserSentFriendRequests, ids(sent)); err != nil {
		return lookupErr("set sentFriendRequestIds", err, ErrUserNotFound)
	}
	if err := s.userRepo.SetList(ctx, userID, models.UserReceivedFriendRequests, ids(received)); err != nil {
		return lookupErr("set receivedFriendRequestIds", err, ErrUserNotFound)
	}
	return nil
}

func (s *friendService) getRequest(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, lookupErr("get friend request", err, ErrFriendRequestNotFound)
	}
	return req, nil
}

// dropRequest deletes req and pulls it from both parties' lists.
func (s *friendService) dropRequest(ctx context.Context, op string, req *models.FriendRequest) error {
	if err := s.requestRepo.Delete(ctx, req.ID); err != nil {
		return lookupErr("delete friend request", err, ErrFriendRequestNotFound)
	}
	s.pullRequestIDs(ctx, op, req)
	return nil
}

func (s *friendService) pullRequestIDs(ctx context.Context, op string, req *models.FriendRequest) {
	if err := s.userRepo.RemoveFromList(ctx, req.SenderID, models.UserSentFriendRequests, req.ID); err != nil {
		s.repair.record(ctx, op, models.ViewUserFriendRequests, "User", req.SenderID, "user.sentFriendRequestIds.remove", err)
	}
	if err := s.userRepo.RemoveFromList(ctx, req.ReceiverID, models.UserReceivedFriendRequests, req.ID); err != nil {
		s.repair.record(ctx, op, models.ViewUserFriendRequests, "User", req.ReceiverID, "user.receivedFriendRequestIds.remove", err)
	}
}

func (s *friendService) addToList(ctx context.Context, op, userID string, field models.UserListField, id string) {
	if err := s.userRepo.AddToList(ctx, userID, field, id); err != nil {
		view := models.ViewUserFriendRequests
		if field == models.UserFriends {
			view = models.ViewUserFriends
		}
		s.repair.record(ctx, op, view, "User", userID, "user."+string(field)+".add", err)
	}
}

func (s *friendService) summarize(ctx context.Context, reqs []*models.FriendRequest) ([]*models.FriendRequestSummary, error) {
	ids := lo.FlatMap(reqs, func(r *models.FriendRequest, _ int) []string { return []string{r.SenderID, r.ReceiverID} })
	users, err := basicInfoIndex(ctx, s.userRepo, ids)
	if err != nil {
		return nil, err
	}
	return lo.Map(reqs, func(r *models.FriendRequest, _ int) *models.FriendRequestSummary {
		return summarizeRequest(r, users)
	}), nil
}

func summarizeRequest(r *models.FriendRequest, users map[string]*models.UserBasicInfo) *models.FriendRequestSummary {
	return &models.FriendRequestSummary{
		ID:        r.ID,
		Sender:    users[r.SenderID],
		Receiver:  users[r.ReceiverID],
		CreatedAt: r.CreatedAt,
	}
}
