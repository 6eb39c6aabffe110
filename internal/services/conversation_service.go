package services

import (
	"context"
	"errors"

	"social-go/internal/apperr"
	"social-go/internal/events"
	"social-go/internal/logging"
	"social-go/internal/metrics"
	"social-go/internal/models"
	"social-go/internal/realtime"
	"social-go/internal/storage"
)

type CreateMessageInput struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// ConversationService handles private threads between friends.
type ConversationService interface {
	// GetOrCreateWithUser returns the thread between actorID and otherUserID,
	// creating it on first use.
	GetOrCreateWithUser(ctx context.Context, actorID, otherUserID string) (*models.Conversation, error)
	ListMessages(ctx context.Context, actorID, conversationID string, page storage.Page) (*MessagePage, error)
	CreateMessage(ctx context.Context, actorID, conversationID string, in CreateMessageInput) (*models.Message, error)

	// Register subscribes the realtime message push on bus.
	Register(bus events.Bus)
}

type conversationService struct {
	userRepo    storage.UserRepository
	friendRepo  storage.FriendRepository
	convoRepo   storage.ConversationRepository
	messageRepo storage.MessageRepository
	bus         events.Bus
	emitter     realtime.Emitter
}

func NewConversationService(store *storage.Store, bus events.Bus, emitter realtime.Emitter) ConversationService {
	return &conversationService{
		userRepo:    store.Users,
		friendRepo:  store.Friends,
		convoRepo:   store.Conversations,
		messageRepo: store.Messages,
		bus:         bus,
		emitter:     emitter,
	}
}

func (s *conversationService) GetOrCreateWithUser(ctx context.Context, actorID, otherUserID string) (*models.Conversation, error) {
	if actorID == otherUserID {
		return nil, ErrSelfConversation
	}
	if _, err := s.userRepo.GetByID(ctx, otherUserID); err != nil {
		return nil, lookupErr("get conversation partner", err, ErrUserNotFound)
	}
	friends, err := areFriends(ctx, s.friendRepo, actorID, otherUserID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, ErrNotFriends
	}

	conv, err := s.convoRepo.FindByPair(ctx, actorID, otherUserID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal("find conversation", err)
	}

	conv = models.NewConversation(actorID, otherUserID)
	if err := s.convoRepo.Create(ctx, conv); err != nil {
		if !errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Internal("create conversation", err)
		}
		// Both users opened the thread at once; use the winner's.
		if conv, err = s.convoRepo.FindByPair(ctx, actorID, otherUserID); err != nil {
			return nil, apperr.Internal("find conversation after duplicate", err)
		}
	}
	return conv, nil
}

func (s *conversationService) ListMessages(ctx context.Context, actorID, conversationID string, page storage.Page) (*MessagePage, error) {
	if _, err := s.memberConversation(ctx, actorID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.ListByConversation(ctx, conversationID, fetchWindow(page))
	if err != nil {
		return nil, apperr.Internal("list messages", err)
	}
	msgs, hasMore := trimPage(msgs, page.Limit)
	return &MessagePage{Messages: msgs, HasMore: hasMore}, nil
}

func (s *conversationService) CreateMessage(ctx context.Context, actorID, conversationID string, in CreateMessageInput) (*models.Message, error) {
	if err := validate.Struct(in); err != nil {
		return nil, apperr.FromValidator(err)
	}
	conv, err := s.memberConversation(ctx, actorID, conversationID)
	if err != nil {
		return nil, err
	}
	msg := models.NewMessage(conv.ID, actorID, in.Content)
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, apperr.Internal("create message", err)
	}
	if err := s.convoRepo.AppendMessage(ctx, conv.ID, msg.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("conversation_id", conv.ID).Str("message_id", msg.ID).
			Msg("failed to link message to conversation")
	}
	s.bus.Publish(ctx, events.NewMessageEvent(msg, conv))
	return msg, nil
}

func (s *conversationService) Register(bus events.Bus) {
	bus.Subscribe(events.MessageCreated, s.onMessageCreated)
}

// onMessageCreated pushes the message to both participants, so the sender's
// other devices see it too.
func (s *conversationService) onMessageCreated(ctx context.Context, ev events.Event) error {
	payload := &MessageCreatedPayload{Message: ev.Message.Message}
	var firstErr error
	for _, userID := range ev.Message.ParticipantIDs {
		if err := s.emitter.EmitToRoom(ctx, userID, realtime.EventMessageCreated, payload); err != nil {
			metrics.RealtimeEmitFailuresTotal.WithLabelValues(realtime.EventMessageCreated).Inc()
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *conversationService) memberConversation(ctx context.Context, actorID, conversationID string) (*models.Conversation, error) {
	conv, err := s.convoRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, lookupErr("get conversation", err, ErrConversationNotFound)
	}
	if !conv.HasMember(actorID) {
		return nil, ErrNotConversationParty
	}
	return conv, nil
}
