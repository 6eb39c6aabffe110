package services

import (
	"context"
	"errors"
	"fmt"

	"social-go/internal/apperr"
	"social-go/internal/events"
	"social-go/internal/logging"
	"social-go/internal/metrics"
	"social-go/internal/models"
	"social-go/internal/realtime"
	"social-go/internal/storage"
)

// NotificationService persists notifications and pushes them to the
// recipient's room. Pushes are best-effort: a failed emit is logged and
// counted, the stored notification stays.
type NotificationService interface {
	Notify(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID string, page storage.Page) (*NotificationPage, error)
	CountUnseen(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllSeen(ctx context.Context, userID string) (int64, error)
	RebuildNotificationIDs(ctx context.Context, userID string) error

	// Register subscribes the friend lifecycle handlers on bus.
	Register(bus events.Bus)
}

type notificationService struct {
	userRepo         storage.UserRepository
	requestRepo      storage.FriendRequestRepository
	notificationRepo storage.NotificationRepository
	emitter          realtime.Emitter
	repair           repairer
}

func NewNotificationService(store *storage.Store, emitter realtime.Emitter) NotificationService {
	return &notificationService{
		userRepo:         store.Users,
		requestRepo:      store.FriendRequests,
		notificationRepo: store.Notifications,
		emitter:          emitter,
		repair:           repairer{journal: store.Journal},
	}
}

func (s *notificationService) Register(bus events.Bus) {
	bus.Subscribe(events.FriendRequestCreated, s.onFriendRequestCreated)
	bus.Subscribe(events.FriendRequestAccepted, s.onFriendRequestAccepted)
	bus.Subscribe(events.FriendRequestCancelled, s.onFriendRequestClosed)
	bus.Subscribe(events.FriendRequestRejected, s.onFriendRequestClosed)
}

// Notify stores n, links it to its recipient and emits it.
func (s *notificationService) Notify(ctx context.Context, n *models.Notification) error {
	kind := string(n.Type())
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, "store_failed").Inc()
		return apperr.Internal("create notification", err)
	}
	if err := s.userRepo.AddToList(ctx, n.RecipientID, models.UserNotifications, n.ID); err != nil {
		s.repair.record(ctx, "notify", models.ViewUserNotifications, "User", n.RecipientID, "user.notificationIds.add", err)
	}

	event, payload, err := s.render(ctx, n)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, "render_failed").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("notification_id", n.ID).Msg("failed to render notification")
		return nil
	}
	if err := s.emitter.EmitToRoom(ctx, n.RecipientID, event, payload); err != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, "emit_failed").Inc()
		metrics.RealtimeEmitFailuresTotal.WithLabelValues(event).Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("notification_id", n.ID).Str("recipient_id", n.RecipientID).
			Msg("notification stored but not pushed")
		return nil
	}
	metrics.NotificationsTotal.WithLabelValues(kind, "delivered").Inc()
	return nil
}

// render builds the realtime event for n.
func (s *notificationService) render(ctx context.Context, n *models.Notification) (string, any, error) {
	switch p := n.Payload.(type) {
	case models.FriendRequestReceived:
		req, err := s.requestRepo.GetByID(ctx, p.FriendRequestID)
		if err != nil {
			return "", nil, fmt.Errorf("load friend request %s: %w", p.FriendRequestID, err)
		}
		users, err := basicInfoIndex(ctx, s.userRepo, []string{req.SenderID, req.ReceiverID})
		if err != nil {
			return "", nil, err
		}
		return realtime.EventFriendRequestReceived, &FriendRequestReceivedPayload{
			NotificationID: n.ID,
			FriendRequest:  summarizeRequest(req, users),
		}, nil
	case models.FriendRequestAccepted:
		friend, err := s.userRepo.GetBasicInfo(ctx, p.FriendUserID)
		if err != nil {
			return "", nil, fmt.Errorf("load friend %s: %w", p.FriendUserID, err)
		}
		return realtime.EventFriendRequestAccepted, &FriendRequestAcceptedPayload{
			NotificationID: n.ID,
			Friend:         friend,
		}, nil
	default:
		return "", nil, fmt.Errorf("unknown notification payload %T", n.Payload)
	}
}

func (s *notificationService) onFriendRequestCreated(ctx context.Context, ev events.Event) error {
	p := ev.FriendRequest
	// Cancelled before the handler ran; nothing to announce.
	if _, err := s.requestRepo.GetByID(ctx, p.RequestID); errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	n := models.NewNotification(p.ReceiverID, models.FriendRequestReceived{FriendRequestID: p.RequestID})
	if err := s.Notify(ctx, n); err != nil {
		return err
	}
	// A cancel that landed between the check and the insert saw no
	// notification to delete; clean up here instead.
	if _, err := s.requestRepo.GetByID(ctx, p.RequestID); errors.Is(err, storage.ErrNotFound) {
		s.deleteNotification(ctx, n)
	}
	return nil
}

func (s *notificationService) onFriendRequestAccepted(ctx context.Context, ev events.Event) error {
	p := ev.FriendRequest
	s.cleanupReceived(ctx, p)
	n := models.NewNotification(p.SenderID, models.FriendRequestAccepted{FriendUserID: p.ReceiverID})
	return s.Notify(ctx, n)
}

func (s *notificationService) onFriendRequestClosed(ctx context.Context, ev events.Event) error {
	s.cleanupReceived(ctx, ev.FriendRequest)
	return nil
}

// cleanupReceived removes the receiver's notification for a request that is
// no longer pending.
func (s *notificationService) cleanupReceived(ctx context.Context, p *events.FriendRequestPayload) {
	n, err := s.notificationRepo.FindByFriendRequest(ctx, p.ReceiverID, p.RequestID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("request_id", p.RequestID).Msg("failed to look up request notification")
		}
		return
	}
	s.deleteNotification(ctx, n)
}

func (s *notificationService) deleteNotification(ctx context.Context, n *models.Notification) {
	if err := s.notificationRepo.Delete(ctx, n.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logging.Ctx(ctx).Warn().Err(err).Str("notification_id", n.ID).Msg("failed to delete notification")
		return
	}
	if err := s.userRepo.RemoveFromList(ctx, n.RecipientID, models.UserNotifications, n.ID); err != nil {
		s.repair.record(ctx, "delete_notification", models.ViewUserNotifications, "User", n.RecipientID, "user.notificationIds.remove", err)
	}
}

func (s *notificationService) List(ctx context.Context, userID string, page storage.Page) (*NotificationPage, error) {
	items, err := s.notificationRepo.ListByRecipient(ctx, userID, fetchWindow(page))
	if err != nil {
		return nil, apperr.Internal("list notifications", err)
	}
	items, hasMore := trimPage(items, page.Limit)
	return &NotificationPage{Notifications: items, HasMore: hasMore}, nil
}

func (s *notificationService) CountUnseen(ctx context.Context, userID string) (int64, error) {
	n, err := s.notificationRepo.CountUnseen(ctx, userID)
	if err != nil {
		return 0, apperr.Internal("count unseen notifications", err)
	}
	return n, nil
}

// MarkRead flags one of userID's notifications as read. Notifications of
// other users are reported as not found.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notificationRepo.MarkRead(ctx, userID, notificationID); err != nil {
		return lookupErr("mark notification read", err, ErrNotificationNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllSeen(ctx context.Context, userID string) (int64, error) {
	n, err := s.notificationRepo.MarkAllSeen(ctx, userID)
	if err != nil {
		return 0, apperr.Internal("mark notifications seen", err)
	}
	return n, nil
}

func (s *notificationService) RebuildNotificationIDs(ctx context.Context, userID string) error {
	items, err := s.notificationRepo.ListByRecipient(ctx, userID, storage.Page{})
	if err != nil {
		return apperr.Internal("list notifications for rebuild", err)
	}
	ids := make([]string, 0, len(items))
	// Stored lists are append order, oldest first.
	for i := len(items) - 1; i >= 0; i-- {
		ids = append(ids, items[i].ID)
	}
	if err := s.userRepo.SetList(ctx, userID, models.UserNotifications, ids); err != nil {
		return lookupErr("set notificationIds", err, ErrUserNotFound)
	}
	return nil
}
