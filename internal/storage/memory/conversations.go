package memory

import (
	"context"

	"social-go/internal/models"
	"social-go/internal/storage"
)

type conversationRepo struct{ s *state }

func (r *conversationRepo) Create(_ context.Context, conv *models.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.conversations {
		if c.ID == conv.ID || c.PairKey == conv.PairKey {
			return storage.ErrDuplicate
		}
	}
	r.s.conversations[conv.ID] = cloneConversation(conv)
	return nil
}

func (r *conversationRepo) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneConversation(c), nil
}

func (r *conversationRepo) FindByPair(_ context.Context, userID1, userID2 string) (*models.Conversation, error) {
	key := models.PairKey(userID1, userID2)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.conversations {
		if c.PairKey == key {
			return cloneConversation(c), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *conversationRepo) AppendMessage(_ context.Context, conversationID, messageID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[conversationID]
	if !ok {
		return storage.ErrNotFound
	}
	c.MessageIDs = addUnique(c.MessageIDs, messageID)
	return nil
}

type messageRepo struct{ s *state }

func (r *messageRepo) Create(_ context.Context, msg *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.messages[msg.ID]; ok {
		return storage.ErrDuplicate
	}
	r.s.messages[msg.ID] = ptrCopy(msg)
	return nil
}

func (r *messageRepo) ListByConversation(_ context.Context, conversationID string, p storage.Page) ([]*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Message{}
	for _, m := range r.s.messages {
		if m.ConversationID == conversationID {
			out = append(out, ptrCopy(m))
		}
	}
	return page(out, func(m *models.Message) string { return m.ID }, p), nil
}
