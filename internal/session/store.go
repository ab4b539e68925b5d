package session

import (
	"context"
	"sync"
	"time"

	"github.com/KMDBKMDBK/emma-bot-railway/llm"
)

// Store persists sessions keyed by Telegram user id. Get returns
// ErrNotFound for unknown users; Merge updates only the named fields.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Put(ctx context.Context, userID int64, s *Session) error
	Merge(ctx context.Context, userID int64, fields map[string]any) error
}

// MemoryStore keeps sessions in process memory. It backs local runs and
// tests; production uses the Firestore store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	cp.History = append([]llm.Message(nil), s.History...)
	return &cp, nil
}

func (m *MemoryStore) Put(_ context.Context, userID int64, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.History = append([]llm.Message(nil), s.History...)
	m.sessions[userID] = &cp
	return nil
}

func (m *MemoryStore) Merge(ctx context.Context, userID int64, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = New()
		m.sessions[userID] = s
	}
	applyFields(s, fields)
	return nil
}

// applyFields mirrors a Firestore merge write for the field names the bot
// updates in place.
func applyFields(s *Session, fields map[string]any) {
	for name, value := range fields {
		switch name {
		case "history":
			if v, ok := value.([]llm.Message); ok {
				s.History = append([]llm.Message(nil), v...)
			}
		case "active_topic":
			if v, ok := value.(string); ok {
				s.ActiveTopic = v
			}
		case "premium":
			if v, ok := value.(bool); ok {
				s.Premium = v
			}
		case "premium_expiry":
			if v, ok := value.(time.Time); ok {
				s.PremiumExpiry = v
			}
		case "request_count":
			if v, ok := value.(int); ok {
				s.RequestCount = v
			}
		case "counter_reset_at":
			if v, ok := value.(time.Time); ok {
				s.CounterResetAt = v
			}
		case "pending_feedback":
			if v, ok := value.(bool); ok {
				s.PendingFeedback = v
			}
		case "feedback_msg_id":
			if v, ok := value.(int); ok {
				s.FeedbackMsgID = v
			}
		case "user_feedback_msg_id":
			if v, ok := value.(int); ok {
				s.UserFeedbackMsgID = v
			}
		case "last_pay_msg_id":
			if v, ok := value.(int); ok {
				s.LastPayMsgID = v
			}
		}
	}
}
