// Package session holds per-user conversation state and its persistence
// contract.
package session

import (
	"errors"
	"time"

	"github.com/KMDBKMDBK/emma-bot-railway/llm"
)

// ErrNotFound is returned by Store.Get when the user has no stored session.
var ErrNotFound = errors.New("session: not found")

const (
	// HistoryMax bounds the stored dialog window. Older turns are dropped.
	HistoryMax = 20

	// FreeDailyLimit is the number of requests a non-premium user gets per
	// rolling 24h window.
	FreeDailyLimit = 50
)

// Session is the full per-user state. All fields are persisted.
type Session struct {
	History        []llm.Message `firestore:"history" json:"history"`
	ActiveTopic    string        `firestore:"active_topic" json:"active_topic"`
	Premium        bool          `firestore:"premium" json:"premium"`
	PremiumExpiry  time.Time     `firestore:"premium_expiry" json:"premium_expiry"`
	RequestCount   int           `firestore:"request_count" json:"request_count"`
	CounterResetAt time.Time     `firestore:"counter_reset_at" json:"counter_reset_at"`

	PendingFeedback   bool `firestore:"pending_feedback" json:"pending_feedback"`
	FeedbackMsgID     int  `firestore:"feedback_msg_id" json:"feedback_msg_id"`
	UserFeedbackMsgID int  `firestore:"user_feedback_msg_id" json:"user_feedback_msg_id"`
	LastPayMsgID      int  `firestore:"last_pay_msg_id" json:"last_pay_msg_id"`
}

func New() *Session {
	return &Session{}
}

// AppendTurn records one user/assistant exchange, dropping the oldest turns
// beyond HistoryMax.
func (s *Session) AppendTurn(userText, assistantText string) {
	s.History = append(s.History,
		llm.Message{Role: "user", Content: userText},
		llm.Message{Role: "assistant", Content: assistantText},
	)
	if len(s.History) > HistoryMax {
		s.History = s.History[len(s.History)-HistoryMax:]
	}
}

// PremiumActive reports whether a paid subscription is still in effect.
// An expired flag is left for the caller to clear and persist.
func (s *Session) PremiumActive(now time.Time) bool {
	return s.Premium && now.Before(s.PremiumExpiry)
}

// AllowRequest applies the rolling free-tier limit. Premium users always
// pass. The counter resets 24h after the first counted request.
func (s *Session) AllowRequest(now time.Time) bool {
	if s.PremiumActive(now) {
		return true
	}
	if s.CounterResetAt.IsZero() || now.After(s.CounterResetAt) {
		s.RequestCount = 0
		s.CounterResetAt = now.Add(24 * time.Hour)
	}
	if s.RequestCount >= FreeDailyLimit {
		return false
	}
	s.RequestCount++
	return true
}

// ExtendPremium activates or prolongs the subscription by the given number
// of days. An active subscription is extended from its current expiry.
func (s *Session) ExtendPremium(now time.Time, days int) {
	base := now
	if s.PremiumActive(now) {
		base = s.PremiumExpiry
	}
	s.Premium = true
	s.PremiumExpiry = base.AddDate(0, 0, days)
}
