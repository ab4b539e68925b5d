// Package firestore persists user sessions, message audit rows and payment
// records in Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/KMDBKMDBK/emma-bot-railway/internal/session"
	"github.com/KMDBKMDBK/emma-bot-railway/llm"
)

type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) userDoc(userID int64) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(fmt.Sprintf("%d", userID))
}

func (s *Store) messagesCol() *firestore.CollectionRef {
	return s.client.Collection("messages")
}

func (s *Store) paymentsCol() *firestore.CollectionRef {
	return s.client.Collection("payments")
}

type historyTurn struct {
	Role    string `firestore:"role"`
	Content string `firestore:"content"`
}

type userDoc struct {
	History        []historyTurn `firestore:"history"`
	ActiveTopic    string        `firestore:"active_topic"`
	Premium        bool          `firestore:"premium"`
	PremiumExpiry  time.Time     `firestore:"premium_expiry"`
	RequestCount   int           `firestore:"request_count"`
	CounterResetAt time.Time     `firestore:"counter_reset_at"`

	PendingFeedback   bool `firestore:"pending_feedback"`
	FeedbackMsgID     int  `firestore:"feedback_msg_id"`
	UserFeedbackMsgID int  `firestore:"user_feedback_msg_id"`
	LastPayMsgID      int  `firestore:"last_pay_msg_id"`
}

func (s *Store) Get(ctx context.Context, userID int64) (*session.Session, error) {
	snap, err := s.userDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("firestore Get: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore Get decode: %w", err)
	}

	sess := &session.Session{
		ActiveTopic:       doc.ActiveTopic,
		Premium:           doc.Premium,
		PremiumExpiry:     doc.PremiumExpiry,
		RequestCount:      doc.RequestCount,
		CounterResetAt:    doc.CounterResetAt,
		PendingFeedback:   doc.PendingFeedback,
		FeedbackMsgID:     doc.FeedbackMsgID,
		UserFeedbackMsgID: doc.UserFeedbackMsgID,
		LastPayMsgID:      doc.LastPayMsgID,
	}
	for _, turn := range doc.History {
		sess.History = append(sess.History, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return sess, nil
}

func (s *Store) Put(ctx context.Context, userID int64, sess *session.Session) error {
	doc := userDoc{
		ActiveTopic:       sess.ActiveTopic,
		Premium:           sess.Premium,
		PremiumExpiry:     sess.PremiumExpiry,
		RequestCount:      sess.RequestCount,
		CounterResetAt:    sess.CounterResetAt,
		PendingFeedback:   sess.PendingFeedback,
		FeedbackMsgID:     sess.FeedbackMsgID,
		UserFeedbackMsgID: sess.UserFeedbackMsgID,
		LastPayMsgID:      sess.LastPayMsgID,
	}
	doc.History = make([]historyTurn, 0, len(sess.History))
	for _, m := range sess.History {
		doc.History = append(doc.History, historyTurn{Role: m.Role, Content: m.Content})
	}

	_, err := s.userDoc(userID).Set(ctx, doc, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore Put: %w", err)
	}
	return nil
}

func (s *Store) Merge(ctx context.Context, userID int64, fields map[string]any) error {
	if history, ok := fields["history"].([]llm.Message); ok {
		turns := make([]historyTurn, 0, len(history))
		for _, m := range history {
			turns = append(turns, historyTurn{Role: m.Role, Content: m.Content})
		}
		fields = cloneFields(fields)
		fields["history"] = turns
	}

	_, err := s.userDoc(userID).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore Merge: %w", err)
	}
	return nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (s *Store) LogMessage(ctx context.Context, rec session.MessageRecord) error {
	_, err := s.messagesCol().Doc(rec.ID).Set(ctx, rec)
	if err != nil {
		return fmt.Errorf("firestore LogMessage: %w", err)
	}
	return nil
}

func (s *Store) LogPayment(ctx context.Context, rec session.PaymentRecord) error {
	_, err := s.paymentsCol().Doc(rec.ID).Set(ctx, rec)
	if err != nil {
		return fmt.Errorf("firestore LogPayment: %w", err)
	}
	return nil
}

// ExpiredPremiumUsers lists user ids whose subscription flag is still set
// past its expiry. The hourly sweep clears them.
func (s *Store) ExpiredPremiumUsers(ctx context.Context, now time.Time) ([]int64, error) {
	q := s.client.Collection("users").
		Where("premium", "==", true).
		Where("premium_expiry", "<", now)

	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore ExpiredPremiumUsers: %w", err)
	}

	var ids []int64
	for _, snap := range snaps {
		var id int64
		if _, err := fmt.Sscanf(snap.Ref.ID, "%d", &id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
