package session

import "time"

// MessageRecord is the audit row written for every outbound chunk before it
// is handed to Telegram.
type MessageRecord struct {
	ID        string    `firestore:"id" json:"id"`
	UserID    int64     `firestore:"user_id" json:"user_id"`
	Direction string    `firestore:"direction" json:"direction"`
	Text      string    `firestore:"text" json:"text"`
	ParseMode string    `firestore:"parse_mode" json:"parse_mode"`
	SentAt    time.Time `firestore:"sent_at" json:"sent_at"`
}

// PaymentRecord is written once per successful Stars payment.
type PaymentRecord struct {
	ID       string    `firestore:"id" json:"id"`
	UserID   int64     `firestore:"user_id" json:"user_id"`
	PlanID   string    `firestore:"plan_id" json:"plan_id"`
	Stars    int       `firestore:"stars" json:"stars"`
	Days     int       `firestore:"days" json:"days"`
	ChargeID string    `firestore:"charge_id" json:"charge_id"`
	PaidAt   time.Time `firestore:"paid_at" json:"paid_at"`
}
