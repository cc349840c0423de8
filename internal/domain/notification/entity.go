package notification

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
)

// Type represents notification type
type Type string

const (
	TypeExpiringSoon  Type = "expiring_soon"  // Subscriber: plan ends in 7 days
	TypeExpiringToday Type = "expiring_today" // Subscriber: plan ends today
	TypeExpired       Type = "expired"        // Subscriber: plan expired
	TypeNewSubscriber Type = "new_subscriber" // Subscriber: plan activated
	TypeSaleConfirmed Type = "sale_confirmed" // Subscriber: purchase recorded at a partner
)

// Notification represents a user notification
type Notification struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	SubscriberID uuid.NullUUID   `db:"subscriber_id" json:"subscriber_id"`
	Type         Type            `db:"type" json:"type"`
	Title        string          `db:"title" json:"title"`
	Body         string          `db:"body" json:"body"`
	Data         json.RawMessage `db:"data" json:"data,omitempty"`
	IsRead       bool            `db:"is_read" json:"is_read"`
	ReadAt       sql.NullTime    `db:"read_at" json:"read_at,omitempty"`
	DateBucket   time.Time       `db:"date_bucket" json:"-"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Data links a notification to the entity it talks about
type Data struct {
	PlanEndDate   string     `json:"plan_end_date,omitempty"`
	PlanName      string     `json:"plan_name,omitempty"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	PartnerID     *uuid.UUID `json:"partner_id,omitempty"`
	PartnerName   string     `json:"partner_name,omitempty"`
	FinalAmount   string     `json:"final_amount,omitempty"`
}

// SetData encodes data to JSON
func (n *Notification) SetData(data *Data) {
	if data != nil {
		n.Data, _ = json.Marshal(data)
	}
}

// GetData decodes data from JSON
func (n *Notification) GetData() *Data {
	if n.Data == nil {
		return &Data{}
	}
	var data Data
	_ = json.Unmarshal(n.Data, &data)
	return &data
}

// Recipient is everything the dispatcher needs to reach one subscriber.
type Recipient struct {
	UserID       uuid.UUID
	SubscriberID uuid.UUID
	Name         string
	Email        string
	PushToken    string
	PlanName     string
	PlanEndDate  *time.Time
	Points       string
}

// SubscriberRecipient addresses a subscriber through their login user.
func SubscriberRecipient(sub *subscriber.Subscriber, planName string) Recipient {
	return Recipient{
		UserID:       sub.UserID,
		SubscriberID: sub.ID,
		Name:         sub.Name,
		Email:        sub.Email,
		PushToken:    sub.PushTokenValue(),
		PlanName:     planName,
		PlanEndDate:  sub.PlanEndDate,
		Points:       sub.Points.String(),
	}
}
