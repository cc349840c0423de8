package transaction

import (
	"time"

	"github.com/google/uuid"
)

// Period is a half-open [From, To) time range.
type Period struct {
	From time.Time
	To   time.Time
}

// Dashboard is the partner's sales overview.
type Dashboard struct {
	PartnerID uuid.UUID    `json:"partner_id"`
	From      time.Time    `json:"from"`
	To        time.Time    `json:"to"`
	Summary   Summary      `json:"summary"`
	Daily     []DailyPoint `json:"daily"`
	PageViews int64        `json:"page_views"`
	Clicks    int64        `json:"clicks"`
}
