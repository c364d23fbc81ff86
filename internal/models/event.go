package models

import (
	"time"

	"github.com/google/uuid"
)

// EventOutcome records what reconciliation did with a gateway event
type EventOutcome string

const (
	EventOutcomeApplied   EventOutcome = "applied"
	EventOutcomeIgnored   EventOutcome = "ignored"
	EventOutcomeUnmatched EventOutcome = "unmatched"
)

// GatewayEventRecord is a ledger entry for a processed gateway webhook event
type GatewayEventRecord struct {
	ProcessedAt time.Time    `db:"processed_at"`
	OrderID     *uuid.UUID   `db:"order_id"`
	EventID     string       `db:"event_id"`
	EventType   string       `db:"event_type"`
	Outcome     EventOutcome `db:"outcome"`
}
