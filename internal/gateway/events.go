package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// signatureVerifier checks the t=<unix>,v1=<hex hmac-sha256> scheme over the raw body
type signatureVerifier struct {
	secret string
}

// VerifyEvent authenticates payload against the signature header and decodes it
func (v signatureVerifier) VerifyEvent(payload []byte, signatureHeader string) (*Event, error) {
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("missing signature header: %w", ErrInvalidSignature)
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return normalizeEvent(evt)
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

type checkoutSessionObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	PaymentStatus     string            `json:"payment_status"`
	Metadata          map[string]string `json:"metadata"`
	Customer          json.RawMessage   `json:"customer"`
	Subscription      json.RawMessage   `json:"subscription"`
}

type subscriptionObject struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	Metadata         map[string]string `json:"metadata"`
	Customer         json.RawMessage   `json:"customer"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	EndedAt          int64             `json:"ended_at"`
	Items            struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// periodEnd prefers the subscription-level field and falls back to the latest item period
func (s subscriptionObject) periodEnd() *time.Time {
	end := s.CurrentPeriodEnd
	for _, item := range s.Items.Data {
		if item.CurrentPeriodEnd > end {
			end = item.CurrentPeriodEnd
		}
	}
	if end <= 0 {
		return nil
	}
	t := time.Unix(end, 0).UTC()
	return &t
}

func normalizeEvent(evt stripe.Event) (*Event, error) {
	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if out.ID == "" || out.Type == "" {
		return nil, fmt.Errorf("%w: event id and type are required", ErrInvalidPayload)
	}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return out, nil
	}

	switch {
	case strings.HasPrefix(out.Type, "checkout.session."):
		var session checkoutSessionObject
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: decode checkout session: %v", ErrInvalidPayload, err)
		}
		out.SessionID = session.ID
		out.CustomerID = expandableID(session.Customer)
		out.SubscriptionID = expandableID(session.Subscription)
		out.PaymentStatus = session.PaymentStatus
		out.OrderID = session.Metadata[MetadataOrderID]
		if out.OrderID == "" {
			out.OrderID = session.ClientReferenceID
		}

	case strings.HasPrefix(out.Type, "customer.subscription."):
		var sub subscriptionObject
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: decode subscription: %v", ErrInvalidPayload, err)
		}
		out.SubscriptionID = sub.ID
		out.CustomerID = expandableID(sub.Customer)
		out.SubscriptionStatus = sub.Status
		out.OrderID = sub.Metadata[MetadataOrderID]
		out.PeriodEnd = sub.periodEnd()
	}

	return out, nil
}

// expandableID reads a field that is either an id string or an expanded object with an id
func expandableID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}
