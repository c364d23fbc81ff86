package models

// Product is a purchasable catalog entry
type Product struct {
	ID          string `json:"id"`
	Plan        string `json:"plan"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval,omitempty"` // month or year, defaults to month
	PriceID     string `json:"price_id,omitempty"` // gateway-side price identifier
	AmountCents int64  `json:"amount_cents"`
}
