package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriver_SameBucketSameKey(t *testing.T) {
	d := NewDeriver(time.Minute)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := d.Derive("u1", "monthly", base.Add(1*time.Second))
	second := d.Derive("u1", "monthly", base.Add(59*time.Second))

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Bucket, second.Bucket)
	assert.Len(t, first.Value, 64)
}

func TestDeriver_BucketBoundaryChangesKey(t *testing.T) {
	d := NewDeriver(time.Minute)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	before := d.Derive("u1", "monthly", base.Add(-time.Millisecond))
	after := d.Derive("u1", "monthly", base)

	assert.NotEqual(t, before.Value, after.Value)
	assert.Equal(t, before.Bucket+1, after.Bucket)
}

func TestDeriver_DistinctInputs(t *testing.T) {
	d := NewDeriver(time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)

	tests := []struct {
		name      string
		subject   string
		product   string
		otherSubj string
		otherProd string
	}{
		{"different subject", "u1", "monthly", "u2", "monthly"},
		{"different product", "u1", "monthly", "u1", "yearly"},
		{"field boundary shift", "ab", "c", "a", "bc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := d.Derive(tt.subject, tt.product, now)
			b := d.Derive(tt.otherSubj, tt.otherProd, now)
			assert.NotEqual(t, a.Value, b.Value)
		})
	}
}

func TestDeriver_WindowBounds(t *testing.T) {
	d := NewDeriver(time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 45, 0, time.UTC)

	key := d.Derive("u1", "monthly", now)

	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), key.WindowStart)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 1, 0, 0, time.UTC), key.WindowEnd)
	assert.Equal(t, 15*time.Second, d.Remaining(now))
}

func TestDeriver_DefaultWindow(t *testing.T) {
	assert.Equal(t, DefaultWindow, NewDeriver(0).Window())
	assert.Equal(t, 5*time.Minute, NewDeriver(5*time.Minute).Window())
}

func TestDeriver_NinetySecondsLaterIsNewAttempt(t *testing.T) {
	d := NewDeriver(time.Minute)
	first := time.Date(2026, 3, 1, 10, 0, 10, 0, time.UTC)

	a := d.Derive("u1", "monthly", first)
	b := d.Derive("u1", "monthly", first.Add(90*time.Second))

	assert.NotEqual(t, a.Value, b.Value)
}
