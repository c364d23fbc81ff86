// Package idempotency derives bucketed idempotency keys for purchase requests.
package idempotency

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// DefaultWindow is the bucket length used when none is configured
const DefaultWindow = 60 * time.Second

// Key is a derived idempotency key together with the bucket it was derived in
type Key struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Value       string
	Bucket      int64
}

func (k Key) String() string {
	return k.Value
}

// Deriver turns (subject, product, time) into a stable key.
// Same subject and product inside one bucket yield the same key.
type Deriver struct {
	window time.Duration
}

// NewDeriver creates a Deriver. Windows shorter than a millisecond fall back to DefaultWindow.
func NewDeriver(window time.Duration) *Deriver {
	if window < time.Millisecond {
		window = DefaultWindow
	}
	return &Deriver{window: window}
}

// Window returns the configured bucket length
func (d *Deriver) Window() time.Duration {
	return d.window
}

// Derive computes the key for the given subject and product at now
func (d *Deriver) Derive(subjectID, productID string, now time.Time) Key {
	bucket := d.bucket(now)
	start := time.UnixMilli(bucket * d.window.Milliseconds()).UTC()

	return Key{
		Value:       digest(subjectID, productID, bucket),
		Bucket:      bucket,
		WindowStart: start,
		WindowEnd:   start.Add(d.window),
	}
}

// Remaining returns how long the bucket containing now stays open
func (d *Deriver) Remaining(now time.Time) time.Duration {
	windowMS := d.window.Milliseconds()
	elapsed := floorMod(now.UnixMilli(), windowMS)
	return time.Duration(windowMS-elapsed) * time.Millisecond
}

func (d *Deriver) bucket(now time.Time) int64 {
	ms := now.UnixMilli()
	windowMS := d.window.Milliseconds()
	return (ms - floorMod(ms, windowMS)) / windowMS
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// digest length-prefixes each field so ("ab","c") and ("a","bc") never collide.
func digest(subjectID, productID string, bucket int64) string {
	h := sha256.New()
	var buf [8]byte

	for _, field := range []string{subjectID, productID} {
		binary.BigEndian.PutUint64(buf[:], uint64(len(field)))
		h.Write(buf[:])
		h.Write([]byte(field))
	}
	binary.BigEndian.PutUint64(buf[:], uint64(bucket))
	h.Write(buf[:])

	return hex.EncodeToString(h.Sum(nil))
}
