package gateway

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// FaultConfig injects latency and random failures into simulated provider calls
type FaultConfig struct {
	FailureRate  float64
	MinLatencyMS int
	MaxLatencyMS int
}

// injectLatency sleeps for a random duration in [MinLatencyMS, MaxLatencyMS),
// returning early with ctx.Err() if the context ends first.
func (f FaultConfig) injectLatency(ctx context.Context) error {
	if f.MinLatencyMS <= 0 && f.MaxLatencyMS <= 0 {
		return nil
	}

	delay := time.Duration(f.MinLatencyMS) * time.Millisecond
	if rangeMS := f.MaxLatencyMS - f.MinLatencyMS; rangeMS > 0 {
		if offset, err := rand.Int(rand.Reader, big.NewInt(int64(rangeMS))); err == nil {
			delay += time.Duration(offset.Int64()) * time.Millisecond
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f FaultConfig) shouldFail() bool {
	if f.FailureRate <= 0 {
		return false
	}
	if f.FailureRate >= 1 {
		return true
	}

	const precision = 1000000
	n, err := rand.Int(rand.Reader, big.NewInt(precision))
	if err != nil {
		return false
	}
	return n.Int64() < int64(f.FailureRate*precision)
}
