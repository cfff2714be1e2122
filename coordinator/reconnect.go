package coordinator

import "time"

// ReconnectPolicy governs the coordinator's optional automatic-reconnect
// behavior after a session ends in failure. Defaults grounded in
// original_source/network/connection.rs's retry constants
// (RECONNECT_RETRIES, RECONNECT_BASE_DELAY_SECONDS, RECONNECT_MAX_EXPONENT).
type ReconnectPolicy struct {
	Enabled     bool
	MaxRetries  int
	BaseDelay   time.Duration
	MaxExponent int
}

// DefaultReconnectPolicy mirrors the original implementation's defaults:
// 999 retries, a 100ms base delay, capped at 2^5 multiples of the base.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Enabled:     true,
		MaxRetries:  999,
		BaseDelay:   100 * time.Millisecond,
		MaxExponent: 5,
	}
}

// delay returns the exponential backoff for the given zero-based attempt
// number, capped at BaseDelay*2^MaxExponent.
func (p ReconnectPolicy) delay(attempt int) time.Duration {
	exp := attempt
	if exp > p.MaxExponent {
		exp = p.MaxExponent
	}
	return p.BaseDelay << exp
}
