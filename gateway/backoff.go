package gateway

import "time"

// Backoff decides how long to wait before reconnect attempt n (1-based).
// Injected so tests can assert state transitions without real delays.
type Backoff interface {
	Next(attempt int) time.Duration
}

// LinearBackoff 按次数线性增长，封顶 Max。
type LinearBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b LinearBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt) * b.Base
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}

// NoBackoff reconnects immediately; matches the baseline behavior and keeps
// tests fast.
type NoBackoff struct{}

func (NoBackoff) Next(int) time.Duration { return 0 }
