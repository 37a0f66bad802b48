// Package resilience pauses requests to hosts that keep failing, so a site
// that has started blocking us is skipped quickly instead of costing a
// timeout on every lookup.
package resilience

import (
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is a breaker's position.
type State int

const (
	// Closed lets requests through.
	Closed State = iota
	// Open rejects requests until the cooldown passes.
	Open
	// HalfOpen lets a single probe through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a request is rejected by an open breaker.
var ErrOpen = eris.New("circuit breaker is open")

// BreakerConfig controls when a breaker opens and for how long.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive host failures that opens
	// the breaker. Zero or less disables breaking.
	FailureThreshold int
	// Cooldown is how long an open breaker rejects requests.
	Cooldown time.Duration
}

// Breaker tracks consecutive failures for one host.
type Breaker struct {
	host string
	cfg  BreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

// NewBreaker creates a closed breaker for host.
func NewBreaker(host string, cfg BreakerConfig) *Breaker {
	return &Breaker{host: host, cfg: cfg, now: time.Now}
}

// Allow reports whether a request may proceed. An open breaker moves to
// half-open once the cooldown has passed and admits one probe. A nil
// breaker allows everything.
func (b *Breaker) Allow() error {
	if b == nil || b.cfg.FailureThreshold <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrOpen
		}
		b.transition(HalfOpen)
		b.probing = true
		return nil
	case HalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

// Record reports the outcome of an allowed request. Errors that are not
// host failures (see IsHostFailure) count as neither success nor failure.
func (b *Breaker) Record(err error) {
	if b == nil || b.cfg.FailureThreshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	switch {
	case err == nil:
		b.failures = 0
		if b.state != Closed {
			b.transition(Closed)
		}
	case IsHostFailure(err):
		b.failures++
		if b.state == HalfOpen || b.failures >= b.cfg.FailureThreshold {
			b.openedAt = b.now()
			if b.state != Open {
				b.transition(Open)
			}
		}
	}
}

// State returns the breaker's current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	zap.L().Info("circuit breaker state change",
		zap.String("host", b.host),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int("failures", b.failures),
	)
}

// HostBreakers holds one breaker per host.
type HostBreakers struct {
	cfg BreakerConfig

	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewHostBreakers creates an empty registry. Every breaker it hands out
// shares cfg.
func NewHostBreakers(cfg BreakerConfig) *HostBreakers {
	return &HostBreakers{cfg: cfg, breakers: make(map[string]*Breaker)}
}

// For returns the breaker for rawURL's host, creating it on first use. It
// returns nil for a nil registry or an unparseable URL.
func (h *HostBreakers) For(rawURL string) *Breaker {
	if h == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	h.mu.RLock()
	b, ok := h.breakers[u.Host]
	h.mu.RUnlock()
	if ok {
		return b
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok = h.breakers[u.Host]; ok {
		return b
	}
	b = NewBreaker(u.Host, h.cfg)
	h.breakers[u.Host] = b
	return b
}

// States returns a snapshot of every known host's state by name.
func (h *HostBreakers) States() map[string]string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	states := make(map[string]string, len(h.breakers))
	for host, b := range h.breakers {
		states[host] = b.State().String()
	}
	return states
}
