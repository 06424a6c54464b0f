package relayfinder

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
)

// PeerSource yields up to numPeers candidate AddrInfos and then closes the
// channel. It is the external feed the candidate discovery loop pulls from.
type PeerSource func(ctx context.Context, numPeers int) <-chan peer.AddrInfo

const (
	DefaultMinInterval         = 30 * time.Second
	DefaultMinCandidates       = 4
	DefaultMaxCandidates       = 20
	DefaultBootDelay           = 3 * time.Minute
	DefaultBackoff             = time.Hour
	DefaultDesiredRelays       = 2
	DefaultMaxCandidateAge     = 30 * time.Minute
	DefaultRsvpRefreshInterval = time.Minute
	DefaultRsvpExpirationSlack = 2 * time.Minute
	DefaultVetTimeout          = 20 * time.Second
	DefaultDialTimeout         = 10 * time.Second
	DefaultReserveTimeout      = 10 * time.Second
)

var ErrMutuallyExclusiveSources = errors.New("relayfinder: static_relays and peer_source are mutually exclusive")

// config holds the resolved options for a RelayFinder.
type config struct {
	staticRelays []peer.AddrInfo
	peerSource   PeerSource

	minInterval         time.Duration
	minCandidates       int
	maxCandidates       int
	bootDelay           time.Duration
	backoff             time.Duration
	desiredRelays       int
	maxCandidateAge     time.Duration
	rsvpRefreshInterval time.Duration
	rsvpExpirationSlack time.Duration

	metrics MetricsTracer
	randSrc rand.Source
}

// Option configures a RelayFinder at construction time.
type Option func(*config) error

func defaultConfig() *config {
	return &config{
		minInterval:         DefaultMinInterval,
		minCandidates:       DefaultMinCandidates,
		maxCandidates:       DefaultMaxCandidates,
		bootDelay:           DefaultBootDelay,
		backoff:             DefaultBackoff,
		desiredRelays:       DefaultDesiredRelays,
		maxCandidateAge:     DefaultMaxCandidateAge,
		rsvpRefreshInterval: DefaultRsvpRefreshInterval,
		rsvpExpirationSlack: DefaultRsvpExpirationSlack,
		metrics:             noopMetrics{},
	}
}

// WithStaticRelays replaces the peer source with a fixed set of relays and
// sizes min_candidates/max_candidates/desired_relays to match, per the
// configuration table: static mode does not otherwise adjust boot_delay,
// backoff, max_candidate_age, or min_interval.
func WithStaticRelays(relays []peer.AddrInfo) Option {
	return func(c *config) error {
		if c.peerSource != nil {
			return ErrMutuallyExclusiveSources
		}
		c.staticRelays = relays
		c.minCandidates = len(relays)
		c.maxCandidates = len(relays)
		c.desiredRelays = len(relays)
		return nil
	}
}

// WithPeerSource supplies the candidate feed. Required unless WithStaticRelays
// is used.
func WithPeerSource(source PeerSource) Option {
	return func(c *config) error {
		if len(c.staticRelays) > 0 {
			return ErrMutuallyExclusiveSources
		}
		c.peerSource = source
		return nil
	}
}

func WithMinInterval(d time.Duration) Option {
	return func(c *config) error { c.minInterval = d; return nil }
}

func WithMinCandidates(n int) Option {
	return func(c *config) error { c.minCandidates = n; return nil }
}

func WithMaxCandidates(n int) Option {
	return func(c *config) error { c.maxCandidates = n; return nil }
}

func WithBootDelay(d time.Duration) Option {
	return func(c *config) error { c.bootDelay = d; return nil }
}

func WithBackoff(d time.Duration) Option {
	return func(c *config) error { c.backoff = d; return nil }
}

func WithDesiredRelays(n int) Option {
	return func(c *config) error { c.desiredRelays = n; return nil }
}

func WithMaxCandidateAge(d time.Duration) Option {
	return func(c *config) error { c.maxCandidateAge = d; return nil }
}

func WithRsvpRefreshInterval(d time.Duration) Option {
	return func(c *config) error { c.rsvpRefreshInterval = d; return nil }
}

func WithRsvpExpirationSlack(d time.Duration) Option {
	return func(c *config) error { c.rsvpExpirationSlack = d; return nil }
}

// WithMetrics attaches an optional metrics tracer. Not providing one leaves
// the no-op default in place.
func WithMetrics(m MetricsTracer) Option {
	return func(c *config) error {
		if m != nil {
			c.metrics = m
		}
		return nil
	}
}

// WithRandSource overrides the RNG used to shuffle candidates before a
// reservation attempt. Production code leaves this unset and gets a
// time-seeded source; tests inject a deterministic one so candidate
// selection order is reproducible.
func WithRandSource(src rand.Source) Option {
	return func(c *config) error {
		c.randSrc = src
		return nil
	}
}

func newConfig(opts []Option) (*config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if len(c.staticRelays) == 0 && c.peerSource == nil {
		return nil, errors.New("relayfinder: one of static_relays or peer_source is required")
	}
	return c, nil
}
