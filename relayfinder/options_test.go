package relayfinder

import (
	"context"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyPeerSource(ctx context.Context, n int) <-chan peer.AddrInfo {
	out := make(chan peer.AddrInfo)
	close(out)
	return out
}

func TestNewConfigRejectsNeitherSourceConfigured(t *testing.T) {
	_, err := newConfig(nil)
	require.Error(t, err)
}

func TestNewConfigRejectsBothSourcesConfigured(t *testing.T) {
	_, err := newConfig([]Option{
		WithStaticRelays([]peer.AddrInfo{{}}),
		WithPeerSource(dummyPeerSource),
	})
	require.ErrorIs(t, err, ErrMutuallyExclusiveSources)
}

func TestWithStaticRelaysSizesCandidateBounds(t *testing.T) {
	relays := []peer.AddrInfo{{}, {}, {}}
	cfg, err := newConfig([]Option{WithStaticRelays(relays)})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.minCandidates)
	assert.Equal(t, 3, cfg.maxCandidates)
	assert.Equal(t, 3, cfg.desiredRelays)
	// Static mode leaves boot_delay, backoff, max_candidate_age, and
	// min_interval at their defaults (spec open question: preserved as-is).
	assert.Equal(t, DefaultBootDelay, cfg.bootDelay)
	assert.Equal(t, DefaultBackoff, cfg.backoff)
	assert.Equal(t, DefaultMaxCandidateAge, cfg.maxCandidateAge)
	assert.Equal(t, DefaultMinInterval, cfg.minInterval)
}

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg, err := newConfig([]Option{WithPeerSource(dummyPeerSource)})
	require.NoError(t, err)

	assert.Equal(t, DefaultMinInterval, cfg.minInterval)
	assert.Equal(t, 4, cfg.minCandidates)
	assert.Equal(t, 20, cfg.maxCandidates)
	assert.Equal(t, DefaultBootDelay, cfg.bootDelay)
	assert.Equal(t, DefaultBackoff, cfg.backoff)
	assert.Equal(t, 2, cfg.desiredRelays)
	assert.Equal(t, DefaultMaxCandidateAge, cfg.maxCandidateAge)
}
