package client

import (
	"io"

	"github.com/libp2p/go-libp2p/core/network"
)

// prependedStream re-presents leftover bytes the relay may have already
// written to s immediately after its STATUS OK response, so the first
// application-level Read sees them before anything s itself produces. Once
// the prefix is drained every call is forwarded directly to s.
type prependedStream struct {
	network.Stream
	prefix []byte
}

func newPrependedStream(s network.Stream, prefix []byte) network.Stream {
	if len(prefix) == 0 {
		return s
	}
	return &prependedStream{Stream: s, prefix: prefix}
}

func (p *prependedStream) Read(b []byte) (int, error) {
	if len(p.prefix) == 0 {
		return p.Stream.Read(b)
	}
	n := copy(b, p.prefix)
	p.prefix = p.prefix[n:]
	return n, nil
}

var _ io.Reader = (*prependedStream)(nil)
