package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pb "github.com/omgolab/go-relaymesh/circuitv2/pb"
)

func TestDelimitedWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	wr := NewDelimitedWriter(&buf)

	reserveType := pb.HopMessage_RESERVE
	sent := &pb.HopMessage{Type: &reserveType}
	require.NoError(t, wr.WriteMsg(sent))

	rd := NewDelimitedReader(&buf, 4096)
	var got pb.HopMessage
	require.NoError(t, rd.ReadMsg(&got))

	assert.Equal(t, pb.HopMessage_RESERVE, got.GetType())
}

func TestDelimitedReaderRejectsOversizedMessage(t *testing.T) {
	var buf bytes.Buffer
	wr := NewDelimitedWriter(&buf)

	id := make([]byte, 100)
	msg := &pb.Peer{Id: id}
	require.NoError(t, wr.WriteMsg(msg))

	rd := NewDelimitedReader(&buf, 10)
	var got pb.Peer
	err := rd.ReadMsg(&got)
	assert.Error(t, err)
}
