package pb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHopMessageRoundTrip(t *testing.T) {
	connectType := HopMessage_CONNECT
	status := Status_OK
	sessionID := "abc-123"
	duration := uint32(60)
	data := uint64(1 << 20)

	msg := &HopMessage{
		Type: &connectType,
		Peer: &Peer{
			Id:    []byte("peer-id"),
			Addrs: [][]byte{[]byte("addr-1"), []byte("addr-2")},
		},
		Limit: &Limit{
			Duration: &duration,
			Data:     &data,
		},
		Status:              &status,
		DiagnosticSessionId: &sessionID,
	}

	b, err := msg.Marshal()
	require.NoError(t, err)
	assert.Equal(t, msg.Size(), len(b))

	var got HopMessage
	require.NoError(t, got.Unmarshal(b))

	assert.Equal(t, HopMessage_CONNECT, got.GetType())
	assert.Equal(t, []byte("peer-id"), got.GetPeer().GetId())
	assert.Equal(t, [][]byte{[]byte("addr-1"), []byte("addr-2")}, got.GetPeer().GetAddrs())
	assert.Equal(t, uint32(60), got.GetLimit().GetDuration())
	assert.Equal(t, uint64(1<<20), got.GetLimit().GetData())
	assert.Equal(t, Status_OK, got.GetStatus())
	assert.Equal(t, "abc-123", got.GetDiagnosticSessionId())
}

func TestStopMessageRoundTrip(t *testing.T) {
	connectType := StopMessage_CONNECT
	msg := &StopMessage{
		Type: &connectType,
		Peer: &Peer{Id: []byte("dest-id")},
	}

	b, err := msg.Marshal()
	require.NoError(t, err)

	var got StopMessage
	require.NoError(t, got.Unmarshal(b))
	assert.Equal(t, StopMessage_CONNECT, got.GetType())
	assert.Equal(t, []byte("dest-id"), got.GetPeer().GetId())
}

func TestReservationRoundTrip(t *testing.T) {
	expire := uint64(1234567890)
	rsvp := &Reservation{
		Expire:  &expire,
		Addrs:   [][]byte{[]byte("a1")},
		Voucher: []byte("signed-envelope"),
	}

	b, err := rsvp.Marshal()
	require.NoError(t, err)

	var got Reservation
	require.NoError(t, got.Unmarshal(b))
	assert.Equal(t, expire, got.GetExpire())
	assert.Equal(t, [][]byte{[]byte("a1")}, got.GetAddrs())
	assert.Equal(t, []byte("signed-envelope"), got.GetVoucher())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK", Status_OK.String())
	assert.Equal(t, "MALFORMED_MESSAGE", Status_MALFORMED_MESSAGE.String())
	assert.Contains(t, Status(999).String(), "999")
}
