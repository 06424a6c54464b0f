package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	pb "github.com/omgolab/go-relaymesh/circuitv2/pb"
)

func TestReservationErrorUnwrap(t *testing.T) {
	cause := errors.New("stream reset")
	err := &ReservationError{Status: pb.Status_CONNECTION_FAILED, Reason: "timeout", err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "CONNECTION_FAILED")
	assert.Contains(t, err.Error(), "timeout")
}

func TestDialErrorUnwrap(t *testing.T) {
	cause := errors.New("reset")
	err := &DialError{Status: pb.Status_PERMISSION_DENIED, Reason: "denied", err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PERMISSION_DENIED")
}

func TestErrInvalidCircuitAddr(t *testing.T) {
	err := &ErrInvalidCircuitAddr{Addr: "/ip4/1.2.3.4/tcp/4001"}
	assert.Contains(t, err.Error(), "/ip4/1.2.3.4/tcp/4001")
}
