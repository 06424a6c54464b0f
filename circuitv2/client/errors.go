package client

import (
	"fmt"

	pb "github.com/omgolab/go-relaymesh/circuitv2/pb"
)

// ReservationError wraps a failed RESERVE exchange, carrying the relay's
// status code alongside any lower-level cause (timeout, stream reset).
type ReservationError struct {
	Status pb.Status
	Reason string
	err    error
}

func (e *ReservationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("reservation failed: %s (%s): %s", e.Status, e.Reason, e.err)
	}
	return fmt.Sprintf("reservation failed: %s (%s)", e.Status, e.Reason)
}

func (e *ReservationError) Unwrap() error { return e.err }

// DialError wraps a failed HOP CONNECT exchange.
type DialError struct {
	Status pb.Status
	Reason string
	err    error
}

func (e *DialError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("circuit dial failed: %s (%s): %s", e.Status, e.Reason, e.err)
	}
	return fmt.Sprintf("circuit dial failed: %s (%s)", e.Status, e.Reason)
}

func (e *DialError) Unwrap() error { return e.err }

// ErrInvalidCircuitAddr is returned when a dial address does not match the
// `.../p2p/<relay>/circuit[/p2p/<dest>]` grammar.
type ErrInvalidCircuitAddr struct {
	Addr string
}

func (e *ErrInvalidCircuitAddr) Error() string {
	return fmt.Sprintf("invalid circuit address: %s", e.Addr)
}
