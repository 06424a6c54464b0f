// Package pb holds the wire types for the circuit relay v2 HOP and STOP
// protocols (see the protocol spec referenced by circuitv2/proto). The
// message shapes and field numbers are fixed by the wire protocol and must
// not change without a protocol version bump.
package pb

import (
	"fmt"
	"io"
)

// HopMessage_Type enumerates the kinds of message exchanged on the HOP
// stream.
type HopMessage_Type int32

const (
	HopMessage_RESERVE HopMessage_Type = 1
	HopMessage_CONNECT HopMessage_Type = 2
	HopMessage_STATUS  HopMessage_Type = 3
)

var HopMessage_Type_name = map[int32]string{
	1: "RESERVE",
	2: "CONNECT",
	3: "STATUS",
}

func (t HopMessage_Type) String() string {
	if s, ok := HopMessage_Type_name[int32(t)]; ok {
		return s
	}
	return fmt.Sprintf("HopMessage_Type(%d)", int32(t))
}

// StopMessage_Type enumerates the kinds of message exchanged on the STOP
// stream.
type StopMessage_Type int32

const (
	StopMessage_CONNECT StopMessage_Type = 1
	StopMessage_STATUS  StopMessage_Type = 2
)

var StopMessage_Type_name = map[int32]string{
	1: "CONNECT",
	2: "STATUS",
}

func (t StopMessage_Type) String() string {
	if s, ok := StopMessage_Type_name[int32(t)]; ok {
		return s
	}
	return fmt.Sprintf("StopMessage_Type(%d)", int32(t))
}

// Status is the shared status code space for HOP and STOP responses.
type Status int32

const (
	Status_OK                      Status = 100
	Status_RESERVATION_REFUSED     Status = 200
	Status_RESOURCE_LIMIT_EXCEEDED Status = 201
	Status_PERMISSION_DENIED       Status = 202
	Status_CONNECTION_FAILED       Status = 203
	Status_NO_RESERVATION          Status = 204
	Status_MALFORMED_MESSAGE       Status = 400
	Status_UNEXPECTED_MESSAGE      Status = 401
)

var Status_name = map[int32]string{
	100: "OK",
	200: "RESERVATION_REFUSED",
	201: "RESOURCE_LIMIT_EXCEEDED",
	202: "PERMISSION_DENIED",
	203: "CONNECTION_FAILED",
	204: "NO_RESERVATION",
	400: "MALFORMED_MESSAGE",
	401: "UNEXPECTED_MESSAGE",
}

func (s Status) String() string {
	if n, ok := Status_name[int32(s)]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// Peer carries a peer ID and its known addresses, both in their canonical
// binary forms.
type Peer struct {
	Id    []byte   `protobuf:"bytes,1,opt,name=id"`
	Addrs [][]byte `protobuf:"bytes,2,rep,name=addrs"`
}

func (m *Peer) Reset()         { *m = Peer{} }
func (m *Peer) String() string { return fmt.Sprintf("%+v", *m) }
func (*Peer) ProtoMessage()    {}

func (m *Peer) GetId() []byte {
	if m != nil {
		return m.Id
	}
	return nil
}

func (m *Peer) GetAddrs() [][]byte {
	if m != nil {
		return m.Addrs
	}
	return nil
}

// Limit bounds a relayed connection's lifetime and byte budget.
type Limit struct {
	Duration *uint32 `protobuf:"varint,1,opt,name=duration"`
	Data     *uint64 `protobuf:"varint,2,opt,name=data"`
}

func (m *Limit) Reset()         { *m = Limit{} }
func (m *Limit) String() string { return fmt.Sprintf("%+v", *m) }
func (*Limit) ProtoMessage()    {}

func (m *Limit) GetDuration() uint32 {
	if m != nil && m.Duration != nil {
		return *m.Duration
	}
	return 0
}

func (m *Limit) GetData() uint64 {
	if m != nil && m.Data != nil {
		return *m.Data
	}
	return 0
}

// Reservation is the relay's grant of a time-bounded slot.
type Reservation struct {
	Expire  *uint64  `protobuf:"varint,1,opt,name=expire"`
	Addrs   [][]byte `protobuf:"bytes,2,rep,name=addrs"`
	Voucher []byte   `protobuf:"bytes,3,opt,name=voucher"`
}

func (m *Reservation) Reset()         { *m = Reservation{} }
func (m *Reservation) String() string { return fmt.Sprintf("%+v", *m) }
func (*Reservation) ProtoMessage()    {}

func (m *Reservation) GetExpire() uint64 {
	if m != nil && m.Expire != nil {
		return *m.Expire
	}
	return 0
}

func (m *Reservation) GetAddrs() [][]byte {
	if m != nil {
		return m.Addrs
	}
	return nil
}

func (m *Reservation) GetVoucher() []byte {
	if m != nil {
		return m.Voucher
	}
	return nil
}

// HopMessage is the message family spoken on the HOP protocol.
type HopMessage struct {
	Type                *HopMessage_Type `protobuf:"varint,1,opt,name=type,enum=HopMessage_Type"`
	Peer                *Peer            `protobuf:"bytes,2,opt,name=peer"`
	Reservation         *Reservation     `protobuf:"bytes,3,opt,name=reservation"`
	Limit               *Limit           `protobuf:"bytes,4,opt,name=limit"`
	Status              *Status          `protobuf:"varint,5,opt,name=status,enum=Status"`
	DiagnosticSessionId *string          `protobuf:"bytes,6,opt,name=diagnosticSessionId"`
}

func (m *HopMessage) Reset()         { *m = HopMessage{} }
func (m *HopMessage) String() string { return fmt.Sprintf("%+v", *m) }
func (*HopMessage) ProtoMessage()    {}

func (m *HopMessage) GetType() HopMessage_Type {
	if m != nil && m.Type != nil {
		return *m.Type
	}
	return 0
}

func (m *HopMessage) GetPeer() *Peer {
	if m != nil {
		return m.Peer
	}
	return nil
}

func (m *HopMessage) GetReservation() *Reservation {
	if m != nil {
		return m.Reservation
	}
	return nil
}

func (m *HopMessage) GetLimit() *Limit {
	if m != nil {
		return m.Limit
	}
	return nil
}

func (m *HopMessage) GetStatus() Status {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return 0
}

func (m *HopMessage) GetDiagnosticSessionId() string {
	if m != nil && m.DiagnosticSessionId != nil {
		return *m.DiagnosticSessionId
	}
	return ""
}

// StopMessage is the message family the relay speaks to the destination
// peer on the STOP protocol.
type StopMessage struct {
	Type                *StopMessage_Type `protobuf:"varint,1,opt,name=type,enum=StopMessage_Type"`
	Peer                *Peer             `protobuf:"bytes,2,opt,name=peer"`
	Limit               *Limit            `protobuf:"bytes,3,opt,name=limit"`
	Status              *Status           `protobuf:"varint,4,opt,name=status,enum=Status"`
	DiagnosticSessionId *string           `protobuf:"bytes,5,opt,name=diagnosticSessionId"`
}

func (m *StopMessage) Reset()         { *m = StopMessage{} }
func (m *StopMessage) String() string { return fmt.Sprintf("%+v", *m) }
func (*StopMessage) ProtoMessage()    {}

func (m *StopMessage) GetType() StopMessage_Type {
	if m != nil && m.Type != nil {
		return *m.Type
	}
	return 0
}

func (m *StopMessage) GetPeer() *Peer {
	if m != nil {
		return m.Peer
	}
	return nil
}

func (m *StopMessage) GetLimit() *Limit {
	if m != nil {
		return m.Limit
	}
	return nil
}

func (m *StopMessage) GetStatus() Status {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return 0
}

func (m *StopMessage) GetDiagnosticSessionId() string {
	if m != nil && m.DiagnosticSessionId != nil {
		return *m.DiagnosticSessionId
	}
	return ""
}

// --- wire encoding -----------------------------------------------------
//
// Hand-written in the style of gogofaster-generated code: no reflection,
// explicit field tags. sov/enc/skip helpers follow the naming convention
// used throughout the go-libp2p pb packages (sovCircuit, encodeVarintCircuit).

const (
	wireVarint = 0
	wireBytes  = 2
)

func sovCircuit(x uint64) (n int) {
	for {
		n++
		x >>= 7
		if x == 0 {
			break
		}
	}
	return n
}

func appendUvarint(dAtA []byte, v uint64) []byte {
	for v >= 1<<7 {
		dAtA = append(dAtA, uint8(v&0x7f|0x80))
		v >>= 7
	}
	return append(dAtA, uint8(v))
}

func appendBytesField(dAtA []byte, fieldNum int, b []byte) []byte {
	key := uint64(fieldNum)<<3 | wireBytes
	dAtA = appendUvarint(dAtA, key)
	dAtA = appendUvarint(dAtA, uint64(len(b)))
	return append(dAtA, b...)
}

func appendVarintField(dAtA []byte, fieldNum int, v uint64) []byte {
	key := uint64(fieldNum)<<3 | wireVarint
	dAtA = appendUvarint(dAtA, key)
	return appendUvarint(dAtA, v)
}

func sizeBytesField(fieldNum int, b []byte) int {
	key := uint64(fieldNum)<<3 | wireBytes
	return sovCircuit(key) + sovCircuit(uint64(len(b))) + len(b)
}

func sizeVarintField(fieldNum int, v uint64) int {
	key := uint64(fieldNum)<<3 | wireVarint
	return sovCircuit(key) + sovCircuit(v)
}

// Peer

func (m *Peer) Size() (n int) {
	if m == nil {
		return 0
	}
	if len(m.Id) > 0 {
		n += sizeBytesField(1, m.Id)
	}
	for _, a := range m.Addrs {
		n += sizeBytesField(2, a)
	}
	return n
}

func (m *Peer) Marshal() ([]byte, error) {
	dAtA := make([]byte, 0, m.Size())
	if len(m.Id) > 0 {
		dAtA = appendBytesField(dAtA, 1, m.Id)
	}
	for _, a := range m.Addrs {
		dAtA = appendBytesField(dAtA, 2, a)
	}
	return dAtA, nil
}

func (m *Peer) Unmarshal(dAtA []byte) error {
	return unmarshalFields(dAtA, func(fieldNum int, wireType int, data []byte) error {
		switch fieldNum {
		case 1:
			if wireType != wireBytes {
				return errWireType(fieldNum, wireType)
			}
			m.Id = append([]byte(nil), data...)
		case 2:
			if wireType != wireBytes {
				return errWireType(fieldNum, wireType)
			}
			m.Addrs = append(m.Addrs, append([]byte(nil), data...))
		}
		return nil
	})
}

// Limit

func (m *Limit) Size() (n int) {
	if m == nil {
		return 0
	}
	if m.Duration != nil {
		n += sizeVarintField(1, uint64(*m.Duration))
	}
	if m.Data != nil {
		n += sizeVarintField(2, *m.Data)
	}
	return n
}

func (m *Limit) Marshal() ([]byte, error) {
	dAtA := make([]byte, 0, m.Size())
	if m.Duration != nil {
		dAtA = appendVarintField(dAtA, 1, uint64(*m.Duration))
	}
	if m.Data != nil {
		dAtA = appendVarintField(dAtA, 2, *m.Data)
	}
	return dAtA, nil
}

func (m *Limit) Unmarshal(dAtA []byte) error {
	return unmarshalFields(dAtA, func(fieldNum int, wireType int, data []byte) error {
		switch fieldNum {
		case 1:
			v, err := readVarintValue(data)
			if err != nil {
				return err
			}
			d := uint32(v)
			m.Duration = &d
		case 2:
			v, err := readVarintValue(data)
			if err != nil {
				return err
			}
			m.Data = &v
		}
		return nil
	})
}

// Reservation

func (m *Reservation) Size() (n int) {
	if m == nil {
		return 0
	}
	if m.Expire != nil {
		n += sizeVarintField(1, *m.Expire)
	}
	for _, a := range m.Addrs {
		n += sizeBytesField(2, a)
	}
	if len(m.Voucher) > 0 {
		n += sizeBytesField(3, m.Voucher)
	}
	return n
}

func (m *Reservation) Marshal() ([]byte, error) {
	dAtA := make([]byte, 0, m.Size())
	if m.Expire != nil {
		dAtA = appendVarintField(dAtA, 1, *m.Expire)
	}
	for _, a := range m.Addrs {
		dAtA = appendBytesField(dAtA, 2, a)
	}
	if len(m.Voucher) > 0 {
		dAtA = appendBytesField(dAtA, 3, m.Voucher)
	}
	return dAtA, nil
}

func (m *Reservation) Unmarshal(dAtA []byte) error {
	return unmarshalFields(dAtA, func(fieldNum int, wireType int, data []byte) error {
		switch fieldNum {
		case 1:
			v, err := readVarintValue(data)
			if err != nil {
				return err
			}
			m.Expire = &v
		case 2:
			m.Addrs = append(m.Addrs, append([]byte(nil), data...))
		case 3:
			m.Voucher = append([]byte(nil), data...)
		}
		return nil
	})
}

// HopMessage

func (m *HopMessage) Size() (n int) {
	if m == nil {
		return 0
	}
	if m.Type != nil {
		n += sizeVarintField(1, uint64(*m.Type))
	}
	if m.Peer != nil {
		b, _ := m.Peer.Marshal()
		n += sizeBytesField(2, b)
	}
	if m.Reservation != nil {
		b, _ := m.Reservation.Marshal()
		n += sizeBytesField(3, b)
	}
	if m.Limit != nil {
		b, _ := m.Limit.Marshal()
		n += sizeBytesField(4, b)
	}
	if m.Status != nil {
		n += sizeVarintField(5, uint64(*m.Status))
	}
	if m.DiagnosticSessionId != nil {
		n += sizeBytesField(6, []byte(*m.DiagnosticSessionId))
	}
	return n
}

func (m *HopMessage) Marshal() ([]byte, error) {
	dAtA := make([]byte, 0, m.Size())
	if m.Type != nil {
		dAtA = appendVarintField(dAtA, 1, uint64(*m.Type))
	}
	if m.Peer != nil {
		b, err := m.Peer.Marshal()
		if err != nil {
			return nil, err
		}
		dAtA = appendBytesField(dAtA, 2, b)
	}
	if m.Reservation != nil {
		b, err := m.Reservation.Marshal()
		if err != nil {
			return nil, err
		}
		dAtA = appendBytesField(dAtA, 3, b)
	}
	if m.Limit != nil {
		b, err := m.Limit.Marshal()
		if err != nil {
			return nil, err
		}
		dAtA = appendBytesField(dAtA, 4, b)
	}
	if m.Status != nil {
		dAtA = appendVarintField(dAtA, 5, uint64(*m.Status))
	}
	if m.DiagnosticSessionId != nil {
		dAtA = appendBytesField(dAtA, 6, []byte(*m.DiagnosticSessionId))
	}
	return dAtA, nil
}

func (m *HopMessage) Unmarshal(dAtA []byte) error {
	return unmarshalFields(dAtA, func(fieldNum int, wireType int, data []byte) error {
		switch fieldNum {
		case 1:
			v, err := readVarintValue(data)
			if err != nil {
				return err
			}
			t := HopMessage_Type(v)
			m.Type = &t
		case 2:
			p := &Peer{}
			if err := p.Unmarshal(data); err != nil {
				return err
			}
			m.Peer = p
		case 3:
			r := &Reservation{}
			if err := r.Unmarshal(data); err != nil {
				return err
			}
			m.Reservation = r
		case 4:
			l := &Limit{}
			if err := l.Unmarshal(data); err != nil {
				return err
			}
			m.Limit = l
		case 5:
			v, err := readVarintValue(data)
			if err != nil {
				return err
			}
			s := Status(v)
			m.Status = &s
		case 6:
			s := string(data)
			m.DiagnosticSessionId = &s
		}
		return nil
	})
}

// StopMessage

func (m *StopMessage) Size() (n int) {
	if m == nil {
		return 0
	}
	if m.Type != nil {
		n += sizeVarintField(1, uint64(*m.Type))
	}
	if m.Peer != nil {
		b, _ := m.Peer.Marshal()
		n += sizeBytesField(2, b)
	}
	if m.Limit != nil {
		b, _ := m.Limit.Marshal()
		n += sizeBytesField(3, b)
	}
	if m.Status != nil {
		n += sizeVarintField(4, uint64(*m.Status))
	}
	if m.DiagnosticSessionId != nil {
		n += sizeBytesField(5, []byte(*m.DiagnosticSessionId))
	}
	return n
}

func (m *StopMessage) Marshal() ([]byte, error) {
	dAtA := make([]byte, 0, m.Size())
	if m.Type != nil {
		dAtA = appendVarintField(dAtA, 1, uint64(*m.Type))
	}
	if m.Peer != nil {
		b, err := m.Peer.Marshal()
		if err != nil {
			return nil, err
		}
		dAtA = appendBytesField(dAtA, 2, b)
	}
	if m.Limit != nil {
		b, err := m.Limit.Marshal()
		if err != nil {
			return nil, err
		}
		dAtA = appendBytesField(dAtA, 3, b)
	}
	if m.Status != nil {
		dAtA = appendVarintField(dAtA, 4, uint64(*m.Status))
	}
	if m.DiagnosticSessionId != nil {
		dAtA = appendBytesField(dAtA, 5, []byte(*m.DiagnosticSessionId))
	}
	return dAtA, nil
}

func (m *StopMessage) Unmarshal(dAtA []byte) error {
	return unmarshalFields(dAtA, func(fieldNum int, wireType int, data []byte) error {
		switch fieldNum {
		case 1:
			v, err := readVarintValue(data)
			if err != nil {
				return err
			}
			t := StopMessage_Type(v)
			m.Type = &t
		case 2:
			p := &Peer{}
			if err := p.Unmarshal(data); err != nil {
				return err
			}
			m.Peer = p
		case 3:
			l := &Limit{}
			if err := l.Unmarshal(data); err != nil {
				return err
			}
			m.Limit = l
		case 4:
			v, err := readVarintValue(data)
			if err != nil {
				return err
			}
			s := Status(v)
			m.Status = &s
		case 5:
			s := string(data)
			m.DiagnosticSessionId = &s
		}
		return nil
	})
}

func errWireType(fieldNum, wireType int) error {
	return fmt.Errorf("pb: unexpected wire type %d for field %d", wireType, fieldNum)
}

// unmarshalFields walks a protobuf-encoded message and invokes fn for every
// (fieldNum, wireType, payload) triple. Varint fields are handed their raw
// value bytes via readVarintValue; length-delimited fields are handed their
// contents directly.
func unmarshalFields(dAtA []byte, fn func(fieldNum int, wireType int, data []byte) error) error {
	l := len(dAtA)
	i := 0
	for i < l {
		key, n, err := readUvarint(dAtA[i:])
		if err != nil {
			return err
		}
		i += n
		fieldNum := int(key >> 3)
		wireType := int(key & 0x7)
		switch wireType {
		case wireVarint:
			v, n, err := readUvarint(dAtA[i:])
			if err != nil {
				return err
			}
			i += n
			var buf [10]byte
			vn := putUvarint(buf[:], v)
			if err := fn(fieldNum, wireType, buf[:vn]); err != nil {
				return err
			}
		case wireBytes:
			length, n, err := readUvarint(dAtA[i:])
			if err != nil {
				return err
			}
			i += n
			if i+int(length) > l {
				return io.ErrUnexpectedEOF
			}
			if err := fn(fieldNum, wireType, dAtA[i:i+int(length)]); err != nil {
				return err
			}
			i += int(length)
		default:
			return fmt.Errorf("pb: unsupported wire type %d", wireType)
		}
	}
	return nil
}

func readVarintValue(data []byte) (uint64, error) {
	v, _, err := readUvarint(data)
	return v, err
}

func readUvarint(dAtA []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i := 0; i < len(dAtA); i++ {
		b := dAtA[i]
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, fmt.Errorf("pb: varint overflow")
		}
	}
	return 0, 0, io.ErrUnexpectedEOF
}

func putUvarint(buf []byte, v uint64) int {
	i := 0
	for v >= 1<<7 {
		buf[i] = uint8(v&0x7f | 0x80)
		v >>= 7
		i++
	}
	buf[i] = uint8(v)
	return i + 1
}
