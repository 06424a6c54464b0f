// Package util provides the length-delimited protobuf framing shared by the
// HOP and STOP protocol handlers: varint(length) || bytes(length) on top of
// a raw stream.
package util

import (
	"io"

	"github.com/gogo/protobuf/proto"
	msgio "github.com/libp2p/go-msgio"
)

// DelimitedReader reads one length-prefixed protobuf message at a time,
// rejecting anything past the configured maximum size.
type DelimitedReader struct {
	r       msgio.ReadCloser
	maxSize int
}

// NewDelimitedReader wraps r with varint-length-delimited protobuf framing.
// Messages larger than maxSize fail to read.
func NewDelimitedReader(r io.Reader, maxSize int) *DelimitedReader {
	return &DelimitedReader{r: msgio.NewVarintReaderSize(r, maxSize), maxSize: maxSize}
}

// ReadMsg reads one frame and unmarshals it into msg.
func (d *DelimitedReader) ReadMsg(msg proto.Message) error {
	data, err := d.r.ReadMsg()
	if err != nil {
		return err
	}
	defer d.r.ReleaseMsg(data)
	return proto.Unmarshal(data, msg)
}

// Close releases the underlying reader's buffers. It does not close the
// wrapped stream.
func (d *DelimitedReader) Close() error {
	return d.r.Close()
}

// DelimitedWriter writes one length-prefixed protobuf message at a time.
type DelimitedWriter struct {
	w msgio.WriteCloser
}

// NewDelimitedWriter wraps w with varint-length-delimited protobuf framing.
func NewDelimitedWriter(w io.Writer) *DelimitedWriter {
	return &DelimitedWriter{w: msgio.NewVarintWriter(w)}
}

// WriteMsg marshals msg and writes it as a single length-prefixed frame.
func (d *DelimitedWriter) WriteMsg(msg proto.Message) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	return d.w.WriteMsg(data)
}

// Close closes the underlying writer.
func (d *DelimitedWriter) Close() error {
	return d.w.Close()
}
