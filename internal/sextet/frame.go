package sextet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const (
	// FrameSize is the number of data bytes in a frame.
	FrameSize = 13

	// DataMask keeps the six light bits of each stream byte.
	DataMask = 0x3F

	// BitsPerByte is the number of light bits carried by each byte.
	BitsPerByte = 6

	terminator = '\n'
)

// Frame is one complete light bitmap. It is an array so that assignment
// copies; a Frame never aliases the decoder's buffer.
type Frame [FrameSize]byte

// Mask strips the two high bits of a stream byte.
func Mask(b byte) byte {
	return b & DataMask
}

// IsOn reports whether the light bit at (index, mask) is set.
func (f Frame) IsOn(index int, mask byte) bool {
	return f[index]&mask != 0
}

// Decoder reassembles newline-delimited frames from a byte stream.
//
// Decoder is not safe for concurrent use.
type Decoder struct {
	r       *bufio.Reader
	cur     Frame
	n       int // bytes received for the current line, including overflow
	partial int
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next complete frame. It returns io.EOF once the source
// is exhausted; any bytes received after the last terminator are discarded.
// Other read failures are wrapped in ErrRead.
func (d *Decoder) Next() (Frame, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.partial = d.n
				d.reset()
				return Frame{}, io.EOF
			}
			return Frame{}, fmt.Errorf("%w: %w", ErrRead, err)
		}

		if b == terminator {
			frame := d.cur
			d.reset()
			return frame, nil
		}

		if d.n < FrameSize {
			d.cur[d.n] = Mask(b)
		}
		d.n++
	}
}

// Partial returns the number of bytes that were discarded because the stream
// ended before their line was terminated. It is only meaningful after Next
// has returned io.EOF.
func (d *Decoder) Partial() int {
	return d.partial
}

func (d *Decoder) reset() {
	d.cur = Frame{}
	d.n = 0
}
