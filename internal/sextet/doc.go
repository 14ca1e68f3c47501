// Package sextet decodes the StepMania SextetStream lighting protocol and
// computes light transitions between consecutive frames.
//
// # Wire Format
//
// The stream is a sequence of lines. Each byte of a line carries six light
// bits in its low six bits; the upper two bits are discarded. A line feed
// terminates a frame and is never part of it:
//
//	byte:  0    1    2   ...  12   '\n'
//	bits:  --543210 (mask 0x01 .. 0x20)
//
// A frame always holds FrameSize bytes. Shorter lines are zero-padded and
// longer lines are truncated. A trailing line without a terminator is dropped
// at end of stream.
//
// # Lights
//
// Each (byte, mask) pair may be bound to a logical light name such as
// "player_1_start". The table is fixed and built once; unmapped pairs are
// never reported.
//
// # Diffing
//
//	var d sextet.Differ
//	for {
//	    frame, err := dec.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    for t := range d.Apply(frame) {
//	        fmt.Println(t.Light, t.On)
//	    }
//	}
//
// Transitions come out ordered by byte index, then mask value.
package sextet
