package sextet

import "iter"

// Transition is a single light changing state between two frames.
type Transition struct {
	Light    string
	On       bool
	Position Position
}

// Diff yields a transition for every mapped light whose bit differs between
// prev and next, ordered by byte index and then mask value.
func Diff(prev, next Frame) iter.Seq[Transition] {
	return func(yield func(Transition) bool) {
		for i := range FrameSize {
			changed := (prev[i] ^ next[i]) & DataMask
			if changed == 0 {
				continue
			}
			for bit := range BitsPerByte {
				mask := byte(1) << bit
				if changed&mask == 0 {
					continue
				}
				name := lightTable[i*BitsPerByte+bit]
				if name == "" {
					continue
				}
				t := Transition{
					Light:    name,
					On:       next[i]&mask != 0,
					Position: Position{Index: i, Mask: mask},
				}
				if !yield(t) {
					return
				}
			}
		}
	}
}

// Differ tracks the last applied frame. The zero value starts with every
// light off.
//
// Differ is not safe for concurrent use; frames must be applied one at a
// time.
type Differ struct {
	prev Frame
}

// Apply adopts next as the current snapshot and returns the transitions
// from the previous snapshot. The returned sequence is lazy and compares
// against a copy of the previous frame, so it stays valid after later calls
// to Apply.
func (d *Differ) Apply(next Frame) iter.Seq[Transition] {
	prev := d.prev
	d.prev = next
	return Diff(prev, next)
}

// Snapshot returns a copy of the current frame.
func (d *Differ) Snapshot() Frame {
	return d.prev
}

// Reset returns every light to off without emitting transitions.
func (d *Differ) Reset() {
	d.prev = Frame{}
}
