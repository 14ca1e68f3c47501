package sextet

import "iter"

// MainLight is the light forced off at startup and when the stream ends.
// It has no position in the stream; it exists only on controllers.
const MainLight = "main_light"

// Position addresses a single light bit within a frame.
type Position struct {
	Index int  // byte index, 0..FrameSize-1
	Mask  byte // one of 0x01, 0x02, 0x04, 0x08, 0x10, 0x20
}

func (p Position) slot() int {
	for bit := 0; bit < BitsPerByte; bit++ {
		if p.Mask == 1<<bit {
			return p.Index*BitsPerByte + bit
		}
	}
	return -1
}

// lightTable is indexed by byteIndex*BitsPerByte + bitPosition. Empty
// entries are unmapped.
var lightTable = [FrameSize * BitsPerByte]string{
	0*BitsPerByte + 0: "marquee_upper_left",
	0*BitsPerByte + 1: "marquee_upper_right",
	0*BitsPerByte + 2: "marquee_lower_left",
	0*BitsPerByte + 3: "marquee_lower_right",
	0*BitsPerByte + 4: "bass_left",
	0*BitsPerByte + 5: "bass_right",

	1*BitsPerByte + 0: "player_1_menu_left",
	1*BitsPerByte + 1: "player_1_menu_right",
	1*BitsPerByte + 2: "player_1_menu_up",
	1*BitsPerByte + 3: "player_1_menu_down",
	1*BitsPerByte + 4: "player_1_start",
	1*BitsPerByte + 5: "player_1_select",

	2*BitsPerByte + 0: "player_1_back",
	2*BitsPerByte + 1: "player_1_coin",
	2*BitsPerByte + 2: "player_1_operator",
	2*BitsPerByte + 3: "player_1_effect_up",
	2*BitsPerByte + 4: "player_1_effect_down",

	3*BitsPerByte + 0: "player_1_1",
	3*BitsPerByte + 1: "player_1_2",
	3*BitsPerByte + 2: "player_1_3",
	3*BitsPerByte + 3: "player_1_4",
	3*BitsPerByte + 4: "player_1_5",
	3*BitsPerByte + 5: "player_1_6",

	4*BitsPerByte + 0: "player_1_7",
	4*BitsPerByte + 1: "player_1_8",
	4*BitsPerByte + 2: "player_1_9",
	4*BitsPerByte + 3: "player_1_10",
	4*BitsPerByte + 4: "player_1_11",
	4*BitsPerByte + 5: "player_1_12",

	5*BitsPerByte + 0: "player_1_13",
	5*BitsPerByte + 1: "player_1_14",
	5*BitsPerByte + 2: "player_1_15",
	5*BitsPerByte + 3: "player_1_16",
	5*BitsPerByte + 4: "player_1_17",
	5*BitsPerByte + 5: "player_1_18",

	6*BitsPerByte + 0: "player_1_19",

	7*BitsPerByte + 0: "player_2_menu_left",
	7*BitsPerByte + 1: "player_2_menu_right",
	7*BitsPerByte + 2: "player_2_menu_up",
	7*BitsPerByte + 3: "player_2_menu_down",
	7*BitsPerByte + 4: "player_2_start",
	7*BitsPerByte + 5: "player_2_select",

	8*BitsPerByte + 0: "player_2_back",
	8*BitsPerByte + 1: "player_2_coin",
	8*BitsPerByte + 2: "player_2_operator",
	8*BitsPerByte + 3: "player_2_effect_up",
	8*BitsPerByte + 4: "player_2_effect_down",

	9*BitsPerByte + 0: "player_2_1",
	9*BitsPerByte + 1: "player_2_2",
	9*BitsPerByte + 2: "player_2_3",
	9*BitsPerByte + 3: "player_2_4",
	9*BitsPerByte + 4: "player_2_5",
	9*BitsPerByte + 5: "player_2_6",

	10*BitsPerByte + 0: "player_2_7",
	10*BitsPerByte + 1: "player_2_8",
	10*BitsPerByte + 2: "player_2_9",
	10*BitsPerByte + 3: "player_2_10",
	10*BitsPerByte + 4: "player_2_11",
	10*BitsPerByte + 5: "player_2_12",

	11*BitsPerByte + 0: "player_2_13",
	11*BitsPerByte + 1: "player_2_14",
	11*BitsPerByte + 2: "player_2_15",
	11*BitsPerByte + 3: "player_2_16",
	11*BitsPerByte + 4: "player_2_17",
	11*BitsPerByte + 5: "player_2_18",

	12*BitsPerByte + 0: "player_2_19",
}

// lightIndex is the reverse of lightTable, built once at init.
var lightIndex = func() map[string]Position {
	m := make(map[string]Position, len(lightTable))
	for slot, name := range lightTable {
		if name == "" {
			continue
		}
		m[name] = Position{Index: slot / BitsPerByte, Mask: 1 << (slot % BitsPerByte)}
	}
	return m
}()

// LightName returns the light bound to p. The boolean is false for
// unmapped or out-of-range positions.
func LightName(p Position) (string, bool) {
	if p.Index < 0 || p.Index >= FrameSize {
		return "", false
	}
	slot := p.slot()
	if slot < 0 {
		return "", false
	}
	name := lightTable[slot]
	return name, name != ""
}

// LightPosition returns the frame position of a named light.
func LightPosition(name string) (Position, bool) {
	p, ok := lightIndex[name]
	return p, ok
}

// MappedLights yields every bound position in stream order.
func MappedLights() iter.Seq2[Position, string] {
	return func(yield func(Position, string) bool) {
		for slot, name := range lightTable {
			if name == "" {
				continue
			}
			p := Position{Index: slot / BitsPerByte, Mask: 1 << (slot % BitsPerByte)}
			if !yield(p, name) {
				return
			}
		}
	}
}

// LightCount returns the number of bound positions.
func LightCount() int {
	return len(lightIndex)
}
