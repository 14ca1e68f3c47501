package esphome

import (
	"encoding/json"
	"math"

	"github.com/nerrad567/sextet-lights/internal/controller"
)

// brightnessScale is the JSON schema's brightness range.
const brightnessScale = 255

type colorPayload struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// commandPayload is an ESPHome JSON schema light command.
type commandPayload struct {
	State      string       `json:"state"`
	Brightness int          `json:"brightness"`
	Color      colorPayload `json:"color"`
	Transition float64      `json:"transition"`
}

// encodeCommand renders a light command as ESPHome JSON.
func encodeCommand(cmd controller.LightCommand) ([]byte, error) {
	state := "OFF"
	if cmd.On {
		state = "ON"
	}

	brightness := math.Round(math.Max(0, math.Min(1, cmd.Brightness)) * brightnessScale)

	return json.Marshal(commandPayload{
		State:      state,
		Brightness: int(brightness),
		Color:      colorPayload{R: cmd.Color.R, G: cmd.Color.G, B: cmd.Color.B},
		Transition: cmd.Transition.Seconds(),
	})
}
