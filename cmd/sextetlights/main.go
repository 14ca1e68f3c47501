// Sextet Lights - StepMania cabinet lights on ESPHome controllers
//
// sextetlights follows the SextetStream light output of StepMania and
// switches the matching lights on one or more ESPHome controllers over MQTT.
//
// Usage:
//
//	sextetlights run --config configs/config.yaml
//	sextetlights decode < StepMania-Lights-SextetStream.out
//	sextetlights lights
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/sextet-lights/internal/cli"
)

func main() {
	// Cancel on Ctrl+C or SIGTERM. An interrupted run exits 0.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
