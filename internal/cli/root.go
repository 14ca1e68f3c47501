// Package cli implements the sextetlights command line.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sextet-lights/internal/infrastructure/config"
)

// Version information, set at build time via ldflags:
//
//	go build -ldflags "-X github.com/nerrad567/sextet-lights/internal/cli.Version=1.0.0"
var (
	Version = "dev"
	Commit  = "unknown"
)

// Config file resolution.
const (
	configEnvVar      = "SEXTET_CONFIG"
	defaultConfigPath = "configs/config.yaml"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sextetlights",
	Short: "Drive ESPHome lights from a StepMania SextetStream",
	Long: `sextetlights reads the SextetStream light output of StepMania, works out
which cabinet lights changed on every frame and switches the matching lights
on one or more ESPHome controllers over MQTT.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("sextetlights version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $"+configEnvVar+" or "+defaultConfigPath+")")
}

// Execute runs the root command. An interrupted run is not an error.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// resolveConfigPath picks the --config flag, then $SEXTET_CONFIG, then the
// default path.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(configEnvVar); env != "" {
		return env
	}
	return defaultConfigPath
}

func loadConfig() (*config.Config, string, error) {
	path := resolveConfigPath(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
