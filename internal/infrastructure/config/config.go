package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values used when neither the file nor the environment sets them.
const (
	DefaultInputPath       = "~/.stepmania-5.1/Save/StepMania-Lights-SextetStream.out"
	DefaultMainLight       = "main_light"
	DefaultDiscoveryPrefix = "homeassistant"
	DefaultBrokerPort      = 1883
)

// Config is the root configuration structure for the sextet lights bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Input       InputConfig        `yaml:"input"`
	Controllers []ControllerConfig `yaml:"controllers"`
	Reconnect   ReconnectConfig    `yaml:"reconnect"`
	Lights      LightsConfig       `yaml:"lights"`
	Database    DatabaseConfig     `yaml:"database"`
	InfluxDB    InfluxDBConfig     `yaml:"influxdb"`
	Logging     LoggingConfig      `yaml:"logging"`
	API         APIConfig          `yaml:"api"`
}

// InputConfig describes the sextet stream source.
type InputConfig struct {
	// Path is the stream file or pipe. A leading "~" expands to the home
	// directory and "-" reads standard input.
	Path string `yaml:"path"`

	// QueueSize is the number of frame batches buffered per controller.
	QueueSize int `yaml:"queue_size"`
}

// ControllerConfig describes one ESPHome controller reached through MQTT.
type ControllerConfig struct {
	// Name identifies the controller in logs, telemetry and the event journal.
	Name string `yaml:"name"`

	// Host and Port locate the MQTT broker the node is attached to.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`

	// ClientID defaults to "sextetlights-" + Name.
	ClientID string `yaml:"client_id"`

	Username string `yaml:"username"`

	// Password for MQTT authentication (optional).
	// WARNING: Never log this value. Use String() method for safe logging.
	Password string `yaml:"password"`

	// Node is the ESPHome node name, which is also its MQTT topic prefix.
	Node string `yaml:"node"`

	// DiscoveryPrefix is the discovery topic root. Default: "homeassistant".
	DiscoveryPrefix string `yaml:"discovery_prefix"`

	// QoS for commands and subscriptions. Default: 0.
	QoS int `yaml:"qos"`

	// DiscoveryQuietMS ends entity discovery after this many milliseconds
	// without a new discovery message. Default: 500.
	DiscoveryQuietMS int `yaml:"discovery_quiet_ms"`
}

// String returns a string representation with password masked.
// Use this for logging to prevent credential exposure.
func (c ControllerConfig) String() string {
	password := ""
	if c.Password != "" {
		password = "[REDACTED]"
	}
	return fmt.Sprintf("ControllerConfig{Name:%q, Host:%q, Port:%d, Node:%q, Username:%q, Password:%s}",
		c.Name, c.Host, c.Port, c.Node, c.Username, password)
}

// MarshalJSON implements json.Marshaler to redact the password in JSON output.
func (c ControllerConfig) MarshalJSON() ([]byte, error) {
	type redacted ControllerConfig
	safe := redacted(c)
	if safe.Password != "" {
		safe.Password = "[REDACTED]"
	}
	return json.Marshal(safe)
}

// GetClientID returns the MQTT client ID for the controller.
func (c ControllerConfig) GetClientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return "sextetlights-" + c.Name
}

// GetDiscoveryQuiet returns the discovery quiet period as a Duration.
func (c ControllerConfig) GetDiscoveryQuiet() time.Duration {
	return time.Duration(c.DiscoveryQuietMS) * time.Millisecond
}

// ReconnectConfig contains controller supervision settings.
type ReconnectConfig struct {
	// DelaySeconds is the fixed wait before reconnecting. Default: 5.
	DelaySeconds int `yaml:"delay_seconds"`

	// ConnectTimeoutSeconds bounds a single connection attempt. Default: 10.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`

	// InitialWaitSeconds bounds the wait for each controller at startup.
	// Default: 10.
	InitialWaitSeconds int `yaml:"initial_wait_seconds"`
}

// LightsConfig contains the fixed parts of every light command.
type LightsConfig struct {
	MainLight       string      `yaml:"main_light"`
	Brightness      float64     `yaml:"brightness"`
	Color           ColorConfig `yaml:"color"`
	OnTransitionMS  int         `yaml:"on_transition_ms"`
	OffTransitionMS int         `yaml:"off_transition_ms"`
}

// ColorConfig is an RGB colour with 0-255 components.
type ColorConfig struct {
	R int `yaml:"r"`
	G int `yaml:"g"`
	B int `yaml:"b"`
}

// DatabaseConfig contains settings for the SQLite event journal.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the optional status HTTP server settings.
type APIConfig struct {
	Enabled   bool            `yaml:"enabled"`
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// WebSocketConfig contains settings of the live transition feed.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"` // bytes accepted from a client
	PingInterval   int `yaml:"ping_interval"`    // seconds
	PongTimeout    int `yaml:"pong_timeout"`     // seconds
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SEXTET_SECTION_KEY
// For example: SEXTET_INPUT_PATH, SEXTET_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyControllerDefaults()

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults and no controllers.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:      DefaultInputPath,
			QueueSize: 64,
		},
		Reconnect: ReconnectConfig{
			DelaySeconds:          5,
			ConnectTimeoutSeconds: 10,
			InitialWaitSeconds:    10,
		},
		Lights: LightsConfig{
			MainLight:       DefaultMainLight,
			Brightness:      0.5,
			Color:           ColorConfig{R: 232, G: 67, B: 166},
			OnTransitionMS:  10,
			OffTransitionMS: 700,
		},
		Database: DatabaseConfig{
			Path:        "./data/sextetlights.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			WebSocket: WebSocketConfig{
				MaxMessageSize: 8192,
				PingInterval:   30,
				PongTimeout:    10,
			},
		},
	}
}

// applyControllerDefaults fills per-controller fields the file left empty.
// YAML list entries start from zero values, so defaults cannot be seeded.
func (c *Config) applyControllerDefaults() {
	for i := range c.Controllers {
		ctrl := &c.Controllers[i]
		if ctrl.Port == 0 {
			ctrl.Port = DefaultBrokerPort
		}
		if ctrl.Node == "" {
			ctrl.Node = ctrl.Name
		}
		if ctrl.DiscoveryPrefix == "" {
			ctrl.DiscoveryPrefix = DefaultDiscoveryPrefix
		}
		if ctrl.DiscoveryQuietMS == 0 {
			ctrl.DiscoveryQuietMS = 500
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SEXTET_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Input
	if v := os.Getenv("SEXTET_INPUT_PATH"); v != "" {
		cfg.Input.Path = v
	}

	// Controllers - one broker password shared by every controller
	if v := os.Getenv("SEXTET_CONTROLLER_PASSWORD"); v != "" {
		for i := range cfg.Controllers {
			cfg.Controllers[i].Password = v
		}
	}

	// Database
	if v := os.Getenv("SEXTET_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("SEXTET_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("SEXTET_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Input validation
	if c.Input.Path == "" {
		errs = append(errs, "input.path is required")
	}
	if c.Input.QueueSize < 1 {
		errs = append(errs, "input.queue_size must be at least 1")
	}

	errs = append(errs, c.validateControllers()...)

	// Reconnect validation
	if c.Reconnect.DelaySeconds < 1 {
		errs = append(errs, "reconnect.delay_seconds must be at least 1")
	}
	if c.Reconnect.ConnectTimeoutSeconds < 1 {
		errs = append(errs, "reconnect.connect_timeout_seconds must be at least 1")
	}
	if c.Reconnect.InitialWaitSeconds < 0 {
		errs = append(errs, "reconnect.initial_wait_seconds cannot be negative")
	}

	errs = append(errs, c.validateLights()...)

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the database is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	errs = append(errs, c.validateAPI()...)

	// Logging validation
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q must be debug, info, warn, or error", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, "logging.format must be json or text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (c *Config) validateControllers() []string {
	var errs []string

	if len(c.Controllers) == 0 {
		return append(errs, "at least one controller is required")
	}

	seen := make(map[string]bool, len(c.Controllers))
	for i, ctrl := range c.Controllers {
		prefix := fmt.Sprintf("controllers[%d]", i)
		if ctrl.Name == "" {
			errs = append(errs, prefix+".name is required")
		} else if seen[ctrl.Name] {
			errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", prefix, ctrl.Name))
		}
		seen[ctrl.Name] = true

		if ctrl.Host == "" {
			errs = append(errs, prefix+".host is required")
		}
		if ctrl.Port < 1 || ctrl.Port > 65535 {
			errs = append(errs, prefix+".port must be between 1 and 65535")
		}
		if ctrl.Node == "" {
			errs = append(errs, prefix+".node is required")
		}
		if ctrl.QoS < 0 || ctrl.QoS > 2 {
			errs = append(errs, prefix+".qos must be 0, 1, or 2")
		}
		if ctrl.DiscoveryQuietMS < 0 {
			errs = append(errs, prefix+".discovery_quiet_ms cannot be negative")
		}
	}

	return errs
}

func (c *Config) validateAPI() []string {
	if !c.API.Enabled {
		return nil
	}

	var errs []string
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	ws := c.API.WebSocket
	if ws.MaxMessageSize < 1 || ws.PingInterval < 1 || ws.PongTimeout < 1 {
		errs = append(errs, "api.websocket settings must be positive")
	}
	return errs
}

func (c *Config) validateLights() []string {
	var errs []string

	if c.Lights.MainLight == "" {
		errs = append(errs, "lights.main_light is required")
	}
	if c.Lights.Brightness < 0 || c.Lights.Brightness > 1 {
		errs = append(errs, "lights.brightness must be between 0 and 1")
	}
	for _, component := range []int{c.Lights.Color.R, c.Lights.Color.G, c.Lights.Color.B} {
		if component < 0 || component > 255 {
			errs = append(errs, "lights.color components must be between 0 and 255")
			break
		}
	}
	if c.Lights.OnTransitionMS < 0 || c.Lights.OffTransitionMS < 0 {
		errs = append(errs, "lights transitions cannot be negative")
	}

	return errs
}

// GetRetryDelay returns the reconnect delay as a Duration.
func (c *Config) GetRetryDelay() time.Duration {
	return time.Duration(c.Reconnect.DelaySeconds) * time.Second
}

// GetConnectTimeout returns the per-attempt connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Reconnect.ConnectTimeoutSeconds) * time.Second
}

// GetInitialWait returns the startup wait per controller as a Duration.
func (c *Config) GetInitialWait() time.Duration {
	return time.Duration(c.Reconnect.InitialWaitSeconds) * time.Second
}

// GetOnTransition returns the switch-on transition as a Duration.
func (c *Config) GetOnTransition() time.Duration {
	return time.Duration(c.Lights.OnTransitionMS) * time.Millisecond
}

// GetOffTransition returns the switch-off transition as a Duration.
func (c *Config) GetOffTransition() time.Duration {
	return time.Duration(c.Lights.OffTransitionMS) * time.Millisecond
}
