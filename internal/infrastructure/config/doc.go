// Package config handles loading and validating the sextet lights bridge
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Broker passwords and the InfluxDB token should be set via environment
//     variables (SEXTET_CONTROLLER_PASSWORD, SEXTET_INFLUXDB_TOKEN)
//   - ControllerConfig redacts its password in String and MarshalJSON
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, ctrl := range cfg.Controllers {
//	    fmt.Println(ctrl)
//	}
package config
