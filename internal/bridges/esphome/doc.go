// Package esphome implements controller.Client for ESPHome lighting
// controllers reached through an MQTT broker.
//
// ESPHome nodes with the mqtt component announce their entities through
// Home Assistant style discovery messages and accept JSON light commands.
// This package turns those into the controller package's vocabulary:
//
//	sextet bridge → controller.Session → esphome.Client → MQTT broker → ESPHome node
//
// # Connection
//
// Connect dials the broker, subscribes to the node's status topic and waits
// for the node's "online" birth message. Automatic reconnection in paho is
// disabled: losing the broker or seeing the node publish "offline" invokes
// the onLost callback once and the controller.Supervisor decides when to
// dial again.
//
// # Inventory
//
// ListEntities subscribes to
//
//	{discovery_prefix}/+/{node}/+/config
//
// and collects the retained discovery payloads until the broker has been
// quiet for DiscoveryQuiet. The discovery component ("light", "switch", ...)
// becomes the entity type and the command topic becomes the entity key.
// Abbreviated keys ("cmd_t", "~") are expanded.
//
// # Commands
//
// SendLight publishes a JSON schema light command to the entity's command
// topic:
//
//	{"state":"ON","brightness":128,"color":{"r":232,"g":67,"b":166},"transition":0.01}
//
// Brightness is scaled to 0-255 and the transition is given in seconds.
//
// # Thread Safety
//
// All Client methods are safe for concurrent use.
package esphome
