package esphome

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/sextet-lights/internal/controller"
)

// Node status payloads published by ESPHome's birth and will messages.
const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// componentLight is the discovery component of light entities.
const componentLight = "light"

// StatusTopic returns the availability topic of an ESPHome node.
func StatusTopic(node string) string {
	return node + "/status"
}

// DiscoveryFilter returns the subscription filter matching every discovery
// config message of a node.
//
//	DiscoveryFilter("homeassistant", "cabinet")
//	// Returns: "homeassistant/+/cabinet/+/config"
func DiscoveryFilter(prefix, node string) string {
	return fmt.Sprintf("%s/+/%s/+/config", prefix, node)
}

// discoveryTopic holds the parts of a discovery config topic.
type discoveryTopic struct {
	component string
	node      string
	objectID  string
}

// parseDiscoveryTopic splits "{prefix}/{component}/{node}/{object_id}/config".
// The prefix may itself contain slashes.
func parseDiscoveryTopic(prefix, topic string) (discoveryTopic, bool) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return discoveryTopic{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 4 || parts[3] != "config" {
		return discoveryTopic{}, false
	}
	for _, p := range parts[:3] {
		if p == "" {
			return discoveryTopic{}, false
		}
	}
	return discoveryTopic{component: parts[0], node: parts[1], objectID: parts[2]}, true
}

// discoveryPayload is the subset of a discovery config the client needs.
// ESPHome publishes abbreviated keys; both forms are accepted.
type discoveryPayload struct {
	Base         string `json:"~"`
	Name         string `json:"name"`
	CommandTopic string `json:"command_topic"`
	CmdT         string `json:"cmd_t"`
	UniqueID     string `json:"unique_id"`
	UniqID       string `json:"uniq_id"`
}

// parseDiscovery turns a discovery message into an entity. It returns
// ok=false for an empty payload, which removes the entity.
func parseDiscovery(prefix, topic string, payload []byte) (controller.Entity, bool, error) {
	t, ok := parseDiscoveryTopic(prefix, topic)
	if !ok {
		return controller.Entity{}, false, fmt.Errorf("%w: unexpected topic %q", ErrInvalidDiscovery, topic)
	}
	if len(payload) == 0 {
		return controller.Entity{}, false, nil
	}

	var p discoveryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return controller.Entity{}, false, fmt.Errorf("%w: %s: %w", ErrInvalidDiscovery, topic, err)
	}

	name := p.Name
	if name == "" {
		name = t.objectID
	}

	entityType := controller.EntityOther
	if t.component == componentLight {
		entityType = controller.EntityLight
	}

	key := expandBase(p.Base, firstNonEmpty(p.CommandTopic, p.CmdT))
	if entityType == controller.EntityLight && key == "" {
		return controller.Entity{}, false, fmt.Errorf("%w: light %q has no command topic", ErrInvalidDiscovery, name)
	}

	return controller.Entity{Name: name, Key: key, Type: entityType}, true, nil
}

// expandBase resolves the "~" abbreviation at either end of a topic.
func expandBase(base, topic string) string {
	if base == "" {
		return topic
	}
	if rest, ok := strings.CutPrefix(topic, "~"); ok {
		return base + rest
	}
	if rest, ok := strings.CutSuffix(topic, "~"); ok {
		return rest + base
	}
	return topic
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
