package mqtt

import "strings"

// DefaultTopicPrefix is the root of every simulator topic.
const DefaultTopicPrefix = "sovdsim"

// Topics builds the topic names for one simulated vehicle.
//
//	topics := mqtt.NewTopics("sovdsim", "democar")
//	topics.Event("lock.acquired") // "sovdsim/democar/event/lock.acquired"
type Topics struct {
	prefix  string
	vehicle string
}

// NewTopics returns builders rooted at prefix/vehicle. An empty prefix
// falls back to DefaultTopicPrefix; slashes around either part are trimmed.
func NewTopics(prefix, vehicle string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix, vehicle: strings.Trim(vehicle, "/")}
}

// Base returns "<prefix>/<vehicle>".
func (t Topics) Base() string {
	return t.prefix + "/" + t.vehicle
}

// Status returns the retained online/offline topic, also used for the LWT.
func (t Topics) Status() string {
	return t.Base() + "/status"
}

// State returns the retained physical state topic.
func (t Topics) State() string {
	return t.Base() + "/state"
}

// Event returns the topic for a simulation event channel.
func (t Topics) Event(channel string) string {
	return t.Base() + "/event/" + channel
}

// AllEvents returns a wildcard matching every event topic.
func (t Topics) AllEvents() string {
	return t.Base() + "/event/#"
}
