package models

// EventKind names a realtime event on the wire.
type EventKind string

const (
	EventTriggerLight EventKind = "trigger_light"
	EventTriggerAlarm EventKind = "trigger_alarm"
	EventLights       EventKind = "lights"
)

// TriggerStateOn is the only state emitted by the server.
const TriggerStateOn = "ON"

// LightTrigger is emitted after an announcement is stored.
type LightTrigger struct {
	State string `json:"state"`
	Color string `json:"color"`
}

// AlarmTrigger is emitted after a disturbance report is stored.
type AlarmTrigger struct {
	State string `json:"state"`
	Sound string `json:"sound"`
}

// LightsCommand is sent by clients to drive the light manually.
type LightsCommand struct {
	Status string `json:"status"`
}

// BroadcastEvent is an ephemeral frame fanned out to connected clients. It is never persisted
// and carries no announcement or report id.
type BroadcastEvent struct {
	Kind    EventKind   `json:"event"`
	Payload interface{} `json:"data"`
}
