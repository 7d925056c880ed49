package workflow

// Trigger is an action that may move the draft lifecycle
type Trigger string

const (
	TriggerCompose Trigger = "COMPOSE"
	TriggerConfirm Trigger = "CONFIRM"
	TriggerDiscard Trigger = "DISCARD"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
