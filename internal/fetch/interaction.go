package fetch

import (
	"encoding/json"
	"fmt"
	"time"
)

// StepAction names what an interaction step does.
type StepAction string

const (
	// ActionClick clicks the first element matching Selector.
	ActionClick StepAction = "click"
	// ActionClickPoint clicks the viewport coordinates X, Y.
	ActionClickPoint StepAction = "click_point"
	// ActionWaitVisible waits until Selector is visible.
	ActionWaitVisible StepAction = "wait_visible"
	// ActionPressKey sends Key to the focused element.
	ActionPressKey StepAction = "press_key"
	// ActionSendKeys types Key into the element matching Selector.
	ActionSendKeys StepAction = "send_keys"
	// ActionSleep pauses for Delay.
	ActionSleep StepAction = "sleep"
)

// Step is one scripted browser action.
type Step struct {
	Action   StepAction `json:"action"`
	Selector string     `json:"selector,omitempty"`
	Key      string     `json:"key,omitempty"`
	X        float64    `json:"x,omitempty"`
	Y        float64    `json:"y,omitempty"`
	Delay    Duration   `json:"delay,omitempty"`
	// Optional steps that fail (e.g. a consent banner that never showed)
	// are skipped instead of failing the fetch.
	Optional bool `json:"optional,omitempty"`
}

// Interaction is a script run once in a freshly loaded page, typically to
// accept a cookie banner or fill in a location picker before a search.
type Interaction struct {
	Steps []Step `json:"steps"`
	// Settle is how long to wait after the last step before reading the page.
	Settle Duration `json:"settle,omitempty"`
}

// Validate checks every step carries the fields its action needs.
func (in *Interaction) Validate() error {
	if in == nil {
		return nil
	}
	for i, s := range in.Steps {
		switch s.Action {
		case ActionClick, ActionWaitVisible:
			if s.Selector == "" {
				return fmt.Errorf("step %d (%s): selector is required", i, s.Action)
			}
		case ActionSendKeys:
			if s.Selector == "" || s.Key == "" {
				return fmt.Errorf("step %d (%s): selector and key are required", i, s.Action)
			}
		case ActionPressKey:
			if s.Key == "" {
				return fmt.Errorf("step %d (%s): key is required", i, s.Action)
			}
		case ActionSleep:
			if s.Delay <= 0 {
				return fmt.Errorf("step %d (%s): delay must be positive", i, s.Action)
			}
		case ActionClickPoint:
		default:
			return fmt.Errorf("step %d: unknown action %q", i, s.Action)
		}
	}
	return nil
}

// Duration is a time.Duration that reads and writes JSON as "2s" style strings.
type Duration time.Duration

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts "1500ms" style strings or a number of milliseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value) * time.Millisecond)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
	return nil
}
