package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// State is a named position in the dialog. It keys into the action table.
type State string

const (
	StateMenu          State = "menu"
	StateGreet         State = "greet"
	StateUserExists    State = "user_exists"
	StateRegister      State = "register"
	StateEnroll        State = "enroll"
	StateCourses       State = "courses"
	StateAssignments   State = "assignments"
	StatePayments      State = "payments"
	StateProfile       State = "profile"
	StateHelp          State = "help"
	StateAbout         State = "about"
	StateHandlePayment State = "handle_payment"
	StateJoinClass     State = "join_class"
	StateCancelPayment State = "cancel_payment"
)

// OverrideStates are reachable from any state through phrase overrides or the
// unregistered-user guard, so the action table must always define them.
var OverrideStates = []State{
	StateJoinClass,
	StateCancelPayment,
	StateHandlePayment,
	StateGreet,
	StateMenu,
}

// Target is a transition destination. It is either a single state, or a list of
// acceptable sub-states from which the next message body selects the literal state.
type Target struct {
	Name    State
	Options []State
}

// To returns a single-state target.
func To(s State) Target {
	return Target{Name: s}
}

// OneOf returns a list-valued target.
func OneOf(states ...State) Target {
	return Target{Options: append([]State{}, states...)}
}

// IsList reports whether the target is a set of sub-states.
func (t Target) IsList() bool {
	return t.Options != nil
}

// IsZero reports whether the target is unset.
func (t Target) IsZero() bool {
	return t.Name == "" && t.Options == nil
}

// Contains reports whether s is the target state or one of its options.
func (t Target) Contains(s State) bool {
	if t.IsList() {
		return slices.Contains(t.Options, s)
	}
	return t.Name == s
}

// Resolve returns the concrete state for a message body. A single target resolves to
// itself. A list target resolves to the member equal to the lower-cased body; ok is
// false when the body is not a member.
func (t Target) Resolve(body string) (State, bool) {
	if !t.IsList() {
		return t.Name, t.Name != ""
	}
	candidate := State(strings.ToLower(strings.TrimSpace(body)))
	if slices.Contains(t.Options, candidate) {
		return candidate, true
	}
	return "", false
}

func (t Target) String() string {
	if !t.IsList() {
		return string(t.Name)
	}
	names := make([]string, len(t.Options))
	for i, s := range t.Options {
		names[i] = string(s)
	}
	return "[" + strings.Join(names, ",") + "]"
}

// MarshalJSON encodes a single target as a string and a list target as an array.
func (t Target) MarshalJSON() ([]byte, error) {
	if t.IsList() {
		return json.Marshal(t.Options)
	}
	return json.Marshal(t.Name)
}

// UnmarshalJSON accepts either a string or an array of strings.
func (t *Target) UnmarshalJSON(data []byte) error {
	var single State
	if err := json.Unmarshal(data, &single); err == nil {
		*t = To(single)
		return nil
	}
	var list []State
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("target must be a state or a list of states: %w", err)
	}
	*t = OneOf(list...)
	return nil
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (t *Target) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*t = To(State(value.Value))
		return nil
	case yaml.SequenceNode:
		var list []State
		if err := value.Decode(&list); err != nil {
			return err
		}
		*t = OneOf(list...)
		return nil
	default:
		return fmt.Errorf("line %d: target must be a state or a list of states", value.Line)
	}
}
